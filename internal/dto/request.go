package dto

type RenameFileRequest struct {
	StorageKey  string `json:"storage_key" binding:"required"`
	NewFilename string `json:"new_filename" binding:"required"`
}

type SetVisibilityRequest struct {
	StorageKey string `json:"storage_key" binding:"required"`
	Visibility string `json:"visibility" binding:"required"`
}

type CreateCourseRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	Visibility    string   `json:"visibility"`
	Collaborators []string `json:"collaborators"`
}

type LoginRequest struct {
	Subject string `json:"subject" binding:"required"`
	Role    string `json:"role"`
}
