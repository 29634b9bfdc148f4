package handler

import (
	"CourseForge/internal/dto"
	"CourseForge/internal/service"
	"CourseForge/model"
	"CourseForge/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// FileHandler binds the coordinator's file operations to HTTP.
type FileHandler struct {
	files *service.FileService
}

// NewFileHandler builds the file handler.
func NewFileHandler(files *service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

func principalFrom(c *gin.Context) service.Principal {
	return service.Principal{
		Subject: c.GetString("subject"),
		Role:    c.GetString("role"),
	}
}

func toView(rec *model.FileRecord) dto.FileRecordView {
	return dto.FileRecordView{
		OwnerScope:  rec.OwnerScope,
		DisplayName: rec.DisplayName,
		StorageKey:  rec.StorageKey,
		AccessURL:   rec.AccessURL,
		ContentType: rec.ContentType,
		ByteSize:    rec.ByteSize,
		UploaderRef: rec.UploaderRef,
		Visibility:  rec.Visibility,
		PublishAt:   rec.PublishAt,
		UploadedAt:  rec.UploadedAt,
	}
}

// Upload stores a multipart file and its metadata record.
func (h *FileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	var publishAt *time.Time
	if raw := c.PostForm("publish_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "publish_at must be RFC3339"})
			return
		}
		publishAt = &parsed
	}
	uploaderRef := c.PostForm("uploader_ref")
	if uploaderRef == "" {
		uploaderRef = c.GetString("subject")
	}

	src, err := fileHeader.Open()
	if err != nil {
		utils.Fail(c, err)
		return
	}
	defer src.Close()

	rec, err := h.files.Upload(c.Request.Context(), service.UploadInput{
		Payload:     src,
		Size:        fileHeader.Size,
		OwnerScope:  c.PostForm("course_id"),
		DisplayName: fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		UploaderRef: uploaderRef,
		Visibility:  c.PostForm("visibility"),
		PublishAt:   publishAt,
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, toView(rec))
}

// Delete removes a blob and its metadata row by storage key.
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), c.Query("storage_key")); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, nil)
}

// ListAll returns the bucket-derived reconciliation listing.
func (h *FileHandler) ListAll(c *gin.Context) {
	listing, err := h.files.ListAll(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, listing)
}

// GetMetadata returns metadata for one course scope, filtered by the
// caller's role.
func (h *FileHandler) GetMetadata(c *gin.Context) {
	records, err := h.files.GetMetadata(c.Request.Context(), principalFrom(c), c.Query("owner_scope"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	views := make([]dto.FileRecordView, 0, len(records))
	for i := range records {
		views = append(views, toView(&records[i]))
	}
	utils.Success(c, views)
}

// Rename relocates a blob under a new name and updates its record.
func (h *FileHandler) Rename(c *gin.Context) {
	var req dto.RenameFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	rec, err := h.files.Rename(c.Request.Context(), req.StorageKey, req.NewFilename)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, toView(rec))
}

// Replace overwrites the content behind an existing storage key.
func (h *FileHandler) Replace(c *gin.Context) {
	storageKey := c.PostForm("storage_key")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		utils.Fail(c, err)
		return
	}
	defer src.Close()

	rec, err := h.files.Replace(c.Request.Context(), service.ReplaceInput{
		StorageKey:  storageKey,
		Payload:     src,
		Size:        fileHeader.Size,
		DisplayName: fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, toView(rec))
}

// SetVisibility is the administrative visibility override.
func (h *FileHandler) SetVisibility(c *gin.Context) {
	var req dto.SetVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	rec, err := h.files.SetVisibility(c.Request.Context(), req.StorageKey, req.Visibility)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, toView(rec))
}

// PublishDue runs one visibility sweep on demand, in addition to the
// scheduled worker runs.
func (h *FileHandler) PublishDue(c *gin.Context) {
	count, err := h.files.PublishDue(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, dto.PublishSweepResponse{Published: count})
}
