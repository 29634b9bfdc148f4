package dto

import "time"

// FileRecordView is the outward shape of one metadata record.
type FileRecordView struct {
	OwnerScope  string     `json:"owner_scope"`
	DisplayName string     `json:"display_name"`
	StorageKey  string     `json:"storage_key"`
	AccessURL   string     `json:"access_url,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
	ByteSize    int64      `json:"byte_size"`
	UploaderRef string     `json:"uploader_ref,omitempty"`
	Visibility  string     `json:"visibility"`
	PublishAt   *time.Time `json:"publish_at,omitempty"`
	UploadedAt  time.Time  `json:"uploaded_at"`
}

// PublishSweepResponse reports one sweep run.
type PublishSweepResponse struct {
	Published int `json:"published"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token string `json:"token"`
}
