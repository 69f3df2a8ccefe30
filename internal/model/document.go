package model

import "time"

// Document is the metadata of a file attached to a request. The bytes live in
// the blob store under StoragePath.
type Document struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequestID   uint      `gorm:"index;not null" json:"request_id"`
	FileName    string    `gorm:"not null" json:"file_name"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	StoragePath string    `gorm:"uniqueIndex;not null" json:"storage_path"`
	UploadedBy  *uint     `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
