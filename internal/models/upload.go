package models

import "time"

// Upload records a media file submitted for detection.
type Upload struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"file_path"`
	FileType   string    `json:"file_type"`
	ResultPath *string   `json:"result_path"` // nil until detection output is attached
	UploadedAt time.Time `json:"uploaded_at"`
}
