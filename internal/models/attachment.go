package models

import "time"

// Attachment is a photo (or other file) uploaded for a cleaning summary.
// It is created unlinked at upload time and associated with the cleaning's
// start event when the cleaning is completed.
type Attachment struct {
	ID              int       `json:"id"`
	CleaningEventID *int      `json:"cleaning_event_id,omitempty"`
	ObjectKey       string    `json:"object_key"`
	FileName        string    `json:"file_name"`
	ContentType     string    `json:"content_type"`
	UploadedBy      int       `json:"uploaded_by"`
	CreatedAt       time.Time `json:"created_at"`
}
