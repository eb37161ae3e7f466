package models

import "time"

// DocumentRecord is the metadata row persisted after a successful generation.
// The rendered bytes live on disk under the configured storage directory;
// nothing is persisted when generation fails.
type DocumentRecord struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`          // stored filename, collision-resistant
	OriginalName string    `json:"original_name"` // human-facing download name
	Size         int64     `json:"size"`
	MimeType     string    `json:"mime_type"`
	QuotationID  int64     `json:"quotation_id"`
	ClientID     int64     `json:"client_id"`
	UserID       int64     `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}
