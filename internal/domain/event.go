package domain

import "time"

// Event represents a single logged life occurrence.
type Event struct {
	ID          int64        `json:"id"`
	CreatedAt   time.Time    `json:"created_at"`
	Timestamp   time.Time    `json:"timestamp"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Metadata    Metadata     `json:"metadata,omitempty"`
	Attachments []Attachment `json:"attachments"`

	// SearchDocument is the normalized text derived from title, description
	// and tags, written in the same statement as the fields themselves.
	SearchDocument string `json:"-"`
}

// Attachment represents a binary file owned by exactly one Event and backed
// by an object in the object store. Immutable after creation except deletion.
type Attachment struct {
	ID          int64     `json:"id"`
	EventID     int64     `json:"event_id"`
	Key         string    `json:"key"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
