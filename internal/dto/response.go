package dto

import (
	"time"

	"github.com/randdane/life-log/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"title is required"`
}

// AttachmentResponse represents attachment metadata
type AttachmentResponse struct {
	ID          int64     `json:"id"`
	EventID     int64     `json:"event_id"`
	Key         string    `json:"key"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// EventResponse represents a single event with its attachments
type EventResponse struct {
	ID          int64                `json:"id"`
	CreatedAt   time.Time            `json:"created_at"`
	Timestamp   time.Time            `json:"timestamp"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Tags        []string             `json:"tags"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// PaginatedEventsResponse represents one page of events
type PaginatedEventsResponse struct {
	Items    []EventResponse `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// PresignURLResponse carries a time-limited retrieval URL
type PresignURLResponse struct {
	URL string `json:"url"`
}

// NewAttachmentResponse converts a domain attachment.
func NewAttachmentResponse(att domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          att.ID,
		EventID:     att.EventID,
		Key:         att.Key,
		Filename:    att.Filename,
		ContentType: att.ContentType,
		SizeBytes:   att.SizeBytes,
		UploadedAt:  att.UploadedAt,
	}
}

// NewEventResponse converts a domain event.
func NewEventResponse(event domain.Event) EventResponse {
	attachments := make([]AttachmentResponse, 0, len(event.Attachments))
	for _, att := range event.Attachments {
		attachments = append(attachments, NewAttachmentResponse(att))
	}

	tags := event.Tags
	if tags == nil {
		tags = []string{}
	}

	return EventResponse{
		ID:          event.ID,
		CreatedAt:   event.CreatedAt,
		Timestamp:   event.Timestamp,
		Title:       event.Title,
		Description: event.Description,
		Tags:        tags,
		Metadata:    map[string]any(event.Metadata),
		Attachments: attachments,
	}
}

// NewEventResponses converts a slice of domain events.
func NewEventResponses(events []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, NewEventResponse(event))
	}
	return out
}
