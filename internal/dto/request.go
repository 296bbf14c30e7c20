package dto

import "time"

// CreateEventRequest represents a create event request
type CreateEventRequest struct {
	Title       string         `json:"title" binding:"required" example:"Bought coffee"`
	Description string         `json:"description" example:"Flat white at the corner shop"`
	Tags        []string       `json:"tags" example:"coffee,daily"`
	Timestamp   *time.Time     `json:"timestamp"`
	Metadata    map[string]any `json:"metadata"`
}

// UpdateEventRequest represents a partial event update; nil fields are left
// untouched.
type UpdateEventRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Tags        *[]string       `json:"tags"`
	Timestamp   *time.Time      `json:"timestamp"`
	Metadata    *map[string]any `json:"metadata"`
}

// ListEventsRequest represents an event listing query
type ListEventsRequest struct {
	Query    string     `form:"q"`
	Tags     string     `form:"tags"` // comma-separated
	From     *time.Time `form:"start" time_format:"2006-01-02T15:04:05Z07:00"`
	To       *time.Time `form:"end" time_format:"2006-01-02T15:04:05Z07:00"`
	Page     int        `form:"page,default=1"`
	PageSize int        `form:"page_size,default=25"`
	Sort     string     `form:"sort,default=newest"`
}

// PresignAttachmentRequest represents a presigned URL request
type PresignAttachmentRequest struct {
	ExpirySeconds int `form:"expiry_seconds"`
}
