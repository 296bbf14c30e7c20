package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/randdane/life-log/internal/config"
	"github.com/randdane/life-log/internal/deleter"
	"github.com/randdane/life-log/internal/domain"
	"github.com/randdane/life-log/internal/dto"
	"github.com/randdane/life-log/internal/repository"
	"github.com/randdane/life-log/internal/search"
)

const defaultPageSize = 25

// EventService owns event CRUD, validation, and the synchronous search
// document recompute on every write.
type EventService struct {
	repo     repository.EventRepository
	deleter  EventDeleter
	limits   config.Limits
	tagMatch repository.TagMatchMode
	log      *zap.Logger
}

// NewEventService creates a new event service. Limits and the tag match mode
// arrive as explicit configuration, never from ambient state.
func NewEventService(repo repository.EventRepository, del EventDeleter, limits config.Limits, tagMatch repository.TagMatchMode, log *zap.Logger) *EventService {
	return &EventService{
		repo:     repo,
		deleter:  del,
		limits:   limits,
		tagMatch: tagMatch,
		log:      log,
	}
}

// Create validates the fields, derives the search document, and inserts the
// event.
func (s *EventService) Create(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error) {
	tags, err := s.normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	event := &domain.Event{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Tags:        tags,
		Metadata:    domain.Metadata(req.Metadata),
	}
	if req.Timestamp != nil {
		event.Timestamp = *req.Timestamp
	} else {
		event.Timestamp = time.Now().UTC()
	}

	if err := s.validateFields(event); err != nil {
		s.log.Warn("Event rejected by validation", zap.Error(err))
		return nil, err
	}

	event.SearchDocument = search.BuildDocument(event.Title, event.Description, event.Tags)

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.log.Info("Event created",
		zap.Int64("event_id", event.ID),
		zap.String("title", event.Title))

	return event, nil
}

// Get returns a single event with its attachments.
func (s *EventService) Get(ctx context.Context, id int64) (*domain.Event, error) {
	return s.repo.Get(ctx, id)
}

// List validates and clamps the filter, then queries one page of events.
func (s *EventService) List(ctx context.Context, req *dto.ListEventsRequest) (*dto.PaginatedEventsResponse, error) {
	filter, err := s.buildFilter(req)
	if err != nil {
		s.log.Warn("Event listing rejected by validation", zap.Error(err))
		return nil, err
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return &dto.PaginatedEventsResponse{
		Items:    dto.NewEventResponses(events),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// Update applies a partial update and recomputes the search document in the
// same write, so search never trails the text fields.
func (s *EventService) Update(ctx context.Context, id int64, req *dto.UpdateEventRequest) (*domain.Event, error) {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Tags != nil {
		tags, err := s.normalizeTags(*req.Tags)
		if err != nil {
			return nil, err
		}
		event.Tags = tags
	}
	if req.Timestamp != nil {
		event.Timestamp = *req.Timestamp
	}
	if req.Metadata != nil {
		event.Metadata = domain.Metadata(*req.Metadata)
	}

	if err := s.validateFields(event); err != nil {
		s.log.Warn("Event update rejected by validation",
			zap.Int64("event_id", id),
			zap.Error(err))
		return nil, err
	}

	event.SearchDocument = search.BuildDocument(event.Title, event.Description, event.Tags)

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}

	s.log.Info("Event updated", zap.Int64("event_id", id))
	return event, nil
}

// Delete removes the event and cascades to its attachments.
func (s *EventService) Delete(ctx context.Context, id int64) (*deleter.DeletionReport, error) {
	return s.deleter.DeleteEvent(ctx, id)
}

// Export returns every event with attachment metadata, newest first.
func (s *EventService) Export(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ExportAll(ctx)
}

func (s *EventService) validateFields(event *domain.Event) error {
	if event.Title == "" {
		return &domain.ValidationError{Field: "title", Reason: "required"}
	}
	if utf8.RuneCountInString(event.Title) > s.limits.TitleMaxLen {
		return &domain.ValidationError{
			Field:  "title",
			Reason: fmt.Sprintf("exceeds %d characters", s.limits.TitleMaxLen),
		}
	}
	if utf8.RuneCountInString(event.Description) > s.limits.DescriptionMaxLen {
		return &domain.ValidationError{
			Field:  "description",
			Reason: fmt.Sprintf("exceeds %d characters", s.limits.DescriptionMaxLen),
		}
	}
	return event.Metadata.Validate(s.limits.MetadataMaxKeys, s.limits.MetadataMaxBytes)
}

// normalizeTags trims, drops empties, and removes duplicates while keeping
// first-seen order, then enforces the count and length bounds.
func (s *EventService) normalizeTags(tags []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > s.limits.TagMaxLen {
			return nil, &domain.ValidationError{
				Field:  "tags",
				Reason: fmt.Sprintf("tag %q exceeds %d characters", tag, s.limits.TagMaxLen),
			}
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > s.limits.TagsMaxCount {
		return nil, &domain.ValidationError{
			Field:  "tags",
			Reason: fmt.Sprintf("at most %d tags allowed", s.limits.TagsMaxCount),
		}
	}
	return out, nil
}

func (s *EventService) buildFilter(req *dto.ListEventsRequest) (repository.EventFilter, error) {
	filter := repository.EventFilter{
		Query:    search.NormalizeQuery(req.Query),
		TagMatch: s.tagMatch,
		From:     req.From,
		To:       req.To,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	if req.Tags != "" {
		for _, tag := range strings.Split(req.Tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > s.limits.PageSizeMax {
		filter.PageSize = s.limits.PageSizeMax
	}

	if req.From != nil && req.To != nil && req.From.After(*req.To) {
		return filter, &domain.ValidationError{Field: "start", Reason: "must not be after end"}
	}

	switch repository.SortMode(req.Sort) {
	case repository.SortNewest, repository.SortOldest:
		filter.Sort = repository.SortMode(req.Sort)
	case repository.SortRelevance:
		if filter.Query == "" {
			return filter, &domain.ValidationError{
				Field:  "sort",
				Reason: "relevance requires a free-text query",
			}
		}
		filter.Sort = repository.SortRelevance
	case "":
		filter.Sort = repository.SortNewest
	default:
		return filter, &domain.ValidationError{
			Field:  "sort",
			Reason: fmt.Sprintf("unknown sort %q", req.Sort),
		}
	}

	return filter, nil
}
