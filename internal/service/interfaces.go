package service

import (
	"context"

	"github.com/randdane/life-log/internal/deleter"
	"github.com/randdane/life-log/internal/domain"
	"github.com/randdane/life-log/internal/dto"
)

// EventServicer defines the interface for event service operations
type EventServicer interface {
	Create(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error)
	Get(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context, req *dto.ListEventsRequest) (*dto.PaginatedEventsResponse, error)
	Update(ctx context.Context, id int64, req *dto.UpdateEventRequest) (*domain.Event, error)
	Delete(ctx context.Context, id int64) (*deleter.DeletionReport, error)
	Export(ctx context.Context) ([]domain.Event, error)
}

// EventDeleter is the cascade-delete collaborator the service delegates to.
type EventDeleter interface {
	DeleteEvent(ctx context.Context, id int64) (*deleter.DeletionReport, error)
}
