package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/randdane/life-log/internal/config"
	"github.com/randdane/life-log/internal/deleter"
	"github.com/randdane/life-log/internal/domain"
	"github.com/randdane/life-log/internal/dto"
	"github.com/randdane/life-log/internal/repository"
)

// MockEventRepository is a mock implementation of repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) Get(ctx context.Context, id int64) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockEventRepository) List(ctx context.Context, filter repository.EventFilter) ([]domain.Event, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Event), args.Get(1).(int64), args.Error(2)
}

func (m *MockEventRepository) Update(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) DeleteReturningKeys(ctx context.Context, id int64) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockEventRepository) ExportAll(ctx context.Context) ([]domain.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Event), args.Error(1)
}

func (m *MockEventRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockDeleter is a mock implementation of EventDeleter
type MockDeleter struct {
	mock.Mock
}

func (m *MockDeleter) DeleteEvent(ctx context.Context, id int64) (*deleter.DeletionReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deleter.DeletionReport), args.Error(1)
}

func testLimits() config.Limits {
	return config.Limits{
		TitleMaxLen:         200,
		DescriptionMaxLen:   10000,
		TagsMaxCount:        5,
		TagMaxLen:           50,
		MetadataMaxKeys:     3,
		MetadataMaxBytes:    16384,
		FileMaxBytes:        10485760,
		AttachmentsPerEvent: 10,
		PageSizeMax:         100,
	}
}

func newTestService(repo *MockEventRepository, del *MockDeleter) *EventService {
	return NewEventService(repo, del, testLimits(), repository.TagMatchAll, zap.NewNop())
}

func TestEventService_Create_Success(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	ts := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	req := &dto.CreateEventRequest{
		Title:       "  Bought coffee  ",
		Description: "Flat white",
		Tags:        []string{" coffee ", "daily", "coffee", ""},
		Timestamp:   &ts,
		Metadata:    map[string]any{"price": 4.5},
	}

	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.Event) bool {
		return e.Title == "Bought coffee" &&
			e.Timestamp.Equal(ts) &&
			len(e.Tags) == 2 &&
			e.Tags[0] == "coffee" && e.Tags[1] == "daily" &&
			e.SearchDocument != ""
	})).Return(nil)

	event, err := svc.Create(context.Background(), req)

	assert.NoError(t, err)
	assert.NotNil(t, event)
	assert.Contains(t, event.SearchDocument, "flat")
	assert.Contains(t, event.SearchDocument, "coffee")
	repo.AssertExpectations(t)
}

func TestEventService_Create_DefaultsTimestamp(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	before := time.Now().UTC()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	event, err := svc.Create(context.Background(), &dto.CreateEventRequest{Title: "t"})

	assert.NoError(t, err)
	assert.False(t, event.Timestamp.Before(before))
}

func TestEventService_Create_TitleRequired(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	_, err := svc.Create(context.Background(), &dto.CreateEventRequest{Title: "   "})

	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "title")
	repo.AssertNotCalled(t, "Create")
}

func TestEventService_Create_TitleTooLong(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	_, err := svc.Create(context.Background(), &dto.CreateEventRequest{Title: strings.Repeat("a", 201)})

	assert.True(t, domain.IsValidation(err))
	repo.AssertNotCalled(t, "Create")
}

func TestEventService_Create_TooManyTags(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	req := &dto.CreateEventRequest{
		Title: "t",
		Tags:  []string{"a", "b", "c", "d", "e", "f"},
	}

	_, err := svc.Create(context.Background(), req)

	assert.True(t, domain.IsValidation(err))
	repo.AssertNotCalled(t, "Create")
}

func TestEventService_Create_DuplicateTagsDontCountTowardLimit(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	req := &dto.CreateEventRequest{
		Title: "t",
		Tags:  []string{"a", "a", "a", "a", "b", "b", "c"},
	}

	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.Event) bool {
		return len(e.Tags) == 3
	})).Return(nil)

	_, err := svc.Create(context.Background(), req)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEventService_Create_MetadataTooManyKeys(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	req := &dto.CreateEventRequest{
		Title:    "t",
		Metadata: map[string]any{"a": 1, "b": 2, "c": 3, "d": 4},
	}

	_, err := svc.Create(context.Background(), req)

	assert.True(t, domain.IsValidation(err))
	repo.AssertNotCalled(t, "Create")
}

func TestEventService_Update_RecomputesSearchDocument(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	existing := &domain.Event{
		ID:             1,
		Title:          "Bought coffee",
		Tags:           []string{"coffee"},
		SearchDocument: "bought coffee coffee",
	}
	repo.On("Get", mock.Anything, int64(1)).Return(existing, nil)

	newTitle := "Bought tea"
	repo.On("Update", mock.Anything, mock.MatchedBy(func(e *domain.Event) bool {
		return e.Title == "Bought tea" && e.Tags[0] == "coffee"
	})).Return(nil)

	event, err := svc.Update(context.Background(), 1, &dto.UpdateEventRequest{Title: &newTitle})

	assert.NoError(t, err)
	assert.Contains(t, event.SearchDocument, "tea")
	// The tag text still matches even though the title changed.
	assert.Contains(t, event.SearchDocument, "coffee")
	assert.NotContains(t, event.SearchDocument, "bought coffee")
	repo.AssertExpectations(t)
}

func TestEventService_Update_NotFound(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	repo.On("Get", mock.Anything, int64(9)).
		Return(nil, &domain.NotFoundError{Resource: "event", ID: "9"})

	_, err := svc.Update(context.Background(), 9, &dto.UpdateEventRequest{})

	assert.True(t, domain.IsNotFound(err))
	repo.AssertNotCalled(t, "Update")
}

func TestEventService_Update_InvalidPatchRejected(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	existing := &domain.Event{ID: 1, Title: "ok"}
	repo.On("Get", mock.Anything, int64(1)).Return(existing, nil)

	empty := ""
	_, err := svc.Update(context.Background(), 1, &dto.UpdateEventRequest{Title: &empty})

	assert.True(t, domain.IsValidation(err))
	repo.AssertNotCalled(t, "Update")
}

func TestEventService_List_DefaultsAndClamping(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.EventFilter) bool {
		return f.Page == 1 && f.PageSize == 100 && f.Sort == repository.SortNewest
	})).Return([]domain.Event{}, int64(0), nil)

	page, err := svc.List(context.Background(), &dto.ListEventsRequest{
		Page:     -3,
		PageSize: 5000,
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, page.PageSize)
	repo.AssertExpectations(t)
}

func TestEventService_List_ParsesTagsAndQuery(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	repo.On("List", mock.Anything, mock.MatchedBy(func(f repository.EventFilter) bool {
		return f.Query == "morning coffee" &&
			len(f.Tags) == 2 && f.Tags[0] == "coffee" && f.Tags[1] == "daily" &&
			f.TagMatch == repository.TagMatchAll
	})).Return([]domain.Event{}, int64(0), nil)

	_, err := svc.List(context.Background(), &dto.ListEventsRequest{
		Query:    "  Morning   COFFEE ",
		Tags:     "coffee, daily, ",
		Page:     1,
		PageSize: 25,
	})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEventService_List_RelevanceRequiresQuery(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	_, err := svc.List(context.Background(), &dto.ListEventsRequest{
		Page: 1, PageSize: 25, Sort: "relevance",
	})

	assert.True(t, domain.IsValidation(err))
	repo.AssertNotCalled(t, "List")
}

func TestEventService_List_UnknownSort(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	_, err := svc.List(context.Background(), &dto.ListEventsRequest{
		Page: 1, PageSize: 25, Sort: "shuffled",
	})

	assert.True(t, domain.IsValidation(err))
	repo.AssertNotCalled(t, "List")
}

func TestEventService_List_StartAfterEnd(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.List(context.Background(), &dto.ListEventsRequest{
		Page: 1, PageSize: 25, From: &from, To: &to,
	})

	assert.True(t, domain.IsValidation(err))
	repo.AssertNotCalled(t, "List")
}

func TestEventService_Delete_Delegates(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	expected := &deleter.DeletionReport{EventID: 7, AttachmentRows: 2, ObjectsDeleted: 2}
	del.On("DeleteEvent", mock.Anything, int64(7)).Return(expected, nil)

	report, err := svc.Delete(context.Background(), 7)

	assert.NoError(t, err)
	assert.Equal(t, expected, report)
	del.AssertExpectations(t)
}

func TestEventService_Export(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	events := []domain.Event{{ID: 2}, {ID: 1}}
	repo.On("ExportAll", mock.Anything).Return(events, nil)

	got, err := svc.Export(context.Background())

	assert.NoError(t, err)
	assert.Len(t, got, 2)
	repo.AssertExpectations(t)
}

func TestEventService_Create_RepositoryError(t *testing.T) {
	repo := new(MockEventRepository)
	del := new(MockDeleter)
	svc := newTestService(repo, del)

	repoErr := errors.New("connection refused")
	repo.On("Create", mock.Anything, mock.Anything).Return(repoErr)

	_, err := svc.Create(context.Background(), &dto.CreateEventRequest{Title: "t"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create event")
}
