// Package reconciler closes the gap the dual-write design tolerates: objects
// with no matching attachment row (orphans) and rows with no matching object
// (broken references). It runs outside every request path.
package reconciler

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/randdane/life-log/internal/domain"
	"github.com/randdane/life-log/internal/objectstore"
	"github.com/randdane/life-log/internal/repository"
)

// Classification is the terminal state a sweep assigns to a key.
type Classification string

const (
	// ClassOrphanCandidate marks an object with no row that is still inside
	// the grace window, so it may belong to an in-flight upload.
	ClassOrphanCandidate Classification = "orphan_candidate"
	// ClassReaped marks an orphaned object deleted by this sweep.
	ClassReaped Classification = "reaped"
	// ClassBrokenReference marks a row whose backing object is missing.
	// Rows are authoritative data and are never deleted automatically.
	ClassBrokenReference Classification = "broken_reference"
)

// Entry is one classified key in a sweep report.
type Entry struct {
	Key            string         `json:"key"`
	Classification Classification `json:"classification"`
	LastModified   *time.Time     `json:"last_modified,omitempty"`
}

// Report summarizes one sweep.
type Report struct {
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	ObjectsScanned   int       `json:"objects_scanned"`
	RowsScanned      int       `json:"rows_scanned"`
	OrphanCandidates int       `json:"orphan_candidates"`
	Reaped           int       `json:"reaped"`
	ReapFailures     int       `json:"reap_failures"`
	BrokenReferences int       `json:"broken_references"`
	Entries          []Entry   `json:"entries,omitempty"`
}

// Sweeper is the reconciliation trigger exposed upward.
type Sweeper interface {
	Sweep(ctx context.Context) (*Report, error)
}

// Reconciler compares object-store contents against attachment rows and
// repairs the former while flagging the latter.
type Reconciler struct {
	store   objectstore.Store
	repo    repository.AttachmentRepository
	prefix  string
	grace   time.Duration
	retry   objectstore.RetryPolicy
	metrics *Metrics
	log     *zap.Logger
	now     func() time.Time

	// mu serializes sweeps so concurrent invocations coalesce instead of
	// issuing duplicate deletes.
	mu sync.Mutex
}

// NewReconciler creates a reconciler for the managed prefix. metrics may be
// nil.
func NewReconciler(store objectstore.Store, repo repository.AttachmentRepository, prefix string, grace time.Duration, metrics *Metrics, log *zap.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		repo:    repo,
		prefix:  prefix,
		grace:   grace,
		retry:   objectstore.DefaultRetry(),
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// Sweep lists both stores, computes the set difference both ways, reaps
// orphaned objects older than the grace window, and flags broken references.
// Running it twice on unchanged state produces the same classification and
// no duplicate side effects.
func (r *Reconciler) Sweep(ctx context.Context) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := &Report{StartedAt: r.now()}

	var objects []objectstore.ObjectInfo
	err := objectstore.WithRetry(ctx, r.retry, func() error {
		var err error
		objects, err = r.store.ListKeys(ctx, r.prefix)
		return err
	})
	if err != nil {
		return nil, err
	}

	rowKeys, err := r.repo.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	report.ObjectsScanned = len(objects)
	report.RowsScanned = len(rowKeys)

	rowSet := make(map[string]struct{}, len(rowKeys))
	for _, key := range rowKeys {
		rowSet[key] = struct{}{}
	}
	objectSet := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		objectSet[obj.Key] = struct{}{}
	}

	cutoff := r.now().Add(-r.grace)

	for _, obj := range objects {
		if _, ok := rowSet[obj.Key]; ok {
			continue
		}
		entry := r.handleOrphan(ctx, obj, cutoff, report)
		report.Entries = append(report.Entries, entry)
	}

	for _, key := range rowKeys {
		if _, ok := objectSet[key]; ok {
			continue
		}
		report.BrokenReferences++
		report.Entries = append(report.Entries, Entry{
			Key:            key,
			Classification: ClassBrokenReference,
		})
		r.log.Warn("Attachment row has no backing object, manual resolution required",
			zap.String("key", key),
			zap.NamedError("consistency", &domain.ConsistencyError{Kind: "broken_reference", Key: key}))
	}

	sort.Slice(report.Entries, func(i, j int) bool {
		return report.Entries[i].Key < report.Entries[j].Key
	})

	report.FinishedAt = r.now()
	r.metrics.observe(report)

	r.log.Info("Reconciliation sweep finished",
		zap.Int("objects_scanned", report.ObjectsScanned),
		zap.Int("rows_scanned", report.RowsScanned),
		zap.Int("orphan_candidates", report.OrphanCandidates),
		zap.Int("reaped", report.Reaped),
		zap.Int("reap_failures", report.ReapFailures),
		zap.Int("broken_references", report.BrokenReferences))

	return report, nil
}

// handleOrphan classifies one object with no matching row. Objects younger
// than the grace window are left alone: their row insert may still be in
// flight.
func (r *Reconciler) handleOrphan(ctx context.Context, obj objectstore.ObjectInfo, cutoff time.Time, report *Report) Entry {
	lastModified := obj.LastModified
	entry := Entry{Key: obj.Key, LastModified: &lastModified}

	if !obj.LastModified.Before(cutoff) {
		report.OrphanCandidates++
		entry.Classification = ClassOrphanCandidate
		r.log.Info("Orphan candidate inside grace window, skipping",
			zap.String("key", obj.Key),
			zap.Time("last_modified", obj.LastModified))
		return entry
	}

	err := objectstore.WithRetry(ctx, r.retry, func() error {
		return r.store.Delete(ctx, obj.Key)
	})
	if err != nil {
		report.OrphanCandidates++
		report.ReapFailures++
		entry.Classification = ClassOrphanCandidate
		r.log.Error("Failed to reap orphaned object",
			zap.String("key", obj.Key),
			zap.Error(err))
		return entry
	}

	report.Reaped++
	entry.Classification = ClassReaped
	r.log.Info("Reaped orphaned object",
		zap.String("key", obj.Key),
		zap.Time("last_modified", obj.LastModified))
	return entry
}
