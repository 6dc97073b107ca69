package service

import (
	"context"
	"fmt"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Identity keys completion state: an authenticated user ID, or a guest
// session handle when UserID is zero.
type Identity struct {
	UserID    uint
	SessionID string
}

func (id Identity) Authenticated() bool {
	return id.UserID != 0
}

type ContentSource interface {
	Course(ctx context.Context, courseID uint) (*model.Course, error)
	OrderedItems(ctx context.Context, courseID uint) ([]model.CourseContentItem, error)
}

type ProgressStore interface {
	Upsert(ctx context.Context, userID, itemID uint, completed bool, now time.Time) (*model.ProgressRecord, error)
	ListForCourse(ctx context.Context, userID, courseID uint) (map[uint]*model.ProgressRecord, error)
	DeleteForCourse(ctx context.Context, userID, courseID uint) error
}

type SessionStore interface {
	Upsert(ctx context.Context, sessionID string, itemID uint, completed bool, now time.Time) (*model.SessionProgressEntry, error)
	Entries(ctx context.Context, sessionID string) (map[uint]model.SessionProgressEntry, error)
	Remove(ctx context.Context, sessionID string, itemIDs ...uint) error
	Clear(ctx context.Context, sessionID string) error
}

type EnrollmentSource interface {
	EnrolledAt(ctx context.Context, userID, courseID uint) (*time.Time, error)
}

// ProgressService reconciles durable and session-backed progress into
// lock decisions. It is the single entry point collaborators use; every
// evaluation is a stateless read-then-compute pass over current data.
type ProgressService struct {
	Content     ContentSource
	Store       ProgressStore
	Session     SessionStore
	Enrollments EnrollmentSource
}

func NewProgressService(content ContentSource, store ProgressStore, session SessionStore, enrollments EnrollmentSource) *ProgressService {
	return &ProgressService{
		Content:     content,
		Store:       store,
		Session:     session,
		Enrollments: enrollments,
	}
}

// ItemStatus is one row of a course outline: the item, its lock decision
// and the identity's completion flag.
type ItemStatus struct {
	Item      model.CourseContentItem `json:"item"`
	Gatable   bool                    `json:"gatable"`
	Locked    bool                    `json:"locked"`
	Reason    model.LockReason        `json:"reason"`
	Completed bool                    `json:"completed"`
}

type evaluation struct {
	course    *model.Course
	items     []model.CourseContentItem
	completed map[uint]bool
	decisions map[uint]model.LockDecision
}

func (s *ProgressService) evaluate(ctx context.Context, courseID uint, identity Identity, now time.Time) (*evaluation, error) {
	course, err := s.Content.Course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	items, err := s.Content.OrderedItems(ctx, courseID)
	if err != nil {
		return nil, err
	}

	completed, err := s.completionMap(ctx, courseID, identity)
	if err != nil {
		return nil, err
	}

	var enrolledAt *time.Time
	if identity.Authenticated() {
		enrolledAt, err = s.Enrollments.EnrolledAt(ctx, identity.UserID, courseID)
		if err != nil {
			return nil, err
		}
	}

	decisions := PolicyFor(course.FlowMode).Evaluate(items, completed, enrolledAt, now)
	byItem := make(map[uint]model.LockDecision, len(decisions))
	for _, d := range decisions {
		byItem[d.ItemID] = d
		monitoring.LockEvaluations.WithLabelValues(string(course.FlowMode), fmt.Sprintf("%t", d.Locked)).Inc()
	}

	return &evaluation{
		course:    course,
		items:     items,
		completed: completed,
		decisions: byItem,
	}, nil
}

func (s *ProgressService) completionMap(ctx context.Context, courseID uint, identity Identity) (map[uint]bool, error) {
	if identity.Authenticated() {
		records, err := s.Store.ListForCourse(ctx, identity.UserID, courseID)
		if err != nil {
			return nil, err
		}
		completed := make(map[uint]bool, len(records))
		for itemID, rec := range records {
			completed[itemID] = rec.Completed
		}
		return completed, nil
	}

	if identity.SessionID == "" {
		return map[uint]bool{}, nil
	}
	entries, err := s.Session.Entries(ctx, identity.SessionID)
	if err != nil {
		return nil, err
	}
	completed := make(map[uint]bool, len(entries))
	for itemID, entry := range entries {
		completed[itemID] = entry.Completed
	}
	return completed, nil
}

// IsLocked answers for a single item. Items outside the course are
// inaccessible by definition, not silently unlocked.
func (s *ProgressService) IsLocked(ctx context.Context, courseID, itemID uint, identity Identity, now time.Time) (model.LockDecision, error) {
	ev, err := s.evaluate(ctx, courseID, identity, now)
	if err != nil {
		return model.LockDecision{}, err
	}

	if d, ok := ev.decisions[itemID]; ok {
		return d, nil
	}
	for _, item := range ev.items {
		// sections are listed but carry no decision
		if item.ID == itemID {
			return model.LockDecision{ItemID: itemID, Locked: false, Reason: model.ReasonNone}, nil
		}
	}
	return model.LockDecision{}, util.ErrItemNotFound
}

// NextUnlockedItem returns the first gatable item that is unlocked and
// not yet completed, or nil when the course is finished or empty.
func (s *ProgressService) NextUnlockedItem(ctx context.Context, courseID uint, identity Identity, now time.Time) (*model.CourseContentItem, error) {
	ev, err := s.evaluate(ctx, courseID, identity, now)
	if err != nil {
		return nil, err
	}

	for i := range ev.items {
		item := ev.items[i]
		if !item.Gatable() {
			continue
		}
		d := ev.decisions[item.ID]
		if !d.Locked && !ev.completed[item.ID] {
			return &item, nil
		}
	}
	return nil, nil
}

// CourseOutline zips the ordered content with decisions and completion
// flags, which is what list views render.
func (s *ProgressService) CourseOutline(ctx context.Context, courseID uint, identity Identity, now time.Time) ([]ItemStatus, error) {
	ev, err := s.evaluate(ctx, courseID, identity, now)
	if err != nil {
		return nil, err
	}

	outline := make([]ItemStatus, 0, len(ev.items))
	for _, item := range ev.items {
		status := ItemStatus{Item: item, Gatable: item.Gatable(), Reason: model.ReasonNone}
		if item.Gatable() {
			d := ev.decisions[item.ID]
			status.Locked = d.Locked
			status.Reason = d.Reason
			status.Completed = ev.completed[item.ID]
		}
		outline = append(outline, status)
	}
	return outline, nil
}

// MarkStarted records that the identity opened an item, creating the
// record with completed=false if absent.
func (s *ProgressService) MarkStarted(ctx context.Context, courseID, itemID uint, identity Identity, now time.Time) error {
	return s.upsert(ctx, courseID, itemID, identity, false, now)
}

// MarkCompleted records completion. No cascading unlock happens here:
// downstream items unlock lazily on the next evaluation.
func (s *ProgressService) MarkCompleted(ctx context.Context, courseID, itemID uint, identity Identity, now time.Time) error {
	return s.upsert(ctx, courseID, itemID, identity, true, now)
}

func (s *ProgressService) upsert(ctx context.Context, courseID, itemID uint, identity Identity, completed bool, now time.Time) error {
	items, err := s.Content.OrderedItems(ctx, courseID)
	if err != nil {
		return err
	}

	var target *model.CourseContentItem
	for i := range items {
		if items[i].ID == itemID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return util.ErrItemNotFound
	}
	if !target.Gatable() {
		return util.ErrNotGatable
	}

	if identity.Authenticated() {
		_, err = s.Store.Upsert(ctx, identity.UserID, itemID, completed, now)
		return err
	}
	_, err = s.Session.Upsert(ctx, identity.SessionID, itemID, completed, now)
	return err
}

// MigrateGuestProgress copies every session entry into the durable store
// for the freshly authenticated user, then drops what was copied. Entries
// that fail to copy stay in the session hash so the next request can
// retry; guest progress is never silently lost.
func (s *ProgressService) MigrateGuestProgress(ctx context.Context, sessionID string, userID uint) error {
	if sessionID == "" {
		return nil
	}

	entries, err := s.Session.Entries(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	// Deterministic order keeps retries and logs readable.
	itemIDs := make([]uint, 0, len(entries))
	for itemID := range entries {
		itemIDs = append(itemIDs, itemID)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	migrated := make([]uint, 0, len(itemIDs))
	var failed int
	for _, itemID := range itemIDs {
		entry := entries[itemID]
		at := entry.StartedAt
		if entry.Completed && entry.CompletedAt != nil {
			at = *entry.CompletedAt
		}
		if at.IsZero() {
			at = time.Now()
		}
		if _, err := s.Store.Upsert(ctx, userID, itemID, entry.Completed, at); err != nil {
			failed++
			logger.Log.Warn("guest progress entry migration failed",
				zap.String("session", sessionID),
				zap.Uint("user", userID),
				zap.Uint("item", itemID),
				zap.Error(err))
			continue
		}
		migrated = append(migrated, itemID)
	}

	if err := s.Session.Remove(ctx, sessionID, migrated...); err != nil {
		// Copies landed; leftover session entries are re-migrated
		// idempotently on the next attempt.
		logger.Log.Warn("failed to trim migrated session entries", zap.String("session", sessionID), zap.Error(err))
	}

	if failed > 0 {
		monitoring.GuestMigrations.WithLabelValues("partial").Inc()
		return fmt.Errorf("%w: %d of %d entries failed", util.ErrMigrationPartial, failed, len(itemIDs))
	}

	if err := s.Session.Clear(ctx, sessionID); err != nil {
		logger.Log.Warn("failed to clear migrated guest session", zap.String("session", sessionID), zap.Error(err))
	}
	monitoring.GuestMigrations.WithLabelValues("complete").Inc()
	return nil
}
