package service

import (
	"context"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

type userItem struct {
	userID uint
	itemID uint
}

type fakeContent struct {
	course *model.Course
	items  []model.CourseContentItem
}

func (f *fakeContent) Course(_ context.Context, courseID uint) (*model.Course, error) {
	if f.course == nil || f.course.ID != courseID {
		return nil, util.ErrCourseNotFound
	}
	return f.course, nil
}

func (f *fakeContent) OrderedItems(_ context.Context, courseID uint) ([]model.CourseContentItem, error) {
	if f.course == nil || f.course.ID != courseID {
		return nil, util.ErrCourseNotFound
	}
	return f.items, nil
}

type fakeStore struct {
	records map[userItem]*model.ProgressRecord
	failOn  map[uint]bool // item IDs whose upsert fails
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[userItem]*model.ProgressRecord)}
}

func (f *fakeStore) Upsert(_ context.Context, userID, itemID uint, completed bool, now time.Time) (*model.ProgressRecord, error) {
	if f.failOn[itemID] {
		return nil, util.ErrStorage
	}
	key := userItem{userID, itemID}
	rec, ok := f.records[key]
	if !ok {
		rec = &model.ProgressRecord{UserID: userID, ItemID: itemID, Completed: completed, StartedAt: now}
		if completed {
			rec.CompletedAt = &now
		}
		f.records[key] = rec
		return rec, nil
	}
	if completed && !rec.Completed {
		rec.Completed = true
		rec.CompletedAt = &now
	}
	return rec, nil
}

func (f *fakeStore) ListForCourse(_ context.Context, userID, _ uint) (map[uint]*model.ProgressRecord, error) {
	out := make(map[uint]*model.ProgressRecord)
	for key, rec := range f.records {
		if key.userID == userID {
			out[key.itemID] = rec
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteForCourse(_ context.Context, userID, _ uint) error {
	for key := range f.records {
		if key.userID == userID {
			delete(f.records, key)
		}
	}
	return nil
}

type fakeSession struct {
	entries map[string]map[uint]model.SessionProgressEntry
}

func newFakeSession() *fakeSession {
	return &fakeSession{entries: make(map[string]map[uint]model.SessionProgressEntry)}
}

func (f *fakeSession) Upsert(_ context.Context, sessionID string, itemID uint, completed bool, now time.Time) (*model.SessionProgressEntry, error) {
	bucket, ok := f.entries[sessionID]
	if !ok {
		bucket = make(map[uint]model.SessionProgressEntry)
		f.entries[sessionID] = bucket
	}
	entry, ok := bucket[itemID]
	if !ok {
		entry = model.SessionProgressEntry{StartedAt: now}
	}
	if completed && !entry.Completed {
		entry.Completed = true
		entry.CompletedAt = &now
	}
	bucket[itemID] = entry
	return &entry, nil
}

func (f *fakeSession) Entries(_ context.Context, sessionID string) (map[uint]model.SessionProgressEntry, error) {
	out := make(map[uint]model.SessionProgressEntry, len(f.entries[sessionID]))
	for id, e := range f.entries[sessionID] {
		out[id] = e
	}
	return out, nil
}

func (f *fakeSession) Remove(_ context.Context, sessionID string, itemIDs ...uint) error {
	for _, id := range itemIDs {
		delete(f.entries[sessionID], id)
	}
	return nil
}

func (f *fakeSession) Clear(_ context.Context, sessionID string) error {
	delete(f.entries, sessionID)
	return nil
}

type fakeEnrollments struct {
	at map[userItem]*time.Time // itemID doubles as courseID here
}

func (f *fakeEnrollments) EnrolledAt(_ context.Context, userID, courseID uint) (*time.Time, error) {
	if f.at == nil {
		return nil, nil
	}
	return f.at[userItem{userID, courseID}], nil
}

func newService(mode model.CourseFlowMode, items ...model.CourseContentItem) (*ProgressService, *fakeStore, *fakeSession) {
	content := &fakeContent{
		course: &model.Course{BaseModel: model.BaseModel{ID: 1}, Title: "Course", FlowMode: mode},
		items:  items,
	}
	store := newFakeStore()
	session := newFakeSession()
	return NewProgressService(content, store, session, &fakeEnrollments{}), store, session
}

func TestIsLocked_SequentialAuthenticatedUser(t *testing.T) {
	svc, _, _ := newService(model.FlowSequential, lesson(1, 1), lesson(2, 2))
	ctx := context.Background()
	user := Identity{UserID: 7}
	now := time.Now()

	d, err := svc.IsLocked(ctx, 1, 2, user, now)
	require.NoError(t, err)
	assert.True(t, d.Locked)
	assert.Equal(t, model.ReasonPreviousIncomplete, d.Reason)

	require.NoError(t, svc.MarkCompleted(ctx, 1, 1, user, now))

	d, err = svc.IsLocked(ctx, 1, 2, user, now)
	require.NoError(t, err)
	assert.False(t, d.Locked)
}

func TestIsLocked_GuestSessionState(t *testing.T) {
	svc, _, _ := newService(model.FlowSequential, lesson(1, 1), lesson(2, 2))
	ctx := context.Background()
	guest := Identity{SessionID: "sess-1"}
	now := time.Now()

	require.NoError(t, svc.MarkCompleted(ctx, 1, 1, guest, now))

	d, err := svc.IsLocked(ctx, 1, 2, guest, now)
	require.NoError(t, err)
	assert.False(t, d.Locked)

	// another session sees none of it
	other := Identity{SessionID: "sess-2"}
	d, err = svc.IsLocked(ctx, 1, 2, other, now)
	require.NoError(t, err)
	assert.True(t, d.Locked)
}

func TestIsLocked_UnknownItem(t *testing.T) {
	svc, _, _ := newService(model.FlowFree, lesson(1, 1))

	_, err := svc.IsLocked(context.Background(), 1, 99, Identity{UserID: 7}, time.Now())
	assert.ErrorIs(t, err, util.ErrItemNotFound)
}

func TestIsLocked_UnknownCourse(t *testing.T) {
	svc, _, _ := newService(model.FlowFree, lesson(1, 1))

	_, err := svc.IsLocked(context.Background(), 42, 1, Identity{UserID: 7}, time.Now())
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestMarkCompleted_Idempotent(t *testing.T) {
	svc, store, _ := newService(model.FlowSequential, lesson(1, 1))
	ctx := context.Background()
	user := Identity{UserID: 7}

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, svc.MarkCompleted(ctx, 1, 1, user, first))

	rec := store.records[userItem{7, 1}]
	require.NotNil(t, rec)
	require.NotNil(t, rec.CompletedAt)
	completedAt := *rec.CompletedAt

	// second completion an hour later changes nothing
	require.NoError(t, svc.MarkCompleted(ctx, 1, 1, user, first.Add(time.Hour)))
	rec = store.records[userItem{7, 1}]
	assert.True(t, rec.Completed)
	assert.Equal(t, completedAt, *rec.CompletedAt)
}

func TestMarkCompleted_RejectsSections(t *testing.T) {
	svc, _, _ := newService(model.FlowFree, section(10, 1), lesson(1, 2))

	err := svc.MarkCompleted(context.Background(), 1, 10, Identity{UserID: 7}, time.Now())
	assert.ErrorIs(t, err, util.ErrNotGatable)
}

func TestMarkStarted_CreatesIncompleteRecord(t *testing.T) {
	svc, store, _ := newService(model.FlowFree, lesson(1, 1))
	ctx := context.Background()
	user := Identity{UserID: 7}
	now := time.Now()

	require.NoError(t, svc.MarkStarted(ctx, 1, 1, user, now))

	rec := store.records[userItem{7, 1}]
	require.NotNil(t, rec)
	assert.False(t, rec.Completed)
	assert.Nil(t, rec.CompletedAt)
}

func TestNextUnlockedItem_WalksTheCourse(t *testing.T) {
	svc, _, _ := newService(model.FlowSequential, section(10, 1), lesson(1, 2), lesson(2, 3))
	ctx := context.Background()
	user := Identity{UserID: 7}
	now := time.Now()

	// no progress yet: first gatable item, never the section
	next, err := svc.NextUnlockedItem(ctx, 1, user, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, uint(1), next.ID)

	require.NoError(t, svc.MarkCompleted(ctx, 1, 1, user, now))
	next, err = svc.NextUnlockedItem(ctx, 1, user, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, uint(2), next.ID)

	// everything done: nil
	require.NoError(t, svc.MarkCompleted(ctx, 1, 2, user, now))
	next, err = svc.NextUnlockedItem(ctx, 1, user, now)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextUnlockedItem_NoGatableItems(t *testing.T) {
	svc, _, _ := newService(model.FlowFree, section(10, 1))

	next, err := svc.NextUnlockedItem(context.Background(), 1, Identity{UserID: 7}, time.Now())
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestCourseOutline_KeepsSectionsForDisplay(t *testing.T) {
	svc, _, _ := newService(model.FlowSequential, section(10, 1), lesson(1, 2), lesson(2, 3))

	outline, err := svc.CourseOutline(context.Background(), 1, Identity{SessionID: "s"}, time.Now())
	require.NoError(t, err)
	require.Len(t, outline, 3)

	assert.False(t, outline[0].Gatable)
	assert.False(t, outline[0].Locked)
	assert.True(t, outline[1].Gatable)
	assert.False(t, outline[1].Locked)
	assert.True(t, outline[2].Locked)
	assert.Equal(t, model.ReasonPreviousIncomplete, outline[2].Reason)
}

func TestMigrateGuestProgress_AllEntriesCopiedAndCleared(t *testing.T) {
	svc, store, session := newService(model.FlowSequential, lesson(1, 1), lesson(2, 2))
	ctx := context.Background()
	guest := Identity{SessionID: "sess-m"}
	now := time.Now()

	require.NoError(t, svc.MarkCompleted(ctx, 1, 1, guest, now))
	require.NoError(t, svc.MarkStarted(ctx, 1, 2, guest, now))

	require.NoError(t, svc.MigrateGuestProgress(ctx, "sess-m", 7))

	recA := store.records[userItem{7, 1}]
	require.NotNil(t, recA)
	assert.True(t, recA.Completed)

	recB := store.records[userItem{7, 2}]
	require.NotNil(t, recB)
	assert.False(t, recB.Completed)

	entries, _ := session.Entries(ctx, "sess-m")
	assert.Empty(t, entries, "session cache cleared after full migration")
}

func TestMigrateGuestProgress_PartialFailureRetainsFailedEntries(t *testing.T) {
	svc, store, session := newService(model.FlowSequential, lesson(1, 1), lesson(2, 2))
	ctx := context.Background()
	guest := Identity{SessionID: "sess-p"}
	now := time.Now()

	require.NoError(t, svc.MarkCompleted(ctx, 1, 1, guest, now))
	require.NoError(t, svc.MarkCompleted(ctx, 1, 2, guest, now))

	store.failOn = map[uint]bool{2: true}

	err := svc.MigrateGuestProgress(ctx, "sess-p", 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrMigrationPartial)

	// the successful entry landed and was trimmed, the failed one survives
	assert.NotNil(t, store.records[userItem{7, 1}])
	entries, _ := session.Entries(ctx, "sess-p")
	require.Len(t, entries, 1)
	_, stillThere := entries[2]
	assert.True(t, stillThere)

	// retry after the store recovers drains the session
	store.failOn = nil
	require.NoError(t, svc.MigrateGuestProgress(ctx, "sess-p", 7))
	entries, _ = session.Entries(ctx, "sess-p")
	assert.Empty(t, entries)
	assert.True(t, store.records[userItem{7, 2}].Completed)
}

func TestMigrateGuestProgress_EmptySessionIsNoop(t *testing.T) {
	svc, store, _ := newService(model.FlowFree, lesson(1, 1))

	require.NoError(t, svc.MigrateGuestProgress(context.Background(), "sess-empty", 7))
	assert.Empty(t, store.records)
}

func TestDaysMode_UsesEnrollmentDate(t *testing.T) {
	enrolledAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	two := 2
	gated := lesson(1, 1)
	gated.AvailableAfterDays = &two

	content := &fakeContent{
		course: &model.Course{BaseModel: model.BaseModel{ID: 1}, FlowMode: model.FlowDays},
		items:  []model.CourseContentItem{gated},
	}
	enrollments := &fakeEnrollments{at: map[userItem]*time.Time{{7, 1}: &enrolledAt}}
	svc := NewProgressService(content, newFakeStore(), newFakeSession(), enrollments)

	d, err := svc.IsLocked(context.Background(), 1, 1, Identity{UserID: 7}, enrolledAt.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, d.Locked)
	assert.Equal(t, model.ReasonNotYetByDays, d.Reason)

	d, err = svc.IsLocked(context.Background(), 1, 1, Identity{UserID: 7}, enrolledAt.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.False(t, d.Locked)
}
