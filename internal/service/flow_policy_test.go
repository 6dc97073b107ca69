package service

import (
	"lms_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lesson(id uint, order int) model.CourseContentItem {
	return model.CourseContentItem{
		BaseModel:  model.BaseModel{ID: id},
		ItemType:   model.ItemLesson,
		OrderIndex: order,
	}
}

func quiz(id uint, order int) model.CourseContentItem {
	return model.CourseContentItem{
		BaseModel:  model.BaseModel{ID: id},
		ItemType:   model.ItemQuiz,
		OrderIndex: order,
	}
}

func section(id uint, order int) model.CourseContentItem {
	return model.CourseContentItem{
		BaseModel:  model.BaseModel{ID: id},
		ItemType:   model.ItemSection,
		OrderIndex: order,
	}
}

func decisionByItem(decisions []model.LockDecision) map[uint]model.LockDecision {
	m := make(map[uint]model.LockDecision, len(decisions))
	for _, d := range decisions {
		m[d.ItemID] = d
	}
	return m
}

func TestFreeFlow_AllUnlockedRegardlessOfCompletion(t *testing.T) {
	items := []model.CourseContentItem{lesson(1, 1), quiz(2, 2), lesson(3, 3)}
	completed := map[uint]bool{2: true} // arbitrary state must not matter

	decisions := PolicyFor(model.FlowFree).Evaluate(items, completed, nil, time.Now())

	require.Len(t, decisions, 3)
	for _, d := range decisions {
		assert.False(t, d.Locked, "item %d", d.ItemID)
		assert.Equal(t, model.ReasonNone, d.Reason)
	}
}

func TestSequential_FirstItemAlwaysUnlocked(t *testing.T) {
	items := []model.CourseContentItem{lesson(1, 1), lesson(2, 2)}

	decisions := PolicyFor(model.FlowSequential).Evaluate(items, map[uint]bool{}, nil, time.Now())

	require.Len(t, decisions, 2)
	assert.False(t, decisions[0].Locked)
	assert.True(t, decisions[1].Locked)
	assert.Equal(t, model.ReasonPreviousIncomplete, decisions[1].Reason)
}

func TestSequential_UnlocksAfterPreviousCompleted(t *testing.T) {
	items := []model.CourseContentItem{lesson(1, 1), lesson(2, 2), quiz(3, 3)}
	completed := map[uint]bool{1: true}

	d := decisionByItem(PolicyFor(model.FlowSequential).Evaluate(items, completed, nil, time.Now()))

	assert.False(t, d[1].Locked)
	assert.False(t, d[2].Locked)
	assert.True(t, d[3].Locked)
	assert.Equal(t, model.ReasonPreviousIncomplete, d[3].Reason)
}

func TestSequential_ExplicitIncompleteRecordStillLocks(t *testing.T) {
	items := []model.CourseContentItem{lesson(1, 1), lesson(2, 2)}
	completed := map[uint]bool{1: false} // started but not finished

	d := decisionByItem(PolicyFor(model.FlowSequential).Evaluate(items, completed, nil, time.Now()))

	assert.True(t, d[2].Locked)
}

func TestSequential_SectionsNeverEnterDependencyChain(t *testing.T) {
	// [Section A, Lesson 1, Section B, Lesson 2]: Lesson 2 depends on
	// Lesson 1 alone, and sections get no decision at all.
	items := []model.CourseContentItem{section(10, 1), lesson(1, 2), section(11, 3), lesson(2, 4)}
	completed := map[uint]bool{1: true}

	decisions := PolicyFor(model.FlowSequential).Evaluate(items, completed, nil, time.Now())

	require.Len(t, decisions, 2)
	d := decisionByItem(decisions)
	assert.False(t, d[1].Locked)
	assert.False(t, d[2].Locked)
	_, hasSection := d[10]
	assert.False(t, hasSection)
}

func TestSequential_SectionBetweenIncompleteLessons(t *testing.T) {
	items := []model.CourseContentItem{lesson(1, 1), section(10, 2), lesson(2, 3)}

	d := decisionByItem(PolicyFor(model.FlowSequential).Evaluate(items, map[uint]bool{}, nil, time.Now()))

	assert.False(t, d[1].Locked)
	assert.True(t, d[2].Locked)
	assert.Equal(t, model.ReasonPreviousIncomplete, d[2].Reason)
}

func TestDateFlow_PureFunctionOfNow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	opensLater := now.Add(time.Hour)

	item := lesson(1, 1)
	item.AvailableFrom = &opensLater
	items := []model.CourseContentItem{item}

	before := decisionByItem(PolicyFor(model.FlowDate).Evaluate(items, nil, nil, now))
	require.True(t, before[1].Locked)
	assert.Equal(t, model.ReasonNotYetByDate, before[1].Reason)

	// same data, later clock: unlocked without any state change
	after := decisionByItem(PolicyFor(model.FlowDate).Evaluate(items, nil, nil, now.Add(2*time.Hour)))
	assert.False(t, after[1].Locked)
	assert.Equal(t, model.ReasonNone, after[1].Reason)
}

func TestDateFlow_UnsetTimestampAlwaysOpen(t *testing.T) {
	items := []model.CourseContentItem{lesson(1, 1)}

	d := decisionByItem(PolicyFor(model.FlowDate).Evaluate(items, nil, nil, time.Now()))

	assert.False(t, d[1].Locked)
}

func TestDateFlow_BoundaryExactlyNowIsOpen(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	item := lesson(1, 1)
	item.AvailableFrom = &now
	items := []model.CourseContentItem{item}

	d := decisionByItem(PolicyFor(model.FlowDate).Evaluate(items, nil, nil, now))

	assert.False(t, d[1].Locked)
}

func TestDaysFlow_CountsFromEnrollment(t *testing.T) {
	enrolledAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	three := 3

	gated := lesson(1, 1)
	gated.AvailableAfterDays = &three
	items := []model.CourseContentItem{gated, lesson(2, 2)}

	day2 := decisionByItem(PolicyFor(model.FlowDays).Evaluate(items, nil, &enrolledAt, enrolledAt.AddDate(0, 0, 2)))
	require.True(t, day2[1].Locked)
	assert.Equal(t, model.ReasonNotYetByDays, day2[1].Reason)
	assert.False(t, day2[2].Locked, "items without a day gate are open")

	day3 := decisionByItem(PolicyFor(model.FlowDays).Evaluate(items, nil, &enrolledAt, enrolledAt.AddDate(0, 0, 3)))
	assert.False(t, day3[1].Locked)
}

func TestDaysFlow_NoEnrollmentDateLocksGatedItems(t *testing.T) {
	one := 1
	gated := lesson(1, 1)
	gated.AvailableAfterDays = &one
	items := []model.CourseContentItem{gated}

	d := decisionByItem(PolicyFor(model.FlowDays).Evaluate(items, nil, nil, time.Now()))

	assert.True(t, d[1].Locked)
	assert.Equal(t, model.ReasonNotYetByDays, d[1].Reason)
}

func TestPolicyFor_UnknownModeFailsOpen(t *testing.T) {
	items := []model.CourseContentItem{lesson(1, 1), lesson(2, 2)}

	d := decisionByItem(PolicyFor(model.CourseFlowMode("corrupted")).Evaluate(items, map[uint]bool{}, nil, time.Now()))

	require.Len(t, d, 2)
	assert.False(t, d[1].Locked)
	assert.False(t, d[2].Locked)
}
