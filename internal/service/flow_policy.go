package service

import (
	"lms_backend/internal/model"
	"time"
)

// FlowPolicy computes lock decisions for every gatable item of a course.
// Implementations are pure: no I/O, no writes, time comes in as an
// argument. New gating strategies register here instead of hooking a
// filter chain somewhere global.
type FlowPolicy interface {
	Evaluate(items []model.CourseContentItem, completed map[uint]bool, enrolledAt *time.Time, now time.Time) []model.LockDecision
}

var flowPolicies = map[model.CourseFlowMode]FlowPolicy{
	model.FlowFree:       freeFlowPolicy{},
	model.FlowSequential: sequentialPolicy{},
	model.FlowDate:       dateFlowPolicy{},
	model.FlowDays:       daysFlowPolicy{},
}

// PolicyFor returns the evaluator bound to mode. Unknown or corrupt modes
// fall back to free-flow: locking an entire course over bad metadata
// would shut enrolled users out of content they paid for.
func PolicyFor(mode model.CourseFlowMode) FlowPolicy {
	if p, ok := flowPolicies[mode]; ok {
		return p
	}
	return freeFlowPolicy{}
}

type freeFlowPolicy struct{}

func (freeFlowPolicy) Evaluate(items []model.CourseContentItem, _ map[uint]bool, _ *time.Time, _ time.Time) []model.LockDecision {
	decisions := make([]model.LockDecision, 0, len(items))
	for _, item := range items {
		if !item.Gatable() {
			continue
		}
		decisions = append(decisions, model.LockDecision{
			ItemID: item.ID,
			Locked: false,
			Reason: model.ReasonNone,
		})
	}
	return decisions
}

// sequentialPolicy unlocks item N once the nearest earlier non-section
// item is completed. Sections never enter the dependency chain, so in
// [Section A, Lesson 1, Section B, Lesson 2] the second lesson depends on
// the first lesson alone. A missing completion record counts as not
// completed, never as an error.
type sequentialPolicy struct{}

func (sequentialPolicy) Evaluate(items []model.CourseContentItem, completed map[uint]bool, _ *time.Time, _ time.Time) []model.LockDecision {
	decisions := make([]model.LockDecision, 0, len(items))
	prevCompleted := true // the first gatable item is always unlocked
	for _, item := range items {
		if !item.Gatable() {
			continue
		}
		d := model.LockDecision{ItemID: item.ID, Reason: model.ReasonNone}
		if !prevCompleted {
			d.Locked = true
			d.Reason = model.ReasonPreviousIncomplete
		}
		decisions = append(decisions, d)
		prevCompleted = completed[item.ID]
	}
	return decisions
}

// dateFlowPolicy gates each item on its own AvailableFrom timestamp, with
// no cross-item dependency. Items without a timestamp are always open.
type dateFlowPolicy struct{}

func (dateFlowPolicy) Evaluate(items []model.CourseContentItem, _ map[uint]bool, _ *time.Time, now time.Time) []model.LockDecision {
	decisions := make([]model.LockDecision, 0, len(items))
	for _, item := range items {
		if !item.Gatable() {
			continue
		}
		d := model.LockDecision{ItemID: item.ID, Reason: model.ReasonNone}
		if item.AvailableFrom != nil && item.AvailableFrom.After(now) {
			d.Locked = true
			d.Reason = model.ReasonNotYetByDate
		}
		decisions = append(decisions, d)
	}
	return decisions
}

// daysFlowPolicy gates each item on days elapsed since enrollment. An
// unknown enrollment date locks every day-gated item: without it there is
// nothing to count from.
type daysFlowPolicy struct{}

func (daysFlowPolicy) Evaluate(items []model.CourseContentItem, _ map[uint]bool, enrolledAt *time.Time, now time.Time) []model.LockDecision {
	decisions := make([]model.LockDecision, 0, len(items))
	for _, item := range items {
		if !item.Gatable() {
			continue
		}
		d := model.LockDecision{ItemID: item.ID, Reason: model.ReasonNone}
		if item.AvailableAfterDays != nil {
			if enrolledAt == nil || enrolledAt.AddDate(0, 0, *item.AvailableAfterDays).After(now) {
				d.Locked = true
				d.Reason = model.ReasonNotYetByDays
			}
		}
		decisions = append(decisions, d)
	}
	return decisions
}
