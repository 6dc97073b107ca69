package model

// LockReason explains why an item is locked. Empty-equivalent "none" is
// used for unlocked items so responses stay self-describing.
type LockReason string

const (
	ReasonNone               LockReason = "none"
	ReasonPreviousIncomplete LockReason = "previous_incomplete"
	ReasonNotYetByDate       LockReason = "not_yet_available_by_date"
	ReasonNotYetByDays       LockReason = "not_yet_available_by_days"
)

// LockDecision is the computed accessibility verdict for one item. It is
// derived fresh on every query and never persisted.
type LockDecision struct {
	ItemID uint       `json:"itemId"`
	Locked bool       `json:"locked"`
	Reason LockReason `json:"reason"`
}
