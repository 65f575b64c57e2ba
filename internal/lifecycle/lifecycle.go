// Package lifecycle governs content status transitions and the timestamps
// that depend on them.
package lifecycle

import (
	"go-newsroom/internal/apperr"
	"time"
)

// Status is the publication state of a content item.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// StatusAll is the listing pseudo-status meaning "no status filter".
const StatusAll = "all"

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusDraft, StatusScheduled, StatusPublished, StatusArchived:
		return st, nil
	}
	return "", apperr.Validation("unknown status %q", s)
}

// transitions lists the allowed moves out of each state. Leaving archived is
// only possible through an explicit status set; nothing does it automatically.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusPublished, StatusScheduled, StatusArchived},
	StatusScheduled: {StatusPublished, StatusArchived, StatusDraft},
	StatusPublished: {StatusArchived},
	StatusArchived:  {StatusDraft, StatusScheduled, StatusPublished},
}

// CanTransition reports whether from -> to is allowed. Staying put always is.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// State is the status-dependent part of a content item.
type State struct {
	Status       Status
	PublishedAt  *time.Time
	ScheduledFor *time.Time
}

// OnCreate computes the initial state. Content starts as a draft unless
// another status is requested; publishing stamps PublishedAt.
func OnCreate(requested Status, scheduledFor *time.Time, now time.Time) (State, error) {
	if requested == "" {
		requested = StatusDraft
	}
	if _, err := ParseStatus(string(requested)); err != nil {
		return State{}, err
	}

	st := State{Status: requested, ScheduledFor: scheduledFor}
	switch requested {
	case StatusPublished:
		st.PublishedAt = &now
	case StatusScheduled:
		if scheduledFor == nil {
			return State{}, apperr.Validation("scheduled_for is required when status is scheduled")
		}
	}
	return st, nil
}

// OnUpdate applies a requested status change to current. A nil requested
// status leaves the status alone. Entering published stamps PublishedAt only
// when it was never set, so re-publishing keeps the original publish time.
func OnUpdate(current State, requested *Status, scheduledFor *time.Time, now time.Time) (State, error) {
	next := current
	if scheduledFor != nil {
		next.ScheduledFor = scheduledFor
	}
	if requested == nil {
		return next, nil
	}

	to, err := ParseStatus(string(*requested))
	if err != nil {
		return State{}, err
	}
	if !CanTransition(current.Status, to) {
		return State{}, apperr.Validation("cannot change status from %s to %s", current.Status, to)
	}
	if to == StatusScheduled && next.ScheduledFor == nil {
		return State{}, apperr.Validation("scheduled_for is required when status is scheduled")
	}

	if to == StatusPublished && current.Status != StatusPublished && current.PublishedAt == nil {
		next.PublishedAt = &now
	}
	next.Status = to
	return next, nil
}

// IsDue reports whether a scheduled item should be promoted at now.
func IsDue(st State, now time.Time) bool {
	return st.Status == StatusScheduled && st.ScheduledFor != nil && !st.ScheduledFor.After(now)
}

// Promote moves a due scheduled item to published.
func Promote(st State, now time.Time) (State, bool) {
	if !IsDue(st, now) {
		return st, false
	}
	next, err := OnUpdate(st, statusPtr(StatusPublished), nil, now)
	if err != nil {
		return st, false
	}
	return next, true
}

// ListFilter resolves the status filter of a listing. Published is the
// default; only privileged callers may ask for another status explicitly,
// and "all" drops the filter.
func ListFilter(requested string, privileged bool) (*Status, error) {
	if !privileged || requested == "" {
		return statusPtr(StatusPublished), nil
	}
	if requested == StatusAll {
		return nil, nil
	}
	st, err := ParseStatus(requested)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func statusPtr(s Status) *Status { return &s }
