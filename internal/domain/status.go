package domain

import "fmt"

// QuizStatus is a position in the quiz generation lifecycle.
type QuizStatus string

// Quiz lifecycle states.
const (
	StatusQueued       QuizStatus = "queued"
	StatusArchitecting QuizStatus = "architecting"
	StatusBuilding     QuizStatus = "building"
	StatusDraft        QuizStatus = "draft"
	StatusPublished    QuizStatus = "published"
	StatusArchived     QuizStatus = "archived"
	StatusFailed       QuizStatus = "failed"
)

// StepFailed is the progress step reported for failed quizzes.
const StepFailed = -1

var statusSteps = map[QuizStatus]int{
	StatusQueued:       0,
	StatusArchitecting: 1,
	StatusBuilding:     2,
	StatusDraft:        3,
	StatusPublished:    3,
	StatusArchived:     3,
	StatusFailed:       StepFailed,
}

// transitions lists the legal edges. Self edges on the working states allow a
// redelivered job to resume where the previous attempt stopped.
var transitions = map[QuizStatus][]QuizStatus{
	StatusQueued:       {StatusArchitecting, StatusFailed},
	StatusArchitecting: {StatusArchitecting, StatusBuilding, StatusFailed},
	StatusBuilding:     {StatusBuilding, StatusDraft, StatusPublished, StatusFailed},
	StatusDraft:        {StatusPublished, StatusArchived},
	StatusPublished:    {StatusArchived},
}

// Valid reports whether s is a known status.
func (s QuizStatus) Valid() bool {
	_, ok := statusSteps[s]
	return ok
}

// Step returns the monotonic progress step used for UI display.
// Unknown statuses report StepFailed.
func (s QuizStatus) Step() int {
	step, ok := statusSteps[s]
	if !ok {
		return StepFailed
	}
	return step
}

// IsTerminal reports whether no worker will move the quiz out of s.
func (s QuizStatus) IsTerminal() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived, StatusFailed:
		return true
	default:
		return false
	}
}

// IsWorking reports whether a generation job is expected to be driving the quiz.
func (s QuizStatus) IsWorking() bool {
	switch s {
	case StatusQueued, StatusArchitecting, StatusBuilding:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the lifecycle has an edge from -> to.
func CanTransition(from, to QuizStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionFacts carries the persisted state the guards depend on.
type TransitionFacts struct {
	HasArchitecture bool
	HasDraft        bool
}

// ValidateTransition checks an edge together with its entry guards.
func ValidateTransition(from, to QuizStatus, facts TransitionFacts) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: %q -> %q", ErrIllegalTransition, from, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %q -> %q", ErrIllegalTransition, from, to)
	}

	switch to {
	case StatusBuilding:
		if !facts.HasArchitecture {
			return ErrArchitectureMissing
		}
	case StatusDraft, StatusPublished:
		if !facts.HasDraft {
			return ErrDraftMissing
		}
	}

	return nil
}
