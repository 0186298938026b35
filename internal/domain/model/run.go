package model

import "time"

// ProgressState tracks how far a run has advanced. Total is the number of
// valid items plus two (repository lookup and environment check).
type ProgressState struct {
	Current int
	Total   int
	Status  string
	Phase   RunPhase
}

// Percent returns progress as an integer percentage in [0, 100].
func (p ProgressState) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	pct := p.Current * 100 / p.Total
	if pct > 100 {
		return 100
	}
	return pct
}

// ResultEntry is one line of a run's result log.
type ResultEntry struct {
	Kind    ResultKind
	Message string
	At      time.Time
}

// RunSnapshot is an immutable copy of a run's state at one instant.
// It never carries the token or any item value.
type RunSnapshot struct {
	ID           string
	Owner        string
	Repo         string
	Environment  string
	Kind         ItemKind
	RepositoryID int64
	Progress     ProgressState
	Entries      []ResultEntry
	StartedAt    time.Time
	FinishedAt   time.Time
}

// ErrorCount returns the number of error entries in the log.
func (s RunSnapshot) ErrorCount() int {
	n := 0
	for _, e := range s.Entries {
		if e.Kind == ResultError {
			n++
		}
	}
	return n
}
