package model

// ItemKind selects which kind of GitHub Actions item a run provisions.
type ItemKind string

const (
	ItemKindSecret   ItemKind = "secrets"
	ItemKindVariable ItemKind = "variables"
)

// ParseItemKind maps user input to an ItemKind. Singular and plural forms are
// both accepted; anything else reports ok=false.
func ParseItemKind(s string) (ItemKind, bool) {
	switch s {
	case "secret", "secrets":
		return ItemKindSecret, true
	case "variable", "variables", "":
		return ItemKindVariable, true
	default:
		return "", false
	}
}

// Singular returns the lower-case singular noun ("secret", "variable").
func (k ItemKind) Singular() string {
	if k == ItemKindSecret {
		return "secret"
	}
	return "variable"
}

// Title returns the capitalised singular noun ("Secret", "Variable").
func (k ItemKind) Title() string {
	if k == ItemKindSecret {
		return "Secret"
	}
	return "Variable"
}

// RunPhase is the coarse lifecycle state of a provisioning run.
type RunPhase string

const (
	RunPhaseIdle      RunPhase = "idle"
	RunPhaseRunning   RunPhase = "running"
	RunPhaseCompleted RunPhase = "completed"
	RunPhaseFailed    RunPhase = "failed"
)

// Terminal reports whether no further progress can happen in this phase.
func (p RunPhase) Terminal() bool {
	return p == RunPhaseCompleted || p == RunPhaseFailed
}

// ResultKind classifies a single entry in a run's result log.
type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultWarning ResultKind = "warning"
	ResultError   ResultKind = "error"
)
