// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// ItemRow is one name/value row of the provisioning form.
type ItemRow struct {
	Name  string
	Value string
}

// FormViewModel holds everything the provisioning form renders. The token is
// never echoed back.
type FormViewModel struct {
	CSRFToken   string
	Owner       string
	Repo        string
	Environment string
	Kind        string // "variables" or "secrets"
	Rows        []ItemRow
	Bulk        string
	BulkFormat  string // "dotenv" or "yaml"
	Error       string
	HelpHTML    string // sanitized HTML for the token-scope panel
}

// EntryViewModel is one line of a run's result log.
type EntryViewModel struct {
	Kind    string // success, warning, error; doubles as the CSS modifier
	Message string
	Time    string
}

// RunViewModel holds the progress view of a single run.
type RunViewModel struct {
	ID           string
	Title        string
	Repository   string
	Environment  string
	KindTitle    string
	Status       string
	Phase        string
	Current      int
	Total        int
	Percent      int
	ErrorCount   int
	Terminal     bool
	Entries      []EntryViewModel
	CSRFToken    string
	ProgressPath string
	CancelPath   string
}

// HistoryRowViewModel is one finished run in the history table.
type HistoryRowViewModel struct {
	ID          string
	Repository  string
	Environment string
	Kind        string
	Phase       string
	Status      string
	Items       int
	ErrorCount  int
	StartedAgo  string
	Duration    string
	DetailPath  string
}

// HistoryViewModel holds the run history page.
type HistoryViewModel struct {
	Rows []HistoryRowViewModel
}
