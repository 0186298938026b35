package model

import "strings"

// Item is a single name/value pair submitted for provisioning.
type Item struct {
	Name  string
	Value string
}

// Valid reports whether both name and value are non-empty after trimming.
func (i Item) Valid() bool {
	return strings.TrimSpace(i.Name) != "" && strings.TrimSpace(i.Value) != ""
}

// FilterValid returns the valid items in input order. Blank rows from the form
// are dropped here, before any network call.
func FilterValid(items []Item) []Item {
	valid := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Valid() {
			valid = append(valid, item)
		}
	}
	return valid
}

// ConnectionParams identifies where a run provisions its items. It is not
// modified once a run starts.
type ConnectionParams struct {
	Token       string
	Owner       string
	Repo        string
	Environment string
	Kind        ItemKind
}

// RepoFullName returns "owner/repo".
func (p ConnectionParams) RepoFullName() string {
	return p.Owner + "/" + p.Repo
}

// MissingFields lists the required connection fields that are blank.
func (p ConnectionParams) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(p.Token) == "" {
		missing = append(missing, "token")
	}
	if strings.TrimSpace(p.Owner) == "" {
		missing = append(missing, "owner")
	}
	if strings.TrimSpace(p.Repo) == "" {
		missing = append(missing, "repo")
	}
	if strings.TrimSpace(p.Environment) == "" {
		missing = append(missing, "environment")
	}
	return missing
}

// ProvisionRequest is the complete input of one run.
type ProvisionRequest struct {
	Params ConnectionParams
	Items  []Item
}
