package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kidandcat/bugracer/internal/apperr"
)

// Role is the fixed category controlling what a user may see and do.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleTester    Role = "tester"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleDeveloper, RoleTester}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleTester:
		return true
	}
	return false
}

// Title is the capitalized display name, e.g. "Developer".
func (r Role) Title() string {
	return cases.Title(language.English).String(string(r))
}

// ParseRole accepts the canonical names and "administrator".
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r == "administrator" {
		r = RoleAdmin
	}
	if !r.Valid() {
		return "", apperr.Newf(apperr.Validation, "", "unknown role %q", s)
	}
	return r, nil
}

type BugPriority string

const (
	PriorityHigh   BugPriority = "high"
	PriorityMedium BugPriority = "medium"
	PriorityLow    BugPriority = "low"
)

var Priorities = []BugPriority{PriorityHigh, PriorityMedium, PriorityLow}

func (p BugPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

func ParsePriority(s string) (BugPriority, error) {
	p := BugPriority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", apperr.Newf(apperr.Validation, "", "unknown priority %q", s)
	}
	return p, nil
}

// BugStatus is the superset of the status values used across data revisions.
type BugStatus string

const (
	StatusPending    BugStatus = "pending"
	StatusInProgress BugStatus = "in_progress"
	StatusFixed      BugStatus = "fixed"
	StatusDeclined   BugStatus = "declined"
	StatusRejected   BugStatus = "rejected"
)

var Statuses = []BugStatus{StatusPending, StatusInProgress, StatusFixed, StatusDeclined, StatusRejected}

// legacyStatuses maps spellings found in older snapshots and backends.
var legacyStatuses = map[string]BugStatus{
	"open":        StatusPending,
	"new":         StatusPending,
	"in-progress": StatusInProgress,
	"inprogress":  StatusInProgress,
	"in progress": StatusInProgress,
	"resolved":    StatusFixed,
	"done":        StatusFixed,
}

func (s BugStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusFixed, StatusDeclined, StatusRejected:
		return true
	}
	return false
}

// Label is the human form, e.g. "In Progress".
func (s BugStatus) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(s), "_", " "))
}

// ParseStatus accepts canonical values and the legacy spellings.
func ParseStatus(s string) (BugStatus, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if st := BugStatus(v); st.Valid() {
		return st, nil
	}
	if st, ok := legacyStatuses[v]; ok {
		return st, nil
	}
	return "", apperr.Newf(apperr.Validation, "", "unknown status %q", s)
}

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

func ParseProjectStatus(s string) (ProjectStatus, error) {
	st := ProjectStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", apperr.Newf(apperr.Validation, "", "unknown project status %q", s)
	}
	return st, nil
}
