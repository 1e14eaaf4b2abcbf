package model

import (
	"net/mail"
	"strings"

	"github.com/kidandcat/bugracer/internal/apperr"
)

// Credentials is what a login form submits. Identifier is an email or username.
type Credentials struct {
	Identifier string `json:"email"`
	Secret     string `json:"password"`
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Identifier) == "" || c.Secret == "" {
		return apperr.New(apperr.Validation, "login", "Email and password are required")
	}
	return nil
}

type Registration struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

func (r Registration) Validate() error {
	const op = "register"
	if strings.TrimSpace(r.Name) == "" {
		return apperr.New(apperr.Validation, op, "Name is required")
	}
	if err := validEmail(op, r.Email); err != nil {
		return err
	}
	if len(r.Password) < 6 {
		return apperr.New(apperr.Validation, op, "Password must be at least 6 characters")
	}
	if r.Role != "" && !r.Role.Valid() {
		return apperr.Newf(apperr.Validation, op, "unknown role %q", r.Role)
	}
	return nil
}

// AuthResult is returned by a successful login or registration.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type BugInput struct {
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	ProjectID          string      `json:"projectId"`
	AffectedDashboards []string    `json:"affectedDashboards"`
	ReporterID         string      `json:"reporterId"`
	AssigneeID         string      `json:"assigneeId,omitempty"`
	Priority           BugPriority `json:"priority"`
	Screenshots        []string    `json:"screenshots,omitempty"`
	Files              []string    `json:"files,omitempty"`
}

// Validate checks the fields a bug cannot exist without. ReporterID may be
// empty when the data source fills it from the acting user.
func (in BugInput) Validate() error {
	const op = "bugs.create"
	if strings.TrimSpace(in.Name) == "" {
		return apperr.New(apperr.Validation, op, "Bug name is required")
	}
	if in.ProjectID == "" {
		return apperr.New(apperr.Validation, op, "Project is required")
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return apperr.Newf(apperr.Validation, op, "unknown priority %q", in.Priority)
	}
	return nil
}

// BugPatch is a partial update; nil fields are left unchanged.
type BugPatch struct {
	Name               *string      `json:"name,omitempty"`
	Description        *string      `json:"description,omitempty"`
	AffectedDashboards []string     `json:"affectedDashboards,omitempty"`
	AssigneeID         *string      `json:"assigneeId,omitempty"`
	Priority           *BugPriority `json:"priority,omitempty"`
	Status             *BugStatus   `json:"status,omitempty"`
}

func (p BugPatch) Validate() error {
	const op = "bugs.update"
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperr.New(apperr.Validation, op, "Bug name cannot be empty")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return apperr.Newf(apperr.Validation, op, "unknown priority %q", *p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperr.Newf(apperr.Validation, op, "unknown status %q", *p.Status)
	}
	return nil
}

// Apply copies the set fields onto b.
func (p BugPatch) Apply(b *Bug) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.AffectedDashboards != nil {
		b.AffectedDashboards = append([]string(nil), p.AffectedDashboards...)
	}
	if p.AssigneeID != nil {
		b.AssigneeID = *p.AssigneeID
	}
	if p.Priority != nil {
		b.Priority = *p.Priority
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
}

type ProjectInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Dashboards  []string `json:"dashboards,omitempty"`
}

func (in ProjectInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.New(apperr.Validation, "projects.create", "Project name is required")
	}
	return nil
}

type ProjectPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
}

func (p ProjectPatch) Validate() error {
	const op = "projects.update"
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperr.New(apperr.Validation, op, "Project name cannot be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperr.Newf(apperr.Validation, op, "unknown project status %q", *p.Status)
	}
	return nil
}

func (p ProjectPatch) Apply(pr *Project) {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.Status != nil {
		pr.Status = *p.Status
	}
}

type UserInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

func (in UserInput) Validate() error {
	const op = "users.create"
	if strings.TrimSpace(in.Name) == "" {
		return apperr.New(apperr.Validation, op, "Name is required")
	}
	if err := validEmail(op, in.Email); err != nil {
		return err
	}
	if !in.Role.Valid() {
		return apperr.Newf(apperr.Validation, op, "unknown role %q", in.Role)
	}
	return nil
}

type UserPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *Role   `json:"role,omitempty"`
}

func (p UserPatch) Validate() error {
	const op = "users.update"
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperr.New(apperr.Validation, op, "Name cannot be empty")
	}
	if p.Email != nil {
		if err := validEmail(op, *p.Email); err != nil {
			return err
		}
	}
	if p.Role != nil && !p.Role.Valid() {
		return apperr.Newf(apperr.Validation, op, "unknown role %q", *p.Role)
	}
	return nil
}

func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
}

func validEmail(op, email string) error {
	if strings.TrimSpace(email) == "" {
		return apperr.New(apperr.Validation, op, "Email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Newf(apperr.Validation, op, "invalid email %q", email)
	}
	return nil
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}
