// Package backend defines the data-source contract shared by the remote
// REST client and the local store, so the session and view layers can use
// either.
package backend

import (
	"context"

	"github.com/kidandcat/bugracer/internal/model"
)

// Authenticator exchanges credentials for a user and token and resolves a
// token back to its user.
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials) (*model.AuthResult, error)
	Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error)
	Me(ctx context.Context, token string) (*model.User, error)
}

// Revoker is implemented by authenticators that can invalidate a token.
type Revoker interface {
	Logout(ctx context.Context, token string) error
}

// Repository is the CRUD contract for one entity type. C is the create
// input and P the partial update.
type Repository[T, C, P any] interface {
	List(ctx context.Context, f model.Filter) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, in C) (*T, error)
	Update(ctx context.Context, id string, patch P) (*T, error)
	Delete(ctx context.Context, id string) error
}

type (
	Bugs     = Repository[model.Bug, model.BugInput, model.BugPatch]
	Projects = Repository[model.Project, model.ProjectInput, model.ProjectPatch]
	Users    = Repository[model.User, model.UserInput, model.UserPatch]
)

// ActivityLog is the read-only audit trail. Filter fields that apply are
// ProjectID and UserID (the acting user).
type ActivityLog interface {
	List(ctx context.Context, f model.Filter) ([]model.Activity, error)
}

// Source is a complete data source.
type Source interface {
	Authenticator
	Bugs() Bugs
	Projects() Projects
	Users() Users
	Activities() ActivityLog
}
