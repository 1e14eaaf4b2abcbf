package localstore

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/model"
)

type userRepo struct{ s *Store }

func (r userRepo) List(ctx context.Context, f model.Filter) ([]model.User, error) {
	var out []model.User
	err := r.s.view(ctx, "users.list", func(d *dataset) error {
		q := strings.ToLower(strings.TrimSpace(f.Search))
		out = make([]model.User, 0, len(d.Users))
		for _, u := range d.Users {
			if q != "" && !strings.Contains(strings.ToLower(u.Name), q) && !strings.Contains(strings.ToLower(u.Email), q) {
				continue
			}
			out = append(out, u.WithAvatar())
		}
		return nil
	})
	return out, err
}

func (r userRepo) Get(ctx context.Context, id string) (*model.User, error) {
	const op = "users.get"
	var out *model.User
	err := r.s.view(ctx, op, func(d *dataset) error {
		i := d.userIndex(id)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, op, "user %s not found", id)
		}
		u := d.Users[i].WithAvatar()
		out = &u
		return nil
	})
	return out, err
}

// Create adds a user. Without a password the user can only sign in if the
// email marks it as a demo account.
func (r userRepo) Create(ctx context.Context, in model.UserInput) (*model.User, error) {
	const op = "users.create"
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var hash []byte
	if in.Password != "" {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(in.Password), r.s.bcryptCost); err != nil {
			return nil, apperr.Wrap(apperr.Server, op, err)
		}
	}

	var out *model.User
	err := r.s.mutate(ctx, op, func(d *dataset) error {
		u, err := d.insertUser(r.s, in, op)
		if err != nil {
			return err
		}
		if hash != nil {
			d.Credentials[u.ID] = string(hash)
		}
		out = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r userRepo) Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	const op = "users.update"
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var out *model.User
	err := r.s.mutate(ctx, op, func(d *dataset) error {
		i := d.userIndex(id)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, op, "user %s not found", id)
		}
		if patch.Email != nil && d.emailTaken(*patch.Email, id) {
			return apperr.New(apperr.Validation, op, "User with this email already exists")
		}
		u := d.Users[i]
		patch.Apply(&u)
		d.Users[i] = u
		u = u.WithAvatar()
		out = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the user with their credentials and sessions.
func (r userRepo) Delete(ctx context.Context, id string) error {
	const op = "users.delete"
	return r.s.mutate(ctx, op, func(d *dataset) error {
		i := d.userIndex(id)
		if i < 0 {
			return apperr.Newf(apperr.NotFound, op, "user %s not found", id)
		}
		d.Users = slices.Delete(d.Users, i, i+1)
		delete(d.Credentials, id)
		for tok, uid := range d.Sessions {
			if uid == id {
				delete(d.Sessions, tok)
			}
		}
		return nil
	})
}
