package localstore

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kidandcat/bugracer/internal/apperr"
	"github.com/kidandcat/bugracer/internal/model"
)

const defaultBcryptCost = bcrypt.DefaultCost

const invalidCredentials = "Invalid email or password"

// isDemoAccount reports whether any non-empty password is accepted for email.
func isDemoAccount(email string) bool {
	return strings.Contains(strings.ToLower(email), "demo")
}

func (d *dataset) userByIdentifier(identifier string) (model.User, bool) {
	for _, u := range d.Users {
		if strings.EqualFold(u.Email, identifier) || (u.Username != "" && strings.EqualFold(u.Username, identifier)) {
			return u, true
		}
	}
	return model.User{}, false
}

// usernameTaken also counts emails, since either one signs a user in.
func (d *dataset) usernameTaken(name, exceptID string) bool {
	return slices.ContainsFunc(d.Users, func(u model.User) bool {
		return u.ID != exceptID && (strings.EqualFold(u.Username, name) || strings.EqualFold(u.Email, name))
	})
}

func (d *dataset) userIndex(id string) int {
	return slices.IndexFunc(d.Users, func(u model.User) bool { return u.ID == id })
}

func (d *dataset) emailTaken(email, exceptID string) bool {
	return slices.ContainsFunc(d.Users, func(u model.User) bool {
		return u.ID != exceptID && strings.EqualFold(u.Email, email)
	})
}

// Login checks a stored bcrypt hash when the user has one. Demo accounts
// without a hash accept any non-empty password.
func (s *Store) Login(ctx context.Context, creds model.Credentials) (*model.AuthResult, error) {
	const op = "localstore.login"
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var res *model.AuthResult
	err := s.mutate(ctx, op, func(d *dataset) error {
		u, ok := d.userByIdentifier(strings.TrimSpace(creds.Identifier))
		if !ok {
			return apperr.New(apperr.Unauthorized, op, invalidCredentials)
		}
		if hash, ok := d.Credentials[u.ID]; ok {
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Secret)) != nil {
				return apperr.New(apperr.Unauthorized, op, invalidCredentials)
			}
		} else if !isDemoAccount(u.Email) {
			return apperr.New(apperr.Unauthorized, op, invalidCredentials)
		}

		token := uuid.NewString()
		d.Sessions[token] = u.ID
		res = &model.AuthResult{User: u.WithAvatar(), Token: token}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) Register(ctx context.Context, reg model.Registration) (*model.AuthResult, error) {
	const op = "localstore.register"
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Server, op, err)
	}

	var res *model.AuthResult
	err = s.mutate(ctx, op, func(d *dataset) error {
		u, err := d.insertUser(s, model.UserInput{
			Name:     reg.Name,
			Username: reg.Username,
			Email:    reg.Email,
			Role:     reg.Role,
		}, op)
		if err != nil {
			return err
		}
		d.Credentials[u.ID] = string(hash)
		token := uuid.NewString()
		d.Sessions[token] = u.ID
		res = &model.AuthResult{User: u, Token: token}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Me resolves a session token to its user.
func (s *Store) Me(ctx context.Context, token string) (*model.User, error) {
	const op = "localstore.me"
	var u *model.User
	err := s.view(ctx, op, func(d *dataset) error {
		id, ok := d.Sessions[token]
		if !ok || token == "" {
			return apperr.New(apperr.Unauthorized, op, "session expired")
		}
		i := d.userIndex(id)
		if i < 0 {
			return apperr.New(apperr.Unauthorized, op, "session user no longer exists")
		}
		cp := d.Users[i].WithAvatar()
		u = &cp
		return nil
	})
	return u, err
}

// Logout forgets the session token. Unknown tokens are ignored.
func (s *Store) Logout(ctx context.Context, token string) error {
	return s.mutate(ctx, "localstore.logout", func(d *dataset) error {
		delete(d.Sessions, token)
		return nil
	})
}

// insertUser appends a validated user. Registration defaults the role to tester.
func (d *dataset) insertUser(s *Store, in model.UserInput, op string) (model.User, error) {
	if in.Role == "" {
		in.Role = model.RoleTester
	}
	if err := in.Validate(); err != nil {
		return model.User{}, err
	}
	if d.emailTaken(in.Email, "") {
		return model.User{}, apperr.New(apperr.Validation, op, "User with this email already exists")
	}
	username := strings.TrimSpace(in.Username)
	if username != "" && d.usernameTaken(username, "") {
		return model.User{}, apperr.New(apperr.Validation, op, "Username already taken")
	}
	if username == "" {
		base, _, _ := strings.Cut(strings.TrimSpace(in.Email), "@")
		username = base
		for n := 2; d.usernameTaken(username, ""); n++ {
			username = base + strconv.Itoa(n)
		}
	}
	now := s.now()
	u := model.User{
		ID:        s.newID("user", func(id string) bool { return d.userIndex(id) >= 0 }),
		Name:      strings.TrimSpace(in.Name),
		Username:  username,
		Email:     strings.TrimSpace(in.Email),
		Role:      in.Role,
		CreatedAt: &now,
	}.WithAvatar()
	d.Users = append(d.Users, u)
	return u, nil
}
