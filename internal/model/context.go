package model

import "context"

type contextKey string

const userKey contextKey = "user"

// WithUser returns ctx carrying u as the acting user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the acting user, or nil.
func UserFrom(ctx context.Context) *User {
	if u, ok := ctx.Value(userKey).(*User); ok {
		return u
	}
	return nil
}
