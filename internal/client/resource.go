package client

import (
	"context"

	"github.com/kidandcat/bugracer/internal/model"
)

// Resource is the CRUD wrapper for one entity collection. Inputs that carry
// a Validate method are checked before any request is sent.
type Resource[T, C, P any] struct {
	c    *Client
	name string
	fill func(*T)
}

type validator interface {
	Validate() error
}

func validate(v any) error {
	if vv, ok := v.(validator); ok {
		return vv.Validate()
	}
	return nil
}

func (r *Resource[T, C, P]) List(ctx context.Context, f model.Filter) ([]T, error) {
	var out []T
	if err := r.c.do(ctx, r.name+".list", r.c.layout.list(r.name, f), nil, &out, ""); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	if r.fill != nil {
		for i := range out {
			r.fill(&out[i])
		}
	}
	return out, nil
}

func (r *Resource[T, C, P]) Get(ctx context.Context, id string) (*T, error) {
	return r.one(ctx, r.name+".get", r.c.layout.get(r.name, id), nil)
}

func (r *Resource[T, C, P]) Create(ctx context.Context, in C) (*T, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	return r.one(ctx, r.name+".create", r.c.layout.create(r.name), in)
}

func (r *Resource[T, C, P]) Update(ctx context.Context, id string, patch P) (*T, error) {
	if err := validate(patch); err != nil {
		return nil, err
	}
	return r.one(ctx, r.name+".update", r.c.layout.update(r.name, id), patch)
}

func (r *Resource[T, C, P]) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, r.name+".delete", r.c.layout.delete(r.name, id), nil, nil, "")
}

func (r *Resource[T, C, P]) one(ctx context.Context, op string, rt route, in any) (*T, error) {
	var out T
	if err := r.c.do(ctx, op, rt, in, &out, ""); err != nil {
		return nil, err
	}
	if r.fill != nil {
		r.fill(&out)
	}
	return &out, nil
}

func fillAvatar(u *model.User) {
	*u = u.WithAvatar()
}
