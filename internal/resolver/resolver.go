// Package resolver supplies values for fields the known facts cannot cover,
// typically the ones a user flagged with the trigger token.
package resolver

import (
	"context"
	"errors"

	"autofill/internal/form"
)

// ErrAborted is returned when the user abandons an interactive session.
var ErrAborted = errors.New("resolver: aborted")

// Resolver produces field id -> value for the given fields. Fields it has no
// answer for are left out of the result.
type Resolver interface {
	Resolve(ctx context.Context, fields []form.FieldDescriptor) (*form.ValueMap, error)
}

// Func adapts a function to Resolver.
type Func func(ctx context.Context, fields []form.FieldDescriptor) (*form.ValueMap, error)

func (f Func) Resolve(ctx context.Context, fields []form.FieldDescriptor) (*form.ValueMap, error) {
	return f(ctx, fields)
}
