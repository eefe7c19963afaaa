// Package auth carries the acting principal through request contexts. The
// identity itself comes from the auth collaborator's token; the engine only
// performs authorization checks against it.
package auth

import "context"

type contextKey struct{}

type Principal struct {
	UserID int64
	Name   string
	Email  string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

func UserID(ctx context.Context) int64 {
	p, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return p.UserID
}
