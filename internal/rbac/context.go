package rbac

import "context"

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalContextKey{}).(Principal)
	return p
}

// StudentFromContext returns the student principal, if the request has one.
func StudentFromContext(ctx context.Context) (Student, bool) {
	s, ok := PrincipalFromContext(ctx).(Student)
	return s, ok
}

// AdminFromContext returns the admin principal, if the request has one.
func AdminFromContext(ctx context.Context) (Admin, bool) {
	a, ok := PrincipalFromContext(ctx).(Admin)
	return a, ok
}
