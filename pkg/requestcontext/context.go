// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are typically set by middleware but consumed by services. Keeping
// this package free of net/http dependencies means services import only what
// they need.
//
// Usage in services (read values):
//
//	providerID := requestcontext.ProviderID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithProviderID(ctx, providerID)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	providerIDKey  struct{}
	customerIDKey  struct{}
	roleKey        struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyProviderID  = providerIDKey{}
	ContextKeyCustomerID  = customerIDKey{}
	ContextKeyRole        = roleKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Role labels the authenticated principal kind.
type Role string

const (
	RoleProvider Role = "provider"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// ProviderID retrieves the authenticated provider ID from the context.
// Returns the zero value if not set.
func ProviderID(ctx context.Context) id.ProviderID {
	if v, ok := ctx.Value(ContextKeyProviderID).(id.ProviderID); ok {
		return v
	}
	return id.ProviderID{}
}

// WithProviderID injects a provider ID into the context.
func WithProviderID(ctx context.Context, providerID id.ProviderID) context.Context {
	return context.WithValue(ctx, ContextKeyProviderID, providerID)
}

// CustomerID retrieves the authenticated customer ID from the context.
func CustomerID(ctx context.Context) id.CustomerID {
	if v, ok := ctx.Value(ContextKeyCustomerID).(id.CustomerID); ok {
		return v
	}
	return id.CustomerID{}
}

// WithCustomerID injects a customer ID into the context.
func WithCustomerID(ctx context.Context, customerID id.CustomerID) context.Context {
	return context.WithValue(ctx, ContextKeyCustomerID, customerID)
}

// RoleOf retrieves the authenticated role, empty when unauthenticated.
func RoleOf(ctx context.Context) Role {
	if v, ok := ctx.Value(ContextKeyRole).(Role); ok {
		return v
	}
	return ""
}

// WithRole injects the authenticated role into the context.
func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, ContextKeyRole, role)
}

// RequestID retrieves the request ID, empty string if not set.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now returns the request time when set, falling back to wall-clock time.
// Policy-validity and expiry logic read time through here (or an explicit
// argument) so tests can pin the clock.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return v
	}
	return time.Now()
}

// WithTime pins the request time in the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
