// Package auth extracts user identity from the headers set by the
// gateway's forwardAuth middleware and enforces role or permission
// checks on HTTP handlers. The auth service's /verify endpoint decodes
// the JWT once at the edge and stamps:
//
//	X-User-Id     the authenticated user's ID
//	X-User-Email  the user's email
//	X-User-Roles  comma-separated roles
//
// Handlers behind these middlewares trust those headers; nothing here
// parses tokens.
package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"amptimal.dev/svc/errors"
)

// ErrNotAuthenticated is returned by [FromRequest] when the identity
// headers are missing.
var ErrNotAuthenticated = errors.New("auth: not authenticated")

// User is the authenticated identity extracted from forwardAuth
// headers.
type User struct {
	ID    string
	Email string
	Roles []string
}

// HasRole reports whether the user has the given role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether any of the user's roles grant the
// permission. The admin role always has every permission; other roles
// resolve through the mapping installed with [SetRolePermissions].
func (u User) HasPermission(permission string) bool {
	if u.HasRole("admin") {
		return true
	}
	rolePermsMu.RLock()
	defer rolePermsMu.RUnlock()
	for _, role := range u.Roles {
		if rolePerms[role][permission] {
			return true
		}
	}
	return false
}

var (
	rolePermsMu sync.RWMutex
	rolePerms   map[string]map[string]bool
)

// SetRolePermissions installs the role to permission mapping used by
// permission checks, typically loaded from the shared contracts
// package at startup. Without it, role checks still work but only the
// admin role passes permission checks.
func SetRolePermissions(mapping map[string][]string) {
	perms := make(map[string]map[string]bool, len(mapping))
	for role, list := range mapping {
		set := make(map[string]bool, len(list))
		for _, p := range list {
			set[p] = true
		}
		perms[role] = set
	}
	rolePermsMu.Lock()
	rolePerms = perms
	rolePermsMu.Unlock()
}

// FromRequest extracts the authenticated user from the forwardAuth
// headers. It returns [ErrNotAuthenticated] when X-User-Id is missing
// or empty.
func FromRequest(r *http.Request) (User, error) {
	id := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if id == "" {
		return User{}, ErrNotAuthenticated
	}

	var roles []string
	for _, role := range strings.Split(r.Header.Get("X-User-Roles"), ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return User{
		ID:    id,
		Email: strings.TrimSpace(r.Header.Get("X-User-Email")),
		Roles: roles,
	}, nil
}

type contextKey struct{}

// UserFromContext returns the user stashed by the middlewares.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(contextKey{}).(User)
	return u, ok
}

// RequireRole wraps next so that only users holding at least one of the
// given roles (or admin) reach it. Unauthenticated requests get 401,
// unauthorized ones 403. The user is available downstream via
// [UserFromContext].
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return requireFunc(func(u User) bool {
		if u.HasRole("admin") {
			return true
		}
		for _, role := range roles {
			if u.HasRole(role) {
				return true
			}
		}
		return false
	})
}

// RequirePermission wraps next so that only users whose roles grant all
// of the given permissions reach it. Admin always passes.
func RequirePermission(permissions ...string) func(http.Handler) http.Handler {
	return requireFunc(func(u User) bool {
		for _, p := range permissions {
			if !u.HasPermission(p) {
				return false
			}
		}
		return true
	})
}

func requireFunc(authorized func(User) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := FromRequest(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			if !authorized(user) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), contextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
