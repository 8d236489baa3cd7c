// Package access resolves the caller forwarded by the gateway and decides what
// it may do. Identity is verified upstream; this package only reads it.
package access

import (
	"context"
	"net/http"
	"strings"

	apperrors "clubschedule/pkg/errors"
	httputil "clubschedule/pkg/http"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const (
	CallerIDHeader   = "X-Caller-ID"
	CallerRoleHeader = "X-Caller-Role"
)

type Capability string

const (
	ViewSchedules   Capability = "schedules:view"
	ManageSchedules Capability = "schedules:manage"
	ManageSlots     Capability = "slots:manage"
)

type Caller struct {
	ID   string
	Role string
}

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// CallerID returns the caller id stored in ctx, or "" for internal callers
// such as the event consumer.
func CallerID(ctx context.Context) string {
	c, _ := FromContext(ctx)
	return c.ID
}

func callerFromRequest(r *http.Request) (Caller, bool) {
	id := strings.TrimSpace(r.Header.Get(CallerIDHeader))
	if id == "" {
		return Caller{}, false
	}
	return Caller{
		ID:   id,
		Role: strings.ToLower(strings.TrimSpace(r.Header.Get(CallerRoleHeader))),
	}, true
}

type CapabilityChecker interface {
	Can(caller Caller, capability Capability) bool
}

// RoleChecker grants every capability to admin roles and read access to any
// identified caller.
type RoleChecker struct {
	admin map[string]struct{}
}

func NewRoleChecker(adminRoles []string) *RoleChecker {
	admin := make(map[string]struct{}, len(adminRoles))
	for _, r := range adminRoles {
		admin[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return &RoleChecker{admin: admin}
}

func (c *RoleChecker) Can(caller Caller, capability Capability) bool {
	if caller.ID == "" {
		return false
	}
	if capability == ViewSchedules {
		return true
	}
	_, ok := c.admin[caller.Role]
	return ok
}

// Guard wraps route handlers with a capability check.
type Guard struct {
	checker CapabilityChecker
	log     *logger.Logger
}

func NewGuard(checker CapabilityChecker, log *logger.Logger) *Guard {
	return &Guard{checker: checker, log: log}
}

func (g *Guard) Require(capability Capability, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		caller, ok := callerFromRequest(r)
		if !ok {
			g.reject(w, r, apperrors.Unauthorized("Caller identity is required"))
			return
		}
		if !g.checker.Can(caller, capability) {
			g.log.Warn("Capability denied",
				"request_id", middleware.RequestIDFrom(r.Context()),
				"caller_id", caller.ID,
				"role", caller.Role,
				"capability", capability,
				"path", r.URL.Path,
			)
			g.reject(w, r, apperrors.Forbidden("Caller may not perform this action"))
			return
		}

		next(w, r.WithContext(WithCaller(r.Context(), caller)), ps)
	}
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, appErr *apperrors.AppError) {
	if err := httputil.WriteError(w, appErr); err != nil {
		g.log.Error("failed to write error response", "handler", "Guard", "operation", "WriteError", "path", r.URL.Path, "error", err)
	}
}
