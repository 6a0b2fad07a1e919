package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"gcghub.id/internal/auth"
	"gcghub.id/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit
// logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the audit request id from context.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an activity-log entry enriched with request and actor
// context. Login, registration, token refresh and document mutations all
// record through here.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := obs.Logger().Info().
		Str("type", "activity").
		Str("event", event).
		Time("occurred_at", time.Now().UTC())
	if rid := RequestIDFromContext(ctx); rid != "" {
		entry = entry.Str("request_id", rid)
	}
	if identity, ok := auth.IdentityFromContext(ctx); ok {
		entry = entry.Str("actor_id", identity.ID).Str("actor_role", string(identity.Role))
	}
	for k, v := range fields {
		entry = entry.Interface(k, v)
	}
	entry.Msg("activity")
	return nil
}
