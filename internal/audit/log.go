// Package audit records mutating operations twice: as a JSON log line and as
// an append-only row in the audit store.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gatesphere.dev/internal/auth"
	"gatesphere.dev/internal/obs"
	"gatesphere.dev/internal/society"
	"gatesphere.dev/internal/store"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// requestIDFromContext extracts the audit request id from context if present.
func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit log line enriched with request and user context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": event,
	}
	if rid := requestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if userID, ok := auth.UserIDFromContext(ctx); ok {
		entry["user_id"] = userID
	}
	if len(fields) > 0 {
		copyFields := make(map[string]any, len(fields))
		for k, v := range fields {
			copyFields[k] = v
		}
		entry["fields"] = copyFields
	} else {
		entry["fields"] = map[string]any{}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}

// Recorder couples the log line with a durable audit row. The row write is
// best effort; a storage failure never fails the caller's operation.
type Recorder struct {
	rows store.AuditStore
}

// NewRecorder builds a Recorder writing rows through the given store.
func NewRecorder(rows store.AuditStore) *Recorder {
	return &Recorder{rows: rows}
}

// Record logs the event and appends the corresponding audit row.
func (r *Recorder) Record(ctx context.Context, societyID, action, entity, entityID string, oldData, newData map[string]any) {
	fields := map[string]any{
		"society_id": societyID,
		"entity":     entity,
	}
	if entityID != "" {
		fields["entity_id"] = entityID
	}
	_ = LogEvent(ctx, action, fields)

	if r == nil || r.rows == nil {
		return
	}
	entry := &society.AuditLog{
		SocietyID: societyID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		OldData:   oldData,
		NewData:   newData,
	}
	if userID, ok := auth.UserIDFromContext(ctx); ok {
		entry.UserID = userID
	}
	if err := r.rows.Append(ctx, entry); err != nil {
		_ = LogEvent(ctx, "audit.append_failed", map[string]any{"error": err.Error()})
	}
}
