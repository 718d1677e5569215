package relay

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gatesphere.dev/internal/audit"
	"gatesphere.dev/internal/obs"
	"gatesphere.dev/internal/society"
	"gatesphere.dev/internal/store"
)

const (
	resultOK              = "ok"
	resultRejected        = "rejected"
	resultMalformed       = "malformed"
	resultUnauthenticated = "unauthenticated"
	resultIgnored         = "ignored"
	resultError           = "error"
	resultDropped         = "dropped"
)

// Relay validates inbound events, persists their effects, and fans frames out
// to the right connections. Handlers never panic and never close the
// connection; bad input earns the sender an error frame.
type Relay struct {
	registry *Registry
	store    store.Store
	audit    *audit.Recorder
}

// New wires a relay over the given registry and store.
func New(registry *Registry, st store.Store, recorder *audit.Recorder) *Relay {
	return &Relay{registry: registry, store: st, audit: recorder}
}

// Registry exposes the connection registry for the transport layer.
func (r *Relay) Registry() *Registry { return r.registry }

// HandleFrame processes one inbound frame from the given connection.
func (r *Relay) HandleFrame(ctx context.Context, connID string, raw []byte) {
	client, ok := r.registry.Get(connID)
	if !ok {
		return
	}
	typ, err := eventType(raw)
	if err != nil || typ == "" {
		obs.RelayEvent("unknown", resultMalformed)
		_ = client.Deliver(errorFrame("malformed frame"))
		return
	}

	// Everything except authenticate and ping requires a bound identity.
	switch typ {
	case EventAuthenticate, EventPing:
	default:
		if !client.Authenticated {
			obs.RelayEvent(typ, resultUnauthenticated)
			_ = client.Deliver(errorFrame("authentication required"))
			return
		}
	}

	switch typ {
	case EventAuthenticate:
		r.handleAuthenticate(ctx, client, raw)
	case EventPing:
		obs.RelayEvent(typ, resultOK)
		_ = client.Deliver(frame(EventPong, nil))
	case EventVisitorApprovalRequest:
		r.handleVisitorApprovalRequest(ctx, client, raw)
	case EventVisitorStatusUpdate:
		r.handleVisitorStatusUpdate(ctx, client, raw)
	case EventEmergencyAlert:
		r.handleEmergencyAlert(ctx, client, raw)
	case EventMessage:
		r.handleMessage(ctx, client, raw)
	case EventVoiceCallRequest:
		r.handleVoiceCallRequest(ctx, client, raw)
	case EventVoiceCallResponse:
		r.handleVoiceCallResponse(ctx, client, raw)
	default:
		obs.RelayEvent(typ, resultIgnored)
		obs.LogRequest(map[string]any{
			"ts":    time.Now().UTC().Format(time.RFC3339Nano),
			"level": "warn",
			"msg":   "relay: unrecognized event type",
			"event": typ,
		})
	}
}

func decodePayload[T interface{ validate() error }](raw []byte, client Client, typ string) (T, bool) {
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		obs.RelayEvent(typ, resultMalformed)
		_ = client.Deliver(errorFrame("malformed frame"))
		return payload, false
	}
	if err := payload.validate(); err != nil {
		obs.RelayEvent(typ, resultMalformed)
		_ = client.Deliver(errorFrame(err.Error()))
		return payload, false
	}
	return payload, true
}

func (r *Relay) handleAuthenticate(ctx context.Context, client Client, raw []byte) {
	payload, ok := decodePayload[authenticatePayload](raw, client, EventAuthenticate)
	if !ok {
		return
	}
	user, err := r.store.Users().Find(ctx, payload.UserID)
	if err != nil {
		obs.RelayEvent(EventAuthenticate, resultRejected)
		_ = client.Deliver(frame(EventAuthError, map[string]any{"message": "unknown user"}))
		return
	}
	if err := r.registry.Authenticate(client.ConnID, user); err != nil {
		obs.RelayEvent(EventAuthenticate, resultError)
		return
	}
	obs.RelayEvent(EventAuthenticate, resultOK)
	_ = client.Deliver(frame(EventAuthenticated, map[string]any{"user": user}))
}

func (r *Relay) handleVisitorApprovalRequest(ctx context.Context, client Client, raw []byte) {
	payload, ok := decodePayload[visitorApprovalRequestPayload](raw, client, EventVisitorApprovalRequest)
	if !ok {
		return
	}
	visitor, err := r.store.Visitors().Find(ctx, client.SocietyID, payload.VisitorID)
	if err != nil {
		obs.RelayEvent(EventVisitorApprovalRequest, resultRejected)
		_ = client.Deliver(errorFrame("visitor not found"))
		return
	}
	flat, err := r.store.Flats().Find(ctx, client.SocietyID, visitor.FlatID)
	if err != nil {
		obs.RelayEvent(EventVisitorApprovalRequest, resultRejected)
		_ = client.Deliver(errorFrame("flat not found"))
		return
	}
	obs.RelayEvent(EventVisitorApprovalRequest, resultOK)
	data := frame(EventVisitorApprovalRequest, map[string]any{
		"visitor": visitor,
		"flat":    flat,
	})
	// The approval prompt goes to whoever lives in the flat.
	for _, residentID := range []string{flat.TenantID, flat.OwnerID} {
		if residentID == "" {
			continue
		}
		r.deliver(EventVisitorApprovalRequest, r.registry.ByUser(client.SocietyID, residentID), data)
	}
}

func (r *Relay) handleVisitorStatusUpdate(ctx context.Context, client Client, raw []byte) {
	payload, ok := decodePayload[visitorStatusUpdatePayload](raw, client, EventVisitorStatusUpdate)
	if !ok {
		return
	}
	visitor, err := r.store.Visitors().Find(ctx, client.SocietyID, payload.VisitorID)
	if err != nil {
		obs.RelayEvent(EventVisitorStatusUpdate, resultRejected)
		_ = client.Deliver(errorFrame("visitor not found"))
		return
	}
	from := visitor.Status
	updated, err := society.ApplyVisitorTransition(*visitor, payload.Status, client.UserID, time.Now().UTC())
	if err != nil {
		obs.RelayEvent(EventVisitorStatusUpdate, resultRejected)
		_ = client.Deliver(errorFrame(err.Error()))
		return
	}
	if err := r.store.Visitors().UpdateStatus(ctx, &updated, from); err != nil {
		obs.RelayEvent(EventVisitorStatusUpdate, resultRejected)
		if errors.Is(err, society.ErrInvalidTransition) {
			_ = client.Deliver(errorFrame("visitor status changed concurrently"))
		} else {
			_ = client.Deliver(errorFrame("update failed"))
		}
		return
	}
	r.audit.Record(ctx, client.SocietyID, "visitor.status_update", "visitor", updated.ID,
		map[string]any{"status": string(from)},
		map[string]any{"status": string(updated.Status)})
	obs.RelayEvent(EventVisitorStatusUpdate, resultOK)

	data := frame(EventVisitorStatusUpdated, map[string]any{"visitor": updated})
	r.deliver(EventVisitorStatusUpdated, r.registry.ByRole(client.SocietyID, society.RoleGuard), data)
}

func (r *Relay) handleEmergencyAlert(ctx context.Context, client Client, raw []byte) {
	payload, ok := decodePayload[emergencyAlertPayload](raw, client, EventEmergencyAlert)
	if !ok {
		return
	}
	alert := &society.SecurityAlert{
		Type:        payload.AlertType,
		Description: payload.Description,
		Location:    payload.Location,
		SocietyID:   client.SocietyID,
		TriggeredBy: client.UserID,
	}
	if err := r.store.Alerts().Create(ctx, alert); err != nil {
		obs.RelayEvent(EventEmergencyAlert, resultError)
		_ = client.Deliver(errorFrame("alert not recorded"))
		return
	}
	r.audit.Record(ctx, client.SocietyID, "security.alert", "security_alert", alert.ID,
		nil, map[string]any{"type": alert.Type, "location": alert.Location})
	obs.RelayEvent(EventEmergencyAlert, resultOK)

	data := frame(EventEmergencyAlert, map[string]any{"alert": alert})
	r.deliver(EventEmergencyAlert,
		r.registry.ByRole(client.SocietyID, society.RoleAdmin, society.RoleGuard), data)
}

func (r *Relay) handleMessage(ctx context.Context, client Client, raw []byte) {
	payload, ok := decodePayload[messagePayload](raw, client, EventMessage)
	if !ok {
		return
	}
	msg := &society.Message{
		SenderID:    client.UserID,
		ReceiverID:  payload.ReceiverID,
		SocietyID:   client.SocietyID,
		Content:     payload.Content,
		MessageType: payload.MessageType,
	}
	if err := r.store.Messages().Create(ctx, msg); err != nil {
		obs.RelayEvent(EventMessage, resultError)
		_ = client.Deliver(errorFrame("message not recorded"))
		return
	}
	obs.RelayEvent(EventMessage, resultOK)
	r.audit.Record(ctx, client.SocietyID, "message.send", "message", msg.ID,
		nil, map[string]any{"receiver_id": msg.ReceiverID, "group": msg.IsGroupMessage})

	data := frame(EventNewMessage, map[string]any{"message": msg})
	if msg.ReceiverID == "" {
		// Society broadcast, everyone but the sender.
		r.deliver(EventNewMessage, r.registry.BySociety(client.SocietyID, client.UserID), data)
		return
	}
	r.deliver(EventNewMessage, r.registry.ByUser(client.SocietyID, msg.ReceiverID), data)
}

func (r *Relay) handleVoiceCallRequest(ctx context.Context, client Client, raw []byte) {
	payload, ok := decodePayload[voiceCallRequestPayload](raw, client, EventVoiceCallRequest)
	if !ok {
		return
	}
	callerName := client.UserID
	if caller, err := r.store.Users().Find(ctx, client.UserID); err == nil {
		callerName = caller.Name
	}
	obs.RelayEvent(EventVoiceCallRequest, resultOK)
	data := frame(EventIncomingVoiceCall, map[string]any{
		"caller_id":   client.UserID,
		"caller_name": callerName,
		"call_id":     payload.CallID,
	})
	r.deliver(EventIncomingVoiceCall, r.registry.ByUser(client.SocietyID, payload.ReceiverID), data)
}

func (r *Relay) handleVoiceCallResponse(ctx context.Context, client Client, raw []byte) {
	payload, ok := decodePayload[voiceCallResponsePayload](raw, client, EventVoiceCallResponse)
	if !ok {
		return
	}
	r.audit.Record(ctx, client.SocietyID, "voice_call.response", "voice_call", payload.CallID,
		nil, map[string]any{"accepted": payload.Accepted, "responder_id": client.UserID})
	obs.RelayEvent(EventVoiceCallResponse, resultOK)
	data := frame(EventVoiceCallAnswered, map[string]any{
		"call_id":      payload.CallID,
		"accepted":     payload.Accepted,
		"responder_id": client.UserID,
	})
	r.deliver(EventVoiceCallAnswered, r.registry.ByUser(client.SocietyID, payload.CallerID), data)
}

// NotifyVisitorStatus pushes an already-persisted visitor update to the
// society's guards. Used by the HTTP API after PATCH /api/visitors/{id}.
func (r *Relay) NotifyVisitorStatus(visitor *society.Visitor) {
	data := frame(EventVisitorStatusUpdated, map[string]any{"visitor": visitor})
	r.deliver(EventVisitorStatusUpdated, r.registry.ByRole(visitor.SocietyID, society.RoleGuard), data)
}

// NotifySecurityAlert fans an already-persisted alert out to admins and guards.
func (r *Relay) NotifySecurityAlert(alert *society.SecurityAlert) {
	data := frame(EventEmergencyAlert, map[string]any{"alert": alert})
	r.deliver(EventEmergencyAlert,
		r.registry.ByRole(alert.SocietyID, society.RoleAdmin, society.RoleGuard), data)
}

// deliver is best effort: a failed target is logged and skipped.
func (r *Relay) deliver(eventType string, targets []Client, data []byte) {
	for _, target := range targets {
		if err := target.Deliver(data); err != nil {
			obs.RelayDelivery(eventType, resultDropped)
			obs.LogRequest(map[string]any{
				"ts":      time.Now().UTC().Format(time.RFC3339Nano),
				"level":   "warn",
				"msg":     "relay: delivery failed",
				"event":   eventType,
				"conn_id": target.ConnID,
				"error":   err.Error(),
			})
			continue
		}
		obs.RelayDelivery(eventType, resultOK)
	}
}
