package relay

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gatesphere.dev/internal/society"
)

// Inbound event types. Frames are flat JSON objects with a mandatory "type".
const (
	EventAuthenticate           = "authenticate"
	EventVisitorApprovalRequest = "visitor_approval_request"
	EventVisitorStatusUpdate    = "visitor_status_update"
	EventEmergencyAlert         = "emergency_alert"
	EventMessage                = "message"
	EventVoiceCallRequest       = "voice_call_request"
	EventVoiceCallResponse      = "voice_call_response"
	EventPing                   = "ping"
)

// Outbound event types.
const (
	EventAuthenticated        = "authenticated"
	EventAuthError            = "auth_error"
	EventError                = "error"
	EventPong                 = "pong"
	EventVisitorStatusUpdated = "visitor_status_updated"
	EventNewMessage           = "new_message"
	EventIncomingVoiceCall    = "incoming_voice_call"
	EventVoiceCallAnswered    = "voice_call_response"
)

var errMalformedFrame = errors.New("malformed frame")

type authenticatePayload struct {
	UserID string `json:"user_id"`
}

func (p authenticatePayload) validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return errors.New("user_id is required")
	}
	return nil
}

type visitorApprovalRequestPayload struct {
	VisitorID string `json:"visitor_id"`
}

func (p visitorApprovalRequestPayload) validate() error {
	if strings.TrimSpace(p.VisitorID) == "" {
		return errors.New("visitor_id is required")
	}
	return nil
}

type visitorStatusUpdatePayload struct {
	VisitorID string                `json:"visitor_id"`
	Status    society.VisitorStatus `json:"status"`
}

func (p visitorStatusUpdatePayload) validate() error {
	if strings.TrimSpace(p.VisitorID) == "" {
		return errors.New("visitor_id is required")
	}
	if p.Status == "" {
		return errors.New("status is required")
	}
	return nil
}

type emergencyAlertPayload struct {
	AlertType   string `json:"alert_type"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

func (p emergencyAlertPayload) validate() error {
	if strings.TrimSpace(p.AlertType) == "" {
		return errors.New("alert_type is required")
	}
	return nil
}

type messagePayload struct {
	ReceiverID  string `json:"receiver_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
}

func (p messagePayload) validate() error {
	if strings.TrimSpace(p.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}

type voiceCallRequestPayload struct {
	ReceiverID string `json:"receiver_id"`
	CallID     string `json:"call_id"`
}

func (p voiceCallRequestPayload) validate() error {
	if strings.TrimSpace(p.ReceiverID) == "" {
		return errors.New("receiver_id is required")
	}
	if strings.TrimSpace(p.CallID) == "" {
		return errors.New("call_id is required")
	}
	return nil
}

type voiceCallResponsePayload struct {
	CallerID string `json:"caller_id"`
	CallID   string `json:"call_id"`
	Accepted bool   `json:"accepted"`
}

func (p voiceCallResponsePayload) validate() error {
	if strings.TrimSpace(p.CallerID) == "" {
		return errors.New("caller_id is required")
	}
	if strings.TrimSpace(p.CallID) == "" {
		return errors.New("call_id is required")
	}
	return nil
}

// eventType peeks at the frame's type tag without decoding the payload.
func eventType(raw []byte) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", errMalformedFrame
	}
	return head.Type, nil
}

// frame builds an outbound envelope with the shared timestamp field.
func frame(eventType string, fields map[string]any) []byte {
	out := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out["type"] = eventType
	out["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(out)
	if err != nil {
		// Only reachable with non-serializable field values.
		data = []byte(`{"type":"error","message":"encode failed"}`)
	}
	return data
}

func errorFrame(message string) []byte {
	return frame(EventError, map[string]any{"message": message})
}
