package httpapi

import (
	"net/http"
	"strings"

	"gatesphere.dev/internal/society"
)

type createMessageRequest struct {
	ReceiverID  string `json:"receiver_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
}

func (a *API) handleMessagesCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	userID, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req createMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, r, http.StatusBadRequest, "content is required")
		return
	}
	msg := &society.Message{
		SenderID:    userID,
		ReceiverID:  strings.TrimSpace(req.ReceiverID),
		SocietyID:   societyID,
		Content:     req.Content,
		MessageType: strings.TrimSpace(req.MessageType),
	}
	if err := a.store.Messages().Create(r.Context(), msg); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "message.send", "message", msg.ID,
		nil, map[string]any{"receiver_id": msg.ReceiverID, "group": msg.IsGroupMessage})

	writeJSON(w, http.StatusCreated, msg)
}

// handleMessageConversation serves GET /api/messages/{userId}: the caller's
// conversation with that user, oldest first.
func (a *API) handleMessageConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	otherID := strings.TrimPrefix(r.URL.Path, "/api/messages/")
	if otherID == "" || strings.Contains(otherID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	userID, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	rows, err := a.store.Messages().ListBetween(r.Context(), societyID, userID, otherID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.Message{}
	}
	writeJSON(w, http.StatusOK, rows)
}
