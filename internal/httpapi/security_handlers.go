package httpapi

import (
	"net/http"
	"strings"
	"time"

	"gatesphere.dev/internal/auth"
	"gatesphere.dev/internal/society"
)

type createAlertRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Priority    string `json:"priority"`
}

type updateAlertRequest struct {
	Status string `json:"status"`
}

func (a *API) handleAlertsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listAlerts(w, r)
	case http.MethodPost:
		a.createAlert(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAlertResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/security/alert/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	a.updateAlert(w, r, id)
}

func (a *API) listAlerts(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	rows, err := a.store.Alerts().ListBySociety(r.Context(), societyID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.SecurityAlert{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) createAlert(w http.ResponseWriter, r *http.Request) {
	userID, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req createAlertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Type) == "" {
		writeError(w, r, http.StatusBadRequest, "type is required")
		return
	}
	alert := &society.SecurityAlert{
		Type:        strings.TrimSpace(req.Type),
		Description: req.Description,
		Location:    req.Location,
		SocietyID:   societyID,
		TriggeredBy: userID,
		Priority:    strings.TrimSpace(req.Priority),
	}
	if err := a.store.Alerts().Create(r.Context(), alert); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "security.alert", "security_alert", alert.ID,
		nil, map[string]any{"type": alert.Type, "location": alert.Location})

	// Push to on-duty admins and guards immediately.
	if a.relay != nil {
		a.relay.NotifySecurityAlert(alert)
	}
	writeJSON(w, http.StatusCreated, alert)
}

func (a *API) updateAlert(w http.ResponseWriter, r *http.Request, id string) {
	userID, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if !auth.HasRole(r.Context(), society.RoleAdmin) && !auth.HasRole(r.Context(), society.RoleGuard) {
		writeError(w, r, http.StatusForbidden, "admin or guard role required")
		return
	}
	var req updateAlertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	alert, err := a.store.Alerts().Find(r.Context(), societyID, id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	now := time.Now().UTC()
	from := alert.Status
	switch society.AlertStatus(req.Status) {
	case society.AlertAcknowledged:
		if alert.Status != society.AlertActive {
			writeError(w, r, http.StatusBadRequest, "only active alerts can be acknowledged")
			return
		}
		alert.Status = society.AlertAcknowledged
		alert.AcknowledgedBy = userID
		alert.AcknowledgedAt = &now
	case society.AlertResolved:
		if alert.Status == society.AlertResolved {
			writeError(w, r, http.StatusBadRequest, "alert already resolved")
			return
		}
		alert.Status = society.AlertResolved
		alert.ResolvedAt = &now
	default:
		writeError(w, r, http.StatusBadRequest, "status must be acknowledged or resolved")
		return
	}
	if err := a.store.Alerts().Update(r.Context(), alert); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "security.alert.update", "security_alert", alert.ID,
		map[string]any{"status": string(from)},
		map[string]any{"status": string(alert.Status)})

	writeJSON(w, http.StatusOK, alert)
}
