package httpapi

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gatesphere.dev/internal/auth"
	"gatesphere.dev/internal/society"
	"gatesphere.dev/internal/store"
)

type createVisitorRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	VisitorType   string `json:"visitor_type"`
	FlatID        string `json:"flat_id"`
	Purpose       string `json:"purpose"`
	VehicleNumber string `json:"vehicle_number"`
	Notes         string `json:"notes"`
}

type visitorStatusRequest struct {
	Status string `json:"status"`
}

func (a *API) handleVisitorsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listVisitors(w, r)
	case http.MethodPost:
		a.createVisitor(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleVisitorResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/visitors/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if path == "export" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.exportVisitors(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getVisitor(w, r, path)
	case http.MethodPatch:
		a.updateVisitorStatus(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) listVisitors(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	filter := store.VisitorFilter{
		Status: society.VisitorStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		filter.Date = &day
	}
	rows, err := a.store.Visitors().ListBySociety(r.Context(), societyID, filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.Visitor{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) createVisitor(w http.ResponseWriter, r *http.Request) {
	userID, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req createVisitorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		writeError(w, r, http.StatusBadRequest, "name and phone are required")
		return
	}
	if strings.TrimSpace(req.FlatID) == "" {
		writeError(w, r, http.StatusBadRequest, "flat_id is required")
		return
	}
	vtype := society.VisitorType(strings.TrimSpace(req.VisitorType))
	switch vtype {
	case society.VisitorGuest, society.VisitorDelivery, society.VisitorService,
		society.VisitorCab, society.VisitorVendor, society.VisitorFamily:
	case "":
		vtype = society.VisitorGuest
	default:
		writeError(w, r, http.StatusBadRequest, "unknown visitor_type")
		return
	}
	if _, err := a.store.Flats().Find(r.Context(), societyID, req.FlatID); err != nil {
		handleDomainError(w, r, err)
		return
	}

	v := &society.Visitor{
		Name:          strings.TrimSpace(req.Name),
		Phone:         strings.TrimSpace(req.Phone),
		VisitorType:   vtype,
		FlatID:        req.FlatID,
		SocietyID:     societyID,
		Purpose:       req.Purpose,
		VehicleNumber: req.VehicleNumber,
		Notes:         req.Notes,
		Status:        society.VisitorPending,
	}
	if err := a.store.Visitors().Create(r.Context(), v); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "visitor.create", "visitor", v.ID,
		nil, map[string]any{"status": string(v.Status), "created_by": userID})

	w.Header().Set("Location", "/api/visitors/"+v.ID)
	writeJSON(w, http.StatusCreated, v)
}

func (a *API) getVisitor(w http.ResponseWriter, r *http.Request, id string) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	v, err := a.store.Visitors().Find(r.Context(), societyID, id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) updateVisitorStatus(w http.ResponseWriter, r *http.Request, id string) {
	userID, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req visitorStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	v, err := a.store.Visitors().Find(r.Context(), societyID, id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	from := v.Status
	updated, err := society.ApplyVisitorTransition(*v, society.VisitorStatus(req.Status), userID, time.Now().UTC())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.store.Visitors().UpdateStatus(r.Context(), &updated, from); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "visitor.status_update", "visitor", updated.ID,
		map[string]any{"status": string(from)},
		map[string]any{"status": string(updated.Status)})

	if a.relay != nil {
		a.relay.NotifyVisitorStatus(&updated)
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) exportVisitors(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if !auth.HasRole(r.Context(), society.RoleAdmin) && !auth.HasRole(r.Context(), society.RoleGuard) {
		writeError(w, r, http.StatusForbidden, "admin or guard role required")
		return
	}
	rows, err := a.store.Visitors().ListBySociety(r.Context(), societyID, store.VisitorFilter{})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="visitors.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "name", "phone", "type", "flat_id", "status", "approved_by", "check_in", "check_out", "created_at"})
	for _, v := range rows {
		record := []string{
			v.ID, v.Name, v.Phone, string(v.VisitorType), v.FlatID, string(v.Status),
			v.ApprovedBy, formatTime(v.CheckInTime), formatTime(v.CheckOutTime),
			v.CreatedAt.Format(time.RFC3339),
		}
		_ = cw.Write(record)
	}
	cw.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseQueryInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
