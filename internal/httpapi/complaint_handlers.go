package httpapi

import (
	"net/http"
	"strings"
	"time"

	"gatesphere.dev/internal/auth"
	"gatesphere.dev/internal/society"
	"gatesphere.dev/internal/store"
)

type createComplaintRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	FlatID      string `json:"flat_id"`
	Location    string `json:"location"`
}

type updateComplaintRequest struct {
	Status          string `json:"status"`
	AssignedTo      string `json:"assigned_to"`
	ResolutionNotes string `json:"resolution_notes"`
}

func (a *API) handleComplaintsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listComplaints(w, r)
	case http.MethodPost:
		a.createComplaint(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleComplaintResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/complaints/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getComplaint(w, r, id)
	case http.MethodPatch:
		a.updateComplaint(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) listComplaints(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	filter := store.ComplaintFilter{
		Status:   society.ComplaintStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
	}
	rows, err := a.store.Complaints().ListBySociety(r.Context(), societyID, filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.Complaint{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) createComplaint(w http.ResponseWriter, r *http.Request) {
	userID, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req createComplaintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		writeError(w, r, http.StatusBadRequest, "title and description are required")
		return
	}
	priority := society.ComplaintPriority(strings.TrimSpace(req.Priority))
	switch priority {
	case society.PriorityLow, society.PriorityMedium, society.PriorityHigh, society.PriorityCritical:
	case "":
		priority = society.PriorityMedium
	default:
		writeError(w, r, http.StatusBadRequest, "unknown priority")
		return
	}

	c := &society.Complaint{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Priority:    priority,
		Status:      society.ComplaintOpen,
		FlatID:      req.FlatID,
		SocietyID:   societyID,
		RaisedBy:    userID,
		Location:    req.Location,
	}
	if err := a.store.Complaints().Create(r.Context(), c); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "complaint.create", "complaint", c.ID,
		nil, map[string]any{"status": string(c.Status), "priority": string(c.Priority)})

	w.Header().Set("Location", "/api/complaints/"+c.ID)
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) getComplaint(w http.ResponseWriter, r *http.Request, id string) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	c, err := a.store.Complaints().Find(r.Context(), societyID, id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) updateComplaint(w http.ResponseWriter, r *http.Request, id string) {
	userID, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req updateComplaintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	c, err := a.store.Complaints().Find(r.Context(), societyID, id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	// Assignment and notes without a status change are a plain update.
	if strings.TrimSpace(req.Status) == "" {
		if req.AssignedTo != "" {
			c.AssignedTo = req.AssignedTo
		}
		if req.ResolutionNotes != "" {
			c.ResolutionNotes = req.ResolutionNotes
		}
		if err := a.store.Complaints().Update(r.Context(), c); err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
		return
	}

	role, _ := auth.RoleFromContext(r.Context())
	from := c.Status
	updated, err := society.ApplyComplaintTransition(*c, society.ComplaintStatus(req.Status), role, time.Now().UTC())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if req.AssignedTo != "" {
		updated.AssignedTo = req.AssignedTo
	}
	if req.ResolutionNotes != "" {
		updated.ResolutionNotes = req.ResolutionNotes
	}
	if err := a.store.Complaints().UpdateStatus(r.Context(), &updated, from); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "complaint.status_update", "complaint", updated.ID,
		map[string]any{"status": string(from)},
		map[string]any{"status": string(updated.Status), "updated_by": userID})

	writeJSON(w, http.StatusOK, updated)
}
