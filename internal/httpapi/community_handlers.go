package httpapi

import (
	"net/http"
	"strings"
	"time"

	"gatesphere.dev/internal/auth"
	"gatesphere.dev/internal/society"
)

type createAnnouncementRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	ExpiresAt string `json:"expires_at"`
}

func (a *API) handleAnnouncements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listAnnouncements(w, r)
	case http.MethodPost:
		a.createAnnouncement(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	rows, err := a.store.Announcements().ListBySociety(r.Context(), societyID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.Announcement{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) createAnnouncement(w http.ResponseWriter, r *http.Request) {
	userID, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if !auth.HasRole(r.Context(), society.RoleAdmin) {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return
	}
	var req createAnnouncementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, r, http.StatusBadRequest, "title and content are required")
		return
	}
	ann := &society.Announcement{
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Type:      strings.TrimSpace(req.Type),
		Priority:  strings.TrimSpace(req.Priority),
		SocietyID: societyID,
		CreatedBy: userID,
	}
	if ann.Type == "" {
		ann.Type = "general"
	}
	if raw := strings.TrimSpace(req.ExpiresAt); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "expires_at must be RFC3339")
			return
		}
		ann.ExpiresAt = &t
	}
	if err := a.store.Announcements().Create(r.Context(), ann); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "announcement.create", "announcement", ann.ID,
		nil, map[string]any{"type": ann.Type})

	writeJSON(w, http.StatusCreated, ann)
}

type createAmenityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HourlyRate  int64  `json:"hourly_rate"`
	Capacity    int    `json:"capacity"`
	Rules       string `json:"rules"`
}

func (a *API) handleAmenities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listAmenities(w, r)
	case http.MethodPost:
		a.createAmenity(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listAmenities(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	rows, err := a.store.Amenities().ListBySociety(r.Context(), societyID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.Amenity{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) createAmenity(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if !auth.HasRole(r.Context(), society.RoleAdmin) {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return
	}
	var req createAmenityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	am := &society.Amenity{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		SocietyID:   societyID,
		HourlyRate:  req.HourlyRate,
		Capacity:    req.Capacity,
		Rules:       req.Rules,
	}
	if err := a.store.Amenities().Create(r.Context(), am); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, am)
}

type createBookingRequest struct {
	AmenityID string `json:"amenity_id"`
	FlatID    string `json:"flat_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Purpose   string `json:"purpose"`
	Guests    int    `json:"guests"`
}

func (a *API) handleAmenityBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listBookings(w, r)
	case http.MethodPost:
		a.createBooking(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listBookings(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	rows, err := a.store.Amenities().ListBookings(r.Context(), societyID, strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.AmenityBooking{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) createBooking(w http.ResponseWriter, r *http.Request) {
	userID, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req createBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.AmenityID) == "" {
		writeError(w, r, http.StatusBadRequest, "amenity_id is required")
		return
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "start_time must be RFC3339")
		return
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndTime))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "end_time must be RFC3339")
		return
	}
	if !end.After(start) {
		writeError(w, r, http.StatusBadRequest, "end_time must be after start_time")
		return
	}

	b := &society.AmenityBooking{
		AmenityID: req.AmenityID,
		FlatID:    req.FlatID,
		SocietyID: societyID,
		BookedBy:  userID,
		StartTime: start,
		EndTime:   end,
		Purpose:   req.Purpose,
		Guests:    req.Guests,
	}
	if err := a.store.Amenities().CreateBooking(r.Context(), b); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "amenity.book", "amenity_booking", b.ID,
		nil, map[string]any{"amenity_id": b.AmenityID})

	writeJSON(w, http.StatusCreated, b)
}

func (a *API) handleDocuments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	default:
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	rows, err := a.store.Documents().ListBySociety(r.Context(), societyID, strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.Document{}
	}
	// Admin-only documents stay hidden from other roles.
	if !auth.HasRole(r.Context(), society.RoleAdmin) {
		visible := rows[:0]
		for _, d := range rows {
			if d.AccessLevel != "admin" {
				visible = append(visible, d)
			}
		}
		rows = visible
	}
	writeJSON(w, http.StatusOK, rows)
}

type createInventoryRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	SerialNumber string `json:"serial_number"`
	Condition    string `json:"condition"`
	Location     string `json:"location"`
}

func (a *API) handleInventory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listInventory(w, r)
	case http.MethodPost:
		a.createInventoryItem(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listInventory(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	rows, err := a.store.Inventory().ListBySociety(r.Context(), societyID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) createInventoryItem(w http.ResponseWriter, r *http.Request) {
	userID, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if !auth.HasRole(r.Context(), society.RoleAdmin) {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return
	}
	var req createInventoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	item := &society.InventoryItem{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Category:     strings.TrimSpace(req.Category),
		SerialNumber: req.SerialNumber,
		Condition:    req.Condition,
		Location:     req.Location,
		SocietyID:    societyID,
		AddedBy:      userID,
	}
	if err := a.store.Inventory().Create(r.Context(), item); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if !auth.HasRole(r.Context(), society.RoleAdmin) && !auth.HasRole(r.Context(), society.RoleAuditor) {
		writeError(w, r, http.StatusForbidden, "admin or auditor role required")
		return
	}
	limit := parseQueryInt(r.URL.Query().Get("limit"))
	rows, err := a.store.Audit().ListBySociety(r.Context(), societyID, limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.AuditLog{}
	}
	writeJSON(w, http.StatusOK, rows)
}
