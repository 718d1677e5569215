package httpapi

import (
	"net/http"
	"strings"
	"time"

	"gatesphere.dev/internal/auth"
	"gatesphere.dev/internal/society"
)

type createStaffRequest struct {
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Category         string `json:"category"`
	ShiftTiming      string `json:"shift_timing"`
	Salary           int64  `json:"salary"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergency_contact"`
}

type markAttendanceRequest struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

func (a *API) handleStaffCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listStaff(w, r)
	case http.MethodPost:
		a.createStaff(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleStaffResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/staff/")
	if path == "attendance" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listAttendance(w, r)
		return
	}
	if id, found := strings.CutSuffix(path, "/attendance"); found && id != "" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.markAttendance(w, r, id)
		return
	}
	writeError(w, r, http.StatusNotFound, "resource not found")
}

func (a *API) listStaff(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	rows, err := a.store.Staff().ListBySociety(r.Context(), societyID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.Staff{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) createStaff(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if !auth.HasRole(r.Context(), society.RoleAdmin) {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return
	}
	var req createStaffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		writeError(w, r, http.StatusBadRequest, "name and phone are required")
		return
	}
	category := society.StaffCategory(strings.TrimSpace(req.Category))
	switch category {
	case society.StaffHousekeeping, society.StaffSecurity, society.StaffMaintenance,
		society.StaffGardening, society.StaffManagement:
	default:
		writeError(w, r, http.StatusBadRequest, "unknown category")
		return
	}

	st := &society.Staff{
		Name:             strings.TrimSpace(req.Name),
		Phone:            strings.TrimSpace(req.Phone),
		Category:         category,
		SocietyID:        societyID,
		ShiftTiming:      req.ShiftTiming,
		Salary:           req.Salary,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		IsActive:         true,
	}
	if err := a.store.Staff().Create(r.Context(), st); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "staff.create", "staff", st.ID,
		nil, map[string]any{"category": string(st.Category)})

	writeJSON(w, http.StatusCreated, st)
}

func (a *API) markAttendance(w http.ResponseWriter, r *http.Request, staffID string) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req markAttendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	day := time.Now().UTC()
	if raw := strings.TrimSpace(req.Date); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	status := strings.TrimSpace(req.Status)
	switch status {
	case "present", "absent", "late", "half_day":
	default:
		writeError(w, r, http.StatusBadRequest, "unknown attendance status")
		return
	}
	if _, err := a.store.Staff().Find(r.Context(), societyID, staffID); err != nil {
		handleDomainError(w, r, err)
		return
	}

	att := &society.StaffAttendance{
		StaffID:   staffID,
		SocietyID: societyID,
		Date:      day,
		Status:    status,
	}
	if status == "present" || status == "late" || status == "half_day" {
		now := time.Now().UTC()
		att.CheckInTime = &now
	}
	if err := a.store.Staff().MarkAttendance(r.Context(), att); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "staff.attendance", "staff_attendance", att.ID,
		nil, map[string]any{"staff_id": staffID, "status": status})

	writeJSON(w, http.StatusOK, att)
}

func (a *API) listAttendance(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	day := time.Now().UTC()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	rows, err := a.store.Staff().ListAttendance(r.Context(), societyID, day)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.StaffAttendance{}
	}
	writeJSON(w, http.StatusOK, rows)
}
