// Package httpapi is the REST surface plus the WebSocket upgrade endpoint.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"gatesphere.dev/internal/audit"
	"gatesphere.dev/internal/obs"
	"gatesphere.dev/internal/relay"
	"gatesphere.dev/internal/society"
	"gatesphere.dev/internal/store"
)

// ReadyProbe checks the service's dependencies, e.g. a DB ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	store      store.Store
	relay      *relay.Relay
	recorder   *audit.Recorder
	otp        OTPIssuer
	readyProbe ReadyProbe
	version    string
}

// OTPIssuer is the slice of auth.OTPIssuer the login handlers need.
type OTPIssuer interface {
	Issue(phone string) (string, error)
	Verify(phone, code string) error
}

func New(st store.Store, rl *relay.Relay, otp OTPIssuer, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		store:      st,
		relay:      rl,
		recorder:   audit.NewRecorder(st.Audit()),
		otp:        otp,
		readyProbe: rp,
		version:    version,
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// real-time relay
	a.mux.HandleFunc("/ws", a.relay.ServeWS)

	// login
	a.mux.HandleFunc("/api/otp/send", a.handleOTPSend)
	a.mux.HandleFunc("/api/otp/verify", a.handleOTPVerify)

	// society resources
	a.mux.HandleFunc("/api/visitors", a.handleVisitorsCollection)
	a.mux.HandleFunc("/api/visitors/", a.handleVisitorResource)
	a.mux.HandleFunc("/api/staff", a.handleStaffCollection)
	a.mux.HandleFunc("/api/staff/", a.handleStaffResource)
	a.mux.HandleFunc("/api/complaints", a.handleComplaintsCollection)
	a.mux.HandleFunc("/api/complaints/", a.handleComplaintResource)
	a.mux.HandleFunc("/api/announcements", a.handleAnnouncements)
	a.mux.HandleFunc("/api/finance/bills", a.handleBills)
	a.mux.HandleFunc("/api/finance/expenses", a.handleExpenses)
	a.mux.HandleFunc("/api/amenities", a.handleAmenities)
	a.mux.HandleFunc("/api/amenity-bookings", a.handleAmenityBookings)
	a.mux.HandleFunc("/api/documents", a.handleDocuments)
	a.mux.HandleFunc("/api/messages", a.handleMessagesCollection)
	a.mux.HandleFunc("/api/messages/", a.handleMessageConversation)
	a.mux.HandleFunc("/api/security/alert", a.handleAlertsCollection)
	a.mux.HandleFunc("/api/security/alert/", a.handleAlertResource)
	a.mux.HandleFunc("/api/inventory", a.handleInventory)
	a.mux.HandleFunc("/api/audit-logs", a.handleAuditLogs)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 50, 25)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "gatesphere-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleDomainError maps domain sentinels to HTTP statuses.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, society.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, society.ErrInvalidTransition):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, society.ErrForbidden):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, society.ErrNotFound), errors.Is(err, society.ErrTenantMismatch):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
