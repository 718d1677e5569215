package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gatesphere.dev/internal/auth"
	"gatesphere.dev/internal/society"
)

type otpSendRequest struct {
	Phone string `json:"phone"`
}

type otpVerifyRequest struct {
	Phone     string `json:"phone"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	SocietyID string `json:"society_id"`
}

func (a *API) handleOTPSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req otpSendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		writeError(w, r, http.StatusBadRequest, "phone is required")
		return
	}
	code, err := a.otp.Issue(phone)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "otp issue failed")
		return
	}
	// No SMS gateway is wired; the code comes back in the response so demo
	// clients can complete the flow.
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "otp sent",
		"otp":     code,
	})
}

func (a *API) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req otpVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" || strings.TrimSpace(req.Code) == "" {
		writeError(w, r, http.StatusBadRequest, "phone and code are required")
		return
	}
	if err := a.otp.Verify(phone, req.Code); err != nil {
		if errors.Is(err, auth.ErrOTPMismatch) {
			writeError(w, r, http.StatusUnauthorized, "invalid or expired otp")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "otp verification failed")
		return
	}

	user, err := a.store.Users().FindByUsername(r.Context(), phone)
	if errors.Is(err, society.ErrNotFound) {
		// First login registers the phone as a resident.
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = phone
		}
		user = &society.User{
			Username:  phone,
			Name:      name,
			Phone:     phone,
			Role:      society.RoleResident,
			SocietyID: strings.TrimSpace(req.SocietyID),
			IsActive:  true,
		}
		if err := a.store.Users().Create(r.Context(), user); err != nil {
			handleDomainError(w, r, err)
			return
		}
		a.recorder.Record(r.Context(), user.SocietyID, "user.register", "user", user.ID,
			nil, map[string]any{"phone": phone})
	} else if err != nil {
		handleDomainError(w, r, err)
		return
	}

	now := time.Now().UTC()
	_ = a.store.Users().TouchLastLogin(r.Context(), user.ID, now)
	user.LastLogin = now

	token, err := auth.GenerateToken(user.ID, user.Role, user.SocietyID, auth.DefaultTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}
