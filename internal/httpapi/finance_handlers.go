package httpapi

import (
	"net/http"
	"strings"
	"time"

	"gatesphere.dev/internal/auth"
	"gatesphere.dev/internal/society"
	"gatesphere.dev/internal/store"
)

type createBillRequest struct {
	FlatID     string `json:"flat_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	BaseAmount int64  `json:"base_amount"`
	LateFee    int64  `json:"late_fee"`
	DueDate    string `json:"due_date"`
}

func (a *API) handleBills(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listBills(w, r)
	case http.MethodPost:
		a.createBill(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listBills(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	filter := store.BillFilter{
		Status: society.PaymentStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		Month:  parseQueryInt(r.URL.Query().Get("month")),
		Year:   parseQueryInt(r.URL.Query().Get("year")),
	}
	rows, err := a.store.Finance().ListBills(r.Context(), societyID, filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.MaintenanceBill{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) createBill(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if !auth.HasRole(r.Context(), society.RoleAdmin) {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return
	}
	var req createBillRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.FlatID) == "" {
		writeError(w, r, http.StatusBadRequest, "flat_id is required")
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, r, http.StatusBadRequest, "month must be 1..12")
		return
	}
	if req.BaseAmount <= 0 {
		writeError(w, r, http.StatusBadRequest, "base_amount must be > 0")
		return
	}
	due, err := time.Parse("2006-01-02", strings.TrimSpace(req.DueDate))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}
	if _, err := a.store.Flats().Find(r.Context(), societyID, req.FlatID); err != nil {
		handleDomainError(w, r, err)
		return
	}

	bill := &society.MaintenanceBill{
		FlatID:      req.FlatID,
		SocietyID:   societyID,
		Month:       req.Month,
		Year:        req.Year,
		BaseAmount:  req.BaseAmount,
		LateFee:     req.LateFee,
		TotalAmount: req.BaseAmount + req.LateFee,
		DueDate:     due,
	}
	if err := a.store.Finance().CreateBill(r.Context(), bill); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "finance.bill.create", "maintenance_bill", bill.ID,
		nil, map[string]any{"flat_id": bill.FlatID, "total_amount": bill.TotalAmount})

	writeJSON(w, http.StatusCreated, bill)
}

type createExpenseRequest struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Vendor      string `json:"vendor"`
	BillNumber  string `json:"bill_number"`
}

func (a *API) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listExpenses(w, r)
	case http.MethodPost:
		a.createExpense(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listExpenses(w http.ResponseWriter, r *http.Request) {
	_, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	rows, err := a.store.Finance().ListExpenses(r.Context(), societyID, strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*society.Expense{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) createExpense(w http.ResponseWriter, r *http.Request) {
	userID, societyID, ok := caller(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if !auth.HasRole(r.Context(), society.RoleAdmin) {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return
	}
	var req createExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		writeError(w, r, http.StatusBadRequest, "category is required")
		return
	}
	if req.Amount <= 0 {
		writeError(w, r, http.StatusBadRequest, "amount must be > 0")
		return
	}
	exp := &society.Expense{
		SocietyID:   societyID,
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		Amount:      req.Amount,
		Vendor:      req.Vendor,
		BillNumber:  req.BillNumber,
		ApprovedBy:  userID,
	}
	if err := a.store.Finance().CreateExpense(r.Context(), exp); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.recorder.Record(r.Context(), societyID, "finance.expense.create", "expense", exp.ID,
		nil, map[string]any{"category": exp.Category, "amount": exp.Amount})

	writeJSON(w, http.StatusCreated, exp)
}
