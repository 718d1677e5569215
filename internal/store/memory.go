package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gatesphere.dev/internal/ids"
	"gatesphere.dev/internal/society"
)

// Memory implements Store with in-process concurrency safety. Rows are copied
// on the way in and out so callers never share pointers with the store.
type Memory struct {
	mu sync.RWMutex

	societies  map[string]society.Society
	users      map[string]society.User
	flats      map[string]society.Flat
	visitors   map[string]society.Visitor
	staff      map[string]society.Staff
	attendance map[string]society.StaffAttendance
	complaints map[string]society.Complaint
	notices    map[string]society.Announcement
	bills      map[string]society.MaintenanceBill
	expenses   map[string]society.Expense
	amenities  map[string]society.Amenity
	bookings   map[string]society.AmenityBooking
	documents  map[string]society.Document
	messages   map[string]society.Message
	alerts     map[string]society.SecurityAlert
	audit      []society.AuditLog
	inventory  map[string]society.InventoryItem
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		societies:  make(map[string]society.Society),
		users:      make(map[string]society.User),
		flats:      make(map[string]society.Flat),
		visitors:   make(map[string]society.Visitor),
		staff:      make(map[string]society.Staff),
		attendance: make(map[string]society.StaffAttendance),
		complaints: make(map[string]society.Complaint),
		notices:    make(map[string]society.Announcement),
		bills:      make(map[string]society.MaintenanceBill),
		expenses:   make(map[string]society.Expense),
		amenities:  make(map[string]society.Amenity),
		bookings:   make(map[string]society.AmenityBooking),
		documents:  make(map[string]society.Document),
		messages:   make(map[string]society.Message),
		alerts:     make(map[string]society.SecurityAlert),
		inventory:  make(map[string]society.InventoryItem),
	}
}

func (m *Memory) Societies() SocietyStore         { return memSocieties{m} }
func (m *Memory) Users() UserStore                { return memUsers{m} }
func (m *Memory) Flats() FlatStore                { return memFlats{m} }
func (m *Memory) Visitors() VisitorStore          { return memVisitors{m} }
func (m *Memory) Staff() StaffStore               { return memStaff{m} }
func (m *Memory) Complaints() ComplaintStore      { return memComplaints{m} }
func (m *Memory) Announcements() AnnouncementStore { return memAnnouncements{m} }
func (m *Memory) Finance() FinanceStore           { return memFinance{m} }
func (m *Memory) Amenities() AmenityStore         { return memAmenities{m} }
func (m *Memory) Documents() DocumentStore        { return memDocuments{m} }
func (m *Memory) Messages() MessageStore          { return memMessages{m} }
func (m *Memory) Alerts() AlertStore              { return memAlerts{m} }
func (m *Memory) Audit() AuditStore               { return memAudit{m} }
func (m *Memory) Inventory() InventoryStore       { return memInventory{m} }

func stamp(id *string, created *time.Time, updated *time.Time) {
	if *id == "" {
		*id = ids.New()
	}
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated != nil && updated.IsZero() {
		*updated = now
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// --- societies ---

type memSocieties struct{ m *Memory }

func (s memSocieties) Create(ctx context.Context, row *society.Society) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	s.m.societies[row.ID] = *row
	return nil
}

func (s memSocieties) Find(ctx context.Context, id string) (*society.Society, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	row, ok := s.m.societies[id]
	if !ok {
		return nil, society.ErrNotFound
	}
	out := row
	return &out, nil
}

// --- users ---

type memUsers struct{ m *Memory }

func (s memUsers) Create(ctx context.Context, row *society.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Username == row.Username {
			return society.ErrInvalidInput
		}
	}
	stamp(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	s.m.users[row.ID] = *row
	return nil
}

func (s memUsers) Find(ctx context.Context, id string) (*society.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	row, ok := s.m.users[id]
	if !ok {
		return nil, society.ErrNotFound
	}
	out := row
	return &out, nil
}

func (s memUsers) FindByUsername(ctx context.Context, username string) (*society.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	for _, u := range s.m.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, society.ErrNotFound
}

func (s memUsers) ListBySociety(ctx context.Context, societyID string) ([]*society.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.User
	for _, u := range s.m.users {
		if u.SocietyID == societyID {
			row := u
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s memUsers) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	row, ok := s.m.users[id]
	if !ok {
		return society.ErrNotFound
	}
	row.LastLogin = at
	row.UpdatedAt = at
	s.m.users[id] = row
	return nil
}

// --- flats ---

type memFlats struct{ m *Memory }

func (s memFlats) Create(ctx context.Context, row *society.Flat) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, nil)
	s.m.flats[row.ID] = *row
	return nil
}

func (s memFlats) Find(ctx context.Context, societyID, id string) (*society.Flat, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	row, ok := s.m.flats[id]
	if !ok || row.SocietyID != societyID {
		return nil, society.ErrNotFound
	}
	out := row
	return &out, nil
}

func (s memFlats) ListBySociety(ctx context.Context, societyID string) ([]*society.Flat, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.Flat
	for _, f := range s.m.flats {
		if f.SocietyID == societyID {
			row := f
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FlatNumber < out[j].FlatNumber })
	return out, nil
}

// --- visitors ---

type memVisitors struct{ m *Memory }

func (s memVisitors) Create(ctx context.Context, row *society.Visitor) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if row.Status == "" {
		row.Status = society.VisitorPending
	}
	s.m.visitors[row.ID] = *row
	return nil
}

func (s memVisitors) Find(ctx context.Context, societyID, id string) (*society.Visitor, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	row, ok := s.m.visitors[id]
	if !ok || row.SocietyID != societyID {
		return nil, society.ErrNotFound
	}
	out := row
	return &out, nil
}

func (s memVisitors) ListBySociety(ctx context.Context, societyID string, filter VisitorFilter) ([]*society.Visitor, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.Visitor
	for _, v := range s.m.visitors {
		if v.SocietyID != societyID {
			continue
		}
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if filter.Date != nil && !sameDay(v.CreatedAt, *filter.Date) {
			continue
		}
		row := v
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s memVisitors) Update(ctx context.Context, row *society.Visitor) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cur, ok := s.m.visitors[row.ID]
	if !ok || cur.SocietyID != row.SocietyID {
		return society.ErrNotFound
	}
	row.UpdatedAt = time.Now().UTC()
	s.m.visitors[row.ID] = *row
	return nil
}

func (s memVisitors) UpdateStatus(ctx context.Context, row *society.Visitor, from society.VisitorStatus) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cur, ok := s.m.visitors[row.ID]
	if !ok || cur.SocietyID != row.SocietyID {
		return society.ErrNotFound
	}
	if cur.Status != from {
		return society.ErrInvalidTransition
	}
	s.m.visitors[row.ID] = *row
	return nil
}

// --- staff ---

type memStaff struct{ m *Memory }

func (s memStaff) Create(ctx context.Context, row *society.Staff) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	s.m.staff[row.ID] = *row
	return nil
}

func (s memStaff) Find(ctx context.Context, societyID, id string) (*society.Staff, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	row, ok := s.m.staff[id]
	if !ok || row.SocietyID != societyID {
		return nil, society.ErrNotFound
	}
	out := row
	return &out, nil
}

func (s memStaff) ListBySociety(ctx context.Context, societyID string) ([]*society.Staff, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.Staff
	for _, st := range s.m.staff {
		if st.SocietyID == societyID {
			row := st
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s memStaff) MarkAttendance(ctx context.Context, a *society.StaffAttendance) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.staff[a.StaffID]; !ok {
		return society.ErrNotFound
	}
	for id, existing := range s.m.attendance {
		if existing.StaffID == a.StaffID && sameDay(existing.Date, a.Date) {
			existing.Status = a.Status
			existing.CheckInTime = a.CheckInTime
			existing.CheckOutTime = a.CheckOutTime
			s.m.attendance[id] = existing
			*a = existing
			return nil
		}
	}
	stamp(&a.ID, &a.CreatedAt, nil)
	s.m.attendance[a.ID] = *a
	return nil
}

func (s memStaff) ListAttendance(ctx context.Context, societyID string, date time.Time) ([]*society.StaffAttendance, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.StaffAttendance
	for _, a := range s.m.attendance {
		if a.SocietyID == societyID && sameDay(a.Date, date) {
			row := a
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StaffID < out[j].StaffID })
	return out, nil
}

// --- complaints ---

type memComplaints struct{ m *Memory }

func (s memComplaints) Create(ctx context.Context, row *society.Complaint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if row.Status == "" {
		row.Status = society.ComplaintOpen
	}
	if row.Priority == "" {
		row.Priority = society.PriorityMedium
	}
	s.m.complaints[row.ID] = *row
	return nil
}

func (s memComplaints) Find(ctx context.Context, societyID, id string) (*society.Complaint, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	row, ok := s.m.complaints[id]
	if !ok || row.SocietyID != societyID {
		return nil, society.ErrNotFound
	}
	out := row
	return &out, nil
}

func (s memComplaints) ListBySociety(ctx context.Context, societyID string, filter ComplaintFilter) ([]*society.Complaint, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.Complaint
	for _, c := range s.m.complaints {
		if c.SocietyID != societyID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(c.Category, filter.Category) {
			continue
		}
		row := c
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s memComplaints) Update(ctx context.Context, row *society.Complaint) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cur, ok := s.m.complaints[row.ID]
	if !ok || cur.SocietyID != row.SocietyID {
		return society.ErrNotFound
	}
	row.UpdatedAt = time.Now().UTC()
	s.m.complaints[row.ID] = *row
	return nil
}

func (s memComplaints) UpdateStatus(ctx context.Context, row *society.Complaint, from society.ComplaintStatus) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cur, ok := s.m.complaints[row.ID]
	if !ok || cur.SocietyID != row.SocietyID {
		return society.ErrNotFound
	}
	if cur.Status != from {
		return society.ErrInvalidTransition
	}
	s.m.complaints[row.ID] = *row
	return nil
}

// --- announcements ---

type memAnnouncements struct{ m *Memory }

func (s memAnnouncements) Create(ctx context.Context, row *society.Announcement) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	row.IsActive = true
	s.m.notices[row.ID] = *row
	return nil
}

func (s memAnnouncements) ListBySociety(ctx context.Context, societyID string) ([]*society.Announcement, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.Announcement
	for _, a := range s.m.notices {
		if a.SocietyID == societyID && a.IsActive {
			row := a
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- finance ---

type memFinance struct{ m *Memory }

func (s memFinance) CreateBill(ctx context.Context, row *society.MaintenanceBill) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if row.Status == "" {
		row.Status = society.PaymentPending
	}
	s.m.bills[row.ID] = *row
	return nil
}

func (s memFinance) ListBills(ctx context.Context, societyID string, filter BillFilter) ([]*society.MaintenanceBill, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.MaintenanceBill
	for _, b := range s.m.bills {
		if b.SocietyID != societyID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.Month != 0 && (b.Month != filter.Month || b.Year != filter.Year) {
			continue
		}
		row := b
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s memFinance) CreateExpense(ctx context.Context, row *society.Expense) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, nil)
	s.m.expenses[row.ID] = *row
	return nil
}

func (s memFinance) ListExpenses(ctx context.Context, societyID, category string) ([]*society.Expense, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.Expense
	for _, e := range s.m.expenses {
		if e.SocietyID != societyID {
			continue
		}
		if category != "" && !strings.EqualFold(e.Category, category) {
			continue
		}
		row := e
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- amenities ---

type memAmenities struct{ m *Memory }

func (s memAmenities) Create(ctx context.Context, row *society.Amenity) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, nil)
	row.IsActive = true
	s.m.amenities[row.ID] = *row
	return nil
}

func (s memAmenities) ListBySociety(ctx context.Context, societyID string) ([]*society.Amenity, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.Amenity
	for _, a := range s.m.amenities {
		if a.SocietyID == societyID && a.IsActive {
			row := a
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s memAmenities) CreateBooking(ctx context.Context, row *society.AmenityBooking) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if a, ok := s.m.amenities[row.AmenityID]; !ok || a.SocietyID != row.SocietyID {
		return society.ErrNotFound
	}
	stamp(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if row.Status == "" {
		row.Status = "confirmed"
	}
	if row.PaymentStatus == "" {
		row.PaymentStatus = society.PaymentPending
	}
	s.m.bookings[row.ID] = *row
	return nil
}

func (s memAmenities) ListBookings(ctx context.Context, societyID, status string) ([]*society.AmenityBooking, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.AmenityBooking
	for _, b := range s.m.bookings {
		if b.SocietyID != societyID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		row := b
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- documents ---

type memDocuments struct{ m *Memory }

func (s memDocuments) Create(ctx context.Context, row *society.Document) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, nil)
	row.IsActive = true
	s.m.documents[row.ID] = *row
	return nil
}

func (s memDocuments) ListBySociety(ctx context.Context, societyID, category string) ([]*society.Document, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.Document
	for _, d := range s.m.documents {
		if d.SocietyID != societyID || !d.IsActive {
			continue
		}
		if category != "" && category != "all" && !strings.EqualFold(d.Category, category) {
			continue
		}
		row := d
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- messages ---

type memMessages struct{ m *Memory }

func (s memMessages) Create(ctx context.Context, row *society.Message) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, nil)
	if row.MessageType == "" {
		row.MessageType = "text"
	}
	row.IsGroupMessage = row.ReceiverID == ""
	s.m.messages[row.ID] = *row
	return nil
}

func (s memMessages) ListBetween(ctx context.Context, societyID, userA, userB string) ([]*society.Message, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.Message
	for _, msg := range s.m.messages {
		if msg.SocietyID != societyID {
			continue
		}
		direct := (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA)
		if !direct {
			continue
		}
		row := msg
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- alerts ---

type memAlerts struct{ m *Memory }

func (s memAlerts) Create(ctx context.Context, row *society.SecurityAlert) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, nil)
	if row.Status == "" {
		row.Status = society.AlertActive
	}
	if row.Priority == "" {
		row.Priority = "high"
	}
	s.m.alerts[row.ID] = *row
	return nil
}

func (s memAlerts) Find(ctx context.Context, societyID, id string) (*society.SecurityAlert, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	row, ok := s.m.alerts[id]
	if !ok || row.SocietyID != societyID {
		return nil, society.ErrNotFound
	}
	out := row
	return &out, nil
}

func (s memAlerts) Update(ctx context.Context, row *society.SecurityAlert) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cur, ok := s.m.alerts[row.ID]
	if !ok || cur.SocietyID != row.SocietyID {
		return society.ErrNotFound
	}
	s.m.alerts[row.ID] = *row
	return nil
}

func (s memAlerts) ListBySociety(ctx context.Context, societyID string) ([]*society.SecurityAlert, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.SecurityAlert
	for _, a := range s.m.alerts {
		if a.SocietyID == societyID {
			row := a
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- audit ---

type memAudit struct{ m *Memory }

func (s memAudit) Append(ctx context.Context, entry *society.AuditLog) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&entry.ID, &entry.CreatedAt, nil)
	s.m.audit = append(s.m.audit, *entry)
	return nil
}

func (s memAudit) ListBySociety(ctx context.Context, societyID string, limit int) ([]*society.AuditLog, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	var out []*society.AuditLog
	for i := len(s.m.audit) - 1; i >= 0 && len(out) < limit; i-- {
		if s.m.audit[i].SocietyID != societyID {
			continue
		}
		row := s.m.audit[i]
		out = append(out, &row)
	}
	return out, nil
}

// --- inventory ---

type memInventory struct{ m *Memory }

func (s memInventory) Create(ctx context.Context, row *society.InventoryItem) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamp(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	row.IsActive = true
	s.m.inventory[row.ID] = *row
	return nil
}

func (s memInventory) ListBySociety(ctx context.Context, societyID string) ([]*society.InventoryItem, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []*society.InventoryItem
	for _, item := range s.m.inventory {
		if item.SocietyID == societyID && item.IsActive {
			row := item
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
