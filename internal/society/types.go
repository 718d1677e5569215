package society

import "time"

// Role identifies what a user may do inside their society.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleResident Role = "resident"
	RoleGuard    Role = "guard"
	RoleAuditor  Role = "auditor"
)

// VisitorStatus is the gate-pass lifecycle state.
type VisitorStatus string

const (
	VisitorPending  VisitorStatus = "pending"
	VisitorApproved VisitorStatus = "approved"
	VisitorInside   VisitorStatus = "inside"
	VisitorExited   VisitorStatus = "exited"
	VisitorBlocked  VisitorStatus = "blocked"
)

// VisitorType classifies who is at the gate.
type VisitorType string

const (
	VisitorGuest    VisitorType = "guest"
	VisitorDelivery VisitorType = "delivery"
	VisitorService  VisitorType = "service"
	VisitorCab      VisitorType = "cab"
	VisitorVendor   VisitorType = "vendor"
	VisitorFamily   VisitorType = "family"
)

// ComplaintStatus is the complaint lifecycle state.
type ComplaintStatus string

const (
	ComplaintOpen       ComplaintStatus = "open"
	ComplaintInProgress ComplaintStatus = "in_progress"
	ComplaintResolved   ComplaintStatus = "resolved"
	ComplaintEscalated  ComplaintStatus = "escalated"
	ComplaintClosed     ComplaintStatus = "closed"
)

// ComplaintPriority orders complaints for triage.
type ComplaintPriority string

const (
	PriorityLow      ComplaintPriority = "low"
	PriorityMedium   ComplaintPriority = "medium"
	PriorityHigh     ComplaintPriority = "high"
	PriorityCritical ComplaintPriority = "critical"
)

// PaymentStatus applies to maintenance bills and amenity bookings.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
	PaymentPartial PaymentStatus = "partial"
)

// StaffCategory groups society workers by duty.
type StaffCategory string

const (
	StaffHousekeeping StaffCategory = "housekeeping"
	StaffSecurity     StaffCategory = "security"
	StaffMaintenance  StaffCategory = "maintenance"
	StaffGardening    StaffCategory = "gardening"
	StaffManagement   StaffCategory = "management"
)

// AlertStatus is the security-alert lifecycle state.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// Society is a tenant: one residential complex. All other rows hang off it.
type Society struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Pincode    string    `json:"pincode"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	TotalFlats int       `json:"total_flats"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Building sits inside a society.
type Building struct {
	ID            string    `json:"id"`
	SocietyID     string    `json:"society_id"`
	Name          string    `json:"name"`
	Floors        int       `json:"floors"`
	FlatsPerFloor int       `json:"flats_per_floor"`
	CreatedAt     time.Time `json:"created_at"`
}

// Flat is a housing unit, linked to an owner and optionally a tenant.
type Flat struct {
	ID                 string    `json:"id"`
	BuildingID         string    `json:"building_id"`
	SocietyID          string    `json:"society_id"`
	FlatNumber         string    `json:"flat_number"`
	Floor              int       `json:"floor"`
	Type               string    `json:"type,omitempty"`
	OwnerID            string    `json:"owner_id,omitempty"`
	TenantID           string    `json:"tenant_id,omitempty"`
	MonthlyMaintenance int64     `json:"monthly_maintenance"` // minor units
	IsOccupied         bool      `json:"is_occupied"`
	ParkingSlots       int       `json:"parking_slots"`
	CreatedAt          time.Time `json:"created_at"`
}

// User is a member of a society (or a platform admin).
type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Password   string    `json:"-"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone"`
	Role       Role      `json:"role"`
	SocietyID  string    `json:"society_id,omitempty"`
	FlatNumber string    `json:"flat_number,omitempty"`
	IsActive   bool      `json:"is_active"`
	LastLogin  time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Visitor is one gate-pass request.
type Visitor struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Phone         string        `json:"phone"`
	VisitorType   VisitorType   `json:"visitor_type"`
	FlatID        string        `json:"flat_id"`
	SocietyID     string        `json:"society_id"`
	Purpose       string        `json:"purpose,omitempty"`
	VehicleNumber string        `json:"vehicle_number,omitempty"`
	PhotoURL      string        `json:"photo_url,omitempty"`
	Status        VisitorStatus `json:"status"`
	ApprovedBy    string        `json:"approved_by,omitempty"`
	CheckInTime   *time.Time    `json:"check_in_time,omitempty"`
	CheckOutTime  *time.Time    `json:"check_out_time,omitempty"`
	QRCode        string        `json:"qr_code,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Staff is an employed worker (not a resident user).
type Staff struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Phone            string        `json:"phone"`
	Category         StaffCategory `json:"category"`
	SocietyID        string        `json:"society_id"`
	ShiftTiming      string        `json:"shift_timing,omitempty"`
	Salary           int64         `json:"salary"` // minor units
	JoiningDate      *time.Time    `json:"joining_date,omitempty"`
	Address          string        `json:"address,omitempty"`
	EmergencyContact string        `json:"emergency_contact,omitempty"`
	IsActive         bool          `json:"is_active"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// StaffAttendance records one staff member's presence on one date.
type StaffAttendance struct {
	ID           string     `json:"id"`
	StaffID      string     `json:"staff_id"`
	SocietyID    string     `json:"society_id"`
	Date         time.Time  `json:"date"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Status       string     `json:"status"` // present, absent, late, half_day
	CreatedAt    time.Time  `json:"created_at"`
}

// Complaint is a resident-raised issue tracked through the complaint lifecycle.
type Complaint struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Category           string            `json:"category"`
	Priority           ComplaintPriority `json:"priority"`
	Status             ComplaintStatus   `json:"status"`
	FlatID             string            `json:"flat_id"`
	SocietyID          string            `json:"society_id"`
	RaisedBy           string            `json:"raised_by"`
	AssignedTo         string            `json:"assigned_to,omitempty"`
	Location           string            `json:"location,omitempty"`
	ResolutionNotes    string            `json:"resolution_notes,omitempty"`
	SatisfactionRating int               `json:"satisfaction_rating,omitempty"` // 1-5
	EscalationLevel    int               `json:"escalation_level"`
	DueDate            *time.Time        `json:"due_date,omitempty"`
	ResolvedAt         *time.Time        `json:"resolved_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Announcement is society-wide communication.
type Announcement struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Type      string     `json:"type"` // emergency, event, general, poll
	Priority  string     `json:"priority"`
	SocietyID string     `json:"society_id"`
	CreatedBy string     `json:"created_by"`
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// MaintenanceBill is a monthly dues invoice for a flat.
type MaintenanceBill struct {
	ID          string        `json:"id"`
	FlatID      string        `json:"flat_id"`
	SocietyID   string        `json:"society_id"`
	Month       int           `json:"month"`
	Year        int           `json:"year"`
	BaseAmount  int64         `json:"base_amount"` // minor units
	LateFee     int64         `json:"late_fee"`
	TotalAmount int64         `json:"total_amount"`
	Status      PaymentStatus `json:"status"`
	DueDate     time.Time     `json:"due_date"`
	PaidDate    *time.Time    `json:"paid_date,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Expense is money the society spent.
type Expense struct {
	ID          string     `json:"id"`
	SocietyID   string     `json:"society_id"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Amount      int64      `json:"amount"` // minor units
	Vendor      string     `json:"vendor,omitempty"`
	BillNumber  string     `json:"bill_number,omitempty"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
	ApprovedBy  string     `json:"approved_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Amenity is a bookable shared facility.
type Amenity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SocietyID   string    `json:"society_id"`
	HourlyRate  int64     `json:"hourly_rate"` // minor units
	Capacity    int       `json:"capacity"`
	Rules       string    `json:"rules,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// AmenityBooking reserves an amenity for a time window.
type AmenityBooking struct {
	ID            string        `json:"id"`
	AmenityID     string        `json:"amenity_id"`
	FlatID        string        `json:"flat_id"`
	SocietyID     string        `json:"society_id"`
	BookedBy      string        `json:"booked_by"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Purpose       string        `json:"purpose,omitempty"`
	Guests        int           `json:"guests"`
	TotalAmount   int64         `json:"total_amount"`
	Status        string        `json:"status"` // confirmed, cancelled, completed
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Document is shared society paperwork.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	FileURL     string    `json:"file_url"`
	FileName    string    `json:"file_name"`
	SocietyID   string    `json:"society_id"`
	UploadedBy  string    `json:"uploaded_by"`
	AccessLevel string    `json:"access_level"` // all, admin
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Message is immutable once created. An empty ReceiverID means a society-wide
// broadcast rather than a direct message.
type Message struct {
	ID             string    `json:"id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id,omitempty"`
	SocietyID      string    `json:"society_id"`
	Content        string    `json:"content"`
	MessageType    string    `json:"message_type"` // text, image, file, voice
	IsRead         bool      `json:"is_read"`
	IsGroupMessage bool      `json:"is_group_message"`
	CreatedAt      time.Time `json:"created_at"`
}

// SecurityAlert is an emergency raised by a member.
type SecurityAlert struct {
	ID             string      `json:"id"`
	Type           string      `json:"type"` // panic, intrusion, fire, medical
	Description    string      `json:"description,omitempty"`
	Location       string      `json:"location,omitempty"`
	SocietyID      string      `json:"society_id"`
	TriggeredBy    string      `json:"triggered_by"`
	Priority       string      `json:"priority"`
	Status         AlertStatus `json:"status"`
	AcknowledgedBy string      `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time  `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// AuditLog is an append-only record of a mutating operation. Never updated,
// never deleted.
type AuditLog struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	SocietyID string         `json:"society_id"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id,omitempty"`
	OldData   map[string]any `json:"old_data,omitempty"`
	NewData   map[string]any `json:"new_data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// InventoryItem is a society-owned asset.
type InventoryItem struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category"`
	SerialNumber string     `json:"serial_number,omitempty"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty"`
	Condition    string     `json:"condition,omitempty"`
	Location     string     `json:"location,omitempty"`
	SocietyID    string     `json:"society_id"`
	AddedBy      string     `json:"added_by"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
