// Package store defines the persistence surface for society-scoped entities.
// Implementations: Memory (in-process, tests and DSN-less development) and
// pg.Store (PostgreSQL).
package store

import (
	"context"
	"time"

	"gatesphere.dev/internal/society"
)

// Store exposes one sub-store per aggregate. All reads and writes are scoped
// by society id; a lookup whose row belongs to another society reports
// society.ErrNotFound so cross-tenant probing is indistinguishable from a
// missing row.
type Store interface {
	Societies() SocietyStore
	Users() UserStore
	Flats() FlatStore
	Visitors() VisitorStore
	Staff() StaffStore
	Complaints() ComplaintStore
	Announcements() AnnouncementStore
	Finance() FinanceStore
	Amenities() AmenityStore
	Documents() DocumentStore
	Messages() MessageStore
	Alerts() AlertStore
	Audit() AuditStore
	Inventory() InventoryStore
}

// SocietyStore manages tenants.
type SocietyStore interface {
	Create(ctx context.Context, s *society.Society) error
	Find(ctx context.Context, id string) (*society.Society, error)
}

// UserStore manages members.
type UserStore interface {
	Create(ctx context.Context, u *society.User) error
	Find(ctx context.Context, id string) (*society.User, error)
	FindByUsername(ctx context.Context, username string) (*society.User, error)
	ListBySociety(ctx context.Context, societyID string) ([]*society.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// FlatStore manages housing units.
type FlatStore interface {
	Create(ctx context.Context, f *society.Flat) error
	Find(ctx context.Context, societyID, id string) (*society.Flat, error)
	ListBySociety(ctx context.Context, societyID string) ([]*society.Flat, error)
}

// VisitorFilter narrows visitor listings.
type VisitorFilter struct {
	Status society.VisitorStatus
	Date   *time.Time // calendar day, society-local
}

// VisitorStore manages gate passes.
type VisitorStore interface {
	Create(ctx context.Context, v *society.Visitor) error
	Find(ctx context.Context, societyID, id string) (*society.Visitor, error)
	ListBySociety(ctx context.Context, societyID string, filter VisitorFilter) ([]*society.Visitor, error)
	Update(ctx context.Context, v *society.Visitor) error
	// UpdateStatus persists v only if the stored row still carries status
	// from; otherwise it reports society.ErrInvalidTransition. This is the
	// compare-and-set that serializes concurrent status updates.
	UpdateStatus(ctx context.Context, v *society.Visitor, from society.VisitorStatus) error
}

// StaffStore manages workers and their attendance.
type StaffStore interface {
	Create(ctx context.Context, s *society.Staff) error
	Find(ctx context.Context, societyID, id string) (*society.Staff, error)
	ListBySociety(ctx context.Context, societyID string) ([]*society.Staff, error)
	// MarkAttendance upserts the staff member's record for the given date.
	MarkAttendance(ctx context.Context, a *society.StaffAttendance) error
	ListAttendance(ctx context.Context, societyID string, date time.Time) ([]*society.StaffAttendance, error)
}

// ComplaintFilter narrows complaint listings.
type ComplaintFilter struct {
	Status   society.ComplaintStatus
	Category string
}

// ComplaintStore manages complaints.
type ComplaintStore interface {
	Create(ctx context.Context, c *society.Complaint) error
	Find(ctx context.Context, societyID, id string) (*society.Complaint, error)
	ListBySociety(ctx context.Context, societyID string, filter ComplaintFilter) ([]*society.Complaint, error)
	Update(ctx context.Context, c *society.Complaint) error
	// UpdateStatus is the complaint counterpart of VisitorStore.UpdateStatus.
	UpdateStatus(ctx context.Context, c *society.Complaint, from society.ComplaintStatus) error
}

// AnnouncementStore manages society-wide notices.
type AnnouncementStore interface {
	Create(ctx context.Context, a *society.Announcement) error
	ListBySociety(ctx context.Context, societyID string) ([]*society.Announcement, error)
}

// BillFilter narrows maintenance bill listings.
type BillFilter struct {
	Status society.PaymentStatus
	Month  int
	Year   int
}

// FinanceStore manages bills and expenses.
type FinanceStore interface {
	CreateBill(ctx context.Context, b *society.MaintenanceBill) error
	ListBills(ctx context.Context, societyID string, filter BillFilter) ([]*society.MaintenanceBill, error)
	CreateExpense(ctx context.Context, e *society.Expense) error
	ListExpenses(ctx context.Context, societyID, category string) ([]*society.Expense, error)
}

// AmenityStore manages amenities and bookings.
type AmenityStore interface {
	Create(ctx context.Context, a *society.Amenity) error
	ListBySociety(ctx context.Context, societyID string) ([]*society.Amenity, error)
	CreateBooking(ctx context.Context, b *society.AmenityBooking) error
	ListBookings(ctx context.Context, societyID, status string) ([]*society.AmenityBooking, error)
}

// DocumentStore manages shared documents.
type DocumentStore interface {
	Create(ctx context.Context, d *society.Document) error
	ListBySociety(ctx context.Context, societyID, category string) ([]*society.Document, error)
}

// MessageStore manages immutable messages.
type MessageStore interface {
	Create(ctx context.Context, m *society.Message) error
	// ListBetween returns the conversation between two users in either
	// direction, oldest first.
	ListBetween(ctx context.Context, societyID, userA, userB string) ([]*society.Message, error)
}

// AlertStore manages security alerts.
type AlertStore interface {
	Create(ctx context.Context, a *society.SecurityAlert) error
	Find(ctx context.Context, societyID, id string) (*society.SecurityAlert, error)
	Update(ctx context.Context, a *society.SecurityAlert) error
	ListBySociety(ctx context.Context, societyID string) ([]*society.SecurityAlert, error)
}

// AuditStore appends immutable entries. There is no update or delete.
type AuditStore interface {
	Append(ctx context.Context, entry *society.AuditLog) error
	ListBySociety(ctx context.Context, societyID string, limit int) ([]*society.AuditLog, error)
}

// InventoryStore manages society assets.
type InventoryStore interface {
	Create(ctx context.Context, i *society.InventoryItem) error
	ListBySociety(ctx context.Context, societyID string) ([]*society.InventoryItem, error)
}
