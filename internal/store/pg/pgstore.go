// Package pg implements store.Store on PostgreSQL via database/sql and the
// pgx stdlib driver.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gatesphere.dev/internal/ids"
	"gatesphere.dev/internal/society"
	"gatesphere.dev/internal/store"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle. Used by tests with sqlmock.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Societies() store.SocietyStore          { return pgSocieties{s.db} }
func (s *Store) Users() store.UserStore                 { return pgUsers{s.db} }
func (s *Store) Flats() store.FlatStore                 { return pgFlats{s.db} }
func (s *Store) Visitors() store.VisitorStore           { return pgVisitors{s.db} }
func (s *Store) Staff() store.StaffStore                { return pgStaff{s.db} }
func (s *Store) Complaints() store.ComplaintStore       { return pgComplaints{s.db} }
func (s *Store) Announcements() store.AnnouncementStore { return pgAnnouncements{s.db} }
func (s *Store) Finance() store.FinanceStore            { return pgFinance{s.db} }
func (s *Store) Amenities() store.AmenityStore          { return pgAmenities{s.db} }
func (s *Store) Documents() store.DocumentStore         { return pgDocuments{s.db} }
func (s *Store) Messages() store.MessageStore           { return pgMessages{s.db} }
func (s *Store) Alerts() store.AlertStore               { return pgAlerts{s.db} }
func (s *Store) Audit() store.AuditStore                { return pgAudit{s.db} }
func (s *Store) Inventory() store.InventoryStore        { return pgInventory{s.db} }

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func prep(id *string, created *time.Time, updated *time.Time) {
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

// --- societies ---

type pgSocieties struct{ db *sql.DB }

func (s pgSocieties) Create(ctx context.Context, row *society.Society) error {
	prep(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	_, err := s.db.ExecContext(ctx, `
		insert into societies(id, name, address, city, state, pincode, phone, email, total_flats, is_active, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, row.ID, row.Name, row.Address, row.City, row.State, row.Pincode, row.Phone, row.Email, row.TotalFlats, row.IsActive, row.CreatedAt, row.UpdatedAt)
	return err
}

func (s pgSocieties) Find(ctx context.Context, id string) (*society.Society, error) {
	row := &society.Society{}
	err := s.db.QueryRowContext(ctx, `
		select id, name, address, city, state, pincode, phone, email, total_flats, is_active, created_at, updated_at
		from societies where id=$1
	`, id).Scan(&row.ID, &row.Name, &row.Address, &row.City, &row.State, &row.Pincode,
		&row.Phone, &row.Email, &row.TotalFlats, &row.IsActive, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, society.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// --- users ---

type pgUsers struct{ db *sql.DB }

const userCols = `id, username, password, name, email, phone, role, society_id, flat_number, is_active, last_login, created_at, updated_at`

func scanUser(r interface{ Scan(...any) error }) (*society.User, error) {
	u := &society.User{}
	var last sql.NullTime
	err := r.Scan(&u.ID, &u.Username, &u.Password, &u.Name, &u.Email, &u.Phone,
		&u.Role, &u.SocietyID, &u.FlatNumber, &u.IsActive, &last, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if last.Valid {
		u.LastLogin = last.Time
	}
	return u, nil
}

func (s pgUsers) Create(ctx context.Context, row *society.User) error {
	prep(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	_, err := s.db.ExecContext(ctx, `
		insert into users(id, username, password, name, email, phone, role, society_id, flat_number, is_active, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, row.ID, row.Username, row.Password, row.Name, row.Email, row.Phone, row.Role,
		row.SocietyID, row.FlatNumber, row.IsActive, row.CreatedAt, row.UpdatedAt)
	return err
}

func (s pgUsers) Find(ctx context.Context, id string) (*society.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `select `+userCols+` from users where id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, society.ErrNotFound
	}
	return u, err
}

func (s pgUsers) FindByUsername(ctx context.Context, username string) (*society.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `select `+userCols+` from users where username=$1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, society.ErrNotFound
	}
	return u, err
}

func (s pgUsers) ListBySociety(ctx context.Context, societyID string) ([]*society.User, error) {
	rows, err := s.db.QueryContext(ctx, `select `+userCols+` from users where society_id=$1 order by name`, societyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s pgUsers) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `update users set last_login=$2, updated_at=$2 where id=$1`, id, at)
	if err != nil {
		return err
	}
	return noneIsNotFound(res)
}

// --- flats ---

type pgFlats struct{ db *sql.DB }

func (s pgFlats) Create(ctx context.Context, row *society.Flat) error {
	prep(&row.ID, &row.CreatedAt, nil)
	_, err := s.db.ExecContext(ctx, `
		insert into flats(id, building_id, society_id, flat_number, floor, type, owner_id, tenant_id, monthly_maintenance, is_occupied, parking_slots, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, row.ID, row.BuildingID, row.SocietyID, row.FlatNumber, row.Floor, row.Type,
		row.OwnerID, row.TenantID, row.MonthlyMaintenance, row.IsOccupied, row.ParkingSlots, row.CreatedAt)
	return err
}

func (s pgFlats) Find(ctx context.Context, societyID, id string) (*society.Flat, error) {
	f := &society.Flat{}
	err := s.db.QueryRowContext(ctx, `
		select id, building_id, society_id, flat_number, floor, type, owner_id, tenant_id, monthly_maintenance, is_occupied, parking_slots, created_at
		from flats where id=$1 and society_id=$2
	`, id, societyID).Scan(&f.ID, &f.BuildingID, &f.SocietyID, &f.FlatNumber, &f.Floor, &f.Type,
		&f.OwnerID, &f.TenantID, &f.MonthlyMaintenance, &f.IsOccupied, &f.ParkingSlots, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, society.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s pgFlats) ListBySociety(ctx context.Context, societyID string) ([]*society.Flat, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, building_id, society_id, flat_number, floor, type, owner_id, tenant_id, monthly_maintenance, is_occupied, parking_slots, created_at
		from flats where society_id=$1 order by flat_number
	`, societyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.Flat
	for rows.Next() {
		f := &society.Flat{}
		if err := rows.Scan(&f.ID, &f.BuildingID, &f.SocietyID, &f.FlatNumber, &f.Floor, &f.Type,
			&f.OwnerID, &f.TenantID, &f.MonthlyMaintenance, &f.IsOccupied, &f.ParkingSlots, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// --- visitors ---

type pgVisitors struct{ db *sql.DB }

const visitorCols = `id, name, phone, visitor_type, flat_id, society_id, purpose, vehicle_number, photo_url, status, approved_by, check_in_time, check_out_time, qr_code, notes, created_at, updated_at`

func scanVisitor(r interface{ Scan(...any) error }) (*society.Visitor, error) {
	v := &society.Visitor{}
	var in, out sql.NullTime
	err := r.Scan(&v.ID, &v.Name, &v.Phone, &v.VisitorType, &v.FlatID, &v.SocietyID,
		&v.Purpose, &v.VehicleNumber, &v.PhotoURL, &v.Status, &v.ApprovedBy,
		&in, &out, &v.QRCode, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.CheckInTime = timePtr(in)
	v.CheckOutTime = timePtr(out)
	return v, nil
}

func (s pgVisitors) Create(ctx context.Context, row *society.Visitor) error {
	prep(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if row.Status == "" {
		row.Status = society.VisitorPending
	}
	_, err := s.db.ExecContext(ctx, `
		insert into visitors(id, name, phone, visitor_type, flat_id, society_id, purpose, vehicle_number, photo_url, status, approved_by, check_in_time, check_out_time, qr_code, notes, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, row.ID, row.Name, row.Phone, row.VisitorType, row.FlatID, row.SocietyID,
		row.Purpose, row.VehicleNumber, row.PhotoURL, row.Status, row.ApprovedBy,
		nullTime(row.CheckInTime), nullTime(row.CheckOutTime), row.QRCode, row.Notes,
		row.CreatedAt, row.UpdatedAt)
	return err
}

func (s pgVisitors) Find(ctx context.Context, societyID, id string) (*society.Visitor, error) {
	v, err := scanVisitor(s.db.QueryRowContext(ctx,
		`select `+visitorCols+` from visitors where id=$1 and society_id=$2`, id, societyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, society.ErrNotFound
	}
	return v, err
}

func (s pgVisitors) ListBySociety(ctx context.Context, societyID string, filter store.VisitorFilter) ([]*society.Visitor, error) {
	q := `select ` + visitorCols + ` from visitors where society_id=$1`
	args := []any{societyID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += ` and status=$2`
	}
	if filter.Date != nil {
		args = append(args, filter.Date.UTC().Truncate(24*time.Hour))
		q += ` and created_at >= $` + itoa(len(args)) + ` and created_at < $` + itoa(len(args)) + `::timestamptz + interval '1 day'`
	}
	q += ` order by created_at desc`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s pgVisitors) Update(ctx context.Context, row *society.Visitor) error {
	row.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		update visitors set name=$3, phone=$4, purpose=$5, vehicle_number=$6, notes=$7, updated_at=$8
		where id=$1 and society_id=$2
	`, row.ID, row.SocietyID, row.Name, row.Phone, row.Purpose, row.VehicleNumber, row.Notes, row.UpdatedAt)
	if err != nil {
		return err
	}
	return noneIsNotFound(res)
}

func (s pgVisitors) UpdateStatus(ctx context.Context, row *society.Visitor, from society.VisitorStatus) error {
	res, err := s.db.ExecContext(ctx, `
		update visitors set status=$4, approved_by=$5, check_in_time=$6, check_out_time=$7, updated_at=$8
		where id=$1 and society_id=$2 and status=$3
	`, row.ID, row.SocietyID, from, row.Status, row.ApprovedBy,
		nullTime(row.CheckInTime), nullTime(row.CheckOutTime), row.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the row is gone or another writer moved it first.
		var cur string
		err := s.db.QueryRowContext(ctx, `select status from visitors where id=$1 and society_id=$2`, row.ID, row.SocietyID).Scan(&cur)
		if errors.Is(err, sql.ErrNoRows) {
			return society.ErrNotFound
		}
		if err != nil {
			return err
		}
		return society.ErrInvalidTransition
	}
	return nil
}

// --- staff ---

type pgStaff struct{ db *sql.DB }

const staffCols = `id, name, phone, category, society_id, shift_timing, salary, joining_date, address, emergency_contact, is_active, created_at, updated_at`

func scanStaff(r interface{ Scan(...any) error }) (*society.Staff, error) {
	st := &society.Staff{}
	var joined sql.NullTime
	err := r.Scan(&st.ID, &st.Name, &st.Phone, &st.Category, &st.SocietyID, &st.ShiftTiming,
		&st.Salary, &joined, &st.Address, &st.EmergencyContact, &st.IsActive, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.JoiningDate = timePtr(joined)
	return st, nil
}

func (s pgStaff) Create(ctx context.Context, row *society.Staff) error {
	prep(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	_, err := s.db.ExecContext(ctx, `
		insert into staff(id, name, phone, category, society_id, shift_timing, salary, joining_date, address, emergency_contact, is_active, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, row.ID, row.Name, row.Phone, row.Category, row.SocietyID, row.ShiftTiming, row.Salary,
		nullTime(row.JoiningDate), row.Address, row.EmergencyContact, row.IsActive, row.CreatedAt, row.UpdatedAt)
	return err
}

func (s pgStaff) Find(ctx context.Context, societyID, id string) (*society.Staff, error) {
	st, err := scanStaff(s.db.QueryRowContext(ctx,
		`select `+staffCols+` from staff where id=$1 and society_id=$2`, id, societyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, society.ErrNotFound
	}
	return st, err
}

func (s pgStaff) ListBySociety(ctx context.Context, societyID string) ([]*society.Staff, error) {
	rows, err := s.db.QueryContext(ctx, `select `+staffCols+` from staff where society_id=$1 order by name`, societyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.Staff
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s pgStaff) MarkAttendance(ctx context.Context, a *society.StaffAttendance) error {
	prep(&a.ID, &a.CreatedAt, nil)
	_, err := s.db.ExecContext(ctx, `
		insert into staff_attendance(id, staff_id, society_id, date, check_in_time, check_out_time, status, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
		on conflict (staff_id, date) do update
		set status=excluded.status, check_in_time=excluded.check_in_time, check_out_time=excluded.check_out_time
	`, a.ID, a.StaffID, a.SocietyID, a.Date.UTC().Truncate(24*time.Hour),
		nullTime(a.CheckInTime), nullTime(a.CheckOutTime), a.Status, a.CreatedAt)
	return err
}

func (s pgStaff) ListAttendance(ctx context.Context, societyID string, date time.Time) ([]*society.StaffAttendance, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, staff_id, society_id, date, check_in_time, check_out_time, status, created_at
		from staff_attendance where society_id=$1 and date=$2 order by staff_id
	`, societyID, date.UTC().Truncate(24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.StaffAttendance
	for rows.Next() {
		a := &society.StaffAttendance{}
		var in, outT sql.NullTime
		if err := rows.Scan(&a.ID, &a.StaffID, &a.SocietyID, &a.Date, &in, &outT, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.CheckInTime = timePtr(in)
		a.CheckOutTime = timePtr(outT)
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- complaints ---

type pgComplaints struct{ db *sql.DB }

const complaintCols = `id, title, description, category, priority, status, flat_id, society_id, raised_by, assigned_to, location, resolution_notes, satisfaction_rating, escalation_level, due_date, resolved_at, created_at, updated_at`

func scanComplaint(r interface{ Scan(...any) error }) (*society.Complaint, error) {
	c := &society.Complaint{}
	var due, resolved sql.NullTime
	err := r.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Priority, &c.Status,
		&c.FlatID, &c.SocietyID, &c.RaisedBy, &c.AssignedTo, &c.Location, &c.ResolutionNotes,
		&c.SatisfactionRating, &c.EscalationLevel, &due, &resolved, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.DueDate = timePtr(due)
	c.ResolvedAt = timePtr(resolved)
	return c, nil
}

func (s pgComplaints) Create(ctx context.Context, row *society.Complaint) error {
	prep(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if row.Status == "" {
		row.Status = society.ComplaintOpen
	}
	if row.Priority == "" {
		row.Priority = society.PriorityMedium
	}
	_, err := s.db.ExecContext(ctx, `
		insert into complaints(id, title, description, category, priority, status, flat_id, society_id, raised_by, assigned_to, location, resolution_notes, satisfaction_rating, escalation_level, due_date, resolved_at, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`, row.ID, row.Title, row.Description, row.Category, row.Priority, row.Status,
		row.FlatID, row.SocietyID, row.RaisedBy, row.AssignedTo, row.Location, row.ResolutionNotes,
		row.SatisfactionRating, row.EscalationLevel, nullTime(row.DueDate), nullTime(row.ResolvedAt),
		row.CreatedAt, row.UpdatedAt)
	return err
}

func (s pgComplaints) Find(ctx context.Context, societyID, id string) (*society.Complaint, error) {
	c, err := scanComplaint(s.db.QueryRowContext(ctx,
		`select `+complaintCols+` from complaints where id=$1 and society_id=$2`, id, societyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, society.ErrNotFound
	}
	return c, err
}

func (s pgComplaints) ListBySociety(ctx context.Context, societyID string, filter store.ComplaintFilter) ([]*society.Complaint, error) {
	q := `select ` + complaintCols + ` from complaints where society_id=$1`
	args := []any{societyID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += ` and status=$` + itoa(len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		q += ` and lower(category)=lower($` + itoa(len(args)) + `)`
	}
	q += ` order by created_at desc`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s pgComplaints) Update(ctx context.Context, row *society.Complaint) error {
	row.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		update complaints set assigned_to=$3, priority=$4, resolution_notes=$5, satisfaction_rating=$6, due_date=$7, updated_at=$8
		where id=$1 and society_id=$2
	`, row.ID, row.SocietyID, row.AssignedTo, row.Priority, row.ResolutionNotes,
		row.SatisfactionRating, nullTime(row.DueDate), row.UpdatedAt)
	if err != nil {
		return err
	}
	return noneIsNotFound(res)
}

func (s pgComplaints) UpdateStatus(ctx context.Context, row *society.Complaint, from society.ComplaintStatus) error {
	res, err := s.db.ExecContext(ctx, `
		update complaints set status=$4, assigned_to=$5, resolution_notes=$6, escalation_level=$7, resolved_at=$8, updated_at=$9
		where id=$1 and society_id=$2 and status=$3
	`, row.ID, row.SocietyID, from, row.Status, row.AssignedTo, row.ResolutionNotes,
		row.EscalationLevel, nullTime(row.ResolvedAt), row.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var cur string
		err := s.db.QueryRowContext(ctx, `select status from complaints where id=$1 and society_id=$2`, row.ID, row.SocietyID).Scan(&cur)
		if errors.Is(err, sql.ErrNoRows) {
			return society.ErrNotFound
		}
		if err != nil {
			return err
		}
		return society.ErrInvalidTransition
	}
	return nil
}

// --- announcements ---

type pgAnnouncements struct{ db *sql.DB }

func (s pgAnnouncements) Create(ctx context.Context, row *society.Announcement) error {
	prep(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	row.IsActive = true
	_, err := s.db.ExecContext(ctx, `
		insert into announcements(id, title, content, type, priority, society_id, created_by, is_active, expires_at, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, row.ID, row.Title, row.Content, row.Type, row.Priority, row.SocietyID, row.CreatedBy,
		row.IsActive, nullTime(row.ExpiresAt), row.CreatedAt, row.UpdatedAt)
	return err
}

func (s pgAnnouncements) ListBySociety(ctx context.Context, societyID string) ([]*society.Announcement, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, title, content, type, priority, society_id, created_by, is_active, expires_at, created_at, updated_at
		from announcements where society_id=$1 and is_active order by created_at desc
	`, societyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.Announcement
	for rows.Next() {
		a := &society.Announcement{}
		var exp sql.NullTime
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Type, &a.Priority, &a.SocietyID,
			&a.CreatedBy, &a.IsActive, &exp, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.ExpiresAt = timePtr(exp)
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- finance ---

type pgFinance struct{ db *sql.DB }

func (s pgFinance) CreateBill(ctx context.Context, row *society.MaintenanceBill) error {
	prep(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if row.Status == "" {
		row.Status = society.PaymentPending
	}
	_, err := s.db.ExecContext(ctx, `
		insert into maintenance_bills(id, flat_id, society_id, month, year, base_amount, late_fee, total_amount, status, due_date, paid_date, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, row.ID, row.FlatID, row.SocietyID, row.Month, row.Year, row.BaseAmount, row.LateFee,
		row.TotalAmount, row.Status, row.DueDate, nullTime(row.PaidDate), row.CreatedAt, row.UpdatedAt)
	return err
}

func (s pgFinance) ListBills(ctx context.Context, societyID string, filter store.BillFilter) ([]*society.MaintenanceBill, error) {
	q := `select id, flat_id, society_id, month, year, base_amount, late_fee, total_amount, status, due_date, paid_date, created_at, updated_at
		from maintenance_bills where society_id=$1`
	args := []any{societyID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += ` and status=$` + itoa(len(args))
	}
	if filter.Month != 0 {
		args = append(args, filter.Month, filter.Year)
		q += ` and month=$` + itoa(len(args)-1) + ` and year=$` + itoa(len(args))
	}
	q += ` order by created_at desc`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.MaintenanceBill
	for rows.Next() {
		b := &society.MaintenanceBill{}
		var paid sql.NullTime
		if err := rows.Scan(&b.ID, &b.FlatID, &b.SocietyID, &b.Month, &b.Year, &b.BaseAmount,
			&b.LateFee, &b.TotalAmount, &b.Status, &b.DueDate, &paid, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.PaidDate = timePtr(paid)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s pgFinance) CreateExpense(ctx context.Context, row *society.Expense) error {
	prep(&row.ID, &row.CreatedAt, nil)
	_, err := s.db.ExecContext(ctx, `
		insert into expenses(id, society_id, category, description, amount, vendor, bill_number, payment_date, approved_by, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, row.ID, row.SocietyID, row.Category, row.Description, row.Amount, row.Vendor,
		row.BillNumber, nullTime(row.PaymentDate), row.ApprovedBy, row.CreatedAt)
	return err
}

func (s pgFinance) ListExpenses(ctx context.Context, societyID, category string) ([]*society.Expense, error) {
	q := `select id, society_id, category, description, amount, vendor, bill_number, payment_date, approved_by, created_at
		from expenses where society_id=$1`
	args := []any{societyID}
	if category != "" {
		args = append(args, category)
		q += ` and lower(category)=lower($2)`
	}
	q += ` order by created_at desc`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.Expense
	for rows.Next() {
		e := &society.Expense{}
		var paid sql.NullTime
		if err := rows.Scan(&e.ID, &e.SocietyID, &e.Category, &e.Description, &e.Amount,
			&e.Vendor, &e.BillNumber, &paid, &e.ApprovedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.PaymentDate = timePtr(paid)
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- amenities ---

type pgAmenities struct{ db *sql.DB }

func (s pgAmenities) Create(ctx context.Context, row *society.Amenity) error {
	prep(&row.ID, &row.CreatedAt, nil)
	row.IsActive = true
	_, err := s.db.ExecContext(ctx, `
		insert into amenities(id, name, description, society_id, hourly_rate, capacity, rules, is_active, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, row.ID, row.Name, row.Description, row.SocietyID, row.HourlyRate, row.Capacity,
		row.Rules, row.IsActive, row.CreatedAt)
	return err
}

func (s pgAmenities) ListBySociety(ctx context.Context, societyID string) ([]*society.Amenity, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, society_id, hourly_rate, capacity, rules, is_active, created_at
		from amenities where society_id=$1 and is_active order by name
	`, societyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.Amenity
	for rows.Next() {
		a := &society.Amenity{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.SocietyID, &a.HourlyRate,
			&a.Capacity, &a.Rules, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s pgAmenities) CreateBooking(ctx context.Context, row *society.AmenityBooking) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select true from amenities where id=$1 and society_id=$2`, row.AmenityID, row.SocietyID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return society.ErrNotFound
	}
	if err != nil {
		return err
	}
	prep(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if row.Status == "" {
		row.Status = "confirmed"
	}
	if row.PaymentStatus == "" {
		row.PaymentStatus = society.PaymentPending
	}
	_, err = s.db.ExecContext(ctx, `
		insert into amenity_bookings(id, amenity_id, flat_id, society_id, booked_by, start_time, end_time, purpose, guests, total_amount, status, payment_status, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, row.ID, row.AmenityID, row.FlatID, row.SocietyID, row.BookedBy, row.StartTime, row.EndTime,
		row.Purpose, row.Guests, row.TotalAmount, row.Status, row.PaymentStatus, row.CreatedAt, row.UpdatedAt)
	return err
}

func (s pgAmenities) ListBookings(ctx context.Context, societyID, status string) ([]*society.AmenityBooking, error) {
	q := `select id, amenity_id, flat_id, society_id, booked_by, start_time, end_time, purpose, guests, total_amount, status, payment_status, created_at, updated_at
		from amenity_bookings where society_id=$1`
	args := []any{societyID}
	if status != "" {
		args = append(args, status)
		q += ` and status=$2`
	}
	q += ` order by created_at desc`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.AmenityBooking
	for rows.Next() {
		b := &society.AmenityBooking{}
		if err := rows.Scan(&b.ID, &b.AmenityID, &b.FlatID, &b.SocietyID, &b.BookedBy,
			&b.StartTime, &b.EndTime, &b.Purpose, &b.Guests, &b.TotalAmount,
			&b.Status, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- documents ---

type pgDocuments struct{ db *sql.DB }

func (s pgDocuments) Create(ctx context.Context, row *society.Document) error {
	prep(&row.ID, &row.CreatedAt, nil)
	row.IsActive = true
	_, err := s.db.ExecContext(ctx, `
		insert into documents(id, title, description, category, file_url, file_name, society_id, uploaded_by, access_level, is_active, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, row.ID, row.Title, row.Description, row.Category, row.FileURL, row.FileName,
		row.SocietyID, row.UploadedBy, row.AccessLevel, row.IsActive, row.CreatedAt)
	return err
}

func (s pgDocuments) ListBySociety(ctx context.Context, societyID, category string) ([]*society.Document, error) {
	q := `select id, title, description, category, file_url, file_name, society_id, uploaded_by, access_level, is_active, created_at
		from documents where society_id=$1 and is_active`
	args := []any{societyID}
	if category != "" && category != "all" {
		args = append(args, category)
		q += ` and lower(category)=lower($2)`
	}
	q += ` order by created_at desc`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.Document
	for rows.Next() {
		d := &society.Document{}
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.Category, &d.FileURL, &d.FileName,
			&d.SocietyID, &d.UploadedBy, &d.AccessLevel, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- messages ---

type pgMessages struct{ db *sql.DB }

func (s pgMessages) Create(ctx context.Context, row *society.Message) error {
	prep(&row.ID, &row.CreatedAt, nil)
	if row.MessageType == "" {
		row.MessageType = "text"
	}
	row.IsGroupMessage = row.ReceiverID == ""
	_, err := s.db.ExecContext(ctx, `
		insert into messages(id, sender_id, receiver_id, society_id, content, message_type, is_read, is_group_message, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, row.ID, row.SenderID, row.ReceiverID, row.SocietyID, row.Content, row.MessageType,
		row.IsRead, row.IsGroupMessage, row.CreatedAt)
	return err
}

func (s pgMessages) ListBetween(ctx context.Context, societyID, userA, userB string) ([]*society.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, sender_id, receiver_id, society_id, content, message_type, is_read, is_group_message, created_at
		from messages
		where society_id=$1
		  and ((sender_id=$2 and receiver_id=$3) or (sender_id=$3 and receiver_id=$2))
		order by created_at
	`, societyID, userA, userB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.Message
	for rows.Next() {
		msg := &society.Message{}
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.SocietyID, &msg.Content,
			&msg.MessageType, &msg.IsRead, &msg.IsGroupMessage, &msg.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// --- alerts ---

type pgAlerts struct{ db *sql.DB }

const alertCols = `id, type, description, location, society_id, triggered_by, priority, status, acknowledged_by, acknowledged_at, resolved_at, created_at`

func scanAlert(r interface{ Scan(...any) error }) (*society.SecurityAlert, error) {
	a := &society.SecurityAlert{}
	var ack, resolved sql.NullTime
	err := r.Scan(&a.ID, &a.Type, &a.Description, &a.Location, &a.SocietyID, &a.TriggeredBy,
		&a.Priority, &a.Status, &a.AcknowledgedBy, &ack, &resolved, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.AcknowledgedAt = timePtr(ack)
	a.ResolvedAt = timePtr(resolved)
	return a, nil
}

func (s pgAlerts) Create(ctx context.Context, row *society.SecurityAlert) error {
	prep(&row.ID, &row.CreatedAt, nil)
	if row.Status == "" {
		row.Status = society.AlertActive
	}
	if row.Priority == "" {
		row.Priority = "high"
	}
	_, err := s.db.ExecContext(ctx, `
		insert into security_alerts(id, type, description, location, society_id, triggered_by, priority, status, acknowledged_by, acknowledged_at, resolved_at, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, row.ID, row.Type, row.Description, row.Location, row.SocietyID, row.TriggeredBy,
		row.Priority, row.Status, row.AcknowledgedBy, nullTime(row.AcknowledgedAt),
		nullTime(row.ResolvedAt), row.CreatedAt)
	return err
}

func (s pgAlerts) Find(ctx context.Context, societyID, id string) (*society.SecurityAlert, error) {
	a, err := scanAlert(s.db.QueryRowContext(ctx,
		`select `+alertCols+` from security_alerts where id=$1 and society_id=$2`, id, societyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, society.ErrNotFound
	}
	return a, err
}

func (s pgAlerts) Update(ctx context.Context, row *society.SecurityAlert) error {
	res, err := s.db.ExecContext(ctx, `
		update security_alerts set status=$3, acknowledged_by=$4, acknowledged_at=$5, resolved_at=$6
		where id=$1 and society_id=$2
	`, row.ID, row.SocietyID, row.Status, row.AcknowledgedBy,
		nullTime(row.AcknowledgedAt), nullTime(row.ResolvedAt))
	if err != nil {
		return err
	}
	return noneIsNotFound(res)
}

func (s pgAlerts) ListBySociety(ctx context.Context, societyID string) ([]*society.SecurityAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+alertCols+` from security_alerts where society_id=$1 order by created_at desc`, societyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.SecurityAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- audit ---

type pgAudit struct{ db *sql.DB }

func (s pgAudit) Append(ctx context.Context, entry *society.AuditLog) error {
	prep(&entry.ID, &entry.CreatedAt, nil)
	oldData, err := json.Marshal(entry.OldData)
	if err != nil {
		return err
	}
	newData, err := json.Marshal(entry.NewData)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into audit_logs(id, user_id, society_id, action, entity, entity_id, old_data, new_data, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.UserID, entry.SocietyID, entry.Action, entry.Entity, entry.EntityID,
		oldData, newData, entry.CreatedAt)
	return err
}

func (s pgAudit) ListBySociety(ctx context.Context, societyID string, limit int) ([]*society.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, user_id, society_id, action, entity, entity_id, old_data, new_data, created_at
		from audit_logs where society_id=$1 order by created_at desc limit $2
	`, societyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.AuditLog
	for rows.Next() {
		entry := &society.AuditLog{}
		var oldData, newData []byte
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.SocietyID, &entry.Action,
			&entry.Entity, &entry.EntityID, &oldData, &newData, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(oldData) > 0 {
			_ = json.Unmarshal(oldData, &entry.OldData)
		}
		if len(newData) > 0 {
			_ = json.Unmarshal(newData, &entry.NewData)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// --- inventory ---

type pgInventory struct{ db *sql.DB }

func (s pgInventory) Create(ctx context.Context, row *society.InventoryItem) error {
	prep(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	row.IsActive = true
	_, err := s.db.ExecContext(ctx, `
		insert into inventory_items(id, name, description, category, serial_number, purchase_date, condition, location, society_id, added_by, is_active, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, row.ID, row.Name, row.Description, row.Category, row.SerialNumber,
		nullTime(row.PurchaseDate), row.Condition, row.Location, row.SocietyID,
		row.AddedBy, row.IsActive, row.CreatedAt, row.UpdatedAt)
	return err
}

func (s pgInventory) ListBySociety(ctx context.Context, societyID string) ([]*society.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, category, serial_number, purchase_date, condition, location, society_id, added_by, is_active, created_at, updated_at
		from inventory_items where society_id=$1 and is_active order by name
	`, societyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*society.InventoryItem
	for rows.Next() {
		item := &society.InventoryItem{}
		var purchased sql.NullTime
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Category,
			&item.SerialNumber, &purchased, &item.Condition, &item.Location,
			&item.SocietyID, &item.AddedBy, &item.IsActive, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.PurchaseDate = timePtr(purchased)
		out = append(out, item)
	}
	return out, rows.Err()
}

// --- helpers ---

func noneIsNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return society.ErrNotFound
	}
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }
