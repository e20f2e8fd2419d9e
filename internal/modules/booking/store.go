// README: Booking store backed by PostgreSQL. Nested parts of the record are JSONB columns.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homeserve/internal/types"
)

// writeColumns are written on every insert and update, in recordArgs order.
var writeColumns = []string{
	"customer_id", "technician_id", "service_id", "zone_id", "status",
	"location", "pricing", "payment", "payment_status", "payment_order_id",
	"candidate_ids", "candidate_distances", "attempts", "assignment_expires_at",
	"extra_charges", "timeline", "snapshots", "meta",
	"is_rated", "chat_id", "completion_photos", "cancel_reason",
	"scheduled_at", "updated_at", "accepted_at", "started_at", "completed_at", "cancelled_at",
}

var (
	selectBooking = "SELECT id, created_at, version, " + strings.Join(writeColumns, ", ") + " FROM bookings"
	insertBooking = buildInsert()
	updateBooking = buildUpdate()
)

func buildInsert() string {
	cols := append([]string{"id", "created_at", "version"}, writeColumns...)
	params := make([]string, len(cols))
	for i := range params {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return "INSERT INTO bookings (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(params, ", ") + ")"
}

// buildUpdate leaves the WHERE clause to the caller; its parameters start
// after the written columns.
func buildUpdate() string {
	sets := make([]string, len(writeColumns))
	for i, c := range writeColumns {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	return "UPDATE bookings SET " + strings.Join(sets, ", ") + ", version = version + 1"
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, b *Booking) error {
	args, err := recordArgs(b.r)
	if err != nil {
		return err
	}
	args = append([]any{string(b.r.ID), b.r.CreatedAt, 1}, args...)

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertBooking, args...); err != nil {
			return err
		}
		if err := appendStatusEvents(ctx, tx, b); err != nil {
			return err
		}
		b.r.Version = 1
		return nil
	})
}

func (s *PGStore) FindByID(ctx context.Context, id types.ID) (*Booking, error) {
	r, err := scanRecord(s.db.QueryRow(ctx, selectBooking+" WHERE id = $1", string(id)))
	if err != nil {
		return nil, err
	}
	return Restore(r), nil
}

func (s *PGStore) FindByPaymentOrderID(ctx context.Context, orderID string) (*Booking, error) {
	r, err := scanRecord(s.db.QueryRow(ctx, selectBooking+" WHERE payment_order_id = $1", orderID))
	if err != nil {
		return nil, err
	}
	return Restore(r), nil
}

// Save writes b if nobody else has written since it was loaded.
func (s *PGStore) Save(ctx context.Context, b *Booking) error {
	where := fmt.Sprintf(" WHERE id = $%d AND version = $%d RETURNING version", len(writeColumns)+1, len(writeColumns)+2)
	ok, err := s.update(ctx, b, where, string(b.r.ID), b.r.Version)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	var exists bool
	if err := s.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)", string(b.r.ID)).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// AssignTechnicianIfPending is the acceptance guard: a single conditional
// UPDATE, so of several concurrent acceptances at most one matches a row.
func (s *PGStore) AssignTechnicianIfPending(ctx context.Context, b *Booking, techID types.ID) (bool, error) {
	n := len(writeColumns)
	where := fmt.Sprintf(` WHERE id = $%d
		AND status = 'ASSIGNED_PENDING'
		AND attempts @> jsonb_build_array(jsonb_build_object('tech_id', $%d::text, 'status', 'PENDING'))
		RETURNING version`, n+1, n+2)
	return s.update(ctx, b, where, string(b.r.ID), string(techID))
}

func (s *PGStore) update(ctx context.Context, b *Booking, where string, whereArgs ...any) (bool, error) {
	args, err := recordArgs(b.r)
	if err != nil {
		return false, err
	}
	args = append(args, whereArgs...)

	var version int
	matched := true
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, updateBooking+where, args...).Scan(&version)
		if errors.Is(err, pgx.ErrNoRows) {
			matched = false
			return nil
		}
		if err != nil {
			return err
		}
		return appendStatusEvents(ctx, tx, b)
	})
	if err != nil || !matched {
		return false, err
	}
	b.r.Version = version
	return true, nil
}

func (s *PGStore) FindExpiredAssignments(ctx context.Context, now time.Time, limit int) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, selectBooking+`
		WHERE status = 'ASSIGNED_PENDING' AND assignment_expires_at <= $1
		ORDER BY assignment_expires_at
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, Restore(r))
	}
	return out, rows.Err()
}

// UpdatePaymentStatus records a gateway outcome without a full write. A PAID
// booking is never downgraded.
func (s *PGStore) UpdatePaymentStatus(ctx context.Context, id types.ID, status PaymentStatus, txnID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET payment_status = $2,
			payment = jsonb_set(jsonb_set(payment, '{status}', to_jsonb($2::text)), '{payment_id}', to_jsonb($3::text)),
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'PAID'`,
		string(id), string(status), txnID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *PGStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// appendStatusEvents writes the audit rows for status changes that have not
// been dispatched yet.
func appendStatusEvents(ctx context.Context, tx pgx.Tx, b *Booking) error {
	batch := &pgx.Batch{}
	for _, e := range b.events {
		sc, ok := e.(StatusChanged)
		if !ok {
			continue
		}
		batch.Queue(`
			INSERT INTO booking_status_events (booking_id, from_status, to_status, technician_id, changed_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			string(sc.BookingID), string(sc.From), string(sc.To), idString(sc.TechnicianID), sc.ChangedBy, b.r.UpdatedAt,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	return tx.SendBatch(ctx, batch).Close()
}

func recordArgs(r Record) ([]any, error) {
	location, err := json.Marshal(r.Location)
	if err != nil {
		return nil, err
	}
	pricing, err := json.Marshal(r.Pricing)
	if err != nil {
		return nil, err
	}
	payment, err := json.Marshal(r.Payment)
	if err != nil {
		return nil, err
	}
	candidateIDs, err := json.Marshal(r.CandidateIDs)
	if err != nil {
		return nil, err
	}
	distances, err := json.Marshal(r.CandidateDistances)
	if err != nil {
		return nil, err
	}
	attempts, err := json.Marshal(r.Attempts)
	if err != nil {
		return nil, err
	}
	charges, err := json.Marshal(r.ExtraCharges)
	if err != nil {
		return nil, err
	}
	timeline, err := json.Marshal(r.Timeline)
	if err != nil {
		return nil, err
	}
	snapshots, err := json.Marshal(r.Snapshots)
	if err != nil {
		return nil, err
	}
	meta, err := json.Marshal(r.Meta)
	if err != nil {
		return nil, err
	}
	photos, err := json.Marshal(r.CompletionPhotos)
	if err != nil {
		return nil, err
	}
	var orderID *string
	if r.Payment.OrderID != "" {
		orderID = &r.Payment.OrderID
	}
	return []any{
		string(r.CustomerID), idString(r.TechnicianID), string(r.ServiceID), string(r.ZoneID), string(r.Status),
		location, pricing, payment, string(r.Payment.Status), orderID,
		candidateIDs, distances, attempts, r.AssignmentExpiresAt,
		charges, timeline, snapshots, meta,
		r.IsRated, r.ChatID, photos, r.CancelReason,
		r.ScheduledAt, r.UpdatedAt, r.AcceptedAt, r.StartedAt, r.CompletedAt, r.CancelledAt,
	}, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	var id, customerID, serviceID, zoneID, status, payStatus string
	var techID, orderID *string
	var location, pricing, payment, candidateIDs, distances []byte
	var attempts, charges, timeline, snapshots, meta, photos []byte
	err := row.Scan(
		&id, &r.CreatedAt, &r.Version,
		&customerID, &techID, &serviceID, &zoneID, &status,
		&location, &pricing, &payment, &payStatus, &orderID,
		&candidateIDs, &distances, &attempts, &r.AssignmentExpiresAt,
		&charges, &timeline, &snapshots, &meta,
		&r.IsRated, &r.ChatID, &photos, &r.CancelReason,
		&r.ScheduledAt, &r.UpdatedAt, &r.AcceptedAt, &r.StartedAt, &r.CompletedAt, &r.CancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	r.ID = types.ID(id)
	r.CustomerID = types.ID(customerID)
	r.ServiceID = types.ID(serviceID)
	r.ZoneID = types.ID(zoneID)
	r.Status = Status(status)
	if techID != nil {
		r.TechnicianID = idPtr(types.ID(*techID))
	}

	for _, f := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"location", location, &r.Location},
		{"pricing", pricing, &r.Pricing},
		{"payment", payment, &r.Payment},
		{"candidate_ids", candidateIDs, &r.CandidateIDs},
		{"candidate_distances", distances, &r.CandidateDistances},
		{"attempts", attempts, &r.Attempts},
		{"extra_charges", charges, &r.ExtraCharges},
		{"timeline", timeline, &r.Timeline},
		{"snapshots", snapshots, &r.Snapshots},
		{"meta", meta, &r.Meta},
		{"completion_photos", photos, &r.CompletionPhotos},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return Record{}, fmt.Errorf("booking %s %s: %w", id, f.name, err)
		}
	}
	// The indexed columns win over the JSON copy.
	r.Payment.Status = PaymentStatus(payStatus)
	if orderID != nil {
		r.Payment.OrderID = *orderID
	}
	if r.CandidateDistances == nil {
		r.CandidateDistances = map[types.ID]float64{}
	}
	return r, nil
}

func idString(id *types.ID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
