package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"homeserve/internal/types"
)

// MemoryStore keeps bookings in process with the same compare-and-swap
// rules as Store. It backs tests and the bench tool.
type MemoryStore struct {
	mu       sync.Mutex
	bookings map[types.ID]Record
	history  []StatusChanged
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: map[types.ID]Record{}}
}

func (m *MemoryStore) Create(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.r.ID]; ok {
		return ErrConflict
	}
	b.r.Version = 1
	m.put(b)
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id types.ID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return Restore(r), nil
}

func (m *MemoryStore) FindByPaymentOrderID(_ context.Context, orderID string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.bookings {
		if orderID != "" && r.Payment.OrderID == orderID {
			return Restore(r), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) Save(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.bookings[b.r.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != b.r.Version {
		return ErrConflict
	}
	b.r.Version++
	m.put(b)
	return nil
}

func (m *MemoryStore) AssignTechnicianIfPending(_ context.Context, b *Booking, techID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.bookings[b.r.ID]
	if !ok || cur.Status != StatusAssignedPending {
		return false, nil
	}
	pending := false
	for _, a := range cur.Attempts {
		if a.TechnicianID == techID && a.Status == AttemptPending {
			pending = true
			break
		}
	}
	if !pending {
		return false, nil
	}
	b.r.Version = cur.Version + 1
	m.put(b)
	return true, nil
}

func (m *MemoryStore) FindExpiredAssignments(_ context.Context, now time.Time, limit int) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []Record
	for _, r := range m.bookings {
		if r.Status == StatusAssignedPending && r.AssignmentExpiresAt != nil && !r.AssignmentExpiresAt.After(now) {
			due = append(due, r)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].AssignmentExpiresAt.Before(*due[j].AssignmentExpiresAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	out := make([]*Booking, len(due))
	for i, r := range due {
		out[i] = Restore(r)
	}
	return out, nil
}

func (m *MemoryStore) UpdatePaymentStatus(_ context.Context, id types.ID, status PaymentStatus, txnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if r.Payment.Status == PaymentPaid {
		return ErrConflict
	}
	r.Payment.Status = status
	r.Payment.PaymentID = txnID
	r.Version++
	m.bookings[id] = r
	return nil
}

// StatusHistory returns the status changes written so far, oldest first.
func (m *MemoryStore) StatusHistory(id types.ID) []StatusChanged {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []StatusChanged
	for _, sc := range m.history {
		if sc.BookingID == id {
			out = append(out, sc)
		}
	}
	return out
}

func (m *MemoryStore) put(b *Booking) {
	m.bookings[b.r.ID] = b.r.clone()
	for _, e := range b.events {
		if sc, ok := e.(StatusChanged); ok {
			m.history = append(m.history, sc)
		}
	}
}
