// README: Collaborator contracts the booking service depends on.
package booking

import (
	"context"
	"time"

	"homeserve/internal/modules/customer"
	"homeserve/internal/modules/matching"
	"homeserve/internal/modules/notify"
	"homeserve/internal/modules/pricing"
	"homeserve/internal/modules/zone"
	"homeserve/internal/types"
)

// Store persists bookings. Save and AssignTechnicianIfPending are
// compare-and-swap writes; a stale caller gets ErrConflict or false.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	FindByID(ctx context.Context, id types.ID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	FindExpiredAssignments(ctx context.Context, now time.Time, limit int) ([]*Booking, error)
	// AssignTechnicianIfPending writes b only while the stored booking is
	// still ASSIGNED_PENDING with a PENDING attempt for techID.
	AssignTechnicianIfPending(ctx context.Context, b *Booking, techID types.ID) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id types.ID, status PaymentStatus, txnID string) error
	FindByPaymentOrderID(ctx context.Context, orderID string) (*Booking, error)
}

type TechnicianDirectory interface {
	FindAvailableInZone(ctx context.Context, zoneID, serviceID types.ID) ([]matching.Technician, error)
	GetTechnician(ctx context.Context, id types.ID) (matching.Technician, error)
	UpdateAvailabilityStatus(ctx context.Context, id types.ID, busy bool) error
}

type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id types.ID) (customer.Customer, error)
}

type Catalog interface {
	GetService(ctx context.Context, id types.ID) (pricing.ServiceItem, error)
	Quote(item pricing.ServiceItem) pricing.Quote
}

type ZoneResolver interface {
	CheckServiceability(ctx context.Context, p types.Point) (zone.Serviceability, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type Notifier interface {
	Send(ctx context.Context, n notify.Notification) error
	SendBookingOffer(ctx context.Context, techID types.ID, o notify.Offer) error
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
	VerifyWebhook(body []byte, signature string) bool
}

// EventPublisher forwards domain events to the message bus.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Lease gates the expiry sweep to one replica per tick.
type Lease interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
}
