// README: Booking service; each use case loads, mutates through the aggregate, persists, then dispatches events.
package booking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"homeserve/internal/config"
	"homeserve/internal/modules/customer"
	"homeserve/internal/modules/matching"
	"homeserve/internal/modules/payment"
	"homeserve/internal/modules/pricing"
	"homeserve/internal/types"
)

type Deps struct {
	Store       Store
	Technicians TechnicianDirectory
	Customers   CustomerDirectory
	Catalog     Catalog
	Zones       ZoneResolver
	Notifier    Notifier
	Payments    PaymentGateway
	// Optional.
	Geocoder Geocoder
	Events   EventPublisher
	Lease    Lease
}

type Service struct {
	store       Store
	technicians TechnicianDirectory
	customers   CustomerDirectory
	catalog     Catalog
	zones       ZoneResolver
	notifier    Notifier
	payments    PaymentGateway
	geocoder    Geocoder
	events      EventPublisher
	lease       Lease

	cfg    config.AssignmentConfig
	now    func() time.Time
	otp    func() string
	newID  func() types.ID
	tracer trace.Tracer
}

func NewService(d Deps, cfg config.AssignmentConfig) *Service {
	return &Service{
		store:       d.Store,
		technicians: d.Technicians,
		customers:   d.Customers,
		catalog:     d.Catalog,
		zones:       d.Zones,
		notifier:    d.Notifier,
		payments:    d.Payments,
		geocoder:    d.Geocoder,
		events:      d.Events,
		lease:       d.Lease,
		cfg:         cfg,
		now:         time.Now,
		otp:         newOTP,
		newID:       types.NewID,
		tracer:      otel.Tracer("homeserve/booking"),
	}
}

type CreateCommand struct {
	CustomerID   types.ID
	ServiceID    types.ID
	Address      string
	Point        *types.Point
	MapLink      string
	Instructions string
	ScheduledAt  *time.Time
}

type RespondCommand struct {
	BookingID    types.ID
	TechnicianID types.ID
	Accept       bool
	Reason       string
}

type CancelCommand struct {
	BookingID types.ID
	Actor     Actor
	Reason    string
}

type ProgressCommand struct {
	BookingID    types.ID
	TechnicianID types.ID
	Status       Status
	OTP          string
}

type AddExtraChargeCommand struct {
	BookingID    types.ID
	TechnicianID types.ID
	Title        string
	Amount       int64
	Description  string
	ProofURL     string
}

type ResolveExtraChargeCommand struct {
	BookingID  types.ID
	CustomerID types.ID
	ChargeID   string
	Approve    bool
}

type CompleteCommand struct {
	BookingID    types.ID
	TechnicianID types.ID
}

type VerifyPaymentCommand struct {
	BookingID  types.ID
	CustomerID types.ID
	OrderID    string
	PaymentID  string
	Signature  string
}

type ForceAssignCommand struct {
	BookingID    types.ID
	AdminID      types.ID
	TechnicianID types.ID
}

type ForceStatusCommand struct {
	BookingID types.ID
	AdminID   types.ID
	Status    Status
	Reason    string
}

// Create validates the request, ranks technicians and queues the first offer.
// The booking is written once, after all in-memory changes.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Record, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Create")
	defer span.End()

	if cmd.CustomerID == "" || cmd.ServiceID == "" {
		return Record{}, ErrBadRequest
	}
	cust, err := s.customers.GetCustomer(ctx, cmd.CustomerID)
	if errors.Is(err, customer.ErrNotFound) {
		return Record{}, ErrCustomerMissing
	}
	if err != nil {
		return Record{}, err
	}
	item, err := s.catalog.GetService(ctx, cmd.ServiceID)
	if errors.Is(err, pricing.ErrNotFound) {
		return Record{}, ErrServiceMissing
	}
	if err != nil {
		return Record{}, err
	}
	point, err := s.resolvePoint(ctx, cmd)
	if err != nil {
		return Record{}, err
	}
	area, err := s.zones.CheckServiceability(ctx, point)
	if err != nil {
		return Record{}, err
	}
	if !area.Serviceable {
		return Record{}, ErrLocationNotServed
	}

	techs, err := s.technicians.FindAvailableInZone(ctx, area.ZoneID, cmd.ServiceID)
	if err != nil {
		return Record{}, fmt.Errorf("find technicians: %w", err)
	}
	ranked := matching.Rank(point, techs)
	candidates := make([]Candidate, len(ranked))
	for i, r := range ranked {
		candidates[i] = Candidate{TechnicianID: r.ID, DistanceKm: r.DistanceKm}
	}

	quote := s.catalog.Quote(item)
	now := s.now()
	b := New(NewParams{
		ID:         s.newID(),
		CustomerID: cmd.CustomerID,
		ServiceID:  cmd.ServiceID,
		ZoneID:     area.ZoneID,
		Location:   Location{Address: cmd.Address, Point: point, MapLink: cmd.MapLink},
		Pricing: Pricing{
			Estimated:   quote.Estimated,
			DeliveryFee: quote.DeliveryFee,
			Tax:         quote.Tax,
			Discount:    quote.Discount,
			Currency:    quote.Currency,
		},
		Snapshots: Snapshots{
			Customer: &CustomerSnapshot{Name: cust.Name, Phone: cust.Phone, Avatar: cust.Avatar},
			Service:  &ServiceSnapshot{Name: item.Name, Category: item.Category, BasePrice: item.BasePrice},
		},
		Instructions: cmd.Instructions,
		ScheduledAt:  cmd.ScheduledAt,
		Candidates:   candidates,
		Now:          now,
	})
	if err := b.QueueFirstOffer(now, s.cfg.OfferTTL); err != nil {
		return Record{}, err
	}
	if err := s.store.Create(ctx, b); err != nil {
		return Record{}, err
	}
	span.SetAttributes(
		attribute.String("booking.id", string(b.ID())),
		attribute.Int("booking.candidates", len(candidates)),
	)
	s.dispatch(ctx, b)
	return b.Record(), nil
}

func (s *Service) resolvePoint(ctx context.Context, cmd CreateCommand) (types.Point, error) {
	if cmd.Point != nil {
		if !cmd.Point.Valid() {
			return types.Point{}, ErrBadRequest
		}
		return *cmd.Point, nil
	}
	if cmd.Address == "" || s.geocoder == nil {
		return types.Point{}, ErrBadRequest
	}
	p, err := s.geocoder.Geocode(ctx, cmd.Address)
	if err != nil {
		return types.Point{}, fmt.Errorf("%w: %v", ErrLocationNotServed, err)
	}
	return p, nil
}

// Respond handles a technician's answer to the pending offer.
func (s *Service) Respond(ctx context.Context, cmd RespondCommand) (Record, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Respond", trace.WithAttributes(
		attribute.String("booking.id", string(cmd.BookingID)),
		attribute.Bool("booking.accept", cmd.Accept),
	))
	defer span.End()

	b, err := s.store.FindByID(ctx, cmd.BookingID)
	if err != nil {
		return Record{}, err
	}
	if cmd.Accept {
		return s.accept(ctx, b, cmd.TechnicianID)
	}

	reason := cmd.Reason
	if reason == "" {
		reason = "declined"
	}
	if err := b.Reject(cmd.TechnicianID, reason, s.now(), s.cfg.OfferTTL); err != nil {
		return Record{}, err
	}
	if err := s.store.Save(ctx, b); err != nil {
		return Record{}, err
	}
	s.dispatch(ctx, b)
	return b.Record(), nil
}

func (s *Service) accept(ctx context.Context, b *Booking, techID types.ID) (Record, error) {
	if _, err := b.activeOffer(techID); err != nil {
		return Record{}, err
	}
	tech, err := s.technicians.GetTechnician(ctx, techID)
	if errors.Is(err, matching.ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	if err := b.Accept(techID, techSnapshot(tech), s.otp(), s.now()); err != nil {
		return Record{}, err
	}
	ok, err := s.store.AssignTechnicianIfPending(ctx, b, techID)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrAlreadyAssigned
	}
	s.dispatch(ctx, b)
	return b.Record(), nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (Record, error) {
	reason := cmd.Reason
	if reason == "" {
		reason = "cancelled by " + string(cmd.Actor.Kind)
	}
	b, err := s.mutate(ctx, "booking.Cancel", cmd.BookingID, func(b *Booking, now time.Time) error {
		switch cmd.Actor.Kind {
		case ActorCustomer:
			return b.CancelByCustomer(cmd.Actor.ID, reason, now)
		case ActorTechnician:
			return b.CancelByTechnician(cmd.Actor.ID, reason, now, s.cfg.ReassignOfferTTL)
		case ActorAdmin:
			return b.ForceStatus(cmd.Actor.ID, StatusCancelled, reason, now)
		}
		return ErrUnauthorized
	})
	if err != nil {
		return Record{}, err
	}
	return b.Record(), nil
}

func (s *Service) UpdateProgress(ctx context.Context, cmd ProgressCommand) (Record, error) {
	b, err := s.mutate(ctx, "booking.UpdateProgress", cmd.BookingID, func(b *Booking, now time.Time) error {
		return b.Progress(cmd.TechnicianID, cmd.Status, cmd.OTP, now)
	})
	if err != nil {
		return Record{}, err
	}
	return b.Record(), nil
}

func (s *Service) AddExtraCharge(ctx context.Context, cmd AddExtraChargeCommand) (Record, error) {
	b, err := s.mutate(ctx, "booking.AddExtraCharge", cmd.BookingID, func(b *Booking, now time.Time) error {
		_, err := b.AddExtraCharge(cmd.TechnicianID, ExtraChargeInput{
			ID:          uuid.NewString(),
			Title:       cmd.Title,
			Amount:      cmd.Amount,
			Description: cmd.Description,
			ProofURL:    cmd.ProofURL,
		}, now)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return b.Record(), nil
}

func (s *Service) ResolveExtraCharge(ctx context.Context, cmd ResolveExtraChargeCommand) (Record, error) {
	b, err := s.mutate(ctx, "booking.ResolveExtraCharge", cmd.BookingID, func(b *Booking, now time.Time) error {
		return b.ResolveExtraCharge(cmd.CustomerID, cmd.ChargeID, cmd.Approve, now)
	})
	if err != nil {
		return Record{}, err
	}
	return b.Record(), nil
}

// Complete finishes the job and opens a gateway order for the final amount.
// A gateway failure leaves the booking COMPLETED; EnsurePaymentOrder retries.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (Record, error) {
	b, err := s.mutate(ctx, "booking.Complete", cmd.BookingID, func(b *Booking, now time.Time) error {
		return b.Complete(cmd.TechnicianID, now)
	})
	if err != nil {
		return Record{}, err
	}
	s.openPaymentOrder(ctx, b)
	return b.Record(), nil
}

// EnsurePaymentOrder returns the booking with a gateway order attached,
// creating one if completion could not.
func (s *Service) EnsurePaymentOrder(ctx context.Context, id types.ID, actor Actor) (Record, error) {
	ctx, span := s.tracer.Start(ctx, "booking.EnsurePaymentOrder")
	defer span.End()

	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if actor.Kind != ActorAdmin && (actor.Kind != ActorCustomer || actor.ID != b.CustomerID()) {
		return Record{}, ErrUnauthorized
	}
	if b.Payment().Status == PaymentPaid {
		return Record{}, ErrInvalidState
	}
	if b.Payment().OrderID != "" {
		return b.Record(), nil
	}
	if err := s.attachOrder(ctx, b); err != nil {
		return Record{}, err
	}
	return b.Record(), nil
}

func (s *Service) openPaymentOrder(ctx context.Context, b *Booking) {
	if err := s.attachOrder(ctx, b); err != nil {
		log.Printf("[payment] booking %s: create order: %v", b.ID(), err)
	}
}

func (s *Service) attachOrder(ctx context.Context, b *Booking) error {
	if b.Status() != StatusCompleted && b.Status() != StatusCancelled {
		return ErrInvalidState
	}
	orderID, err := s.payments.CreateOrder(ctx, b.AmountDue(), b.Pricing().Currency, string(b.ID()))
	if err != nil {
		return err
	}
	if err := b.AttachPaymentOrder(orderID, s.now()); err != nil {
		return err
	}
	return s.store.Save(ctx, b)
}

// VerifyPayment settles a booking from the client checkout callback.
func (s *Service) VerifyPayment(ctx context.Context, cmd VerifyPaymentCommand) (Record, error) {
	ctx, span := s.tracer.Start(ctx, "booking.VerifyPayment")
	defer span.End()

	b, err := s.store.FindByID(ctx, cmd.BookingID)
	if err != nil {
		return Record{}, err
	}
	if b.CustomerID() != cmd.CustomerID {
		return Record{}, ErrUnauthorized
	}
	if b.Payment().Status == PaymentPaid {
		return b.Record(), nil
	}
	orderID := b.Payment().OrderID
	if orderID == "" {
		return Record{}, ErrNoPaymentOrder
	}
	if orderID != cmd.OrderID {
		return Record{}, ErrPaymentVerificationFailed
	}
	if !s.payments.VerifySignature(cmd.OrderID, cmd.PaymentID, cmd.Signature) {
		return Record{}, ErrPaymentVerificationFailed
	}
	return s.settle(ctx, b, cmd.PaymentID, CustomerActor(cmd.CustomerID))
}

// HandlePaymentWebhook applies a gateway webhook. The signature is checked
// before anything is read or written.
func (s *Service) HandlePaymentWebhook(ctx context.Context, body []byte, signature string) error {
	ctx, span := s.tracer.Start(ctx, "booking.HandlePaymentWebhook")
	defer span.End()

	if !s.payments.VerifyWebhook(body, signature) {
		return ErrPaymentVerificationFailed
	}
	ev, err := payment.ParseWebhook(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	span.SetAttributes(attribute.String("payment.event", ev.Type))

	switch ev.Type {
	case payment.EventPaymentCaptured, payment.EventOrderPaid:
		if ev.OrderID == "" {
			return ErrBadRequest
		}
		b, err := s.store.FindByPaymentOrderID(ctx, ev.OrderID)
		if err != nil {
			return err
		}
		_, err = s.settle(ctx, b, ev.PaymentID, SystemActor)
		return err
	case payment.EventPaymentFailed:
		if ev.OrderID == "" {
			return ErrBadRequest
		}
		b, err := s.store.FindByPaymentOrderID(ctx, ev.OrderID)
		if err != nil {
			return err
		}
		if !b.MarkPaymentFailed(ev.PaymentID, s.now()) {
			return nil
		}
		return s.store.UpdatePaymentStatus(ctx, b.ID(), PaymentFailed, ev.PaymentID)
	}
	log.Printf("[payment] ignoring webhook event %q", ev.Type)
	return nil
}

// settle is shared by both payment triggers. A concurrent writer causes one
// reload; an already PAID booking is returned unchanged.
func (s *Service) settle(ctx context.Context, b *Booking, paymentID string, actor Actor) (Record, error) {
	for retried := false; ; retried = true {
		changed, err := b.SettlePayment(paymentID, actor, s.now())
		if err != nil {
			return Record{}, err
		}
		if !changed {
			return b.Record(), nil
		}
		err = s.store.Save(ctx, b)
		if err == nil {
			s.dispatch(ctx, b)
			return b.Record(), nil
		}
		if !errors.Is(err, ErrConflict) || retried {
			return Record{}, err
		}
		if b, err = s.store.FindByID(ctx, b.ID()); err != nil {
			return Record{}, err
		}
	}
}

func (s *Service) ForceAssign(ctx context.Context, cmd ForceAssignCommand) (Record, error) {
	tech, err := s.technicians.GetTechnician(ctx, cmd.TechnicianID)
	if errors.Is(err, matching.ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	b, err := s.mutate(ctx, "booking.ForceAssign", cmd.BookingID, func(b *Booking, now time.Time) error {
		b.ForceAssign(cmd.AdminID, tech.ID, techSnapshot(tech), s.otp(), now)
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return b.Record(), nil
}

func (s *Service) ForceStatus(ctx context.Context, cmd ForceStatusCommand) (Record, error) {
	b, err := s.mutate(ctx, "booking.ForceStatus", cmd.BookingID, func(b *Booking, now time.Time) error {
		return b.ForceStatus(cmd.AdminID, cmd.Status, cmd.Reason, now)
	})
	if err != nil {
		return Record{}, err
	}
	if cmd.Status == StatusCompleted && b.Payment().OrderID == "" {
		s.openPaymentOrder(ctx, b)
	}
	return b.Record(), nil
}

// Get returns the booking if actor is one of its parties.
func (s *Service) Get(ctx context.Context, id types.ID, actor Actor) (Record, error) {
	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !b.IsParty(actor) {
		return Record{}, ErrUnauthorized
	}
	return b.Record(), nil
}

// mutate is the load, change, save, dispatch cycle shared by simple use cases.
func (s *Service) mutate(ctx context.Context, op string, id types.ID, fn func(b *Booking, now time.Time) error) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("booking.id", string(id))))
	defer span.End()

	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := fn(b, s.now()); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.store.Save(ctx, b); err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.dispatch(ctx, b)
	return b, nil
}

func techSnapshot(t matching.Technician) *TechnicianSnapshot {
	return &TechnicianSnapshot{Name: t.Name, Phone: t.Phone, Avatar: t.Avatar, Rating: t.Rating}
}

func newOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return fmt.Sprintf("%04d", time.Now().UnixNano()%10000)
	}
	return fmt.Sprintf("%04d", n.Int64())
}
