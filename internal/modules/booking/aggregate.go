// README: Booking aggregate; owns every transition rule and records domain events.
package booking

import (
	"fmt"
	"time"

	"homeserve/internal/types"
)

type ActorKind string

const (
	ActorCustomer   ActorKind = "customer"
	ActorTechnician ActorKind = "tech"
	ActorAdmin      ActorKind = "admin"
	ActorSystem     ActorKind = "system"
)

// Actor identifies who triggered a transition; Tag is written to the timeline.
type Actor struct {
	Kind ActorKind
	ID   types.ID
}

var SystemActor = Actor{Kind: ActorSystem}

func CustomerActor(id types.ID) Actor   { return Actor{Kind: ActorCustomer, ID: id} }
func TechnicianActor(id types.ID) Actor { return Actor{Kind: ActorTechnician, ID: id} }
func AdminActor(id types.ID) Actor      { return Actor{Kind: ActorAdmin, ID: id} }

func (a Actor) Tag() string {
	if a.Kind == ActorSystem || a.Kind == "" {
		return string(ActorSystem)
	}
	return fmt.Sprintf("%s:%s", a.Kind, a.ID)
}

// Candidate is a ranked technician eligible for the booking's offers.
type Candidate struct {
	TechnicianID types.ID
	DistanceKm   float64
}

type NewParams struct {
	ID           types.ID
	CustomerID   types.ID
	ServiceID    types.ID
	ZoneID       types.ID
	Location     Location
	Pricing      Pricing
	Snapshots    Snapshots
	Instructions string
	ScheduledAt  *time.Time
	Candidates   []Candidate
	Now          time.Time
}

type ExtraChargeInput struct {
	ID          string
	Title       string
	Amount      int64
	Description string
	ProofURL    string
}

type Booking struct {
	r      Record
	events []Event
}

// New builds a booking in REQUESTED. Offers are queued separately.
func New(p NewParams) *Booking {
	b := &Booking{r: Record{
		ID:                 p.ID,
		CustomerID:         p.CustomerID,
		ServiceID:          p.ServiceID,
		ZoneID:             p.ZoneID,
		Location:           p.Location,
		Status:             StatusRequested,
		Pricing:            p.Pricing,
		Payment:            Payment{Status: PaymentPending},
		CandidateDistances: map[types.ID]float64{},
		Snapshots:          p.Snapshots,
		Meta:               Meta{Instructions: p.Instructions},
		CreatedAt:          p.Now,
		UpdatedAt:          p.Now,
		ScheduledAt:        p.ScheduledAt,
	}}
	for _, c := range p.Candidates {
		b.r.CandidateIDs = append(b.r.CandidateIDs, c.TechnicianID)
		b.r.CandidateDistances[c.TechnicianID] = c.DistanceKm
	}
	b.r.Timeline = append(b.r.Timeline, TimelineEntry{
		Status:    StatusRequested,
		ChangedBy: CustomerActor(p.CustomerID).Tag(),
		Timestamp: p.Now,
		Reason:    "booking created",
	})
	serviceName := ""
	if p.Snapshots.Service != nil {
		serviceName = p.Snapshots.Service.Name
	}
	b.emit(Requested{
		BookingID:   p.ID,
		CustomerID:  p.CustomerID,
		ServiceName: serviceName,
		Address:     p.Location.Address,
		Candidates:  len(b.r.CandidateIDs),
	})
	return b
}

// Restore rebuilds an aggregate from a persisted record.
func Restore(r Record) *Booking {
	return &Booking{r: r.clone()}
}

func (b *Booking) ID() types.ID         { return b.r.ID }
func (b *Booking) Status() Status       { return b.r.Status }
func (b *Booking) CustomerID() types.ID { return b.r.CustomerID }
func (b *Booking) Version() int         { return b.r.Version }
func (b *Booking) Payment() Payment     { return b.r.Payment }
func (b *Booking) Meta() Meta           { return b.r.Meta }

func (b *Booking) TechnicianID() (types.ID, bool) {
	if b.r.TechnicianID == nil {
		return "", false
	}
	return *b.r.TechnicianID, true
}

func (b *Booking) Pricing() Pricing {
	p := b.r.Pricing
	if p.Final != nil {
		f := *p.Final
		p.Final = &f
	}
	return p
}

// Record returns a deep copy of the booking state.
func (b *Booking) Record() Record { return b.r.clone() }

func (b *Booking) PendingAttempt() (Attempt, bool) {
	if i := b.pendingIndex(); i >= 0 {
		return b.r.Attempts[i], true
	}
	return Attempt{}, false
}

func (b *Booking) CandidateDistance(techID types.ID) float64 {
	if d, ok := b.r.CandidateDistances[techID]; ok {
		return d
	}
	return -1
}

func (b *Booking) ServiceName() string {
	if b.r.Snapshots.Service == nil {
		return ""
	}
	return b.r.Snapshots.Service.Name
}

// IsParty reports whether the actor may read this booking.
func (b *Booking) IsParty(a Actor) bool {
	switch a.Kind {
	case ActorAdmin, ActorSystem:
		return true
	case ActorCustomer:
		return a.ID == b.r.CustomerID
	case ActorTechnician:
		if b.r.TechnicianID != nil && *b.r.TechnicianID == a.ID {
			return true
		}
		i := b.pendingIndex()
		return i >= 0 && b.r.Attempts[i].TechnicianID == a.ID
	}
	return false
}

// PullEvents returns the events recorded since the last pull and clears them.
func (b *Booking) PullEvents() []Event {
	ev := b.events
	b.events = nil
	return ev
}

// QueueFirstOffer offers the booking to the first ranked candidate, or fails
// it when there are none.
func (b *Booking) QueueFirstOffer(now time.Time, ttl time.Duration) error {
	if b.r.Status != StatusRequested {
		return ErrInvalidTransition
	}
	return b.advance("", SystemActor, now, ttl, false)
}

// Accept locks the technician holding the pending offer onto the booking.
func (b *Booking) Accept(techID types.ID, tech *TechnicianSnapshot, otp string, now time.Time) error {
	i, err := b.activeOffer(techID)
	if err != nil {
		return err
	}
	if !CanTransition(b.r.Status, StatusAccepted) {
		return ErrInvalidTransition
	}
	prev := b.techPtr()
	b.r.Attempts[i].Status = AttemptAccepted
	b.r.TechnicianID = idPtr(techID)
	b.r.AssignmentExpiresAt = nil
	b.r.AcceptedAt = timePtr(now)
	b.r.Meta.OTP = otp
	if tech != nil {
		t := *tech
		b.r.Snapshots.Technician = &t
	}
	b.setStatus(StatusAccepted, TechnicianActor(techID), now, "offer accepted", prev)
	b.emit(Accepted{BookingID: b.r.ID, CustomerID: b.r.CustomerID, TechnicianID: techID})
	return nil
}

// Reject declines the pending offer and moves on to the next candidate.
func (b *Booking) Reject(techID types.ID, reason string, now time.Time, ttl time.Duration) error {
	i, err := b.activeOffer(techID)
	if err != nil {
		return err
	}
	b.r.Attempts[i].Status = AttemptRejected
	b.r.Attempts[i].RejectionReason = reason
	return b.advance(techID, TechnicianActor(techID), now, ttl, false)
}

// Timeout expires the pending offer when its deadline has passed and moves
// on exactly like a rejection.
func (b *Booking) Timeout(now time.Time, ttl time.Duration) error {
	if b.r.Status != StatusAssignedPending {
		return ErrInvalidState
	}
	i := b.pendingIndex()
	if i < 0 || b.r.Attempts[i].ExpiresAt.After(now) {
		return ErrInvalidState
	}
	techID := b.r.Attempts[i].TechnicianID
	b.r.Attempts[i].Status = AttemptTimeout
	return b.advance(techID, SystemActor, now, ttl, false)
}

// CancelByCustomer is allowed until the technician reaches the site.
func (b *Booking) CancelByCustomer(customerID types.ID, reason string, now time.Time) error {
	if customerID != b.r.CustomerID {
		return ErrUnauthorized
	}
	if !CanTransition(b.r.Status, StatusCancelled) {
		return ErrInvalidTransition
	}
	prev := b.techPtr()
	if i := b.pendingIndex(); i >= 0 {
		b.r.Attempts[i].Status = AttemptRejected
		b.r.Attempts[i].RejectionReason = cancelledOfferReason
	}
	b.r.AssignmentExpiresAt = nil
	b.r.CancelledAt = timePtr(now)
	b.r.CancelReason = reason
	b.setStatus(StatusCancelled, CustomerActor(customerID), now, reason, prev)
	b.emit(Cancelled{BookingID: b.r.ID, CustomerID: b.r.CustomerID, TechnicianID: prev, Reason: reason})
	return nil
}

// CancelByTechnician withdraws the assigned technician at any assigned stage.
// The booking reverts to REQUESTED, charges still awaiting the customer are
// dropped, and the next candidate gets a reassignment offer.
func (b *Booking) CancelByTechnician(techID types.ID, reason string, now time.Time, ttl time.Duration) error {
	if !b.isAssigned(techID) {
		return ErrUnauthorized
	}
	if !CanTransition(b.r.Status, StatusRequested) {
		return ErrInvalidTransition
	}
	prev := b.techPtr()
	for i := len(b.r.Attempts) - 1; i >= 0; i-- {
		a := &b.r.Attempts[i]
		if a.TechnicianID == techID && a.Status == AttemptAccepted {
			a.Status = AttemptRejected
			a.RejectionReason = reason
			break
		}
	}
	for i := range b.r.ExtraCharges {
		if c := &b.r.ExtraCharges[i]; c.Status == ChargePending {
			c.Status = ChargeRejected
			c.ResolvedAt = timePtr(now)
		}
	}
	b.r.TechnicianID = nil
	b.r.AcceptedAt = nil
	b.r.StartedAt = nil
	b.r.Meta.OTP = ""
	b.r.Snapshots.Technician = nil
	actor := TechnicianActor(techID)
	b.setStatus(StatusRequested, actor, now, reason, prev)
	b.emit(TechnicianWithdrew{BookingID: b.r.ID, CustomerID: b.r.CustomerID, TechnicianID: techID, Reason: reason})
	return b.advance(techID, actor, now, ttl, true)
}

// Progress moves the job along ACCEPTED -> EN_ROUTE -> REACHED -> IN_PROGRESS.
func (b *Booking) Progress(techID types.ID, to Status, otp string, now time.Time) error {
	pred, ok := progressPredecessor[to]
	if !ok {
		return ErrInvalidTransition
	}
	if !b.isAssigned(techID) {
		return ErrUnauthorized
	}
	if b.r.Status != pred || !CanTransition(pred, to) {
		return ErrInvalidTransition
	}
	if to == StatusInProgress {
		if b.r.Meta.OTP != "" && otp != b.r.Meta.OTP {
			return ErrOTPMismatch
		}
		b.r.StartedAt = timePtr(now)
	}
	b.setStatus(to, TechnicianActor(techID), now, "", b.techPtr())
	return nil
}

func (b *Booking) AddExtraCharge(techID types.ID, in ExtraChargeInput, now time.Time) (ExtraCharge, error) {
	if !b.isAssigned(techID) {
		return ExtraCharge{}, ErrUnauthorized
	}
	if b.r.Status != StatusExtrasPending && !CanTransition(b.r.Status, StatusExtrasPending) {
		return ExtraCharge{}, ErrInvalidState
	}
	if in.ID == "" || in.Title == "" || in.Amount <= 0 {
		return ExtraCharge{}, ErrBadRequest
	}
	c := ExtraCharge{
		ID:            in.ID,
		Title:         in.Title,
		Amount:        in.Amount,
		Description:   in.Description,
		ProofURL:      in.ProofURL,
		Status:        ChargePending,
		AddedByTechID: techID,
		AddedAt:       now,
	}
	b.r.ExtraCharges = append(b.r.ExtraCharges, c)
	if b.r.Status != StatusExtrasPending {
		b.setStatus(StatusExtrasPending, TechnicianActor(techID), now, "extra charge added", b.techPtr())
	} else {
		b.r.UpdatedAt = now
	}
	b.emit(ExtraChargeAdded{BookingID: b.r.ID, CustomerID: b.r.CustomerID, Charge: c})
	return c, nil
}

// ResolveExtraCharge records the customer's decision. Once nothing is pending
// an EXTRAS_PENDING booking resumes IN_PROGRESS.
func (b *Booking) ResolveExtraCharge(customerID types.ID, chargeID string, approve bool, now time.Time) error {
	if customerID != b.r.CustomerID {
		return ErrUnauthorized
	}
	idx := -1
	for i := range b.r.ExtraCharges {
		if b.r.ExtraCharges[i].ID == chargeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrChargeNotFound
	}
	c := &b.r.ExtraCharges[idx]
	if c.Status != ChargePending {
		return ErrChargeResolved
	}
	c.Status = ChargeRejected
	if approve {
		c.Status = ChargeApproved
	}
	c.ResolvedAt = timePtr(now)
	b.r.UpdatedAt = now

	tech, _ := b.TechnicianID()
	b.emit(ExtraChargeResolved{BookingID: b.r.ID, TechnicianID: tech, ChargeID: chargeID, Status: c.Status})
	if !b.hasPendingCharges() && b.r.Status == StatusExtrasPending && CanTransition(b.r.Status, StatusInProgress) {
		b.setStatus(StatusInProgress, CustomerActor(customerID), now, "extra charges resolved", b.techPtr())
	}
	return nil
}

// CalculateFinalPrice sets and returns estimated + deliveryFee + tax - discount
// plus approved extra charges.
func (b *Booking) CalculateFinalPrice() int64 {
	p := b.r.Pricing
	total := p.Estimated + p.DeliveryFee + p.Tax - p.Discount
	for _, c := range b.r.ExtraCharges {
		if c.Status == ChargeApproved {
			total += c.Amount
		}
	}
	b.r.Pricing.Final = &total
	return total
}

func (b *Booking) Complete(techID types.ID, now time.Time) error {
	if !b.isAssigned(techID) {
		return ErrUnauthorized
	}
	if b.hasPendingCharges() {
		return ErrPendingCharges
	}
	if !CanTransition(b.r.Status, StatusCompleted) {
		return ErrInvalidTransition
	}
	final := b.CalculateFinalPrice()
	b.r.CompletedAt = timePtr(now)
	b.setStatus(StatusCompleted, TechnicianActor(techID), now, "", b.techPtr())
	b.emit(Completed{BookingID: b.r.ID, CustomerID: b.r.CustomerID, TechnicianID: techID, FinalAmount: final})
	return nil
}

// AttachPaymentOrder stores the gateway order created for a finished job.
func (b *Booking) AttachPaymentOrder(orderID string, now time.Time) error {
	if b.r.Status != StatusCompleted && b.r.Status != StatusCancelled {
		return ErrInvalidState
	}
	if b.r.Payment.Status == PaymentPaid {
		return ErrInvalidState
	}
	b.r.Payment.OrderID = orderID
	b.r.Payment.Status = PaymentPending
	b.r.UpdatedAt = now
	return nil
}

// AmountDue is the final price, or the quoted total before completion.
func (b *Booking) AmountDue() int64 {
	if b.r.Pricing.Final != nil {
		return *b.r.Pricing.Final
	}
	p := b.r.Pricing
	return p.Estimated + p.DeliveryFee + p.Tax - p.Discount
}

// SettlePayment marks the booking PAID. It reports false without touching
// anything when the booking is already paid.
func (b *Booking) SettlePayment(paymentID string, actor Actor, now time.Time) (bool, error) {
	if b.r.Payment.Status == PaymentPaid {
		return false, nil
	}
	if !CanTransition(b.r.Status, StatusPaid) {
		return false, ErrInvalidState
	}
	amount := b.AmountDue()
	b.r.Payment.Status = PaymentPaid
	b.r.Payment.PaymentID = paymentID
	b.r.Payment.AmountPaid = amount
	prev := b.techPtr()
	b.setStatus(StatusPaid, actor, now, "payment settled", prev)
	tech, _ := b.TechnicianID()
	b.emit(PaymentSettled{BookingID: b.r.ID, TechnicianID: tech, PaymentID: paymentID, Amount: amount})
	return true, nil
}

// MarkPaymentFailed records a gateway failure without changing booking status.
func (b *Booking) MarkPaymentFailed(paymentID string, now time.Time) bool {
	if b.r.Payment.Status == PaymentPaid || b.r.Payment.Status == PaymentFailed {
		return false
	}
	b.r.Payment.Status = PaymentFailed
	b.r.Payment.PaymentID = paymentID
	b.r.UpdatedAt = now
	return true
}

// ForceAssign puts techID on the booking as ACCEPTED regardless of state.
func (b *Booking) ForceAssign(adminID, techID types.ID, tech *TechnicianSnapshot, otp string, now time.Time) {
	prev := b.techPtr()
	b.closePendingAttempt(offerReassignedByAdmin)
	b.r.Attempts = append(b.r.Attempts, Attempt{
		TechnicianID: techID,
		AttemptAt:    now,
		ExpiresAt:    now,
		Status:       AttemptAccepted,
		AdminForced:  true,
	})
	b.r.TechnicianID = idPtr(techID)
	b.r.CandidateIDs = nil
	b.r.CandidateDistances = map[types.ID]float64{}
	b.r.AcceptedAt = timePtr(now)
	b.r.Meta.OTP = otp
	if tech != nil {
		t := *tech
		b.r.Snapshots.Technician = &t
	}
	b.setStatus(StatusAccepted, AdminActor(adminID), now, "force assigned", prev)
	b.emit(Accepted{BookingID: b.r.ID, CustomerID: b.r.CustomerID, TechnicianID: techID, AdminForced: true})
}

// ForceStatus moves the booking to any status except ASSIGNED_PENDING, which
// needs an offer behind it.
func (b *Booking) ForceStatus(adminID types.ID, to Status, reason string, now time.Time) error {
	if to == StatusAssignedPending {
		return ErrInvalidTransition
	}
	if to.IsBusy() && b.r.TechnicianID == nil {
		return ErrInvalidState
	}
	prev := b.techPtr()
	if b.r.Status == StatusAssignedPending {
		b.closePendingAttempt(offerOverriddenByAdmin)
	}
	switch to {
	case StatusRequested, StatusFailedAssignment:
		b.r.TechnicianID = nil
		b.r.AcceptedAt = nil
		b.r.Meta.OTP = ""
		b.r.Snapshots.Technician = nil
	case StatusInProgress:
		if b.r.StartedAt == nil {
			b.r.StartedAt = timePtr(now)
		}
	case StatusCompleted:
		b.CalculateFinalPrice()
		b.r.CompletedAt = timePtr(now)
	case StatusCancelled:
		b.r.CancelledAt = timePtr(now)
		b.r.CancelReason = reason
	case StatusPaid:
		if b.r.Payment.Status != PaymentPaid {
			b.r.Payment.Status = PaymentPaid
			b.r.Payment.AmountPaid = b.AmountDue()
		}
	}
	if reason == "" {
		reason = "status forced by admin"
	}
	b.setStatus(to, AdminActor(adminID), now, reason, prev)
	return nil
}

// Rejection reasons for offers closed by someone other than the technician.
const (
	cancelledOfferReason   = "booking cancelled"
	offerReassignedByAdmin = "reassigned by admin"
	offerOverriddenByAdmin = "admin override"
)

func closedByOthers(a Attempt) bool {
	if a.Status == AttemptTimeout {
		return true
	}
	if a.Status != AttemptRejected {
		return false
	}
	switch a.RejectionReason {
	case cancelledOfferReason, offerReassignedByAdmin, offerOverriddenByAdmin:
		return true
	}
	return false
}

// activeOffer finds techID's pending attempt. A technician whose offer was
// already consumed (timeout, acceptance, cancellation or admin override) gets
// ErrAlreadyAssigned.
func (b *Booking) activeOffer(techID types.ID) (int, error) {
	if b.r.Status == StatusAssignedPending {
		if i := b.pendingIndex(); i >= 0 && b.r.Attempts[i].TechnicianID == techID {
			return i, nil
		}
	}
	if b.r.TechnicianID != nil {
		return -1, ErrAlreadyAssigned
	}
	for i := len(b.r.Attempts) - 1; i >= 0; i-- {
		if b.r.Attempts[i].TechnicianID == techID {
			if closedByOthers(b.r.Attempts[i]) {
				return -1, ErrAlreadyAssigned
			}
			break
		}
	}
	return -1, ErrNotActiveCandidate
}

// advance queues the next unused candidate after the one identified by after,
// or fails the booking when candidates are exhausted.
func (b *Booking) advance(after types.ID, actor Actor, now time.Time, ttl time.Duration, reassigned bool) error {
	next, ok := b.nextCandidate(after)
	if !ok {
		if !CanTransition(b.r.Status, StatusFailedAssignment) {
			return ErrInvalidTransition
		}
		b.r.AssignmentExpiresAt = nil
		b.setStatus(StatusFailedAssignment, actor, now, "no technicians available", b.techPtr())
		b.emit(AssignmentFailed{BookingID: b.r.ID, CustomerID: b.r.CustomerID})
		return nil
	}
	if !CanTransition(b.r.Status, StatusAssignedPending) {
		return ErrInvalidTransition
	}
	expires := now.Add(ttl)
	b.r.Attempts = append(b.r.Attempts, Attempt{
		TechnicianID: next,
		AttemptAt:    now,
		ExpiresAt:    expires,
		Status:       AttemptPending,
	})
	b.r.AssignmentExpiresAt = timePtr(expires)
	b.setStatus(StatusAssignedPending, actor, now, "offered to "+TechnicianActor(next).Tag(), b.techPtr())
	b.emit(OfferQueued{
		BookingID:    b.r.ID,
		TechnicianID: next,
		ExpiresAt:    expires,
		DistanceKm:   b.CandidateDistance(next),
		Reassigned:   reassigned,
	})
	return nil
}

func (b *Booking) nextCandidate(after types.ID) (types.ID, bool) {
	start := 0
	if after != "" {
		for i, id := range b.r.CandidateIDs {
			if id == after {
				start = i + 1
				break
			}
		}
	}
	for _, id := range b.r.CandidateIDs[start:] {
		if !b.attempted(id) {
			return id, true
		}
	}
	return "", false
}

func (b *Booking) attempted(techID types.ID) bool {
	for _, a := range b.r.Attempts {
		if a.TechnicianID == techID {
			return true
		}
	}
	return false
}

func (b *Booking) pendingIndex() int {
	for i := range b.r.Attempts {
		if b.r.Attempts[i].Status == AttemptPending {
			return i
		}
	}
	return -1
}

func (b *Booking) closePendingAttempt(reason string) {
	if i := b.pendingIndex(); i >= 0 {
		b.r.Attempts[i].Status = AttemptRejected
		b.r.Attempts[i].RejectionReason = reason
	}
	b.r.AssignmentExpiresAt = nil
}

func (b *Booking) hasPendingCharges() bool {
	for _, c := range b.r.ExtraCharges {
		if c.Status == ChargePending {
			return true
		}
	}
	return false
}

func (b *Booking) isAssigned(techID types.ID) bool {
	return b.r.TechnicianID != nil && *b.r.TechnicianID == techID
}

func (b *Booking) techPtr() *types.ID {
	if b.r.TechnicianID == nil {
		return nil
	}
	return idPtr(*b.r.TechnicianID)
}

// setStatus is the only place a status changes: one timeline entry, one event.
func (b *Booking) setStatus(to Status, actor Actor, now time.Time, reason string, prevTech *types.ID) {
	from := b.r.Status
	b.r.Status = to
	b.r.UpdatedAt = now
	b.r.Timeline = append(b.r.Timeline, TimelineEntry{
		Status:    to,
		ChangedBy: actor.Tag(),
		Timestamp: now,
		Reason:    reason,
	})
	b.emit(StatusChanged{
		BookingID:            b.r.ID,
		From:                 from,
		To:                   to,
		TechnicianID:         b.techPtr(),
		PreviousTechnicianID: prevTech,
		ChangedBy:            actor.Tag(),
	})
}

func (b *Booking) emit(e Event) {
	b.events = append(b.events, e)
}

func (r Record) clone() Record {
	c := r
	c.TechnicianID = copyPtr(r.TechnicianID)
	c.Pricing.Final = copyPtr(r.Pricing.Final)
	c.AssignmentExpiresAt = copyPtr(r.AssignmentExpiresAt)
	c.ScheduledAt = copyPtr(r.ScheduledAt)
	c.AcceptedAt = copyPtr(r.AcceptedAt)
	c.StartedAt = copyPtr(r.StartedAt)
	c.CompletedAt = copyPtr(r.CompletedAt)
	c.CancelledAt = copyPtr(r.CancelledAt)
	c.CandidateIDs = append([]types.ID(nil), r.CandidateIDs...)
	c.CandidateDistances = make(map[types.ID]float64, len(r.CandidateDistances))
	for k, v := range r.CandidateDistances {
		c.CandidateDistances[k] = v
	}
	c.Attempts = append([]Attempt(nil), r.Attempts...)
	c.ExtraCharges = nil
	for _, ch := range r.ExtraCharges {
		ch.ResolvedAt = copyPtr(ch.ResolvedAt)
		c.ExtraCharges = append(c.ExtraCharges, ch)
	}
	c.Timeline = append([]TimelineEntry(nil), r.Timeline...)
	c.CompletionPhotos = append([]string(nil), r.CompletionPhotos...)
	c.Snapshots = Snapshots{
		Customer:   copyPtr(r.Snapshots.Customer),
		Technician: copyPtr(r.Snapshots.Technician),
		Service:    copyPtr(r.Snapshots.Service),
	}
	return c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func idPtr(id types.ID) *types.ID { return &id }

func timePtr(t time.Time) *time.Time { return &t }
