// README: Domain events recorded by Booking transitions and dispatched after persistence.
package booking

import (
	"time"

	"homeserve/internal/types"
)

type Event interface {
	EventName() string
}

type Requested struct {
	BookingID   types.ID `json:"booking_id"`
	CustomerID  types.ID `json:"customer_id"`
	ServiceName string   `json:"service_name"`
	Address     string   `json:"address"`
	Candidates  int      `json:"candidates"`
}

type OfferQueued struct {
	BookingID    types.ID  `json:"booking_id"`
	TechnicianID types.ID  `json:"technician_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	DistanceKm   float64   `json:"distance_km"`
	Reassigned   bool      `json:"reassigned"`
}

type AssignmentFailed struct {
	BookingID  types.ID `json:"booking_id"`
	CustomerID types.ID `json:"customer_id"`
}

type Accepted struct {
	BookingID    types.ID `json:"booking_id"`
	CustomerID   types.ID `json:"customer_id"`
	TechnicianID types.ID `json:"technician_id"`
	AdminForced  bool     `json:"admin_forced"`
}

// StatusChanged is emitted once per timeline entry. TechnicianID is the
// technician after the change, PreviousTechnicianID the one before it.
type StatusChanged struct {
	BookingID            types.ID  `json:"booking_id"`
	From                 Status    `json:"from"`
	To                   Status    `json:"to"`
	TechnicianID         *types.ID `json:"technician_id,omitempty"`
	PreviousTechnicianID *types.ID `json:"previous_technician_id,omitempty"`
	ChangedBy            string    `json:"changed_by"`
}

type TechnicianWithdrew struct {
	BookingID    types.ID `json:"booking_id"`
	CustomerID   types.ID `json:"customer_id"`
	TechnicianID types.ID `json:"technician_id"`
	Reason       string   `json:"reason"`
}

type ExtraChargeAdded struct {
	BookingID  types.ID    `json:"booking_id"`
	CustomerID types.ID    `json:"customer_id"`
	Charge     ExtraCharge `json:"charge"`
}

type ExtraChargeResolved struct {
	BookingID    types.ID     `json:"booking_id"`
	TechnicianID types.ID     `json:"technician_id"`
	ChargeID     string       `json:"charge_id"`
	Status       ChargeStatus `json:"status"`
}

type Completed struct {
	BookingID    types.ID `json:"booking_id"`
	CustomerID   types.ID `json:"customer_id"`
	TechnicianID types.ID `json:"technician_id"`
	FinalAmount  int64    `json:"final_amount"`
}

type PaymentSettled struct {
	BookingID    types.ID `json:"booking_id"`
	TechnicianID types.ID `json:"technician_id"`
	PaymentID    string   `json:"payment_id"`
	Amount       int64    `json:"amount"`
}

type Cancelled struct {
	BookingID    types.ID  `json:"booking_id"`
	CustomerID   types.ID  `json:"customer_id"`
	TechnicianID *types.ID `json:"technician_id,omitempty"`
	Reason       string    `json:"reason"`
}

func (Requested) EventName() string           { return "booking.requested" }
func (OfferQueued) EventName() string         { return "booking.offer_queued" }
func (AssignmentFailed) EventName() string    { return "booking.assignment_failed" }
func (Accepted) EventName() string            { return "booking.accepted" }
func (StatusChanged) EventName() string       { return "booking.status_changed" }
func (TechnicianWithdrew) EventName() string  { return "booking.technician_withdrew" }
func (ExtraChargeAdded) EventName() string    { return "booking.extra_charge_added" }
func (ExtraChargeResolved) EventName() string { return "booking.extra_charge_resolved" }
func (Completed) EventName() string           { return "booking.completed" }
func (PaymentSettled) EventName() string      { return "booking.payment_settled" }
func (Cancelled) EventName() string           { return "booking.cancelled" }
