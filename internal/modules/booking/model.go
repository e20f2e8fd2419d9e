// README: Booking record, status definitions and the normal-flow transition table.
package booking

import (
	"time"

	"homeserve/internal/types"
)

type Status string

const (
	StatusRequested        Status = "REQUESTED"
	StatusAssignedPending  Status = "ASSIGNED_PENDING"
	StatusAccepted         Status = "ACCEPTED"
	StatusEnRoute          Status = "EN_ROUTE"
	StatusReached          Status = "REACHED"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusExtrasPending    Status = "EXTRAS_PENDING"
	StatusCompleted        Status = "COMPLETED"
	StatusPaid             Status = "PAID"
	StatusCancelled        Status = "CANCELLED"
	StatusFailedAssignment Status = "FAILED_ASSIGNMENT"
	StatusDisputed         Status = "DISPUTED"
	StatusClosed           Status = "CLOSED"
)

var allStatuses = []Status{
	StatusRequested, StatusAssignedPending, StatusAccepted, StatusEnRoute, StatusReached,
	StatusInProgress, StatusExtrasPending, StatusCompleted, StatusPaid, StatusCancelled,
	StatusFailedAssignment, StatusDisputed, StatusClosed,
}

func ParseStatus(v string) (Status, bool) {
	for _, s := range allStatuses {
		if string(s) == v {
			return s, true
		}
	}
	return "", false
}

// IsBusy reports whether a technician attached to a booking in s is occupied.
// Every other status frees the technician.
func (s Status) IsBusy() bool {
	switch s {
	case StatusAccepted, StatusEnRoute, StatusReached, StatusInProgress, StatusExtrasPending:
		return true
	}
	return false
}

type AttemptStatus string

const (
	AttemptPending  AttemptStatus = "PENDING"
	AttemptAccepted AttemptStatus = "ACCEPTED"
	AttemptRejected AttemptStatus = "REJECTED"
	AttemptTimeout  AttemptStatus = "TIMEOUT"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentCaptured PaymentStatus = "CAPTURED"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentPaid     PaymentStatus = "PAID"
)

type ChargeStatus string

const (
	ChargePending  ChargeStatus = "PENDING"
	ChargeApproved ChargeStatus = "APPROVED"
	ChargeRejected ChargeStatus = "REJECTED"
)

type Location struct {
	Address string      `json:"address"`
	Point   types.Point `json:"point"`
	MapLink string      `json:"map_link,omitempty"`
}

type Pricing struct {
	Estimated   int64  `json:"estimated"`
	Final       *int64 `json:"final,omitempty"`
	DeliveryFee int64  `json:"delivery_fee"`
	Discount    int64  `json:"discount"`
	Tax         int64  `json:"tax"`
	Currency    string `json:"currency"`
}

type Payment struct {
	Status     PaymentStatus `json:"status"`
	OrderID    string        `json:"order_id,omitempty"`
	PaymentID  string        `json:"payment_id,omitempty"`
	AmountPaid int64         `json:"amount_paid"`
}

type Attempt struct {
	TechnicianID    types.ID      `json:"tech_id"`
	AttemptAt       time.Time     `json:"attempt_at"`
	ExpiresAt       time.Time     `json:"expires_at"`
	Status          AttemptStatus `json:"status"`
	AdminForced     bool          `json:"admin_forced,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
}

type ExtraCharge struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Amount        int64        `json:"amount"`
	Description   string       `json:"description,omitempty"`
	ProofURL      string       `json:"proof_url,omitempty"`
	Status        ChargeStatus `json:"status"`
	AddedByTechID types.ID     `json:"added_by_tech_id"`
	AddedAt       time.Time    `json:"added_at"`
	ResolvedAt    *time.Time   `json:"resolved_at,omitempty"`
}

type TimelineEntry struct {
	Status    Status    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

type CustomerSnapshot struct {
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type TechnicianSnapshot struct {
	Name   string  `json:"name"`
	Phone  string  `json:"phone,omitempty"`
	Avatar string  `json:"avatar,omitempty"`
	Rating float64 `json:"rating"`
}

type ServiceSnapshot struct {
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	BasePrice int64  `json:"base_price"`
}

type Snapshots struct {
	Customer   *CustomerSnapshot   `json:"customer,omitempty"`
	Technician *TechnicianSnapshot `json:"technician,omitempty"`
	Service    *ServiceSnapshot    `json:"service,omitempty"`
}

type Meta struct {
	OTP          string `json:"otp,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Record is the persisted shape of a booking. Outside this package it is a
// read-only copy; mutation goes through Booking methods.
type Record struct {
	ID           types.ID
	CustomerID   types.ID
	TechnicianID *types.ID
	ServiceID    types.ID
	ZoneID       types.ID
	Location     Location
	Status       Status
	Pricing      Pricing
	Payment      Payment

	CandidateIDs       []types.ID
	CandidateDistances map[types.ID]float64
	Attempts           []Attempt
	// AssignmentExpiresAt mirrors the pending attempt's expiry for the sweep query.
	AssignmentExpiresAt *time.Time

	ExtraCharges     []ExtraCharge
	Timeline         []TimelineEntry
	Snapshots        Snapshots
	IsRated          bool
	ChatID           string
	CompletionPhotos []string
	Meta             Meta
	CancelReason     string

	CreatedAt   time.Time
	ScheduledAt *time.Time
	UpdatedAt   time.Time
	AcceptedAt  *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time

	Version int
}

// AllowedTransitions is the normal (non-admin) status flow.
var AllowedTransitions = map[Status][]Status{
	StatusRequested:       {StatusAssignedPending, StatusFailedAssignment, StatusCancelled},
	StatusAssignedPending: {StatusAssignedPending, StatusAccepted, StatusFailedAssignment, StatusCancelled},
	StatusAccepted:        {StatusEnRoute, StatusExtrasPending, StatusRequested, StatusCancelled},
	StatusEnRoute:         {StatusReached, StatusExtrasPending, StatusRequested, StatusCancelled},
	StatusReached:         {StatusInProgress, StatusExtrasPending, StatusRequested},
	StatusInProgress:      {StatusExtrasPending, StatusCompleted, StatusRequested},
	StatusExtrasPending:   {StatusInProgress, StatusRequested},
	StatusCompleted:       {StatusPaid},
	StatusCancelled:       {StatusPaid},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// progressPredecessor maps a technician progress status to the one it must follow.
var progressPredecessor = map[Status]Status{
	StatusEnRoute:    StatusAccepted,
	StatusReached:    StatusEnRoute,
	StatusInProgress: StatusReached,
}
