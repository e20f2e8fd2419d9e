// README: Notification payloads delivered to customers, technicians and the admin channel.
package notify

import (
	"errors"
	"time"

	"homeserve/internal/types"
)

var ErrNoDeviceToken = errors.New("no device token registered")

type RecipientType string

const (
	RecipientCustomer   RecipientType = "customer"
	RecipientTechnician RecipientType = "technician"
	RecipientAdmin      RecipientType = "admin"
)

// Notification types.
const (
	TypeBookingRequested  = "BOOKING_REQUESTED"
	TypeBookingOffer      = "BOOKING_OFFER"
	TypeBookingAccepted   = "BOOKING_ACCEPTED"
	TypeJobAssigned       = "JOB_ASSIGNED"
	TypeNoTechnicians     = "NO_TECHNICIANS_AVAILABLE"
	TypeAssignmentFailed  = "ASSIGNMENT_FAILED"
	TypeStatusUpdate      = "BOOKING_STATUS_UPDATE"
	TypeTechnicianLeft    = "TECHNICIAN_CANCELLED"
	TypeExtraCharge       = "EXTRA_CHARGE_APPROVAL"
	TypeExtraChargeResult = "EXTRA_CHARGE_RESOLVED"
	TypeJobCompleted      = "JOB_COMPLETED"
	TypePaymentReceived   = "PAYMENT_RECEIVED"
	TypeBookingCancelled  = "BOOKING_CANCELLED"
)

// Notification is a generic push. RecipientID is ignored for the admin channel.
type Notification struct {
	RecipientID   types.ID
	RecipientType RecipientType
	Type          string
	Title         string
	Body          string
	Metadata      map[string]string
	ClickAction   string
}

// Offer is the payload a technician needs to decide on a job.
type Offer struct {
	BookingID   types.ID
	ServiceName string
	Earnings    int64
	Currency    string
	DistanceKm  float64
	Address     string
	ExpiresAt   time.Time
}
