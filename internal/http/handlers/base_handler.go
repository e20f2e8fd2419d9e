// README: Base handler utilities (JSON helpers, error mapping, booking views).
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"homeserve/internal/http/middleware"
	"homeserve/internal/modules/booking"
	"homeserve/internal/types"
)

// BookingService is the slice of booking.Service the handlers call.
type BookingService interface {
	Create(ctx context.Context, cmd booking.CreateCommand) (booking.Record, error)
	Get(ctx context.Context, id types.ID, actor booking.Actor) (booking.Record, error)
	Respond(ctx context.Context, cmd booking.RespondCommand) (booking.Record, error)
	Cancel(ctx context.Context, cmd booking.CancelCommand) (booking.Record, error)
	UpdateProgress(ctx context.Context, cmd booking.ProgressCommand) (booking.Record, error)
	AddExtraCharge(ctx context.Context, cmd booking.AddExtraChargeCommand) (booking.Record, error)
	ResolveExtraCharge(ctx context.Context, cmd booking.ResolveExtraChargeCommand) (booking.Record, error)
	Complete(ctx context.Context, cmd booking.CompleteCommand) (booking.Record, error)
	EnsurePaymentOrder(ctx context.Context, id types.ID, actor booking.Actor) (booking.Record, error)
	VerifyPayment(ctx context.Context, cmd booking.VerifyPaymentCommand) (booking.Record, error)
	HandlePaymentWebhook(ctx context.Context, body []byte, signature string) error
	ForceAssign(ctx context.Context, cmd booking.ForceAssignCommand) (booking.Record, error)
	ForceStatus(ctx context.Context, cmd booking.ForceStatusCommand) (booking.Record, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrUnauthorized):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, booking.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrLocationNotServed):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, booking.ErrPaymentVerificationFailed):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, booking.ErrAlreadyAssigned),
		errors.Is(err, booking.ErrNotActiveCandidate),
		errors.Is(err, booking.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// callerActor maps the authenticated caller onto a booking actor.
func callerActor(c *gin.Context) booking.Actor {
	uid := types.ID(middleware.CallerUID(c))
	switch middleware.CallerRole(c) {
	case middleware.RoleAdmin:
		return booking.AdminActor(uid)
	case middleware.RoleTechnician:
		return booking.TechnicianActor(uid)
	}
	return booking.CustomerActor(uid)
}

func callerID(c *gin.Context) types.ID {
	return types.ID(middleware.CallerUID(c))
}

type bookingView struct {
	ID                  types.ID                `json:"id"`
	CustomerID          types.ID                `json:"customer_id"`
	TechnicianID        *types.ID               `json:"technician_id,omitempty"`
	ServiceID           types.ID                `json:"service_id"`
	ZoneID              types.ID                `json:"zone_id"`
	Status              booking.Status          `json:"status"`
	Location            booking.Location        `json:"location"`
	Pricing             booking.Pricing         `json:"pricing"`
	Payment             booking.Payment         `json:"payment"`
	Attempts            []booking.Attempt       `json:"attempts,omitempty"`
	AssignmentExpiresAt *time.Time              `json:"assignment_expires_at,omitempty"`
	ExtraCharges        []booking.ExtraCharge   `json:"extra_charges,omitempty"`
	Timeline            []booking.TimelineEntry `json:"timeline"`
	Snapshots           booking.Snapshots       `json:"snapshots"`
	OTP                 string                  `json:"otp,omitempty"`
	Instructions        string                  `json:"instructions,omitempty"`
	CancelReason        string                  `json:"cancel_reason,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
	ScheduledAt         *time.Time              `json:"scheduled_at,omitempty"`
	UpdatedAt           time.Time               `json:"updated_at"`
	AcceptedAt          *time.Time              `json:"accepted_at,omitempty"`
	StartedAt           *time.Time              `json:"started_at,omitempty"`
	CompletedAt         *time.Time              `json:"completed_at,omitempty"`
	CancelledAt         *time.Time              `json:"cancelled_at,omitempty"`
	Version             int                     `json:"version"`
}

// viewFor hides the OTP from technicians and the offer history from
// everyone but admins.
func viewFor(r booking.Record, role string) bookingView {
	v := bookingView{
		ID:                  r.ID,
		CustomerID:          r.CustomerID,
		TechnicianID:        r.TechnicianID,
		ServiceID:           r.ServiceID,
		ZoneID:              r.ZoneID,
		Status:              r.Status,
		Location:            r.Location,
		Pricing:             r.Pricing,
		Payment:             r.Payment,
		AssignmentExpiresAt: r.AssignmentExpiresAt,
		ExtraCharges:        r.ExtraCharges,
		Timeline:            r.Timeline,
		Snapshots:           r.Snapshots,
		Instructions:        r.Meta.Instructions,
		CancelReason:        r.CancelReason,
		CreatedAt:           r.CreatedAt,
		ScheduledAt:         r.ScheduledAt,
		UpdatedAt:           r.UpdatedAt,
		AcceptedAt:          r.AcceptedAt,
		StartedAt:           r.StartedAt,
		CompletedAt:         r.CompletedAt,
		CancelledAt:         r.CancelledAt,
		Version:             r.Version,
	}
	if role != middleware.RoleTechnician {
		v.OTP = r.Meta.OTP
	}
	if role == middleware.RoleAdmin {
		v.Attempts = r.Attempts
	}
	return v
}

func writeBooking(c *gin.Context, status int, r booking.Record) {
	writeJSON(c, status, viewFor(r, middleware.CallerRole(c)))
}
