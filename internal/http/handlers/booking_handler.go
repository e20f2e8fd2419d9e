// README: Customer booking handlers (create, get, cancel, extra charges, payment).
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"homeserve/internal/modules/booking"
	"homeserve/internal/types"
)

type BookingHandler struct {
	booking BookingService
}

func NewBookingHandler(svc BookingService) *BookingHandler {
	return &BookingHandler{booking: svc}
}

type createBookingReq struct {
	ServiceID    string     `json:"service_id" binding:"required"`
	Address      string     `json:"address"`
	Lat          *float64   `json:"lat"`
	Lng          *float64   `json:"lng"`
	MapLink      string     `json:"map_link"`
	Instructions string     `json:"instructions"`
	ScheduledAt  *time.Time `json:"scheduled_at"`
}

// Create books for the caller; customer ids never come from the body.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		writeError(c, http.StatusBadRequest, "lat and lng must be sent together")
		return
	}
	if req.Lat == nil && req.Address == "" {
		writeError(c, http.StatusBadRequest, "address or coordinates required")
		return
	}
	cmd := booking.CreateCommand{
		CustomerID:   callerID(c),
		ServiceID:    types.ID(req.ServiceID),
		Address:      req.Address,
		MapLink:      req.MapLink,
		Instructions: req.Instructions,
		ScheduledAt:  req.ScheduledAt,
	}
	if req.Lat != nil {
		cmd.Point = &types.Point{Lat: *req.Lat, Lng: *req.Lng}
	}
	r, err := h.booking.Create(c.Request.Context(), cmd)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeBooking(c, http.StatusCreated, r)
}

func (h *BookingHandler) Get(c *gin.Context) {
	r, err := h.booking.Get(c.Request.Context(), types.ID(c.Param("id")), callerActor(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeBooking(c, http.StatusOK, r)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// Cancel serves customers, technicians and admins; the actor decides the rules.
func (h *BookingHandler) Cancel(c *gin.Context) {
	var req cancelReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	r, err := h.booking.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID: types.ID(c.Param("id")),
		Actor:     callerActor(c),
		Reason:    req.Reason,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeBooking(c, http.StatusOK, r)
}

type resolveChargeReq struct {
	Approve *bool `json:"approve" binding:"required"`
}

func (h *BookingHandler) ResolveExtraCharge(c *gin.Context) {
	var req resolveChargeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "approve is required")
		return
	}
	r, err := h.booking.ResolveExtraCharge(c.Request.Context(), booking.ResolveExtraChargeCommand{
		BookingID:  types.ID(c.Param("id")),
		CustomerID: callerID(c),
		ChargeID:   c.Param("chargeId"),
		Approve:    *req.Approve,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeBooking(c, http.StatusOK, r)
}

// PaymentOrder returns the gateway order the client checkout needs.
func (h *BookingHandler) PaymentOrder(c *gin.Context) {
	r, err := h.booking.EnsurePaymentOrder(c.Request.Context(), types.ID(c.Param("id")), callerActor(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"booking_id": r.ID,
		"order_id":   r.Payment.OrderID,
		"amount":     amountDue(r),
		"currency":   r.Pricing.Currency,
	})
}

type verifyPaymentReq struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

func (h *BookingHandler) VerifyPayment(c *gin.Context) {
	var req verifyPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "missing payment fields")
		return
	}
	r, err := h.booking.VerifyPayment(c.Request.Context(), booking.VerifyPaymentCommand{
		BookingID:  types.ID(c.Param("id")),
		CustomerID: callerID(c),
		OrderID:    req.OrderID,
		PaymentID:  req.PaymentID,
		Signature:  req.Signature,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeBooking(c, http.StatusOK, r)
}

func amountDue(r booking.Record) int64 {
	if r.Pricing.Final != nil {
		return *r.Pricing.Final
	}
	p := r.Pricing
	return p.Estimated + p.DeliveryFee + p.Tax - p.Discount
}
