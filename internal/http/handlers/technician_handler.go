// README: Technician handlers for offers, job progress, extra charges and completion.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"homeserve/internal/modules/booking"
	"homeserve/internal/types"
)

type TechnicianHandler struct {
	booking BookingService
}

func NewTechnicianHandler(svc BookingService) *TechnicianHandler {
	return &TechnicianHandler{booking: svc}
}

type respondReq struct {
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

// Respond takes {"action":"accept"} or {"action":"reject","reason":...}.
func (h *TechnicianHandler) Respond(c *gin.Context) {
	var req respondReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "action is required")
		return
	}
	var accept bool
	switch strings.ToLower(req.Action) {
	case "accept":
		accept = true
	case "reject":
	default:
		writeError(c, http.StatusBadRequest, "action must be accept or reject")
		return
	}
	r, err := h.booking.Respond(c.Request.Context(), booking.RespondCommand{
		BookingID:    types.ID(c.Param("id")),
		TechnicianID: callerID(c),
		Accept:       accept,
		Reason:       req.Reason,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeBooking(c, http.StatusOK, r)
}

type progressReq struct {
	Status string `json:"status" binding:"required"`
	OTP    string `json:"otp"`
}

func (h *TechnicianHandler) UpdateStatus(c *gin.Context) {
	var req progressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "status is required")
		return
	}
	status, ok := booking.ParseStatus(req.Status)
	if !ok {
		writeError(c, http.StatusBadRequest, "unknown status")
		return
	}
	r, err := h.booking.UpdateProgress(c.Request.Context(), booking.ProgressCommand{
		BookingID:    types.ID(c.Param("id")),
		TechnicianID: callerID(c),
		Status:       status,
		OTP:          req.OTP,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeBooking(c, http.StatusOK, r)
}

type extraChargeReq struct {
	Title       string `json:"title" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description"`
	ProofURL    string `json:"proof_url"`
}

func (h *TechnicianHandler) AddExtraCharge(c *gin.Context) {
	var req extraChargeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "title and a positive amount are required")
		return
	}
	r, err := h.booking.AddExtraCharge(c.Request.Context(), booking.AddExtraChargeCommand{
		BookingID:    types.ID(c.Param("id")),
		TechnicianID: callerID(c),
		Title:        req.Title,
		Amount:       req.Amount,
		Description:  req.Description,
		ProofURL:     req.ProofURL,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeBooking(c, http.StatusCreated, r)
}

func (h *TechnicianHandler) Complete(c *gin.Context) {
	r, err := h.booking.Complete(c.Request.Context(), booking.CompleteCommand{
		BookingID:    types.ID(c.Param("id")),
		TechnicianID: callerID(c),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeBooking(c, http.StatusOK, r)
}
