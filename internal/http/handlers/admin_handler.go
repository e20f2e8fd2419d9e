// README: Admin override handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homeserve/internal/modules/booking"
	"homeserve/internal/types"
)

type AdminHandler struct {
	booking BookingService
}

func NewAdminHandler(svc BookingService) *AdminHandler {
	return &AdminHandler{booking: svc}
}

type forceAssignReq struct {
	TechnicianID string `json:"technician_id" binding:"required"`
}

func (h *AdminHandler) ForceAssign(c *gin.Context) {
	var req forceAssignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "technician_id is required")
		return
	}
	r, err := h.booking.ForceAssign(c.Request.Context(), booking.ForceAssignCommand{
		BookingID:    types.ID(c.Param("id")),
		AdminID:      callerID(c),
		TechnicianID: types.ID(req.TechnicianID),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeBooking(c, http.StatusOK, r)
}

type forceStatusReq struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

func (h *AdminHandler) ForceStatus(c *gin.Context) {
	var req forceStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "status is required")
		return
	}
	status, ok := booking.ParseStatus(req.Status)
	if !ok {
		writeError(c, http.StatusBadRequest, "unknown status")
		return
	}
	r, err := h.booking.ForceStatus(c.Request.Context(), booking.ForceStatusCommand{
		BookingID: types.ID(c.Param("id")),
		AdminID:   callerID(c),
		Status:    status,
		Reason:    req.Reason,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeBooking(c, http.StatusOK, r)
}
