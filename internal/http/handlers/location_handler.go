// README: Technician location handlers.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"homeserve/internal/modules/location"
	"homeserve/internal/types"
)

type LocationService interface {
	UpdateTechnicianLocation(ctx context.Context, u location.Update) (location.UpdateResult, error)
	GoOffline(ctx context.Context, techID types.ID) error
}

type LocationHandler struct {
	location LocationService
}

func NewLocationHandler(svc LocationService) *LocationHandler {
	return &LocationHandler{location: svc}
}

type locationReq struct {
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Seq        int64      `json:"seq" binding:"required"`
	RecordedAt *time.Time `json:"recorded_at"`
}

// Update stores the caller's own position; the id is never taken from the path.
func (h *LocationHandler) Update(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	u := location.Update{
		TechnicianID: callerID(c),
		Point:        types.Point{Lat: req.Lat, Lng: req.Lng},
		Seq:          req.Seq,
		RecordedAt:   time.Now(),
	}
	if req.RecordedAt != nil {
		u.RecordedAt = *req.RecordedAt
	}
	res, err := h.location.UpdateTechnicianLocation(c.Request.Context(), u)
	if errors.Is(err, location.ErrInvalidPoint) {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (h *LocationHandler) GoOffline(c *gin.Context) {
	if err := h.location.GoOffline(c.Request.Context(), callerID(c)); err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	c.Status(http.StatusNoContent)
}
