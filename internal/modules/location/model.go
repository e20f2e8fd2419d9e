// README: Technician location update payloads.
package location

import (
	"time"

	"homeserve/internal/types"
)

type Update struct {
	TechnicianID types.ID
	Point        types.Point
	// Seq increases monotonically per device; stale or replayed updates are dropped.
	Seq        int64
	RecordedAt time.Time
}

type UpdateResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}
