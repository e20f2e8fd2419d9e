// README: Customer profile as seen by booking.
package customer

import (
	"errors"

	"homeserve/internal/types"
)

var ErrNotFound = errors.New("customer not found")

type Customer struct {
	ID      types.ID
	Name    string
	Phone   string
	Avatar  string
	Blocked bool
}
