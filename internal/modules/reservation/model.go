// README: Reservation aggregate and status definitions.
package reservation

import (
	"time"

	"autorent/internal/modules/pricing"
	"autorent/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Reservation is a booked rental. PriceSnapshot is the breakdown quoted at
// booking time and is never recomputed.
type Reservation struct {
	ID            types.ID                `json:"id"`
	VehicleID     int64                   `json:"vehicle_id"`
	CustomerEmail string                  `json:"customer_email"`
	StartDate     time.Time               `json:"start_date"`
	NumDays       int                     `json:"num_days"`
	ExtraMiles    int                     `json:"extra_miles"`
	TaxZip        string                  `json:"tax_zip"`
	Status        Status                  `json:"status"`
	StatusVersion int                     `json:"status_version"`
	TotalWithTax  types.Money             `json:"total_with_tax"`
	Deposit       types.Money             `json:"deposit"`
	PriceSnapshot pricing.RentalBreakdown `json:"price_snapshot"`
	CreatedAt     time.Time               `json:"created_at"`
	ConfirmedAt   *time.Time              `json:"confirmed_at,omitempty"`
	CompletedAt   *time.Time              `json:"completed_at,omitempty"`
	CancelledAt   *time.Time              `json:"cancelled_at,omitempty"`
	CancelReason  *string                 `json:"cancel_reason,omitempty"`
}

// Event is one status change in the reservation's audit trail.
type Event struct {
	ID            int64     `json:"id"`
	ReservationID types.ID  `json:"reservation_id"`
	FromStatus    Status    `json:"from_status"`
	ToStatus      Status    `json:"to_status"`
	ActorType     string    `json:"actor_type"`
	ActorID       *string   `json:"actor_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AllowedTransitions is the reservation state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
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
