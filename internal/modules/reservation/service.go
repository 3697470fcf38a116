// README: Reservation service books rentals at a quoted price and drives status transitions.
package reservation

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/rs/zerolog"

	"autorent/internal/modules/customer"
	"autorent/internal/modules/pricing"
	"autorent/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("reservation not found")
	ErrConflict     = errors.New("reservation state conflict")
	ErrBadRequest   = errors.New("bad request")
)

type Quoter interface {
	QuoteRental(ctx context.Context, req pricing.RentalQuoteRequest) (*pricing.RentalBreakdown, error)
}

type Repository interface {
	Create(ctx context.Context, r *Reservation) error
	Get(ctx context.Context, id types.ID) (*Reservation, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, at time.Time, reason *string) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	Events(ctx context.Context, id types.ID) ([]Event, error)
}

type Service struct {
	store   Repository
	pricing Quoter
	now     func() time.Time
	logger  zerolog.Logger
}

func NewService(store Repository, pricing Quoter, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		pricing: pricing,
		now:     time.Now,
		logger:  logger.With().Str("module", "reservation").Logger(),
	}
}

type CreateCommand struct {
	VehicleID  int64
	Email      string
	StartDate  time.Time
	NumDays    int
	ExtraMiles int
	CouponCode string
	TaxZip     string
	TaxAddress string
	IsMilitary bool
}

// CancelCommand cancels a reservation. A customer must give the email the
// reservation was booked with.
type CancelCommand struct {
	ReservationID types.ID
	ActorType     string
	ActorID       string
	Email         string
	Reason        string
}

const (
	ActorCustomer = "customer"
	ActorStaff    = "staff"
)

// Create quotes the rental as of its start date and books it as pending.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Reservation, error) {
	email := customer.NormalizeEmail(cmd.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrBadRequest
	}
	if cmd.StartDate.IsZero() {
		return nil, ErrBadRequest
	}
	start := types.Date(cmd.StartDate)
	now := s.now()
	if start.Before(types.Date(now)) {
		return nil, ErrBadRequest
	}

	quote, err := s.pricing.QuoteRental(ctx, pricing.RentalQuoteRequest{
		QuoteOptions: pricing.QuoteOptions{
			CouponCode:    cmd.CouponCode,
			Email:         email,
			TaxZip:        cmd.TaxZip,
			TaxAddress:    cmd.TaxAddress,
			EffectiveDate: &start,
			IsMilitary:    cmd.IsMilitary,
		},
		VehicleID:  cmd.VehicleID,
		NumDays:    cmd.NumDays,
		ExtraMiles: cmd.ExtraMiles,
	})
	if err != nil {
		return nil, err
	}

	r := &Reservation{
		ID:            types.NewID(),
		VehicleID:     cmd.VehicleID,
		CustomerEmail: email,
		StartDate:     start,
		NumDays:       cmd.NumDays,
		ExtraMiles:    cmd.ExtraMiles,
		TaxZip:        quote.TaxZip,
		Status:        StatusPending,
		TotalWithTax:  quote.TotalWithTax,
		Deposit:       quote.ReservationDeposit,
		PriceSnapshot: *quote,
		CreatedAt:     now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, &Event{
		ReservationID: r.ID,
		FromStatus:    StatusNone,
		ToStatus:      StatusPending,
		ActorType:     ActorCustomer,
		ActorID:       &email,
		CreatedAt:     now,
	})
	s.logger.Info().Str("reservation_id", string(r.ID)).Str("total", r.TotalWithTax.String()).Msg("reservation created")
	return r, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Reservation, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// Events returns the status history of a reservation, oldest first.
func (s *Service) Events(ctx context.Context, id types.ID) ([]Event, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Events(ctx, id)
}

func (s *Service) Confirm(ctx context.Context, id types.ID, staffID string) (*Reservation, error) {
	return s.transition(ctx, id, StatusConfirmed, ActorStaff, staffID, nil, nil)
}

func (s *Service) Complete(ctx context.Context, id types.ID, staffID string) (*Reservation, error) {
	return s.transition(ctx, id, StatusCompleted, ActorStaff, staffID, nil, nil)
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Reservation, error) {
	var check func(*Reservation) error
	if cmd.ActorType == ActorCustomer {
		email := customer.NormalizeEmail(cmd.Email)
		check = func(r *Reservation) error {
			if email == "" || r.CustomerEmail != email {
				return ErrNotFound
			}
			return nil
		}
		cmd.ActorID = email
	}
	var reason *string
	if cmd.Reason != "" {
		reason = &cmd.Reason
	}
	return s.transition(ctx, cmd.ReservationID, StatusCancelled, cmd.ActorType, cmd.ActorID, reason, check)
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status, actorType, actorID string, reason *string, check func(*Reservation) error) (*Reservation, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(r); err != nil {
			return nil, err
		}
	}
	if !CanTransition(r.Status, to) {
		return nil, ErrInvalidState
	}
	now := s.now()
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, to, r.StatusVersion, now, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	var actor *string
	if actorID != "" {
		actor = &actorID
	}
	s.appendEvent(ctx, &Event{
		ReservationID: r.ID,
		FromStatus:    r.Status,
		ToStatus:      to,
		ActorType:     actorType,
		ActorID:       actor,
		CreatedAt:     now,
	})
	s.logger.Info().Str("reservation_id", string(r.ID)).Str("from", string(r.Status)).Str("to", string(to)).Msg("reservation status changed")
	return s.store.Get(ctx, r.ID)
}

// appendEvent records the audit trail; a failed write does not undo the
// transition it describes.
func (s *Service) appendEvent(ctx context.Context, e *Event) {
	if err := s.store.AppendEvent(ctx, e); err != nil {
		s.logger.Warn().Err(err).Str("reservation_id", string(e.ReservationID)).Msg("reservation event not recorded")
	}
}
