package inventory

import (
	"fmt"

	"github.com/erp/fulfillment/internal/domain/shared"
)

// MovementKind is a ledger operation that moves units between counters
type MovementKind string

const (
	MovementReserve            MovementKind = "reserve"
	MovementReleaseReservation MovementKind = "release_reservation"
	MovementConfirmDelivery    MovementKind = "confirm_delivery"
	MovementMarkExpectedReturn MovementKind = "mark_expected_return"
	MovementReceiveReturn      MovementKind = "receive_return"
)

// IsValid checks if the movement kind is known
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementReserve, MovementReleaseReservation, MovementConfirmDelivery,
		MovementMarkExpectedReturn, MovementReceiveReturn:
		return true
	}
	return false
}

// SoldStage names the sold-side counter a return is taken out of
type SoldStage string

const (
	StageDelivered          SoldStage = "delivered"
	StageConfirmedDelivered SoldStage = "confirmed_delivered"
)

// IsValid checks if the stage is known
func (s SoldStage) IsValid() bool {
	return s == StageDelivered || s == StageConfirmedDelivered
}

// Movement is a single ledger adjustment against one StockLine
type Movement struct {
	Kind     MovementKind
	Key      StockKey
	Quantity int64
	// Stage is only meaningful for MovementMarkExpectedReturn
	Stage SoldStage
}

// NewMovement creates a movement and validates it
func NewMovement(kind MovementKind, key StockKey, qty int64) (Movement, error) {
	m := Movement{Kind: kind, Key: key, Quantity: qty}
	if kind == MovementMarkExpectedReturn {
		m.Stage = StageDelivered
	}
	return m, m.Validate()
}

// Validate checks quantity, key and kind
func (m Movement) Validate() error {
	if m.Quantity <= 0 {
		return shared.NewInvalidQuantityError(m.Quantity)
	}
	if err := m.Key.Validate(); err != nil {
		return err
	}
	if !m.Kind.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown ledger movement %q", m.Kind))
	}
	if m.Kind == MovementMarkExpectedReturn && !m.Stage.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown sold stage %q", m.Stage))
	}
	return nil
}

// Delta is the signed change a movement makes to each stored counter
type Delta struct {
	OnHand             int64
	Reserved           int64
	Delivered          int64
	ConfirmedDelivered int64
}

// Sold returns the net change to the sold side of the ledger
func (d Delta) Sold() int64 {
	return d.Reserved + d.Delivered + d.ConfirmedDelivered
}

// Delta returns the counter changes of the movement
func (m Movement) Delta() Delta {
	q := m.Quantity
	switch m.Kind {
	case MovementReserve:
		return Delta{Reserved: q}
	case MovementReleaseReservation:
		return Delta{Reserved: -q, Delivered: q}
	case MovementConfirmDelivery:
		return Delta{Delivered: -q, ConfirmedDelivered: q}
	case MovementMarkExpectedReturn:
		if m.Stage == StageConfirmedDelivered {
			return Delta{ConfirmedDelivered: -q}
		}
		return Delta{Delivered: -q}
	case MovementReceiveReturn:
		return Delta{OnHand: q}
	}
	return Delta{}
}

// NewExpectedReturnMovement creates a mark-expected-return movement taking
// units out of the given sold stage
func NewExpectedReturnMovement(key StockKey, qty int64, stage SoldStage) (Movement, error) {
	m := Movement{Kind: MovementMarkExpectedReturn, Key: key, Quantity: qty, Stage: stage}
	return m, m.Validate()
}
