package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrUnknownPayment  = errors.New("unknown payment")
	ErrOutOfStock      = errors.New("out of stock")
	ErrUnknownReserve  = errors.New("unknown reservation")
	ErrInvalidAddress  = errors.New("invalid address")
	ErrUnknownShipment = errors.New("unknown shipment")
)

// Payments charges and refunds customers.
type Payments interface {
	Charge(ctx context.Context, order Order) (string, error)
	Refund(ctx context.Context, paymentID string) error
}

// Inventory reserves and releases stock.
type Inventory interface {
	Reserve(ctx context.Context, order Order) (string, error)
	Release(ctx context.Context, reservationID string) error
}

// Shipping schedules and cancels shipments.
type Shipping interface {
	Schedule(ctx context.Context, order Order) (string, error)
	Cancel(ctx context.Context, shippingID string) error
}

// MemoryPayments is an in-process payment gateway.
type MemoryPayments struct {
	mu       sync.Mutex
	logger   zerolog.Logger
	charges  map[string]Order
	refunded map[string]bool
}

func NewMemoryPayments(logger zerolog.Logger) *MemoryPayments {
	return &MemoryPayments{
		logger:   logger.With().Str("service", "payments").Logger(),
		charges:  make(map[string]Order),
		refunded: make(map[string]bool),
	}
}

func (p *MemoryPayments) Charge(_ context.Context, order Order) (string, error) {
	if order.Amount <= 0 {
		return "", errors.Wrapf(ErrInvalidAmount, "charge %s: %.2f", order.ID, order.Amount)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	id := "PAY-" + uuid.NewString()
	p.charges[id] = order
	p.logger.Info().Str("payment_id", id).Str("order_id", order.ID).Float64("amount", order.Amount).Msg("payment captured")
	return id, nil
}

// Refund is idempotent: refunding twice is not an error.
func (p *MemoryPayments) Refund(_ context.Context, paymentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.charges[paymentID]; !ok {
		return errors.Wrapf(ErrUnknownPayment, "refund %s", paymentID)
	}
	if !p.refunded[paymentID] {
		p.refunded[paymentID] = true
		p.logger.Info().Str("payment_id", paymentID).Msg("payment refunded")
	}
	return nil
}

// Captured returns the number of charges that have not been refunded.
func (p *MemoryPayments) Captured() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.charges) - len(p.refunded)
}

// Refunded reports whether paymentID was refunded.
func (p *MemoryPayments) Refunded(paymentID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.refunded[paymentID]
}

// MemoryInventory is an in-process stock ledger.
type MemoryInventory struct {
	mu           sync.Mutex
	logger       zerolog.Logger
	stock        map[string]int
	reservations map[string]Order
}

func NewMemoryInventory(logger zerolog.Logger, stock map[string]int) *MemoryInventory {
	levels := make(map[string]int, len(stock))
	for sku, qty := range stock {
		levels[sku] = qty
	}
	return &MemoryInventory{
		logger:       logger.With().Str("service", "inventory").Logger(),
		stock:        levels,
		reservations: make(map[string]Order),
	}
}

func (i *MemoryInventory) Reserve(_ context.Context, order Order) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if order.Quantity <= 0 || i.stock[order.SKU] < order.Quantity {
		return "", errors.Wrapf(ErrOutOfStock, "reserve %d x %s (available %d)", order.Quantity, order.SKU, i.stock[order.SKU])
	}

	id := "INV-" + uuid.NewString()
	i.stock[order.SKU] -= order.Quantity
	i.reservations[id] = order
	i.logger.Info().Str("reservation_id", id).Str("sku", order.SKU).Int("quantity", order.Quantity).Msg("stock reserved")
	return id, nil
}

// Release is idempotent: releasing a released reservation is not an error.
func (i *MemoryInventory) Release(_ context.Context, reservationID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	order, ok := i.reservations[reservationID]
	if !ok {
		return errors.Wrapf(ErrUnknownReserve, "release %s", reservationID)
	}
	if order.Quantity > 0 {
		i.stock[order.SKU] += order.Quantity
		order.Quantity = 0
		i.reservations[reservationID] = order
		i.logger.Info().Str("reservation_id", reservationID).Msg("reservation released")
	}
	return nil
}

// Available returns the unreserved stock for sku.
func (i *MemoryInventory) Available(sku string) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.stock[sku]
}

// MemoryShipping is an in-process carrier.
type MemoryShipping struct {
	mu        sync.Mutex
	logger    zerolog.Logger
	shipments map[string]Order
	cancelled map[string]bool
}

func NewMemoryShipping(logger zerolog.Logger) *MemoryShipping {
	return &MemoryShipping{
		logger:    logger.With().Str("service", "shipping").Logger(),
		shipments: make(map[string]Order),
		cancelled: make(map[string]bool),
	}
}

func (s *MemoryShipping) Schedule(_ context.Context, order Order) (string, error) {
	if order.Address == "" {
		return "", errors.Wrapf(ErrInvalidAddress, "schedule %s", order.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := "SHIP-" + uuid.NewString()
	s.shipments[id] = order
	s.logger.Info().Str("shipping_id", id).Str("address", order.Address).Msg("shipment scheduled")
	return id, nil
}

// Cancel is idempotent: cancelling twice is not an error.
func (s *MemoryShipping) Cancel(_ context.Context, shippingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shipments[shippingID]; !ok {
		return errors.Wrapf(ErrUnknownShipment, "cancel %s", shippingID)
	}
	if !s.cancelled[shippingID] {
		s.cancelled[shippingID] = true
		s.logger.Info().Str("shipping_id", shippingID).Msg("shipment cancelled")
	}
	return nil
}

// Active returns the number of shipments that have not been cancelled.
func (s *MemoryShipping) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.shipments) - len(s.cancelled)
}
