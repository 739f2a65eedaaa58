package checkout

import (
	"context"

	"github.com/fortressi/saga"
)

const (
	StepPayment   saga.StepName = "payment"
	StepInventory saga.StepName = "inventory"
	StepShipping  saga.StepName = "shipping"
)

// Keys written by each step into its own scope.
const (
	KeyPaymentID              = "payment_id"
	KeyInventoryReservationID = "inventory_reservation_id"
	KeyShippingID             = "shipping_id"
)

// DefaultPipeline is the checkout order: charge, then reserve, then ship.
var DefaultPipeline = []saga.StepName{StepPayment, StepInventory, StepShipping}

// PaymentStep charges the order and refunds it on compensation.
type PaymentStep struct {
	Payments Payments
	Order    Order
}

func (s *PaymentStep) Name() saga.StepName { return StepPayment }

func (s *PaymentStep) Execute(ctx context.Context, scope *saga.Scope) error {
	id, err := s.Payments.Charge(ctx, s.Order)
	if err != nil {
		return err
	}
	scope.Set(KeyPaymentID, id)
	return nil
}

func (s *PaymentStep) Compensate(ctx context.Context, scope *saga.Scope) error {
	id, ok := saga.Lookup[string](scope, KeyPaymentID)
	if !ok {
		return nil
	}
	return s.Payments.Refund(ctx, id)
}

// InventoryStep reserves stock and releases it on compensation.
type InventoryStep struct {
	Inventory Inventory
	Order     Order
}

func (s *InventoryStep) Name() saga.StepName { return StepInventory }

func (s *InventoryStep) Execute(ctx context.Context, scope *saga.Scope) error {
	id, err := s.Inventory.Reserve(ctx, s.Order)
	if err != nil {
		return err
	}
	scope.Set(KeyInventoryReservationID, id)
	return nil
}

func (s *InventoryStep) Compensate(ctx context.Context, scope *saga.Scope) error {
	id, ok := saga.Lookup[string](scope, KeyInventoryReservationID)
	if !ok {
		return nil
	}
	return s.Inventory.Release(ctx, id)
}

// ShippingStep schedules a shipment and cancels it on compensation.
type ShippingStep struct {
	Shipping Shipping
	Order    Order
}

func (s *ShippingStep) Name() saga.StepName { return StepShipping }

func (s *ShippingStep) Execute(ctx context.Context, scope *saga.Scope) error {
	id, err := s.Shipping.Schedule(ctx, s.Order)
	if err != nil {
		return err
	}
	scope.Set(KeyShippingID, id)
	return nil
}

func (s *ShippingStep) Compensate(ctx context.Context, scope *saga.Scope) error {
	id, ok := saga.Lookup[string](scope, KeyShippingID)
	if !ok {
		return nil
	}
	return s.Shipping.Cancel(ctx, id)
}
