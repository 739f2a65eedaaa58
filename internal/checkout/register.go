package checkout

import (
	"github.com/fortressi/saga"
	"github.com/rs/zerolog"
)

// Services bundles the collaborators the checkout steps act on.
type Services struct {
	Payments  Payments
	Inventory Inventory
	Shipping  Shipping
}

// NewMemoryServices wires the in-memory implementations with the given stock levels.
func NewMemoryServices(logger zerolog.Logger, stock map[string]int) Services {
	return Services{
		Payments:  NewMemoryPayments(logger),
		Inventory: NewMemoryInventory(logger, stock),
		Shipping:  NewMemoryShipping(logger),
	}
}

// Register adds the checkout steps for order to reg.
func Register(reg *saga.StepRegistry, svc Services, order Order) error {
	factories := map[saga.StepName]saga.StepFactory{
		StepPayment: func() saga.Step {
			return &PaymentStep{Payments: svc.Payments, Order: order}
		},
		StepInventory: func() saga.Step {
			return &InventoryStep{Inventory: svc.Inventory, Order: order}
		},
		StepShipping: func() saga.Step {
			return &ShippingStep{Shipping: svc.Shipping, Order: order}
		},
	}
	for _, name := range DefaultPipeline {
		if err := reg.Register(name, factories[name]); err != nil {
			return err
		}
	}
	return nil
}
