package checkout

import (
	"context"
	"testing"

	"github.com/fortressi/saga"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOrder = Order{
	ID:       "ORDER-1",
	Amount:   49.90,
	Currency: "EUR",
	SKU:      "SKU-1",
	Quantity: 2,
	Address:  "1 Main Street",
}

type fixture struct {
	payments  *MemoryPayments
	inventory *MemoryInventory
	shipping  *MemoryShipping
	registry  *saga.StepRegistry
}

func newFixture(t *testing.T, order Order, stock int) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	f := &fixture{
		payments:  NewMemoryPayments(logger),
		inventory: NewMemoryInventory(logger, map[string]int{"SKU-1": stock}),
		shipping:  NewMemoryShipping(logger),
		registry:  saga.NewStepRegistry(),
	}
	svc := Services{Payments: f.payments, Inventory: f.inventory, Shipping: f.shipping}
	require.NoError(t, Register(f.registry, svc, order))
	return f
}

func (f *fixture) orchestrator(t *testing.T, opts ...saga.Option) *saga.Orchestrator {
	t.Helper()
	steps, err := f.registry.Build(DefaultPipeline...)
	require.NoError(t, err)
	o, err := saga.NewOrchestrator(steps, opts...)
	require.NoError(t, err)
	return o
}

func TestCheckoutSucceeds(t *testing.T) {
	f := newFixture(t, testOrder, 10)

	outcome, err := f.orchestrator(t).Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())

	paymentID, ok := saga.LookupTyped[string](outcome.Context, StepPayment, KeyPaymentID)
	require.True(t, ok)
	assert.Contains(t, paymentID, "PAY-")
	assert.True(t, outcome.Context.Has(StepInventory, KeyInventoryReservationID))
	assert.True(t, outcome.Context.Has(StepShipping, KeyShippingID))

	assert.Equal(t, 1, f.payments.Captured())
	assert.Equal(t, 8, f.inventory.Available("SKU-1"))
	assert.Equal(t, 1, f.shipping.Active())
}

func TestCheckoutOutOfStockRefundsPayment(t *testing.T) {
	f := newFixture(t, testOrder, 1)

	outcome, err := f.orchestrator(t).Execute(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfStock))
	assert.Equal(t, StepInventory, outcome.FailedStep)
	assert.Equal(t, []saga.StepName{StepPayment}, outcome.CompensationOrder())
	assert.Equal(t, []saga.StepName{StepPayment, StepInventory}, outcome.ExecutionOrder())

	paymentID, ok := saga.LookupTyped[string](outcome.Context, StepPayment, KeyPaymentID)
	require.True(t, ok)
	assert.True(t, f.payments.Refunded(paymentID))
	assert.Equal(t, 0, f.payments.Captured())
	assert.Equal(t, 1, f.inventory.Available("SKU-1"))
	assert.Equal(t, 0, f.shipping.Active())
}

func TestCheckoutShippingFailureUndoesInReverse(t *testing.T) {
	order := testOrder
	order.Address = ""
	f := newFixture(t, order, 10)

	outcome, err := f.orchestrator(t).Execute(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAddress))
	assert.Equal(t, StepShipping, outcome.FailedStep)
	assert.Equal(t, []saga.StepName{StepInventory, StepPayment}, outcome.CompensationOrder())
	assert.True(t, outcome.CompensationComplete())

	assert.Equal(t, 0, f.payments.Captured())
	assert.Equal(t, 10, f.inventory.Available("SKU-1"))
}

func TestCheckoutRefundFailureStillReleasesStock(t *testing.T) {
	f := newFixture(t, testOrder, 10)
	faults := saga.FailStep(StepShipping).FailCompensationOf(StepPayment)

	outcome, err := f.orchestrator(t, saga.WithFaultInjector(faults)).Execute(context.Background())
	require.Error(t, err)

	var sagaErr *saga.SagaExecutionError
	require.ErrorAs(t, err, &sagaErr)
	assert.Equal(t, StepShipping, sagaErr.Step)
	assert.Equal(t, []saga.StepName{StepPayment}, sagaErr.FailedCompensations())
	assert.Equal(t, []saga.StepName{StepInventory, StepPayment}, outcome.CompensationOrder())

	assert.Equal(t, 10, f.inventory.Available("SKU-1"))
	assert.Equal(t, 1, f.payments.Captured(), "refund was never issued")
	assert.Equal(t, 0, f.shipping.Active())
}

func TestCompensateWithoutExecuteIsNoOp(t *testing.T) {
	f := newFixture(t, testOrder, 10)
	execCtx := saga.NewExecutionContext()

	for _, name := range DefaultPipeline {
		step, err := f.registry.Get(name)
		require.NoError(t, err)
		assert.NoError(t, step.Compensate(context.Background(), execCtx.Scope(name)))
	}
	assert.Equal(t, 10, f.inventory.Available("SKU-1"))
}

func TestServicesAreIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testOrder, 10)

	paymentID, err := f.payments.Charge(ctx, testOrder)
	require.NoError(t, err)
	require.NoError(t, f.payments.Refund(ctx, paymentID))
	require.NoError(t, f.payments.Refund(ctx, paymentID))
	assert.Equal(t, 0, f.payments.Captured())

	reservationID, err := f.inventory.Reserve(ctx, testOrder)
	require.NoError(t, err)
	require.NoError(t, f.inventory.Release(ctx, reservationID))
	require.NoError(t, f.inventory.Release(ctx, reservationID))
	assert.Equal(t, 10, f.inventory.Available("SKU-1"))

	shippingID, err := f.shipping.Schedule(ctx, testOrder)
	require.NoError(t, err)
	require.NoError(t, f.shipping.Cancel(ctx, shippingID))
	require.NoError(t, f.shipping.Cancel(ctx, shippingID))
	assert.Equal(t, 0, f.shipping.Active())

	assert.True(t, errors.Is(f.payments.Refund(ctx, "PAY-unknown"), ErrUnknownPayment))
	assert.True(t, errors.Is(f.inventory.Release(ctx, "INV-unknown"), ErrUnknownReserve))
	assert.True(t, errors.Is(f.shipping.Cancel(ctx, "SHIP-unknown"), ErrUnknownShipment))
}

func TestChargeRejectsInvalidAmount(t *testing.T) {
	f := newFixture(t, testOrder, 10)
	order := testOrder
	order.Amount = 0

	_, err := f.payments.Charge(context.Background(), order)
	assert.True(t, errors.Is(err, ErrInvalidAmount))
	assert.Contains(t, err.Error(), "charge ORDER-1")
}

func TestRegisterTwiceFails(t *testing.T) {
	f := newFixture(t, testOrder, 10)
	err := Register(f.registry, NewMemoryServices(zerolog.Nop(), nil), testOrder)
	assert.Error(t, err)
}
