package checkout

import "fmt"

// Order is the checkout request a saga run fulfils.
type Order struct {
	ID       string  `mapstructure:"id" json:"id"`
	Amount   float64 `mapstructure:"amount" json:"amount"`
	Currency string  `mapstructure:"currency" json:"currency"`
	SKU      string  `mapstructure:"sku" json:"sku"`
	Quantity int     `mapstructure:"quantity" json:"quantity"`
	Address  string  `mapstructure:"address" json:"address"`
}

func (o Order) String() string {
	return fmt.Sprintf("order %s (%d x %s, %.2f %s)", o.ID, o.Quantity, o.SKU, o.Amount, o.Currency)
}
