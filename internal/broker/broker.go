package broker

import (
	"context"
	"time"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderType selects the execution style.
type OrderType string

const (
	TypeMarket    OrderType = "market"
	TypeLimit     OrderType = "limit"
	TypeStop      OrderType = "stop"
	TypeStopLimit OrderType = "stop_limit"
)

// OrderStatus is the lifecycle state of a placed order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusFilled    OrderStatus = "filled"
	StatusCancelled OrderStatus = "cancelled"
	StatusRejected  OrderStatus = "rejected"
)

// Order is a request to buy or sell. Price is the limit price, or for
// market orders an optional override of the fill price.
type Order struct {
	Symbol      string    `json:"symbol"`
	Side        OrderSide `json:"side"`
	Quantity    float64   `json:"quantity"`
	Type        OrderType `json:"type"`
	Price       float64   `json:"price,omitempty"`
	StopPrice   float64   `json:"stop_price,omitempty"`
	TimeInForce string    `json:"time_in_force,omitempty"`
}

// OrderReceipt reports what happened to a placed order. A rejected
// order is a receipt, not an error; errors mean the order never
// reached the broker.
type OrderReceipt struct {
	OrderID        string      `json:"order_id"`
	Status         OrderStatus `json:"status"`
	Symbol         string      `json:"symbol"`
	Side           OrderSide   `json:"side"`
	Quantity       float64     `json:"quantity"`
	FilledQuantity float64     `json:"filled_quantity"`
	AveragePrice   float64     `json:"average_price,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
	Message        string      `json:"message,omitempty"`
}

// Position is an open holding.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	AveragePrice  float64 `json:"average_price"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// Account summarizes cash and holdings.
type Account struct {
	BuyingPower float64    `json:"buying_power"`
	TotalValue  float64    `json:"total_value"`
	Positions   []Position `json:"positions"`
}

// Broker executes orders and reports account state.
type Broker interface {
	Authenticate(ctx context.Context) error
	PlaceOrder(ctx context.Context, order Order) (*OrderReceipt, error)
	CancelOrder(ctx context.Context, orderID string) error
	Account(ctx context.Context) (*Account, error)
	Positions(ctx context.Context) ([]Position, error)
}
