package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/flashpoint/internal/contracts"
)

type stubQuotes struct {
	prices map[string]float64
}

func (s stubQuotes) FetchSnapshot(ctx context.Context, symbol string) (*contracts.MarketSnapshot, error) {
	price, ok := s.prices[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return &contracts.MarketSnapshot{Symbol: symbol, Price: price}, nil
}

func (s stubQuotes) FetchHistory(ctx context.Context, symbol string, periods int) ([]float64, error) {
	return nil, errors.New("no history in stub")
}

func marketBuy(symbol string, qty, price float64) Order {
	return Order{Symbol: symbol, Side: SideBuy, Quantity: qty, Type: TypeMarket, Price: price}
}

func marketSell(symbol string, qty, price float64) Order {
	return Order{Symbol: symbol, Side: SideSell, Quantity: qty, Type: TypeMarket, Price: price}
}

func TestPaperBrokerBuyOpensPosition(t *testing.T) {
	b := NewPaperBroker(0, nil)
	ctx := context.Background()

	receipt, err := b.PlaceOrder(ctx, marketBuy("gme", 10, 100))
	require.NoError(t, err)

	assert.Equal(t, StatusFilled, receipt.Status)
	assert.Equal(t, "GME", receipt.Symbol)
	assert.Equal(t, 10.0, receipt.FilledQuantity)
	assert.Equal(t, 100.0, receipt.AveragePrice)
	assert.Equal(t, "paper_1", receipt.OrderID)

	account, err := b.Account(ctx)
	require.NoError(t, err)
	assert.Equal(t, 99000.0, account.BuyingPower)
	assert.Equal(t, 100000.0, account.TotalValue)

	require.Len(t, account.Positions, 1)
	pos := account.Positions[0]
	assert.Equal(t, "GME", pos.Symbol)
	assert.Equal(t, 10.0, pos.Quantity)
	assert.Equal(t, 100.0, pos.AveragePrice)
	assert.Equal(t, 1000.0, pos.MarketValue)
	assert.Equal(t, 0.0, pos.UnrealizedPnL)
}

func TestPaperBrokerAveragesCost(t *testing.T) {
	b := NewPaperBroker(0, nil)
	ctx := context.Background()

	_, err := b.PlaceOrder(ctx, marketBuy("GME", 10, 100))
	require.NoError(t, err)
	_, err = b.PlaceOrder(ctx, marketBuy("GME", 10, 110))
	require.NoError(t, err)

	positions, err := b.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	pos := positions[0]
	assert.Equal(t, 20.0, pos.Quantity)
	assert.Equal(t, 105.0, pos.AveragePrice)
	assert.Equal(t, 2200.0, pos.MarketValue)
	assert.Equal(t, 100.0, pos.UnrealizedPnL)
}

func TestPaperBrokerInsufficientFunds(t *testing.T) {
	b := NewPaperBroker(500, nil)
	ctx := context.Background()

	receipt, err := b.PlaceOrder(ctx, marketBuy("GME", 10, 100))
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, receipt.Status)
	assert.Equal(t, "Insufficient buying power", receipt.Message)
	assert.Zero(t, receipt.FilledQuantity)

	account, err := b.Account(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500.0, account.BuyingPower)
	assert.Empty(t, account.Positions)
}

func TestPaperBrokerSellReducesAndCloses(t *testing.T) {
	b := NewPaperBroker(0, nil)
	ctx := context.Background()

	_, err := b.PlaceOrder(ctx, marketBuy("GME", 10, 100))
	require.NoError(t, err)

	receipt, err := b.PlaceOrder(ctx, marketSell("GME", 4, 110))
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, receipt.Status)

	positions, err := b.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 6.0, positions[0].Quantity)
	assert.Equal(t, 100.0, positions[0].AveragePrice)
	assert.Equal(t, 660.0, positions[0].MarketValue)
	assert.Equal(t, 60.0, positions[0].UnrealizedPnL)

	_, err = b.PlaceOrder(ctx, marketSell("GME", 6, 90))
	require.NoError(t, err)

	positions, err = b.Positions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)

	account, err := b.Account(ctx)
	require.NoError(t, err)
	assert.Equal(t, 99980.0, account.BuyingPower)
	assert.Equal(t, 99980.0, account.TotalValue)
}

func TestPaperBrokerSellWithoutShares(t *testing.T) {
	b := NewPaperBroker(0, nil)

	receipt, err := b.PlaceOrder(context.Background(), marketSell("GME", 1, 100))
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, receipt.Status)
	assert.Equal(t, "Insufficient shares", receipt.Message)
}

func TestPaperBrokerFillsAtQuotedPrice(t *testing.T) {
	quotes := stubQuotes{prices: map[string]float64{"GME": 42.5}}
	b := NewPaperBroker(0, quotes)

	receipt, err := b.PlaceOrder(context.Background(), marketBuy("GME", 10, 0))
	require.NoError(t, err)

	assert.Equal(t, StatusFilled, receipt.Status)
	assert.Equal(t, 42.5, receipt.AveragePrice)
}

func TestPaperBrokerRejectsUnpricedOrder(t *testing.T) {
	b := NewPaperBroker(0, nil)

	receipt, err := b.PlaceOrder(context.Background(), marketBuy("GME", 10, 0))
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, receipt.Status)
	assert.Contains(t, receipt.Message, "no price available")
}

func TestPaperBrokerLimitOrderLifecycle(t *testing.T) {
	b := NewPaperBroker(0, nil)
	ctx := context.Background()

	receipt, err := b.PlaceOrder(ctx, Order{
		Symbol: "GME", Side: SideBuy, Quantity: 5, Type: TypeLimit, Price: 95,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, receipt.Status)

	require.NoError(t, b.CancelOrder(ctx, receipt.OrderID))

	err = b.CancelOrder(ctx, receipt.OrderID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not pending")

	assert.Error(t, b.CancelOrder(ctx, "paper_999"))
}

func TestPaperBrokerValidatesOrders(t *testing.T) {
	b := NewPaperBroker(0, nil)
	ctx := context.Background()

	_, err := b.PlaceOrder(ctx, marketBuy("  ", 10, 100))
	assert.Error(t, err)

	_, err = b.PlaceOrder(ctx, marketBuy("GME", 0, 100))
	assert.Error(t, err)

	_, err = b.PlaceOrder(ctx, Order{Symbol: "GME", Side: "hold", Quantity: 1, Type: TypeMarket})
	assert.Error(t, err)
}

func TestPaperBrokerAuthenticate(t *testing.T) {
	b := NewPaperBroker(0, nil)
	assert.NoError(t, b.Authenticate(context.Background()))
}
