package broker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wonny/flashpoint/internal/contracts"
)

const defaultInitialBalance = 100_000.0

// PaperBroker simulates execution in memory: market orders fill
// immediately at the quoted price, limit and stop orders sit pending.
// Positions carry average cost; cash moves on every fill.
type PaperBroker struct {
	mu        sync.Mutex
	cash      float64
	positions map[string]*Position
	orders    map[string]*OrderReceipt
	counter   int
	quotes    contracts.MarketDataProvider
}

// NewPaperBroker creates a paper broker with the given starting cash.
// A balance of zero or less uses the default. quotes prices market
// orders; with a nil provider only explicitly priced orders fill.
func NewPaperBroker(balance float64, quotes contracts.MarketDataProvider) *PaperBroker {
	if balance <= 0 {
		balance = defaultInitialBalance
	}
	return &PaperBroker{
		cash:      balance,
		positions: make(map[string]*Position),
		orders:    make(map[string]*OrderReceipt),
		quotes:    quotes,
	}
}

// Authenticate always succeeds for the paper broker.
func (b *PaperBroker) Authenticate(ctx context.Context) error {
	return nil
}

// PlaceOrder validates and executes an order. Business rejections
// (insufficient funds or shares) come back as rejected receipts.
func (b *PaperBroker) PlaceOrder(ctx context.Context, order Order) (*OrderReceipt, error) {
	order.Symbol = strings.ToUpper(strings.TrimSpace(order.Symbol))
	if order.Symbol == "" {
		return nil, errors.New("order symbol is required")
	}
	if order.Quantity <= 0 {
		return nil, errors.New("order quantity must be positive")
	}
	if order.Side != SideBuy && order.Side != SideSell {
		return nil, fmt.Errorf("unknown order side: %q", order.Side)
	}
	if order.Type == "" {
		order.Type = TypeMarket
	}

	// Resolve the fill price before taking the lock; the quote fetch
	// can block.
	var price float64
	var priceErr error
	if order.Type == TypeMarket {
		price, priceErr = b.fillPrice(ctx, order)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.counter++
	receipt := &OrderReceipt{
		OrderID:   fmt.Sprintf("paper_%d", b.counter),
		Symbol:    order.Symbol,
		Side:      order.Side,
		Quantity:  order.Quantity,
		Timestamp: time.Now(),
	}

	switch {
	case order.Type != TypeMarket:
		receipt.Status = StatusPending

	case priceErr != nil:
		receipt.Status = StatusRejected
		receipt.Message = priceErr.Error()

	case order.Side == SideBuy:
		b.fillBuy(receipt, order, price)

	default:
		b.fillSell(receipt, order, price)
	}

	b.orders[receipt.OrderID] = receipt
	return receipt, nil
}

func (b *PaperBroker) fillPrice(ctx context.Context, order Order) (float64, error) {
	if order.Price > 0 {
		return order.Price, nil
	}
	if b.quotes == nil {
		return 0, errors.New("no price available")
	}

	md, err := b.quotes.FetchSnapshot(ctx, order.Symbol)
	if err != nil {
		return 0, fmt.Errorf("no price available: %v", err)
	}
	return md.Price, nil
}

func (b *PaperBroker) fillBuy(receipt *OrderReceipt, order Order, price float64) {
	cost := order.Quantity * price
	if cost > b.cash {
		receipt.Status = StatusRejected
		receipt.Message = "Insufficient buying power"
		return
	}

	b.cash -= cost

	if pos, ok := b.positions[order.Symbol]; ok {
		totalCost := pos.Quantity*pos.AveragePrice + cost
		totalQty := pos.Quantity + order.Quantity
		avg := totalCost / totalQty

		b.positions[order.Symbol] = &Position{
			Symbol:        order.Symbol,
			Quantity:      totalQty,
			AveragePrice:  avg,
			MarketValue:   totalQty * price,
			UnrealizedPnL: (price - avg) * totalQty,
		}
	} else {
		b.positions[order.Symbol] = &Position{
			Symbol:       order.Symbol,
			Quantity:     order.Quantity,
			AveragePrice: price,
			MarketValue:  cost,
		}
	}

	receipt.Status = StatusFilled
	receipt.FilledQuantity = order.Quantity
	receipt.AveragePrice = price
}

func (b *PaperBroker) fillSell(receipt *OrderReceipt, order Order, price float64) {
	pos, ok := b.positions[order.Symbol]
	if !ok || pos.Quantity < order.Quantity {
		receipt.Status = StatusRejected
		receipt.Message = "Insufficient shares"
		return
	}

	b.cash += order.Quantity * price

	remaining := pos.Quantity - order.Quantity
	if remaining > 0 {
		b.positions[order.Symbol] = &Position{
			Symbol:        order.Symbol,
			Quantity:      remaining,
			AveragePrice:  pos.AveragePrice,
			MarketValue:   remaining * price,
			UnrealizedPnL: (price - pos.AveragePrice) * remaining,
		}
	} else {
		delete(b.positions, order.Symbol)
	}

	receipt.Status = StatusFilled
	receipt.FilledQuantity = order.Quantity
	receipt.AveragePrice = price
}

// CancelOrder cancels a pending order.
func (b *PaperBroker) CancelOrder(ctx context.Context, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	receipt, ok := b.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s not found", orderID)
	}
	if receipt.Status != StatusPending {
		return fmt.Errorf("order %s is %s, not pending", orderID, receipt.Status)
	}

	receipt.Status = StatusCancelled
	return nil
}

// Account reports cash plus the value of open positions.
func (b *PaperBroker) Account(ctx context.Context) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	positions := b.positionList()
	total := b.cash
	for _, pos := range positions {
		total += pos.MarketValue
	}

	return &Account{
		BuyingPower: b.cash,
		TotalValue:  total,
		Positions:   positions,
	}, nil
}

// Positions lists open positions sorted by symbol.
func (b *PaperBroker) Positions(ctx context.Context) ([]Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.positionList(), nil
}

func (b *PaperBroker) positionList() []Position {
	positions := make([]Position, 0, len(b.positions))
	for _, pos := range b.positions {
		positions = append(positions, *pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
	return positions
}
