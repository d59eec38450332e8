package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/pkg/logger"
)

// DefaultName is the broker used when a request names none.
const DefaultName = "paper"

// Manager is a registry of broker connections with a default route.
type Manager struct {
	mu      sync.RWMutex
	brokers map[string]Broker
	def     string
	logger  *logger.Logger
}

// NewManager creates an empty broker registry.
func NewManager(log *logger.Logger) *Manager {
	return &Manager{
		brokers: make(map[string]Broker),
		def:     DefaultName,
		logger:  log.WithField("module", "broker"),
	}
}

// NewDefaultManager builds a registry with the paper broker installed
// as the default. quotes prices paper market orders.
func NewDefaultManager(quotes contracts.MarketDataProvider, log *logger.Logger) *Manager {
	m := NewManager(log)
	m.Add(DefaultName, NewPaperBroker(defaultInitialBalance, quotes))
	return m
}

// Add registers a broker under a name, replacing any existing one.
func (m *Manager) Add(name string, broker Broker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.brokers[name] = broker
	m.logger.WithField("broker", name).Info("Broker registered")
}

// SetDefault routes unnamed requests to the given broker.
func (m *Manager) SetDefault(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.brokers[name]; !ok {
		return fmt.Errorf("broker %s not found", name)
	}
	m.def = name
	m.logger.WithField("broker", name).Info("Default broker set")
	return nil
}

// Broker resolves a broker by name; an empty name means the default.
func (m *Manager) Broker(name string) (Broker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if name == "" {
		name = m.def
	}
	broker, ok := m.brokers[name]
	if !ok {
		return nil, fmt.Errorf("broker %s not found", name)
	}
	return broker, nil
}

// PlaceOrder authenticates and places an order with the named broker,
// or the default when name is empty.
func (m *Manager) PlaceOrder(ctx context.Context, order Order, name string) (*OrderReceipt, error) {
	broker, err := m.Broker(name)
	if err != nil {
		return nil, err
	}

	if err := broker.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("broker authentication failed: %w", err)
	}
	return broker.PlaceOrder(ctx, order)
}

// Account fetches account state from the named broker, or the default
// when name is empty.
func (m *Manager) Account(ctx context.Context, name string) (*Account, error) {
	broker, err := m.Broker(name)
	if err != nil {
		return nil, err
	}
	return broker.Account(ctx)
}
