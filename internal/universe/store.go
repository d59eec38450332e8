package universe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/wonny/flashpoint/pkg/redis"
)

// universeKey is the Redis SET holding the active symbols.
const universeKey = "flashpoint:universe"

// ErrUnavailable is returned when the store cannot reach Redis,
// including when Redis is disabled by configuration.
var ErrUnavailable = errors.New("universe store unavailable")

// Store keeps the active symbol universe in a Redis SET.
type Store struct {
	client *redis.Client
}

// NewStore creates a universe store on the given Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// ActiveSymbols returns the universe in sorted order.
func (s *Store) ActiveSymbols(ctx context.Context) ([]string, error) {
	if !s.client.Enabled() {
		return nil, ErrUnavailable
	}

	symbols, err := s.client.Redis().SMembers(ctx, universeKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sort.Strings(symbols)
	return symbols, nil
}

// Add inserts a symbol into the universe.
func (s *Store) Add(ctx context.Context, symbol string) error {
	symbol = normalize(symbol)
	if symbol == "" {
		return errors.New("empty symbol")
	}
	if !s.client.Enabled() {
		return ErrUnavailable
	}

	if err := s.client.Redis().SAdd(ctx, universeKey, symbol).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Remove deletes a symbol from the universe. Removing a symbol that is
// not present is not an error.
func (s *Store) Remove(ctx context.Context, symbol string) error {
	symbol = normalize(symbol)
	if symbol == "" {
		return errors.New("empty symbol")
	}
	if !s.client.Enabled() {
		return ErrUnavailable
	}

	if err := s.client.Redis().SRem(ctx, universeKey, symbol).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Size returns the number of symbols in the universe.
func (s *Store) Size(ctx context.Context) (int64, error) {
	if !s.client.Enabled() {
		return 0, ErrUnavailable
	}

	size, err := s.client.Redis().SCard(ctx, universeKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return size, nil
}

// Ping reports whether the backing Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Seed loads symbols from a CSV file only when the universe is empty,
// so a configured seed file never clobbers a curated set. An empty
// path is a no-op. Returns the number of symbols added.
func (s *Store) Seed(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, nil
	}

	size, err := s.Size(ctx)
	if err != nil {
		return 0, err
	}
	if size > 0 {
		return 0, nil
	}

	return s.LoadFile(ctx, path)
}

// LoadFile parses a CSV file of symbols and adds them all to the
// universe. Returns the number of symbols newly added.
func (s *Store) LoadFile(ctx context.Context, path string) (int, error) {
	if !s.client.Enabled() {
		return 0, ErrUnavailable
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	symbols := parseSymbols(data)
	if len(symbols) == 0 {
		return 0, nil
	}

	members := make([]interface{}, len(symbols))
	for i, sym := range symbols {
		members[i] = sym
	}

	added, err := s.client.Redis().SAdd(ctx, universeKey, members...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(added), nil
}

// parseSymbols reads symbols from CSV text: one per line or
// comma-separated, blank lines and # comments skipped.
func parseSymbols(data []byte) []string {
	var symbols []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		for _, field := range strings.Split(line, ",") {
			symbol := normalize(field)
			if symbol == "" || seen[symbol] {
				continue
			}
			// Tolerate a header row.
			if symbol == "SYMBOL" || symbol == "TICKER" {
				continue
			}
			seen[symbol] = true
			symbols = append(symbols, symbol)
		}
	}

	return symbols
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
