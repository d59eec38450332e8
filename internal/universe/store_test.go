package universe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/redis"
)

func disabledStore() *Store {
	client, _ := redis.New(config.RedisConfig{Enabled: false})
	return NewStore(client)
}

func TestStoreUnavailableWhenRedisDisabled(t *testing.T) {
	store := disabledStore()
	ctx := context.Background()

	_, err := store.ActiveSymbols(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.ErrorIs(t, store.Add(ctx, "GME"), ErrUnavailable)
	assert.ErrorIs(t, store.Remove(ctx, "GME"), ErrUnavailable)

	_, err = store.Size(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = store.LoadFile(ctx, "does-not-matter.csv")
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.Error(t, store.Ping(ctx))
}

func TestAddRejectsEmptySymbol(t *testing.T) {
	store := disabledStore()

	err := store.Add(context.Background(), "   ")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestSeedEmptyPathIsNoOp(t *testing.T) {
	store := disabledStore()

	added, err := store.Seed(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestSeedPropagatesStoreFailure(t *testing.T) {
	store := disabledStore()

	_, err := store.Seed(context.Background(), "symbols.csv")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestParseSymbols(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "one per line",
			input: "gme\namc\nbb\n",
			want:  []string{"GME", "AMC", "BB"},
		},
		{
			name:  "comma separated",
			input: "GME, amc ,BB",
			want:  []string{"GME", "AMC", "BB"},
		},
		{
			name:  "comments and blanks skipped",
			input: "# meme basket\n\nGME\n  \nAMC\n",
			want:  []string{"GME", "AMC"},
		},
		{
			name:  "header row skipped",
			input: "symbol\nGME\nAMC\n",
			want:  []string{"GME", "AMC"},
		},
		{
			name:  "duplicates collapsed",
			input: "GME\ngme\nGME\n",
			want:  []string{"GME"},
		},
		{
			name:  "windows line endings",
			input: "GME\r\nAMC\r\n",
			want:  []string{"GME", "AMC"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSymbols([]byte(tt.input)))
		})
	}
}
