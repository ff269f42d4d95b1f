package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

func TestConfigStore_InterfaceCompliance(t *testing.T) {
	var store driven.ConfigStore = NewConfigStore()
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_Getters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("oracle.provider", "gemini"))
	require.NoError(t, store.Set("server.port", int64(8080)))
	require.NoError(t, store.Set("oracle.requests_per_minute", float64(15)))
	require.NoError(t, store.Set("policy.watch", true))
	require.NoError(t, store.Set("server.allowed_origins", []any{"https://a.example", 7, "https://b.example"}))
	require.NoError(t, store.Set("oracle.timeout", "45s"))
	require.NoError(t, store.Set("store.redis_ttl", 3600))

	assert.Equal(t, "gemini", store.GetString("oracle.provider"))
	assert.Equal(t, 8080, store.GetInt("server.port"))
	assert.Equal(t, 15, store.GetInt("oracle.requests_per_minute"))
	assert.True(t, store.GetBool("policy.watch"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, store.GetStringSlice("server.allowed_origins"))
	assert.Equal(t, 45*time.Second, store.GetDuration("oracle.timeout"))
	assert.Equal(t, time.Hour, store.GetDuration("store.redis_ttl"))
}

func TestConfigStore_MissingAndMistyped(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("server.port", "not a number"))
	require.NoError(t, store.Set("oracle.timeout", "soon"))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"missing string", store.GetString("missing"), ""},
		{"missing int", store.GetInt("missing"), 0},
		{"missing bool", store.GetBool("missing"), false},
		{"missing slice", store.GetStringSlice("missing"), []string(nil)},
		{"missing duration", store.GetDuration("missing"), time.Duration(0)},
		{"string as int", store.GetInt("server.port"), 0},
		{"string as bool", store.GetBool("server.port"), false},
		{"bad duration", store.GetDuration("oracle.timeout"), time.Duration(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key.%d", n))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key.%d", i)))
	}
}
