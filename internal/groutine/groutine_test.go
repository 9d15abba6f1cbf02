package groutine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGo_NamesContext(t *testing.T) {
	got := make(chan string, 1)

	Go(nil, "advertiser", func(ctx context.Context) {
		got <- GetName(ctx)
	})

	assert.Equal(t, "advertiser", <-got)
}

func TestGoWG_Waits(t *testing.T) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	names := map[string]bool{}

	for _, name := range []string{"a", "b", "c"} {
		GoWG(context.Background(), &wg, name, func(ctx context.Context) {
			mu.Lock()
			names[GetName(ctx)] = true
			mu.Unlock()
		})
	}
	wg.Wait()

	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, names)
}

func TestGetName_Unnamed(t *testing.T) {
	assert.Empty(t, GetName(context.Background()))
	//nolint:staticcheck // nil context is part of the contract
	assert.Empty(t, GetName(nil))
}
