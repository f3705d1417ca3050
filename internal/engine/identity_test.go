package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KailasMahavarkar/syncboard/internal/event"
)

type nopSink struct{}

func (nopSink) Deliver(event.Outbound) bool { return true }

func TestRegistry_RegisterAssignsUniqueIdentities(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	a := registry.Register(nopSink{})
	b := registry.Register(nopSink{})

	req.NotEmpty(a)
	req.NotEqual(a, b)
	req.Equal(2, registry.Count())

	_, ok := registry.Lookup(a)
	req.True(ok)
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	id := registry.Register(nopSink{})
	req.True(registry.Unregister(id))
	req.False(registry.Unregister(id))
	req.Zero(registry.Count())

	_, ok := registry.Lookup(id)
	req.False(ok)
}
