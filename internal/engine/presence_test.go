package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresence_AddIsIdempotent(t *testing.T) {
	req := require.New(t)
	p := NewPresence()

	req.True(p.Add("alice"))
	req.False(p.Add("alice"))
	req.Equal(1, p.Size())
	req.True(p.Contains("alice"))
}

func TestPresence_RemoveReportsMembership(t *testing.T) {
	req := require.New(t)
	p := NewPresence()

	p.Add("alice")
	p.Add("bob")

	req.True(p.Remove("alice"))
	req.False(p.Remove("alice"))
	req.Equal(1, p.Size())
	req.False(p.Contains("alice"))
	req.Equal([]string{"bob"}, p.Members())
}

func TestPresence_JoinLeavePairNetsToZero(t *testing.T) {
	req := require.New(t)
	p := NewPresence()

	p.Add("alice")
	p.Remove("alice")
	req.Zero(p.Size())
	req.Empty(p.Members())
}
