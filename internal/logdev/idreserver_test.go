package logdev

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDReserverReserveIsDenseAndLowestFirst(t *testing.T) {
	r := newIDReserver()
	a := r.reserve()
	b := r.reserve()
	c := r.reserve()
	require.Equal(t, []uint32{0, 1, 2}, []uint32{a, b, c})
}

func TestIDReserverUnreserveParksUntilTruncate(t *testing.T) {
	r := newIDReserver()
	id := r.reserve()
	r.unreserve(id, 50)

	require.True(t, r.isReserved(id), "parked id stays reserved until truncated past its watermark")
	require.Empty(t, r.activeIDs(), "a garbage id should not be reported as active")

	freed := r.truncate(49)
	require.Empty(t, freed)
	require.True(t, r.isReserved(id))

	freed = r.truncate(50)
	require.Equal(t, []uint32{id}, freed)
	require.False(t, r.isReserved(id))
}

func TestIDReserverReusesFreedID(t *testing.T) {
	r := newIDReserver()
	id := r.reserve()
	r.unreserve(id, 0)
	r.truncate(0)

	next := r.reserve()
	require.Equal(t, id, next)
}
