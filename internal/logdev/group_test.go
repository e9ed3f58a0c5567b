package logdev

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogGroupFinishRoundTrips(t *testing.T) {
	g := newLogGroup(10, 100, 1<<20, 8, 0xdeadbeef)
	require.True(t, g.addRecord(10, 1, 100, []byte("short")))      // inline
	require.True(t, g.addRecord(11, 1, 101, []byte("a much longer payload than the threshold"))) // oob

	iovecs, meta := g.finish()
	require.Equal(t, LogIdx(10), meta.startIdx)
	require.EqualValues(t, 2, meta.nrecords)

	full := flatten(iovecs)
	hdr := Header(full)
	require.True(t, hdr.Valid())
	require.Equal(t, LogIdx(10), hdr.StartIdx())
	require.EqualValues(t, 2, hdr.NRecords())
	require.Equal(t, uint32(0xdeadbeef), hdr.PrevGrpCRC())
	require.Equal(t, meta.crc, hdr.CurGrpCRC())
	require.Equal(t, computeGroupCRC(full), hdr.CurGrpCRC())

	d0 := hdr.Descriptor(0)
	require.True(t, d0.IsInlined())
	off0 := d0.DataOffset(hdr.OOBDataOffset())
	require.Equal(t, "short", string(full[off0:off0+d0.Size()]))

	d1 := hdr.Descriptor(1)
	require.False(t, d1.IsInlined())
	off1 := d1.DataOffset(hdr.OOBDataOffset())
	require.Equal(t, "a much longer payload than the threshold", string(full[off1:off1+d1.Size()]))
}

func TestLogGroupRejectsRecordsPastMaxRecords(t *testing.T) {
	g := newLogGroup(0, 1, 1<<20, 64, 0)
	require.True(t, g.addRecord(0, 1, 0, []byte("one")))
	require.False(t, g.addRecord(1, 1, 1, []byte("two")))
}

func TestLogGroupAlwaysAcceptsFirstRecordEvenIfOversized(t *testing.T) {
	g := newLogGroup(0, 100, 16, 64, 0)
	require.True(t, g.addRecord(0, 1, 0, make([]byte, 1000)))
	require.False(t, g.addRecord(1, 1, 1, []byte("x")))
}

func flatten(iovecs [][]byte) []byte {
	var total int
	for _, iov := range iovecs {
		total += len(iov)
	}
	out := make([]byte, 0, total)
	for _, iov := range iovecs {
		out = append(out, iov...)
	}
	return out
}
