package blockdevice

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileDeviceAllocIsAlignedToDMABoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.data")
	d, err := Open(Options{Path: path, DMABoundary: 512})
	require.NoError(t, err)
	defer d.Close()

	off1, err := d.AllocNextAppendBlk(100)
	require.NoError(t, err)
	require.EqualValues(t, 0, off1)

	off2, err := d.AllocNextAppendBlk(10)
	require.NoError(t, err)
	require.EqualValues(t, 512, off2)
}

func TestFileDeviceAllocRespectsCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.data")
	d, err := Open(Options{Path: path, DMABoundary: 512, Capacity: 1024})
	require.NoError(t, err)
	defer d.Close()

	_, err = d.AllocNextAppendBlk(1024)
	require.NoError(t, err)

	_, err = d.AllocNextAppendBlk(1)
	require.ErrorIs(t, err, ErrOutOfSpace)
}

func TestFileDevicePwritevThenPread(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.data")
	d, err := Open(Options{Path: path, DMABoundary: 512})
	require.NoError(t, err)
	defer d.Close()

	off, err := d.AllocNextAppendBlk(20)
	require.NoError(t, err)

	done := make(chan error, 1)
	d.PwritevAsync([][]byte{[]byte("hello "), []byte("world")}, off, func(err error) {
		done <- err
	})
	require.NoError(t, <-done)

	buf := make([]byte, 11)
	n, err := d.Pread(buf, off)
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.Equal(t, "hello world", string(buf))
}

func TestFileDeviceUpdateTailOffsetMovesNextAlloc(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.data")
	d, err := Open(Options{Path: path, DMABoundary: 512})
	require.NoError(t, err)
	defer d.Close()

	d.UpdateTailOffset(4096)
	off, err := d.AllocNextAppendBlk(100)
	require.NoError(t, err)
	require.EqualValues(t, 4096, off)
}

func TestFileDeviceSeekTracksSeekedPos(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.data")
	d, err := Open(Options{Path: path})
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Seek(2048))
	require.EqualValues(t, 2048, d.SeekedPos())
}
