package logdev

import "fmt"

// Read performs a positional read of the record identified by key. Unlike
// the recovery scanner, a magic or CRC mismatch here is always fatal: a
// caller presenting a key it was handed by AppendCompletionFunc expects the
// data to still be exactly what was written.
func (ld *LogDev) Read(key Key) ([]byte, error) {
	hdrBuf := make([]byte, headerSize)
	if _, err := ld.dev.Pread(hdrBuf, key.DevOffset); err != nil {
		return nil, fmt.Errorf("logdev: read header at %d: %w", key.DevOffset, err)
	}
	hdr := Header(hdrBuf)
	if !hdr.Valid() {
		return nil, fmt.Errorf("logdev: read at %d: invalid group header", key.DevOffset)
	}

	full := make([]byte, hdr.GroupSize())
	if _, err := ld.dev.Pread(full, key.DevOffset); err != nil {
		return nil, fmt.Errorf("logdev: read group at %d: %w", key.DevOffset, err)
	}
	fullHdr := Header(full)
	if fullHdr.CurGrpCRC() != computeGroupCRC(full) {
		return nil, fmt.Errorf("logdev: read at %d: crc mismatch, group corrupt", key.DevOffset)
	}

	end := fullHdr.StartIdx() + LogIdx(fullHdr.NRecords())
	if key.Idx < fullHdr.StartIdx() || key.Idx >= end {
		return nil, fmt.Errorf("logdev: read at %d: idx %d not in group [%d,%d)", key.DevOffset, key.Idx, fullHdr.StartIdx(), end)
	}

	d := fullHdr.Descriptor(uint32(key.Idx - fullHdr.StartIdx()))
	off, size := d.DataOffset(fullHdr.OOBDataOffset()), d.Size()
	if uint64(off)+uint64(size) > uint64(len(full)) {
		return nil, fmt.Errorf("logdev: read at %d: descriptor out of bounds", key.DevOffset)
	}

	out := make([]byte, size)
	copy(out, full[off:off+size])
	return out, nil
}
