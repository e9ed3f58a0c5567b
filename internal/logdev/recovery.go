package logdev

import (
	"errors"
	"fmt"

	"github.com/rzbill/logdev/pkg/log"
)

// ErrCorrupt is returned by recover when the device holds data that cannot
// be reconciled with a clean end of log, rather than merely unwritten space.
var ErrCorrupt = errors.New("logdev: corrupt")

// recover sequentially replays the device from its persisted start offset,
// rebuilding the next LogIdx to allocate, the device offset to resume
// appending at, and the CRC chain anchor for the next LogGroup. It invokes
// logFoundCB once per recovered record, in ascending idx order.
func (ld *LogDev) recover() (nextIdx LogIdx, tailOffset uint64, prevCRC uint32, err error) {
	startOffset := ld.sb.getStartDevOffset()
	if err := ld.dev.Seek(startOffset); err != nil {
		return 0, 0, 0, fmt.Errorf("logdev: recovery seek: %w", err)
	}

	lastValidEnd := startOffset
	lastIdx := LogIdx(-1)
	var lastCRC uint32

	hdrBuf := make([]byte, headerSize)
	for {
		pos := ld.dev.SeekedPos()
		n, rerr := ld.dev.Pread(hdrBuf, pos)
		if rerr != nil || n < headerSize {
			break
		}
		hdr := Header(hdrBuf)
		if !hdr.Valid() {
			break
		}

		groupSize := hdr.GroupSize()
		full := make([]byte, groupSize)
		if _, rerr := ld.dev.Pread(full, pos); rerr != nil {
			break
		}
		fullHdr := Header(full)

		if fullHdr.CurGrpCRC() != computeGroupCRC(full) {
			ld.log.Warn("logdev: recovery scan stopped on crc mismatch", log.Uint64("offset", pos))
			break
		}
		if lastIdx >= 0 && fullHdr.PrevGrpCRC() != lastCRC {
			ld.log.Warn("logdev: recovery scan stopped on broken crc chain", log.Uint64("offset", pos))
			break
		}

		ld.replayGroup(fullHdr, full, pos)

		lastIdx = fullHdr.StartIdx() + LogIdx(fullHdr.NRecords()) - 1
		lastCRC = fullHdr.CurGrpCRC()
		lastValidEnd = pos + roundUpSize(uint64(groupSize), ld.dev.DMABoundary())

		if err := ld.dev.Seek(lastValidEnd); err != nil {
			break
		}
	}

	nextIdx = lastIdx + 1
	if err := ld.checkPostTailCorruption(lastValidEnd, nextIdx); err != nil {
		return 0, 0, 0, err
	}

	return nextIdx, lastValidEnd, lastCRC, nil
}

// computeGroupCRC recomputes cur_grp_crc over a fully materialized group
// buffer the same way logGroup.finish does: every byte following the fixed
// header, never the header itself.
func computeGroupCRC(full []byte) uint32 {
	return crc32c(full[headerSize:])
}

// replayGroup invokes logFoundCB for each record in a recovered group.
func (ld *LogDev) replayGroup(hdr Header, full []byte, groupOffset uint64) {
	if ld.logFoundCB == nil {
		return
	}
	oobOffset := hdr.OOBDataOffset()
	for i := uint32(0); i < hdr.NRecords(); i++ {
		d := hdr.Descriptor(i)
		off := d.DataOffset(oobOffset)
		size := d.Size()
		if uint64(off)+uint64(size) > uint64(len(full)) {
			continue
		}
		payload := full[off : off+size]
		idx := hdr.StartIdx() + LogIdx(i)
		ld.logFoundCB(d.StoreID(), d.StoreSeqNum(), Key{Idx: idx, DevOffset: groupOffset}, payload)
	}
}

// checkPostTailCorruption reads a few blocks past a recovered tail looking
// for a group header that the sequential scan should have consumed but
// didn't. A legitimate end-of-log looks exactly like never-written device
// space; ordinary non-zero leftovers from a torn or overwritten write are
// benign since the scan already stopped at the last good group boundary.
// What isn't benign is a page that still parses as a valid group header
// whose start_idx is at or past nextIdx: that can only mean the sequential
// scan gave up early on a group it should have replayed, so recovery
// cannot trust what it reconstructed and must fail rather than silently
// truncate the log.
func (ld *LogDev) checkPostTailCorruption(offset uint64, nextIdx LogIdx) error {
	boundary := ld.dev.DMABoundary()
	if boundary == 0 {
		boundary = 4096
	}
	maxBlks := int(ld.cfg.RecoveryMaxBlksReadForAdditionalCheck)
	for i := 0; i < maxBlks; i++ {
		pos := offset + uint64(i)*boundary
		hdrBuf := make([]byte, headerSize)
		n, err := ld.dev.Pread(hdrBuf, pos)
		if err != nil || n < headerSize {
			return nil
		}
		hdr := Header(hdrBuf)
		if hdr.Valid() {
			if hdr.StartIdx() >= nextIdx {
				return fmt.Errorf("logdev: %w: future-idx group header at offset %d (start_idx=%d, recovered next_idx=%d)", ErrCorrupt, pos, hdr.StartIdx(), nextIdx)
			}
			continue
		}
		for _, b := range hdrBuf[:n] {
			if b != 0 {
				ld.log.Warn("logdev: non-zero bytes found past the recovered tail; treating as benign since they do not parse as a group header", log.Uint64("offset", pos))
				break
			}
		}
	}
	return nil
}
