package logdev

// pendingRecord is one record admitted into a logGroup before it has been
// serialized into the group's wire buffer.
type pendingRecord struct {
	idx     LogIdx
	storeID uint32
	seqNum  uint64
	payload []byte
	inlined bool
}

// groupMeta summarizes a finished logGroup, enough for the flush coordinator
// to update bookkeeping without re-parsing the wire buffer.
type groupMeta struct {
	startIdx  LogIdx
	nrecords  uint32
	totalSize uint32
	crc       uint32
}

// logGroup accumulates records into a single LogGroup wire image: one
// header, one block of per-record descriptors, an inline payload region for
// small records, and an out-of-band region for large ones. It
// never copies a record's payload — the finished iovec list references the
// original slices directly, so the caller must keep them alive until the
// device write completes.
type logGroup struct {
	startIdx        LogIdx
	maxRecords      uint32
	maxGroupSize    uint32
	inlineThreshold uint32
	prevGrpCRC      uint32

	records    []pendingRecord
	inlineSize uint32
	oobSize    uint32
}

func newLogGroup(startIdx LogIdx, maxRecords, maxGroupSize, inlineThreshold uint32, prevGrpCRC uint32) *logGroup {
	return &logGroup{
		startIdx:        startIdx,
		maxRecords:      maxRecords,
		maxGroupSize:    maxGroupSize,
		inlineThreshold: inlineThreshold,
		prevGrpCRC:      prevGrpCRC,
	}
}

// empty reports whether no record has been admitted yet.
func (g *logGroup) empty() bool { return len(g.records) == 0 }

// projectedSize returns the on-disk size the group would have if a record
// of payloadLen bytes were admitted next.
func (g *logGroup) projectedSize(payloadLen int) uint32 {
	hdrDesc := headerSize + (len(g.records)+1)*descriptorSize
	return uint32(hdrDesc) + g.inlineSize + g.oobSize + uint32(payloadLen)
}

// addRecord admits a record into the group. It returns false — without
// mutating the group — if doing so would exceed the descriptor capacity or
// the maximum group size; an empty group accepts its first record even past
// the size cap, so a single oversized record cannot wedge the flush
// coordinator forever.
func (g *logGroup) addRecord(idx LogIdx, storeID uint32, seqNum uint64, payload []byte) bool {
	if uint32(len(g.records)) >= g.maxRecords {
		return false
	}
	if !g.empty() && g.projectedSize(len(payload)) > g.maxGroupSize {
		return false
	}
	inlined := uint32(len(payload)) <= g.inlineThreshold
	g.records = append(g.records, pendingRecord{idx: idx, storeID: storeID, seqNum: seqNum, payload: payload, inlined: inlined})
	if inlined {
		g.inlineSize += uint32(len(payload))
	} else {
		g.oobSize += uint32(len(payload))
	}
	return true
}

// finish serializes the group's header and descriptor block and returns the
// full ordered iovec list for a single vectored write: the header block
// first, followed by each record's payload in the order inline records were
// admitted, followed by each out-of-band record's payload. It also returns
// the group's summary metadata for the caller's bookkeeping.
func (g *logGroup) finish() (iovecs [][]byte, meta groupMeta) {
	n := len(g.records)
	hdrDescLen := headerSize + n*descriptorSize
	buf := make([]byte, hdrDescLen)
	hdr := Header(buf)

	iovecs = make([][]byte, 0, n+1)
	iovecs = append(iovecs, buf)

	inlineDataOffset := uint32(hdrDescLen)
	inlineCursor := inlineDataOffset
	for i, r := range g.records {
		if !r.inlined {
			continue
		}
		d := hdr.Descriptor(uint32(i))
		d.SetSize(uint32(len(r.payload)))
		d.SetOffset(inlineCursor)
		d.SetStoreID(r.storeID)
		d.SetStoreSeqNum(r.seqNum)
		d.SetIsInlined(true)
		iovecs = append(iovecs, r.payload)
		inlineCursor += uint32(len(r.payload))
	}

	oobDataOffset := inlineCursor
	oobCursor := uint32(0)
	for i, r := range g.records {
		if r.inlined {
			continue
		}
		d := hdr.Descriptor(uint32(i))
		d.SetSize(uint32(len(r.payload)))
		d.SetOffset(oobCursor)
		d.SetStoreID(r.storeID)
		d.SetStoreSeqNum(r.seqNum)
		d.SetIsInlined(false)
		iovecs = append(iovecs, r.payload)
		oobCursor += uint32(len(r.payload))
	}

	totalSize := oobDataOffset + oobCursor

	hdr.SetMagic(LogGroupHdrMagic)
	hdr.SetVersion(LogGroupHdrVersion)
	hdr.SetStartIdx(g.startIdx)
	hdr.SetNRecords(uint32(n))
	hdr.SetInlineDataOffset(inlineDataOffset)
	hdr.SetOOBDataOffset(oobDataOffset)
	hdr.SetTotalSize(totalSize)
	hdr.SetGroupSize(totalSize)
	hdr.SetPrevGrpCRC(g.prevGrpCRC)

	// cur_grp_crc covers everything after the fixed header: the descriptor
	// block and every payload region. The header itself, including this
	// field, is never part of its own checksum.
	crc := crc32c(buf[headerSize:])
	for _, iov := range iovecs[1:] {
		crc = crc32cUpdate(crc, iov)
	}
	hdr.SetCurGrpCRC(crc)

	return iovecs, groupMeta{startIdx: g.startIdx, nrecords: uint32(n), totalSize: totalSize, crc: crc}
}
