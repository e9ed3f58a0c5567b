package logdev

import (
	"encoding/binary"
	"hash/crc32"
)

// LogGroupHdrMagic identifies a valid group header. A mismatch on a
// pinpointed random read is fatal; a mismatch during the sequential
// recovery scan is provisionally treated as end-of-log.
const LogGroupHdrMagic uint64 = 0x4c4f47475250484d // "LOGGRPHM"

// LogGroupHdrVersion is the on-disk version of the header layout below.
const LogGroupHdrVersion uint32 = 1

// headerSize is the fixed size, in bytes, of a log_group_header.
const headerSize = 52

// descriptorSize is the fixed size, in bytes, of one serialized_log_record.
const descriptorSize = 24

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// crc32c computes the CRC-32C checksum of b, the algorithm cur_grp_crc is
// computed with.
func crc32c(b []byte) uint32 { return crc32.Checksum(b, castagnoli) }

// crc32cUpdate continues a running CRC-32C computation with additional
// bytes, letting cur_grp_crc be computed across several non-contiguous
// buffers (header block, then each payload region) without concatenating
// them first.
func crc32cUpdate(running uint32, b []byte) uint32 { return crc32.Update(running, castagnoli, b) }

// Header is a zero-copy view over a log_group_header's on-disk bytes. It
// never owns the buffer; callers keep the underlying byte slice (typically
// the first headerSize bytes of a LogGroup's header block, or of a device
// read) alive.
//
// Layout, little-endian, packed:
//
//	magic            uint64  offset 0
//	version          uint32  offset 8
//	start_idx        int64   offset 12
//	nrecords         uint32  offset 20
//	inline_data_off  uint32  offset 24
//	oob_data_off     uint32  offset 28
//	total_size       uint32  offset 32
//	group_size       uint32  offset 36
//	cur_grp_crc      uint32  offset 40
//	prev_grp_crc     uint32  offset 44
//	nrecords dup pad uint32  offset 48 (reserved)
type Header []byte

func (h Header) Magic() uint64           { return binary.LittleEndian.Uint64(h[0:8]) }
func (h Header) Version() uint32         { return binary.LittleEndian.Uint32(h[8:12]) }
func (h Header) StartIdx() LogIdx        { return LogIdx(binary.LittleEndian.Uint64(h[12:20])) }
func (h Header) NRecords() uint32        { return binary.LittleEndian.Uint32(h[20:24]) }
func (h Header) InlineDataOffset() uint32 { return binary.LittleEndian.Uint32(h[24:28]) }
func (h Header) OOBDataOffset() uint32   { return binary.LittleEndian.Uint32(h[28:32]) }
func (h Header) TotalSize() uint32       { return binary.LittleEndian.Uint32(h[32:36]) }
func (h Header) GroupSize() uint32       { return binary.LittleEndian.Uint32(h[36:40]) }
func (h Header) CurGrpCRC() uint32       { return binary.LittleEndian.Uint32(h[40:44]) }
func (h Header) PrevGrpCRC() uint32      { return binary.LittleEndian.Uint32(h[44:48]) }

func (h Header) SetMagic(v uint64)            { binary.LittleEndian.PutUint64(h[0:8], v) }
func (h Header) SetVersion(v uint32)          { binary.LittleEndian.PutUint32(h[8:12], v) }
func (h Header) SetStartIdx(v LogIdx)         { binary.LittleEndian.PutUint64(h[12:20], uint64(v)) }
func (h Header) SetNRecords(v uint32)         { binary.LittleEndian.PutUint32(h[20:24], v) }
func (h Header) SetInlineDataOffset(v uint32) { binary.LittleEndian.PutUint32(h[24:28], v) }
func (h Header) SetOOBDataOffset(v uint32)    { binary.LittleEndian.PutUint32(h[28:32], v) }
func (h Header) SetTotalSize(v uint32)        { binary.LittleEndian.PutUint32(h[32:36], v) }
func (h Header) SetGroupSize(v uint32)        { binary.LittleEndian.PutUint32(h[36:40], v) }
func (h Header) SetCurGrpCRC(v uint32)        { binary.LittleEndian.PutUint32(h[40:44], v) }
func (h Header) SetPrevGrpCRC(v uint32)       { binary.LittleEndian.PutUint32(h[44:48], v) }

// Descriptor returns a view over the i-th per-record descriptor, which
// immediately follows the header in the group buffer.
func (h Header) Descriptor(i uint32) Descriptor {
	off := headerSize + int(i)*descriptorSize
	return Descriptor(h[off : off+descriptorSize])
}

// Valid reports whether h carries the expected magic. A magic mismatch
// means either end-of-log (during sequential recovery) or corruption
// (during a pinpointed random read) — callers decide which.
func (h Header) Valid() bool {
	return len(h) >= headerSize && h.Magic() == LogGroupHdrMagic
}

// Descriptor is a zero-copy view over one serialized_log_record.
//
//	size         uint32  offset 0
//	offset       uint32  offset 4
//	store_id     uint32  offset 8
//	store_seq    uint64  offset 12
//	is_inlined   uint8   offset 20
//	_pad         [3]byte offset 21
type Descriptor []byte

func (d Descriptor) Size() uint32         { return binary.LittleEndian.Uint32(d[0:4]) }
func (d Descriptor) Offset() uint32       { return binary.LittleEndian.Uint32(d[4:8]) }
func (d Descriptor) StoreID() uint32      { return binary.LittleEndian.Uint32(d[8:12]) }
func (d Descriptor) StoreSeqNum() uint64  { return binary.LittleEndian.Uint64(d[12:20]) }
func (d Descriptor) IsInlined() bool      { return d[20] != 0 }

func (d Descriptor) SetSize(v uint32)        { binary.LittleEndian.PutUint32(d[0:4], v) }
func (d Descriptor) SetOffset(v uint32)      { binary.LittleEndian.PutUint32(d[4:8], v) }
func (d Descriptor) SetStoreID(v uint32)     { binary.LittleEndian.PutUint32(d[8:12], v) }
func (d Descriptor) SetStoreSeqNum(v uint64) { binary.LittleEndian.PutUint64(d[12:20], v) }
func (d Descriptor) SetIsInlined(v bool) {
	if v {
		d[20] = 1
	} else {
		d[20] = 0
	}
}

// DataOffset returns the byte offset, relative to the start of the header,
// at which this descriptor's payload begins within a fully materialized
// group buffer.
func (d Descriptor) DataOffset(oobDataOffset uint32) uint32 {
	if d.IsInlined() {
		return d.Offset()
	}
	return d.Offset() + oobDataOffset
}
