package wal

// OpType identifies what an entry's payload holds.
type OpType uint8

const (
	// OpCommit carries one committed graph transaction.
	OpCommit OpType = iota + 1
)

// Entry is a single record in the log.
type Entry struct {
	LSN       uint64
	OpType    OpType
	Data      []byte // decoded payload
	Checksum  uint32 // CRC32 of the stored (possibly compressed) payload
	Timestamp int64
}

// Stats reports how much the log has written since it was opened.
type Stats struct {
	Appends     uint64
	BytesRaw    uint64
	BytesStored uint64
}

// CompressionRatio is the fraction of bytes saved by the codec, 0 when nothing was written.
func (s Stats) CompressionRatio() float64 {
	if s.BytesRaw == 0 {
		return 0
	}
	return 1 - float64(s.BytesStored)/float64(s.BytesRaw)
}

const (
	plainFileName  = "wal.log"
	snappyFileName = "wal_snappy.log"

	// Fixed part of an entry: LSN(8) + OpType(1) + DataLen(4) + Checksum(4) + Timestamp(8).
	entryOverhead = 8 + 1 + 4 + 4 + 8

	// Refuse to allocate absurd payloads when a length field is corrupt.
	maxEntrySize = 64 << 20
)
