package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/blobpool/blobpool/pkg/index"
	"github.com/blobpool/blobpool/pkg/lease"
)

// ============================================================================
// Key Layout
// ============================================================================
//
// BadgerDB is a flat key-value store, so prefixed keys separate the data
// types sharing one database:
//
// Data Type        Prefix    Key Format      Value
// =============================================================
// Record entries   "rec:"    rec:<name>      Entry (binary)
// Marks            "m:"      m:<key>         caller-defined bytes
//
// The prefixes keep record names and operational marks from colliding and
// make the record namespace range-scannable for List and Count.

const (
	prefixRecord = "rec:"
	prefixMark   = "m:"
)

// keyRecord generates the key for a record entry: "rec:<name>"
func keyRecord(name string) []byte {
	return []byte(prefixRecord + name)
}

// keyMark generates the key for an operational mark: "m:<key>"
func keyMark(key string) []byte {
	return []byte(prefixMark + key)
}

// ============================================================================
// Entry Binary Encoding
// ============================================================================
//
// Entries are encoded with a fixed little-endian layout instead of JSON:
// they are written on every Put and the fields are all small integers or
// short byte strings.
//
//	version   uint8
//	blob      uint32
//	offset    uint64
//	length    uint32
//	stored    uint32
//	created   int64 (unix nanoseconds)
//	codecLen  uint8, codec bytes
//	digestLen uint8, digest bytes

// entryVersion is bumped when the layout above changes.
const entryVersion = 1

func encodeEntry(entry index.Entry) ([]byte, error) {
	if entry.Blob < 0 || uint64(entry.Blob) > 0xffffffff {
		return nil, fmt.Errorf("blob id %d out of encodable range", entry.Blob)
	}
	if len(entry.Codec) > 255 {
		return nil, fmt.Errorf("codec name %q too long", entry.Codec)
	}
	if len(entry.Digest) > 255 {
		return nil, fmt.Errorf("digest of %d bytes too long", len(entry.Digest))
	}

	buf := make([]byte, 0, 31+len(entry.Codec)+len(entry.Digest))
	buf = append(buf, entryVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(entry.Blob))
	buf = binary.LittleEndian.AppendUint64(buf, entry.Offset)
	buf = binary.LittleEndian.AppendUint32(buf, entry.Length)
	buf = binary.LittleEndian.AppendUint32(buf, entry.Stored)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(entry.CreatedAt.UnixNano()))
	buf = append(buf, uint8(len(entry.Codec)))
	buf = append(buf, entry.Codec...)
	buf = append(buf, uint8(len(entry.Digest)))
	buf = append(buf, entry.Digest...)
	return buf, nil
}

func decodeEntry(buf []byte) (index.Entry, error) {
	const fixedLen = 29 // version through created

	if len(buf) < fixedLen+2 {
		return index.Entry{}, fmt.Errorf("entry too short: %d bytes", len(buf))
	}
	if buf[0] != entryVersion {
		return index.Entry{}, fmt.Errorf("unsupported entry version %d", buf[0])
	}

	entry := index.Entry{
		Blob:    lease.BlobID(binary.LittleEndian.Uint32(buf[1:5])),
		Offset:  binary.LittleEndian.Uint64(buf[5:13]),
		Length:  binary.LittleEndian.Uint32(buf[13:17]),
		Stored:  binary.LittleEndian.Uint32(buf[17:21]),
		CreatedAt: time.Unix(0,
			int64(binary.LittleEndian.Uint64(buf[21:29]))).UTC(),
	}

	rest := buf[fixedLen:]
	codecLen := int(rest[0])
	rest = rest[1:]
	if len(rest) < codecLen+1 {
		return index.Entry{}, fmt.Errorf("entry truncated in codec field")
	}
	entry.Codec = string(rest[:codecLen])
	rest = rest[codecLen:]

	digestLen := int(rest[0])
	rest = rest[1:]
	if len(rest) != digestLen {
		return index.Entry{}, fmt.Errorf("entry truncated in digest field")
	}
	entry.Digest = append([]byte(nil), rest[:digestLen]...)
	return entry, nil
}
