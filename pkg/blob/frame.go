// Package blob implements the physical container files backing a blobpool
// store.
//
// Each blob is one append-only file. Records are written as frames: a
// fixed 16-byte header, the payload (optionally zstd-compressed), and zero
// padding up to 8-byte alignment so that frame starts are always aligned.
// Frames are never rewritten or removed; a container only grows.
//
// The lease manager decides which blob a writer appends to and at what
// offset; this package only moves bytes. A Set groups the container files
// of one store directory and recovers their sizes on open so the lease
// table can be reseeded.
package blob

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/klauspost/compress/zstd"

	"github.com/blobpool/blobpool/pkg/bufpool"
)

// Codec identifies how a frame's payload is encoded on disk.
type Codec string

const (
	// CodecRaw stores the payload verbatim.
	CodecRaw Codec = "raw"

	// CodecZstd stores the payload zstd-compressed. Frames fall back to
	// CodecRaw when compression does not shrink the payload.
	CodecZstd Codec = "zstd"
)

const (
	// headerSize is the fixed frame header length:
	// codec tag [4]byte, payload CRC uint32, uncompressed length uint32,
	// stored length uint32. All integers little-endian.
	headerSize = 16

	// frameAlign keeps frame starts 8-byte aligned, matching the
	// containers' append granularity.
	frameAlign = 8
)

// Frame header codec tags.
var (
	tagRaw  = [4]byte{'r', 'a', 'w', 0}
	tagZstd = [4]byte{'z', 's', 't', 'd'}
)

// castagnoli is the CRC-32C table used for payload checksums.
var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Shared zstd coders. EncodeAll/DecodeAll are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithLowerEncoderMem(true))
	if err != nil {
		panic(fmt.Sprintf("blob: zstd encoder: %v", err))
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("blob: zstd decoder: %v", err))
	}
}

// Placement describes where a frame landed inside a container and how its
// payload is stored. The store records these fields in the index so the
// frame can be read back without scanning.
type Placement struct {
	// Offset is the byte position of the frame header.
	Offset uint64

	// Length is the uncompressed payload length.
	Length uint32

	// Stored is the payload length on disk after encoding.
	Stored uint32

	// Codec is the encoding actually used.
	Codec Codec

	// End is the first byte past the frame including alignment padding,
	// i.e. the container's next append offset.
	End uint64
}

// encodeFrame builds the on-disk bytes for payload using the requested
// codec, including header and alignment padding. It returns the buffer,
// the codec actually used (compression falls back to raw when it does not
// pay for itself), and the stored payload length.
//
// The buffer comes from bufpool; the caller must hand it back with
// bufpool.Put once written out.
func encodeFrame(payload []byte, codec Codec) ([]byte, Codec, int, error) {
	if uint64(len(payload)) > 0xffffffff {
		return nil, codec, 0, fmt.Errorf("payload of %d bytes exceeds frame limit", len(payload))
	}

	stored := payload
	if codec == CodecZstd {
		compressed := zstdEncoder.EncodeAll(payload, nil)
		if len(compressed) < len(payload) {
			stored = compressed
		} else {
			codec = CodecRaw
		}
	}

	var tag [4]byte
	switch codec {
	case CodecRaw:
		tag = tagRaw
	case CodecZstd:
		tag = tagZstd
	default:
		return nil, codec, 0, fmt.Errorf("%w: %q", ErrUnknownCodec, codec)
	}

	total := paddedSize(len(stored))
	buf := bufpool.Get(total)
	copy(buf[0:4], tag[:])
	binary.LittleEndian.PutUint32(buf[4:8], crc32.Checksum(stored, castagnoli))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(stored)))
	copy(buf[headerSize:], stored)
	// Pooled buffers carry stale bytes, so the alignment padding has to be
	// zeroed by hand to keep the on-disk format's guarantee.
	clear(buf[headerSize+len(stored) : total])
	return buf, codec, len(stored), nil
}

// decodeHeader parses a frame header, returning the codec, uncompressed
// length, and stored length.
func decodeHeader(hdr []byte) (Codec, uint32, uint32, uint32, error) {
	if len(hdr) < headerSize {
		return "", 0, 0, 0, fmt.Errorf("%w: short header (%d bytes)", ErrCorruptFrame, len(hdr))
	}

	var codec Codec
	var tag [4]byte
	copy(tag[:], hdr[0:4])
	switch tag {
	case tagRaw:
		codec = CodecRaw
	case tagZstd:
		codec = CodecZstd
	default:
		return "", 0, 0, 0, fmt.Errorf("%w: tag %q", ErrUnknownCodec, hdr[0:4])
	}

	crc := binary.LittleEndian.Uint32(hdr[4:8])
	length := binary.LittleEndian.Uint32(hdr[8:12])
	stored := binary.LittleEndian.Uint32(hdr[12:16])
	return codec, crc, length, stored, nil
}

// decodePayload verifies the stored bytes against the header checksum and
// undoes the codec.
func decodePayload(codec Codec, crc uint32, length uint32, stored []byte) ([]byte, error) {
	if crc32.Checksum(stored, castagnoli) != crc {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptFrame)
	}

	switch codec {
	case CodecRaw:
		if uint32(len(stored)) != length {
			return nil, fmt.Errorf("%w: raw frame length %d does not match header %d",
				ErrCorruptFrame, len(stored), length)
		}
		return stored, nil
	case CodecZstd:
		payload, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, length))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorruptFrame, err)
		}
		if uint32(len(payload)) != length {
			return nil, fmt.Errorf("%w: decompressed to %d bytes, header says %d",
				ErrCorruptFrame, len(payload), length)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codec)
	}
}

// paddedSize returns the full frame size for a stored payload length,
// rounded up to the alignment boundary.
func paddedSize(stored int) int {
	total := headerSize + stored
	if rem := total % frameAlign; rem != 0 {
		total += frameAlign - rem
	}
	return total
}
