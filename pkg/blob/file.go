package blob

import (
	"fmt"
	"io"
	"os"

	"github.com/blobpool/blobpool/pkg/bufpool"
	"github.com/blobpool/blobpool/pkg/lease"
)

// File is one append-only blob container. Frames are written at offsets
// handed out by the lease manager; because a lease grants exclusive append
// access to one blob, File performs no locking of its own. Concurrent
// reads are safe at any time.
type File struct {
	id   lease.BlobID
	path string
	f    *os.File
}

// openFile opens or creates a container file.
func openFile(id lease.BlobID, path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %d: %w", id, err)
	}
	return &File{id: id, path: path, f: f}, nil
}

// ID returns the blob ID this container backs.
func (f *File) ID() lease.BlobID {
	return f.id
}

// Path returns the container's path on disk.
func (f *File) Path() string {
	return f.path
}

// Size returns the container's current length in bytes.
func (f *File) Size() (uint64, error) {
	info, err := f.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat blob %d: %w", f.id, err)
	}
	return uint64(info.Size()), nil
}

// WriteFrame appends payload as a single frame starting at off, which must
// be the blob's current write offset as granted by the lease. The caller
// passes the codec it wants; the placement reports the codec actually used
// and the new end offset to release the lease with.
func (f *File) WriteFrame(payload []byte, codec Codec, off uint64) (Placement, error) {
	frame, used, stored, err := encodeFrame(payload, codec)
	if err != nil {
		return Placement{}, fmt.Errorf("blob %d: %w", f.id, err)
	}
	defer bufpool.Put(frame)

	if _, err := f.f.WriteAt(frame, int64(off)); err != nil {
		return Placement{}, fmt.Errorf("failed to append to blob %d at offset %d: %w", f.id, off, err)
	}

	return Placement{
		Offset: off,
		Length: uint32(len(payload)),
		Stored: uint32(stored),
		Codec:  used,
		End:    off + uint64(len(frame)),
	}, nil
}

// ReadFrame reads back the frame starting at off and returns its payload,
// decompressed and checksum-verified.
func (f *File) ReadFrame(off uint64) ([]byte, error) {
	var hdr [headerSize]byte
	if _, err := f.f.ReadAt(hdr[:], int64(off)); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("blob %d offset %d: %w: truncated header", f.id, off, ErrCorruptFrame)
		}
		return nil, fmt.Errorf("failed to read blob %d at offset %d: %w", f.id, off, err)
	}

	codec, crc, length, stored, err := decodeHeader(hdr[:])
	if err != nil {
		return nil, fmt.Errorf("blob %d offset %d: %w", f.id, off, err)
	}

	// Compressed frames decode into a fresh slice, so their stored bytes
	// only need a scratch buffer. Raw payloads are returned as read and
	// must own their memory.
	var buf []byte
	if codec == CodecZstd {
		buf = bufpool.Get(int(stored))
		defer bufpool.Put(buf)
	} else {
		buf = make([]byte, stored)
	}
	if _, err := f.f.ReadAt(buf, int64(off)+headerSize); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("blob %d offset %d: %w: truncated payload", f.id, off, ErrCorruptFrame)
		}
		return nil, fmt.Errorf("failed to read blob %d at offset %d: %w", f.id, off, err)
	}

	payload, err := decodePayload(codec, crc, length, buf)
	if err != nil {
		return nil, fmt.Errorf("blob %d offset %d: %w", f.id, off, err)
	}
	return payload, nil
}

// Sync flushes the container to stable storage.
func (f *File) Sync() error {
	if err := f.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync blob %d: %w", f.id, err)
	}
	return nil
}

// Close closes the container file.
func (f *File) Close() error {
	return f.f.Close()
}
