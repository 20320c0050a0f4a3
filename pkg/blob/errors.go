package blob

import "errors"

// Errors returned by the blob container layer.
var (
	// ErrCorruptFrame is returned when a frame header is malformed or the
	// stored payload fails its checksum.
	ErrCorruptFrame = errors.New("corrupt blob frame")

	// ErrUnknownCodec is returned when a frame header carries a codec tag
	// this build does not understand.
	ErrUnknownCodec = errors.New("unknown frame codec")

	// ErrNoSuchBlob is returned by Set accessors for an ID with no
	// container file.
	ErrNoSuchBlob = errors.New("no such blob")
)
