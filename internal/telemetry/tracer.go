package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for store operations. The "storage." keys follow
// OpenTelemetry semantic conventions; the rest are blobpool-specific.
const (
	// Blob attributes
	AttrBlobID     = "blob.id"
	AttrBlobOffset = "blob.offset"
	AttrBlobSealed = "blob.sealed"

	// Record attributes
	AttrRecordName   = "record.name"
	AttrRecordSize   = "record.size"
	AttrRecordStored = "record.stored"
	AttrRecordCodec  = "record.codec"

	// Lease attributes
	AttrLeaseOutcome  = "lease.outcome"
	AttrLeaseSizeHint = "lease.size_hint"

	// Object storage attributes
	AttrBucket = "storage.bucket"
	AttrKey    = "storage.key"
)

// Span names, one per traced operation, as <component>.<operation>.
const (
	SpanStorePut  = "store.put"
	SpanStoreGet  = "store.get"
	SpanStoreSync = "store.sync"

	SpanArchiveRun    = "archive.run"
	SpanArchiveUpload = "archive.upload"
)

// BlobID returns an attribute for a blob identifier
func BlobID(id int) attribute.KeyValue {
	return attribute.Int(AttrBlobID, id)
}

// BlobOffset returns an attribute for a blob write offset
func BlobOffset(offset uint64) attribute.KeyValue {
	return attribute.Int64(AttrBlobOffset, int64(offset))
}

// RecordName returns an attribute for a record name
func RecordName(name string) attribute.KeyValue {
	return attribute.String(AttrRecordName, name)
}

// RecordSize returns an attribute for an uncompressed record size
func RecordSize(size int) attribute.KeyValue {
	return attribute.Int(AttrRecordSize, size)
}

// RecordCodec returns an attribute for a record's frame codec
func RecordCodec(codec string) attribute.KeyValue {
	return attribute.String(AttrRecordCodec, codec)
}

// LeaseOutcome returns an attribute for a lease acquisition outcome
func LeaseOutcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrLeaseOutcome, outcome)
}

// Bucket returns an attribute for an object storage bucket
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for an object storage key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// StartStoreSpan starts a span for a store operation with the record name
// attached. Operations without a record (sync) pass an empty name, which
// is omitted.
func StartStoreSpan(ctx context.Context, operation string, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if name != "" {
		attrs = append([]attribute.KeyValue{RecordName(name)}, attrs...)
	}
	return StartSpan(ctx, operation, trace.WithAttributes(attrs...))
}

// StartArchiveSpan starts a span for an archival operation.
func StartArchiveSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, operation, trace.WithAttributes(attrs...))
}
