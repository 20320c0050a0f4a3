//go:build integration

package archive_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/blobpool/blobpool/pkg/archive"
	"github.com/blobpool/blobpool/pkg/store"
)

// s3Fixture wraps an S3 endpoint the tests can upload to. It comes from
// a Localstack container by default; set LOCALSTACK_ENDPOINT to point the
// tests at an instance that is already running.
type s3Fixture struct {
	endpoint string
	client   *s3.Client
}

func startS3(t *testing.T) *s3Fixture {
	t.Helper()
	ctx := context.Background()

	fx := &s3Fixture{endpoint: os.Getenv("LOCALSTACK_ENDPOINT")}
	if fx.endpoint == "" {
		fx.endpoint = startLocalstack(t, ctx)
	}

	client, err := archive.NewS3Client(ctx, archive.S3Options{
		Endpoint:        fx.endpoint,
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to build S3 client: %v", err)
	}
	fx.client = client
	return fx
}

// startLocalstack brings up a container with only the S3 service and
// returns its endpoint URL. Termination is registered on t.
func startLocalstack(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "localstack/localstack:3.0",
			ExposedPorts: []string{"4566/tcp"},
			Env: map[string]string{
				"SERVICES":              "s3",
				"DEFAULT_REGION":        "us-east-1",
				"EAGER_SERVICE_LOADING": "1",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("4566/tcp"),
				wait.ForHTTP("/_localstack/health").
					WithPort("4566/tcp").
					WithStartupTimeout(60*time.Second),
			),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("localstack did not come up: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to resolve container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "4566")
	if err != nil {
		t.Fatalf("failed to resolve mapped port: %v", err)
	}
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

// newBucket creates the named bucket and registers a cleanup that empties
// and deletes it again.
func (fx *s3Fixture) newBucket(t *testing.T, name string) {
	t.Helper()

	_, err := fx.client.CreateBucket(context.Background(), &s3.CreateBucketInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		t.Fatalf("failed to create bucket %s: %v", name, err)
	}
	t.Cleanup(func() { fx.dropBucket(name) })
}

// dropBucket removes the bucket's objects and then the bucket, best effort.
func (fx *s3Fixture) dropBucket(name string) {
	ctx := context.Background()

	list, _ := fx.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(name),
	})
	if list != nil {
		for _, obj := range list.Contents {
			_, _ = fx.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(name),
				Key:    obj.Key,
			})
		}
	}
	_, _ = fx.client.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(name),
	})
}

// headObject returns the object metadata, or an error if it does not exist.
func (fx *s3Fixture) headObject(bucket, key string) (*s3.HeadObjectOutput, error) {
	return fx.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
}

// newSealedStore opens a store at dir with 1MiB containers and appends
// records until the first two blobs are sealed.
func newSealedStore(t *testing.T, ctx context.Context, dir string) *store.Store {
	t.Helper()

	st, err := store.Open(ctx, store.Config{
		Path:          dir,
		MaxBlobSizeMB: 1,
		InitialBlobs:  2,
		MaxBlobs:      4,
		IndexBackend:  store.IndexMemory,
	})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	// Four 600KiB records rotate across the two blobs and push both
	// write offsets past the 1MiB ceiling.
	payload := make([]byte, 600*1024)
	for i := range payload {
		payload[i] = byte(i)
	}
	for i := 0; i < 4; i++ {
		if err := st.Put(ctx, fmt.Sprintf("record-%04d", i), payload); err != nil {
			t.Fatalf("failed to put record %d: %v", i, err)
		}
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("failed to read stats: %v", err)
	}
	if stats.SealedBlobs != 2 {
		t.Fatalf("expected 2 sealed blobs, got %d", stats.SealedBlobs)
	}

	return st
}

// TestArchiveRun_Localstack uploads sealed containers to a real
// S3-compatible service and verifies marks, keys, and idempotency.
func TestArchiveRun_Localstack(t *testing.T) {
	ctx := context.Background()

	fx := startS3(t)

	bucketName := "blobpool-archive-test"
	fx.newBucket(t, bucketName)

	st := newSealedStore(t, ctx, t.TempDir())

	archiver, err := archive.New(ctx, fx.client, st, st.Index(), archive.Config{
		Bucket: bucketName,
		Prefix: "archive",
	})
	if err != nil {
		t.Fatalf("failed to create archiver: %v", err)
	}

	// First run uploads both sealed containers.
	result, err := archiver.Archive(ctx)
	if err != nil {
		t.Fatalf("archive run failed: %v", err)
	}
	if len(result.Uploaded) != 2 {
		t.Fatalf("expected 2 uploads, got %v", result.Uploaded)
	}
	if result.Skipped != 0 {
		t.Errorf("expected 0 skipped, got %d", result.Skipped)
	}

	// The objects land under <prefix>/<store-id>/<container-file>.
	for _, id := range result.Uploaded {
		key := fmt.Sprintf("archive/%s/blob-%05d.dat", st.StoreID(), id)
		head, err := fx.headObject(bucketName, key)
		if err != nil {
			t.Fatalf("expected object %s: %v", key, err)
		}
		if head.ContentLength == nil || *head.ContentLength == 0 {
			t.Errorf("object %s is empty", key)
		}

		archived, err := archive.IsArchived(ctx, st.Index(), id)
		if err != nil {
			t.Fatalf("failed to read mark for blob %d: %v", id, err)
		}
		if !archived {
			t.Errorf("blob %d has no archive mark after upload", id)
		}
	}

	// A second run finds the marks and uploads nothing.
	rerun, err := archiver.Archive(ctx)
	if err != nil {
		t.Fatalf("archive rerun failed: %v", err)
	}
	if len(rerun.Uploaded) != 0 {
		t.Errorf("rerun uploaded %v, want none", rerun.Uploaded)
	}
	if rerun.Skipped != 2 {
		t.Errorf("rerun skipped %d, want 2", rerun.Skipped)
	}

	// New records grow the pool into fresh blobs; those stay local
	// until they seal.
	payload := make([]byte, 600*1024)
	for i := 4; i < 6; i++ {
		if err := st.Put(ctx, fmt.Sprintf("record-%04d", i), payload); err != nil {
			t.Fatalf("failed to put record %d: %v", i, err)
		}
	}

	third, err := archiver.Archive(ctx)
	if err != nil {
		t.Fatalf("third archive run failed: %v", err)
	}
	if len(third.Uploaded) != 0 {
		t.Errorf("third run uploaded %v, want none", third.Uploaded)
	}

	openKey := fmt.Sprintf("archive/%s/blob-%05d.dat", st.StoreID(), 2)
	if _, err := fx.headObject(bucketName, openKey); err == nil {
		t.Errorf("unsealed blob was uploaded to %s", openKey)
	}
}

// TestArchiveRun_ReuploadAfterLostMarks covers the recovery path: the
// memory index loses its marks across a reopen, so the next run
// re-uploads the sealed containers and PutObject simply overwrites.
func TestArchiveRun_ReuploadAfterLostMarks(t *testing.T) {
	ctx := context.Background()

	fx := startS3(t)

	bucketName := "blobpool-reupload-test"
	fx.newBucket(t, bucketName)

	dir := t.TempDir()
	st := newSealedStore(t, ctx, dir)

	archiver, err := archive.New(ctx, fx.client, st, st.Index(), archive.Config{
		Bucket: bucketName,
	})
	if err != nil {
		t.Fatalf("failed to create archiver: %v", err)
	}

	result, err := archiver.Archive(ctx)
	if err != nil {
		t.Fatalf("archive run failed: %v", err)
	}
	if len(result.Uploaded) != 2 {
		t.Fatalf("expected 2 uploads, got %v", result.Uploaded)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	// Reopen on the same directory. The recovery scan restores write
	// offsets, so both blobs are still sealed, but the marks are gone.
	reopened, err := store.Open(ctx, store.Config{
		Path:          dir,
		MaxBlobSizeMB: 1,
		InitialBlobs:  2,
		MaxBlobs:      4,
		IndexBackend:  store.IndexMemory,
	})
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	for _, id := range result.Uploaded {
		archived, err := archive.IsArchived(ctx, reopened.Index(), id)
		if err != nil {
			t.Fatalf("failed to read mark for blob %d: %v", id, err)
		}
		if archived {
			t.Fatalf("blob %d still marked after reopen", id)
		}
	}

	rearchiver, err := archive.New(ctx, fx.client, reopened, reopened.Index(), archive.Config{
		Bucket: bucketName,
	})
	if err != nil {
		t.Fatalf("failed to create archiver after reopen: %v", err)
	}

	rerun, err := rearchiver.Archive(ctx)
	if err != nil {
		t.Fatalf("archive rerun failed: %v", err)
	}
	if len(rerun.Uploaded) != 2 {
		t.Errorf("rerun uploaded %v, want both sealed blobs", rerun.Uploaded)
	}
	if rerun.Skipped != 0 {
		t.Errorf("rerun skipped %d, want 0", rerun.Skipped)
	}
}
