package archive

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options carries the connection settings for the bucket endpoint.
type S3Options struct {
	// Endpoint overrides the AWS default, for MinIO or Localstack.
	// Leave empty to talk to AWS itself.
	Endpoint string

	// Region the requests are signed for.
	Region string

	// Static credentials. When both are empty the default AWS chain
	// (environment, shared config, instance role) is used instead.
	AccessKeyID     string
	SecretAccessKey string

	// UsePathStyle addresses buckets as path segments rather than
	// subdomains. Most S3-compatible servers want this on.
	UsePathStyle bool
}

// NewS3Client assembles an S3 client from opts. No connection is made
// here; the first request finds out whether the endpoint is reachable.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" || opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = &opts.Endpoint
		}
		o.UsePathStyle = opts.UsePathStyle
	}), nil
}
