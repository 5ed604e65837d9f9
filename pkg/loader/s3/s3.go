package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/OFFIS-RIT/textgraph/internal/util"
	"github.com/OFFIS-RIT/textgraph/pkg/loader"
)

const getAttempts = 3

// ObjectGetter is the part of the S3 API the loader needs. *s3.Client
// satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3TextLoader is a TextLoader implementation that loads object contents
// from Amazon S3 or an S3-compatible store. It uses the AWS SDK v2 for Go.
//
// Sources take the form "s3://bucket/key". A source without a bucket,
// "s3:///key" or a bare key, is read from the default bucket.
type S3TextLoader struct {
	bucket string
	client ObjectGetter
	cache  *loader.Cache
}

// NewS3TextLoaderWithClient creates a new S3TextLoader using an existing
// client. This is useful to reuse a preconfigured AWS client.
func NewS3TextLoaderWithClient(bucket string, client ObjectGetter) *S3TextLoader {
	return &S3TextLoader{
		bucket: bucket,
		client: client,
		cache:  loader.NewCache(),
	}
}

// NewS3TextLoaderParams defines the configuration parameters for
// creating a new S3TextLoader.
//
// Bucket is the default bucket for sources that name none.
// Endpoint allows overriding the S3 endpoint (useful for S3-compatible
// storage like MinIO).
// Region specifies the AWS region.
// AccessKey and SecretKey provide static credentials.
type NewS3TextLoaderParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3TextLoader creates a new S3TextLoader using the provided
// parameters. It initializes an AWS S3 client with static credentials and
// the given endpoint/region.
//
// Example:
//
//	l, err := s3.NewS3TextLoader(ctx, s3.NewS3TextLoaderParams{
//		Bucket:    "my-bucket",
//		Endpoint:  "https://s3.amazonaws.com",
//		Region:    "us-east-1",
//		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
//		SecretKey: os.Getenv("AWS_SECRET_KEY"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	text, err := l.Load(ctx, "s3://my-bucket/docs/input.txt")
func NewS3TextLoader(ctx context.Context, params NewS3TextLoaderParams) (*S3TextLoader, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return NewS3TextLoaderWithClient(params.Bucket, client), nil
}

// ParseSource splits an "s3://bucket/key" source. The bucket is empty
// when the source names none.
func ParseSource(source string) (bucket string, key string, err error) {
	rest, ok := strings.CutPrefix(source, "s3://")
	if !ok {
		return "", strings.TrimPrefix(source, "/"), nil
	}

	bucket, key, _ = strings.Cut(rest, "/")
	if key == "" {
		return "", "", fmt.Errorf("s3 source %q has no key", source)
	}
	return bucket, key, nil
}

// Load retrieves the contents of the object named by source.
func (l *S3TextLoader) Load(ctx context.Context, source string) ([]byte, error) {
	bucket, key, err := ParseSource(source)
	if err != nil {
		return nil, err
	}
	if bucket == "" {
		bucket = l.bucket
	}
	if bucket == "" {
		return nil, fmt.Errorf("no bucket for s3 source %q", source)
	}

	return l.cache.Do(bucket+"/"+key, func() ([]byte, error) {
		return util.RetryWithContext(ctx, getAttempts, func(ctx context.Context) ([]byte, error) {
			return l.get(ctx, bucket, key)
		})
	})
}

func (l *S3TextLoader) get(ctx context.Context, bucket string, key string) ([]byte, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3 object %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
