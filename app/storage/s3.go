package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3Backend stores the snapshot as a single object. Credentials come
// from the default AWS credential chain.
type s3Backend struct {
	bucket   string
	key      string
	client   *s3.Client
	uploader *manager.Uploader
}

func newS3Backend(ctx context.Context, bucket, region, key string) (*s3Backend, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("storage: s3 backend requires a bucket")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &s3Backend{
		bucket:   bucket,
		key:      key,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (b *s3Backend) Name() string { return "s3" }

func (b *s3Backend) Fetch(ctx context.Context) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &b.bucket,
		Key:    &b.key,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fs.ErrNotExist
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (b *s3Backend) Publish(ctx context.Context, scratchPath string) error {
	f, err := os.Open(scratchPath)
	if err != nil {
		return err
	}
	defer f.Close()

	contentType := "application/json"
	_, err = b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &b.bucket,
		Key:         &b.key,
		Body:        f,
		ContentType: &contentType,
	})
	return err
}
