package resultstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config selects an S3-compatible endpoint for mirroring saved runs.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Complete reports whether the config carries everything needed to build
// a client.
func (c S3Config) Complete() bool {
	return strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

// S3Mirror uploads run files to an object store bucket. The bucket is
// created lazily on first use.
type S3Mirror struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

// NewS3Mirror builds a mirror from config. All fields are required except
// region, which defaults to us-east-1.
func NewS3Mirror(cfg S3Config) (*S3Mirror, error) {
	if !cfg.Complete() {
		return nil, fmt.Errorf("resultstore: incomplete s3 config")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("resultstore: init s3 client: %w", err)
	}
	return &S3Mirror{client: client, bucket: strings.TrimSpace(cfg.Bucket), region: region}, nil
}

func (m *S3Mirror) ensureBucket(ctx context.Context) error {
	m.initOnce.Do(func() {
		exists, err := m.client.BucketExists(ctx, m.bucket)
		if err != nil {
			m.initErr = err
			return
		}
		if exists {
			return
		}
		m.initErr = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region})
	})
	return m.initErr
}

// Put uploads one serialized run under test-results/<testId>.json.
func (m *S3Mirror) Put(ctx context.Context, testID string, data []byte) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("resultstore: mirror is nil")
	}
	testID = strings.TrimSpace(testID)
	if testID == "" {
		return fmt.Errorf("resultstore: test id is required")
	}
	if err := m.ensureBucket(ctx); err != nil {
		return fmt.Errorf("resultstore: ensure bucket: %w", err)
	}
	key := "test-results/" + testID + ".json"
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}
