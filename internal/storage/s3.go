package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/anstrom/filecrate/internal/model"
)

// S3 wraps MinIO/S3 interactions for stored blobs.
type S3 struct {
	client  *minio.Client
	bucket  string
	region  string
	baseURL string
}

// S3Options carries everything needed to reach an S3-compatible endpoint.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// NewS3 creates a MinIO client for the configured endpoint.
func NewS3(opts S3Options) (*S3, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	scheme := "http"
	if opts.UseSSL {
		scheme = "https"
	}
	return &S3{
		client:  client,
		bucket:  opts.Bucket,
		region:  opts.Region,
		baseURL: fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket),
	}, nil
}

// EnsureBucket makes sure the bucket exists before first use.
func (s *S3) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Put uploads the stream under a key namespaced by owner with a random
// component, mirroring the local store's collision guarantee.
func (s *S3) Put(ctx context.Context, ownerID, originalName, contentType string, r io.Reader, size int64) (PutResult, error) {
	key := fmt.Sprintf("%s/%s-%s", ownerID, uuid.NewString(), sanitizeName(originalName))
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, opts); err != nil {
		return PutResult{}, fmt.Errorf("put object: %w", err)
	}
	return PutResult{
		Key:      key,
		Provider: model.ProviderS3,
		URL:      s.baseURL + "/" + key,
	}, nil
}

// Get fetches the object as a stream. minio defers the request until the
// first read, so Stat is used to surface missing keys up front.
func (s *S3) Get(ctx context.Context, key string) (Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return Object{}, fmt.Errorf("get object: %w", err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if isNoSuchKey(err) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("stat object: %w", err)
	}
	return Object{Body: obj, Size: info.Size, ContentType: info.ContentType}, nil
}

// Delete removes the object. S3 delete succeeds for absent keys, which gives
// the idempotency the contract asks for.
func (s *S3) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
