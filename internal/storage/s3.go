package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures an S3-compatible bucket.
type S3Options struct {
	Bucket          string
	Endpoint        string // empty for AWS itself, "https://<account>.r2.cloudflarestorage.com" for R2
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string // where the bucket's objects can be read, e.g. a CDN domain
}

// objectAPI is the part of *s3.Client that S3 uses. Tests substitute a fake.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores images in a bucket.
type S3 struct {
	client    objectAPI
	bucket    string
	publicURL string
}

var _ ImageStore = (*S3)(nil)

// NewS3 builds a client with static credentials.
func NewS3(opts S3Options) *S3 {
	o := s3.Options{
		Credentials: credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Region:      opts.Region,
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		// Custom endpoints (MinIO in particular) usually do not have
		// per-bucket DNS names.
		o.UsePathStyle = true
	}
	return newS3WithClient(s3.New(o), opts.Bucket, opts.PublicURL)
}

func newS3WithClient(client objectAPI, bucket, publicURL string) *S3 {
	return &S3{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// Save uploads data. A HEAD request checks the preferred key first; if it is
// taken, a suffixed key is used. Unlike Local this check and the upload are
// two steps, which is fine for suffixed keys since those are random.
func (s *S3) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := keyFor(name)

	exists, err := s.exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		key = alternateKey(key)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage: uploading %s: %w", key, err)
	}
	return key, nil
}

func (s *S3) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, fmt.Errorf("storage: checking %s: %w", key, err)
}

// Delete removes an object. S3 reports success for missing keys anyway.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: deleting %s: %w", key, err)
	}
	return nil
}

func (s *S3) URL(key string) string {
	return s.publicURL + "/" + key
}
