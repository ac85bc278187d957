package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is the subset of *s3.Client used by S3Store.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps offloaded messages in S3. Objects it writes expire after
// Retention.
type S3Store struct {
	Client    S3Client
	Retention time.Duration
}

func NewS3Store(cfg aws.Config) *S3Store {
	return &S3Store{Client: s3.NewFromConfig(cfg), Retention: 7 * 24 * time.Hour}
}

func (s *S3Store) Fetch(ctx context.Context, p Pointer) ([]byte, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.Bucket),
		Key:    aws.String(p.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, p, err)
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrFetch, p, err)
	}
	return b, nil
}

func (s *S3Store) Put(ctx context.Context, bucket, key string, body []byte) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}
	if s.Retention > 0 {
		in.Expires = aws.Time(time.Now().Add(s.Retention))
	}
	if _, err := s.Client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("remote: put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
