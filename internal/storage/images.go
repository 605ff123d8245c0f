// Package storage uploads user profile images to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"todo-platform/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MaxImageSize caps profile image uploads.
const MaxImageSize = 5 << 20

var (
	ErrEmptyImage       = errors.New("storage: image is empty")
	ErrImageTooLarge    = errors.New("storage: image exceeds maximum size")
	ErrUnsupportedImage = errors.New("storage: unsupported image type")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// DetectImage sniffs the content type from the bytes; client-declared types are ignored.
func DetectImage(data []byte) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", ErrEmptyImage
	}
	if len(data) > MaxImageSize {
		return "", "", ErrImageTooLarge
	}
	ct := http.DetectContentType(data)
	ext, ok := imageExtensions[ct]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedImage, ct)
	}
	return ct, ext, nil
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ProfileImages stores one image per user at users/<id>/profile<ext>.
type ProfileImages struct {
	client   objectPutter
	bucket   string
	region   string
	endpoint string
}

func NewProfileImages(client objectPutter, cfg config.S3Config) *ProfileImages {
	return &ProfileImages{
		client:   client,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
	}
}

// NewS3Client builds a client from config. A custom endpoint (MinIO, LocalStack) switches to path-style addressing.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func ObjectKey(userID int64, ext string) string {
	return fmt.Sprintf("users/%d/profile%s", userID, ext)
}

// Upload validates data and stores it, returning the public URL.
func (p *ProfileImages) Upload(ctx context.Context, userID int64, data []byte) (string, error) {
	ct, ext, err := DetectImage(data)
	if err != nil {
		return "", err
	}
	key := ObjectKey(userID, ext)

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(ct),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return p.PublicURL(key), nil
}

func (p *ProfileImages) PublicURL(key string) string {
	if p.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", p.endpoint, p.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key)
}
