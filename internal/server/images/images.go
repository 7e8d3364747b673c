// Package images uploads listing and profile pictures to S3-compatible
// object storage. Only the resulting public URL is persisted.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	sc "github.com/norsebooks/norsebooks/internal/server/config"
)

// ErrNotAnImage is returned for uploads whose content is not one of the
// accepted image formats.
var ErrNotAnImage = errors.New("upload is not an image")

// sniffLen is how much of an upload http.DetectContentType looks at.
const sniffLen = 512

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Store uploads and removes images.
type Store interface {
	Upload(ctx context.Context, body io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}
)

type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3Store(ctx context.Context, cfg *sc.Config) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	publicURL := cfg.S3PublicURL
	if !strings.HasSuffix(publicURL, "/") {
		publicURL += "/"
	}
	return &S3Store{client: client, bucket: cfg.S3Bucket, publicURL: publicURL}, nil
}

// NewKey returns a fresh object key grouped by upload date.
func NewKey(now time.Time) string {
	return fmt.Sprintf("images/%d/%02d/%02d/%s", now.Year(), now.Month(), now.Day(), uuid.New())
}

// Sniff reads the head of body and returns the detected content type with
// a reader that replays the whole body. Types other than jpeg, png, gif and
// webp yield ErrNotAnImage, whatever the client claimed.
func Sniff(body io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("read image: %w", err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !allowedTypes[contentType] {
		return "", nil, ErrNotAnImage
	}
	return contentType, io.MultiReader(bytes.NewReader(head), body), nil
}

// Upload stores body under a new key and returns its public URL. The stored
// content type is the sniffed one.
func (s *S3Store) Upload(ctx context.Context, body io.Reader) (string, error) {
	contentType, body, err := Sniff(body)
	if err != nil {
		return "", err
	}
	key := NewKey(time.Now())
	err = putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put image: %w", err)
	}
	return s.publicURL + key, nil
}

// Delete removes the object behind url. URLs that do not point into this
// store, such as links typed in by users, are left alone.
func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.publicURL)
	if !ok || key == "" {
		return nil
	}
	if err := deleteObject(s.client, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}
