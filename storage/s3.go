// ABOUTME: S3-compatible photo transfer backend for the upload queue
// ABOUTME: Objects are keyed by survey and photo id so retried uploads overwrite themselves
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/markahope-aag/hazardos-sub000/config"
	"github.com/markahope-aag/hazardos-sub000/models"
)

// ErrNoPayload is returned for photos that have neither bytes nor a remote URL.
var ErrNoPayload = errors.New("photo has no payload to upload")

// DefaultLinkExpiry bounds presigned links when no public base URL is configured.
const DefaultLinkExpiry = 7 * 24 * time.Hour

// S3Transferer uploads photo payloads to one bucket.
type S3Transferer struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	publicBase string
	expiry     time.Duration
}

// NewS3Transferer builds a client from the default AWS credential chain.
func NewS3Transferer(ctx context.Context, cfg config.StorageConfig) (*S3Transferer, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newTransferer(awsCfg, cfg), nil
}

func newTransferer(awsCfg aws.Config, cfg config.StorageConfig, optFns ...func(*s3.Options)) *S3Transferer {
	client := s3.NewFromConfig(awsCfg, append([]func(*s3.Options){func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}, optFns...)...)
	return &S3Transferer{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		expiry:     DefaultLinkExpiry,
	}
}

// ObjectKey is surveys/{survey}/{photo}{ext}.
func ObjectKey(surveyID, photoID, ext string) string {
	return fmt.Sprintf("surveys/%s/%s%s", surveyID, photoID, ext)
}

func photoMetadata(p models.PhotoRecord) map[string]string {
	md := map[string]string{
		"category":  string(p.Category),
		"timestamp": p.Timestamp.UTC().Format(time.RFC3339),
	}
	if p.Location != "" {
		md["location"] = url.QueryEscape(p.Location)
	}
	if p.GPS != nil {
		md["latitude"] = strconv.FormatFloat(p.GPS.Latitude, 'f', -1, 64)
		md["longitude"] = strconv.FormatFloat(p.GPS.Longitude, 'f', -1, 64)
	}
	return md
}

// Upload stores the photo bytes and returns a durable URL for them.
func (t *S3Transferer) Upload(ctx context.Context, surveyID string, photo models.PhotoRecord) (string, error) {
	if !photo.HasPayload() {
		if photo.PreviewURL != "" {
			return photo.PreviewURL, nil
		}
		return "", ErrNoPayload
	}

	mt := mimetype.Detect(photo.Data)
	key := ObjectKey(surveyID, photo.ID, mt.Extension())
	_, err := t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &t.bucket,
		Key:           &key,
		Body:          bytes.NewReader(photo.Data),
		ContentType:   aws.String(mt.String()),
		ContentLength: aws.Int64(int64(len(photo.Data))),
		Metadata:      photoMetadata(photo),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return t.URL(ctx, key)
}

// URL returns the public or presigned location of key.
func (t *S3Transferer) URL(ctx context.Context, key string) (string, error) {
	if t.publicBase != "" {
		return t.publicBase + "/" + key, nil
	}
	out, err := t.presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &t.bucket, Key: &key}, func(po *s3.PresignOptions) {
		po.Expires = t.expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return out.URL, nil
}
