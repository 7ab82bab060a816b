// Package storage uploads payment proof images to S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxProofSize bounds uploaded payment proofs
const MaxProofSize = 5 << 20

var allowedProofTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// ObjectPutter is the subset of the S3 client used for uploads
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ProofStore uploads payment proofs and returns their public URL
type ProofStore struct {
	Client     ObjectPutter
	Bucket     string
	CDNBaseURL string
	now        func() time.Time
}

// NewProofStore returns a disabled store when bucket is empty.
func NewProofStore(cfg aws.Config, bucket, cdnBaseURL string) *ProofStore {
	if bucket == "" {
		return &ProofStore{}
	}
	return NewProofStoreWithClient(s3.NewFromConfig(cfg), bucket, cdnBaseURL)
}

// NewProofStoreWithClient wraps an existing S3 client
func NewProofStoreWithClient(client ObjectPutter, bucket, cdnBaseURL string) *ProofStore {
	return &ProofStore{Client: client, Bucket: bucket, CDNBaseURL: strings.TrimRight(cdnBaseURL, "/")}
}

func (p *ProofStore) Enabled() bool { return p != nil && p.Client != nil && p.Bucket != "" }

// AllowedContentType reports whether a proof of this content type can be uploaded.
func AllowedContentType(contentType string) bool {
	_, ok := allowedProofTypes[contentType]
	return ok
}

// Upload stores the proof under payment-proofs/YYYY/MM/ and returns its URL.
func (p *ProofStore) Upload(ctx context.Context, filename string, body io.Reader, contentType string) (string, error) {
	if !p.Enabled() {
		return "", fmt.Errorf("payment proof storage not configured")
	}
	ext, ok := allowedProofTypes[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	if e := strings.ToLower(path.Ext(filename)); e != "" && len(e) <= 5 {
		ext = e
	}

	key := ProofKey(p.clock(), uuid.NewString(), ext)
	_, err := p.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload payment proof: %w", err)
	}
	return p.URL(key), nil
}

// URL returns the CDN URL of a key, or the bucket's virtual-hosted URL without a CDN.
func (p *ProofStore) URL(key string) string {
	if p.CDNBaseURL != "" {
		return p.CDNBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", p.Bucket, key)
}

// ProofKey builds the object key of a payment proof
func ProofKey(at time.Time, id, ext string) string {
	return fmt.Sprintf("payment-proofs/%s/%s%s", at.UTC().Format("2006/01"), id, ext)
}

func (p *ProofStore) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}
