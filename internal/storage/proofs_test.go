package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.inputs = append(f.inputs, in)
	return &s3.PutObjectOutput{}, nil
}

func TestProofKey(t *testing.T) {
	at := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "payment-proofs/2026/03/abc.png", ProofKey(at, "abc", ".png"))
}

func TestProofStore_Upload(t *testing.T) {
	client := &fakeS3{}
	store := NewProofStoreWithClient(client, "teff-proofs", "https://cdn.example.com/")
	store.now = func() time.Time { return time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC) }

	url, err := store.Upload(context.Background(), "receipt.JPG", strings.NewReader("img"), "image/jpeg")
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)

	key := aws.ToString(client.inputs[0].Key)
	assert.True(t, strings.HasPrefix(key, "payment-proofs/2026/10/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Equal(t, "https://cdn.example.com/"+key, url)
	assert.Equal(t, "teff-proofs", aws.ToString(client.inputs[0].Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(client.inputs[0].ContentType))
}

func TestProofStore_RejectsUnsupportedType(t *testing.T) {
	store := NewProofStoreWithClient(&fakeS3{}, "teff-proofs", "")
	_, err := store.Upload(context.Background(), "notes.txt", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)
	assert.False(t, AllowedContentType("text/plain"))
	assert.True(t, AllowedContentType("application/pdf"))
}

func TestProofStore_Disabled(t *testing.T) {
	store := NewProofStore(aws.Config{}, "", "")
	assert.False(t, store.Enabled())
	_, err := store.Upload(context.Background(), "a.png", strings.NewReader("x"), "image/png")
	assert.Error(t, err)

	bare := NewProofStoreWithClient(&fakeS3{}, "bucket", "")
	assert.Equal(t, "https://bucket.s3.amazonaws.com/k", bare.URL("k"))
}
