package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	assert.Equal(t, "projects/1700000000123_cover.png", ImageKey("cover.png", now))
	assert.Equal(t, "projects/1700000000123_my_logo.jpg", ImageKey("my logo.jpg", now))
	assert.Equal(t, "projects/1700000000123_evil.png", ImageKey("../../evil.png", now))
	assert.Equal(t, "projects/1700000000123_shot.png", ImageKey(`C:\Users\me\shot.png`, now))
	assert.Equal(t, "projects/1700000000123_upload", ImageKey("", now))
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{
			name: "public base url wins",
			cfg:  S3Config{Bucket: "b", Region: "eu-west-1", Endpoint: "http://minio:9000", PublicBaseURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/projects/1_a.png",
		},
		{
			name: "custom endpoint uses path style",
			cfg:  S3Config{Bucket: "b", Region: "us-east-1", Endpoint: "http://minio:9000/"},
			want: "http://minio:9000/b/projects/1_a.png",
		},
		{
			name: "aws default",
			cfg:  S3Config{Bucket: "ideahub", Region: "eu-central-1"},
			want: "https://ideahub.s3.eu-central-1.amazonaws.com/projects/1_a.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicURL(tt.cfg, "projects/1_a.png"))
		})
	}
}

func TestMemoryStore_Upload(t *testing.T) {
	m := NewMemoryStore("http://blobs.local/")

	url, err := m.Upload(context.Background(), "projects/1_a.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "http://blobs.local/projects/1_a.png", url)

	data, ok := m.Object("projects/1_a.png")
	require.True(t, ok)
	assert.Equal(t, []byte("png"), data)
	assert.Equal(t, 1, m.Len())
}

type failingStore struct{ calls int }

func (f *failingStore) Upload(context.Context, string, []byte) (string, error) {
	f.calls++
	return "", errors.New("bucket unreachable")
}

func TestBreakerStore_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &failingStore{}
	b := NewBreakerStore(next, "blob-test", time.Minute)

	for i := 0; i < 4; i++ {
		_, err := b.Upload(context.Background(), "k", nil)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Upload(context.Background(), "k", nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 4, next.calls)
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	b := NewBreakerStore(NewMemoryStore("http://x"), "blob-ok", time.Second)

	url, err := b.Upload(context.Background(), "projects/k", []byte("1"))
	require.NoError(t, err)
	assert.Equal(t, "http://x/projects/k", url)
}
