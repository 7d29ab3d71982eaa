package catalogimport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLoader is a mock implementation of the Loader interface for testing.
type mockLoader struct {
	loadFunc func(ctx context.Context, filePath string) ([]Document, error)
}

func (m *mockLoader) Load(ctx context.Context, filePath string) ([]Document, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, filePath)
	}
	return nil, errors.New("not implemented")
}

type fakeS3 struct {
	objects map[string][]byte
	input   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = params
	body, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestS3Loader_Load(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleDocs()))

	client := &fakeS3{objects: map[string][]byte{"catalogs/std.yaml.gz": buf.Bytes()}}
	loader := newS3Loader(client, "catalog-bucket", zerolog.Nop())

	docs, err := loader.Load(context.Background(), "catalogs/std.yaml.gz")

	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, "catalog-bucket", aws.ToString(client.input.Bucket))
}

func TestS3Loader_Load_Errors(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{"catalogs/corrupt.gz": []byte("not gzip")}}
	loader := newS3Loader(client, "catalog-bucket", zerolog.Nop())

	_, err := loader.Load(context.Background(), "catalogs/missing.gz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get object from S3")

	_, err = loader.Load(context.Background(), "catalogs/corrupt.gz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read catalog file from S3")
}

func TestFallbackLoader_S3Success(t *testing.T) {
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Document, error) {
			assert.Equal(t, "catalogs/std.yaml.gz", filePath, "S3 key should have prefix")
			return sampleDocs(), nil
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Document, error) {
			t.Error("file loader should not be called when S3 succeeds")
			return nil, errors.New("should not be called")
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "catalogs/", true, zerolog.Nop())

	docs, err := fallback.Load(context.Background(), "std.yaml.gz")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestFallbackLoader_S3FailsFallsBackToLocal(t *testing.T) {
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Document, error) {
			return nil, errors.New("S3 connection failed")
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Document, error) {
			assert.Equal(t, "std.yaml.gz", filePath, "local file path should not have prefix")
			return sampleDocs()[:1], nil
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "catalogs/", true, zerolog.Nop())

	docs, err := fallback.Load(context.Background(), "std.yaml.gz")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestFallbackLoader_S3Disabled(t *testing.T) {
	s3Called := false
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Document, error) {
			s3Called = true
			return nil, nil
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Document, error) {
			return sampleDocs(), nil
		},
	}

	for _, tt := range []struct {
		name    string
		s3      Loader
		enabled bool
	}{
		{name: "Disabled", s3: s3Loader, enabled: false},
		{name: "No S3 loader", s3: nil, enabled: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			fallback := NewFallbackLoader(tt.s3, fileLoader, "catalogs/", tt.enabled, zerolog.Nop())

			docs, err := fallback.Load(context.Background(), "std.yaml.gz")
			require.NoError(t, err)
			assert.Len(t, docs, 2)
			assert.False(t, s3Called)
		})
	}
}

func TestFallbackLoader_BothFail(t *testing.T) {
	failing := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) ([]Document, error) {
			return nil, errors.New("unavailable")
		},
	}

	fallback := NewFallbackLoader(failing, failing, "catalogs/", true, zerolog.Nop())

	_, err := fallback.Load(context.Background(), "std.yaml.gz")
	assert.Error(t, err)
}
