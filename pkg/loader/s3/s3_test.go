package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	objects map[string]string
	calls   int
}

func (f *fakeGetter) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		source, bucket, key string
		wantErr             bool
	}{
		{source: "s3://docs/a/b.txt", bucket: "docs", key: "a/b.txt"},
		{source: "s3:///a.txt", bucket: "", key: "a.txt"},
		{source: "a/b.txt", key: "a/b.txt"},
		{source: "s3://docs", wantErr: true},
	}
	for _, tt := range tests {
		bucket, key, err := ParseSource(tt.source)
		if tt.wantErr {
			assert.Error(t, err, tt.source)
			continue
		}
		require.NoError(t, err, tt.source)
		assert.Equal(t, tt.bucket, bucket, tt.source)
		assert.Equal(t, tt.key, key, tt.source)
	}
}

func TestLoad(t *testing.T) {
	getter := &fakeGetter{objects: map[string]string{
		"docs/a.txt":    "from docs",
		"default/b.txt": "from default",
	}}
	l := NewS3TextLoaderWithClient("default", getter)

	data, err := l.Load(context.Background(), "s3://docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "from docs", string(data))

	data, err = l.Load(context.Background(), "s3:///b.txt")
	require.NoError(t, err)
	assert.Equal(t, "from default", string(data))

	_, err = l.Load(context.Background(), "s3://docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, getter.calls)

	_, err = l.Load(context.Background(), "s3://docs/missing.txt")
	assert.ErrorContains(t, err, "NoSuchKey")
	assert.Equal(t, 2+getAttempts, getter.calls)
}
