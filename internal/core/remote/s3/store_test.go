package s3

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syntrixbase/filecatalog/internal/core/remote"
	"github.com/syntrixbase/filecatalog/internal/core/remote/config"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

// fakeS3 serves a fixed key list in pages of MaxKeys, using the index of the
// next key as the continuation token.
type fakeS3 struct {
	keys    []string
	sizes   map[string]int64
	headErr error
	listErr error
	inputs  []*s3.ListObjectsV2Input
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	size, ok := f.sizes[aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(size)}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.inputs = append(f.inputs, in)
	if f.listErr != nil {
		return nil, f.listErr
	}
	start := 0
	if in.ContinuationToken != nil {
		for i, k := range f.keys {
			if k == aws.ToString(in.ContinuationToken) {
				start = i
			}
		}
	}
	end := start + int(aws.ToInt32(in.MaxKeys))
	if end > len(f.keys) {
		end = len(f.keys)
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(f.keys))}
	for _, k := range f.keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(f.sizes[k])})
	}
	if end < len(f.keys) {
		out.NextContinuationToken = aws.String(f.keys[end])
	}
	return out, nil
}

func newFake() *fakeS3 {
	f := &fakeS3{sizes: map[string]int64{}}
	for _, kv := range []struct {
		k string
		s int64
	}{{"ABC", 440}, {"docs/", 0}, {"docs/Report.pdf", 10}, {"docs/notes.txt", 20}, {"report-2.txt", 30}} {
		f.keys = append(f.keys, kv.k)
		f.sizes[kv.k] = kv.s
	}
	return f
}

func testConfig(pageSize int) config.Config {
	cfg := config.DefaultConfig()
	cfg.PageSize = pageSize
	return cfg
}

func TestStore_Get(t *testing.T) {
	s := NewWithClient(newFake(), testConfig(2))

	rec, err := s.Get(context.Background(), "id:ABC")
	require.NoError(t, err)
	assert.Equal(t, "id:ABC", rec.ID)
	assert.Equal(t, "ABC", rec.Name)
	assert.Equal(t, "/abc", rec.Path)
	assert.Equal(t, int64(440), rec.Size)

	_, err = s.Get(context.Background(), "id:missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.Get(context.Background(), "/docs/")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_GetTransportError(t *testing.T) {
	f := newFake()
	f.headErr = errors.New("connection refused")
	s := NewWithClient(f, testConfig(2))

	_, err := s.Get(context.Background(), "id:ABC")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
	assert.Error(t, s.Ping(context.Background()))
}

func TestStore_ListPages(t *testing.T) {
	f := newFake()
	s := NewWithClient(f, testConfig(2))

	var files, folders int
	cursor := ""
	for {
		page, err := s.List(context.Background(), cursor)
		require.NoError(t, err)
		for _, e := range page.Entries {
			if e.Kind == remote.KindFolder {
				folders++
			} else {
				files++
			}
		}
		if !page.HasMore {
			break
		}
		cursor = page.Cursor
	}
	assert.Equal(t, 4, files)
	assert.Equal(t, 1, folders)
	require.Len(t, f.inputs, 3)
	assert.Nil(t, f.inputs[0].ContinuationToken)
	assert.Equal(t, "docs/Report.pdf", aws.ToString(f.inputs[1].ContinuationToken))
	assert.Equal(t, int32(2), aws.ToInt32(f.inputs[0].MaxKeys))
}

func TestStore_ListError(t *testing.T) {
	f := newFake()
	f.listErr = errors.New("throttled")
	_, err := NewWithClient(f, testConfig(2)).List(context.Background(), "")
	assert.ErrorContains(t, err, "throttled")
}

func TestStore_SearchByName(t *testing.T) {
	s := NewWithClient(newFake(), testConfig(2))

	got, err := s.SearchByName(context.Background(), "report")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Report.pdf", got[0].Name)
	assert.Equal(t, "report-2.txt", got[1].Name)

	empty, err := s.SearchByName(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_SearchByNameCapped(t *testing.T) {
	cfg := testConfig(2)
	cfg.MaxSearchResults = 1
	got, err := NewWithClient(newFake(), cfg).SearchByName(context.Background(), "r")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "http://minio:9000", endpointURL("minio:9000", false))
	assert.Equal(t, "https://s3.local", endpointURL("s3.local", true))
	assert.Equal(t, "http://x:1", endpointURL("http://x:1", true))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NoSuchKey"}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("plain")))
}

func TestNew_StaticCredentials(t *testing.T) {
	cfg := testConfig(10)
	cfg.Endpoint = "localhost:9000"
	cfg.AccessKey = "AK"
	cfg.SecretKey = "SK"

	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "files", s.bucket)
	assert.Equal(t, int32(10), s.pageSize)
}
