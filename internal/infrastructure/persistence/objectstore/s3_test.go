package objectstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/internal/domain/shared"
)

type object struct {
	body []byte
	meta map[string]string
}

// fakeS3 is an in-memory bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]object
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string]object{}} }

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(o.body)), Metadata: o.meta}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{Metadata: o.meta}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[aws.ToString(in.Key)] = object{body: body, meta: in.Metadata}
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, aws.ToString(in.Key))
	f.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestStore_VersionedWrites(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeS3()
	s := New(bucket, "skillera", "data")

	v, err := s.Put(ctx, "students/a", []byte(`{"id":"a"}`), 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
	assert.Contains(t, bucket.objects, "data/students/a")

	_, err = s.Put(ctx, "students/a", []byte(`{}`), 0)
	assert.ErrorIs(t, err, shared.ErrVersionConflict)

	v, err = s.Put(ctx, "students/a", []byte(`{"id":"a","points":10}`), 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)

	doc, err := s.Get(ctx, "students/a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, doc.Version)
	assert.JSONEq(t, `{"id":"a","points":10}`, string(doc.Data))

	_, err = s.Get(ctx, "students/missing")
	assert.True(t, shared.IsNotFound(err))
}

func TestStore_ListStripsPrefix(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeS3(), "skillera", "data/")
	for _, k := range []string{"students/b", "students/a", "events"} {
		_, err := s.Put(ctx, k, []byte(`[]`), 0)
		require.NoError(t, err)
	}

	keys, err := s.List(ctx, "students/")
	require.NoError(t, err)
	assert.Equal(t, []string{"students/a", "students/b"}, keys)

	require.NoError(t, s.Delete(ctx, "students/a"))
	require.NoError(t, s.Delete(ctx, "students/a"))
}

func TestParseVersion(t *testing.T) {
	assert.EqualValues(t, 1, parseVersion(nil))
	assert.EqualValues(t, 7, parseVersion(map[string]string{"Doc-Version": "7"}))
	assert.EqualValues(t, 1, parseVersion(map[string]string{"doc-version": "junk"}))
}
