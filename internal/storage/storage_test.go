package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "small.gif", "posts/small.gif"},
		{"unix path", "/tmp/upload/small.gif", "posts/small.gif"},
		{"windows path", `C:\Users\me\cat.png`, "posts/cat.png"},
		{"spaces and symbols", "my cat (1).png", "posts/my_cat__1_.png"},
		{"dot file", ".hidden", "posts/hidden"},
		{"nothing left", "..", "posts/image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyFor(tt.in))
		})
	}
}

func TestAlternateKey(t *testing.T) {
	got := alternateKey("posts/small.gif")
	assert.True(t, strings.HasPrefix(got, "posts/small_"), got)
	assert.True(t, strings.HasSuffix(got, ".gif"), got)
	assert.Len(t, got, len("posts/small_12345678.gif"))
}

// =========================================================================
// LOCAL
// =========================================================================

func TestLocal_SaveAndURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "/media")
	require.NoError(t, err)

	key, err := store.Save(context.Background(), "small.gif", []byte("GIF89a"), "image/gif")
	require.NoError(t, err)
	assert.Equal(t, "posts/small.gif", key)
	assert.Equal(t, "/media/posts/small.gif", store.URL(key))

	data, err := os.ReadFile(filepath.Join(dir, "posts", "small.gif"))
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(data))
}

func TestLocal_SaveCollisionGetsNewKey(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.Save(ctx, "small.gif", []byte("one"), "image/gif")
	require.NoError(t, err)
	second, err := store.Save(ctx, "small.gif", []byte("two"), "image/gif")
	require.NoError(t, err)

	assert.Equal(t, "posts/small.gif", first)
	assert.NotEqual(t, first, second)

	// The first upload was not overwritten.
	data, err := os.ReadFile(filepath.Join(store.Dir(), "posts", "small.gif"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

// failingClose writes through to a real file but reports a failed Close,
// the way a full disk surfaces on some filesystems.
type failingClose struct{ *os.File }

func (f failingClose) Close() error {
	f.File.Close()
	return errors.New("no space left on device")
}

func TestLocal_SaveCloseFailureRemovesFile(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	store.create = func(path string) (io.WriteCloser, error) {
		f, err := createExclusive(path)
		if err != nil {
			return nil, err
		}
		return failingClose{f.(*os.File)}, nil
	}

	_, err = store.Save(context.Background(), "small.gif", []byte("GIF89a"), "image/gif")
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(store.Dir(), "posts", "small.gif"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "half-written file should be removed")
}

func TestLocal_Delete(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Save(ctx, "small.gif", []byte("x"), "image/gif")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(store.Dir(), "posts", "small.gif"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocal_PathStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "/media/")
	require.NoError(t, err)

	p := store.path("../../etc/passwd")
	assert.True(t, strings.HasPrefix(p, dir), p)
}

// =========================================================================
// S3 (fake client)
// =========================================================================

// fakeObjects is an in-memory stand-in for the S3 API.
type fakeObjects struct {
	objects map[string][]byte
	headErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(in.Body); err != nil {
		return nil, err
	}
	f.objects[*in.Key] = buf.Bytes()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_SaveAndCollision(t *testing.T) {
	fake := newFakeObjects()
	store := newS3WithClient(fake, "images", "https://cdn.example.com/")
	ctx := context.Background()

	first, err := store.Save(ctx, "small.gif", []byte("one"), "image/gif")
	require.NoError(t, err)
	assert.Equal(t, "posts/small.gif", first)
	assert.Equal(t, "https://cdn.example.com/posts/small.gif", store.URL(first))

	second, err := store.Save(ctx, "small.gif", []byte("two"), "image/gif")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "one", string(fake.objects[first]))
	assert.Equal(t, "two", string(fake.objects[second]))

	require.NoError(t, store.Delete(ctx, first))
	assert.NotContains(t, fake.objects, first)
}

func TestS3_SaveHeadFailure(t *testing.T) {
	fake := newFakeObjects()
	fake.headErr = errors.New("network down")
	store := newS3WithClient(fake, "images", "https://cdn.example.com")

	_, err := store.Save(context.Background(), "small.gif", []byte("x"), "image/gif")
	assert.Error(t, err)
	assert.Empty(t, fake.objects)
}

func TestNewS3_BuildsClient(t *testing.T) {
	store := NewS3(S3Options{
		Bucket:          "images",
		Endpoint:        "http://localhost:9000",
		Region:          "auto",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		PublicURL:       "http://localhost:9000/images",
	})
	assert.Equal(t, "http://localhost:9000/images/posts/a.png", store.URL("posts/a.png"))
}
