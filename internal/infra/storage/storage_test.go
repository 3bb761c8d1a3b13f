package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutDelete(t *testing.T) {
	dir := t.TempDir()
	st := NewLocalStore(dir, "http://localhost:8080/")
	ctx := context.Background()

	obj, err := st.Put(ctx, "artwork-images", "42/abc.png", "image/png", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/artwork-images/42/abc.png", obj.PublicURL)
	assert.Equal(t, BackendLocal, obj.Backend)

	got, err := os.ReadFile(filepath.Join(dir, "artwork-images", "42", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	require.NoError(t, st.Delete(ctx, "artwork-images", "42/abc.png"))
	_, err = os.Stat(filepath.Join(dir, "artwork-images", "42", "abc.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, st.Delete(ctx, "artwork-images", "42/abc.png"))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	st := NewLocalStore(t.TempDir(), "")
	for _, key := range []string{"../x.png", "a/../../x", "/abs.png", "", `a\b`} {
		_, err := st.Put(context.Background(), "artwork-images", key, "image/png", []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
	_, err := st.Put(context.Background(), "..", "x.png", "image/png", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFallbackStore(t *testing.T) {
	primary := NewMemoryStore()
	primary.FailPut = true
	secondary := NewLocalStore(t.TempDir(), "http://api")
	st := &FallbackStore{Primary: primary, Secondary: secondary}
	ctx := context.Background()

	obj, err := st.Put(ctx, "profile-pictures", "1/p.png", "image/png", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, obj.Backend)

	require.NoError(t, Remove(ctx, st, obj.Backend, obj.Bucket, obj.Key))
	_, err = os.Stat(filepath.Join(secondary.Dir, "profile-pictures", "1", "p.png"))
	assert.True(t, os.IsNotExist(err))

	primary.FailPut = false
	obj, err = st.Put(ctx, "profile-pictures", "1/q.png", "image/png", []byte("x"))
	require.NoError(t, err)
	assert.True(t, primary.Has("profile-pictures", "1/q.png"))
	require.NoError(t, Remove(ctx, st, obj.Backend, obj.Bucket, obj.Key))
	assert.False(t, primary.Has("profile-pictures", "1/q.png"))
}

func TestS3Store_PublicURL(t *testing.T) {
	st, err := NewS3Store(context.Background(), S3Config{
		ProjectURL:      "https://proj.supabase.co/",
		Region:          "eu-west-1",
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/public/artwork-images/a/b.png",
		st.PublicURL("artwork-images", "a/b.png"))

	_, err = NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}
