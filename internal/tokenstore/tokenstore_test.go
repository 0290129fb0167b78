package tokenstore

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/config"
)

func testToken(expires time.Time) api.Token {
	return api.Token{Type: "Bearer", Value: "abc", ExpiresAt: expires.UTC().Truncate(time.Second)}
}

func TestKey(t *testing.T) {
	a := Key("https://shop.example/", "api-user")
	assert.Len(t, a, 12)
	assert.Equal(t, a, Key("https://shop.example", "api-user"))
	assert.NotEqual(t, a, Key("https://shop.example", "other"))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, "plenty:token:k", time.Second)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	got, err := s.LoadToken(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	tok := testToken(time.Now().Add(time.Hour))
	require.NoError(t, s.StoreToken(ctx, tok))
	assert.True(t, mr.Exists("plenty:token:k"))
	ttl := mr.TTL("plenty:token:k")
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	got, err = s.LoadToken(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tok.Value, got.Value)
	assert.True(t, tok.ExpiresAt.Equal(got.ExpiresAt))

	mr.FastForward(2 * time.Hour)
	got, err = s.LoadToken(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "key expires with the token")

	require.NoError(t, s.StoreToken(ctx, tok))
	require.NoError(t, s.ClearToken(ctx))
	assert.False(t, mr.Exists("plenty:token:k"))
}

func TestRedisStore_SkipsExpired(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "k", 0)
	require.NoError(t, s.StoreToken(context.Background(), testToken(time.Now().Add(-time.Minute))))
	assert.False(t, mr.Exists("k"))
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "k", 200*time.Millisecond)
	mr.Close()
	_, err := s.LoadToken(context.Background())
	assert.Error(t, err)
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore("http://nope", "k", 0)
	assert.Error(t, err)
}

func TestKeyringStore(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)
	s := NewKeyringStore(func() (keyring.Keyring, error) { return ring, nil }, "k")
	ctx := context.Background()

	got, err := s.LoadToken(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	tok := testToken(time.Now().Add(time.Hour))
	require.NoError(t, s.StoreToken(ctx, tok))
	item, err := ring.Get("token:k")
	require.NoError(t, err)
	assert.Contains(t, string(item.Data), `"access_token":"abc"`)

	got, err = s.LoadToken(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.Value)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	got, err = s.LoadToken(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.ClearToken(ctx))
	require.NoError(t, s.ClearToken(ctx))
	_, err = ring.Get("token:k")
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tokens")
	key := Key("https://shop.example", "api-user")
	s := NewFileStore(dir, key)
	ctx := context.Background()

	got, err := s.LoadToken(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.StoreToken(ctx, testToken(time.Now().Add(time.Hour))))
	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err = s.LoadToken(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.Value)

	require.NoError(t, os.WriteFile(s.Path(), []byte("garbage"), 0o600))
	_, err = s.LoadToken(ctx)
	assert.Error(t, err)

	require.NoError(t, s.ClearToken(ctx))
	require.NoError(t, s.ClearToken(ctx))
}

func TestClearAll(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "notes.json")
	require.NoError(t, os.WriteFile(keep, []byte("{}"), 0o600))
	for _, user := range []string{"a", "b"} {
		require.NoError(t, NewFileStore(dir, Key("https://x", user)).StoreToken(context.Background(), testToken(time.Now().Add(time.Hour))))
	}

	require.NoError(t, ClearAll(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notes.json", entries[0].Name())

	assert.NoError(t, ClearAll(filepath.Join(dir, "missing")))
}

func TestOpen(t *testing.T) {
	s, closer, err := Open(config.TokenStoreConfig{Backend: config.TokenStoreNone}, "https://x", "u")
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.NoError(t, closer.Close())

	s, _, err = Open(config.TokenStoreConfig{Backend: config.TokenStoreFile, Dir: t.TempDir()}, "https://x", "u")
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, _, err = Open(config.TokenStoreConfig{Backend: config.TokenStoreKeyring}, "https://x", "u")
	require.NoError(t, err)
	assert.IsType(t, &KeyringStore{}, s)

	mr := miniredis.RunT(t)
	s, closer, err = Open(config.TokenStoreConfig{Backend: config.TokenStoreRedis, RedisURL: "redis://" + mr.Addr(), KeyPrefix: "p:"}, "https://x", "u")
	require.NoError(t, err)
	require.NoError(t, s.StoreToken(context.Background(), testToken(time.Now().Add(time.Hour))))
	assert.True(t, mr.Exists("p:"+Key("https://x", "u")))
	assert.NoError(t, closer.Close())

	_, _, err = Open(config.TokenStoreConfig{Backend: "etcd"}, "https://x", "u")
	assert.Error(t, err)
}

type recordingTransport struct {
	auth []string
}

func (r *recordingTransport) Send(_ context.Context, _, url string, header http.Header, _ []byte) (*api.Response, error) {
	if strings.HasSuffix(url, "/rest/login") {
		return &api.Response{StatusCode: http.StatusOK, Body: []byte(`{"token_type":"Bearer","access_token":"fresh","expires_in":3600}`)}, nil
	}
	r.auth = append(r.auth, header.Get("Authorization"))
	return &api.Response{StatusCode: http.StatusOK, Body: []byte(`[]`)}, nil
}

func TestSessionUsesStoredToken(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "k", time.Second)
	require.NoError(t, store.StoreToken(context.Background(), testToken(time.Now().Add(time.Hour))))

	tr := &recordingTransport{}
	session := api.NewSession("https://shop.example", api.StaticCredentials{Username: "u", Password: "p"},
		api.WithTransport(tr), api.WithTokenStore(store))
	_, err := session.Execute(context.Background(), api.Get("/rest/vat", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer abc"}, tr.auth)
}
