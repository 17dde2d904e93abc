package tenant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/suPer8Hu/docchat/internal/ai"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Tenant{}))
	return db
}

func seed(t *testing.T, repo *Repo, tn *Tenant) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), tn))
}

func TestDirectory_ResolvesByGeneratedKeyThenID(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	dir := NewDirectory(repo)
	ctx := context.Background()

	seed(t, repo, &Tenant{ID: "abc123", GeneratedAPIKey: "key-abc", ManyChatAPIKey: "tok-a", FileStoreID: "store-1"})
	// second tenant whose generated key collides with the first tenant's id
	seed(t, repo, &Tenant{ID: "zzz999", GeneratedAPIKey: "abc123", ManyChatAPIKey: "tok-z"})

	r, err := dir.Resolve(ctx, "key-abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", r.ID)
	assert.Equal(t, "tok-a", r.DeliveryToken)
	assert.Equal(t, "store-1", r.StoreID)

	r, err = dir.Resolve(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "zzz999", r.ID, "generated key strategy must win over id")

	r, err = dir.Resolve(ctx, "zzz999")
	require.NoError(t, err)
	assert.Equal(t, "zzz999", r.ID)
}

func TestDirectory_UnknownCredential(t *testing.T) {
	dir := NewDirectory(NewRepo(openTestDB(t)))

	_, err := dir.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = dir.Resolve(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = val
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type countingResolver struct {
	next  Resolver
	calls int
}

func (r *countingResolver) Resolve(ctx context.Context, cred string) (*Resolved, error) {
	r.calls++
	return r.next.Resolve(ctx, cred)
}

func TestCachedResolver_HitsSkipDirectoryAndMissesAreNotCached(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	seed(t, repo, &Tenant{ID: "t1", GeneratedAPIKey: "k1", ManyChatAPIKey: "tok"})

	inner := &countingResolver{next: NewDirectory(repo)}
	cache := newMapCache()
	cr := NewCachedResolver(inner, cache, time.Minute, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r, err := cr.Resolve(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "t1", r.ID)
	}
	assert.Equal(t, 1, inner.calls)

	_, err := cr.Resolve(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = cr.Resolve(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 3, inner.calls)
}

type fakeTokens struct{ valid string }

func (f fakeTokens) ValidateToken(_ context.Context, token string) bool { return token == f.valid }

func TestService_UpdateProfileInvalidatesCache(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	cache := newMapCache()
	cr := NewCachedResolver(NewDirectory(repo), cache, time.Minute, zerolog.Nop())
	svc := NewService(repo, fakeTokens{valid: "good"}, cr, "https://api.example.com/")
	ctx := context.Background()

	tn, err := svc.Create(ctx, "t1", "a@b.c", "Acme")
	require.NoError(t, err)
	assert.Equal(t, RoleAccountUser, tn.Role)
	assert.NotEmpty(t, tn.GeneratedAPIKey)
	assert.Equal(t, ai.DefaultInstruction, tn.ChatbotPrompt)

	r, err := cr.Resolve(ctx, tn.GeneratedAPIKey)
	require.NoError(t, err)
	assert.Empty(t, r.DeliveryToken)

	bad := "bad"
	_, err = svc.UpdateProfile(ctx, "t1", ProfileUpdate{ManyChatAPIKey: &bad})
	assert.ErrorIs(t, err, ErrInvalidDeliveryToken)

	good := "good"
	_, err = svc.UpdateProfile(ctx, "t1", ProfileUpdate{ManyChatAPIKey: &good})
	require.NoError(t, err)

	r, err = cr.Resolve(ctx, tn.GeneratedAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "good", r.DeliveryToken)
}

func TestService_PromptAndWebhookURL(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	svc := NewService(repo, nil, nil, "https://api.example.com/")
	ctx := context.Background()

	seed(t, repo, &Tenant{ID: "t1", GeneratedAPIKey: "gen-1"})

	p, err := svc.GetPrompt(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, ai.DefaultInstruction, p)

	assert.ErrorIs(t, svc.UpdatePrompt(ctx, "t1", "   "), ErrEmptyPrompt)
	require.NoError(t, svc.UpdatePrompt(ctx, "t1", "Be brief."))
	p, err = svc.GetPrompt(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", p)

	u, err := svc.WebhookURL(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api/v1/webhook/incoming?client_api_key=gen-1", u)

	_, err = svc.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_SetStoreIDIfEmptyFirstWriterWins(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	svc := NewService(repo, nil, nil, "")
	ctx := context.Background()
	seed(t, repo, &Tenant{ID: "t1", GeneratedAPIKey: "gen-1"})

	won, err := svc.SetStoreIDIfEmpty(ctx, "t1", "fileSearchStores/a")
	require.NoError(t, err)
	assert.True(t, won)

	won, err = svc.SetStoreIDIfEmpty(ctx, "t1", "fileSearchStores/b")
	require.NoError(t, err)
	assert.False(t, won)

	tn, err := svc.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "fileSearchStores/a", tn.FileStoreID)
}
