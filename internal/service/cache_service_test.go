package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/defense-scheduler/pkg/errors"
)

type cacheRepoStub struct {
	items   map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	deleted []string
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{items: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *cacheRepoStub) Get(_ context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	raw, ok := s.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheRepoStub) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.items[key] = raw
	s.ttls[key] = ttl
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
			s.deleted = append(s.deleted, key)
		}
	}
	return nil
}

func TestCacheServiceRoundTripAndMiss(t *testing.T) {
	repo := newCacheRepoStub()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()

	var out []string
	hit, err := svc.Get(ctx, "optimization:session:s1:runs", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "optimization:session:s1:runs", []string{"run-1"}, 0))
	assert.Equal(t, 30*time.Minute, repo.ttls["optimization:session:s1:runs"])

	hit, err = svc.Get(ctx, "optimization:session:s1:runs", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"run-1"}, out)

	snapshot := metrics.Snapshot()
	assert.InDelta(t, 0.5, snapshot.CacheHitRatio, 1e-9)
}

func TestCacheServiceInvalidateAndErrors(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "optimization:session:s1:runs", 1, 0))
	require.NoError(t, svc.Set(ctx, "optimization:run:r1", 1, 0))
	require.NoError(t, svc.Invalidate(ctx, "optimization:session:s1:*"))
	assert.Equal(t, []string{"optimization:session:s1:runs"}, repo.deleted)
	assert.Contains(t, repo.items, "optimization:run:r1")

	repo.getErr = errors.New("connection refused")
	var out int
	hit, err := svc.Get(ctx, "optimization:run:r1", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.items)
	var out int
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, (*CacheService)(nil).Enabled())
}
