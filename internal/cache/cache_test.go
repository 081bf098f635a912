package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"atsscore/internal/config"
	"atsscore/internal/errors"
	"atsscore/internal/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *types.ATSReport {
	return &types.ATSReport{
		LanguageUsed:   "en",
		GlobalScore:    78,
		IssuesCount:    4,
		OverallComment: "Good résumé",
		Pillars:        types.Pillars{TechnicalATS: 80, ContentQuality: 70, ImpactSpecificity: 75, RelevanceKeywords: 85},
		Sections: types.Sections{
			Design: &types.DesignSection{SectionResult: types.SectionResult{
				Score: 90, Status: types.StatusExcellent, Suggestions: []string{"Keep it simple"},
			}},
		},
	}
}

func sampleRequest() *types.AnalysisRequest {
	size := 120.0
	return &types.AnalysisRequest{ResumeText: "Jane Doe\n- Built APIs", FileType: "pdf", FileSizeKB: &size}
}

func TestKey(t *testing.T) {
	k1, err := Key("", sampleRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(k1, "ats:report:"))
	assert.Len(t, strings.TrimPrefix(k1, "ats:report:"), 64)

	k2, err := Key("", sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	other := sampleRequest()
	other.FileType = "docx"
	k3, err := Key("", other)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	k4, err := Key("v2", sampleRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(k4, "ats:report:v2:"))
	assert.NotEqual(t, k1, k4)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedis(ctx, config.CacheConfig{RedisAddr: mr.Addr(), TTL: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, ok, err := c.Get(ctx, "ats:report:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "ats:report:abc", sampleReport()))
	assert.True(t, mr.Exists("ats:report:abc"))
	assert.Equal(t, time.Hour, mr.TTL("ats:report:abc"))

	got, ok, err := c.Get(ctx, "ats:report:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 78, got.GlobalScore)
	require.NotNil(t, got.Sections.Design)
	assert.Equal(t, []string{"Keep it simple"}, got.Sections.Design.Suggestions)

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.Get(ctx, "ats:report:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheCorruptEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("ats:report:bad", "{not json"))

	c, err := NewRedis(context.Background(), config.CacheConfig{RedisAddr: mr.Addr(), TTL: time.Minute})
	require.NoError(t, err)

	_, ok, err := c.Get(context.Background(), "ats:report:bad")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedis(context.Background(), config.CacheConfig{RedisAddr: mr.Addr(), TTL: time.Minute})
	require.NoError(t, err)

	mr.Close()
	_, _, err = c.Get(context.Background(), "ats:report:x")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))

	_, err = NewRedis(context.Background(), config.CacheConfig{RedisAddr: mr.Addr(), Timeout: 100 * time.Millisecond})
	assert.Error(t, err)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, ok, _ := m.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", sampleReport()))
	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 78, got.GlobalScore)

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())

	require.NoError(t, m.Set(ctx, "a", sampleReport()))
	now = now.Add(2 * time.Minute)
	require.NoError(t, m.Set(ctx, "b", sampleReport()))
	assert.Equal(t, 1, m.Len())
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, config.CacheConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, c)
	require.NoError(t, c.Set(ctx, "k", sampleReport()))
	_, ok, _ := c.Get(ctx, "k")
	assert.False(t, ok)

	c, err = New(ctx, config.CacheConfig{Enabled: true, Backend: "memory", TTL: time.Minute}, errors.Discard())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	mr := miniredis.RunT(t)
	c, err = New(ctx, config.CacheConfig{Enabled: true, Backend: "redis", RedisAddr: mr.Addr(), TTL: time.Minute}, errors.Discard())
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, c)
	require.NoError(t, c.Close())

	_, err = New(ctx, config.CacheConfig{Enabled: true, Backend: "memcached"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
