package exposure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"rateview/domain"
)

type fakeExternalCache struct {
	data     map[string][]byte
	getErr   error
	setCalls int
	flushed  bool
}

func newFakeExternalCache() *fakeExternalCache {
	return &fakeExternalCache{data: make(map[string][]byte)}
}

func (f *fakeExternalCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	raw, ok := f.data[key]
	return raw, ok, nil
}

func (f *fakeExternalCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	f.setCalls++
	f.data[key] = payload
	return nil
}

func (f *fakeExternalCache) Delete(ctx context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func (f *fakeExternalCache) Flush(ctx context.Context) error {
	f.flushed = true
	f.data = make(map[string][]byte)
	return nil
}

func payloadFor(displayContext string) *domain.ExposureResponse {
	return &domain.ExposureResponse{
		Context: displayContext,
		Mix:     []domain.ExposureItem{},
	}
}

func TestPayloadCache_LocalHitAndTTLExpiry(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	cache := NewPayloadCache(10*time.Minute, nil)
	cache.now = func() time.Time { return now }

	cache.Set(context.Background(), "home:anon:all", payloadFor("home"))

	got, ok := cache.Get(context.Background(), "home:anon:all")
	if !ok || got.Context != "home" {
		t.Fatalf("expected fresh local hit, got ok=%v payload=%+v", ok, got)
	}

	now = now.Add(10*time.Minute + time.Second)
	if _, ok := cache.Get(context.Background(), "home:anon:all"); ok {
		t.Fatal("expected stale entry to miss after TTL")
	}
	// stale entry is evicted, not just hidden
	cache.mu.RLock()
	_, present := cache.local["home:anon:all"]
	cache.mu.RUnlock()
	if present {
		t.Fatal("stale entry was not evicted on read")
	}
}

func TestPayloadCache_ExternalTierPreferred(t *testing.T) {
	external := newFakeExternalCache()
	raw, _ := json.Marshal(payloadFor("from-redis"))
	external.data["home:anon:all"] = raw

	cache := NewPayloadCache(10*time.Minute, external)
	cache.local["home:anon:all"] = localEntry{storedAt: time.Now(), payload: *payloadFor("from-local")}

	got, ok := cache.Get(context.Background(), "home:anon:all")
	if !ok || got.Context != "from-redis" {
		t.Fatalf("expected external tier to win, got ok=%v payload=%+v", ok, got)
	}
}

func TestPayloadCache_ExternalErrorFallsBackToLocal(t *testing.T) {
	external := newFakeExternalCache()
	external.getErr = errors.New("redis down")

	cache := NewPayloadCache(10*time.Minute, external)
	cache.Set(context.Background(), "home:anon:all", payloadFor("home"))

	got, ok := cache.Get(context.Background(), "home:anon:all")
	if !ok || got.Context != "home" {
		t.Fatalf("expected local fallback, got ok=%v payload=%+v", ok, got)
	}
}

func TestPayloadCache_SetWritesBothTiers(t *testing.T) {
	external := newFakeExternalCache()
	cache := NewPayloadCache(10*time.Minute, external)

	cache.Set(context.Background(), "home:anon:all", payloadFor("home"))

	if external.setCalls != 1 {
		t.Errorf("external set calls = %d, want 1", external.setCalls)
	}
	if _, ok := cache.local["home:anon:all"]; !ok {
		t.Error("local tier was not written")
	}
}

func TestPayloadCache_ClearAndClearAll(t *testing.T) {
	external := newFakeExternalCache()
	cache := NewPayloadCache(10*time.Minute, external)

	cache.Set(context.Background(), "home:anon:all", payloadFor("home"))
	cache.Set(context.Background(), "home:u1:all", payloadFor("home"))

	cache.Clear(context.Background(), "home:anon:all")
	if _, ok := cache.Get(context.Background(), "home:anon:all"); ok {
		t.Fatal("cleared key still served")
	}
	if _, ok := cache.Get(context.Background(), "home:u1:all"); !ok {
		t.Fatal("unrelated key was cleared")
	}

	cache.ClearAll(context.Background())
	if !external.flushed {
		t.Error("external tier was not flushed")
	}
	if _, ok := cache.Get(context.Background(), "home:u1:all"); ok {
		t.Fatal("key survived ClearAll")
	}
}
