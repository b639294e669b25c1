package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type memIdempotencyStore struct {
	values map[string]string
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{values: map[string]string{}}
}

func (m *memIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (m *memIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func newIdempotentRouter(store *memIdempotencyStore, hits *int) http.Handler {
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	r.Post("/api/v1/checkout", func(w http.ResponseWriter, req *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"order":"abc"}}`))
	})
	return r
}

func checkoutRequest(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemIdempotencyStore()
	hits := 0
	router := newIdempotentRouter(store, &hits)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, checkoutRequest("key-1", `{"amount":1}`))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, checkoutRequest("key-1", `{"amount":1}`))
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatal("replay must return the stored body")
	}
	if hits != 1 {
		t.Fatalf("handler must run once, ran %d times", hits)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newMemIdempotencyStore()
	hits := 0
	router := newIdempotentRouter(store, &hits)

	router.ServeHTTP(httptest.NewRecorder(), checkoutRequest("key-2", `{"amount":1}`))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, checkoutRequest("key-2", `{"amount":2}`))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for mismatched body, got %d", rec.Code)
	}
	if hits != 1 {
		t.Fatalf("mismatched replay must not run the handler, ran %d times", hits)
	}
}

func TestIdempotencyRequiresHeaderOnGuardedRoutes(t *testing.T) {
	store := newMemIdempotencyStore()
	hits := 0
	router := newIdempotentRouter(store, &hits)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, checkoutRequest("", `{"amount":1}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without header, got %d", rec.Code)
	}
	if hits != 0 {
		t.Fatal("handler must not run without an idempotency key")
	}
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	store := newMemIdempotencyStore()
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	hits := 0
	r.Get("/api/v1/products", func(w http.ResponseWriter, req *http.Request) {
		hits++
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if rec.Code != http.StatusOK || hits != 1 {
		t.Fatalf("unguarded route must pass through, code=%d hits=%d", rec.Code, hits)
	}
	if len(store.values) != 0 {
		t.Fatal("unguarded route must not write idempotency records")
	}
}
