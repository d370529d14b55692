package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/rkfood/rkfood-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func TestRouteTTLSelection(t *testing.T) {
	orderID := "3b1f8c9e-5a4d-4e2f-9c7b-1d2e3f4a5b6c"
	tests := []struct {
		name    string
		method  string
		path    string
		want    time.Duration
		matched bool
	}{
		{name: "checkout is critical", method: http.MethodPost, path: "/api/v1/cart/checkout", want: criticalIdempotencyTTL, matched: true},
		{name: "payment is critical", method: http.MethodPost, path: "/api/v1/orders/" + orderID + "/payment", want: criticalIdempotencyTTL, matched: true},
		{name: "register gets default", method: http.MethodPost, path: "/api/v1/auth/register", want: defaultIdempotencyTTL, matched: true},
		{name: "feedback gets default", method: http.MethodPost, path: "/api/v1/feedback", want: defaultIdempotencyTTL, matched: true},
		{name: "mark read gets default", method: http.MethodPost, path: "/api/v1/notifications/" + orderID + "/read", want: defaultIdempotencyTTL, matched: true},
		{name: "read-all gets default", method: http.MethodPost, path: "/api/v1/notifications/read-all", want: defaultIdempotencyTTL, matched: true},
		{name: "gets are ignored", method: http.MethodGet, path: "/api/v1/cart/checkout", matched: false},
		{name: "unlisted route ignored", method: http.MethodPost, path: "/api/v1/auth/login", matched: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ttl, ok := routeTTL(tc.method, tc.path)
			if ok != tc.matched {
				t.Fatalf("matched=%v want %v", ok, tc.matched)
			}
			if ok && ttl != tc.want {
				t.Fatalf("ttl=%v want %v", ttl, tc.want)
			}
		})
	}
}

func TestIdempotencyFencesGroupMountedSubrouters(t *testing.T) {
	store := newFakeStore()
	calls := 0

	// Mirrors the production router: the middleware sits on a group above
	// the mounted subrouter, where chi has not resolved the full pattern.
	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(Idempotency(store, nil))
			r.Route("/cart", func(r chi.Router) {
				r.Post("/checkout", func(w http.ResponseWriter, _ *http.Request) {
					calls++
					w.WriteHeader(http.StatusCreated)
					_, _ = w.Write([]byte(`{"success":true}`))
				})
			})
		})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "chk-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201, got %d", i, rec.Code)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one handler call with a replayed second response, got %d", calls)
	}
	if len(store.data) != 1 {
		t.Fatalf("expected one stored record, got %d", len(store.data))
	}
}

func TestIdempotencySkipsWithoutKey(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected no records without a key, got %d", len(store.data))
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"order":1}}`))
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201, got %d", i, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"order":1`) {
			t.Fatalf("attempt %d: unexpected body %s", i, rec.Body.String())
		}
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/v1/orders/abc/payment", strings.NewReader(`{"method":"cash"}`))
	first.Header.Set("Idempotency-Key", "pay-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/orders/abc/payment", strings.NewReader(`{"method":"online"}`))
	second.Header.Set("Idempotency-Key", "pay-1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("unexpected code: %s", payload.Error.Code)
	}
}
