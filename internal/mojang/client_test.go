package mojang

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolveReturnsDashedUUID(t *testing.T) {
	at := time.Unix(1500000000, 0)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/profiles/minecraft/Notch" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("at"); got != "1500000000" {
			t.Errorf("at = %q, want 1500000000", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch"}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	id, err := c.Resolve(context.Background(), "Notch", at)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "069a79f4-44e9-4726-a5be-fca90e38aaf5" {
		t.Fatalf("id = %q", id)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch"}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	at := time.Unix(1500000000, 0)

	first, err := c.Resolve(context.Background(), "Notch", at)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Resolve(context.Background(), "Notch", at)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("resolution not stable: %q vs %q", first, second)
	}
}

func TestResolveUnknownName(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusNotFound} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewClientWithBaseURL(srv.URL)
		_, err := c.Resolve(context.Background(), "NoSuchPlayer", time.Now())
		srv.Close()

		if !errors.Is(err, ErrNoSuchProfile) {
			t.Fatalf("status %d: expected ErrNoSuchProfile, got %v", status, err)
		}
	}
}

func TestResolveMalformedProfileID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"not-a-uuid","name":"Notch"}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	if _, err := c.Resolve(context.Background(), "Notch", time.Now()); err == nil {
		t.Fatal("expected error for malformed profile id")
	}
}
