package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/karaoke/internal/shared"
)

type stubHandler struct{}

func (stubHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/items/{id}", Handler: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("item " + r.PathValue("id")))
		}},
		{Method: http.MethodPost, Pattern: "/items", Handler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}},
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("Handle", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("get", "/hello", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("hello"))
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hello", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405 for wrong method, got %d", rec.Code)
		}
	})

	t.Run("Mount", func(t *testing.T) {
		router := NewBasicRouter()
		router.Mount(stubHandler{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
		if rec.Body.String() != "item 42" {
			t.Errorf("expected path value to be routed, got %q", rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items", nil))
		if rec.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", rec.Code)
		}
	})

	t.Run("MiddlewareOrder", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Logging", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		router := NewBasicRouter()
		router.Use(Logging(logger))
		router.Handle(http.MethodGet, "/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))
		out := buf.String()
		if !strings.Contains(out, "/teapot") || !strings.Contains(out, "418") {
			t.Errorf("expected path and status in log line, got %q", out)
		}
	})

	t.Run("Recover", func(t *testing.T) {
		var buf bytes.Buffer
		router := NewBasicRouter()
		router.Use(Recover(shared.NewLogger(&buf)))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "handler panic") {
			t.Errorf("expected panic to be logged, got %q", buf.String())
		}
	})
}
