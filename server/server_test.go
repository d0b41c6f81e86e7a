package server_test

import (
	"encoding/json"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nasa-jpl/fastmovie/movie"
	"github.com/nasa-jpl/fastmovie/preview"
	"github.com/nasa-jpl/fastmovie/server"
)

type fixed struct {
	st movie.Status
}

func (f fixed) Status() movie.Status {
	return f.st
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestStatus(t *testing.T) {
	st := movie.Status{ID: "abc", State: "acquiring", Frames: 10, Completed: 4}
	h := server.New(fixed{st}, nil).Handler()
	w := get(t, h, "/status")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var got movie.Status
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(st, got); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestMetrics(t *testing.T) {
	st := movie.Status{State: "acquiring", Frames: 10, Completed: 4}
	h := server.New(fixed{st}, nil).Handler()
	w := get(t, h, "/metrics")
	body, _ := io.ReadAll(w.Body)
	for _, s := range []string{"fastmovie_frames_captured 4", "fastmovie_frames_requested 10", "fastmovie_acquiring 1"} {
		if !strings.Contains(string(body), s) {
			t.Errorf("expected %q in metrics output", s)
		}
	}
}

func TestPreviewRoutes(t *testing.T) {
	prev := preview.NewHTTPRenderer(60)
	prev.Render(image.NewGray(image.Rect(0, 0, 4, 4)), 0)
	h := server.New(fixed{}, prev).Handler()
	if w := get(t, h, "/preview.png"); w.Code != http.StatusOK {
		t.Errorf("expected 200 got %d", w.Code)
	}
	if w := get(t, server.New(fixed{}, nil).Handler(), "/preview.png"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a preview got %d", w.Code)
	}
}

func TestSidecar(t *testing.T) {
	base := t.TempDir() + "/movie"
	os.WriteFile(base+".rawm", []byte("<movie_metadata/>"), 0666)
	h := server.New(fixed{movie.Status{State: "saving", Base: base}}, nil).Handler()
	if w := get(t, h, "/sidecar"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 before save got %d", w.Code)
	}
	h = server.New(fixed{movie.Status{State: "done", Base: base}}, nil).Handler()
	w := get(t, h, "/sidecar")
	if w.Code != http.StatusOK || w.Body.String() != "<movie_metadata/>" {
		t.Errorf("expected the sidecar, got %d %q", w.Code, w.Body.String())
	}
}

func TestListRoutes(t *testing.T) {
	h := server.New(fixed{}, nil).Handler()
	var got []string
	json.NewDecoder(get(t, h, "/list-of-routes").Body).Decode(&got)
	exp := []string{"/list-of-routes", "/metrics", "/sidecar", "/status"}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("routes mismatch (-want +got):\n%s", diff)
	}
}
