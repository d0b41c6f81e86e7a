package preview_test

import (
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/nasa-jpl/fastmovie/preview"
)

func TestHTTPRendererNoFrame(t *testing.T) {
	h := preview.NewHTTPRenderer(60)
	w := httptest.NewRecorder()
	h.PNG(w, httptest.NewRequest(http.MethodGet, "/preview.png", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 got %d", w.Code)
	}
}

func TestHTTPRendererPNG(t *testing.T) {
	h := preview.NewHTTPRenderer(60)
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	h.Render(img, 7)
	img.Pix[0] = 0 // the renderer must have kept its own copy

	w := httptest.NewRecorder()
	h.PNG(w, httptest.NewRequest(http.MethodGet, "/preview.png", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if idx := w.Header().Get("X-Frame-Index"); idx != "7" {
		t.Errorf("expected frame index 7 got %s", idx)
	}
	out, err := png.Decode(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Errorf("expected 8x4 got %v", b)
	}
	if g := out.(*image.Gray); g.Pix[0] != 200 {
		t.Errorf("expected pixel 200 got %d", g.Pix[0])
	}

	w = httptest.NewRecorder()
	h.PNG(w, httptest.NewRequest(http.MethodGet, "/preview.png?scale=0.5", nil))
	out, err = png.Decode(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Errorf("expected 4x2 got %v", b)
	}
}

func TestHTTPRendererBadScale(t *testing.T) {
	h := preview.NewHTTPRenderer(60)
	h.Render(image.NewGray(image.Rect(0, 0, 2, 2)), 0)
	w := httptest.NewRecorder()
	h.JPEG(w, httptest.NewRequest(http.MethodGet, "/preview.jpg?scale=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 got %d", w.Code)
	}
}

func TestHTTPRendererScaleSet(t *testing.T) {
	h := preview.NewHTTPRenderer(60)
	h.Render(image.NewGray(image.Rect(0, 0, 64, 48)), 0)
	for i := 1; i <= 500; i++ {
		w := httptest.NewRecorder()
		q := "/preview.png?scale=" + strconv.FormatFloat(1+float64(i)/1000, 'g', -1, 64)
		h.PNG(w, httptest.NewRequest(http.MethodGet, q, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", q, w.Code)
		}
	}
	for _, s := range preview.Scales {
		for _, kind := range []string{"png", "jpg"} {
			w := httptest.NewRecorder()
			q := "/preview." + kind + "?scale=" + strconv.FormatFloat(s, 'g', -1, 64)
			if kind == "png" {
				h.PNG(w, httptest.NewRequest(http.MethodGet, q, nil))
			} else {
				h.JPEG(w, httptest.NewRequest(http.MethodGet, q, nil))
			}
			if w.Code != http.StatusOK {
				t.Errorf("%s: expected 200 got %d", q, w.Code)
			}
		}
	}
	if n, exp := h.CacheLen(), 2*len(preview.Scales); n != exp {
		t.Errorf("expected %d cached encodings got %d", exp, n)
	}
}

func TestHTTPRendererRateLimited(t *testing.T) {
	h := preview.NewHTTPRenderer(0.001)
	h.Render(image.NewGray(image.Rect(0, 0, 8, 8)), 1)
	for _, s := range preview.Scales {
		w := httptest.NewRecorder()
		h.PNG(w, httptest.NewRequest(http.MethodGet, "/preview.png?scale="+strconv.FormatFloat(s, 'g', -1, 64), nil))
		w = httptest.NewRecorder()
		h.JPEG(w, httptest.NewRequest(http.MethodGet, "/preview.jpg?scale="+strconv.FormatFloat(s, 'g', -1, 64), nil))
	}

	// the burst is spent; a new frame is served from the previous encoding
	h.Render(image.NewGray(image.Rect(0, 0, 8, 8)), 2)
	w := httptest.NewRecorder()
	h.PNG(w, httptest.NewRequest(http.MethodGet, "/preview.png", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if idx := w.Header().Get("X-Frame-Index"); idx != "1" {
		t.Errorf("expected stale frame index 1 got %s", idx)
	}
}

func TestHTTPRendererRateLimitedNoEncoding(t *testing.T) {
	h := preview.NewHTTPRenderer(0.001)
	h.Render(image.NewGray(image.Rect(0, 0, 8, 8)), 1)
	for i := 0; i < 2*len(preview.Scales); i++ {
		w := httptest.NewRecorder()
		h.PNG(w, httptest.NewRequest(http.MethodGet, "/preview.png", nil))
		h.Render(image.NewGray(image.Rect(0, 0, 8, 8)), i+2)
	}
	w := httptest.NewRecorder()
	h.JPEG(w, httptest.NewRequest(http.MethodGet, "/preview.jpg?scale=2", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}
}
