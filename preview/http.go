package preview

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/time/rate"
)

// Scales are the resize factors accepted by ?scale=
var Scales = []float64{0.25, 0.5, 1, 2}

// HTTPRenderer keeps the last previewed frame and serves it as PNG or JPEG.
// Encodes are rate limited; requests over the limit get the previous encoding
// of that kind and scale, or 503 if there is none.
type HTTPRenderer struct {
	mu    sync.Mutex
	img   *image.Gray
	index int

	lim   *rate.Limiter
	cache map[cacheKey]encoded
}

type cacheKey struct {
	kind  string
	scale float64
}

type encoded struct {
	index int
	data  []byte
}

// NewHTTPRenderer returns a renderer that encodes at most hz times per second,
// with a burst of one encode per kind and scale
func NewHTTPRenderer(hz float64) *HTTPRenderer {
	return &HTTPRenderer{
		index: -1,
		lim:   rate.NewLimiter(rate.Limit(hz), 2*len(Scales)),
		cache: make(map[cacheKey]encoded),
	}
}

// Render copies img
func (h *HTTPRenderer) Render(img *image.Gray, index int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.img == nil || h.img.Rect != img.Rect {
		h.img = image.NewGray(img.Rect)
	}
	for y := 0; y < img.Rect.Dy(); y++ {
		copy(h.img.Pix[y*h.img.Stride:(y+1)*h.img.Stride], img.Pix[y*img.Stride:])
	}
	h.index = index
	return nil
}

// Index is the frame index of the last rendered preview, -1 if none
func (h *HTTPRenderer) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// CacheLen is the number of encodings held
func (h *HTTPRenderer) CacheLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cache)
}

func parseScale(s string) (float64, bool) {
	if s == "" {
		return 1, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	for _, v := range Scales {
		if f == v {
			return v, true
		}
	}
	return 0, false
}

// scaled returns the held image resampled by factor.  Caller holds mu.
func (h *HTTPRenderer) scaled(factor float64) image.Image {
	if factor == 1 {
		return h.img
	}
	b := h.img.Bounds()
	w, ht := int(float64(b.Dx())*factor), int(float64(b.Dy())*factor)
	if w < 1 {
		w = 1
	}
	if ht < 1 {
		ht = 1
	}
	dst := image.NewGray(image.Rect(0, 0, w, ht))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), h.img, b, draw.Src, nil)
	return dst
}

func (h *HTTPRenderer) serve(w http.ResponseWriter, r *http.Request, kind string) {
	scale, ok := parseScale(r.URL.Query().Get("scale"))
	if !ok {
		http.Error(w, "scale must be one of 0.25, 0.5, 1, 2", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	if h.img == nil {
		h.mu.Unlock()
		http.Error(w, "no frame captured yet", http.StatusServiceUnavailable)
		return
	}
	key := cacheKey{kind, scale}
	c, ok := h.cache[key]
	if !ok || c.index != h.index {
		if !h.lim.Allow() {
			if !ok {
				h.mu.Unlock()
				w.Header().Set("Retry-After", "1")
				http.Error(w, "preview encode rate exceeded", http.StatusServiceUnavailable)
				return
			}
		} else {
			var buf bytes.Buffer
			var err error
			img := h.scaled(scale)
			if kind == "png" {
				err = png.Encode(&buf, img)
			} else {
				err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
			}
			if err != nil {
				h.mu.Unlock()
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			c = encoded{index: h.index, data: buf.Bytes()}
			h.cache[key] = c
		}
	}
	h.mu.Unlock()

	w.Header().Set("Content-Type", "image/"+kind)
	w.Header().Set("X-Frame-Index", strconv.Itoa(c.index))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(c.data)
}

// PNG serves the latest preview as a PNG.  ?scale= resizes it.
func (h *HTTPRenderer) PNG(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "png")
}

// JPEG serves the latest preview as a JPEG.  ?scale= resizes it.
func (h *HTTPRenderer) JPEG(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "jpeg")
}
