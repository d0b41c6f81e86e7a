package window_test

import (
	"math"
	"testing"

	"github.com/nasa-jpl/fastmovie/preview/window"
)

func TestZoom(t *testing.T) {
	if z := window.Zoom(0); z != 1 {
		t.Errorf("expected 1 got %v", z)
	}
	if z := window.Zoom(2); math.Abs(z-16./9.) > 1e-12 {
		t.Errorf("expected 16/9 got %v", z)
	}
}

func TestSize(t *testing.T) {
	w, h := window.Size(640, 480, 0)
	if w != 640 || h != 480 {
		t.Errorf("expected 640x480 got %dx%d", w, h)
	}
	w, h = window.Size(640, 480, window.ZoomPowMin)
	if w != window.MinWidth || h != window.MinHeight {
		t.Errorf("expected the minimum size got %dx%d", w, h)
	}
}
