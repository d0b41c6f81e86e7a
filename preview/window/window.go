/*Package window shows the live preview in a desktop window.

The window starts at the frame's native size.  The mouse wheel zooms in and
out in steps of 4/3, between (4/3)^-8 and (4/3)^18, and the window is never
made smaller than MinWidth x MinHeight.
*/
package window

import (
	"image"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/nasa-jpl/fastmovie/mathx"
)

// Zoom limits
const (
	ZoomBase   = 4. / 3.
	ZoomPowMin = -8
	ZoomPowMax = 18

	MinWidth  = 232
	MinHeight = 120
)

// Zoom is the scale factor at zoom step pow
func Zoom(pow int) float64 {
	return math.Pow(ZoomBase, float64(pow))
}

// Size is the window size for a w x h frame at zoom step pow
func Size(w, h, pow int) (int, int) {
	z := Zoom(pow)
	return mathx.MaxInt(int(float64(w)*z), MinWidth), mathx.MaxInt(int(float64(h)*z), MinHeight)
}

// Window is a preview.Renderer backed by an ebiten game.  Render may be
// called from any goroutine; the ebiten callbacks run on the main one.
type Window struct {
	mu      sync.Mutex
	rgba    []byte
	dirty   bool
	resized bool
	w, h    int

	// pow and screen belong to the game loop
	pow    int
	screen *ebiten.Image

	done chan struct{}
	once sync.Once
}

// New returns a window sized for w x h frames.  Frames of another size resize it.
func New(title string, w, h int) *Window {
	w, h = mathx.MaxInt(w, 1), mathx.MaxInt(h, 1)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(Size(w, h, 0))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return &Window{
		rgba: make([]byte, 4*w*h),
		w:    w,
		h:    h,
		done: make(chan struct{}),
	}
}

// Render copies img into the window's pixel buffer
func (win *Window) Render(img *image.Gray, index int) error {
	win.mu.Lock()
	defer win.mu.Unlock()
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w != win.w || h != win.h {
		win.w, win.h = w, h
		win.rgba = make([]byte, 4*w*h)
		win.resized = true
	}
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		out := win.rgba[4*y*w:]
		for x, p := range row {
			out[4*x] = p
			out[4*x+1] = p
			out[4*x+2] = p
			out[4*x+3] = 0xff
		}
	}
	win.dirty = true
	return nil
}

// Close makes the game loop exit on its next update
func (win *Window) Close() {
	win.once.Do(func() { close(win.done) })
}

// Update handles zooming and frame size changes
func (win *Window) Update() error {
	select {
	case <-win.done:
		return ebiten.Termination
	default:
	}
	pow := win.pow
	_, dy := ebiten.Wheel()
	if dy > 0 {
		pow++
	} else if dy < 0 {
		pow--
	}
	pow = mathx.ClampInt(pow, ZoomPowMin, ZoomPowMax)

	win.mu.Lock()
	resized := win.resized
	win.resized = false
	w, h := win.w, win.h
	win.mu.Unlock()

	if pow != win.pow || resized {
		win.pow = pow
		ebiten.SetWindowSize(Size(w, h, pow))
	}
	return nil
}

// Draw draws the latest frame centered at the current zoom
func (win *Window) Draw(screen *ebiten.Image) {
	win.mu.Lock()
	if win.screen == nil || win.screen.Bounds().Dx() != win.w || win.screen.Bounds().Dy() != win.h {
		if win.screen != nil {
			win.screen.Deallocate()
		}
		win.screen = ebiten.NewImage(win.w, win.h)
		win.dirty = true
	}
	if win.dirty {
		win.screen.WritePixels(win.rgba)
		win.dirty = false
	}
	w, h := win.w, win.h
	win.mu.Unlock()

	z := Zoom(win.pow)
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(z, z)
	op.GeoM.Translate((float64(sw)-float64(w)*z)/2, (float64(sh)-float64(h)*z)/2)
	op.Filter = ebiten.FilterNearest
	screen.DrawImage(win.screen, op)
}

// Layout uses the window's own size as the logical screen
func (win *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Run runs the game loop until Close is called or the window is closed.
// It must be called from the main goroutine.
func (win *Window) Run() error {
	return ebiten.RunGame(win)
}
