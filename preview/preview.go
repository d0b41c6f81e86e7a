/*Package preview samples the most recent frame of a movie being recorded and
hands an 8-bit copy of it to a renderer at a fixed refresh rate.

The sampler never waits for the recorder.  When the recorder is faster than
the refresh rate, frames in between ticks are simply not shown; when it is
slower, ticks that find no new frame do nothing.
*/
package preview

import (
	"context"
	"image"
	"log"
	"sync/atomic"
	"time"

	"github.com/nasa-jpl/fastmovie/framestore"
	"github.com/nasa-jpl/fastmovie/pixfmt"
)

// Refresh rate bounds, in Hz
const (
	MinRefreshRate     = 1.0
	MaxRefreshRate     = 200.0
	DefaultRefreshRate = 60.0
)

// ValidRefreshRate reports if hz is within [MinRefreshRate, MaxRefreshRate]
func ValidRefreshRate(hz float64) bool {
	return hz >= MinRefreshRate && hz <= MaxRefreshRate
}

// Period is the tick period for a refresh rate, truncated to the millisecond
func Period(hz float64) time.Duration {
	return time.Duration(1000/hz) * time.Millisecond
}

// Renderer displays preview frames.  img is only valid for the duration of
// the call and must not be modified; keep a copy if it is needed later.
type Renderer interface {
	Render(img *image.Gray, index int) error
}

// Stats are running counters of a sampler
type Stats struct {
	Ticks     int64
	Renders   int64
	LastIndex int
}

// Sampler drives a Renderer from a framestore.Store
type Sampler struct {
	store  *framestore.Store
	format pixfmt.Format
	period time.Duration
	r      Renderer

	img  *image.Gray
	buf  []byte
	prev int

	ticks   atomic.Int64
	renders atomic.Int64
	last    atomic.Int64

	// Logger receives render errors.  Defaults to the standard logger.
	Logger *log.Logger
}

// ClampRefreshRate limits hz to [MinRefreshRate, MaxRefreshRate]
func ClampRefreshRate(hz float64) float64 {
	if !(hz >= MinRefreshRate) {
		return MinRefreshRate
	}
	if hz > MaxRefreshRate {
		return MaxRefreshRate
	}
	return hz
}

// NewSampler creates a sampler of store, whose frames are width x height in
// format f, ticking at hz.  hz is clamped to the valid refresh rates.
func NewSampler(store *framestore.Store, f pixfmt.Format, width, height int, hz float64, r Renderer) *Sampler {
	hz = ClampRefreshRate(hz)
	s := &Sampler{
		store:  store,
		format: f,
		period: Period(hz),
		r:      r,
		img: &image.Gray{
			Stride: width,
			Rect:   image.Rect(0, 0, width, height),
		},
		prev:   -1,
		Logger: log.Default(),
	}
	if f.BytesPerSample() > 1 {
		s.buf = make([]byte, width*height)
	}
	s.last.Store(-1)
	return s
}

// Tick samples the store once and renders if a new frame was published since
// the previous tick.  It returns true if the renderer was called.
func (s *Sampler) Tick() bool {
	s.ticks.Add(1)
	v, ok := s.store.Latest()
	if !ok || v.Index == s.prev {
		return false
	}
	s.prev = v.Index
	if s.buf == nil {
		s.img.Pix = v.Data
	} else {
		pixfmt.Frame(s.buf, v.Data, s.format.BitDepth())
		s.img.Pix = s.buf
	}
	s.renders.Add(1)
	s.last.Store(int64(v.Index))
	if err := s.r.Render(s.img, v.Index); err != nil {
		s.Logger.Printf("preview: render of frame %d failed: %v", v.Index, err)
	}
	return true
}

// Run ticks until ctx is done
func (s *Sampler) Run(ctx context.Context) {
	t := time.NewTicker(s.period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Tick()
		}
	}
}

// Period is the sampler's tick period
func (s *Sampler) Period() time.Duration {
	return s.period
}

// Stats returns the sampler's counters.  Safe to call from any goroutine.
func (s *Sampler) Stats() Stats {
	return Stats{
		Ticks:     s.ticks.Load(),
		Renders:   s.renders.Load(),
		LastIndex: int(s.last.Load()),
	}
}

type tee []Renderer

func (t tee) Render(img *image.Gray, index int) error {
	var first error
	for _, r := range t {
		if err := r.Render(img, index); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Tee renders to every r in turn and returns the first error.  nil entries are skipped.
func Tee(rs ...Renderer) Renderer {
	var t tee
	for _, r := range rs {
		if r != nil {
			t = append(t, r)
		}
	}
	if len(t) == 0 {
		return nil
	}
	if len(t) == 1 {
		return t[0]
	}
	return t
}
