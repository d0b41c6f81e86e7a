/*Package movie records a fixed number of frames from a camera into memory and
saves them as a raw movie with an XML sidecar.

A Session ties the pieces together: it configures the camera, allocates the
frame store, streams frames into it while a preview sampler shows the latest
one, and only once every frame has arrived snapshots the camera header and
writes the files.  A failed acquisition writes nothing.
*/
package movie

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nasa-jpl/fastmovie/camera"
	"github.com/nasa-jpl/fastmovie/framestore"
	"github.com/nasa-jpl/fastmovie/preview"
	"github.com/nasa-jpl/fastmovie/rawm"
)

var (
	// AppName is written to the sidecar
	AppName = "fastmovie"

	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1.4"

	// TargetVersion is the release the current version is heading for
	TargetVersion = "1.4"
)

// State is the phase a session is in
type State int32

// Session states, in the order a successful run passes through them
const (
	// Idle is a session that has not been run
	Idle State = iota

	// Configuring is validating settings and writing them to the camera
	Configuring

	// Acquiring is streaming frames into the store
	Acquiring

	// Saving is writing the .raw and .rawm files
	Saving

	// Done is a session whose movie was saved
	Done

	// Failed is a session that stopped on an error; nothing was saved
	Failed
)

var stateNames = [...]string{"idle", "configuring", "acquiring", "saving", "done", "failed"}

// String is the lowercase name of the state, as reported by /status
func (s State) String() string {
	if s < Idle || s > Failed {
		return fmt.Sprintf("State(%d)", int32(s))
	}
	return stateNames[s]
}

// Status is a snapshot of a session's progress
type Status struct {
	ID        string        `json:"id"`
	State     string        `json:"state"`
	Frames    int           `json:"frames"`
	Completed int           `json:"completed"`
	Preview   preview.Stats `json:"preview"`
	Base      string        `json:"base"`
}

// Capture is a finished recording.  Only a successful Session.Run produces one.
type Capture struct {
	Params Params
	Header rawm.Header
	Store  *framestore.Store
}

// Movie returns the capture in the form the persistence layer writes
func (c *Capture) Movie() *rawm.Movie {
	return &rawm.Movie{
		Header:     c.Header,
		Data:       c.Store.Bytes(),
		Numbers:    c.Store.FrameNumbers(),
		Timestamps: c.Store.Timestamps(),
	}
}

// Save writes base.raw and base.rawm
func (c *Capture) Save(base string) (rawm.Summary, error) {
	return rawm.Save(base, c.Movie())
}

// Session is one recording
type Session struct {
	// Port is an open camera
	Port camera.Port

	Settings Settings

	// Base is the output path without extension
	Base string

	// Renderer shows the preview.  nil disables the preview.
	Renderer preview.Renderer

	// Timeout bounds the wait for any one frame.  Zero means DefaultFetchTimeout.
	Timeout time.Duration

	// Progress, if not nil, receives completion percentages in steps of ten
	Progress func(percent int)

	// Parameters, if not nil, receives a summary of the camera settings before acquisition starts
	Parameters io.Writer

	// Logger defaults to the standard logger
	Logger *log.Logger

	// ID identifies the session in logs and status
	ID uuid.UUID

	state   atomic.Int32
	mu      sync.Mutex
	store   *framestore.Store
	sampler *preview.Sampler
}

// NewSession returns a session with a fresh ID
func NewSession(p camera.Port, s Settings, base string) *Session {
	return &Session{
		Port:     p,
		Settings: s,
		Base:     base,
		Logger:   log.Default(),
		ID:       uuid.New(),
	}
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// State returns the current phase
func (s *Session) State() State {
	return State(s.state.Load())
}

// Status returns a snapshot of progress.  Safe to call from any goroutine.
func (s *Session) Status() Status {
	st := Status{
		ID:      s.ID.String(),
		State:   s.State().String(),
		Frames:  s.Settings.Frames,
		Base:    s.Base,
		Preview: preview.Stats{LastIndex: -1},
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		st.Completed = s.store.Completed()
	}
	if s.sampler != nil {
		st.Preview = s.sampler.Stats()
	}
	return st
}

func (s *Session) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}

// Run records the movie and saves it.  On any error the session ends in the
// Failed state and no output file exists.
func (s *Session) Run(ctx context.Context) (sum rawm.Summary, err error) {
	defer func() {
		if err != nil {
			s.setState(Failed)
		} else {
			s.setState(Done)
		}
	}()
	lg := s.logger()

	s.setState(Configuring)
	params, err := Configure(s.Port, s.Settings)
	if err != nil {
		return sum, err
	}
	if s.Parameters != nil {
		h, err := SnapshotHeader(s.Port, params)
		if err != nil {
			return sum, err
		}
		if err := PrintParameters(s.Parameters, h); err != nil {
			return sum, err
		}
	}

	store, err := framestore.New(params.Frames, params.FrameSize())
	if err != nil {
		return sum, err
	}
	var sampler *preview.Sampler
	if s.Renderer != nil {
		sampler = preview.NewSampler(store, params.Format, params.Width, params.Height, params.Refresh, s.Renderer)
		sampler.Logger = lg
	}
	s.mu.Lock()
	s.store, s.sampler = store, sampler
	s.mu.Unlock()

	capture, err := s.acquire(ctx, params, store, sampler)
	if err != nil {
		return sum, err
	}

	s.setState(Saving)
	lg.Printf("[%s] Saving data to file %s...", s.ID, s.Base)
	sum, err = capture.Save(s.Base)
	if err != nil {
		return sum, err
	}
	lg.Printf("[%s] wrote %d bytes to %s, crc32 %08X", s.ID, sum.Bytes, sum.RawPath, sum.CRC32)
	lg.Printf("[%s] Done.", s.ID)
	return sum, nil
}

// acquire streams frames into store with the preview running alongside, then
// snapshots the header
func (s *Session) acquire(ctx context.Context, params Params, store *framestore.Store, sampler *preview.Sampler) (*Capture, error) {
	lg := s.logger()
	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultFetchTimeout
	}

	s.setState(Acquiring)
	lg.Printf("[%s] Starting acquisition of %d frames...", s.ID, params.Frames)
	if err := s.Port.StartAcquisition(); err != nil {
		return nil, err
	}

	pctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if sampler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sampler.Run(pctx)
		}()
	}
	start := time.Now()
	err := Acquire(ctx, s.Port, store, timeout, s.Progress)
	cancel()
	wg.Wait()

	lg.Printf("[%s] Stopping acquisition...", s.ID)
	if serr := s.Port.StopAcquisition(); serr != nil && err == nil {
		err = serr
	}
	if err != nil {
		return nil, err
	}
	el := time.Since(start)
	lg.Printf("[%s] captured %d frames in %v (%.1f fps)", s.ID, params.Frames, el, float64(params.Frames)/el.Seconds())

	h, err := SnapshotHeader(s.Port, params)
	if err != nil {
		return nil, err
	}
	return &Capture{Params: params, Header: h, Store: store}, nil
}
