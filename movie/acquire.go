package movie

import (
	"context"
	"fmt"
	"time"

	"github.com/nasa-jpl/fastmovie/camera"
	"github.com/nasa-jpl/fastmovie/framestore"
)

// DefaultFetchTimeout is how long Acquire waits for any one frame
const DefaultFetchTimeout = 5000 * time.Millisecond

// AcquisitionError is generated when a frame could not be fetched.  The
// recording is abandoned.
type AcquisitionError struct {
	// Index is the capture index that failed
	Index int

	// Frames is the number of frames requested
	Frames int

	Err error
}

// Error satisfies the error interface
func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition failed at frame %d of %d: %v", e.Index, e.Frames, e.Err)
}

// Unwrap returns the device or context error
func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// Acquire fetches one frame from p for every slot of st, in order.  The
// camera must already be streaming.  progress, if not nil, is called with
// 10, 20, ... 100 as each tenth of the recording completes; runs of fewer
// than ten frames skip some of those values.
func Acquire(ctx context.Context, p camera.Port, st *framestore.Store, timeout time.Duration, progress func(percent int)) error {
	n := st.Len()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return &AcquisitionError{Index: i, Frames: n, Err: err}
		}
		f, err := p.FetchFrame(timeout)
		if err != nil {
			return &AcquisitionError{Index: i, Frames: n, Err: err}
		}
		if err := st.Write(i, f.Data, f.Number, f.Timestamp()); err != nil {
			return &AcquisitionError{Index: i, Frames: n, Err: err}
		}
		if progress != nil {
			if d := (i + 1) * 10 / n; d != i*10/n {
				progress(10 * d)
			}
		}
	}
	return nil
}
