/*Package framestore holds a movie in one contiguous, preallocated buffer.

A single producer appends frames in order with Write, while any number of
readers may look at the most recently completed frame with Latest.  The only
shared state is the index of the last completed frame, which is published
atomically after the frame bytes and metadata are in place.  Slots at or below
the published index are never written again, so readers need no lock.
*/
package framestore

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

var (
	// ErrOutOfOrder is returned by Write when the index is not the next slot
	ErrOutOfOrder = errors.New("frame written out of order")

	// ErrShortFrame is returned by Write when the frame is smaller than a slot
	ErrShortFrame = errors.New("frame smaller than the store's frame size")
)

// CapacityError is generated when the store cannot be allocated
type CapacityError struct {
	// Frames is the requested frame count
	Frames int

	// FrameSize is the requested size of one frame, in bytes
	FrameSize int

	// Err is the underlying reason, if any
	Err error
}

// Error satisfies the error interface
func (e *CapacityError) Error() string {
	s := fmt.Sprintf("cannot allocate %d frames of %d bytes", e.Frames, e.FrameSize)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying reason
func (e *CapacityError) Unwrap() error {
	return e.Err
}

// View is a read-only look at one completed slot.  Data aliases the store and
// must not be modified.
type View struct {
	Index     int
	Data      []byte
	Number    uint64
	Timestamp uint64
}

// Store is the movie buffer
type Store struct {
	buf       []byte
	numbers   []uint64
	stamps    []uint64
	frameSize int
	frames    int

	// last is the highest fully written index, -1 when empty
	last atomic.Int64
}

// New allocates a store for frameCount frames of frameSize bytes each
func New(frameCount, frameSize int) (s *Store, err error) {
	if frameCount < 1 || frameSize < 1 {
		return nil, &CapacityError{Frames: frameCount, FrameSize: frameSize,
			Err: errors.New("frame count and frame size must be positive")}
	}
	if frameCount > math.MaxInt/frameSize {
		return nil, &CapacityError{Frames: frameCount, FrameSize: frameSize,
			Err: errors.New("total size overflows")}
	}
	defer func() {
		// makeslice panics rather than returning an error when the
		// runtime refuses an allocation of this size
		if r := recover(); r != nil {
			s = nil
			err = &CapacityError{Frames: frameCount, FrameSize: frameSize, Err: fmt.Errorf("%v", r)}
		}
	}()
	s = &Store{
		buf:       make([]byte, frameCount*frameSize),
		numbers:   make([]uint64, frameCount),
		stamps:    make([]uint64, frameCount),
		frameSize: frameSize,
		frames:    frameCount,
	}
	s.last.Store(-1)
	return s, nil
}

// Write copies frame into slot index and publishes it.  index must equal
// Completed(); the store is append only.
func (s *Store) Write(index int, frame []byte, number, timestamp uint64) error {
	if index != s.Completed() || index >= s.frames {
		return fmt.Errorf("%w: index %d, %d completed of %d", ErrOutOfOrder, index, s.Completed(), s.frames)
	}
	if len(frame) < s.frameSize {
		return fmt.Errorf("%w: %d < %d", ErrShortFrame, len(frame), s.frameSize)
	}
	off := index * s.frameSize
	copy(s.buf[off:off+s.frameSize], frame)
	s.numbers[index] = number
	s.stamps[index] = timestamp
	s.last.Store(int64(index))
	return nil
}

// Latest returns the most recently completed frame, or false if none has been written
func (s *Store) Latest() (View, bool) {
	idx := int(s.last.Load())
	if idx < 0 {
		return View{}, false
	}
	off := idx * s.frameSize
	return View{
		Index:     idx,
		Data:      s.buf[off : off+s.frameSize : off+s.frameSize],
		Number:    s.numbers[idx],
		Timestamp: s.stamps[idx],
	}, true
}

// Completed is the number of frames written so far
func (s *Store) Completed() int {
	return int(s.last.Load()) + 1
}

// Len is the capacity of the store, in frames
func (s *Store) Len() int {
	return s.frames
}

// FrameSize is the size of one slot, in bytes
func (s *Store) FrameSize() int {
	return s.frameSize
}

// Bytes returns the whole buffer.  Only meaningful once every frame is written.
func (s *Store) Bytes() []byte {
	return s.buf
}

// FrameNumbers returns the device frame numbers, in capture order
func (s *Store) FrameNumbers() []uint64 {
	return s.numbers
}

// Timestamps returns the capture timestamps in microseconds, in capture order
func (s *Store) Timestamps() []uint64 {
	return s.stamps
}
