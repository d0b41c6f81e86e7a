package framestore_test

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/nasa-jpl/fastmovie/framestore"
)

func TestNewRejectsBadSizes(t *testing.T) {
	cases := [][2]int{{0, 10}, {10, 0}, {-1, 10}, {math.MaxInt / 2, 4}}
	for _, c := range cases {
		_, err := framestore.New(c[0], c[1])
		var ce *framestore.CapacityError
		if !errors.As(err, &ce) {
			t.Errorf("%v: expected CapacityError got %v", c, err)
		}
	}
}

func TestLatestEmpty(t *testing.T) {
	s, err := framestore.New(3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Latest(); ok {
		t.Error("expected no frame in a fresh store")
	}
	if s.Completed() != 0 {
		t.Errorf("expected 0 completed got %d", s.Completed())
	}
}

func TestWriteInOrder(t *testing.T) {
	s, _ := framestore.New(3, 2)
	for i := 0; i < 3; i++ {
		err := s.Write(i, []byte{byte(i), byte(i)}, uint64(10+i), uint64(1000*i))
		if err != nil {
			t.Fatal(err)
		}
		v, ok := s.Latest()
		if !ok || v.Index != i || v.Number != uint64(10+i) || v.Data[0] != byte(i) {
			t.Errorf("expected slot %d got %+v", i, v)
		}
	}
	exp := []byte{0, 0, 1, 1, 2, 2}
	got := s.Bytes()
	for i := range exp {
		if got[i] != exp[i] {
			t.Errorf("byte %d: expected %d got %d", i, exp[i], got[i])
		}
	}
}

func TestWriteOutOfOrder(t *testing.T) {
	s, _ := framestore.New(3, 1)
	if err := s.Write(1, []byte{1}, 0, 0); !errors.Is(err, framestore.ErrOutOfOrder) {
		t.Errorf("expected ErrOutOfOrder got %v", err)
	}
	s.Write(0, []byte{1}, 0, 0)
	if err := s.Write(0, []byte{1}, 0, 0); !errors.Is(err, framestore.ErrOutOfOrder) {
		t.Errorf("rewrite: expected ErrOutOfOrder got %v", err)
	}
	if err := s.Write(1, []byte{}, 0, 0); !errors.Is(err, framestore.ErrShortFrame) {
		t.Errorf("expected ErrShortFrame got %v", err)
	}
}

// TestNoTornReads has a reader hammer Latest while the writer fills the store;
// every observed slot must hold its full fill pattern and the index never goes backwards.
func TestNoTornReads(t *testing.T) {
	const (
		n    = 200
		size = 4096
	)
	s, err := framestore.New(n, size)
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev := -1
			for {
				select {
				case <-done:
					return
				default:
				}
				v, ok := s.Latest()
				if !ok {
					continue
				}
				if v.Index < prev {
					t.Errorf("index went backwards: %d after %d", v.Index, prev)
					return
				}
				prev = v.Index
				want := byte(v.Index)
				for i, b := range v.Data {
					if b != want {
						t.Errorf("slot %d torn at byte %d: expected %d got %d", v.Index, i, want, b)
						return
					}
				}
				if v.Number != uint64(v.Index) {
					t.Errorf("slot %d: expected number %d got %d", v.Index, v.Index, v.Number)
					return
				}
			}
		}()
	}

	frame := make([]byte, size)
	for i := 0; i < n; i++ {
		for j := range frame {
			frame[j] = byte(i)
		}
		if err := s.Write(i, frame, uint64(i), uint64(i)); err != nil {
			t.Fatal(err)
		}
		if rand.Intn(4) == 0 {
			time.Sleep(time.Duration(rand.Intn(50)) * time.Microsecond)
		}
	}
	close(done)
	wg.Wait()
	if s.Completed() != n {
		t.Errorf("expected %d completed got %d", n, s.Completed())
	}
}
