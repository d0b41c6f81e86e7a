package fitsexport_test

import (
	"bytes"
	"testing"

	"github.com/nasa-jpl/fastmovie/pixfmt"
	"github.com/nasa-jpl/fastmovie/rawm"
	"github.com/nasa-jpl/fastmovie/rawm/fitsexport"
)

func testMovie(f pixfmt.Format) *rawm.Movie {
	h := rawm.Header{AppName: "fastmovie", Version: "1.4", Width: 4, Height: 2, PixelFormat: f, Framerate: 100}
	n := 3
	m := &rawm.Movie{Header: h, Data: make([]byte, n*h.FrameSize())}
	for i := 0; i < n; i++ {
		m.Numbers = append(m.Numbers, uint64(i+1))
		m.Timestamps = append(m.Timestamps, uint64(i*10000))
	}
	return m
}

func TestWriteBlocks(t *testing.T) {
	for _, f := range []pixfmt.Format{pixfmt.Mono8, pixfmt.Mono12} {
		var buf bytes.Buffer
		if err := fitsexport.Write(&buf, testMovie(f)); err != nil {
			t.Fatalf("%v: %v", f, err)
		}
		if buf.Len() == 0 || buf.Len()%2880 != 0 {
			t.Errorf("%v: expected a whole number of 2880 byte FITS blocks, got %d bytes", f, buf.Len())
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("SIMPLE  =")) {
			t.Errorf("%v: output does not start with a FITS primary header", f)
		}
	}
}

func TestCards(t *testing.T) {
	cards := fitsexport.Cards(testMovie(pixfmt.Mono10))
	found := map[string]interface{}{}
	for _, c := range cards {
		found[c.Name] = c.Value
	}
	if found["PIXFMT"] != "Mono10" {
		t.Errorf("expected PIXFMT Mono10 got %v", found["PIXFMT"])
	}
	if found["TSTOP"] != int64(20000) {
		t.Errorf("expected TSTOP 20000 got %v", found["TSTOP"])
	}
}
