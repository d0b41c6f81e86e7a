package rawm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/snksoft/crc"
)

var crcTable = crc.NewTable(crc.CRC32)

// ErrLength is returned by Load when the frame data does not match its sidecar
var ErrLength = errors.New("raw file length does not match sidecar")

// PersistenceError is generated when either output file cannot be created or written
type PersistenceError struct {
	Path string
	Err  error
}

// Error satisfies the error interface
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("unable to write %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying I/O error
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Movie is a complete recording, frames and metadata
type Movie struct {
	Header Header

	// Data is every frame back to back
	Data []byte

	// Numbers and Timestamps are the per-frame records, in capture order
	Numbers    []uint64
	Timestamps []uint64
}

// Frames is the number of frames in the movie
func (m *Movie) Frames() int {
	return len(m.Numbers)
}

// Frame returns the bytes of frame i
func (m *Movie) Frame(i int) []byte {
	sz := m.Header.FrameSize()
	return m.Data[i*sz : (i+1)*sz]
}

// Paths returns the frame data and sidecar paths for base
func Paths(base string) (raw, meta string) {
	return base + RawExt, base + MetaExt
}

// Checksum is the CRC-32 of b
func Checksum(b []byte) uint32 {
	c := crcTable.InitCrc()
	c = crcTable.UpdateCrc(c, b)
	return crcTable.CRC32(c)
}

// Summary describes what Save wrote
type Summary struct {
	RawPath  string
	MetaPath string
	Bytes    int
	CRC32    uint32
}

// Save writes base.raw and base.rawm.  Both files are written next to their
// final location under temporary names and renamed into place only once both
// are complete, so a failed save leaves neither behind.
func Save(base string, m *Movie) (Summary, error) {
	rawPath, metaPath := Paths(base)
	sum := Summary{RawPath: rawPath, MetaPath: metaPath, Bytes: len(m.Data)}

	rawTmp, err := writeTemp(rawPath, func(w io.Writer) error {
		_, err := w.Write(m.Data)
		return err
	})
	if err != nil {
		return sum, err
	}
	metaTmp, err := writeTemp(metaPath, func(w io.Writer) error {
		return Encode(w, m.Header, m.Numbers, m.Timestamps)
	})
	if err != nil {
		os.Remove(rawTmp)
		return sum, err
	}
	if err := os.Rename(rawTmp, rawPath); err != nil {
		os.Remove(rawTmp)
		os.Remove(metaTmp)
		return sum, &PersistenceError{Path: rawPath, Err: err}
	}
	if err := os.Rename(metaTmp, metaPath); err != nil {
		os.Remove(metaTmp)
		os.Remove(rawPath)
		return sum, &PersistenceError{Path: metaPath, Err: err}
	}
	sum.CRC32 = Checksum(m.Data)
	return sum, nil
}

// writeTemp creates a temporary sibling of path, fills it with fill and closes
// it, returning the temporary name.  Errors are PersistenceErrors for path.
func writeTemp(path string, fill func(io.Writer) error) (string, error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}
	tmp := f.Name()
	err = f.Chmod(0644)
	if err == nil {
		err = fill(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return "", &PersistenceError{Path: path, Err: err}
	}
	return tmp, nil
}

// Load reads base.rawm and base.raw, checking that the frame data is exactly as
// long as the sidecar says it should be
func Load(base string) (*Movie, error) {
	rawPath, metaPath := Paths(base)
	f, err := os.Open(metaPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	md, err := Decode(f)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(rawPath)
	if err != nil {
		return nil, err
	}
	exp := len(md.Frames) * md.Header.FrameSize()
	if len(data) != exp {
		return nil, fmt.Errorf("%w: %s is %d bytes, expected %d", ErrLength, rawPath, len(data), exp)
	}
	m := &Movie{
		Header:     md.Header,
		Data:       data,
		Numbers:    make([]uint64, len(md.Frames)),
		Timestamps: make([]uint64, len(md.Frames)),
	}
	for i, r := range md.Frames {
		m.Numbers[i] = r.Frame
		m.Timestamps[i] = r.Timestamp
	}
	return m, nil
}
