// Package pixfmt describes the monochrome pixel formats a recorder can capture
// and reduces 10 and 12 bit samples to 8 bits for display.
package pixfmt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned by Parse for labels that are not a supported format
var ErrUnknownFormat = errors.New("unknown pixel format")

// Format is a monochrome pixel format
type Format int

const (
	// Mono8 is 8 bits per pixel, one byte per sample
	Mono8 Format = iota

	// Mono10 is 10 significant bits stored in a little-endian 16-bit word
	Mono10

	// Mono12 is 12 significant bits stored in a little-endian 16-bit word
	Mono12
)

var labels = [...]string{"Mono8", "Mono10", "Mono12"}

// String returns the canonical label, e.g. "Mono12"
func (f Format) String() string {
	if f < Mono8 || f > Mono12 {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return labels[f]
}

// BitDepth is the number of significant bits in a sample
func (f Format) BitDepth() int {
	switch f {
	case Mono10:
		return 10
	case Mono12:
		return 12
	default:
		return 8
	}
}

// BytesPerSample is the storage size of one sample
func (f Format) BytesPerSample() int {
	if f == Mono8 {
		return 1
	}
	return 2
}

// Parse converts a label such as "mono10" into a Format.  Case is ignored.
func Parse(label string) (Format, error) {
	for i, l := range labels {
		if strings.EqualFold(l, label) {
			return Format(i), nil
		}
	}
	return Mono8, fmt.Errorf("%w %q, must be one of mono8, mono10, mono12", ErrUnknownFormat, label)
}

// Sample reduces one sample of the given bit depth to 8 bits by discarding the
// low order bits.  Depth 8 is the identity.
func Sample(depth int, v uint16) uint8 {
	return uint8(v >> uint(depth-8))
}

// Frame normalizes a frame of little-endian 16-bit samples in src into dst,
// which must hold at least len(src)/2 bytes.
func Frame(dst, src []byte, depth int) {
	shift := uint(depth - 8)
	n := len(src) / 2
	dst = dst[:n]
	for i := range dst {
		v := uint16(src[2*i]) | uint16(src[2*i+1])<<8
		dst[i] = uint8(v >> shift)
	}
}
