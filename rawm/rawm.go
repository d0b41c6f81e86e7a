/*Package rawm reads and writes movies as a pair of files.

<base>.raw holds every frame back to back with no header.  <base>.rawm is an
XML sidecar describing the camera, the capture settings and, in capture
order, the frame number and timestamp of every frame:

	<?xml version="1.0" encoding="UTF-8" ?>
	<movie_metadata app_name="..." version="...">
		<header>
			<camera>...</camera>
			...
		</header>
		<frames>
			<frame frame="1" timestamp="10000" />
		</frames>
	</movie_metadata>

The sidecar is written by hand with a fixed layout so that output is byte
stable across runs; it is read back with encoding/xml.
*/
package rawm

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/nasa-jpl/fastmovie/pixfmt"
)

const (
	// RawExt is the extension of the frame data file
	RawExt = ".raw"

	// MetaExt is the extension of the sidecar
	MetaExt = ".rawm"

	// Endianness is the byte order of multi-byte samples
	Endianness = "little"
)

// Camera identifies the device a movie was taken with
type Camera struct {
	DeviceName       string
	ModelID          int
	DeviceSN         string
	MCU1Firmware     string
	FPGA1Firmware    string
	HardwareRevision string
}

// Header holds the session level fields of a movie
type Header struct {
	AppName string
	Version string

	// TargetVersion is written only when it differs from Version
	TargetVersion string

	Camera        Camera
	APIVersion    string
	DriverVersion string

	OffsetX     int
	OffsetY     int
	Width       int
	Height      int
	PixelFormat pixfmt.Format

	// Framerate is in frames per second
	Framerate float64

	// Exposure is in microseconds
	Exposure int

	// Gain is in dB
	Gain float64
}

// FrameSize is the size of one frame in bytes
func (h Header) FrameSize() int {
	return h.Width * h.Height * h.PixelFormat.BytesPerSample()
}

// Record is the per-frame metadata
type Record struct {
	Frame     uint64
	Timestamp uint64
}

// Metadata is the decoded content of a sidecar
type Metadata struct {
	Header Header
	Frames []Record
}

// ftoa formats like printf's %g
func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}

type sidecarWriter struct {
	w   *bufio.Writer
	err error
}

func (s *sidecarWriter) str(v string) {
	if s.err == nil {
		_, s.err = s.w.WriteString(v)
	}
}

func (s *sidecarWriter) esc(v string) {
	if s.err == nil {
		s.err = xml.EscapeText(s.w, []byte(v))
	}
}

func (s *sidecarWriter) elem(indent, name, value string) {
	s.str(indent + "<" + name + ">")
	s.esc(value)
	s.str("</" + name + ">\n")
}

func (s *sidecarWriter) attr(name, value string) {
	s.str(" " + name + "=\"")
	s.esc(value)
	s.str("\"")
}

// Encode writes the sidecar for a movie.  numbers and stamps are the per-frame
// records in capture order and must be the same length.
func Encode(w io.Writer, h Header, numbers, stamps []uint64) error {
	if len(numbers) != len(stamps) {
		return fmt.Errorf("rawm: %d frame numbers but %d timestamps", len(numbers), len(stamps))
	}
	s := &sidecarWriter{w: bufio.NewWriter(w)}
	s.str(`<?xml version="1.0" encoding="UTF-8" ?>` + "\n")
	s.str("<movie_metadata")
	s.attr("app_name", h.AppName)
	s.attr("version", h.Version)
	if h.TargetVersion != "" && h.TargetVersion != h.Version {
		s.attr("target_version", h.TargetVersion)
	}
	s.str(">\n")

	s.str("\t<header>\n")
	s.str("\t\t<camera>\n")
	s.elem("\t\t\t", "device_name", h.Camera.DeviceName)
	s.elem("\t\t\t", "model_id", strconv.Itoa(h.Camera.ModelID))
	s.elem("\t\t\t", "device_sn", h.Camera.DeviceSN)
	s.elem("\t\t\t", "mcu1_firmware_version", h.Camera.MCU1Firmware)
	s.elem("\t\t\t", "fpga1_firmware_version", h.Camera.FPGA1Firmware)
	s.elem("\t\t\t", "hardware_revision", h.Camera.HardwareRevision)
	s.str("\t\t</camera>\n")
	s.elem("\t\t", "api_version", h.APIVersion)
	s.elem("\t\t", "driver_version", h.DriverVersion)
	s.elem("\t\t", "offset_x", strconv.Itoa(h.OffsetX))
	s.elem("\t\t", "offset_y", strconv.Itoa(h.OffsetY))
	s.elem("\t\t", "width", strconv.Itoa(h.Width))
	s.elem("\t\t", "height", strconv.Itoa(h.Height))
	s.elem("\t\t", "pixel_format", h.PixelFormat.String())
	s.elem("\t\t", "endianness", Endianness)
	s.elem("\t\t", "framerate", ftoa(h.Framerate))
	s.elem("\t\t", "exposure", strconv.Itoa(h.Exposure))
	s.elem("\t\t", "gain", ftoa(h.Gain))
	s.str("\t</header>\n")

	s.str("\t<frames>\n")
	for i := range numbers {
		s.str("\t\t<frame frame=\"" + strconv.FormatUint(numbers[i], 10) +
			"\" timestamp=\"" + strconv.FormatUint(stamps[i], 10) + "\" />\n")
	}
	s.str("\t</frames>\n")
	s.str("</movie_metadata>\n")
	if s.err != nil {
		return s.err
	}
	return s.w.Flush()
}

type xmlCamera struct {
	DeviceName       string `xml:"device_name"`
	ModelID          int    `xml:"model_id"`
	DeviceSN         string `xml:"device_sn"`
	MCU1Firmware     string `xml:"mcu1_firmware_version"`
	FPGA1Firmware    string `xml:"fpga1_firmware_version"`
	HardwareRevision string `xml:"hardware_revision"`
}

type xmlHeader struct {
	Camera        xmlCamera `xml:"camera"`
	APIVersion    string    `xml:"api_version"`
	DriverVersion string    `xml:"driver_version"`
	OffsetX       int       `xml:"offset_x"`
	OffsetY       int       `xml:"offset_y"`
	Width         int       `xml:"width"`
	Height        int       `xml:"height"`
	PixelFormat   string    `xml:"pixel_format"`
	Endianness    string    `xml:"endianness"`
	Framerate     float64   `xml:"framerate"`
	Exposure      int       `xml:"exposure"`
	Gain          float64   `xml:"gain"`
}

type xmlFrame struct {
	Frame     uint64 `xml:"frame,attr"`
	Timestamp uint64 `xml:"timestamp,attr"`
}

type xmlMovie struct {
	XMLName       xml.Name   `xml:"movie_metadata"`
	AppName       string     `xml:"app_name,attr"`
	Version       string     `xml:"version,attr"`
	TargetVersion string     `xml:"target_version,attr"`
	Header        xmlHeader  `xml:"header"`
	Frames        []xmlFrame `xml:"frames>frame"`
}

// Decode reads a sidecar
func Decode(r io.Reader) (*Metadata, error) {
	var doc xmlMovie
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("rawm: decoding sidecar: %w", err)
	}
	if doc.Header.Endianness != "" && doc.Header.Endianness != Endianness {
		return nil, fmt.Errorf("rawm: unsupported endianness %q", doc.Header.Endianness)
	}
	f, err := pixfmt.Parse(doc.Header.PixelFormat)
	if err != nil {
		return nil, fmt.Errorf("rawm: %w", err)
	}
	h := doc.Header
	m := &Metadata{
		Header: Header{
			AppName:       doc.AppName,
			Version:       doc.Version,
			TargetVersion: doc.TargetVersion,
			Camera:        Camera(h.Camera),
			APIVersion:    h.APIVersion,
			DriverVersion: h.DriverVersion,
			OffsetX:       h.OffsetX,
			OffsetY:       h.OffsetY,
			Width:         h.Width,
			Height:        h.Height,
			PixelFormat:   f,
			Framerate:     h.Framerate,
			Exposure:      h.Exposure,
			Gain:          h.Gain,
		},
		Frames: make([]Record, len(doc.Frames)),
	}
	for i, fr := range doc.Frames {
		m.Frames[i] = Record(fr)
	}
	return m, nil
}
