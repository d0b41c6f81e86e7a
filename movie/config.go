package movie

import (
	"fmt"

	"github.com/nasa-jpl/fastmovie/camera"
	"github.com/nasa-jpl/fastmovie/pixfmt"
	"github.com/nasa-jpl/fastmovie/preview"
)

// ConfigError is generated for invalid settings
type ConfigError struct {
	Param  string
	Value  interface{}
	Reason string
}

// Error satisfies the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Param, e.Value, e.Reason)
}

// Settings are what the user asked for.  Zero values of the optional fields
// leave the camera's current value alone.
type Settings struct {
	// Frames is the number of frames to record
	Frames int

	// Exposure is the exposure time in microseconds
	Exposure int

	// Width and Height of the ROI, zero to leave unchanged
	Width  int
	Height int

	// ROI offsets, nil to leave unchanged
	OffsetX *int
	OffsetY *int

	// Framerate fixes the frame rate in Hz.  Zero leaves the camera free running.
	Framerate float64

	// Gain in dB, nil to leave unchanged
	Gain *float64

	Format pixfmt.Format

	// Refresh is the preview refresh rate in Hz
	Refresh float64
}

// Validate checks the settings without touching a device
func (s Settings) Validate() error {
	if s.Frames < 1 {
		return &ConfigError{Param: "frame count", Value: s.Frames, Reason: "must be at least 1"}
	}
	if s.Exposure < 1 {
		return &ConfigError{Param: "exposure", Value: s.Exposure, Reason: "must be a positive number of microseconds"}
	}
	for _, v := range []struct {
		name string
		v    int
	}{{"width", s.Width}, {"height", s.Height}, {"offset x", deref(s.OffsetX)}, {"offset y", deref(s.OffsetY)}} {
		if v.v < 0 {
			return &ConfigError{Param: v.name, Value: v.v, Reason: "must not be negative"}
		}
	}
	if s.Framerate < 0 {
		return &ConfigError{Param: "framerate", Value: s.Framerate, Reason: "must not be negative"}
	}
	if s.Format < pixfmt.Mono8 || s.Format > pixfmt.Mono12 {
		return &ConfigError{Param: "pixel format", Value: s.Format, Reason: pixfmt.ErrUnknownFormat.Error()}
	}
	if !preview.ValidRefreshRate(s.Refresh) {
		return &ConfigError{Param: "refresh rate", Value: s.Refresh,
			Reason: fmt.Sprintf("must be in [%g, %g]", preview.MinRefreshRate, preview.MaxRefreshRate)}
	}
	return nil
}

// Params are the fixed parameters of one recording, read back from the camera after configuration
type Params struct {
	Width   int
	Height  int
	Format  pixfmt.Format
	Frames  int
	Refresh float64
}

// FrameSize is the size of one frame in bytes
func (p Params) FrameSize() int {
	return p.Width * p.Height * p.Format.BytesPerSample()
}

func setFormat(p camera.Port, f pixfmt.Format) error {
	switch f {
	case pixfmt.Mono8:
		if err := p.SetInt(camera.DataFormat, camera.DataFormatMono8); err != nil {
			return err
		}
		return p.SetInt(camera.OutputBitDepth, 8)
	case pixfmt.Mono10:
		if err := p.SetInt(camera.DataFormat, camera.DataFormatMono16); err != nil {
			return err
		}
		if err := p.SetInt(camera.OutputBitDepth, 10); err != nil {
			return err
		}
		return p.SetInt(camera.BitPacking, camera.On)
	default:
		if err := p.SetInt(camera.DataFormat, camera.DataFormatMono16); err != nil {
			return err
		}
		return p.SetInt(camera.OutputBitDepth, 12)
	}
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func setFramerate(p camera.Port, fps float64) error {
	if err := p.SetInt(camera.TimingMode, camera.TimingFrameRate); err != nil {
		return err
	}
	lo, err := p.GetFloat(camera.Min(camera.Framerate))
	if err != nil {
		return err
	}
	hi, err := p.GetFloat(camera.Max(camera.Framerate))
	if err != nil {
		return err
	}
	if fps < lo || fps > hi {
		return &ConfigError{Param: "framerate", Value: fps, Reason: fmt.Sprintf("camera supports [%g, %g]", lo, hi)}
	}
	return p.SetFloat(camera.Framerate, fps)
}

// Configure validates s and applies it to an open camera, returning the
// parameters the recording will use.  Nothing is written to the camera when
// validation fails.
func Configure(p camera.Port, s Settings) (Params, error) {
	if err := s.Validate(); err != nil {
		return Params{}, err
	}
	if err := setFormat(p, s.Format); err != nil {
		return Params{}, err
	}
	for _, v := range []struct {
		name string
		v    int
	}{{camera.Width, s.Width}, {camera.Height, s.Height}} {
		if v.v == 0 {
			continue
		}
		if err := p.SetInt(v.name, v.v); err != nil {
			return Params{}, err
		}
	}
	for _, v := range []struct {
		name string
		v    *int
	}{{camera.OffsetX, s.OffsetX}, {camera.OffsetY, s.OffsetY}} {
		if v.v == nil {
			continue
		}
		if err := p.SetInt(v.name, *v.v); err != nil {
			return Params{}, err
		}
	}
	if err := p.SetInt(camera.Exposure, s.Exposure); err != nil {
		return Params{}, err
	}
	if s.Framerate > 0 {
		if err := setFramerate(p, s.Framerate); err != nil {
			return Params{}, err
		}
	}
	if s.Gain != nil {
		if err := p.SetFloat(camera.Gain, *s.Gain); err != nil {
			return Params{}, err
		}
	}

	w, err := p.GetInt(camera.Width)
	if err != nil {
		return Params{}, err
	}
	h, err := p.GetInt(camera.Height)
	if err != nil {
		return Params{}, err
	}
	return Params{Width: w, Height: h, Format: s.Format, Frames: s.Frames, Refresh: s.Refresh}, nil
}
