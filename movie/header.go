package movie

import (
	"fmt"
	"io"

	"github.com/nasa-jpl/fastmovie/camera"
	"github.com/nasa-jpl/fastmovie/mathx"
	"github.com/nasa-jpl/fastmovie/rawm"
)

type stringParam struct {
	name string
	dst  *string
}

// SnapshotHeader reads the sidecar header fields from the camera.  Geometry
// and pixel format come from params, everything else from the device.
func SnapshotHeader(p camera.Port, params Params) (rawm.Header, error) {
	h := rawm.Header{
		AppName:       AppName,
		Version:       Version,
		TargetVersion: TargetVersion,
		Width:         params.Width,
		Height:        params.Height,
		PixelFormat:   params.Format,
	}
	strs := []stringParam{
		{camera.DeviceName, &h.Camera.DeviceName},
		{camera.DeviceSN, &h.Camera.DeviceSN},
		{camera.MCU1Version, &h.Camera.MCU1Firmware},
		{camera.FPGA1Version, &h.Camera.FPGA1Firmware},
		{camera.HardwareVersion, &h.Camera.HardwareRevision},
		{camera.APIVersion, &h.APIVersion},
		{camera.DriverVersion, &h.DriverVersion},
	}
	var err error
	for _, s := range strs {
		*s.dst, err = p.GetString(s.name, camera.InfoStringLength)
		if err != nil {
			return h, err
		}
	}
	ints := map[string]*int{
		camera.DeviceModelID: &h.Camera.ModelID,
		camera.OffsetX:       &h.OffsetX,
		camera.OffsetY:       &h.OffsetY,
		camera.Exposure:      &h.Exposure,
	}
	for name, dst := range ints {
		*dst, err = p.GetInt(name)
		if err != nil {
			return h, err
		}
	}
	if h.Framerate, err = p.GetFloat(camera.Framerate); err != nil {
		return h, err
	}
	if h.Gain, err = p.GetFloat(camera.Gain); err != nil {
		return h, err
	}
	return h, nil
}

// PrintParameters writes a human readable summary of the camera settings
func PrintParameters(w io.Writer, h rawm.Header) error {
	_, err := fmt.Fprintf(w, `Camera parameters:
	Device:      %s (model %d, s/n %s)
	Firmware:    MCU %s, FPGA %s, hardware rev %s
	API/driver:  %s / %s
	ROI:         %dx%d at (%d, %d)
	Format:      %v
	Framerate:   %v fps
	Exposure:    %d us
	Gain:        %v dB
`,
		h.Camera.DeviceName, h.Camera.ModelID, h.Camera.DeviceSN,
		h.Camera.MCU1Firmware, h.Camera.FPGA1Firmware, h.Camera.HardwareRevision,
		h.APIVersion, h.DriverVersion,
		h.Width, h.Height, h.OffsetX, h.OffsetY,
		h.PixelFormat,
		mathx.Round(h.Framerate, 0.01),
		h.Exposure,
		h.Gain)
	return err
}
