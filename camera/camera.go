/*Package camera describes the device port a movie recorder drives.

A Port exposes named parameters with typed getters and setters, the
start/stop of the acquisition stream, and a blocking fetch of the next
frame.  Parameter names are the strings the camera driver uses, collected
below as constants.  Mock is a software camera for tests and dry runs.

*/
package camera

import "time"

// Frame is one image as delivered by the device.  Data may alias a driver
// owned buffer that is only valid until the next FetchFrame.
type Frame struct {
	Data []byte

	// Number is the device's frame sequence number
	Number uint64

	// TsSec and TsUSec are the hardware timestamp split into seconds and microseconds
	TsSec  uint32
	TsUSec uint32
}

// Timestamp is the hardware timestamp in microseconds
func (f Frame) Timestamp() uint64 {
	return uint64(f.TsSec)*1000000 + uint64(f.TsUSec)
}

// Port is a camera that can be configured and streamed from
type Port interface {
	// Open acquires the device handle
	Open() error

	// Close releases the device handle
	Close() error

	GetInt(name string) (int, error)
	GetFloat(name string) (float64, error)

	// GetString reads a string parameter of at most maxLen bytes
	GetString(name string, maxLen int) (string, error)

	SetInt(name string, value int) error
	SetFloat(name string, value float64) error

	// StartAcquisition starts the frame stream
	StartAcquisition() error

	// StopAcquisition stops the frame stream
	StopAcquisition() error

	// FetchFrame blocks until the next frame arrives or the timeout passes.
	// A timeout is reported as a DeviceError wrapping ErrTimeout.
	FetchFrame(timeout time.Duration) (Frame, error)
}

// Parameter names
const (
	Width          = "width"
	Height         = "height"
	OffsetX        = "offsetX"
	OffsetY        = "offsetY"
	Exposure       = "exposure"
	Gain           = "gain"
	Framerate      = "framerate"
	DataFormat     = "imgdataformat"
	OutputBitDepth = "output_bit_depth"
	BitPacking     = "output_bit_packing"
	TimingMode     = "acq_timing_mode"

	DeviceName      = "device_name"
	DeviceSN        = "device_sn"
	DeviceModelID   = "device_model_id"
	APIVersion      = "api_version"
	DriverVersion   = "drv_version"
	MCU1Version     = "version_mcu1"
	FPGA1Version    = "version_fpga1"
	HardwareVersion = "hw_revision"
)

// Parameter values
const (
	// DataFormatMono8 is one byte per pixel
	DataFormatMono8 = 0

	// DataFormatMono16 is two bytes per pixel, little-endian
	DataFormatMono16 = 1

	// TimingFrameRate locks the sensor to the framerate parameter
	TimingFrameRate = 1

	Off = 0
	On  = 1
)

// InfoStringLength is the buffer size used when reading identity strings
const InfoStringLength = 20

// Min is the name of the lower bound of a parameter, e.g. "framerate:min"
func Min(name string) string {
	return name + ":min"
}

// Max is the name of the upper bound of a parameter, e.g. "framerate:max"
func Max(name string) string {
	return name + ":max"
}
