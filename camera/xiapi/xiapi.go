//go:build xiapi

/*Package xiapi exposes XIMEA cameras as a camera.Port through the xiApi C library.

Build with -tags xiapi on a machine with the XIMEA software package installed.
*/
package xiapi

/*
#cgo LDFLAGS: -lm3api
#include <stdlib.h>
#include <string.h>
#include <m3api/xiApi.h>

*/
import "C"
import (
	"time"
	"unsafe"

	"github.com/nasa-jpl/fastmovie/camera"
)

// NumberDevices returns how many cameras the driver can see
func NumberDevices() (int, error) {
	var n C.DWORD
	code := C.xiGetNumberDevices(&n)
	if err := camera.Error("enumerate", "", int(code)); err != nil {
		return 0, err
	}
	return int(n), nil
}

// Camera is a XIMEA camera identified by its driver index
type Camera struct {
	// Index is the driver index of the camera, 0 for the first
	Index int

	handle C.HANDLE
	img    C.XI_IMG
}

// New returns a closed camera at the given index
func New(index int) *Camera {
	return &Camera{Index: index}
}

// Open opens the device
func (c *Camera) Open() error {
	code := C.xiOpenDevice(C.DWORD(c.Index), &c.handle)
	return camera.Error("open", "", int(code))
}

// Close closes the device
func (c *Camera) Close() error {
	if c.handle == nil {
		return nil
	}
	code := C.xiCloseDevice(c.handle)
	c.handle = nil
	return camera.Error("close", "", int(code))
}

func (c *Camera) checkOpen(op, name string) error {
	if c.handle == nil {
		return &camera.DeviceError{Op: op, Param: name, Err: camera.ErrNotOpen}
	}
	return nil
}

// GetInt gets an integer parameter
func (c *Camera) GetInt(name string) (int, error) {
	if err := c.checkOpen("get", name); err != nil {
		return 0, err
	}
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	var v C.int
	code := C.xiGetParamInt(c.handle, cs, &v)
	return int(v), camera.Error("get", name, int(code))
}

// GetFloat gets a floating point parameter
func (c *Camera) GetFloat(name string) (float64, error) {
	if err := c.checkOpen("get", name); err != nil {
		return 0, err
	}
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	var v C.float
	code := C.xiGetParamFloat(c.handle, cs, &v)
	return float64(v), camera.Error("get", name, int(code))
}

// GetString gets a string parameter into a buffer of maxLen bytes
func (c *Camera) GetString(name string, maxLen int) (string, error) {
	if err := c.checkOpen("get", name); err != nil {
		return "", err
	}
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	buf := (*C.char)(C.calloc(C.size_t(maxLen), 1))
	defer C.free(unsafe.Pointer(buf))
	code := C.xiGetParamString(c.handle, cs, unsafe.Pointer(buf), C.DWORD(maxLen))
	if err := camera.Error("get", name, int(code)); err != nil {
		return "", err
	}
	return C.GoStringN(buf, C.int(C.strnlen(buf, C.size_t(maxLen)))), nil
}

// SetInt sets an integer parameter
func (c *Camera) SetInt(name string, value int) error {
	if err := c.checkOpen("set", name); err != nil {
		return err
	}
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	code := C.xiSetParamInt(c.handle, cs, C.int(value))
	return camera.Error("set", name, int(code))
}

// SetFloat sets a floating point parameter
func (c *Camera) SetFloat(name string, value float64) error {
	if err := c.checkOpen("set", name); err != nil {
		return err
	}
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	code := C.xiSetParamFloat(c.handle, cs, C.float(value))
	return camera.Error("set", name, int(code))
}

// StartAcquisition starts the stream
func (c *Camera) StartAcquisition() error {
	if err := c.checkOpen("start", ""); err != nil {
		return err
	}
	return camera.Error("start", "", int(C.xiStartAcquisition(c.handle)))
}

// StopAcquisition stops the stream
func (c *Camera) StopAcquisition() error {
	if err := c.checkOpen("stop", ""); err != nil {
		return err
	}
	return camera.Error("stop", "", int(C.xiStopAcquisition(c.handle)))
}

// FetchFrame waits up to timeout for the next image.  The returned data aliases
// the driver's buffer and is valid until the next call.
func (c *Camera) FetchFrame(timeout time.Duration) (camera.Frame, error) {
	if err := c.checkOpen("fetch", ""); err != nil {
		return camera.Frame{}, err
	}
	C.memset(unsafe.Pointer(&c.img), 0, C.size_t(C.sizeof_XI_IMG))
	c.img.size = C.DWORD(C.sizeof_XI_IMG)
	ms := C.DWORD(timeout / time.Millisecond)
	code := C.xiGetImage(c.handle, ms, &c.img)
	if err := camera.Error("fetch", "", int(code)); err != nil {
		return camera.Frame{}, err
	}
	bps := 1
	if c.img.frm == C.XI_MONO16 {
		bps = 2
	}
	n := (int(c.img.width)*bps + int(c.img.padding_x)) * int(c.img.height)
	return camera.Frame{
		Data:   unsafe.Slice((*byte)(c.img.bp), n),
		Number: uint64(c.img.nframe),
		TsSec:  uint32(c.img.tsSec),
		TsUSec: uint32(c.img.tsUSec),
	}, nil
}
