package camera

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is wrapped by the DeviceError returned when no frame arrived in time
	ErrTimeout = errors.New("timed out waiting for a frame")

	// ErrNotOpen is wrapped when a call is made on a closed device
	ErrNotOpen = errors.New("device is not open")
)

// Code is a driver status code
type Code int

// Driver status codes of interest
const (
	CodeOK              Code = 0
	CodeInvalidHandle   Code = 1
	CodeNoImage         Code = 9
	CodeTimeout         Code = 10
	CodeInvalidArg      Code = 11
	CodeNotSupported    Code = 12
	CodeAcquisitionUp   Code = 41
	CodeAcqStopped      Code = 45
	CodeNoDevicesFound  Code = 56
	CodeUnknownParam    Code = 100
	CodeWrongParamValue Code = 101
)

// ErrCodes maps driver status codes to their names
var ErrCodes = map[Code]string{
	0:   "XI_OK",
	1:   "XI_INVALID_HANDLE",
	2:   "XI_READREG",
	3:   "XI_WRITEREG",
	4:   "XI_FREE_RESOURCES",
	5:   "XI_FREE_CHANNEL",
	6:   "XI_FREE_BANDWIDTH",
	7:   "XI_READBLK",
	8:   "XI_WRITEBLK",
	9:   "XI_NO_IMAGE",
	10:  "XI_TIMEOUT",
	11:  "XI_INVALID_ARG",
	12:  "XI_NOT_SUPPORTED",
	15:  "XI_MEMORY_ALLOCATION",
	26:  "XI_NOT_IMPLEMENTED",
	41:  "XI_ACQUISITION_ALREADY_UP",
	42:  "XI_OLD_DRIVER_VERSION",
	45:  "XI_ACQUISITION_STOPED",
	49:  "XI_DEVICE_NOT_READY",
	56:  "XI_NO_DEVICES_FOUND",
	57:  "XI_RESOURCE_OR_FUNCTION_LOCKED",
	100: "XI_UNKNOWN_PARAM",
	101: "XI_WRONG_PARAM_VALUE",
	103: "XI_WRONG_PARAM_TYPE",
	104: "XI_WRONG_PARAM_SIZE",
	105: "XI_BUFFER_TOO_SMALL",
	106: "XI_NOT_SUPPORTED_PARAM",
	109: "XI_READ_ONLY_PARAM",
}

func (c Code) String() string {
	if s, ok := ErrCodes[c]; ok {
		return fmt.Sprintf("%d - %s", int(c), s)
	}
	return fmt.Sprintf("%d - UNKNOWN_ERROR_CODE", int(c))
}

// DeviceError is any failure reported by the device port
type DeviceError struct {
	// Op is the operation, e.g. "set" or "fetch"
	Op string

	// Param is the parameter involved, if any
	Param string

	// Code is the driver status code, CodeOK when the failure did not come from the driver
	Code Code

	// Err is the underlying cause, if any
	Err error
}

// Error satisfies the error interface
func (e *DeviceError) Error() string {
	s := "camera: " + e.Op
	if e.Param != "" {
		s += " " + e.Param
	}
	if e.Code != CodeOK {
		s += ": " + e.Code.String()
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Error returns nil for CodeOK, or a DeviceError describing the code.  Timeouts
// wrap ErrTimeout.
func Error(op, param string, code int) error {
	if code == int(CodeOK) {
		return nil
	}
	e := &DeviceError{Op: op, Param: param, Code: Code(code)}
	if e.Code == CodeTimeout {
		e.Err = ErrTimeout
	}
	return e
}
