package camera

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Mock is a software camera.  It produces frames whose every sample holds the
// frame's capture index, so a reader can tell one frame from the next.
type Mock struct {
	sync.Mutex

	ints    map[string]int
	floats  map[string]float64
	strings map[string]string

	// Sets records every parameter written, in order, as "name=value"
	Sets []string

	// FailAt is the capture index whose fetch times out.  Negative disables it.
	FailAt int

	// Numbers overrides the frame numbers reported, by capture index
	Numbers []uint64

	// Pace makes FetchFrame sleep for the frame period given by the framerate parameter
	Pace bool

	open      bool
	acquiring bool
	fetched   int
}

// NewMock returns a closed Mock with a 640x480 sensor
func NewMock() *Mock {
	return &Mock{
		FailAt: -1,
		ints: map[string]int{
			Width:          640,
			Height:         480,
			Min(Width):     16,
			Max(Width):     1280,
			Min(Height):    2,
			Max(Height):    1024,
			OffsetX:        0,
			OffsetY:        0,
			Exposure:       1000,
			DataFormat:     DataFormatMono8,
			OutputBitDepth: 8,
			BitPacking:     Off,
			TimingMode:     0,
			DeviceModelID:  44,
		},
		floats: map[string]float64{
			Gain:           0,
			Framerate:      100,
			Min(Framerate): 1,
			Max(Framerate): 3500,
		},
		strings: map[string]string{
			DeviceName:      "MOCK-CAM",
			DeviceSN:        "00000001",
			APIVersion:      "V4.27.07.00",
			DriverVersion:   "V4.27.07.00",
			MCU1Version:     "3",
			FPGA1Version:    "14",
			HardwareVersion: "1",
		},
	}
}

func (m *Mock) check(op, name string) error {
	if !m.open {
		return &DeviceError{Op: op, Param: name, Code: CodeInvalidHandle, Err: ErrNotOpen}
	}
	return nil
}

// Open opens the mock
func (m *Mock) Open() error {
	m.Lock()
	defer m.Unlock()
	m.open = true
	return nil
}

// Close closes the mock, stopping any acquisition
func (m *Mock) Close() error {
	m.Lock()
	defer m.Unlock()
	m.open = false
	m.acquiring = false
	return nil
}

// GetInt gets an integer parameter
func (m *Mock) GetInt(name string) (int, error) {
	m.Lock()
	defer m.Unlock()
	if err := m.check("get", name); err != nil {
		return 0, err
	}
	v, ok := m.ints[name]
	if !ok {
		return 0, Error("get", name, int(CodeUnknownParam))
	}
	return v, nil
}

// GetFloat gets a floating point parameter
func (m *Mock) GetFloat(name string) (float64, error) {
	m.Lock()
	defer m.Unlock()
	if err := m.check("get", name); err != nil {
		return 0, err
	}
	if v, ok := m.floats[name]; ok {
		return v, nil
	}
	if v, ok := m.ints[name]; ok {
		return float64(v), nil
	}
	return 0, Error("get", name, int(CodeUnknownParam))
}

// GetString gets a string parameter, truncated to maxLen-1 bytes like a C buffer would be
func (m *Mock) GetString(name string, maxLen int) (string, error) {
	m.Lock()
	defer m.Unlock()
	if err := m.check("get", name); err != nil {
		return "", err
	}
	v, ok := m.strings[name]
	if !ok {
		return "", Error("get", name, int(CodeUnknownParam))
	}
	if maxLen > 0 && len(v) > maxLen-1 {
		v = v[:maxLen-1]
	}
	return v, nil
}

func (m *Mock) inRange(name string, v float64) error {
	if lo, ok := m.ints[Min(name)]; ok && v < float64(lo) {
		return Error("set", name, int(CodeWrongParamValue))
	}
	if hi, ok := m.ints[Max(name)]; ok && v > float64(hi) {
		return Error("set", name, int(CodeWrongParamValue))
	}
	if lo, ok := m.floats[Min(name)]; ok && v < lo {
		return Error("set", name, int(CodeWrongParamValue))
	}
	if hi, ok := m.floats[Max(name)]; ok && v > hi {
		return Error("set", name, int(CodeWrongParamValue))
	}
	return nil
}

// SetInt sets an integer parameter
func (m *Mock) SetInt(name string, value int) error {
	m.Lock()
	defer m.Unlock()
	if err := m.check("set", name); err != nil {
		return err
	}
	if err := m.inRange(name, float64(value)); err != nil {
		return err
	}
	if _, ok := m.floats[name]; ok {
		m.floats[name] = float64(value)
	} else if _, ok := m.ints[name]; ok {
		m.ints[name] = value
	} else {
		return Error("set", name, int(CodeUnknownParam))
	}
	m.Sets = append(m.Sets, fmt.Sprintf("%s=%d", name, value))
	return nil
}

// SetFloat sets a floating point parameter
func (m *Mock) SetFloat(name string, value float64) error {
	m.Lock()
	defer m.Unlock()
	if err := m.check("set", name); err != nil {
		return err
	}
	if err := m.inRange(name, value); err != nil {
		return err
	}
	if _, ok := m.floats[name]; ok {
		m.floats[name] = value
	} else if _, ok := m.ints[name]; ok {
		m.ints[name] = int(value)
	} else {
		return Error("set", name, int(CodeUnknownParam))
	}
	m.Sets = append(m.Sets, fmt.Sprintf("%s=%g", name, value))
	return nil
}

// StartAcquisition starts the stream
func (m *Mock) StartAcquisition() error {
	m.Lock()
	defer m.Unlock()
	if err := m.check("start", ""); err != nil {
		return err
	}
	if m.acquiring {
		return Error("start", "", int(CodeAcquisitionUp))
	}
	m.acquiring = true
	m.fetched = 0
	return nil
}

// StopAcquisition stops the stream
func (m *Mock) StopAcquisition() error {
	m.Lock()
	defer m.Unlock()
	m.acquiring = false
	return nil
}

// FetchFrame returns the next synthetic frame
func (m *Mock) FetchFrame(timeout time.Duration) (Frame, error) {
	m.Lock()
	if err := m.check("fetch", ""); err != nil {
		m.Unlock()
		return Frame{}, err
	}
	if !m.acquiring {
		m.Unlock()
		return Frame{}, &DeviceError{Op: "fetch", Code: CodeAcqStopped, Err: errors.New("acquisition not started")}
	}
	idx := m.fetched
	fps := m.floats[Framerate]
	if idx == m.FailAt {
		m.Unlock()
		if m.Pace {
			time.Sleep(timeout)
		}
		return Frame{}, Error("fetch", "", int(CodeTimeout))
	}
	m.fetched++

	bps := 1
	if m.ints[DataFormat] == DataFormatMono16 {
		bps = 2
	}
	n := m.ints[Width] * m.ints[Height] * bps
	num := uint64(idx + 1)
	if idx < len(m.Numbers) {
		num = m.Numbers[idx]
	}
	m.Unlock()

	period := time.Duration(float64(time.Second) / fps)
	if m.Pace {
		time.Sleep(period)
	}
	data := make([]byte, n)
	fill := byte(idx)
	for i := range data {
		data[i] = fill
	}
	us := uint64(idx) * uint64(period/time.Microsecond)
	return Frame{
		Data:   data,
		Number: num,
		TsSec:  uint32(us / 1000000),
		TsUSec: uint32(us % 1000000),
	}, nil
}

// Fetched is the number of frames delivered since the stream started
func (m *Mock) Fetched() int {
	m.Lock()
	defer m.Unlock()
	return m.fetched
}
