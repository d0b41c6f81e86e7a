package camera_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nasa-jpl/fastmovie/camera"
)

func ExampleError() {
	fmt.Println(camera.Error("fetch", "", 10))
	fmt.Println(camera.Error("get", "gain", 0))
	// Output:
	// camera: fetch: 10 - XI_TIMEOUT: timed out waiting for a frame
	// <nil>
}

func TestFrameTimestamp(t *testing.T) {
	f := camera.Frame{TsSec: 3, TsUSec: 250}
	if got := f.Timestamp(); got != 3000250 {
		t.Errorf("expected 3000250 got %d", got)
	}
}

func TestTimeoutWrapsErrTimeout(t *testing.T) {
	err := camera.Error("fetch", "", int(camera.CodeTimeout))
	if !errors.Is(err, camera.ErrTimeout) {
		t.Errorf("expected ErrTimeout in chain, got %v", err)
	}
	var de *camera.DeviceError
	if !errors.As(err, &de) || de.Code != camera.CodeTimeout {
		t.Errorf("expected DeviceError with timeout code, got %v", err)
	}
}

func TestUnknownCode(t *testing.T) {
	exp := "7777 - UNKNOWN_ERROR_CODE"
	if got := camera.Code(7777).String(); got != exp {
		t.Errorf("expected %q got %q", exp, got)
	}
}

func TestMockClosed(t *testing.T) {
	m := camera.NewMock()
	_, err := m.GetInt(camera.Width)
	if !errors.Is(err, camera.ErrNotOpen) {
		t.Errorf("expected ErrNotOpen got %v", err)
	}
}

func TestMockParams(t *testing.T) {
	m := camera.NewMock()
	m.Open()
	defer m.Close()
	if err := m.SetInt(camera.Width, 320); err != nil {
		t.Fatal(err)
	}
	w, _ := m.GetInt(camera.Width)
	if w != 320 {
		t.Errorf("expected 320 got %d", w)
	}
	if err := m.SetFloat(camera.Framerate, 1e6); err == nil {
		t.Error("expected out of range framerate to fail")
	}
	if _, err := m.GetInt("no_such_param"); err == nil {
		t.Error("expected unknown parameter to fail")
	}
	s, _ := m.GetString(camera.DeviceName, 5)
	if s != "MOCK" {
		t.Errorf("expected truncation to MOCK got %q", s)
	}
	if len(m.Sets) != 1 || m.Sets[0] != "width=320" {
		t.Errorf("expected one recorded set got %v", m.Sets)
	}
}

func TestMockFrames(t *testing.T) {
	m := camera.NewMock()
	m.Open()
	defer m.Close()
	m.SetInt(camera.Width, 16)
	m.SetInt(camera.Height, 2)
	m.SetInt(camera.DataFormat, camera.DataFormatMono16)
	if _, err := m.FetchFrame(time.Second); err == nil {
		t.Error("expected fetch before start to fail")
	}
	m.StartAcquisition()
	for i := 0; i < 3; i++ {
		f, err := m.FetchFrame(time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if len(f.Data) != 64 {
			t.Errorf("expected 64 bytes got %d", len(f.Data))
		}
		if f.Data[0] != byte(i) || f.Number != uint64(i+1) {
			t.Errorf("frame %d: unexpected content %d number %d", i, f.Data[0], f.Number)
		}
	}
}

func TestMockAcquisitionState(t *testing.T) {
	m := camera.NewMock()
	m.Open()
	defer m.Close()
	var de *camera.DeviceError
	if _, err := m.FetchFrame(time.Second); !errors.As(err, &de) || de.Code != camera.CodeAcqStopped {
		t.Errorf("expected code %v got %v", camera.CodeAcqStopped, err)
	}
	m.StartAcquisition()
	if err := m.StartAcquisition(); !errors.As(err, &de) || de.Code != camera.CodeAcquisitionUp {
		t.Errorf("expected code %v got %v", camera.CodeAcquisitionUp, err)
	}
}

func TestMockFailAt(t *testing.T) {
	m := camera.NewMock()
	m.FailAt = 1
	m.Open()
	m.StartAcquisition()
	if _, err := m.FetchFrame(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	_, err := m.FetchFrame(time.Millisecond)
	if !errors.Is(err, camera.ErrTimeout) {
		t.Errorf("expected timeout got %v", err)
	}
}

type flaky struct {
	*camera.Mock
	fails int
}

func (f *flaky) Open() error {
	if f.fails > 0 {
		f.fails--
		return camera.Error("open", "", int(camera.CodeNoDevicesFound))
	}
	return f.Mock.Open()
}

func TestOpenWithRetry(t *testing.T) {
	f := &flaky{Mock: camera.NewMock(), fails: 2}
	if err := camera.OpenWithRetry(f, 2*time.Second); err != nil {
		t.Fatalf("expected open to succeed after retries, got %v", err)
	}
	if _, err := f.GetInt(camera.Width); err != nil {
		t.Errorf("expected open device, got %v", err)
	}
}

func TestOpenWithRetryGivesUp(t *testing.T) {
	f := &flaky{Mock: camera.NewMock(), fails: 1 << 20}
	err := camera.OpenWithRetry(f, 100*time.Millisecond)
	var de *camera.DeviceError
	if !errors.As(err, &de) || de.Code != camera.CodeNoDevicesFound {
		t.Errorf("expected the last open error, got %v", err)
	}
}
