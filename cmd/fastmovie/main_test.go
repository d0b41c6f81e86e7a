package main

import (
	"testing"

	"github.com/knadh/koanf"
	"github.com/nasa-jpl/fastmovie/camera"
	"github.com/nasa-jpl/fastmovie/pixfmt"
)

func TestRunFlagsOverrideConfig(t *testing.T) {
	k = koanf.New(".")
	setupconfig()
	err := parseRunFlags([]string{"-n", "12", "-e", "500", "-f", "MONO12", "-g", "3.5", "out/take1.rawm"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := config{}
	if err := k.Unmarshal("", &cfg); err != nil {
		t.Fatal(err)
	}
	s, err := settings(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if s.Frames != 12 || s.Exposure != 500 || s.Format != pixfmt.Mono12 {
		t.Errorf("unexpected settings %+v", s)
	}
	if s.Gain == nil || *s.Gain != 3.5 {
		t.Errorf("expected gain 3.5 got %v", s.Gain)
	}
	if s.Refresh != 60 {
		t.Errorf("expected default refresh 60 got %v", s.Refresh)
	}
	if cfg.Output != "out/take1.rawm" {
		t.Errorf("expected output out/take1.rawm got %s", cfg.Output)
	}
}

func TestSettingsUnknownFormat(t *testing.T) {
	_, err := settings(config{Format: "rgb24"})
	if err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestRunFlagsZeroOffset(t *testing.T) {
	k = koanf.New(".")
	setupconfig()
	if err := parseRunFlags([]string{"-n", "1", "-e", "10", "-offsetx", "0"}); err != nil {
		t.Fatal(err)
	}
	cfg := config{}
	if err := k.Unmarshal("", &cfg); err != nil {
		t.Fatal(err)
	}
	s, err := settings(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if s.OffsetX == nil || *s.OffsetX != 0 {
		t.Errorf("expected offset x explicitly 0 got %v", s.OffsetX)
	}
	if s.OffsetY != nil {
		t.Errorf("expected offset y unset got %v", *s.OffsetY)
	}
}

func TestPreviewSize(t *testing.T) {
	m := camera.NewMock()
	if _, _, err := previewSize(m, config{}); err == nil {
		t.Error("expected an error from a closed camera")
	}
	m.Open()
	defer m.Close()
	w, h, err := previewSize(m, config{})
	if err != nil {
		t.Fatal(err)
	}
	if w != 640 || h != 480 {
		t.Errorf("expected 640x480 got %dx%d", w, h)
	}
	w, h, _ = previewSize(m, config{Width: 320, Height: 240})
	if w != 320 || h != 240 {
		t.Errorf("expected 320x240 got %dx%d", w, h)
	}
}
