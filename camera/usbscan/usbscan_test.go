package usbscan_test

import (
	"strings"
	"testing"

	"github.com/google/gousb"
	"github.com/nasa-jpl/fastmovie/camera/usbscan"
)

func TestFilter(t *testing.T) {
	descs := []*gousb.DeviceDesc{
		{Bus: 1, Address: 2, Vendor: 0x046d, Product: 0x0825},
		{Bus: 2, Address: 5, Vendor: usbscan.XimeaVendor, Product: 0x3001, Speed: gousb.SpeedSuper},
	}
	got := usbscan.Filter(descs, usbscan.XimeaVendor)
	if len(got) != 1 {
		t.Fatalf("expected 1 device got %d", len(got))
	}
	exp := "bus 002 device 005: ID 20f7:3001"
	if s := got[0].String(); !strings.HasPrefix(s, exp) {
		t.Errorf("expected prefix %q got %q", exp, s)
	}
}
