// Package usbscan lists XIMEA cameras attached over USB without going through the camera driver.
package usbscan

import (
	"fmt"

	"github.com/google/gousb"
)

// XimeaVendor is the USB vendor ID of XIMEA GmbH
const XimeaVendor = gousb.ID(0x20f7)

// Device is one attached camera
type Device struct {
	Bus     int
	Address int
	Vendor  gousb.ID
	Product gousb.ID
	Speed   gousb.Speed
}

func (d Device) String() string {
	return fmt.Sprintf("bus %03d device %03d: ID %s:%s (%s)", d.Bus, d.Address, d.Vendor, d.Product, d.Speed)
}

// Filter returns the descriptors that belong to vendor
func Filter(descs []*gousb.DeviceDesc, vendor gousb.ID) []Device {
	var out []Device
	for _, desc := range descs {
		if desc.Vendor != vendor {
			continue
		}
		out = append(out, Device{
			Bus:     desc.Bus,
			Address: desc.Address,
			Vendor:  desc.Vendor,
			Product: desc.Product,
			Speed:   desc.Speed,
		})
	}
	return out
}

// List returns the attached XIMEA devices.  No device is opened.
func List() ([]Device, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()
	var descs []*gousb.DeviceDesc
	_, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		descs = append(descs, desc)
		return false
	})
	if err != nil {
		return nil, err
	}
	return Filter(descs, XimeaVendor), nil
}
