//go:build xiapi

package main

import (
	"log"

	"github.com/nasa-jpl/fastmovie/camera"
	"github.com/nasa-jpl/fastmovie/camera/xiapi"
)

// openCamera returns the camera to record from
func openCamera(cfg config) camera.Port {
	if cfg.Simulate {
		m := camera.NewMock()
		m.Pace = true
		return m
	}
	n, err := xiapi.NumberDevices()
	if err != nil {
		fail(err)
	}
	if cfg.Camera >= n {
		log.Printf("camera %d requested but %d found", cfg.Camera, n)
	}
	return xiapi.New(cfg.Camera)
}
