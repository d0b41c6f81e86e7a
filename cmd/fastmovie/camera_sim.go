//go:build !xiapi

package main

import (
	"log"

	"github.com/nasa-jpl/fastmovie/camera"
)

// openCamera returns the camera to record from.  Without the xiapi build tag
// only the simulated camera is available.
func openCamera(cfg config) camera.Port {
	if !cfg.Simulate {
		log.Println("built without xiapi support, recording from a simulated camera")
	}
	m := camera.NewMock()
	m.Pace = true
	return m
}
