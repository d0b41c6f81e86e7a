// Package fitsexport converts recorded movies to FITS cubes.
package fitsexport

import (
	"encoding/binary"
	"io"

	"github.com/astrogo/fitsio"
	"github.com/nasa-jpl/fastmovie/rawm"
)

// Cards builds the FITS header cards describing a movie
func Cards(m *rawm.Movie) []fitsio.Card {
	h := m.Header
	cards := []fitsio.Card{
		{Name: "INSTRUME", Value: h.Camera.DeviceName, Comment: "camera model"},
		{Name: "SERIALNO", Value: h.Camera.DeviceSN, Comment: "camera serial number"},
		{Name: "PIXFMT", Value: h.PixelFormat.String(), Comment: "pixel format"},
		{Name: "BITDEPTH", Value: h.PixelFormat.BitDepth(), Comment: "significant bits per sample"},
		{Name: "XOFFSET", Value: h.OffsetX, Comment: "ROI offset x"},
		{Name: "YOFFSET", Value: h.OffsetY, Comment: "ROI offset y"},
		{Name: "FPS", Value: h.Framerate, Comment: "frame rate"},
		{Name: "EXPTIME", Value: float64(h.Exposure) / 1e6, Comment: "exposure time, seconds"},
		{Name: "GAIN", Value: h.Gain, Comment: "gain, dB"},
		{Name: "PROGRAM", Value: h.AppName + " " + h.Version, Comment: "recording software"},
	}
	if n := m.Frames(); n > 0 {
		cards = append(cards,
			fitsio.Card{Name: "FRAME0", Value: int64(m.Numbers[0]), Comment: "first frame number"},
			fitsio.Card{Name: "TSTART", Value: int64(m.Timestamps[0]), Comment: "first timestamp, us"},
			fitsio.Card{Name: "TSTOP", Value: int64(m.Timestamps[n-1]), Comment: "last timestamp, us"})
	}
	return cards
}

// Write streams m to w as a FITS file with one image plane per frame.
// 8-bit movies are written with BITPIX 8; 10 and 12 bit movies as BITPIX 16
// with BZERO 32768 so the unsigned samples survive.
func Write(w io.Writer, m *rawm.Movie) error {
	fits, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer fits.Close()
	h := m.Header
	dims := []int{h.Width, h.Height}
	if m.Frames() > 1 {
		dims = append(dims, m.Frames())
	}
	bitpix := 8
	cards := Cards(m)
	if h.PixelFormat.BytesPerSample() == 2 {
		bitpix = 16
		cards = append(cards, fitsio.Card{Name: "BZERO", Value: 32768}, fitsio.Card{Name: "BSCALE", Value: 1.0})
	}
	im := fitsio.NewImage(bitpix, dims)
	defer im.Close()
	err = im.Header().Append(cards...)
	if err != nil {
		return err
	}

	if bitpix == 8 {
		err = im.Write(m.Data)
	} else {
		ints := make([]int16, len(m.Data)/2)
		for i := range ints {
			ints[i] = int16(binary.LittleEndian.Uint16(m.Data[2*i:]) - 32768)
		}
		err = im.Write(ints)
	}
	if err != nil {
		return err
	}
	return fits.Write(im)
}
