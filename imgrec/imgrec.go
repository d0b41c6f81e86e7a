// Package imgrec decides where recorded movies are written.
package imgrec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimeLayout is the layout of default movie names, e.g. 20240131_235959
const TimeLayout = "20060102_150405"

// Recorder chooses output base paths (paths without the .raw/.rawm extension).
// Movies go in Root, or in yyyy-mm-dd subfolders of Root when Dated is set,
// named Prefix followed by the capture time.
type Recorder struct {
	// Root is the root path.  Empty means the working directory.
	Root string

	// Prefix is the prefix for the filenames
	Prefix string

	// Dated puts each day's movies in their own yyyy-mm-dd folder
	Dated bool

	// Now returns the current time, time.Now if nil
	Now func() time.Time
}

func (r *Recorder) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// mkDir makes the folder for t and returns it
func (r *Recorder) mkDir(t time.Time) (string, error) {
	fldr := r.Root
	if fldr == "" {
		var err error
		fldr, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	if r.Dated {
		fldr = filepath.Join(fldr, fmt.Sprintf("%04d-%02d-%02d", t.Year(), t.Month(), t.Day()))
	}
	err := os.MkdirAll(fldr, 0777)
	return fldr, err
}

// exists reports if either file of base is already on disk
func exists(base string) bool {
	for _, ext := range []string{".raw", ".rawm"} {
		if _, err := os.Stat(base + ext); err == nil {
			return true
		}
	}
	return false
}

// Next returns a fresh base path named after the current time.  When a movie
// of that name already exists a _1, _2, ... suffix is added.
func (r *Recorder) Next() (string, error) {
	t := r.now()
	fldr, err := r.mkDir(t)
	if err != nil {
		return "", err
	}
	stem := filepath.Join(fldr, r.Prefix+t.Format(TimeLayout))
	base := stem
	for i := 1; exists(base); i++ {
		base = fmt.Sprintf("%s_%d", stem, i)
	}
	return base, nil
}

// Resolve returns the base path for an explicitly requested output, or Next
// when output is empty
func (r *Recorder) Resolve(output string) (string, error) {
	if output == "" {
		return r.Next()
	}
	return StripExt(output), nil
}

// StripExt removes a trailing .rawm or .raw so that "take1.rawm" and "take1"
// name the same movie
func StripExt(path string) string {
	for _, ext := range []string{".rawm", ".raw"} {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}
