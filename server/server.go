// Package server exposes a running recording over HTTP: its status, the live
// preview, prometheus metrics and, once written, the sidecar.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-chi/chi"
	"github.com/nasa-jpl/fastmovie/movie"
	"github.com/nasa-jpl/fastmovie/preview"
	"github.com/nasa-jpl/fastmovie/rawm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReplyWithFile replies to the client request by serving the given file name
func ReplyWithFile(w http.ResponseWriter, r *http.Request, fn string, fldr string) {
	filePath, err := filepath.Abs(filepath.Join(fldr, fn))
	if err != nil {
		fstr := fmt.Sprintf("unable to compute abspath of file %s %s %s", fldr, fn, err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusInternalServerError)
		return
	}

	f, err := os.Open(filePath)
	if err != nil {
		fstr := fmt.Sprintf("source file missing %s", filePath)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusNotFound)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		fstr := fmt.Sprintf("error retrieving source file stats %s", err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusNotFound)
		return
	}
	http.ServeContent(w, r, fn, stat.ModTime(), f)
}

// StatusSource is anything that can report recording status; *movie.Session is one
type StatusSource interface {
	Status() movie.Status
}

// RouteTable maps URL endpoints to handlers
type RouteTable map[string]http.HandlerFunc

// ListEndpoints lists the endpoints in a RouteTable (the keys), sorted
func (rt RouteTable) ListEndpoints() []string {
	routes := make([]string, 0, len(rt))
	for k := range rt {
		routes = append(routes, k)
	}
	sort.Strings(routes)
	return routes
}

// Bind binds every route as a GET on r
func (rt RouteTable) Bind(r chi.Router) {
	for path, h := range rt {
		r.Get(path, h)
	}
}

// Server serves one recording
type Server struct {
	src     StatusSource
	preview *preview.HTTPRenderer
	reg     *prometheus.Registry

	RouteTable RouteTable
}

// New creates a server for src.  prev may be nil when the recording has no HTTP preview.
func New(src StatusSource, prev *preview.HTTPRenderer) *Server {
	s := &Server{src: src, preview: prev, reg: prometheus.NewRegistry()}
	s.registerMetrics()
	s.RouteTable = RouteTable{
		"/status":  s.Status,
		"/sidecar": s.Sidecar,
		"/metrics": promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}).ServeHTTP,
	}
	if prev != nil {
		s.RouteTable["/preview.png"] = prev.PNG
		s.RouteTable["/preview.jpg"] = prev.JPEG
	}
	s.RouteTable["/list-of-routes"] = s.ListRoutes
	return s
}

func (s *Server) gauge(name, help string, f func(movie.Status) float64) {
	s.reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "fastmovie",
			Name:      name,
			Help:      help,
		}, func() float64 { return f(s.src.Status()) }))
}

func (s *Server) registerMetrics() {
	s.gauge("frames_requested", "number of frames in the recording", func(st movie.Status) float64 {
		return float64(st.Frames)
	})
	s.gauge("frames_captured", "number of frames captured so far", func(st movie.Status) float64 {
		return float64(st.Completed)
	})
	s.gauge("preview_ticks", "preview timer ticks so far", func(st movie.Status) float64 {
		return float64(st.Preview.Ticks)
	})
	s.gauge("preview_renders", "preview frames rendered so far", func(st movie.Status) float64 {
		return float64(st.Preview.Renders)
	})
	s.gauge("acquiring", "1 while frames are being captured", func(st movie.Status) float64 {
		if st.State == movie.Acquiring.String() {
			return 1
		}
		return 0
	})
}

// Handler returns a chi router with every route bound
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.RouteTable.Bind(r)
	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		fstr := fmt.Sprintf("error encoding data to json %q", err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusInternalServerError)
	}
}

// Status replies with the recording status as JSON
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.src.Status())
}

// Sidecar serves the .rawm file once the recording has been saved
func (s *Server) Sidecar(w http.ResponseWriter, r *http.Request) {
	st := s.src.Status()
	if st.State != movie.Done.String() {
		http.Error(w, "recording not saved yet, state "+st.State, http.StatusNotFound)
		return
	}
	_, meta := rawm.Paths(st.Base)
	ReplyWithFile(w, r, filepath.Base(meta), filepath.Dir(meta))
}

// ListRoutes replies with the bound routes as JSON
func (s *Server) ListRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.RouteTable.ListEndpoints())
}
