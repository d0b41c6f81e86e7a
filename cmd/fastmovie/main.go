package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/theckman/yacspin"

	"github.com/nasa-jpl/fastmovie/camera"
	"github.com/nasa-jpl/fastmovie/camera/usbscan"
	"github.com/nasa-jpl/fastmovie/imgrec"
	"github.com/nasa-jpl/fastmovie/mathx"
	"github.com/nasa-jpl/fastmovie/movie"
	"github.com/nasa-jpl/fastmovie/pixfmt"
	"github.com/nasa-jpl/fastmovie/preview"
	"github.com/nasa-jpl/fastmovie/preview/window"
	"github.com/nasa-jpl/fastmovie/rawm"
	"github.com/nasa-jpl/fastmovie/rawm/fitsexport"
	"github.com/nasa-jpl/fastmovie/server"

	yml "gopkg.in/yaml.v2"
)

var (
	// ConfigFileName is what it sounds like
	ConfigFileName = "fastmovie.yml"
	k              = koanf.New(".")
)

type recorder struct {
	// Root is the folder default-named movies go in, the working directory if empty
	Root string `yaml:"Root"`

	// Prefix is the filename prefix of default-named movies
	Prefix string `yaml:"Prefix"`

	// Dated puts default-named movies in yyyy-mm-dd subfolders
	Dated bool `yaml:"Dated"`
}

type config struct {
	Frames    int      `yaml:"Frames"`
	Exposure  int      `yaml:"Exposure"`
	Width     int      `yaml:"Width"`
	Height    int      `yaml:"Height"`
	OffsetX   *int     `yaml:"OffsetX"`
	OffsetY   *int     `yaml:"OffsetY"`
	Framerate float64  `yaml:"Framerate"`
	Gain      *float64 `yaml:"Gain"`
	Format    string   `yaml:"Format"`
	Refresh   float64  `yaml:"Refresh"`
	Output    string   `yaml:"Output"`
	Recorder  recorder `yaml:"Recorder"`

	// Camera is the driver index of the camera to open
	Camera int `yaml:"Camera"`

	// Simulate records from a software camera
	Simulate bool `yaml:"Simulate"`

	// Window shows the preview in a desktop window
	Window bool `yaml:"Window"`

	// Addr serves status, metrics and the preview over HTTP when not empty
	Addr string `yaml:"Addr"`

	FetchTimeoutMs int     `yaml:"FetchTimeoutMs"`
	OpenRetrySec   float64 `yaml:"OpenRetrySec"`
}

func setupconfig() {
	k.Load(structs.Provider(config{
		Format:         "mono8",
		Refresh:        preview.DefaultRefreshRate,
		Window:         true,
		FetchTimeoutMs: int(movie.DefaultFetchTimeout / time.Millisecond),
		OpenRetrySec:   3,
	}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `fastmovie records a fixed number of frames from a high speed camera
into memory, showing a live preview while it does, and then writes them
to disk as <output>.raw with an XML sidecar <output>.rawm.

Usage:
	fastmovie <command> [arguments]

Commands:
	run      record a movie; see fastmovie run -h
	list     list attached cameras
	verify   check a recorded movie
	export   convert a recorded movie to FITS
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `fastmovie is amenable to configuration via its .yml file.  For a primer on YAML, see
https://yaml.org/start.html

When no configuration is provided, the defaults are used.  Keys are not case-sensitive.
Flags given to run override the file.  The command mkconf generates the configuration
file with the default values.

Frames and Exposure (microseconds) must be given.  Width, Height, OffsetX, OffsetY,
Framerate and Gain are left as the camera has them unless set.  Format is one of
mono8, mono10, mono12.  Refresh is the preview rate in Hz, between 1 and 200.

When no output is given the movie is named after the current time, e.g.
20240131_235959.raw, in Recorder.Root (the working directory by default).

The whole movie is held in memory until acquisition finishes: frames x width x
height x (1 for mono8, 2 otherwise) bytes.  Nothing is written if any frame is
lost.`
	fmt.Println(str)
}

func mkconf() {
	c := config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	err = yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	if movie.Version == movie.TargetVersion {
		fmt.Printf("%s version %v\n", movie.AppName, movie.Version)
		return
	}
	fmt.Printf("%s Dev version %v -> %v\n", movie.AppName, movie.Version, movie.TargetVersion)
}

// fail prints err in red and exits non-zero
func fail(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// parseRunFlags overlays the flags given on the command line onto the config
func parseRunFlags(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.Int("n", 0, "number of frames to record (required)")
	fs.Int("e", 0, "exposure time in microseconds (required)")
	fs.Int("width", 0, "ROI width")
	fs.Int("height", 0, "ROI height")
	fs.Int("offsetx", 0, "ROI offset x")
	fs.Int("offsety", 0, "ROI offset y")
	fs.Float64("r", 0, "fixed framerate in Hz")
	fs.Float64("g", 0, "gain in dB")
	fs.String("f", "", "pixel format: mono8, mono10 or mono12")
	fs.Float64("refresh", 0, "preview refresh rate in Hz, [1, 200]")
	fs.Bool("sim", false, "record from a simulated camera")
	fs.Bool("window", true, "show the preview window")
	fs.String("addr", "", "serve status, metrics and preview on this address, e.g. :8000")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: fastmovie run -n frames -e exposure [flags] [output]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	keys := map[string]string{
		"n": "Frames", "e": "Exposure", "width": "Width", "height": "Height",
		"offsetx": "OffsetX", "offsety": "OffsetY", "r": "Framerate", "g": "Gain",
		"f": "Format", "refresh": "Refresh", "sim": "Simulate", "window": "Window", "addr": "Addr",
	}
	over := map[string]interface{}{}
	fs.Visit(func(f *flag.Flag) {
		over[keys[f.Name]] = f.Value.(flag.Getter).Get()
	})
	if fs.NArg() > 0 {
		over["Output"] = fs.Arg(0)
	}
	return k.Load(confmap.Provider(over, "."), nil)
}

// previewSize is the initial preview window size.  The window resizes itself on
// the first frame if configuration changed the ROI.
func previewSize(cam camera.Port, cfg config) (int, int, error) {
	w, h := cfg.Width, cfg.Height
	if w > 0 && h > 0 {
		return w, h, nil
	}
	w, err := cam.GetInt(camera.Width)
	if err != nil {
		return 0, 0, err
	}
	h, err = cam.GetInt(camera.Height)
	if err != nil {
		return 0, 0, err
	}
	return mathx.MaxInt(w, 1), mathx.MaxInt(h, 1), nil
}

func settings(cfg config) (movie.Settings, error) {
	f, err := pixfmt.Parse(cfg.Format)
	if err != nil {
		return movie.Settings{}, &movie.ConfigError{Param: "pixel format", Value: cfg.Format, Reason: err.Error()}
	}
	return movie.Settings{
		Frames:    cfg.Frames,
		Exposure:  cfg.Exposure,
		Width:     cfg.Width,
		Height:    cfg.Height,
		OffsetX:   cfg.OffsetX,
		OffsetY:   cfg.OffsetY,
		Framerate: cfg.Framerate,
		Gain:      cfg.Gain,
		Format:    f,
		Refresh:   cfg.Refresh,
	}, nil
}

func newSpinner() *yacspin.Spinner {
	if fi, err := os.Stdout.Stat(); err != nil || fi.Mode()&os.ModeCharDevice == 0 {
		return nil
	}
	s, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[14],
		Suffix:            " recording",
		SuffixAutoColon:   true,
		StopCharacter:     "✓",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "✗",
		StopFailColors:    []string{"fgRed"},
	})
	if err != nil {
		return nil
	}
	return s
}

func run(args []string) {
	if err := parseRunFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fail(err)
	}
	cfg := config{}
	if err := k.Unmarshal("", &cfg); err != nil {
		fail(err)
	}
	s, err := settings(cfg)
	if err != nil {
		fail(err)
	}
	// reject bad settings before the camera is touched
	if err := s.Validate(); err != nil {
		fail(err)
	}

	rec := &imgrec.Recorder{Root: cfg.Recorder.Root, Prefix: cfg.Recorder.Prefix, Dated: cfg.Recorder.Dated}
	base, err := rec.Resolve(cfg.Output)
	if err != nil {
		fail(err)
	}

	cam := openCamera(cfg)
	log.Println("opening camera, this may take a moment")
	if err := camera.OpenWithRetry(cam, time.Duration(cfg.OpenRetrySec*float64(time.Second))); err != nil {
		fail(err)
	}
	defer cam.Close()

	ses := movie.NewSession(cam, s, base)
	ses.Timeout = time.Duration(cfg.FetchTimeoutMs) * time.Millisecond
	ses.Parameters = os.Stdout

	var renderers []preview.Renderer
	var win *window.Window
	if cfg.Window {
		w, h, err := previewSize(cam, cfg)
		if err != nil {
			fail(err)
		}
		win = window.New(movie.AppName+" "+base, w, h)
		renderers = append(renderers, win)
	}
	var hr *preview.HTTPRenderer
	if cfg.Addr != "" {
		hr = preview.NewHTTPRenderer(s.Refresh)
		renderers = append(renderers, hr)
		srv := server.New(ses, hr)
		go func() {
			log.Println("now listening for requests at ", cfg.Addr)
			if err := http.ListenAndServe(cfg.Addr, srv.Handler()); err != nil {
				log.Println(err)
			}
		}()
	}
	ses.Renderer = preview.Tee(renderers...)

	spin := newSpinner()
	if spin != nil {
		ses.Progress = func(pct int) { spin.Message(fmt.Sprintf("%d%%", pct)) }
	} else {
		ses.Progress = func(pct int) { log.Printf("%d%%", pct) }
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	errs := make(chan error, 1)
	go func() {
		if spin != nil {
			spin.Start()
		}
		_, err := ses.Run(ctx)
		if spin != nil {
			if err != nil {
				spin.StopFail()
			} else {
				spin.Stop()
			}
		}
		if win != nil {
			win.Close()
		}
		errs <- err
	}()

	if win != nil {
		// the window loop must own the main goroutine; closing the window aborts the recording
		if err := win.Run(); err != nil {
			log.Println(err)
		}
		stop()
	}
	if err := <-errs; err != nil {
		cam.Close()
		fail(err)
	}
}

func list() {
	devs, err := usbscan.List()
	if err != nil {
		fail(err)
	}
	if len(devs) == 0 {
		fmt.Println("no cameras found")
		return
	}
	for _, d := range devs {
		fmt.Println(d)
	}
}

func verify(args []string) {
	if len(args) < 1 {
		fail(errors.New("usage: fastmovie verify <movie>"))
	}
	base := imgrec.StripExt(args[0])
	m, err := rawm.Load(base)
	if err != nil {
		fail(err)
	}
	h := m.Header
	fmt.Printf("%s: %d frames of %dx%d %v from %s (s/n %s)\n",
		base, m.Frames(), h.Width, h.Height, h.PixelFormat, h.Camera.DeviceName, h.Camera.DeviceSN)
	if n := m.Frames(); n > 1 {
		if m.Timestamps[n-1] > m.Timestamps[0] {
			span := time.Duration(m.Timestamps[n-1]-m.Timestamps[0]) * time.Microsecond
			fmt.Printf("spans %v, %.1f fps\n", span, float64(n-1)/span.Seconds())
		}
		dropped := 0
		for i := 1; i < n; i++ {
			if d := m.Numbers[i] - m.Numbers[i-1]; d > 1 {
				dropped += int(d - 1)
			}
		}
		if dropped > 0 {
			color.Yellow("%d frame numbers missing from the sequence", dropped)
		}
	}
	fmt.Printf("crc32 %08X\n", rawm.Checksum(m.Data))
}

func export(args []string) {
	if len(args) < 1 {
		fail(errors.New("usage: fastmovie export <movie> [out.fits]"))
	}
	base := imgrec.StripExt(args[0])
	out := base + ".fits"
	if len(args) > 1 {
		out = args[1]
	}
	m, err := rawm.Load(base)
	if err != nil {
		fail(err)
	}
	f, err := os.Create(out)
	if err != nil {
		fail(err)
	}
	defer f.Close()
	if err := fitsexport.Write(f, m); err != nil {
		fail(err)
	}
	log.Printf("wrote %d frames to %s", m.Frames(), out)
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run(args[2:])
		return
	case "list":
		list()
		return
	case "verify":
		verify(args[2:])
		return
	case "export":
		export(args[2:])
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
