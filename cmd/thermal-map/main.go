package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"thermal-map-go/internal/camera"
	"thermal-map-go/internal/compositor"
	"thermal-map-go/internal/config"
	"thermal-map-go/internal/display"
	"thermal-map-go/internal/output"
	"thermal-map-go/internal/palette"
	"thermal-map-go/internal/processing"
	"thermal-map-go/internal/sensor"
	"thermal-map-go/internal/server"
	"thermal-map-go/internal/types"
)

type metrics struct {
	frames         atomic.Uint64
	sensorErrors   atomic.Uint64
	cameraErrors   atomic.Uint64
	presentErrors  atomic.Uint64
	readNanos      atomic.Uint64
	captureNanos   atomic.Uint64
	normalizeNanos atomic.Uint64
	interpNanos    atomic.Uint64
	mapNanos       atomic.Uint64
	compositeNanos atomic.Uint64
	presentNanos   atomic.Uint64
}

func (m *metrics) snapshot() map[string]any {
	return map[string]any{
		"frames_total":          m.frames.Load(),
		"sensor_errors_total":   m.sensorErrors.Load(),
		"camera_errors_total":   m.cameraErrors.Load(),
		"present_errors_total":  m.presentErrors.Load(),
		"read_nanos_total":      m.readNanos.Load(),
		"capture_nanos_total":   m.captureNanos.Load(),
		"normalize_nanos_total": m.normalizeNanos.Load(),
		"interp_nanos_total":    m.interpNanos.Load(),
		"map_nanos_total":       m.mapNanos.Load(),
		"composite_nanos_total": m.compositeNanos.Load(),
		"present_nanos_total":   m.presentNanos.Load(),
	}
}

func (m *metrics) observe(stage string, elapsed time.Duration) {
	nanos := uint64(elapsed.Nanoseconds())
	switch stage {
	case processing.StageNormalize:
		m.normalizeNanos.Add(nanos)
	case processing.StageInterpolate:
		m.interpNanos.Add(nanos)
	case processing.StageMap:
		m.mapNanos.Add(nanos)
	case processing.StageComposite:
		m.compositeNanos.Add(nanos)
	}
}

func main() {
	var (
		port          = flag.Int("port", 8888, "HTTP port for the web viewer (0 disables it)")
		endpoint      = flag.String("endpoint", "tcp://localhost:31002", "ZMQ endpoint of the camera device bridge")
		simulate      = flag.Bool("simulate", false, "Run with simulated sensor and camera data")
		frameRate     = flag.Float64("frame-rate", 10.0, "Target frames per second")
		sensorRows    = flag.Int("sensor-rows", 8, "IR sensor grid rows")
		sensorCols    = flag.Int("sensor-cols", 8, "IR sensor grid columns")
		displayWidth  = flag.Int("display-width", 240, "Display width in pixels")
		displayHeight = flag.Int("display-height", 240, "Display height in pixels")
		colors        = flag.Int("colors", 64, "Thermal palette size (2-256)")
		fade          = flag.Float64("fade", 0.1, "Palette fade fraction, in (0, 0.5)")
		pixelFormat   = flag.String("pixel-format", "rgb565-swapped", "Packed pixel layout: rgb565 or rgb565-swapped")
		normalizeMode = flag.String("normalize", "adaptive", "Normalization mode: adaptive or fixed")
		sensorMin     = flag.Float64("sensor-min", 0.0, "Rated sensor minimum in C (fixed mode)")
		sensorMax     = flag.Float64("sensor-max", 80.0, "Rated sensor maximum in C (fixed mode)")
		noiseFloor    = flag.Float64("noise-floor", 1.0, "Adaptive-mode noise floor in C")
		interpolation = flag.String("interpolation", "bilinear", "Interpolation mode: bilinear or none")
		compositeMode = flag.String("composite", "stride", "Composite mode: stride or alpha")
		stride        = flag.Int("stride", 4, "Pixel interval for stride compositing")
		alpha         = flag.Float64("alpha", 0.5, "Overlay weight for alpha compositing")
		orientation   = flag.String("orientation", "swap,flip-y", "Sensor mounting correction: swap, flip-x, flip-y tokens or none")
		outputDir     = flag.String("output-dir", "output", "Directory for series output files")
		seriesLog     = flag.Bool("series-log", false, "Write per-frame temperature stats CSV")
		rawLog        = flag.Bool("raw-log", false, "Record raw bridge messages to disk")
		rawLogDir     = flag.String("raw-log-dir", "rawlog", "Directory for raw capture logs")
		logEvery      = flag.Int("ingest-log-every", 100, "Log every Nth ingest error")
		fallback      = flag.Bool("ingest-fallback", true, "Fall back to the simulator when the bridge fails")
	)
	flag.Parse()

	cfg := config.AppConfig{
		Port:           *port,
		Endpoint:       *endpoint,
		Simulate:       *simulate,
		FrameRate:      *frameRate,
		SensorRows:     *sensorRows,
		SensorCols:     *sensorCols,
		DisplayWidth:   *displayWidth,
		DisplayHeight:  *displayHeight,
		Colors:         *colors,
		Fade:           *fade,
		PixelFormat:    *pixelFormat,
		NormalizeMode:  *normalizeMode,
		SensorMinC:     *sensorMin,
		SensorMaxC:     *sensorMax,
		NoiseFloorC:    *noiseFloor,
		Interpolation:  *interpolation,
		CompositeMode:  *compositeMode,
		Stride:         *stride,
		Alpha:          *alpha,
		Orientation:    *orientation,
		OutputDir:      *outputDir,
		SeriesLog:      *seriesLog,
		RawLogEnabled:  *rawLog,
		RawLogDir:      *rawLogDir,
		IngestLogEvery: *logEvery,
		IngestFallback: *fallback,
	}

	format, err := palette.ParsePixelFormat(cfg.PixelFormat)
	if err != nil {
		log.Fatalf("invalid pixel format: %v", err)
	}
	normMode, err := processing.ParseNormalizeMode(cfg.NormalizeMode)
	if err != nil {
		log.Fatalf("invalid normalize mode: %v", err)
	}
	interpMode, err := processing.ParseInterpolationMode(cfg.Interpolation)
	if err != nil {
		log.Fatalf("invalid interpolation mode: %v", err)
	}
	compMode, err := compositor.ParseMode(cfg.CompositeMode)
	if err != nil {
		log.Fatalf("invalid composite mode: %v", err)
	}
	orient, err := compositor.ParseOrientation(cfg.Orientation)
	if err != nil {
		log.Fatalf("invalid orientation: %v", err)
	}

	// The palette is the one piece the pipeline cannot run without; invalid
	// parameters are fatal before the loop starts.
	pal, err := palette.New(cfg.Colors, cfg.Fade, format)
	if err != nil {
		log.Fatalf("invalid palette configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder sensor.Recorder
	if cfg.RawLogEnabled {
		writer, err := output.NewRawLogWriter(cfg.RawLogDir, "bridge_cbor")
		if err != nil {
			log.Fatalf("failed to start raw log: %v", err)
		}
		recorder = writer
		go func() {
			<-ctx.Done()
			if err := writer.Close(); err != nil {
				log.Printf("raw log close failed: %v", err)
			}
		}()
	}

	var sensorSrc sensor.Source
	var cameraSrc camera.Source
	var bridge *sensor.Bridge
	testPattern := camera.NewTestPattern(format)

	if cfg.Simulate {
		sensorSrc = sensor.NewSimulator(cfg.SensorRows, cfg.SensorCols)
		cameraSrc = testPattern
	} else {
		bridge, err = sensor.Dial(ctx, cfg.Endpoint, cfg.SensorRows, cfg.SensorCols,
			cfg.DisplayWidth, cfg.DisplayHeight, cfg.IngestLogEvery, recorder)
		if err != nil {
			if !cfg.IngestFallback {
				log.Fatalf("failed to connect bridge: %v", err)
			}
			log.Printf("failed to connect bridge: %v; falling back to simulator", err)
			sensorSrc = sensor.NewSimulator(cfg.SensorRows, cfg.SensorCols)
			cameraSrc = testPattern
		} else {
			sensorSrc = bridge
			cameraSrc = bridge
		}
	}

	pipe := processing.NewPipeline(cfg.SensorRows, cfg.SensorCols, pal,
		processing.Normalizer{
			Mode:       normMode,
			SensorMin:  cfg.SensorMinC,
			SensorMax:  cfg.SensorMaxC,
			NoiseFloor: cfg.NoiseFloorC,
		},
		interpMode,
		compositor.Compositor{
			Mode:        compMode,
			Stride:      cfg.Stride,
			Orientation: orient,
			Alpha:       cfg.Alpha,
			Format:      format,
		},
	)

	var m metrics
	pipe.Observer = m.observe
	var tracker processing.StatsTracker

	var series *output.SeriesWriter
	if cfg.SeriesLog {
		series, err = output.NewSeriesWriter(cfg.OutputDir, processing.Timestamp())
		if err != nil {
			log.Fatalf("failed to start series log: %v", err)
		}
		go func() {
			<-ctx.Done()
			if err := series.Close(); err != nil {
				log.Printf("series log close failed: %v", err)
			}
		}()
	}

	statusFn := func() map[string]any {
		status := map[string]any{
			"metrics":     m.snapshot(),
			"image_stats": tracker.Snapshot(),
		}
		if cfg.Simulate || bridge == nil {
			status["detector"] = "simulator"
		} else {
			status["detector"] = "bridge"
			status["bridge"] = bridge.Status()
		}
		return status
	}

	var sink display.Sink = display.Discard{}
	if cfg.Port > 0 {
		srv := server.New(cfg, format, statusFn)
		go func() {
			if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("server stopped: %v", err)
			}
		}()
		log.Printf("Starting web viewer at http://localhost:%d", cfg.Port)
		sink = srv
	}

	runLoop(ctx, cfg, pipe, sensorSrc, cameraSrc, testPattern, sink, &m, &tracker, series)
}

// runLoop drives the synchronous frame cycle: read sensor, capture camera,
// step the pipeline, present. All buffers are allocated here once.
func runLoop(
	ctx context.Context,
	cfg config.AppConfig,
	pipe *processing.Pipeline,
	sensorSrc sensor.Source,
	cameraSrc camera.Source,
	fallbackCam camera.Source,
	sink display.Sink,
	m *metrics,
	tracker *processing.StatsTracker,
	series *output.SeriesWriter,
) {
	rate := cfg.FrameRate
	if rate <= 0 {
		rate = 10.0
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	sensorFrame := types.NewSensorFrame(cfg.SensorRows, cfg.SensorCols)
	visible := types.NewFramebuffer(cfg.DisplayWidth, cfg.DisplayHeight)
	out := types.NewFramebuffer(cfg.DisplayWidth, cfg.DisplayHeight)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		start := time.Now()
		if err := sensorSrc.ReadFrame(sensorFrame); err != nil {
			if !errors.Is(err, sensor.ErrNoFrame) {
				m.sensorErrors.Add(1)
				log.Printf("sensor read failed: %v", err)
			}
			continue
		}
		m.readNanos.Add(uint64(time.Since(start).Nanoseconds()))

		start = time.Now()
		if err := cameraSrc.CaptureFrame(visible); err != nil {
			// Until the first camera frame arrives the overlay still runs,
			// just over the test pattern.
			if !errors.Is(err, sensor.ErrNoFrame) {
				m.cameraErrors.Add(1)
				log.Printf("camera capture failed: %v", err)
			}
			_ = fallbackCam.CaptureFrame(visible)
		}
		m.captureNanos.Add(uint64(time.Since(start).Nanoseconds()))

		stats := processing.Stats(sensorFrame)
		tracker.Observe(stats)
		if series != nil {
			// Prefer the device's capture timestamp over loop time.
			ts := float64(time.Now().UnixNano()) / 1e9
			if src, ok := sensorSrc.(interface{ LastCaptureTime() float64 }); ok {
				if captured := src.LastCaptureTime(); captured > 0 {
					ts = captured
				}
			}
			if err := series.Append(ts, stats); err != nil {
				log.Printf("series append failed: %v", err)
			}
		}

		pipe.Step(sensorFrame, visible, out)

		start = time.Now()
		if err := sink.Present(out); err != nil {
			m.presentErrors.Add(1)
			log.Printf("present failed: %v", err)
		}
		m.presentNanos.Add(uint64(time.Since(start).Nanoseconds()))

		m.frames.Add(1)
	}
}
