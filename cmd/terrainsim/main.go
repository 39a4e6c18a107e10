// Package main runs a headless terrain streaming session and reports
// what was streamed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/debug"
	"github.com/Faultbox/terrastream/internal/logger"
	"github.com/Faultbox/terrastream/internal/session"
)

var (
	flagTicks   = flag.Int("ticks", 600, "Ticks to run (0 = until interrupted)")
	flagPath    = flag.String("path", "line", "Viewer path: line, orbit or still")
	flagSpeed   = flag.Float64("speed", 40, "Viewer speed in world units per second")
	flagHeading = flag.Float64("heading", 0, "Heading of the line path in degrees")
	flagRadius  = flag.Float64("radius", 500, "Radius of the orbit path")
	flagFixed   = flag.Float64("fixed", 0, "Simulated seconds per tick (0 = wall clock)")
	flagCapture = flag.String("capture", "", "Directory for height field captures")
	flagBMP     = flag.Bool("bmp", false, "Write captures as BMP instead of PNG")
	flagJSON    = flag.Bool("json", false, "Print the final stats as JSON")
	flagSettle  = flag.Duration("settle", 10*time.Second, "How long to wait for pending work at exit")
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Terrastream ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	path, err := session.ParsePath(*flagPath, *flagSpeed, *flagHeading, *flagRadius)
	if err != nil {
		logger.Error("invalid viewer path", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reload := make(chan *config.Config, 1)
	go watchReload(ctx, reload)

	opts := session.Options{
		Path:       path,
		Ticks:      *flagTicks,
		FixedStep:  *flagFixed,
		CaptureDir: *flagCapture,
		Reload:     reload,
	}
	if *flagBMP {
		opts.CaptureFormat = debug.FormatBMP
	}

	s, err := session.New(cfg, opts)
	if err != nil {
		logger.Error("failed to create session", zap.Error(err))
		os.Exit(1)
	}
	defer s.Close()

	if err := s.Run(ctx); err != nil {
		logger.Error("session error", zap.Error(err))
		os.Exit(1)
	}
	if err := s.Settle(*flagSettle); err != nil {
		logger.Warn("exiting with work pending", zap.Error(err))
	}

	if err := report(s.Stats()); err != nil {
		logger.Error("failed to write report", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("session finished normally")
}

// watchReload reloads the configuration on SIGHUP.
func watchReload(ctx context.Context, reload chan<- *config.Config) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.Load()
			if err != nil {
				logger.Error("reload failed", zap.Error(err))
				continue
			}
			select {
			case reload <- cfg:
			default:
				logger.Warn("reload already pending, dropping")
			}
		}
	}
}

func report(st session.Stats) error {
	if *flagJSON {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	fmt.Printf("Ticks:      %s (%.1fs simulated)\n", humanize.Comma(int64(st.Ticks)), st.Elapsed)
	fmt.Printf("Viewer:     (%.1f, %.1f) in chunk %s\n", st.Viewer[0], st.Viewer[1], st.ViewerChunk)
	fmt.Printf("Chunks:     %s held, %s visible\n", humanize.Comma(int64(st.Chunks)), humanize.Comma(int64(st.Visible)))
	fmt.Printf("Meshes:     %s applied, %s colliders, %s released\n",
		humanize.Comma(int64(st.MeshApplies)), humanize.Comma(int64(st.ColliderApplies)), humanize.Comma(int64(st.Releases)))
	for lod := 0; lod <= 6; lod++ {
		if n := st.LODApplies[lod]; n > 0 {
			fmt.Printf("  lod %d     %s\n", lod, humanize.Comma(int64(n)))
		}
	}
	fmt.Printf("Resident:   %s vertices, %s\n", humanize.Comma(int64(st.Vertices)), humanize.Bytes(st.MeshBytes))
	if st.Captures > 0 {
		fmt.Printf("Captures:   %d\n", st.Captures)
	}
	fmt.Printf("Scheduler:  %s\n", st.Scheduler)
	return nil
}
