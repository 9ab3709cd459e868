// Command amrx inspects and serves AMR speech containers.
//
// Usage:
//
//	amrx probe <files...>             identify container formats
//	amrx info [-json] <files...>      print track metadata
//	amrx frames [-from us] [-n max] <file>
//	                                  dump the indexed frame sequence
//	amrx serve [-config path] [files...]
//	                                  serve a library over HTTP/3 + HTTPS
package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/amrx/internal/certs"
	"github.com/zsiec/amrx/internal/config"
	"github.com/zsiec/amrx/internal/discovery"
	"github.com/zsiec/amrx/internal/distribution"
	"github.com/zsiec/amrx/internal/observe"
	"github.com/zsiec/amrx/internal/probe"
	"github.com/zsiec/amrx/internal/source"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "probe":
		err = runProbe(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "frames":
		err = runFrames(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "version":
		fmt.Println(version)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: amrx <probe|info|frames|serve|version> [flags] [args]")
}

func runProbe(args []string) error {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("probe: no files given")
	}

	var g errgroup.Group
	results := make([]string, fs.NArg())
	for i, path := range fs.Args() {
		g.Go(func() error {
			src, err := source.OpenFile(path)
			if err != nil {
				return err
			}
			defer src.Close()

			res, err := probe.Default().Probe(src)
			if err != nil {
				results[i] = fmt.Sprintf("%s: %v", path, err)
				return nil
			}
			results[i] = fmt.Sprintf("%s: %s (%s, confidence %.2f)",
				path, res.Format, res.MIME, res.Confidence)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, line := range results {
		fmt.Println(line)
	}
	return nil
}

type infoOutput struct {
	Path              string `json:"path"`
	Format            string `json:"format"`
	MIME              string `json:"mime"`
	SampleRate        int    `json:"sampleRate"`
	Channels          int    `json:"channels"`
	DurationUs        int64  `json:"durationUs"`
	ConstantFrameRate bool   `json:"constantFrameRate"`
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "emit JSON instead of text")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("info: no files given")
	}

	for _, path := range fs.Args() {
		src, err := source.OpenFile(path)
		if err != nil {
			return err
		}
		dmx, res, err := probe.Default().Open(src)
		if err != nil {
			src.Close()
			return fmt.Errorf("%s: %w", path, err)
		}
		track, err := dmx.Track()
		src.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		out := infoOutput{
			Path:              path,
			Format:            res.Format,
			MIME:              res.MIME,
			SampleRate:        track.SampleRate,
			Channels:          track.Channels,
			DurationUs:        track.Duration,
			ConstantFrameRate: track.ConstantFrameRate,
		}
		if *asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			continue
		}
		fmt.Printf("%s\n  format: %s (%s)\n  sample rate: %d Hz, %d channel\n  duration: %s (cbr=%v)\n",
			out.Path, out.Format, out.MIME, out.SampleRate, out.Channels,
			time.Duration(out.DurationUs)*time.Microsecond, out.ConstantFrameRate)
	}
	return nil
}

func runFrames(args []string) error {
	fs := flag.NewFlagSet("frames", flag.ExitOnError)
	from := fs.Int64("from", 0, "seek to this microsecond offset before dumping")
	max := fs.Int("n", 0, "stop after this many frames (0 = all)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("frames: exactly one file required")
	}

	src, err := source.OpenFile(fs.Arg(0))
	if err != nil {
		return err
	}
	defer src.Close()

	dmx, _, err := probe.Default().Open(src)
	if err != nil {
		return err
	}
	if *from > 0 {
		if err := dmx.SeekTo(*from); err != nil {
			return err
		}
	}

	for n := 0; *max == 0 || n < *max; n++ {
		f, err := dmx.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Printf("pts=%-10d dur=%-6d size=%d\n", f.PTS, f.Duration, len(f.Data))
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	fs.Parse(args)

	cfg := &config.Config{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}
	for _, path := range fs.Args() {
		cfg.Library = append(cfg.Library, config.FileConfig{Path: path})
	}
	applyEnv(cfg)

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.Level(),
	})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	slog.Info("generating self-signed certificate")
	cert, err := certs.Generate(14 * 24 * time.Hour)
	if err != nil {
		return fmt.Errorf("generate cert: %w", err)
	}
	slog.Info("certificate generated",
		"fingerprint", cert.FingerprintBase64(),
		"expires", cert.NotAfter.Format(time.RFC3339))

	lib := distribution.NewLibrary(probe.Default(), metrics, nil)
	defer lib.Close()
	for _, file := range cfg.Library {
		if _, err := lib.Add(ctx, file.ID, file.Path); err != nil {
			return fmt.Errorf("add %q: %w", file.Path, err)
		}
	}
	if len(lib.List()) == 0 {
		return errors.New("serve: no files in library; pass paths or a config")
	}

	srv, err := distribution.NewServer(distribution.ServerConfig{
		Addr:        cfg.Server.ListenAddr,
		WebDir:      envOr("WEB_DIR", ""),
		Cert:        cert,
		Library:     lib,
		DefaultPace: cfg.Stream.Pace,
		CORSOrigin:  cfg.Server.CORSOrigin,
		Metrics:     metrics,
	})
	if err != nil {
		return err
	}

	slog.Info("amrx serving",
		"version", version,
		"addr", cfg.Server.ListenAddr,
		"files", len(lib.List()),
		"cert_hash", cert.FingerprintBase64())

	g, ctx := errgroup.WithContext(ctx)

	apiSrv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: srv.Handler(),
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{cert.TLSCert},
		},
	}

	g.Go(func() error {
		slog.Info("HTTPS server listening", "addr", cfg.Server.ListenAddr)
		if err := apiSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTPS server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return apiSrv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return srv.Start(ctx)
	})

	if cfg.Discovery.MDNS {
		port := listenPort(cfg.Server.ListenAddr)
		if err := discovery.Advertise(ctx, discovery.Config{
			Instance: cfg.Discovery.Instance,
			Port:     port,
			CertHash: cert.FingerprintBase64(),
		}); err != nil {
			slog.Warn("mDNS advertisement failed", "error", err)
		}
	}

	return g.Wait()
}

// applyEnv layers environment overrides onto cfg so container deployments
// can run without a config file.
func applyEnv(cfg *config.Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = envOr("AMRX_ADDR", ":8443")
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = config.LogLevel(envOr("AMRX_LOG_LEVEL", string(config.LogInfo)))
	}
	if cfg.Server.CORSOrigin == "" {
		cfg.Server.CORSOrigin = "*"
	}
	if cfg.Stream.Pace == "" {
		cfg.Stream.Pace = config.Pace(envOr("AMRX_PACE", string(config.PaceRealtime)))
	}
	if cfg.Discovery.Instance == "" {
		cfg.Discovery.Instance = "amrx"
	}
	if os.Getenv("AMRX_MDNS") != "" {
		cfg.Discovery.MDNS = true
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// listenPort extracts the numeric port from a listen address like ":8443".
func listenPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}
