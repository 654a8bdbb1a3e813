package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pixelmend/inpaint/internal/config"
	"github.com/pixelmend/inpaint/internal/engine"
	"github.com/pixelmend/inpaint/internal/geometry"
	"github.com/pixelmend/inpaint/internal/raster"
	"github.com/pixelmend/inpaint/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Logging goes to stderr; stdout carries results (and, in serve mode,
	// the response stream).
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("inpaint %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "serve":
			runServe(os.Args[2:])
			return
		}
	}
	runInpaint(os.Args[1:])
}

func usage() {
	fmt.Println("inpaint - content-aware reconstruction of rectangular image regions")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  inpaint -in FILE -region X,Y,WIDTH,HEIGHT [options]")
	fmt.Println("  inpaint serve [-config FILE]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -in FILE          input image (png, jpeg, gif or webp)")
	fmt.Println("  -region X,Y,W,H   target rectangle in pixel coordinates")
	fmt.Println("  -out FILE         output path (default: <in>.inpainted.<ext>)")
	fmt.Println("  -config FILE      YAML configuration file")
	fmt.Println("  -timeout D        processing deadline (default from config)")
	fmt.Println("  -quality LEVEL    fast, balanced or best")
	fmt.Println("  -analyze          only report context measures, change nothing")
	fmt.Println("  --version, -v     print version information")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  INPAINT_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println()
	fmt.Println("serve reads JSON-RPC requests from stdin, one per line.")
}

// runServe starts the stdio service.
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if os.Getenv("INPAINT_LOG_LEVEL") == "debug" {
		log.Printf("inpaint serve v%s (built %s, commit %s), %d worker slots",
			Version, BuildTime, GitCommit, cfg.Server.MaxConcurrent)
	}
	if err := server.New(cfg).Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// runInpaint performs a single reconstruction (or analysis) and prints the
// resulting metrics as JSON on stdout.
func runInpaint(args []string) {
	fs := flag.NewFlagSet("inpaint", flag.ExitOnError)
	in := fs.String("in", "", "input image")
	out := fs.String("out", "", "output path")
	regionSpec := fs.String("region", "", "target rectangle X,Y,WIDTH,HEIGHT")
	configPath := fs.String("config", "", "YAML configuration file")
	timeout := fs.Duration("timeout", 0, "processing deadline")
	quality := fs.String("quality", "", "quality level: fast, balanced or best")
	analyzeOnly := fs.Bool("analyze", false, "only report context measures")
	fs.Parse(args)

	if *in == "" || *regionSpec == "" {
		usage()
		os.Exit(2)
	}
	region, err := parseRegion(*regionSpec)
	if err != nil {
		log.Fatalf("Invalid -region: %v", err)
	}

	cfg := loadConfig(*configPath)
	if *quality != "" {
		cfg.Engine.QualityLevel = *quality
	}
	deadline := cfg.Server.RequestTimeout.Std()
	if *timeout > 0 {
		deadline = *timeout
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("Cannot read %s: %v", *in, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	if *analyzeOnly {
		img, _, err := raster.Decode(data)
		if err != nil {
			log.Fatalf("Cannot decode %s: %v", *in, err)
		}
		clamped, ok := geometry.ClampToImage(region, img.Size())
		if !ok {
			log.Fatalf("Region %s does not intersect the %dx%d image", *regionSpec, img.Width, img.Height)
		}
		analysis, err := engine.AnalyzeContext(img, clamped)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
		printJSON(analysis)
		return
	}

	res, err := engine.Reconstruct(ctx, data, region, &cfg.Engine)
	if err != nil {
		log.Fatalf("Reconstruction failed: %v", err)
	}

	output := *out
	if output == "" {
		ext := "." + string(res.Format)
		if res.Format == raster.FormatJPEG {
			ext = ".jpg"
		}
		base := strings.TrimSuffix(*in, extOf(*in))
		output = base + ".inpainted" + ext
	}
	if err := os.WriteFile(output, res.Data, 0o644); err != nil {
		log.Fatalf("Cannot write %s: %v", output, err)
	}

	printJSON(struct {
		Output string `json:"output"`
		*engine.ProcessingResult
	}{output, res})
}

// parseRegion parses "X,Y,WIDTH,HEIGHT" into a Region.
func parseRegion(spec string) (geometry.Region, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return geometry.Region{}, fmt.Errorf("want X,Y,WIDTH,HEIGHT, got %q", spec)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geometry.Region{}, fmt.Errorf("component %d of %q: %w", i+1, spec, err)
		}
		vals[i] = v
	}
	return geometry.Region{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}
	return cfg
}

func extOf(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 && !strings.ContainsRune(path[i:], '/') {
		return path[i:]
	}
	return ""
}

func printJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Cannot render result: %v", err)
	}
	fmt.Println(string(b))
}
