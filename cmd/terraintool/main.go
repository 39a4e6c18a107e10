// terraintool is a CLI utility for inspecting terrain generation offline.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/debug"
	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "noise":
		cmdNoise(args)
	case "falloff":
		cmdFalloff(args)
	case "mesh":
		cmdMesh(args)
	case "probe":
		cmdProbe(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terraintool - terrain generation utility

Usage:
  terraintool <command> [options]

Commands:
  noise   [-x N -y N] <out.png>   Render one chunk's height field
  falloff [-size N] <out.png>     Render the falloff mask (.png or .bmp)
  mesh    [-x N -y N -lod N]      Build one chunk mesh and print its stats
  probe   [-x N -y N] <lx> <lz>   Sample the terrain height inside a chunk
  config  [out.yaml]              Print or write the effective configuration

Every command accepts -config <file.yaml>.

Examples:
  terraintool noise -x 2 -y -1 chunk.png
  terraintool mesh -lod 2 -json
  terraintool probe 10.5 -3
  terraintool config ~/.config/terrastream/terrain.yaml`)
}

// chunkFlags holds the options shared by chunk commands.
type chunkFlags struct {
	config *string
	x, y   *int
}

func newChunkFlags(fs *flag.FlagSet) chunkFlags {
	return chunkFlags{
		config: fs.String("config", "", "Path to config file"),
		x:      fs.Int("x", 0, "Chunk X coordinate"),
		y:      fs.Int("y", 0, "Chunk Y coordinate"),
	}
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		fatalf("Error: %v", err)
	}
	return cfg
}

// chunkHeights generates the bordered height field of a chunk the way the
// streamer does.
func chunkHeights(cfg *config.Config, cx, cy int) *noise.HeightField {
	vertices := cfg.Terrain.ChunkVertices()
	size := float64(cfg.Terrain.ChunkSize())

	params := cfg.Noise.NoiseParams()
	params.Offset = params.Offset.Add(float64(cx)*size, float64(cy)*size)
	hf := noise.Generate(vertices+2, vertices+2, params)
	if !cfg.Terrain.UseFalloff {
		return hf
	}
	masked, err := hf.Subtract(noise.Falloff(vertices + 2))
	if err != nil {
		fatalf("Error: %v", err)
	}
	return masked
}

func cmdNoise(args []string) {
	fs := flag.NewFlagSet("noise", flag.ExitOnError)
	cf := newChunkFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fatalf("Usage: terraintool noise [-x N -y N] <out.png>")
	}
	cfg := loadConfig(*cf.config)

	start := time.Now()
	hf := chunkHeights(cfg, *cf.x, *cf.y)
	elapsed := time.Since(start)

	writeImage(fs.Arg(0), hf)
	lo, hi := hf.Range()
	fmt.Printf("Chunk:   (%d, %d)\n", *cf.x, *cf.y)
	fmt.Printf("Samples: %s in %s\n", humanize.Comma(int64(hf.Width()*hf.Height())), elapsed.Round(time.Microsecond))
	fmt.Printf("Range:   %.4f .. %.4f\n", lo, hi)
}

func cmdFalloff(args []string) {
	fs := flag.NewFlagSet("falloff", flag.ExitOnError)
	size := fs.Int("size", 241, "Edge length in samples")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fatalf("Usage: terraintool falloff [-size N] <out.png>")
	}
	writeImage(fs.Arg(0), noise.Falloff(*size))
}

func writeImage(path string, hf *noise.HeightField) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fatalf("Error: %v", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer f.Close()

	if err := debug.Encode(f, hf, debug.FormatFromPath(path)); err != nil {
		fatalf("Error: %v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}

// meshReport summarises one mesh build.
type meshReport struct {
	ChunkX      int            `json:"chunk_x"`
	ChunkY      int            `json:"chunk_y"`
	LOD         int            `json:"lod"`
	Vertices    int            `json:"vertices"`
	Triangles   int            `json:"triangles"`
	Bytes       uint64         `json:"bytes"`
	FlatShading bool           `json:"flat_shading"`
	Bounds      terrain.Bounds `json:"bounds"`
	BuildTime   time.Duration  `json:"build_time_ns"`
}

func cmdMesh(args []string) {
	fs := flag.NewFlagSet("mesh", flag.ExitOnError)
	cf := newChunkFlags(fs)
	lod := fs.Int("lod", 0, "Level of detail")
	asJSON := fs.Bool("json", false, "Print the report as JSON")
	fs.Parse(args)

	cfg := loadConfig(*cf.config)
	hf := chunkHeights(cfg, *cf.x, *cf.y)

	start := time.Now()
	payload, err := terrain.BuildMesh(hf, terrain.BuildParams{
		HeightMultiplier: cfg.Terrain.HeightMultiplier,
		HeightCurve:      cfg.Terrain.Curve(),
		LOD:              *lod,
		FlatShading:      cfg.Terrain.UseFlatShading,
	})
	if err != nil {
		fatalf("Error: %v", err)
	}
	mesh := payload.CreateMesh()
	elapsed := time.Since(start)

	report := meshReport{
		ChunkX:      *cf.x,
		ChunkY:      *cf.y,
		LOD:         payload.LOD,
		Vertices:    len(mesh.Vertices),
		Triangles:   len(mesh.Indices) / 3,
		Bytes:       uint64(len(mesh.Vertices)*32 + len(mesh.Indices)*4),
		FlatShading: payload.FlatShading,
		Bounds:      mesh.Bounds,
		BuildTime:   elapsed,
	}

	if *asJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fatalf("Error: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Printf("Chunk:     (%d, %d) lod %d\n", report.ChunkX, report.ChunkY, report.LOD)
	fmt.Printf("Vertices:  %s\n", humanize.Comma(int64(report.Vertices)))
	fmt.Printf("Triangles: %s\n", humanize.Comma(int64(report.Triangles)))
	fmt.Printf("Size:      %s\n", humanize.Bytes(report.Bytes))
	fmt.Printf("Bounds:    %v .. %v\n", report.Bounds.Min, report.Bounds.Max)
	fmt.Printf("Built in:  %s\n", elapsed.Round(time.Microsecond))
}

func cmdProbe(args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	cf := newChunkFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fatalf("Usage: terraintool probe [-x N -y N] <local-x> <local-z>")
	}
	var lx, lz float32
	if _, err := fmt.Sscan(fs.Arg(0), &lx); err != nil {
		fatalf("Invalid local x %q: %v", fs.Arg(0), err)
	}
	if _, err := fmt.Sscan(fs.Arg(1), &lz); err != nil {
		fatalf("Invalid local z %q: %v", fs.Arg(1), err)
	}

	cfg := loadConfig(*cf.config)
	hm, err := terrain.BuildHeightmap(chunkHeights(cfg, *cf.x, *cf.y), cfg.Terrain.HeightMultiplier, cfg.Terrain.Curve())
	if err != nil {
		fatalf("Error: %v", err)
	}

	h := hm.HeightAt(lx, lz)
	scale := cfg.Terrain.UniformScale
	fmt.Printf("Local:  (%.2f, %.2f) -> %.4f\n", lx, lz, h)
	fmt.Printf("World:  (%.2f, %.4f, %.2f)\n",
		(float32(*cf.x*cfg.Terrain.ChunkSize())+lx)*scale, h*scale, (float32(*cf.y*cfg.Terrain.ChunkSize())+lz)*scale)
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	path := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*path)
	if fs.NArg() > 0 {
		if err := cfg.SaveTo(fs.Arg(0)); err != nil {
			fatalf("Error: %v", err)
		}
		fmt.Printf("Wrote %s\n", fs.Arg(0))
		return
	}

	data, err := cfg.Marshal()
	if err != nil {
		fatalf("Error: %v", err)
	}
	os.Stdout.Write(data)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
