//go:build profiling
// +build profiling

// Command profile exercises bundle build and extraction under a profiler.
// It fabricates a synthetic output bundle, then packs and/or unpacks it
// while collecting pprof, fgprof, or execution-trace data, optionally
// streaming to a Pyroscope server instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"
	"time"

	"github.com/felixge/fgprof"
	"github.com/grafana/pyroscope-go"

	"github.com/havenml/modelout"
	"github.com/havenml/modelout/core"
	"github.com/havenml/modelout/internal/archive"
)

type profileKind string

const (
	profileCPU   profileKind = "cpu"
	profileFG    profileKind = "fgprof"
	profileTrace profileKind = "trace"
	profileNone  profileKind = "none"
)

const (
	modePack    = "pack"
	modeExtract = "extract"
	modeBoth    = "both"
)

func main() {
	var (
		mode        = flag.String("mode", modeBoth, "mode: pack, extract, or both")
		fileCount   = flag.Int("files", 2000, "number of files in the synthetic bundle")
		fileSize    = flag.Int("file-size", 64*1024, "size of each synthetic file in bytes")
		compression = flag.String("compression", "gzip", "compression: gzip, zstd, none")
		profile     = flag.String("profile", "cpu", "profile type: cpu, fgprof, trace, none")
		outDir      = flag.String("out", "profiles", "output directory for profiles")
		label       = flag.String("label", "", "label suffix for profile files")
		repeat      = flag.Int("repeat", 1, "number of iterations")
		timeout     = flag.Duration("timeout", 15*time.Minute, "overall timeout")
		pyroAddr    = flag.String("pyroscope", "", "Pyroscope server URL (enables streaming, disables local profiles)")
	)
	flag.Parse()

	runID := time.Now().UTC().Format("20060102T150405Z")

	modeValue := strings.ToLower(*mode)
	if modeValue != modePack && modeValue != modeExtract && modeValue != modeBoth {
		log.Fatalf("invalid mode %q (expected %s, %s, or %s)", *mode, modePack, modeExtract, modeBoth)
	}
	comp, err := parseCompression(*compression)
	if err != nil {
		log.Fatal(err)
	}
	profileKindValue := profileKind(strings.ToLower(*profile))
	if !isValidProfile(profileKindValue) {
		log.Fatalf("invalid profile %q (expected cpu, fgprof, trace, none)", *profile)
	}
	if *repeat < 1 {
		log.Fatalf("repeat must be >= 1")
	}

	// When Pyroscope is enabled, stream profiles instead of writing locally.
	var pyroProfiler *pyroscope.Profiler
	if *pyroAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName:   "modelout-profile",
			ServerAddress:     *pyroAddr,
			BasicAuthUser:     os.Getenv("PYROSCOPE_BASIC_AUTH_USER"),
			BasicAuthPassword: os.Getenv("PYROSCOPE_BASIC_AUTH_PASSWORD"),
			UploadRate:        5 * time.Second,
			Logger:            pyroscope.StandardLogger,
			Tags: map[string]string{
				"mode":   modeValue,
				"run_id": runID,
			},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("start pyroscope: %v", err)
		}
		pyroProfiler = profiler
		log.Printf("streaming profiles to %s", *pyroAddr)
	}

	labelParts := []string{modeValue}
	if *label != "" {
		labelParts = append(labelParts, sanitizeLabel(*label))
	}
	labelParts = append(labelParts, runID)
	labelValue := strings.Join(labelParts, "_")

	var stopProfile func() error
	if *pyroAddr == "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			log.Fatalf("create profile output dir: %v", err)
		}
		stopProfile, err = startProfile(profileKindValue, *outDir, labelValue)
		if err != nil {
			log.Fatalf("start profile: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	workDir, err := os.MkdirTemp("", "modelout-profile-*")
	if err != nil {
		log.Fatalf("create work dir: %v", err)
	}
	defer os.RemoveAll(workDir)

	payloadDir := filepath.Join(workDir, "payload")
	if err := writePayload(payloadDir, *fileCount, *fileSize); err != nil {
		log.Fatalf("write payload: %v", err)
	}
	archivePath := filepath.Join(workDir, "model.tar.gz")

	// Extract-only runs still need a bundle to unpack.
	if modeValue == modeExtract {
		if err := pack(ctx, payloadDir, archivePath, comp); err != nil {
			log.Fatalf("pack: %v", err)
		}
	}

	client, err := modelout.NewClient()
	if err != nil {
		log.Fatalf("create client: %v", err)
	}

	for i := 0; i < *repeat; i++ {
		if *repeat > 1 {
			log.Printf("iteration %d/%d", i+1, *repeat)
		}
		if modeValue == modePack || modeValue == modeBoth {
			start := time.Now()
			if err := pack(ctx, payloadDir, archivePath, comp); err != nil {
				log.Fatalf("pack: %v", err)
			}
			log.Printf("pack complete: %s", time.Since(start))
		}
		if modeValue == modeExtract || modeValue == modeBoth {
			destDir := filepath.Join(workDir, fmt.Sprintf("extract-%03d", i+1))
			start := time.Now()
			if err := client.Extract(ctx, archivePath, destDir); err != nil {
				log.Fatalf("extract: %v", err)
			}
			log.Printf("extract complete: %s", time.Since(start))
		}
	}

	if pyroProfiler != nil {
		if err := pyroProfiler.Stop(); err != nil {
			log.Fatalf("stop pyroscope: %v", err)
		}
		log.Printf("pyroscope profiling stopped")
		return
	}

	if stopErr := stopProfile(); stopErr != nil {
		log.Fatalf("stop profile: %v", stopErr)
	}
	if err := writeHeapProfile(*outDir, labelValue); err != nil {
		log.Fatalf("write heap profile: %v", err)
	}
	if err := writeAllocsProfile(*outDir, labelValue); err != nil {
		log.Fatalf("write allocs profile: %v", err)
	}
}

func pack(ctx context.Context, srcDir, archivePath string, comp core.Compression) error {
	f, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	buildErr := archive.Build(ctx, os.DirFS(srcDir), f, comp)
	closeErr := f.Close()
	return errors.Join(buildErr, closeErr)
}

// writePayload fabricates a directory of pseudo-random files shaped like a
// large training output (rank manifests plus checkpoint blobs).
func writePayload(dir string, fileCount, fileSize int) error {
	if err := os.MkdirAll(filepath.Join(dir, "checkpoints"), 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(42))
	content := make([]byte, fileSize)
	for i := 0; i < fileCount; i++ {
		rng.Read(content)
		name := filepath.Join(dir, "checkpoints", fmt.Sprintf("chunk-%05d.bin", i))
		if err := os.WriteFile(name, content, 0o644); err != nil {
			return err
		}
	}
	for rank := 0; rank < 4; rank++ {
		manifest := []byte(fmt.Sprintf(`{"rank": %d}`, rank))
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("rank-%d", rank)), manifest, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func parseCompression(value string) (core.Compression, error) {
	switch strings.ToLower(value) {
	case "gzip":
		return core.GzipCompression, nil
	case "zstd":
		return core.ZstdCompression, nil
	case "none":
		return core.NoCompression, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", value)
	}
}

func isValidProfile(kind profileKind) bool {
	switch kind {
	case profileCPU, profileFG, profileTrace, profileNone:
		return true
	default:
		return false
	}
}

func startProfile(kind profileKind, outDir, label string) (func() error, error) {
	switch kind {
	case profileCPU:
		path := filepath.Join(outDir, "cpu_"+label+".pprof")
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		return func() error {
			pprof.StopCPUProfile()
			return f.Close()
		}, nil
	case profileFG:
		path := filepath.Join(outDir, "fgprof_"+label+".pprof")
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		stop := fgprof.Start(f, fgprof.FormatPprof)
		return func() error {
			stopErr := stop()
			closeErr := f.Close()
			return errors.Join(stopErr, closeErr)
		}, nil
	case profileTrace:
		path := filepath.Join(outDir, "trace_"+label+".out")
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		return func() error {
			trace.Stop()
			return f.Close()
		}, nil
	case profileNone:
		return func() error { return nil }, nil
	default:
		return nil, fmt.Errorf("unknown profile type: %s", kind)
	}
}

func writeHeapProfile(outDir, label string) error {
	path := filepath.Join(outDir, "heap_"+label+".pprof")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}

func writeAllocsProfile(outDir, label string) error {
	path := filepath.Join(outDir, "allocs_"+label+".pprof")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.Lookup("allocs").WriteTo(f, 0)
}

func sanitizeLabel(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, value)
}
