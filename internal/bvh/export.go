package bvh

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"poser-sync/internal/poser"
	"poser-sync/internal/skeleton"
)

// Job is one pose to export.
type Job struct {
	Name   string
	Record poser.Record
}

// Result holds the outcome of exporting one pose.
type Result struct {
	Name    string
	Path    string
	Success bool
	Error   string
}

// ExportAll writes every job to dir/<name>.bvh using a worker pool.
// Results are in job order. Cancelling ctx skips jobs not yet started.
func ExportAll(ctx context.Context, cat *skeleton.Catalog, dir string, jobs []Job, workers int, log zerolog.Logger) []Result {
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64
	if workers <= 0 {
		workers = 1
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Info().Int64("done", p).Int("total", total).Float64("per_sec", rate).Msg("exporting")
				}
			}
		}
	}()

	// Worker pool
	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Name: jobs[idx].Name, Error: err.Error()}
				} else {
					results[idx] = exportOne(cat, dir, jobs[idx])
				}
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

// FileName maps a pose name to a safe file name.
func FileName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "pose"
	}
	return clean + ".bvh"
}

func exportOne(cat *skeleton.Catalog, dir string, job Job) Result {
	outPath := filepath.Join(dir, FileName(job.Name))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return Result{Name: job.Name, Path: outPath, Error: err.Error()}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return Result{Name: job.Name, Path: outPath, Error: err.Error()}
	}
	defer f.Close()

	if err := Write(f, cat, job.Record); err != nil {
		return Result{Name: job.Name, Path: outPath, Error: fmt.Sprintf("BVH encode: %v", err)}
	}

	return Result{Name: job.Name, Path: outPath, Success: true}
}
