// Package objectstore exports a finished run's public properties as flat
// binary pages through the internal/storage.Storage abstraction, for
// graphs too large to hand back as in-process Go slices. Pages are
// uploaded concurrently through a bounded worker pool; per-run stats come
// from the pool's metrics.
package objectstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/bspgraph/engine/internal/storage"
	"github.com/bspgraph/engine/pkg/errors"
	"github.com/bspgraph/engine/pkg/model"
	"github.com/bspgraph/engine/pkg/parallel"
)

// pageElems is the number of values packed into a single exported page,
// independent of the driver's internal paged-array layout: this package
// only ever sees a finished, flattened Result.
const pageElems = 4096

// ExportStats summarizes one export: how many pages were written and how
// long the upload fan-out took.
type ExportStats struct {
	Pages       int64
	FailedPages int64
	Elapsed     time.Duration
}

// pageJob is one page upload: the destination key and its encoded bytes.
type pageJob struct {
	key  string
	data []byte
}

// ExportResult writes every public scalar property in result as one or
// more binary pages under prefix, one subdirectory per property key. A
// long property "rank" with N values becomes keys
// "<prefix>/long/rank/page-0000", "<prefix>/long/rank/page-0001", ...,
// each holding up to pageElems little-endian int64s (or float64s for a
// double property), in order. Pages upload concurrently; the first
// upload error aborts the export (already-uploaded pages are left for
// the caller to clean up by prefix).
func ExportResult(ctx context.Context, store storage.Storage, prefix string, result *model.Result) (ExportStats, error) {
	var jobs []pageJob
	for key, vals := range result.NodeValues.LongValues {
		jobs = appendLongPages(jobs, prefix, key, vals)
	}
	for key, vals := range result.NodeValues.DoubleValues {
		jobs = appendDoublePages(jobs, prefix, key, vals)
	}
	if len(jobs) == 0 {
		return ExportStats{}, nil
	}

	pool := parallel.NewWorkerPool[pageJob, struct{}](parallel.DefaultPoolConfig().WithMetrics())
	results := pool.ExecuteFunc(ctx, jobs, func(ctx context.Context, job pageJob) (struct{}, error) {
		return struct{}{}, store.Upload(ctx, job.key, bytes.NewReader(job.data))
	})

	m := pool.Metrics()
	stats := ExportStats{Pages: m.CompletedTasks, FailedPages: m.FailedTasks, Elapsed: m.TotalDuration}
	for _, r := range results {
		if r.Error != nil {
			return stats, errors.Wrap(errors.CodeResourceError, "upload page "+r.Input.key, r.Error)
		}
	}
	return stats, nil
}

func appendLongPages(jobs []pageJob, prefix, key string, vals []int64) []pageJob {
	for start := 0; start < len(vals); start += pageElems {
		end := min(start+pageElems, len(vals))
		data := make([]byte, 8*(end-start))
		for i, v := range vals[start:end] {
			binary.LittleEndian.PutUint64(data[8*i:], uint64(v))
		}
		jobs = append(jobs, pageJob{key: pageKey(prefix, "long", key, start/pageElems), data: data})
	}
	return jobs
}

func appendDoublePages(jobs []pageJob, prefix, key string, vals []float64) []pageJob {
	for start := 0; start < len(vals); start += pageElems {
		end := min(start+pageElems, len(vals))
		data := make([]byte, 8*(end-start))
		for i, v := range vals[start:end] {
			binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(v))
		}
		jobs = append(jobs, pageJob{key: pageKey(prefix, "double", key, start/pageElems), data: data})
	}
	return jobs
}

// ImportLongProperty reads back a long property with n values previously
// written by ExportResult.
func ImportLongProperty(ctx context.Context, store storage.Storage, prefix, key string, n int64) ([]int64, error) {
	out := make([]int64, 0, n)
	for page := 0; int64(len(out)) < n; page++ {
		rc, err := store.Download(ctx, pageKey(prefix, "long", key, page))
		if err != nil {
			return nil, errors.Wrap(errors.CodeResourceError, "download page", err)
		}
		if err := readLongPage(rc, &out); err != nil {
			rc.Close()
			return nil, err
		}
		rc.Close()
	}
	return out[:n], nil
}

// ImportDoubleProperty reads back a double property with n values
// previously written by ExportResult.
func ImportDoubleProperty(ctx context.Context, store storage.Storage, prefix, key string, n int64) ([]float64, error) {
	out := make([]float64, 0, n)
	for page := 0; int64(len(out)) < n; page++ {
		rc, err := store.Download(ctx, pageKey(prefix, "double", key, page))
		if err != nil {
			return nil, errors.Wrap(errors.CodeResourceError, "download page", err)
		}
		if err := readDoublePage(rc, &out); err != nil {
			rc.Close()
			return nil, err
		}
		rc.Close()
	}
	return out[:n], nil
}

func readLongPage(r io.Reader, out *[]int64) error {
	for {
		var v int64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(errors.CodeResourceError, "decode long page", err)
		}
		*out = append(*out, v)
	}
}

func readDoublePage(r io.Reader, out *[]float64) error {
	for {
		var v float64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(errors.CodeResourceError, "decode double page", err)
		}
		*out = append(*out, v)
	}
}

func pageKey(prefix, kind, key string, page int) string {
	return fmt.Sprintf("%s/%s/%s/page-%04d", prefix, kind, key, page)
}
