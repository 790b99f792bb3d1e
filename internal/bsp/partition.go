package bsp

import (
	"context"

	"github.com/bspgraph/engine/pkg/errors"
	"github.com/bspgraph/engine/pkg/parallel"
)

// Strategy selects how Partitioner splits [0, N) into worker-sized ranges.
type Strategy int

const (
	// StrategyRange splits N into K roughly-equal contiguous chunks.
	StrategyRange Strategy = iota
	// StrategyNumberAligned is StrategyRange with every partition start
	// rounded down to a page boundary.
	StrategyNumberAligned
	// StrategyDegree accumulates per-vertex degree and starts a new
	// partition whenever the running sum would exceed the target weight.
	StrategyDegree
)

// Partition is a half-open [Start, Start+Count) range over [0, N),
// optionally carrying the cumulative degree ("weight") it covers.
type Partition struct {
	Start  int64
	Count  int64
	Weight int64
}

// End returns the exclusive end of the partition.
func (p Partition) End() int64 { return p.Start + p.Count }

// BuildRangePartitions splits [0, n) into k contiguous, roughly-equal
// chunks; the last chunk absorbs any remainder. Empty (count == 0)
// partitions are never emitted.
func BuildRangePartitions(n int64, k int) ([]Partition, error) {
	if k <= 0 {
		return nil, errors.Wrap(errors.CodeConfigError, "partition count must be positive", nil)
	}
	if n <= 0 {
		return nil, nil
	}
	chunk := n / int64(k)
	if chunk == 0 {
		chunk = 1
	}
	var parts []Partition
	for start := int64(0); start < n && len(parts) < k; start += chunk {
		count := chunk
		if len(parts) == k-1 || start+count > n {
			count = n - start
		}
		parts = append(parts, Partition{Start: start, Count: count})
	}
	return parts, nil
}

// BuildNumberAlignedPartitions is BuildRangePartitions with every
// partition start (after the first) rounded down to a page boundary, to
// improve cache behavior for bulk page-granular operations.
func BuildNumberAlignedPartitions(n int64, k int) ([]Partition, error) {
	if k <= 0 {
		return nil, errors.Wrap(errors.CodeConfigError, "partition count must be positive", nil)
	}
	if n <= 0 {
		return nil, nil
	}
	chunk := n / int64(k)
	if chunk == 0 {
		chunk = 1
	}
	var parts []Partition
	start := int64(0)
	for start < n {
		next := start + chunk
		if next < n {
			aligned := (next >> pageShift) << pageShift
			if aligned > start {
				next = aligned
			}
		}
		if next > n {
			next = n
		}
		count := next - start
		if count <= 0 {
			break
		}
		parts = append(parts, Partition{Start: start, Count: count})
		start = next
	}
	return parts, nil
}

// DegreeFunc returns the degree (or other per-vertex weight) of vertex v.
type DegreeFunc func(v int64) int64

// BuildDegreePartitions walks [0, n) in order, accumulating degree(v) and
// starting a new partition whenever the running sum would exceed the
// target weight W = ceil(total/k). Each emitted partition records the
// cumulative degree it covers. On an unweighted graph (total degree == 0)
// this falls back to range partitioning.
func BuildDegreePartitions(ctx context.Context, n int64, k int, degree DegreeFunc) ([]Partition, error) {
	if k <= 0 {
		return nil, errors.Wrap(errors.CodeConfigError, "partition count must be positive", nil)
	}
	if n <= 0 {
		return nil, nil
	}

	total := sumDegrees(ctx, n, degree)
	if total == 0 {
		return BuildRangePartitions(n, k)
	}

	target := (total + int64(k) - 1) / int64(k)
	if target <= 0 {
		target = 1
	}

	var parts []Partition
	var curStart int64
	var curWeight int64
	for v := int64(0); v < n; v++ {
		d := degree(v)
		if curWeight > 0 && curWeight+d > target {
			parts = append(parts, Partition{Start: curStart, Count: v - curStart, Weight: curWeight})
			curStart = v
			curWeight = 0
		}
		curWeight += d
	}
	if curStart < n {
		parts = append(parts, Partition{Start: curStart, Count: n - curStart, Weight: curWeight})
	}
	return parts, nil
}

// sumDegrees computes the total degree over [0, n), mapping over a
// handful of index ranges in parallel so large graphs amortize the O(N)
// scan across workers before the (inherently sequential) boundary walk
// runs.
func sumDegrees(ctx context.Context, n int64, degree DegreeFunc) int64 {
	const chunkThreshold = 1 << 16
	if n < chunkThreshold {
		var sum int64
		for v := int64(0); v < n; v++ {
			sum += degree(v)
		}
		return sum
	}

	cfg := parallel.DefaultPoolConfig()
	return parallel.MapReduce(ctx, parallel.SplitRange(n, cfg.MaxWorkers), cfg,
		func(_ context.Context, r parallel.Range) int64 {
			var sum int64
			for v := r.Start; v < r.End; v++ {
				sum += degree(v)
			}
			return sum
		},
		func(mapped []int64) int64 {
			var sum int64
			for _, m := range mapped {
				sum += m
			}
			return sum
		},
	)
}

// Split divides a partition for fork/join recursion: range and
// number-aligned partitions split at the midpoint (number-aligned splits
// additionally round to a page boundary); degree partitions split so each
// half carries close to half of the parent's weight, walking with degree
// to find the split vertex.
func (p Partition) Split(strategy Strategy, degree DegreeFunc) (left, right Partition) {
	if p.Count <= 1 {
		return p, Partition{Start: p.End(), Count: 0}
	}

	switch strategy {
	case StrategyDegree:
		return p.splitByDegree(degree)
	case StrategyNumberAligned:
		mid := p.Start + p.Count/2
		aligned := (mid >> pageShift) << pageShift
		if aligned > p.Start && aligned < p.End() {
			mid = aligned
		}
		return Partition{Start: p.Start, Count: mid - p.Start},
			Partition{Start: mid, Count: p.End() - mid}
	default:
		mid := p.Start + p.Count/2
		return Partition{Start: p.Start, Count: mid - p.Start},
			Partition{Start: mid, Count: p.End() - mid}
	}
}

func (p Partition) splitByDegree(degree DegreeFunc) (left, right Partition) {
	if degree == nil || p.Weight == 0 {
		mid := p.Start + p.Count/2
		return Partition{Start: p.Start, Count: mid - p.Start},
			Partition{Start: mid, Count: p.End() - mid}
	}

	half := p.Weight / 2
	var acc int64
	mid := p.End()
	for v := p.Start; v < p.End(); v++ {
		acc += degree(v)
		if acc >= half {
			mid = v + 1
			break
		}
	}
	if mid <= p.Start {
		mid = p.Start + 1
	}
	if mid >= p.End() {
		mid = p.End() - 1
		if mid <= p.Start {
			mid = p.Start + p.Count/2
		}
	}
	leftWeight := int64(0)
	for v := p.Start; v < mid; v++ {
		leftWeight += degree(v)
	}
	return Partition{Start: p.Start, Count: mid - p.Start, Weight: leftWeight},
		Partition{Start: mid, Count: p.End() - mid, Weight: p.Weight - leftWeight}
}
