package bsp

import (
	"math"
	"sync/atomic"

	"github.com/bspgraph/engine/pkg/collections"
	bspErrors "github.com/bspgraph/engine/pkg/errors"
)

// pageShift/pageSize/pageMask implement the page arithmetic: page = i >>
// pageShift, offset = i & pageMask. A page holds 2^12 = 4096 elements;
// for 8-byte primitives that is a 32KB page, chosen to keep a single
// page allocation within one huge-page-friendly chunk while keeping the
// index math a pair of bit operations.
const (
	pageShift = 12
	pageSize  = 1 << pageShift
	pageMask  = pageSize - 1
)

// longPagePool and doublePagePool recycle page-sized backing buffers
// across huge arrays, so a driver that repeatedly constructs and drops
// node value stores (one per run) doesn't re-allocate every page from
// scratch each time.
var (
	longPagePool   = collections.NewSlicePool[int64](pageSize)
	doublePagePool = collections.NewSlicePool[float64](pageSize)
)

func pageCount(n int64) int {
	if n <= 0 {
		return 0
	}
	return int((n + pageSize - 1) >> pageShift)
}

func pageOf(i int64) int   { return int(i >> pageShift) }
func offsetOf(i int64) int { return int(i & pageMask) }

func boundsErrorf(idx, size int64) error {
	return bspErrors.Wrap(bspErrors.CodeBoundsError, "index out of range", errIndexOutOfRange(idx, size))
}

type indexOutOfRangeErr struct {
	idx, size int64
}

func (e *indexOutOfRangeErr) Error() string {
	return "index out of range"
}

func errIndexOutOfRange(idx, size int64) error {
	return &indexOutOfRangeErr{idx: idx, size: size}
}

// PagedLongArray is a non-atomic huge array of int64, split into
// fixed-size pages allocated one page at a time. Reads/writes into an
// unallocated page see the array's default value; there is no implicit
// growth past the size fixed at construction.
//
// Element writes carry no synchronization (each vertex is written by
// exactly one thread during a compute step), but page *allocation* is
// published with a CAS so two threads touching distinct vertices of the
// same not-yet-allocated page cannot clobber each other's page.
type PagedLongArray struct {
	pages  []atomic.Pointer[[]int64]
	size   int64
	defVal int64
}

// NewPagedLongArray allocates a PagedLongArray over [0, size) with every
// slot defaulting to def. Pages are allocated lazily on first write.
func NewPagedLongArray(size int64, def int64) *PagedLongArray {
	return &PagedLongArray{pages: make([]atomic.Pointer[[]int64], pageCount(size)), size: size, defVal: def}
}

// Size returns the number of addressable elements.
func (a *PagedLongArray) Size() int64 { return a.size }

// Get returns the value at i, or the array's default if i's page was
// never written.
func (a *PagedLongArray) Get(i int64) int64 {
	if i < 0 || i >= a.size {
		panic(boundsErrorf(i, a.size))
	}
	p := a.pages[pageOf(i)].Load()
	if p == nil {
		return a.defVal
	}
	return (*p)[offsetOf(i)]
}

// Set writes value at i, allocating its backing page if necessary.
func (a *PagedLongArray) Set(i int64, value int64) {
	if i < 0 || i >= a.size {
		panic(boundsErrorf(i, a.size))
	}
	(*a.page(pageOf(i)))[offsetOf(i)] = value
}

// page returns pi's backing page, allocating and publishing it if it does
// not exist yet. On a lost allocation race the fresh buffer goes back to
// the pool and the winner's page is used.
func (a *PagedLongArray) page(pi int) *[]int64 {
	if p := a.pages[pi].Load(); p != nil {
		return p
	}
	s := longPagePool.Get()
	p := (*s)[:pageSize]
	for i := range p {
		p[i] = a.defVal
	}
	if a.pages[pi].CompareAndSwap(nil, &p) {
		return &p
	}
	longPagePool.Put(&p)
	return a.pages[pi].Load()
}

// Release returns every allocated page to the shared page pool. The
// array must not be used afterward.
func (a *PagedLongArray) Release() {
	for i := range a.pages {
		if p := a.pages[i].Swap(nil); p != nil {
			longPagePool.Put(p)
		}
	}
}

// SetRange bulk-writes value across [lo, hi), allocating full interior
// pages via a single fill rather than per-element stores.
func (a *PagedLongArray) SetRange(lo, hi int64, value int64) {
	if lo < 0 || hi > a.size || hi < lo {
		panic(boundsErrorf(hi, a.size))
	}
	for i := lo; i < hi; {
		pi := pageOf(i)
		off := offsetOf(i)
		p := *a.page(pi)
		end := pageSize
		if remaining := hi - (i - int64(off)); remaining < int64(pageSize) {
			end = int(remaining)
		}
		for j := off; j < end; j++ {
			p[j] = value
		}
		i += int64(end - off)
	}
}

// ForEachPage iterates the array page by page, calling fn with the page's
// base index and its backing slice (nil for unallocated pages). Bulk work
// should prefer this over element-by-element Get/Set.
func (a *PagedLongArray) ForEachPage(fn func(base int64, page []int64)) {
	for pi := range a.pages {
		var page []int64
		if p := a.pages[pi].Load(); p != nil {
			page = *p
		}
		fn(int64(pi)<<pageShift, page)
	}
}

// PagedDoubleArray mirrors PagedLongArray for float64 elements.
type PagedDoubleArray struct {
	pages  []atomic.Pointer[[]float64]
	size   int64
	defVal float64
}

// NewPagedDoubleArray allocates a PagedDoubleArray over [0, size).
func NewPagedDoubleArray(size int64, def float64) *PagedDoubleArray {
	return &PagedDoubleArray{pages: make([]atomic.Pointer[[]float64], pageCount(size)), size: size, defVal: def}
}

// Size returns the number of addressable elements.
func (a *PagedDoubleArray) Size() int64 { return a.size }

// Get returns the value at i, or the array's default.
func (a *PagedDoubleArray) Get(i int64) float64 {
	if i < 0 || i >= a.size {
		panic(boundsErrorf(i, a.size))
	}
	p := a.pages[pageOf(i)].Load()
	if p == nil {
		return a.defVal
	}
	return (*p)[offsetOf(i)]
}

// Set writes value at i, allocating its backing page if necessary.
func (a *PagedDoubleArray) Set(i int64, value float64) {
	if i < 0 || i >= a.size {
		panic(boundsErrorf(i, a.size))
	}
	(*a.page(pageOf(i)))[offsetOf(i)] = value
}

func (a *PagedDoubleArray) page(pi int) *[]float64 {
	if p := a.pages[pi].Load(); p != nil {
		return p
	}
	s := doublePagePool.Get()
	p := (*s)[:pageSize]
	for i := range p {
		p[i] = a.defVal
	}
	if a.pages[pi].CompareAndSwap(nil, &p) {
		return &p
	}
	doublePagePool.Put(&p)
	return a.pages[pi].Load()
}

// Release returns every allocated page to the shared page pool. The
// array must not be used afterward.
func (a *PagedDoubleArray) Release() {
	for i := range a.pages {
		if p := a.pages[i].Swap(nil); p != nil {
			doublePagePool.Put(p)
		}
	}
}

// ForEachPage iterates the array page by page.
func (a *PagedDoubleArray) ForEachPage(fn func(base int64, page []float64)) {
	for pi := range a.pages {
		var page []float64
		if p := a.pages[pi].Load(); p != nil {
			page = *p
		}
		fn(int64(pi)<<pageShift, page)
	}
}

// AtomicPagedLongArray is the atomic counterpart of PagedLongArray: every
// slot is an atomic cell and Set/CompareAndSet/GetAndAdd are CAS loops or
// direct atomic stores. Bulk operations such as iteration are a consistent
// snapshot only under quiescence (no concurrent writers).
type AtomicPagedLongArray struct {
	pages  []atomic.Pointer[[]atomic.Int64]
	size   int64
	defVal int64
}

// NewAtomicPagedLongArray allocates an atomic huge array over [0, size).
func NewAtomicPagedLongArray(size int64, def int64) *AtomicPagedLongArray {
	return &AtomicPagedLongArray{pages: make([]atomic.Pointer[[]atomic.Int64], pageCount(size)), size: size, defVal: def}
}

// Size returns the number of addressable elements.
func (a *AtomicPagedLongArray) Size() int64 { return a.size }

func (a *AtomicPagedLongArray) cell(i int64) *atomic.Int64 {
	if i < 0 || i >= a.size {
		panic(boundsErrorf(i, a.size))
	}
	pi := pageOf(i)
	p := a.pages[pi].Load()
	if p == nil {
		fresh := make([]atomic.Int64, pageSize)
		if a.defVal != 0 {
			for idx := range fresh {
				fresh[idx].Store(a.defVal)
			}
		}
		if !a.pages[pi].CompareAndSwap(nil, &fresh) {
			p = a.pages[pi].Load()
		} else {
			p = &fresh
		}
	}
	return &(*p)[offsetOf(i)]
}

// Get returns the current value at i.
func (a *AtomicPagedLongArray) Get(i int64) int64 { return a.cell(i).Load() }

// SetAtomic stores value at i.
func (a *AtomicPagedLongArray) SetAtomic(i int64, value int64) { a.cell(i).Store(value) }

// CompareAndSet atomically updates the slot at i from exp to next,
// returning whether the swap took effect.
func (a *AtomicPagedLongArray) CompareAndSet(i int64, exp, next int64) bool {
	return a.cell(i).CompareAndSwap(exp, next)
}

// GetAndAdd atomically adds delta to the slot at i and returns the prior
// value.
func (a *AtomicPagedLongArray) GetAndAdd(i int64, delta int64) int64 {
	return a.cell(i).Add(delta) - delta
}

// AtomicPagedDoubleArray is the atomic counterpart for float64, built on
// top of atomic.Uint64's bit pattern since Go has no atomic.Float64.
type AtomicPagedDoubleArray struct {
	pages  []atomic.Pointer[[]atomic.Uint64]
	size   int64
	defVal float64
}

// NewAtomicPagedDoubleArray allocates an atomic huge array over [0, size).
func NewAtomicPagedDoubleArray(size int64, def float64) *AtomicPagedDoubleArray {
	return &AtomicPagedDoubleArray{pages: make([]atomic.Pointer[[]atomic.Uint64], pageCount(size)), size: size, defVal: def}
}

// Size returns the number of addressable elements.
func (a *AtomicPagedDoubleArray) Size() int64 { return a.size }

func (a *AtomicPagedDoubleArray) cell(i int64) *atomic.Uint64 {
	if i < 0 || i >= a.size {
		panic(boundsErrorf(i, a.size))
	}
	pi := pageOf(i)
	p := a.pages[pi].Load()
	if p == nil {
		fresh := make([]atomic.Uint64, pageSize)
		if a.defVal != 0 {
			bits := math.Float64bits(a.defVal)
			for idx := range fresh {
				fresh[idx].Store(bits)
			}
		}
		if !a.pages[pi].CompareAndSwap(nil, &fresh) {
			p = a.pages[pi].Load()
		} else {
			p = &fresh
		}
	}
	return &(*p)[offsetOf(i)]
}

// Get returns the current value at i.
func (a *AtomicPagedDoubleArray) Get(i int64) float64 {
	return math.Float64frombits(a.cell(i).Load())
}

// SetAtomic stores value at i.
func (a *AtomicPagedDoubleArray) SetAtomic(i int64, value float64) {
	a.cell(i).Store(math.Float64bits(value))
}

// CompareAndSet atomically updates the slot at i from exp to next.
func (a *AtomicPagedDoubleArray) CompareAndSet(i int64, exp, next float64) bool {
	return a.cell(i).CompareAndSwap(math.Float64bits(exp), math.Float64bits(next))
}
