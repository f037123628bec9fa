// Package indexer implements the NDArrayIndexer primitive: the bijection
// between a linear workload id and up-to-4-dimensional coordinates that
// every kernel in package kernel uses to address the block pool and the
// depth/vertex images. Grounded on the teacher's coordinate-conversion
// helpers (core/coordinates.go in the source tree this module was built
// from), generalized from geographic lat/lon/shell indices to the fixed
// shape arithmetic the TSDF core needs.
package indexer

// NDArrayIndexer captures a row-major shape of up to 4 axes, outermost
// (slowest-varying) axis first, and converts between a linear workload id
// and per-axis coordinates. It is a bijection on [0, prod(shape)); callers
// are responsible for keeping workload ids in range.
type NDArrayIndexer struct {
	shape    [4]int
	strides  [4]int
	ndim     int
	elemSize int
}

// New builds an indexer over shape (outermost axis first) with the given
// per-element size in "units" (bytes, float count, whatever the caller's
// GetDataPtrFromWorkload arithmetic is in terms of).
func New(shape []int, elemSize int) *NDArrayIndexer {
	if len(shape) == 0 || len(shape) > 4 {
		panic("indexer: shape must have between 1 and 4 axes")
	}
	ix := &NDArrayIndexer{ndim: len(shape), elemSize: elemSize}
	copy(ix.shape[:], shape)
	ix.strides[ix.ndim-1] = 1
	for i := ix.ndim - 2; i >= 0; i-- {
		ix.strides[i] = ix.strides[i+1] * ix.shape[i+1]
	}
	return ix
}

// NDim returns the number of axes this indexer was built with.
func (ix *NDArrayIndexer) NDim() int { return ix.ndim }

// Shape returns axis sizes, outermost first.
func (ix *NDArrayIndexer) Shape() []int { return append([]int(nil), ix.shape[:ix.ndim]...) }

// NumElements returns the product of all axis sizes.
func (ix *NDArrayIndexer) NumElements() int {
	n := 1
	for i := 0; i < ix.ndim; i++ {
		n *= ix.shape[i]
	}
	return n
}

// WorkloadToCoord decomposes a linear workload id into per-axis
// coordinates, outermost axis first, innermost axis fastest-varying.
// Undefined for w outside [0, NumElements()).
func (ix *NDArrayIndexer) WorkloadToCoord(w int) [4]int {
	var c [4]int
	for i := 0; i < ix.ndim; i++ {
		c[i] = w / ix.strides[i]
		w -= c[i] * ix.strides[i]
	}
	return c
}

// CoordToWorkload is the inverse of WorkloadToCoord.
func (ix *NDArrayIndexer) CoordToWorkload(c ...int) int {
	w := 0
	for i := 0; i < ix.ndim && i < len(c); i++ {
		w += c[i] * ix.strides[i]
	}
	return w
}

// GetDataPtrFromWorkload returns the flat element offset w*elemSize,
// relative to the start of the backing buffer, that a caller should index
// the buffer at.
func (ix *NDArrayIndexer) GetDataPtrFromWorkload(w int) int {
	return w * ix.elemSize
}

// InBoundary reports whether (u, v), truncated to integers, fall inside
// an image of this indexer's last two axes (outermost-but-one = height,
// innermost = width). Only meaningful for indexers with ndim >= 2.
func (ix *NDArrayIndexer) InBoundary(u, v float32) bool {
	iu, iv := int(u), int(v)
	w := ix.shape[ix.ndim-1]
	h := ix.shape[ix.ndim-2]
	return iu >= 0 && iu < w && iv >= 0 && iv < h
}

// VoxelLocalCoord decomposes a within-block linear voxel index into
// (xv, yv, zv) for a resolution-R cubic block, x fastest-varying.
func VoxelLocalCoord(voxelIdx, resolution int) (xv, yv, zv int) {
	xv = voxelIdx % resolution
	rem := voxelIdx / resolution
	yv = rem % resolution
	zv = rem / resolution
	return
}

// VoxelLocalIndex is the inverse of VoxelLocalCoord.
func VoxelLocalIndex(xv, yv, zv, resolution int) int {
	return (zv*resolution+yv)*resolution + xv
}
