package kernel

import "tsdffusion/blockhash"

// blockValues wraps the block pool's [B,R,R,R,2] float32 tensor (spec.md
// §3) with voxel-level read/write helpers. Block is the outermost axis,
// x the innermost (fastest-varying) within a block.
type blockValues struct {
	data []float32
	res  int
}

func newBlockValues(data []float32, resolution int) blockValues {
	return blockValues{data: data, res: resolution}
}

func (bv blockValues) flatOffset(blockIdx int32, xv, yv, zv int) int {
	r := bv.res
	local := (zv*r+yv)*r + xv
	return (int(blockIdx)*r*r*r + local) * 2
}

// Load returns (tsdf, weight) for a voxel.
func (bv blockValues) Load(blockIdx int32, xv, yv, zv int) (tsdf, weight float32) {
	off := bv.flatOffset(blockIdx, xv, yv, zv)
	return bv.data[off], bv.data[off+1]
}

// Store writes (tsdf, weight) for a voxel.
func (bv blockValues) Store(blockIdx int32, xv, yv, zv int, tsdf, weight float32) {
	off := bv.flatOffset(blockIdx, xv, yv, zv)
	bv.data[off] = tsdf
	bv.data[off+1] = weight
}

// neighborVoxel resolves a shifted local coordinate (xv,yv,zv) into the
// owning block (possibly a neighbor across a block seam) and the
// resulting in-block local coordinate, using the 27-entry neighbor table
// spec.md §3 requires Touch's dilation to have already populated.
//
// (xv,yv,zv) is the local coordinate before wrapping, which may be
// outside [0,R) by at most one unit in any or all axes (callers only
// ever shift by -1, 0, or +1 per axis; a cube's far corner is +1 in all
// three).
func neighborVoxel(resolution int, xv, yv, zv int, nbIndices [27][]int64, nbMasks [27][]bool, k int) (blockIdx int32, lx, ly, lz int, ok bool) {
	dxb, lx := floorDivMod(xv, resolution)
	dyb, ly := floorDivMod(yv, resolution)
	dzb, lz := floorDivMod(zv, resolution)
	nb := blockhash.NeighborFlatIndex(dxb, dyb, dzb)
	if !nbMasks[nb][k] {
		return 0, 0, 0, 0, false
	}
	return int32(nbIndices[nb][k]), lx, ly, lz, true
}

// floorDivMod returns floor(x/n) and the corresponding non-negative
// remainder, for n>0. Used to resolve a local coordinate that stepped one
// unit outside [0,n) back into (neighbor block offset, wrapped coord).
func floorDivMod(x, n int) (q, r int) {
	q = x / n
	r = x % n
	if r < 0 {
		r += n
		q--
	}
	return
}
