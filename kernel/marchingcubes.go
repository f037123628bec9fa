package kernel

import (
	"math"

	"tsdffusion/indexer"
	"tsdffusion/launch"
	"tsdffusion/mctables"
	"tsdffusion/tensor"
)

// MarchingCubesArgs are the typed arguments for the MarchingCubes kernel
// (spec.md §4.8). MeshStructure is a scratch [K,R,R,R,4] int32 tensor the
// caller allocates fresh for every call and this kernel mutates across its
// two passes.
type MarchingCubesArgs struct {
	Indices       *tensor.Tensor // K, int64
	InvIndices    *tensor.Tensor // B, int64 — inverse of Indices, -1 where unselected
	NbIndices     *tensor.Tensor // 27 x K, int64
	NbMasks       *tensor.Tensor // 27 x K, bool
	BlockKeys     *tensor.Tensor // B x 3, int64
	BlockValues   *tensor.Tensor // B x R x R x R x 2, float32
	MeshStructure *tensor.Tensor // K x R x R x R x 4, int32, mutated
	VoxelSize     float32
	Resolution    int64
	Capacity      int32 // vertex buffer capacity, rows

	// FixCentralDifferenceTypo controls whether the normal computation in
	// pass 1 uses the corrected per-axis central difference or carries the
	// known xvs[1]-for-yvs[1]/zvs[1] substitution forward (spec.md §9 Open
	// Questions). Defaults to false: off by default, matching the source
	// behavior callers may already be relying on.
	FixCentralDifferenceTypo bool
}

type mcContext struct {
	resolution int
	nbIdx      [27][]int64
	nbMask     [27][]bool
	bv         blockValues
}

func (c mcContext) sample(nxv, nyv, nzv, kk int) (tsdf float32, ok bool) {
	blockIdx, lx, ly, lz, ok := neighborVoxel(c.resolution, nxv, nyv, nzv, c.nbIdx, c.nbMask, kk)
	if !ok {
		return 0, false
	}
	tsdf, w := c.bv.Load(blockIdx, lx, ly, lz)
	if w <= 0 {
		return 0, false
	}
	return tsdf, true
}

// centralDifference computes the (unnormalized) TSDF gradient at voxel
// origin (xv,yv,zv) of cube kk by central differences across each axis's
// +/-1 neighbor; an unavailable neighbor contributes 0 to that axis
// (spec.md §4.8 step 2).
//
// This is the corrected form; normal uses it only when fixTypo is true.
// When fixTypo is false, normal uses centralDifferenceTypo instead, which
// carries forward the known issue described in spec.md §9 Open Questions:
// both samples of the y and z partials are taken at the x+1 neighbor, so
// those partials collapse to exactly zero. Do not "clean that up" without
// flipping fixTypo — callers may already depend on the degenerate normal.
func (c mcContext) centralDifference(kk, xv, yv, zv int) [3]float32 {
	xvs := [2]int{xv - 1, xv + 1}
	yvs := [2]int{yv - 1, yv + 1}
	zvs := [2]int{zv - 1, zv + 1}

	var n [3]float32

	if hi, ok := c.sample(xvs[1], yv, zv, kk); ok {
		n[0] += hi
	}
	if lo, ok := c.sample(xvs[0], yv, zv, kk); ok {
		n[0] -= lo
	}

	if hi, ok := c.sample(xv, yvs[1], zv, kk); ok {
		n[1] += hi
	}
	if lo, ok := c.sample(xv, yvs[0], zv, kk); ok {
		n[1] -= lo
	}

	if hi, ok := c.sample(xv, yv, zvs[1], kk); ok {
		n[2] += hi
	}
	if lo, ok := c.sample(xv, yv, zvs[0], kk); ok {
		n[2] -= lo
	}

	return n
}

// centralDifferenceTypo is the uncorrected form: dybs[1] and dzbs[1] reuse
// xvs[1] instead of yvs[1]/zvs[1], so both samples used for the y and z
// partials are identical and cancel.
func (c mcContext) centralDifferenceTypo(kk, xv, yv, zv int) [3]float32 {
	xvs := [2]int{xv - 1, xv + 1}

	var n [3]float32

	if hi, ok := c.sample(xvs[1], yv, zv, kk); ok {
		n[0] += hi
	}
	if lo, ok := c.sample(xvs[0], yv, zv, kk); ok {
		n[0] -= lo
	}

	if hi, ok := c.sample(xvs[1], yv, zv, kk); ok {
		n[1] += hi
	}
	if lo, ok := c.sample(xvs[1], yv, zv, kk); ok {
		n[1] -= lo
	}

	if hi, ok := c.sample(xvs[1], yv, zv, kk); ok {
		n[2] += hi
	}
	if lo, ok := c.sample(xvs[1], yv, zv, kk); ok {
		n[2] -= lo
	}

	return n
}

func (c mcContext) normal(kk, xv, yv, zv int, fixTypo bool) [3]float32 {
	if fixTypo {
		return c.centralDifference(kk, xv, yv, zv)
	}
	return c.centralDifferenceTypo(kk, xv, yv, zv)
}

func normalizeVec3(v [3]float32) [3]float32 {
	lengthSq := v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
	if lengthSq == 0 {
		return v
	}
	inv := 1 / float32(math.Sqrt(float64(lengthSq)))
	return [3]float32{v[0] * inv, v[1] * inv, v[2] * inv}
}

// MarchingCubes extracts a triangle-free vertex+normal point set at the
// zero crossings of the selected blocks' TSDF volume, two passes over the
// same workload (spec.md §4.8):
//
// Pass 0 computes each voxel's 8-corner cube case and, for every cut edge,
// marks (with a non-atomic, idempotent -1 write) the mesh_structure slot
// of whichever voxel owns that edge — possibly a different voxel than the
// one whose cube produced the case, including across block seams.
//
// Pass 1 then visits every voxel once more: any of its own three edge
// slots still holding -1 gets a freshly reserved vertex id (atomic
// fetch-add) and a position/normal emitted into the output buffers.
func MarchingCubes(args MarchingCubesArgs) (vertices, normals *tensor.Tensor, count int32, err error) {
	r := int(args.Resolution)
	k := args.Indices.Shape[0]
	n := k * r * r * r

	indices := args.Indices.I64()
	invIndices := args.InvIndices.I64()
	blockKeys := args.BlockKeys.I64()
	bv := newBlockValues(args.BlockValues.F32(), r)
	ms := newMeshStructure(args.MeshStructure.I32(), r)
	nbIdx := nbColumnsI64(args.NbIndices, k)
	nbMask := nbColumnsBool(args.NbMasks, k)

	mc := mcContext{resolution: r, nbIdx: nbIdx, nbMask: nbMask, bv: bv}

	// Pass 0: cube analysis and edge reservation.
	launch.ParallelFor(n, func(workloadIdx int) {
		kk := workloadIdx / (r * r * r)
		voxelIdx := workloadIdx % (r * r * r)
		xv, yv, zv := indexer.VoxelLocalCoord(voxelIdx, r)

		var corner [8]float32
		for c := 0; c < 8; c++ {
			off := mctables.CornerOffset[c]
			tsdf, ok := mc.sample(xv+off[0], yv+off[1], zv+off[2], kk)
			if !ok {
				return
			}
			corner[c] = tsdf
		}

		var tableIdx int
		for c := 0; c < 8; c++ {
			if corner[c] < 0 {
				tableIdx |= 1 << uint(c)
			}
		}
		ms.SetCaseIndex(kk, xv, yv, zv, int32(tableIdx))

		if tableIdx == 0 || tableIdx == 0xFF {
			return
		}

		cutEdges := mctables.EdgeTable(tableIdx)
		for e := 0; e < 12; e++ {
			if cutEdges&(1<<uint(e)) == 0 {
				continue
			}
			shift := mctables.EdgeShifts[e]
			ownerBlock, lx, ly, lz, ok := neighborVoxel(r, xv+shift.DX, yv+shift.DY, zv+shift.DZ, nbIdx, nbMask, kk)
			if !ok {
				continue
			}
			ownerK := invIndices[ownerBlock]
			if ownerK < 0 {
				continue
			}
			ms.SetEdgeSlot(int(ownerK), lx, ly, lz, shift.LocalAxis, -1)
		}
	})

	vbuf := make([]float32, int(args.Capacity)*3)
	nbuf := make([]float32, int(args.Capacity)*3)
	var counter launch.AtomicCounter

	// Pass 1: vertex allocation and normals.
	launch.ParallelFor(n, func(workloadIdx int) {
		kk := workloadIdx / (r * r * r)
		voxelIdx := workloadIdx % (r * r * r)
		blockIdx := int32(indices[kk])
		xv, yv, zv := indexer.VoxelLocalCoord(voxelIdx, r)

		e0 := ms.EdgeSlot(kk, xv, yv, zv, 0)
		e1 := ms.EdgeSlot(kk, xv, yv, zv, 1)
		e2 := ms.EdgeSlot(kk, xv, yv, zv, 2)
		if e0 != -1 && e1 != -1 && e2 != -1 {
			return
		}

		xb, yb, zb := blockKeys[blockIdx*3], blockKeys[blockIdx*3+1], blockKeys[blockIdx*3+2]
		worldX := float32(xb*int64(r) + int64(xv))
		worldY := float32(yb*int64(r) + int64(yv))
		worldZ := float32(zb*int64(r) + int64(zv))

		tsdfO, wO := bv.Load(blockIdx, xv, yv, zv)
		if wO <= 0 {
			return
		}
		nO := mc.normal(kk, xv, yv, zv, args.FixCentralDifferenceTypo)

		slots := [3]int32{e0, e1, e2}
		for axis := 0; axis < 3; axis++ {
			if slots[axis] != -1 {
				continue
			}
			nxv, nyv, nzv := xv, yv, zv
			switch axis {
			case 0:
				nxv++
			case 1:
				nyv++
			case 2:
				nzv++
			}
			nbBlock, lx, ly, lz, ok := neighborVoxel(r, nxv, nyv, nzv, nbIdx, nbMask, kk)
			if !ok {
				continue
			}
			tsdfE, wE := bv.Load(nbBlock, lx, ly, lz)
			if wE <= 0 {
				continue
			}

			ratio := tsdfE / (tsdfE - tsdfO)
			slot := counter.FetchAdd(1)
			if slot >= args.Capacity {
				return
			}
			ms.SetEdgeSlot(kk, xv, yv, zv, axis, slot)

			nbK := -1
			if nbBlockK := invIndices[nbBlock]; nbBlockK >= 0 {
				nbK = int(nbBlockK)
			}
			var nE [3]float32
			if nbK >= 0 {
				nE = mc.normal(nbK, lx, ly, lz, args.FixCentralDifferenceTypo)
			}

			blended := [3]float32{
				ratio*nO[0] + (1-ratio)*nE[0],
				ratio*nO[1] + (1-ratio)*nE[1],
				ratio*nO[2] + (1-ratio)*nE[2],
			}
			blended = normalizeVec3(blended)

			unit := axisUnit[axis]
			frac := 1 - ratio
			vbuf[slot*3] = args.VoxelSize * (worldX + frac*unit[0])
			vbuf[slot*3+1] = args.VoxelSize * (worldY + frac*unit[1])
			vbuf[slot*3+2] = args.VoxelSize * (worldZ + frac*unit[2])
			nbuf[slot*3] = blended[0]
			nbuf[slot*3+1] = blended[1]
			nbuf[slot*3+2] = blended[2]
		}
	})

	realized := counter.Load()
	if realized > args.Capacity {
		realized = args.Capacity
	}
	vOut := tensor.FromFloat32(vbuf, int(args.Capacity), 3).Slice3(int(realized))
	nOut := tensor.FromFloat32(nbuf, int(args.Capacity), 3).Slice3(int(realized))
	return vOut, nOut, realized, nil
}
