package kernel

import (
	"tsdffusion/indexer"
	"tsdffusion/launch"
	"tsdffusion/tensor"
	"tsdffusion/transform"
)

// IntegrateArgs are the typed arguments for the Integrate kernel
// (spec.md §4.6). BlockValues is mutated in place.
type IntegrateArgs struct {
	Depth       *tensor.Tensor // H x W, float32
	Indices     *tensor.Tensor // K, int64 — into the block pool
	BlockKeys   *tensor.Tensor // B x 3, int64
	Intrinsics  *tensor.Tensor // 3x3, float32
	Extrinsics  *tensor.Tensor // 4x4, float32
	Resolution  int64
	VoxelSize   float32
	SDFTrunc    float32
	DepthScale  float32
	BlockValues *tensor.Tensor // B x R x R x R x 2, float32, mutated
}

// Integrate fuses one depth frame into the subset of allocated blocks
// named by Indices. Each workload owns a unique (block, voxel) cell, so
// the read-modify-write of tsdf/weight is race-free without atomics
// provided Indices has no duplicates (spec.md §4.6 concurrency note).
func Integrate(args IntegrateArgs) error {
	r := int(args.Resolution)
	k := args.Indices.Shape[0]
	n := k * r * r * r

	depthShape := args.Depth.Shape
	img := indexer.New([]int{depthShape[0], depthShape[1]}, 1)
	depth := args.Depth.F32()

	indices := args.Indices.I64()
	blockKeys := args.BlockKeys.I64()
	bv := newBlockValues(args.BlockValues.F32(), r)

	xf := transform.NewFromFlat(args.Intrinsics.F32(), args.Extrinsics.F32(), args.VoxelSize)

	launch.ParallelFor(n, func(workloadIdx int) {
		kk := workloadIdx / (r * r * r)
		voxelIdx := workloadIdx % (r * r * r)
		blockIdx := int32(indices[kk])

		xb, yb, zb := blockKeys[blockIdx*3], blockKeys[blockIdx*3+1], blockKeys[blockIdx*3+2]
		xv, yv, zv := indexer.VoxelLocalCoord(voxelIdx, r)

		x := xb*int64(r) + int64(xv)
		y := yb*int64(r) + int64(yv)
		z := zb*int64(r) + int64(zv)

		xc, yc, zc := xf.VoxelToCamera(float32(x), float32(y), float32(z))
		if zc <= 0 {
			return
		}
		u, v := xf.Project(xc, yc, zc)
		if !img.InBoundary(u, v) {
			return
		}

		pixel := img.CoordToWorkload(int(v), int(u))
		depthSample := depth[pixel] / args.DepthScale
		if depthSample <= 0 {
			return
		}

		sdf := depthSample - zc
		if sdf < -args.SDFTrunc {
			return
		}
		if sdf > args.SDFTrunc {
			sdf = args.SDFTrunc
		}
		sdf /= args.SDFTrunc

		tsdf, w := bv.Load(blockIdx, xv, yv, zv)
		newTSDF := (w*tsdf + sdf) / (w + 1)
		bv.Store(blockIdx, xv, yv, zv, newTSDF, w+1)
	})
	return nil
}
