package kernel

import (
	"tsdffusion/indexer"
	"tsdffusion/launch"
	"tsdffusion/tensor"
	"tsdffusion/transform"
)

// UnprojectArgs are the typed arguments for the Unproject kernel,
// mirroring the REDESIGN FLAGS suggestion in spec.md §9 to replace the
// stringly-typed srcs/dsts maps with a tagged struct per op.
type UnprojectArgs struct {
	Depth       *tensor.Tensor // H x W, float32
	Intrinsics  *tensor.Tensor // 3x3, float32
	DepthScale  float32
	DepthMax    float32
	VertexMap   *tensor.Tensor // H x W x 3, float32, written in place
}

// Unproject converts a depth image into a per-pixel 3D vertex map
// (spec.md §4.4). d == 0 (including clipped-far-plane pixels) maps to
// vertex (0,0,0).
func Unproject(args UnprojectArgs) error {
	shape := args.Depth.Shape
	h, w := shape[0], shape[1]
	depth := args.Depth.F32()
	vmap := args.VertexMap.F32()
	img := indexer.New([]int{h, w}, 1)

	xf := transform.Indexer{
		Fx: args.Intrinsics.F32()[0],
		Fy: args.Intrinsics.F32()[4],
		Cx: args.Intrinsics.F32()[2],
		Cy: args.Intrinsics.F32()[5],
	}

	launch.ParallelFor(h*w, func(workloadIdx int) {
		c := img.WorkloadToCoord(workloadIdx)
		y, x := c[0], c[1]

		d := depth[workloadIdx] / args.DepthScale
		if d >= args.DepthMax {
			d = 0
		}

		base := workloadIdx * 3
		if d == 0 {
			vmap[base] = 0
			vmap[base+1] = 0
			vmap[base+2] = 0
			return
		}

		xc, yc, zc := xf.Unproject(float32(x), float32(y), d)
		vmap[base] = xc
		vmap[base+1] = yc
		vmap[base+2] = zc
	})
	return nil
}
