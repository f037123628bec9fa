package kernel

import (
	"tsdffusion/blockhash"
	"tsdffusion/tensor"
)

// TouchArgs are the typed arguments for the Touch kernel (spec.md §4.5).
type TouchArgs struct {
	Points      *tensor.Tensor // N x 3, float32
	VoxelSize   float32
	Resolution  int64
	BlockCoords *tensor.Tensor // set by Touch: 27*M x 3, int64
}

// dilationOffsets is the 27-neighborhood in the flattened order
// nb = (dx+1) + 3(dy+1) + 9(dz+1), so index 13 is the zero offset.
var dilationOffsets = func() [27][3]int64 {
	var offs [27][3]int64
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				offs[blockhash.NeighborFlatIndex(dx, dy, dz)] = [3]int64{int64(dx), int64(dy), int64(dz)}
			}
		}
	}
	return offs
}()

// Touch converts a point cloud into the set of candidate block keys
// (spec.md §4.5): points are bucketed into block coordinates, deduplicated
// via a transient hash insert, then dilated by the full 27-neighborhood so
// that fusion and mesh extraction can always reach the +/-1 neighborhood
// of any observed voxel. Returns the populated BlockCoords tensor (also
// written into args.BlockCoords).
func Touch(args *TouchArgs) (*tensor.Tensor, error) {
	blockSize := args.VoxelSize * float32(args.Resolution)
	points := args.Points.F32()
	n := args.Points.Shape[0]

	seen := make(map[blockhash.Key]struct{}, n)
	unique := make([]blockhash.Key, 0, n)
	for i := 0; i < n; i++ {
		px, py, pz := points[i*3], points[i*3+1], points[i*3+2]
		k := blockhash.Key{
			int64(floorDiv32(px, blockSize)),
			int64(floorDiv32(py, blockSize)),
			int64(floorDiv32(pz, blockSize)),
		}
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			unique = append(unique, k)
		}
	}

	m := len(unique)
	out := make([]int64, 27*m*3)
	for i, k := range unique {
		for nb := 0; nb < 27; nb++ {
			off := dilationOffsets[nb]
			row := nb*m + i
			out[row*3] = k[0] + off[0]
			out[row*3+1] = k[1] + off[1]
			out[row*3+2] = k[2] + off[2]
		}
	}

	result := tensor.FromInt64(out, 27*m, 3)
	args.BlockCoords = result
	return result, nil
}

// floorDiv32 computes floor(x/size) for positive size, matching Python's
// floor-division semantics for negative coordinates (points south-west of
// the origin still bucket correctly).
func floorDiv32(x, size float32) float64 {
	q := float64(x) / float64(size)
	return floorFloat64(q)
}

func floorFloat64(x float64) float64 {
	i := float64(int64(x))
	if i > x {
		i--
	}
	return i
}
