package kernel

// EstimateCapacity returns the output-buffer row bound for SurfaceExtraction
// or MarchingCubes: at most 3 points per voxel, capped by cap (spec.md §3,
// §7c; the cap default lives in config.OutputCapCap, spec.md §9 open
// question).
func EstimateCapacity(numSelectedBlocks int, resolution int64, cap int32) int32 {
	n := int64(numSelectedBlocks) * resolution * resolution * resolution * 3
	if n > int64(cap) {
		return cap
	}
	return int32(n)
}
