package kernel

import (
	"testing"

	"tsdffusion/blockhash"
	"tsdffusion/tensor"
)

func TestTouchDilatesToFullNeighborhood(t *testing.T) {
	points := tensor.FromFloat32([]float32{0.05, 0.05, 0.05}, 1, 3) // voxel_size*resolution = 0.08, so block (0,0,0)
	args := &TouchArgs{Points: points, VoxelSize: 0.01, Resolution: 8}

	out, err := Touch(args)
	if err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if out.Shape[0] != 27 {
		t.Fatalf("Touch() produced %d rows for a single point, want 27 (one block x full dilation)", out.Shape[0])
	}

	seen := make(map[blockhash.Key]bool)
	data := out.I64()
	for i := 0; i < 27; i++ {
		k := blockhash.Key{data[i*3], data[i*3+1], data[i*3+2]}
		seen[k] = true
	}
	if len(seen) != 27 {
		t.Fatalf("got %d distinct neighbor keys, want 27", len(seen))
	}
	if !seen[(blockhash.Key{0, 0, 0})] {
		t.Error("dilation set does not include the point's own block")
	}
	if !seen[(blockhash.Key{1, 1, 1})] {
		t.Error("dilation set does not include the (1,1,1) neighbor")
	}
}

func TestTouchDedupesPointsInSameBlock(t *testing.T) {
	points := tensor.FromFloat32([]float32{
		0.01, 0.01, 0.01,
		0.02, 0.02, 0.02,
	}, 2, 3)
	args := &TouchArgs{Points: points, VoxelSize: 0.01, Resolution: 8}

	out, err := Touch(args)
	if err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if out.Shape[0] != 27 {
		t.Errorf("Touch() with two points in the same block produced %d rows, want 27 (deduped to one block)", out.Shape[0])
	}
}

func TestTouchHandlesNegativeCoordinates(t *testing.T) {
	// -0.001 is just south-west of the origin; must bucket into block
	// (-1,-1,-1), not (0,0,0), under floor-division semantics.
	points := tensor.FromFloat32([]float32{-0.001, -0.001, -0.001}, 1, 3)
	args := &TouchArgs{Points: points, VoxelSize: 0.01, Resolution: 8}

	out, err := Touch(args)
	if err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	data := out.I64()
	foundOwnBlock := false
	for i := 0; i < 27; i++ {
		if data[i*3] == -1 && data[i*3+1] == -1 && data[i*3+2] == -1 {
			foundOwnBlock = true
		}
	}
	if !foundOwnBlock {
		t.Error("negative point did not bucket into block (-1,-1,-1)")
	}
}
