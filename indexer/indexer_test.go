package indexer

import "testing"

func TestWorkloadCoordRoundTrip(t *testing.T) {
	idx := New([]int{4, 5}, 4)
	for w := 0; w < 20; w++ {
		c := idx.WorkloadToCoord(w)
		got := idx.CoordToWorkload(c[0], c[1])
		if got != w {
			t.Errorf("workload %d round-tripped to %d via coord %v", w, got, c)
		}
	}
}

func TestInBoundary(t *testing.T) {
	idx := New([]int{10, 20}, 1) // height 10, width 20
	cases := []struct {
		u, v float32
		want bool
	}{
		{0, 0, true},
		{19, 9, true},
		{19.9, 9.9, true},
		{20, 5, false},
		{5, 10, false},
		{-1, 5, false},
	}
	for _, c := range cases {
		if got := idx.InBoundary(c.u, c.v); got != c.want {
			t.Errorf("InBoundary(%v, %v) = %v, want %v", c.u, c.v, got, c.want)
		}
	}
}

func TestVoxelLocalCoordRoundTrip(t *testing.T) {
	const r = 8
	for voxelIdx := 0; voxelIdx < r*r*r; voxelIdx++ {
		x, y, z := VoxelLocalCoord(voxelIdx, r)
		if x < 0 || x >= r || y < 0 || y >= r || z < 0 || z >= r {
			t.Fatalf("VoxelLocalCoord(%d) = (%d,%d,%d) out of [0,%d)", voxelIdx, x, y, z, r)
		}
		if got := VoxelLocalIndex(x, y, z, r); got != voxelIdx {
			t.Errorf("VoxelLocalIndex(%d,%d,%d) = %d, want %d", x, y, z, got, voxelIdx)
		}
	}
}

func TestVoxelLocalCoordXFastestVarying(t *testing.T) {
	x0, y0, z0 := VoxelLocalCoord(0, 8)
	x1, y1, z1 := VoxelLocalCoord(1, 8)
	if x0 != 0 || y0 != 0 || z0 != 0 {
		t.Fatalf("VoxelLocalCoord(0) = (%d,%d,%d), want (0,0,0)", x0, y0, z0)
	}
	if x1 != 1 || y1 != 0 || z1 != 0 {
		t.Fatalf("VoxelLocalCoord(1) = (%d,%d,%d), want (1,0,0)", x1, y1, z1)
	}
}
