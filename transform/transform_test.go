package transform

import "testing"

func identityExtrinsics() []float32 {
	return []float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func intrinsics(fx, fy, cx, cy float32) []float32 {
	return []float32{
		fx, 0, cx,
		0, fy, cy,
		0, 0, 1,
	}
}

func approxEqual(a, b float32) bool {
	const eps = 1e-4
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func TestProjectUnprojectRoundTrip(t *testing.T) {
	xf := NewFromFlat(intrinsics(100, 100, 50, 50), identityExtrinsics(), 1)
	xc, yc, zc := xf.Unproject(30, 70, 2.5)
	u, v := xf.Project(xc, yc, zc)
	if !approxEqual(u, 30) || !approxEqual(v, 70) {
		t.Errorf("Project(Unproject(30,70,2.5)) = (%v,%v), want (30,70)", u, v)
	}
	if !approxEqual(zc, 2.5) {
		t.Errorf("Unproject zc = %v, want 2.5", zc)
	}
}

func TestIdentityExtrinsicsIsNoOp(t *testing.T) {
	xf := NewFromFlat(intrinsics(100, 100, 50, 50), identityExtrinsics(), 1)
	xc, yc, zc := xf.RigidTransform(1, 2, 3)
	if xc != 1 || yc != 2 || zc != 3 {
		t.Errorf("RigidTransform(1,2,3) under identity = (%v,%v,%v), want (1,2,3)", xc, yc, zc)
	}
}

func TestVoxelToCameraScalesByVoxelSize(t *testing.T) {
	xf := NewFromFlat(intrinsics(100, 100, 50, 50), identityExtrinsics(), 0.01)
	xc, yc, zc := xf.VoxelToCamera(10, 20, 30)
	if !approxEqual(xc, 0.1) || !approxEqual(yc, 0.2) || !approxEqual(zc, 0.3) {
		t.Errorf("VoxelToCamera(10,20,30) at voxel_size=0.01 = (%v,%v,%v), want (0.1,0.2,0.3)", xc, yc, zc)
	}
}

func TestTranslationExtrinsics(t *testing.T) {
	e := identityExtrinsics()
	e[3], e[7], e[11] = 5, -2, 1 // row-major translation column
	xf := NewFromFlat(intrinsics(100, 100, 50, 50), e, 1)
	xc, yc, zc := xf.RigidTransform(0, 0, 0)
	if !approxEqual(xc, 5) || !approxEqual(yc, -2) || !approxEqual(zc, 1) {
		t.Errorf("RigidTransform(0,0,0) under translation = (%v,%v,%v), want (5,-2,1)", xc, yc, zc)
	}
}
