// Package transform implements the TransformIndexer primitive: rigid
// extrinsics transform and pinhole intrinsics projection/unprojection,
// in either voxel or metric units. Built on mathgl, the same vector/matrix
// library the teacher's own camera code (renderer_gl.go) uses for view and
// projection matrices.
package transform

import "github.com/go-gl/mathgl/mgl32"

// Indexer holds pinhole intrinsics and a rigid extrinsics transform
// (world -> camera), plus the voxel size used to scale voxel-unit
// coordinates to metric before applying extrinsics.
type Indexer struct {
	Fx, Fy, Cx, Cy float32
	Extrinsics     mgl32.Mat4 // world -> camera 4x4, stored column-major as mgl32 expects (bottom row [0 0 0 1])
	VoxelSize      float32
}

// NewFromFlat builds an Indexer from a row-major 3x3 intrinsics matrix and
// a row-major 4x4 extrinsics matrix, both as flat slices, per spec.md §3's
// tensor layout.
func NewFromFlat(intrinsics3x3 []float32, extrinsics4x4 []float32, voxelSize float32) *Indexer {
	if len(intrinsics3x3) != 9 {
		panic("transform: intrinsics must be a flat 3x3 (9 elements)")
	}
	if len(extrinsics4x4) != 16 {
		panic("transform: extrinsics must be a flat 4x4 (16 elements)")
	}
	var m mgl32.Mat4
	// mgl32.Mat4 is column-major internally; extrinsics4x4 is supplied
	// row-major, so transpose on the way in.
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[c*4+r] = extrinsics4x4[r*4+c]
		}
	}
	return &Indexer{
		Fx:         intrinsics3x3[0],
		Fy:         intrinsics3x3[4],
		Cx:         intrinsics3x3[2],
		Cy:         intrinsics3x3[5],
		Extrinsics: m,
		VoxelSize:  voxelSize,
	}
}

// RigidTransform applies the extrinsics to a point already expressed in
// metric/camera-scale world coordinates.
func (t *Indexer) RigidTransform(x, y, z float32) (xc, yc, zc float32) {
	p := t.Extrinsics.Mul4x1(mgl32.Vec4{x, y, z, 1})
	return p[0], p[1], p[2]
}

// VoxelToCamera scales a voxel-unit world coordinate to metric by
// VoxelSize before applying extrinsics, per spec.md §4.2.
func (t *Indexer) VoxelToCamera(xv, yv, zv float32) (xc, yc, zc float32) {
	return t.RigidTransform(xv*t.VoxelSize, yv*t.VoxelSize, zv*t.VoxelSize)
}

// Project maps a camera-space point to pixel coordinates via the pinhole
// model. Undefined for zc <= 0; callers must check first.
func (t *Indexer) Project(xc, yc, zc float32) (u, v float32) {
	u = t.Fx*xc/zc + t.Cx
	v = t.Fy*yc/zc + t.Cy
	return
}

// Unproject maps a pixel coordinate plus depth to a camera-space point.
func (t *Indexer) Unproject(x, y, d float32) (xc, yc, zc float32) {
	xc = (x - t.Cx) * d / t.Fx
	yc = (y - t.Cy) * d / t.Fy
	zc = d
	return
}
