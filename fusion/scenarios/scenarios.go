// Package scenarios generates synthetic depth frames for spec.md §8's
// end-to-end scenarios (a single fronto-parallel plane, and a sphere),
// reusable from both package tests and cmd/tsdffusiond's bench
// subcommand.
package scenarios

import (
	"math"

	"tsdffusion/tensor"
)

// Intrinsics returns the flattened row-major 3x3 pinhole intrinsics
// matrix matching spec.md §9's scenario parameters.
func Intrinsics(fx, fy, cx, cy float32) *tensor.Tensor {
	return tensor.FromFloat32([]float32{
		fx, 0, cx,
		0, fy, cy,
		0, 0, 1,
	}, 3, 3)
}

// IdentityExtrinsics returns the flattened row-major 4x4 identity
// transform (camera at the world origin, looking down +z).
func IdentityExtrinsics() *tensor.Tensor {
	return tensor.FromFloat32([]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}, 4, 4)
}

// Plane generates a depth frame of a fronto-parallel plane at constant
// depth z (in meters, already pre-scaled by depthScale when stored), a
// resolution h x w, and millimeter-style integer encoding via depthScale.
func Plane(h, w int, z, depthScale float32) *tensor.Tensor {
	data := make([]float32, h*w)
	for i := range data {
		data[i] = z * depthScale
	}
	return tensor.FromFloat32(data, h, w)
}

// Sphere generates a depth frame of a sphere of the given radius centered
// at (cx0, cy0, cz0) in camera space, viewed by a pinhole camera with the
// given intrinsics; pixels that miss the sphere get depth 0.
func Sphere(h, w int, fx, fy, cx, cy, cx0, cy0, cz0, radius, depthScale float32) *tensor.Tensor {
	data := make([]float32, h*w)
	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			// Ray direction in camera space for pixel (u,v), z=1 plane.
			dx := (float32(u) - cx) / fx
			dy := (float32(v) - cy) / fy
			dz := float32(1)

			// Solve |t*(dx,dy,dz) - (cx0,cy0,cz0)|^2 = radius^2 for the
			// smaller positive root (the near intersection).
			ox, oy, oz := -cx0, -cy0, -cz0
			a := dx*dx + dy*dy + dz*dz
			b := 2 * (dx*ox + dy*oy + dz*oz)
			c := ox*ox + oy*oy + oz*oz - radius*radius
			disc := b*b - 4*a*c
			if disc < 0 {
				continue
			}
			sq := float32(math.Sqrt(float64(disc)))
			t := (-b - sq) / (2 * a)
			if t <= 0 {
				continue
			}
			zc := t * dz
			data[v*w+u] = zc * depthScale
		}
	}
	return tensor.FromFloat32(data, h, w)
}
