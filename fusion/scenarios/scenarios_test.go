package scenarios

import "testing"

func TestPlaneIsConstantDepth(t *testing.T) {
	depth := Plane(4, 4, 1.5, 1000)
	data := depth.F32()
	want := float32(1500)
	for i, v := range data {
		if v != want {
			t.Fatalf("Plane depth[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestSphereHitsNearCenterPixel(t *testing.T) {
	const h, w = 50, 50
	depth := Sphere(h, w, 100, 100, 25, 25, 0, 0, 2, 0.5, 1000)
	data := depth.F32()
	center := data[25*w+25]
	if center == 0 {
		t.Fatal("Sphere depth at the center pixel is 0, want a hit near the nearest point of the sphere")
	}
	// Nearest point of a sphere centered at z=2 with radius 0.5 is at z=1.5m.
	wantMeters := float32(1.5)
	got := center / 1000
	if d := got - wantMeters; d > 0.05 || d < -0.05 {
		t.Errorf("center depth = %vm, want close to %vm", got, wantMeters)
	}
}

func TestSphereMissesCornerPixel(t *testing.T) {
	const h, w = 50, 50
	depth := Sphere(h, w, 100, 100, 25, 25, 0, 0, 2, 0.1, 1000)
	data := depth.F32()
	if data[0] != 0 {
		t.Errorf("corner pixel depth = %v, want 0 (a small sphere should not cover the image corner)", data[0])
	}
}

func TestIdentityExtrinsicsIsTheIdentityMatrix(t *testing.T) {
	e := IdentityExtrinsics().F32()
	want := []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	for i, v := range want {
		if e[i] != v {
			t.Errorf("IdentityExtrinsics()[%d] = %v, want %v", i, e[i], v)
		}
	}
}
