package config

import "testing"

func TestDefaultsMatchesScenarioParameters(t *testing.T) {
	d := Defaults()
	cases := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Resolution", d.Resolution, int64(8)},
		{"VoxelSize", d.VoxelSize, float32(0.01)},
		{"SDFTrunc", d.SDFTrunc, float32(0.04)},
		{"DepthScale", d.DepthScale, float32(1000.0)},
		{"DepthMax", d.DepthMax, float32(3.0)},
		{"ImageHeight", d.ImageHeight, 100},
		{"ImageWidth", d.ImageWidth, 100},
		{"Fx", d.Fx, float32(100)},
		{"Cy", d.Cy, float32(50)},
		{"FixCentralDifferenceTypo", d.FixCentralDifferenceTypo, false},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("Defaults().%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadWithNoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	d := Defaults()
	if cfg != d {
		t.Errorf("Load(\"\") = %+v, want defaults %+v", cfg, d)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load("/nonexistent/path/tsdffusion.yaml"); err == nil {
		t.Fatal("Load() with a nonexistent file returned nil error, want a config error")
	}
}
