// Package config holds the typed fusion configuration — resolution,
// voxel size, truncation, depth scale/max, output capacity caps, server
// port — loadable from a YAML file or environment variables via Viper
// (no command-line flag layer), grounded on the teacher's settings.go (JSON-only, single struct,
// no env/flag layering).
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Fusion holds every tunable the kernel package and fusion.Pipeline need.
// Defaults match spec.md §9's end-to-end scenario parameters.
type Fusion struct {
	Resolution int64   `mapstructure:"resolution"`
	VoxelSize  float32 `mapstructure:"voxel_size"`
	SDFTrunc   float32 `mapstructure:"sdf_trunc"`
	DepthScale float32 `mapstructure:"depth_scale"`
	DepthMax   float32 `mapstructure:"depth_max"`

	ImageHeight int `mapstructure:"image_height"`
	ImageWidth  int `mapstructure:"image_width"`
	Fx          float32 `mapstructure:"fx"`
	Fy          float32 `mapstructure:"fy"`
	Cx          float32 `mapstructure:"cx"`
	Cy          float32 `mapstructure:"cy"`

	// OutputCapCap bounds SurfaceExtraction/MarchingCubes output buffers
	// regardless of K*R^3*3 (spec.md §9 open question), so a pathological
	// frame can't allocate an unbounded host buffer.
	OutputCapCap int32 `mapstructure:"output_cap_cap"`

	// BlockPoolCapacity is the fixed number of blocks the hash map can
	// address (spec.md §1's external Activate contract).
	BlockPoolCapacity int32 `mapstructure:"block_pool_capacity"`

	// FixCentralDifferenceTypo switches MarchingCubes normal computation
	// to the corrected central difference (spec.md §9 Open Questions);
	// default false preserves the carried-forward xvs[1] substitution.
	FixCentralDifferenceTypo bool `mapstructure:"fix_central_difference_typo"`

	ServerPort int `mapstructure:"server_port"`
}

// Defaults returns the spec.md §9 scenario configuration: R=8,
// voxel_size=0.01, sdf_trunc=0.04, fx=fy=100, cx=cy=50, 100x100 image.
func Defaults() Fusion {
	return Fusion{
		Resolution:   8,
		VoxelSize:    0.01,
		SDFTrunc:     0.04,
		DepthScale:   1000.0,
		DepthMax:     3.0,
		ImageHeight:  100,
		ImageWidth:   100,
		Fx:           100,
		Fy:           100,
		Cx:           50,
		Cy:           50,
		OutputCapCap: 10_000_000,
		BlockPoolCapacity: 10000,
		ServerPort:   8080,
	}
}

// Load builds a Viper instance layering, highest priority first:
// environment variables prefixed TSDFFUSION_, an optional YAML file at
// path, and the scenario defaults. No command-line flags are bound.
// An empty path skips the file layer (defaults + env only).
func Load(path string) (Fusion, error) {
	v := viper.New()
	defaults := Defaults()
	v.SetDefault("resolution", defaults.Resolution)
	v.SetDefault("voxel_size", defaults.VoxelSize)
	v.SetDefault("sdf_trunc", defaults.SDFTrunc)
	v.SetDefault("depth_scale", defaults.DepthScale)
	v.SetDefault("depth_max", defaults.DepthMax)
	v.SetDefault("image_height", defaults.ImageHeight)
	v.SetDefault("image_width", defaults.ImageWidth)
	v.SetDefault("fx", defaults.Fx)
	v.SetDefault("fy", defaults.Fy)
	v.SetDefault("cx", defaults.Cx)
	v.SetDefault("cy", defaults.Cy)
	v.SetDefault("output_cap_cap", defaults.OutputCapCap)
	v.SetDefault("block_pool_capacity", defaults.BlockPoolCapacity)
	v.SetDefault("fix_central_difference_typo", defaults.FixCentralDifferenceTypo)
	v.SetDefault("server_port", defaults.ServerPort)

	v.SetEnvPrefix("TSDFFUSION")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Fusion{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Fusion
	if err := v.Unmarshal(&cfg); err != nil {
		return Fusion{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
