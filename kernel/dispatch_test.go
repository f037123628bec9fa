package kernel

import (
	"errors"
	"testing"

	"tsdffusion/tensor"
)

func TestExecuteMissingKeyReturnsContractError(t *testing.T) {
	cases := []struct {
		name string
		op   OpCode
		srcs map[string]*tensor.Tensor
		dsts map[string]*tensor.Tensor
	}{
		{"Unproject", OpUnproject, map[string]*tensor.Tensor{}, map[string]*tensor.Tensor{}},
		{"TSDFTouch", TSDFTouch, map[string]*tensor.Tensor{}, map[string]*tensor.Tensor{}},
		{"TSDFIntegrate", TSDFIntegrate, map[string]*tensor.Tensor{}, map[string]*tensor.Tensor{}},
		{"TSDFSurfaceExtraction", TSDFSurfaceExtraction, map[string]*tensor.Tensor{}, map[string]*tensor.Tensor{}},
		{"MarchingCubes", OpMarchingCubes, map[string]*tensor.Tensor{}, map[string]*tensor.Tensor{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Execute(c.srcs, c.dsts, c.op)
			var ce *ContractError
			if !errors.As(err, &ce) {
				t.Fatalf("Execute(%s) with empty srcs/dsts error = %v, want *ContractError", c.name, err)
			}
		})
	}
}

func TestExecuteUnprojectMissingDstReturnsContractError(t *testing.T) {
	srcs := map[string]*tensor.Tensor{
		"depth":       tensor.FromFloat32([]float32{0}, 1, 1),
		"intrinsics":  flatIntrinsics(100, 100, 50, 50),
		"depth_scale": tensor.FromFloat32([]float32{1000}, 1),
		"depth_max":   tensor.FromFloat32([]float32{3}, 1),
	}
	err := Execute(srcs, map[string]*tensor.Tensor{}, OpUnproject)
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("Execute(Unproject) with no vertex_map dst error = %v, want *ContractError", err)
	}
	if ce.Key != "vertex_map" {
		t.Errorf("ContractError.Key = %q, want %q", ce.Key, "vertex_map")
	}
}

func TestExecuteUnprojectSucceedsWithAllKeysPresent(t *testing.T) {
	vmap := tensor.NewFloat32(1, 1, 3)
	srcs := map[string]*tensor.Tensor{
		"depth":       tensor.FromFloat32([]float32{2000}, 1, 1),
		"intrinsics":  flatIntrinsics(100, 100, 0, 0),
		"depth_scale": tensor.FromFloat32([]float32{1000}, 1),
		"depth_max":   tensor.FromFloat32([]float32{3}, 1),
	}
	dsts := map[string]*tensor.Tensor{"vertex_map": vmap}

	if err := Execute(srcs, dsts, OpUnproject); err != nil {
		t.Fatalf("Execute(Unproject) error = %v", err)
	}
	if vmap.F32()[2] != 2 {
		t.Errorf("vertex_map zc = %v, want 2", vmap.F32()[2])
	}
}

func TestExecuteUnprojectWrongDTypeReturnsContractError(t *testing.T) {
	srcs := map[string]*tensor.Tensor{
		"depth":       tensor.FromInt64([]int64{0}, 1, 1), // wrong dtype: want float32
		"intrinsics":  flatIntrinsics(100, 100, 50, 50),
		"depth_scale": tensor.FromFloat32([]float32{1000}, 1),
		"depth_max":   tensor.FromFloat32([]float32{3}, 1),
	}
	dsts := map[string]*tensor.Tensor{"vertex_map": tensor.NewFloat32(1, 1, 3)}

	err := Execute(srcs, dsts, OpUnproject)
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("Execute(Unproject) with int64 depth error = %v, want *ContractError", err)
	}
	if ce.Key != "depth" {
		t.Errorf("ContractError.Key = %q, want %q", ce.Key, "depth")
	}
}

func TestExecuteIntegrateWrongRankReturnsContractError(t *testing.T) {
	srcs := map[string]*tensor.Tensor{
		"depth":       tensor.FromFloat32([]float32{0}, 1, 1),
		"indices":     tensor.FromInt64([]int64{0}, 1),
		"block_keys":  tensor.FromInt64([]int64{0, 0, 0}, 1, 3),
		"intrinsics":  flatIntrinsics(100, 100, 50, 50),
		"extrinsics":  tensor.FromFloat32(make([]float32, 16), 4, 4),
		"resolution":  tensor.FromInt64([]int64{4}, 1),
		"voxel_size":  tensor.FromFloat32([]float32{0.1}, 1),
		"sdf_trunc":   tensor.FromFloat32([]float32{0.1}, 1),
		"depth_scale": tensor.FromFloat32([]float32{1}), // wrong rank: want 1, got 0
	}
	dsts := map[string]*tensor.Tensor{"block_values": tensor.NewFloat32(1, 4, 4, 4, 2)}

	err := Execute(srcs, dsts, TSDFIntegrate)
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("Execute(TSDFIntegrate) with rank-0 depth_scale error = %v, want *ContractError", err)
	}
	if ce.Key != "depth_scale" {
		t.Errorf("ContractError.Key = %q, want %q", ce.Key, "depth_scale")
	}
}

func TestExecuteRayCastingIsANoOp(t *testing.T) {
	if err := Execute(nil, nil, RayCasting); err != nil {
		t.Errorf("Execute(RayCasting) error = %v, want nil", err)
	}
}

func TestExecuteDebugLaunchesWithoutError(t *testing.T) {
	if err := Execute(nil, nil, OpDebug); err != nil {
		t.Errorf("Execute(Debug) error = %v, want nil", err)
	}
}

func TestExecuteUnknownOpcodeIsIgnored(t *testing.T) {
	if err := Execute(nil, nil, OpCode(999)); err != nil {
		t.Errorf("Execute(unknown opcode) error = %v, want nil", err)
	}
}
