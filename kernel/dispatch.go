package kernel

import (
	"fmt"

	"tsdffusion/launch"
	"tsdffusion/tensor"
)

// launchDebug is the Debug opcode's body: ten empty workloads, enough to
// smoke-test that the launcher fans out and joins correctly without
// exercising any real kernel.
func launchDebug() {
	launch.ParallelFor(10, func(int) {})
}

// Execute is the single dispatch entry point spec.md §6 describes: two
// string-keyed tensor maps (srcs read-only, dsts written) plus an opcode,
// validated against a fixed per-op key table before any kernel runs so
// that a ContractError never leaves partial side effects behind.
//
// Scalar parameters (resolution, voxel size, thresholds, capacities) ride
// along in srcs as single-element tensors, keeping Execute's signature
// uniform across all five kernels rather than growing an ad hoc options
// struct per call site.
func Execute(srcs, dsts map[string]*tensor.Tensor, op OpCode) error {
	switch op {
	case OpUnproject:
		return executeUnproject(srcs, dsts)
	case TSDFTouch:
		return executeTouch(srcs, dsts)
	case TSDFIntegrate:
		return executeIntegrate(srcs, dsts)
	case TSDFSurfaceExtraction:
		return executeSurfaceExtraction(srcs, dsts)
	case OpMarchingCubes:
		return executeMarchingCubes(srcs, dsts)
	case RayCasting:
		return nil // reserved, spec.md §4.9: not yet implemented, contract is a no-op
	case OpDebug:
		launchDebug()
		return nil
	default:
		return nil // unknown opcodes are ignored, not fatal
	}
}

// requireTensor fetches a required src tensor and validates its dtype and
// rank against the shapes documented on each kernel's Args struct
// (spec.md §7a: "missing tensor, wrong dtype, wrong rank" are all
// ContractErrors, named by op and key). Pass rank 0 to skip the rank
// check for a key whose shape legitimately varies (none currently do).
func requireTensor(srcs map[string]*tensor.Tensor, op OpCode, key string, dtype tensor.DType, rank int) (*tensor.Tensor, error) {
	t, ok := srcs[key]
	if !ok || t == nil {
		return nil, missingKey(op, key)
	}
	if t.DType != dtype {
		return nil, wrongShape(op, key, fmt.Sprintf("want dtype %s, got %s", dtype, t.DType))
	}
	if rank > 0 && len(t.Shape) != rank {
		return nil, wrongShape(op, key, fmt.Sprintf("want rank %d, got rank %d", rank, len(t.Shape)))
	}
	return t, nil
}

func requireDst(dsts map[string]*tensor.Tensor, op OpCode, key string, dtype tensor.DType, rank int) (*tensor.Tensor, error) {
	t, ok := dsts[key]
	if !ok || t == nil {
		return nil, missingKey(op, key)
	}
	if t.DType != dtype {
		return nil, wrongShape(op, key, fmt.Sprintf("want dtype %s, got %s", dtype, t.DType))
	}
	if rank > 0 && len(t.Shape) != rank {
		return nil, wrongShape(op, key, fmt.Sprintf("want rank %d, got rank %d", rank, len(t.Shape)))
	}
	return t, nil
}

func executeUnproject(srcs, dsts map[string]*tensor.Tensor) error {
	const op = OpUnproject
	depth, err := requireTensor(srcs, op, "depth", tensor.Float32, 2)
	if err != nil {
		return err
	}
	intrinsics, err := requireTensor(srcs, op, "intrinsics", tensor.Float32, 2)
	if err != nil {
		return err
	}
	depthScale, err := requireTensor(srcs, op, "depth_scale", tensor.Float32, 1)
	if err != nil {
		return err
	}
	depthMax, err := requireTensor(srcs, op, "depth_max", tensor.Float32, 1)
	if err != nil {
		return err
	}
	vertexMap, err := requireDst(dsts, op, "vertex_map", tensor.Float32, 3)
	if err != nil {
		return err
	}

	return Unproject(UnprojectArgs{
		Depth:      depth,
		Intrinsics: intrinsics,
		DepthScale: depthScale.ScalarFloat32(),
		DepthMax:   depthMax.ScalarFloat32(),
		VertexMap:  vertexMap,
	})
}

func executeTouch(srcs, dsts map[string]*tensor.Tensor) error {
	const op = TSDFTouch
	points, err := requireTensor(srcs, op, "points", tensor.Float32, 2)
	if err != nil {
		return err
	}
	voxelSize, err := requireTensor(srcs, op, "voxel_size", tensor.Float32, 1)
	if err != nil {
		return err
	}
	resolution, err := requireTensor(srcs, op, "resolution", tensor.Int64, 1)
	if err != nil {
		return err
	}

	args := &TouchArgs{
		Points:     points,
		VoxelSize:  voxelSize.ScalarFloat32(),
		Resolution: resolution.ScalarInt64(),
	}
	result, err := Touch(args)
	if err != nil {
		return err
	}
	dsts["block_coords"] = result
	return nil
}

func executeIntegrate(srcs, dsts map[string]*tensor.Tensor) error {
	const op = TSDFIntegrate
	depth, err := requireTensor(srcs, op, "depth", tensor.Float32, 2)
	if err != nil {
		return err
	}
	indices, err := requireTensor(srcs, op, "indices", tensor.Int64, 1)
	if err != nil {
		return err
	}
	blockKeys, err := requireTensor(srcs, op, "block_keys", tensor.Int64, 2)
	if err != nil {
		return err
	}
	intrinsics, err := requireTensor(srcs, op, "intrinsics", tensor.Float32, 2)
	if err != nil {
		return err
	}
	extrinsics, err := requireTensor(srcs, op, "extrinsics", tensor.Float32, 2)
	if err != nil {
		return err
	}
	resolution, err := requireTensor(srcs, op, "resolution", tensor.Int64, 1)
	if err != nil {
		return err
	}
	voxelSize, err := requireTensor(srcs, op, "voxel_size", tensor.Float32, 1)
	if err != nil {
		return err
	}
	sdfTrunc, err := requireTensor(srcs, op, "sdf_trunc", tensor.Float32, 1)
	if err != nil {
		return err
	}
	depthScale, err := requireTensor(srcs, op, "depth_scale", tensor.Float32, 1)
	if err != nil {
		return err
	}
	blockValues, err := requireDst(dsts, op, "block_values", tensor.Float32, 5)
	if err != nil {
		return err
	}

	return Integrate(IntegrateArgs{
		Depth:       depth,
		Indices:     indices,
		BlockKeys:   blockKeys,
		Intrinsics:  intrinsics,
		Extrinsics:  extrinsics,
		Resolution:  resolution.ScalarInt64(),
		VoxelSize:   voxelSize.ScalarFloat32(),
		SDFTrunc:    sdfTrunc.ScalarFloat32(),
		DepthScale:  depthScale.ScalarFloat32(),
		BlockValues: blockValues,
	})
}

func executeSurfaceExtraction(srcs, dsts map[string]*tensor.Tensor) error {
	const op = TSDFSurfaceExtraction
	indices, err := requireTensor(srcs, op, "indices", tensor.Int64, 1)
	if err != nil {
		return err
	}
	nbIndices, err := requireTensor(srcs, op, "nb_indices", tensor.Int64, 2)
	if err != nil {
		return err
	}
	nbMasks, err := requireTensor(srcs, op, "nb_masks", tensor.Bool, 2)
	if err != nil {
		return err
	}
	blockKeys, err := requireTensor(srcs, op, "block_keys", tensor.Int64, 2)
	if err != nil {
		return err
	}
	blockValues, err := requireTensor(srcs, op, "block_values", tensor.Float32, 5)
	if err != nil {
		return err
	}
	voxelSize, err := requireTensor(srcs, op, "voxel_size", tensor.Float32, 1)
	if err != nil {
		return err
	}
	resolution, err := requireTensor(srcs, op, "resolution", tensor.Int64, 1)
	if err != nil {
		return err
	}
	capacity, err := requireTensor(srcs, op, "capacity", tensor.Int64, 1)
	if err != nil {
		return err
	}

	points, count, err := SurfaceExtraction(SurfaceExtractionArgs{
		Indices:     indices,
		NbIndices:   nbIndices,
		NbMasks:     nbMasks,
		BlockKeys:   blockKeys,
		BlockValues: blockValues,
		VoxelSize:   voxelSize.ScalarFloat32(),
		Resolution:  resolution.ScalarInt64(),
		Capacity:    int32(capacity.ScalarInt64()),
	})
	if err != nil {
		return err
	}
	dsts["points"] = points
	dsts["point_count"] = tensor.FromInt64([]int64{int64(count)}, 1)
	return nil
}

func executeMarchingCubes(srcs, dsts map[string]*tensor.Tensor) error {
	const op = OpMarchingCubes
	indices, err := requireTensor(srcs, op, "indices", tensor.Int64, 1)
	if err != nil {
		return err
	}
	invIndices, err := requireTensor(srcs, op, "inv_indices", tensor.Int64, 1)
	if err != nil {
		return err
	}
	nbIndices, err := requireTensor(srcs, op, "nb_indices", tensor.Int64, 2)
	if err != nil {
		return err
	}
	nbMasks, err := requireTensor(srcs, op, "nb_masks", tensor.Bool, 2)
	if err != nil {
		return err
	}
	blockKeys, err := requireTensor(srcs, op, "block_keys", tensor.Int64, 2)
	if err != nil {
		return err
	}
	blockValues, err := requireTensor(srcs, op, "block_values", tensor.Float32, 5)
	if err != nil {
		return err
	}
	voxelSize, err := requireTensor(srcs, op, "voxel_size", tensor.Float32, 1)
	if err != nil {
		return err
	}
	resolution, err := requireTensor(srcs, op, "resolution", tensor.Int64, 1)
	if err != nil {
		return err
	}
	capacity, err := requireTensor(srcs, op, "capacity", tensor.Int64, 1)
	if err != nil {
		return err
	}
	meshStructure, err := requireDst(dsts, op, "mesh_structure", tensor.Int32, 5)
	if err != nil {
		return err
	}

	fixTypo := false
	if t, ok := srcs["fix_central_difference_typo"]; ok && t != nil {
		fixTypo = len(t.Bools()) > 0 && t.Bools()[0]
	}

	vertices, normals, count, err := MarchingCubes(MarchingCubesArgs{
		Indices:                  indices,
		InvIndices:               invIndices,
		NbIndices:                nbIndices,
		NbMasks:                  nbMasks,
		BlockKeys:                blockKeys,
		BlockValues:              blockValues,
		MeshStructure:            meshStructure,
		VoxelSize:                voxelSize.ScalarFloat32(),
		Resolution:               resolution.ScalarInt64(),
		Capacity:                 int32(capacity.ScalarInt64()),
		FixCentralDifferenceTypo: fixTypo,
	})
	if err != nil {
		return err
	}
	dsts["vertices"] = vertices
	dsts["normals"] = normals
	dsts["vertex_count"] = tensor.FromInt64([]int64{int64(count)}, 1)
	return nil
}
