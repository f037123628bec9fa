// Package fusion sequences the five kernel package dispatches across a
// stream of depth frames — Unproject, Touch, (hash) Activate, Integrate,
// and SurfaceExtraction|MarchingCubes — the "higher layer" spec.md §5
// alludes to that owns frame sequencing and may drop pending dispatches
// only at kernel boundaries. The core package never sees a frame loop;
// this package is the first thing that does.
package fusion

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tsdffusion/blockhash"
	"tsdffusion/config"
	"tsdffusion/kernel"
	"tsdffusion/tensor"
)

// FrameStats summarizes one IntegrateFrame call, for logging/benchmarking.
type FrameStats struct {
	SelectedBlocks int
	TouchedBlocks  int32
}

// MeshStats summarizes one ExtractMesh call.
type MeshStats struct {
	VertexCount int32
	Vertices    *tensor.Tensor
	Normals     *tensor.Tensor
}

// PointStats summarizes one ExtractSurface call.
type PointStats struct {
	PointCount int32
	Points     *tensor.Tensor
}

// Pipeline owns the block pool (hash map + backing tensor) across frames
// and calls the kernel package's typed kernel functions once per stage.
type Pipeline struct {
	cfg     config.Fusion
	hash    *blockhash.Map
	values  *tensor.Tensor // capacity x R x R x R x 2, float32
	metrics *metrics
}

// NewPipeline allocates the block pool at cfg.BlockPoolCapacity and wires
// Prometheus metrics into reg (pass nil to skip registration, e.g. in
// tests).
func NewPipeline(cfg config.Fusion, reg prometheus.Registerer) *Pipeline {
	r := int(cfg.Resolution)
	return &Pipeline{
		cfg:     cfg,
		hash:    blockhash.New(cfg.BlockPoolCapacity),
		values:  tensor.NewFloat32(int(cfg.BlockPoolCapacity), r, r, r, 2),
		metrics: newMetrics(reg),
	}
}

func (p *Pipeline) timeKernel(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if p.metrics != nil {
		p.metrics.kernelDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
	return err
}

// IntegrateFrame unprojects depth into a vertex map, touches/activates the
// blocks it falls in plus their 27-neighborhood, and fuses it into the
// block pool.
func (p *Pipeline) IntegrateFrame(depth *tensor.Tensor, intrinsics, extrinsics *tensor.Tensor) (FrameStats, error) {
	h, w := depth.Shape[0], depth.Shape[1]
	vertexMap := tensor.NewFloat32(h, w, 3)

	if err := p.timeKernel("Unproject", func() error {
		return kernel.Unproject(kernel.UnprojectArgs{
			Depth:      depth,
			Intrinsics: intrinsics,
			DepthScale: p.cfg.DepthScale,
			DepthMax:   p.cfg.DepthMax,
			VertexMap:  vertexMap,
		})
	}); err != nil {
		return FrameStats{}, err
	}

	points := nonZeroPoints(vertexMap)
	if len(points) == 0 {
		return FrameStats{}, nil
	}
	pointsTensor := tensor.FromFloat32(points, len(points)/3, 3)

	touchArgs := &kernel.TouchArgs{
		Points:     pointsTensor,
		VoxelSize:  p.cfg.VoxelSize,
		Resolution: p.cfg.Resolution,
	}
	var blockCoords *tensor.Tensor
	if err := p.timeKernel("Touch", func() error {
		var err error
		blockCoords, err = kernel.Touch(touchArgs)
		return err
	}); err != nil {
		return FrameStats{}, err
	}

	keys := tensorKeys(blockCoords)
	addresses, masks := p.hash.Activate(keys)

	selected := uniqueSelectedAddresses(addresses, masks)
	if p.metrics != nil {
		p.metrics.blocksTouched.Add(float64(len(selected)))
	}
	if len(selected) == 0 {
		return FrameStats{}, nil
	}

	indices := tensor.FromInt64(selected, len(selected))
	blockKeysTensor := blockKeysTensor(p.hash)

	if err := p.timeKernel("Integrate", func() error {
		return kernel.Integrate(kernel.IntegrateArgs{
			Depth:       depth,
			Indices:     indices,
			BlockKeys:   blockKeysTensor,
			Intrinsics:  intrinsics,
			Extrinsics:  extrinsics,
			Resolution:  p.cfg.Resolution,
			VoxelSize:   p.cfg.VoxelSize,
			SDFTrunc:    p.cfg.SDFTrunc,
			DepthScale:  p.cfg.DepthScale,
			BlockValues: p.values,
		})
	}); err != nil {
		return FrameStats{}, err
	}

	if kernel.Debug {
		if err := kernel.CheckTSDFRange(p.values.F32()); err != nil {
			return FrameStats{}, err
		}
	}

	return FrameStats{SelectedBlocks: len(selected), TouchedBlocks: p.hash.Len()}, nil
}

// ExtractSurface runs SurfaceExtraction over every currently allocated
// block.
func (p *Pipeline) ExtractSurface() (PointStats, error) {
	indices, nbIndices, nbMasks, blockKeysTensor, _ := p.selectAll()
	if indices == nil {
		return PointStats{}, nil
	}

	k := indices.Shape[0]
	cap := kernel.EstimateCapacity(k, p.cfg.Resolution, p.cfg.OutputCapCap)

	var points *tensor.Tensor
	var count int32
	err := p.timeKernel("SurfaceExtraction", func() error {
		var err error
		points, count, err = kernel.SurfaceExtraction(kernel.SurfaceExtractionArgs{
			Indices:     indices,
			NbIndices:   nbIndices,
			NbMasks:     nbMasks,
			BlockKeys:   blockKeysTensor,
			BlockValues: p.values,
			VoxelSize:   p.cfg.VoxelSize,
			Resolution:  p.cfg.Resolution,
			Capacity:    cap,
		})
		return err
	})
	if err != nil {
		return PointStats{}, err
	}
	if p.metrics != nil {
		p.metrics.pointsEmitted.Add(float64(count))
	}
	return PointStats{PointCount: count, Points: points}, nil
}

// ExtractMesh runs two-pass MarchingCubes over every currently allocated
// block.
func (p *Pipeline) ExtractMesh() (MeshStats, error) {
	indices, nbIndices, nbMasks, blockKeysTensor, invIndices := p.selectAll()
	if indices == nil {
		return MeshStats{}, nil
	}

	if kernel.Debug {
		if err := kernel.CheckInverseIndices(indices.I64(), invIndices.I64()); err != nil {
			return MeshStats{}, err
		}
	}

	k := indices.Shape[0]
	r := int(p.cfg.Resolution)
	cap := kernel.EstimateCapacity(k, p.cfg.Resolution, p.cfg.OutputCapCap)
	meshStructure := newMeshStructureTensor(k, r)

	var vertices, normals *tensor.Tensor
	var count int32
	err := p.timeKernel("MarchingCubes", func() error {
		var err error
		vertices, normals, count, err = kernel.MarchingCubes(kernel.MarchingCubesArgs{
			Indices:                  indices,
			InvIndices:               invIndices,
			NbIndices:                nbIndices,
			NbMasks:                  nbMasks,
			BlockKeys:                blockKeysTensor,
			BlockValues:              p.values,
			MeshStructure:            meshStructure,
			VoxelSize:                p.cfg.VoxelSize,
			Resolution:               p.cfg.Resolution,
			Capacity:                 cap,
			FixCentralDifferenceTypo: p.cfg.FixCentralDifferenceTypo,
		})
		return err
	})
	if err != nil {
		return MeshStats{}, err
	}
	if p.metrics != nil {
		p.metrics.verticesAllocated.Add(float64(count))
	}
	log.Printf("fusion: extracted %d vertices from %d blocks", count, k)
	return MeshStats{VertexCount: count, Vertices: vertices, Normals: normals}, nil
}

// selectAll builds the Indices/NbIndices/NbMasks/BlockKeys/InvIndices
// tensors for every block currently in the pool, the common setup
// ExtractSurface and ExtractMesh both need.
func (p *Pipeline) selectAll() (indices, nbIndices, nbMasks, blockKeysTensor, invIndices *tensor.Tensor) {
	keys := p.hash.BlockKeys()
	b := len(keys)
	if b == 0 {
		return nil, nil, nil, nil, nil
	}

	idx := make([]int64, b)
	inv := make([]int64, b)
	for i := range idx {
		idx[i] = int64(i)
		inv[i] = int64(i)
	}

	nbIdx := make([]int64, 27*b)
	nbMsk := make([]bool, 27*b)
	for i, key := range keys {
		for dz := -1; dz <= 1; dz++ {
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nb := blockhash.NeighborFlatIndex(dx, dy, dz)
					neighborKey := blockhash.NeighborKey(key, int64(dx), int64(dy), int64(dz))
					addrs, masks := p.hash.Find([]blockhash.Key{neighborKey})
					nbIdx[nb*b+i] = int64(addrs[0])
					nbMsk[nb*b+i] = masks[0]
				}
			}
		}
	}

	return tensor.FromInt64(idx, b),
		tensor.FromInt64(nbIdx, 27, b),
		tensor.FromBool(nbMsk, 27, b),
		blockKeysTensor2(keys),
		tensor.FromInt64(inv, b)
}

func newMeshStructureTensor(k, r int) *tensor.Tensor {
	t := tensor.NewInt32(0, k, r, r, r, 4)
	data := t.I32()
	for i := 3; i < len(data); i += 4 {
		data[i] = -1
	}
	return t
}

func nonZeroPoints(vertexMap *tensor.Tensor) []float32 {
	data := vertexMap.F32()
	out := make([]float32, 0, len(data))
	for i := 0; i < len(data); i += 3 {
		x, y, z := data[i], data[i+1], data[i+2]
		if x == 0 && y == 0 && z == 0 {
			continue
		}
		out = append(out, x, y, z)
	}
	return out
}

func tensorKeys(t *tensor.Tensor) []blockhash.Key {
	data := t.I64()
	n := t.Shape[0]
	keys := make([]blockhash.Key, n)
	for i := 0; i < n; i++ {
		keys[i] = blockhash.Key{data[i*3], data[i*3+1], data[i*3+2]}
	}
	return keys
}

func uniqueSelectedAddresses(addresses []int32, masks []bool) []int64 {
	seen := make(map[int32]struct{}, len(addresses))
	out := make([]int64, 0, len(addresses))
	for i, addr := range addresses {
		if !masks[i] {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, int64(addr))
	}
	return out
}

func blockKeysTensor(hash *blockhash.Map) *tensor.Tensor {
	return blockKeysTensor2(hash.BlockKeys())
}

func blockKeysTensor2(keys []blockhash.Key) *tensor.Tensor {
	out := make([]int64, len(keys)*3)
	for i, k := range keys {
		out[i*3], out[i*3+1], out[i*3+2] = k[0], k[1], k[2]
	}
	return tensor.FromInt64(out, len(keys), 3)
}
