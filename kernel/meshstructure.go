package kernel

// meshStructure wraps the [K,R,R,R,4] int32 mesh_structure tensor
// (spec.md §3): channels 0-2 are the voxel's own +x/+y/+z edge->vertex
// slots, channel 3 is the Marching Cubes cube case. Edge slots default to
// 0 ("not an owner of any cut edge"); Pass 0 writes -1 to claim a slot
// that Pass 1 must allocate a vertex id for; case defaults to -1
// ("cube undefined / never evaluated").
type meshStructure struct {
	data []int32
	res  int
}

func newMeshStructure(data []int32, resolution int) meshStructure {
	return meshStructure{data: data, res: resolution}
}

func (ms meshStructure) offset(k int, xv, yv, zv int) int {
	r := ms.res
	local := (zv*r+yv)*r + xv
	return (k*r*r*r + local) * 4
}

// EdgeSlot reads channel 0/1/2 (local axis 0=x,1=y,2=z).
func (ms meshStructure) EdgeSlot(k, xv, yv, zv, axis int) int32 {
	return ms.data[ms.offset(k, xv, yv, zv)+axis]
}

// SetEdgeSlot writes channel 0/1/2.
func (ms meshStructure) SetEdgeSlot(k, xv, yv, zv, axis int, v int32) {
	ms.data[ms.offset(k, xv, yv, zv)+axis] = v
}

// CaseIndex reads channel 3.
func (ms meshStructure) CaseIndex(k, xv, yv, zv int) int32 {
	return ms.data[ms.offset(k, xv, yv, zv)+3]
}

// SetCaseIndex writes channel 3.
func (ms meshStructure) SetCaseIndex(k, xv, yv, zv int, v int32) {
	ms.data[ms.offset(k, xv, yv, zv)+3] = v
}
