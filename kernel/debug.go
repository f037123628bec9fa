package kernel

import "fmt"

// Debug gates the invariant assertions below. A package-level bool rather
// than a build tag, so the numerical core stays in one build and a caller
// can flip it at runtime for a debug pass over a suspect frame.
var Debug = false

// InvariantError reports a violated back-reference or consistency
// invariant caught by a debug assertion (spec.md §9 open questions:
// "wrong!"/"tsdf error"/"inv indices error").
type InvariantError struct {
	Name   string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("kernel: invariant %s violated: %s", e.Name, e.Detail)
}

// CheckInverseIndices verifies indices[inv_indices[b]] == b for every
// selected block b (spec.md §9). Returns nil immediately when Debug is
// false.
func CheckInverseIndices(indices []int64, invIndices []int64) error {
	if !Debug {
		return nil
	}
	for b, k := range invIndices {
		if k < 0 {
			continue
		}
		if int(k) >= len(indices) || indices[k] != int64(b) {
			return &InvariantError{
				Name:   "inv_indices",
				Detail: fmt.Sprintf("indices[inv_indices[%d]] != %d", b, b),
			}
		}
	}
	return nil
}

// CheckTSDFRange verifies every stored TSDF value lies in [-1, 1] (spec.md
// §8). Returns nil immediately when Debug is false.
func CheckTSDFRange(blockValues []float32) error {
	if !Debug {
		return nil
	}
	for i := 0; i < len(blockValues); i += 2 {
		tsdf, w := blockValues[i], blockValues[i+1]
		if w <= 0 {
			continue
		}
		if tsdf < -1 || tsdf > 1 {
			return &InvariantError{
				Name:   "tsdf_range",
				Detail: fmt.Sprintf("tsdf=%f out of [-1,1] at voxel %d", tsdf, i/2),
			}
		}
	}
	return nil
}
