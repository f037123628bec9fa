package fusion

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are the Prometheus counters/histograms spec.md §4.10 calls for:
// one duration histogram labelled by the kernel the pipeline dispatches,
// plus counters of emitted points, allocated vertices and selected blocks.
type metrics struct {
	kernelDuration   *prometheus.HistogramVec
	pointsEmitted    prometheus.Counter
	verticesAllocated prometheus.Counter
	blocksTouched    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		kernelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tsdf_kernel_duration_seconds",
			Help:    "Wall-clock duration of each kernel dispatch.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kernel"}),
		pointsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsdf_points_emitted_total",
			Help: "Total zero-crossing points emitted by SurfaceExtraction.",
		}),
		verticesAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsdf_vertices_allocated_total",
			Help: "Total vertices allocated by MarchingCubes.",
		}),
		blocksTouched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsdf_blocks_touched_total",
			Help: "Total blocks selected for integration, summed over frames (a block is counted once per frame that selects it).",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.kernelDuration, m.pointsEmitted, m.verticesAllocated, m.blocksTouched)
	}
	return m
}
