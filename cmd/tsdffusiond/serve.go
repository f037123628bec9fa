package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"tsdffusion/config"
	"tsdffusion/fusion"
	"tsdffusion/fusion/scenarios"
	"tsdffusion/monitor"
)

var serveScenario string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Fuse one frame of a synthetic scenario and stream the resulting mesh over a websocket",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveScenario, "scenario", "plane", "scenario to stream: plane or sphere")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	pipeline := fusion.NewPipeline(cfg, reg)
	mon := monitor.New()

	intrinsics := scenarios.Intrinsics(cfg.Fx, cfg.Fy, cfg.Cx, cfg.Cy)
	extrinsics := scenarios.IdentityExtrinsics()
	depth := scenarioDepth(cfg, serveScenario)

	if _, err := pipeline.IntegrateFrame(depth, intrinsics, extrinsics); err != nil {
		return fmt.Errorf("integrate: %w", err)
	}
	meshStats, err := pipeline.ExtractMesh()
	if err != nil {
		return fmt.Errorf("extract mesh: %w", err)
	}
	mon.Broadcast(toMeshUpdate(meshStats))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", mon.Handler)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	log.Printf("tsdffusiond: serving mesh updates on %s/ws, metrics on %s/metrics", addr, addr)
	return http.ListenAndServe(addr, mux)
}

func toMeshUpdate(stats fusion.MeshStats) monitor.MeshUpdate {
	if stats.Vertices == nil {
		return monitor.MeshUpdate{}
	}
	vdata := stats.Vertices.F32()
	ndata := stats.Normals.F32()
	n := int(stats.VertexCount)
	vertices := make([][3]float32, n)
	normals := make([][3]float32, n)
	for i := 0; i < n; i++ {
		vertices[i] = [3]float32{vdata[i*3], vdata[i*3+1], vdata[i*3+2]}
		normals[i] = [3]float32{ndata[i*3], ndata[i*3+1], ndata[i*3+2]}
	}
	return monitor.MeshUpdate{Vertices: vertices, Normals: normals}
}
