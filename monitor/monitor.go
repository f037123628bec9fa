// Package monitor streams the most recently extracted mesh to connected
// development clients over a websocket, for visual inspection while
// iterating on the fusion pipeline. It is not part of the numerical core:
// a spectator on fusion.Pipeline's output, grounded on the teacher's
// mesh-streaming server.go (same upgrader/broadcast/client-registry
// shape, replacing planet terrain vertices with fusion mesh vertices).
package monitor

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// MeshUpdate is one broadcast frame: the most recent MarchingCubes output,
// plus the frame index it was extracted from.
type MeshUpdate struct {
	Type      string    `json:"type"`
	Frame     int       `json:"frame"`
	Vertices  [][3]float32 `json:"vertices"`
	Normals   [][3]float32 `json:"normals"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // development tool, not for production exposure
	},
}

// Server broadcasts MeshUpdate values to every connected websocket client.
type Server struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex

	latestMu sync.RWMutex
	latest   MeshUpdate
}

// New creates an empty Server; call Broadcast as new meshes are extracted
// and Handler to wire it into an http.ServeMux.
func New() *Server {
	return &Server{clients: make(map[*websocket.Conn]*sync.Mutex)}
}

// Handler upgrades the connection and registers the client for broadcasts,
// sending it the latest known mesh immediately.
func (s *Server) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("monitor: websocket upgrade error:", err)
		return
	}

	connMutex := &sync.Mutex{}
	s.mu.Lock()
	s.clients[conn] = connMutex
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	s.latestMu.RLock()
	latest := s.latest
	s.latestMu.RUnlock()
	connMutex.Lock()
	conn.WriteJSON(latest)
	connMutex.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends mesh to every connected client and remembers it as the
// latest mesh for clients that connect afterward.
func (s *Server) Broadcast(mesh MeshUpdate) {
	mesh.Type = "mesh_update"
	s.latestMu.Lock()
	s.latest = mesh
	s.latestMu.Unlock()

	s.mu.RLock()
	stale := make([]*websocket.Conn, 0)
	for conn, mutex := range s.clients {
		mutex.Lock()
		err := conn.WriteJSON(mesh)
		mutex.Unlock()
		if err != nil {
			log.Println("monitor: websocket write error:", err)
			stale = append(stale, conn)
		}
	}
	s.mu.RUnlock()

	if len(stale) == 0 {
		return
	}
	s.mu.Lock()
	for _, conn := range stale {
		delete(s.clients, conn)
		conn.Close()
	}
	s.mu.Unlock()
}
