package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quadsim/quadtree"
	"quadsim/sim"
)

// WebSocketClient represents a connected client
type WebSocketClient struct {
	conn     *websocket.Conn
	clientID string
	// Client parameters
	view      quadtree.Rect
	exact     bool
	withNodes bool
	// Mutex to prevent concurrent writes
	mu sync.Mutex
}

// ClientMessage is any message a websocket client may send
type ClientMessage struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Exact  bool    `json:"exact"`
	Nodes  *bool   `json:"nodes,omitempty"`
	ConfigMessage
}

// FrameResponse is the message pushed to websocket clients
type FrameResponse struct {
	Type       string           `json:"type"`
	Sprites    []SpriteResponse `json:"sprites"`
	Nodes      []NodeResponse   `json:"nodes,omitempty"`
	Count      int              `json:"count"`
	Candidates int              `json:"candidates"`
	View       quadtree.Rect    `json:"view"`
	Stats      sim.QueryStats   `json:"stats"`
	Rebuild    int              `json:"rebuild"` // rebuild the sprites and nodes were taken from
	Time       int64            `json:"time"`
}

// SpritesResponse is the JSON response format for /api/sprites
type SpritesResponse struct {
	Sprites []SpriteResponse `json:"sprites"`
	Count   int              `json:"count"`
	View    quadtree.Rect    `json:"view"`
	Exact   bool             `json:"exact"`
	Stats   sim.QueryStats   `json:"stats"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func defaultView() quadtree.Rect {
	return sim.NewCamera(defaultCameraX, defaultCameraY, defaultCameraZoom,
		defaultCameraWidth, defaultCameraHeight).ViewRect()
}

// HandleWebSocket handles WebSocket connections
func (s *Simulation) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP connection to WebSocket
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	// Generate a unique client ID
	clientID := fmt.Sprintf("client-%d", time.Now().UnixNano())

	client := &WebSocketClient{
		conn:      conn,
		clientID:  clientID,
		view:      defaultView(),
		withNodes: true,
	}

	s.clientsMu.Lock()
	s.clients[clientID] = client
	s.clientsMu.Unlock()

	log.Printf("New WebSocket client connected: %s", clientID)

	// Handle client disconnect
	defer func() {
		conn.Close()
		s.clientsMu.Lock()
		delete(s.clients, clientID)
		s.clientsMu.Unlock()
		log.Printf("WebSocket client disconnected: %s", clientID)
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := s.handleClientMessage(client, message); err != nil {
			log.Printf("Client %s: %v", clientID, err)
			s.sendError(client, err)
		}
	}
}

func (s *Simulation) handleClientMessage(client *WebSocketClient, message []byte) error {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	switch msg.Type {
	case "camera":
		if msg.Width <= 0 || msg.Height <= 0 {
			return fmt.Errorf("camera size must be positive, got %vx%v", msg.Width, msg.Height)
		}
		client.mu.Lock()
		client.view = quadtree.Rect{X: msg.X, Y: msg.Y, Width: msg.Width, Height: msg.Height}
		client.exact = msg.Exact
		if msg.Nodes != nil {
			client.withNodes = *msg.Nodes
		}
		client.mu.Unlock()

	case "config":
		if err := s.ApplyConfig(msg.ConfigMessage); err != nil {
			return fmt.Errorf("apply config: %w", err)
		}
		log.Printf("Client %s updated config: %+v", client.clientID, s.Config())

	default:
		log.Printf("Client %s sent unknown message type %q", client.clientID, msg.Type)
		return nil
	}

	// Send immediate update with the new parameters
	return s.SendFrame(client)
}

// SendFrame sends the sprites visible to a client and the tree geometry
func (s *Simulation) SendFrame(client *WebSocketClient) error {
	client.mu.Lock()
	view, exact, withNodes := client.view, client.exact, client.withNodes
	client.mu.Unlock()

	return s.writeJSON(client, s.Frame(view, exact, withNodes))
}

func (s *Simulation) sendError(client *WebSocketClient, err error) {
	if werr := s.writeJSON(client, errorResponse{Error: err.Error()}); werr != nil {
		log.Printf("Error sending to client %s: %v", client.clientID, werr)
	}
}

func (s *Simulation) writeJSON(client *WebSocketClient, v any) error {
	message, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		return fmt.Errorf("write to %s: %w", client.clientID, err)
	}
	return nil
}

// BroadcastFrames sends a frame to all connected clients
func (s *Simulation) BroadcastFrames() {
	s.clientsMu.RLock()
	clients := make([]*WebSocketClient, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	s.clientsMu.RUnlock()

	for _, client := range clients {
		if err := s.SendFrame(client); err != nil {
			log.Printf("Error sending to client %s: %v", client.clientID, err)
		}
	}
}

func parseView(r *http.Request) (quadtree.Rect, error) {
	query := r.URL.Query()
	view := defaultView()
	fields := []struct {
		name string
		dst  *float64
	}{
		{"x", &view.X},
		{"y", &view.Y},
		{"width", &view.Width},
		{"height", &view.Height},
	}
	for _, f := range fields {
		raw := query.Get(f.name)
		if raw == "" {
			continue
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return quadtree.Rect{}, fmt.Errorf("invalid %s %q: %w", f.name, raw, err)
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return quadtree.Rect{}, fmt.Errorf("invalid %s %q: not a finite number", f.name, raw)
		}
		*f.dst = val
	}
	if view.Width <= 0 || view.Height <= 0 {
		return quadtree.Rect{}, errors.New("width and height must be positive")
	}
	return view, nil
}

// GetSpritesHandler handles API requests for the sprites in a view
func (s *Simulation) GetSpritesHandler(w http.ResponseWriter, r *http.Request) {
	view, err := parseView(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	exact := false
	if raw := r.URL.Query().Get("exact"); raw != "" {
		exact, err = strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid exact %q", raw)})
			return
		}
	}

	sprites, stats := s.Query(view, exact)
	writeJSON(w, http.StatusOK, SpritesResponse{
		Sprites: sprites,
		Count:   len(sprites),
		View:    view,
		Exact:   exact,
		Stats:   stats,
	})
}

// GetNodesHandler returns the quadtree geometry
func (s *Simulation) GetNodesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Nodes())
}

// ConfigHandler reports (GET) or changes (POST) the runtime configuration
func (s *Simulation) ConfigHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var msg ConfigMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decode config: %v", err)})
			return
		}
		if err := s.ApplyConfig(msg); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, s.Config())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*") // Allow CORS
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// Routes registers the API, websocket and static handlers
func (s *Simulation) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sprites", s.GetSpritesHandler)
	mux.HandleFunc("/api/nodes", s.GetNodesHandler)
	mux.HandleFunc("/api/config", s.ConfigHandler)
	mux.HandleFunc("/ws", s.HandleWebSocket)
	mux.Handle("/", http.FileServer(http.Dir("static")))
	return mux
}

// StartServer starts the HTTP server in the background
func StartServer(addr string, s *Simulation) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: s.Routes()}
	log.Printf("Starting HTTP server on %s", ln.Addr())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()
	return srv, nil
}
