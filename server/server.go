package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/Flynicolas/premio-caixa-magica-sub006/catalog"
	"github.com/Flynicolas/premio-caixa-magica-sub006/config"
	"github.com/Flynicolas/premio-caixa-magica-sub006/games"
	"github.com/Flynicolas/premio-caixa-magica-sub006/settle"
	"github.com/Flynicolas/premio-caixa-magica-sub006/wallet"
)

type Server struct {
	cfg      *config.Config
	catalogs *catalog.Accessor
	registry *games.Registry
	settler  *settle.Settler
}

func New(cfg *config.Config) *Server {
	store := catalog.NewStore(cfg.DataDir)
	w := wallet.NewClient(cfg.PlatformURL, cfg.GameName, cfg.GameProvider)
	pending := settle.NewPendingStore(cfg.DataDir)
	results := settle.NewResultsStore(cfg.DataDir)
	return &Server{
		cfg:      cfg,
		catalogs: catalog.NewAccessor(store),
		registry: games.NewRegistry(games.NewStore(cfg.DataDir)),
		settler:  settle.NewSettler(w, pending, results),
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /engine/roulette/generate", s.handleRouletteGenerate)
	mux.HandleFunc("POST /engine/roulette/simulate", s.handleRouletteSimulate)
	mux.HandleFunc("POST /engine/scratch/generate", s.handleScratchGenerate)
	mux.HandleFunc("POST /engine/settle", s.handleSettle)
	mux.HandleFunc("GET /engine/catalog", s.handleCatalog)
	mux.HandleFunc("GET /engine/games/list", s.handleGamesList)
	return mux
}

func (s *Server) Run() error {
	port := s.cfg.EnginePort
	if port <= 0 {
		port = 8090
	}
	addr := ":" + strconv.Itoa(port)
	log.Printf("engine listening on %s (platform: %s)", addr, s.cfg.PlatformURL)
	return http.ListenAndServe(addr, cors(requestLogger(s.routes())))
}

func cors(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Secret")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// requestLogger logs method and path for each request (no body or secrets).
func requestLogger(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("engine %s %s", r.Method, r.URL.Path)
		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "draw-engine"})
}

// handleGamesList returns the registered game types (GET /engine/games/list).
func (s *Server) handleGamesList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"games": s.registry.List()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
