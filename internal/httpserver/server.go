// internal/httpserver/server.go
//
// HTTP server for the local dev authority.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health".
//   - Puzzle endpoints under /api: list, create, tiles, check, connections.
//
// Notes:
//   - Puzzles live in an in-memory fixtures.Catalog; nothing is persisted.
//   - Tiles are served in authored order. Clients shuffle.
//   - Game ids are positive integers, in URLs and JSON alike.
//   - Connections are served on request; the client only asks once solved.

package httpserver

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/connections/internal/authority"
	"github.com/robalobadob/connections/internal/fixtures"
	"github.com/robalobadob/connections/internal/game"
)

// Server bundles router and puzzle catalog.
type Server struct {
	r       *chi.Mux
	puzzles *fixtures.Catalog
}

// New constructs a Server, installs middleware, and registers routes.
func New(puzzles *fixtures.Catalog) *Server {
	s := &Server{r: chi.NewRouter(), puzzles: puzzles}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                       // one zerolog line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // single-origin CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"connections-dev-authority","endpoints":["/health","GET /api/games","POST /api/game","GET /api/games/{id}","POST /api/games/check","GET /api/games/{id}/connections"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Route("/api", func(r chi.Router) {
		r.Get("/games", s.handleList)
		r.Post("/game", s.handleCreate)
		r.Post("/games/check", s.handleCheck)
		r.Get("/games/{id}", s.handleTiles)
		r.Get("/games/{id}/connections", s.handleConnections)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found: "+r.URL.Path)
	})
	return s
}

// Router exposes the router (used by tests and `connections serve`).
func (s *Server) Router() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog logs method, path, status, and duration for every request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, authority.ErrorResponse{Error: msg, Code: status})
}

// lookup resolves a game id, writing a 404 when unknown.
func (s *Server) lookup(w http.ResponseWriter, id int64) (fixtures.Puzzle, bool) {
	p, err := s.puzzles.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "game "+strconv.FormatInt(id, 10)+" not found")
		return fixtures.Puzzle{}, false
	}
	return p, true
}

// lookupParam resolves the {id} URL param, writing a 400 when it is not a
// positive integer.
func (s *Server) lookupParam(w http.ResponseWriter, r *http.Request) (fixtures.Puzzle, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid game ID")
		return fixtures.Puzzle{}, false
	}
	return s.lookup(w, id)
}

// ------------------------------ PUZZLES ------------------------------------

// handleList returns summaries for the browse view.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	out := []authority.Summary{}
	for _, p := range s.puzzles.List() {
		out = append(out, authority.Summary{
			ID:         p.ID,
			Author:     p.Author,
			Difficulty: p.Difficulty,
			CreatedAt:  p.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreate stores an authored puzzle in memory.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req authority.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	difficulty := strings.ToLower(strings.TrimSpace(req.Difficulty))
	switch difficulty {
	case authority.DifficultyEasy, authority.DifficultyMedium, authority.DifficultyHard, authority.DifficultyImpossible:
	default:
		writeError(w, http.StatusBadRequest, "difficulty must be easy, medium, hard or impossible")
		return
	}
	timeLimit := strings.ToLower(strings.TrimSpace(req.TimeLimit))
	if timeLimit == "" {
		timeLimit = authority.TimeLimitUnlimited
	}

	p := fixtures.Puzzle{Author: strings.TrimSpace(req.Author), Difficulty: difficulty, TimeLimit: timeLimit}
	for _, g := range req.Groups {
		grp := fixtures.Group{Name: g.Link, Link: g.Link, LinkTerms: g.LinkTerms}
		for _, t := range g.Tiles {
			grp.Tiles = append(grp.Tiles, game.Tile{Title: t.Title})
		}
		p.Groups = append(p.Groups, grp)
	}

	created, err := s.puzzles.Add(p)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Info().Int64("game_id", created.ID).Str("author", created.Author).Msg("puzzle created")
	writeJSON(w, http.StatusCreated, authority.CreateResponse{GameID: created.ID, Status: "success"})
}

// handleTiles returns a puzzle's tiles in authored order.
func (s *Server) handleTiles(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, authority.TilesResponse{GameID: p.ID, Tiles: p.Tiles()})
}

// handleCheck answers whether four tiles form one group.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req authority.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if req.GameID <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid game ID")
		return
	}
	if len(req.TileIDs) != game.GroupSize {
		writeError(w, http.StatusBadRequest, "Must select exactly 4 tiles")
		return
	}
	p, ok := s.lookup(w, req.GameID)
	if !ok {
		return
	}
	correct, link := p.Check(req.TileIDs)
	writeJSON(w, http.StatusOK, authority.CheckResponse{Correct: correct, LinkText: link})
}

// handleConnections returns the canonical groupings.
func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupParam(w, r)
	if !ok {
		return
	}
	res := authority.ConnectionsResponse{Connections: []authority.ConnectionJSON{}}
	for _, c := range p.Connections() {
		cj := authority.ConnectionJSON{Name: c.Name}
		for _, id := range c.TileIDs {
			cj.Tiles = append(cj.Tiles, authority.TileRef{ID: id})
		}
		res.Connections = append(res.Connections, cj)
	}
	writeJSON(w, http.StatusOK, res)
}
