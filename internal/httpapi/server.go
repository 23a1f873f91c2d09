// Package httpapi exposes the hotseat manager over HTTP JSON and a websocket feed.
package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/hotseat-chess/internal/hotseat"
	"github.com/park285/hotseat-chess/internal/obslog"
	"github.com/park285/hotseat-chess/pkg/chessdto"
)

const maxJSONBodyBytes int64 = 1 << 16

// Server wires HTTP routes to a hotseat manager.
type Server struct {
	mgr   *hotseat.Manager
	srvMu sync.Mutex
	srv   *http.Server
}

func NewServer(mgr *hotseat.Manager) *Server {
	return &Server{mgr: mgr}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.routes() }

// Listen serves until Close is called.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	obslog.L().Info("http_listen", zap.String("addr", addr))
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts the listener down gracefully.
func (s *Server) Close(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/games", s.withJSON(s.handleCreate))
	mux.HandleFunc("GET /api/games/{id}", s.withJSON(s.handleGet))
	mux.HandleFunc("POST /api/games/{id}/select", s.withJSON(s.handleSelect))
	mux.HandleFunc("POST /api/games/{id}/moves", s.withJSON(s.handleMove))
	mux.HandleFunc("POST /api/games/{id}/undo", s.withJSON(s.handleUndo))
	mux.HandleFunc("POST /api/games/{id}/new", s.withJSON(s.handleNewGame))
	mux.HandleFunc("POST /api/games/{id}/flip", s.withJSON(s.handleFlip))
	mux.HandleFunc("PUT /api/games/{id}/hints", s.withJSON(s.handleHints))
	mux.HandleFunc("PUT /api/games/{id}/clock", s.withJSON(s.handleClock))
	mux.HandleFunc("GET /api/games/{id}/pgn", s.handlePGN)
	mux.HandleFunc("GET /api/games/{id}/board.png", s.handleBoard)
	mux.HandleFunc("GET /api/games/{id}/ws", s.handleWS)

	mux.HandleFunc("GET /api/history", s.withJSON(s.handleHistory))
	mux.HandleFunc("GET /api/history/{id}", s.withJSON(s.handleArchived))
	return logRequests(mux)
}

// ---- helpers ----

func (s *Server) withJSON(h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	de := hotseat.ToDomainError(err, s.mgr.Messages())
	if de.Code == chessdto.CodeInternal || de.Code == chessdto.CodeInvariant {
		obslog.L().Error("http_handler_error", zap.String("code", de.Code), zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	writeJSON(w, de.HTTPStatus(), chessdto.ErrorResponse{Error: de})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, chessdto.ErrorResponse{Error: chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: msg}})
}

// decode reads an optional JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body too large")
		}
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack is required by the websocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		obslog.L().Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// ---- games ----

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req chessdto.CreateGameRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	if req.ClockSeconds < 0 {
		s.badRequest(w, "clock_seconds must not be negative")
		return
	}
	v, err := s.mgr.Create(r.Context(), hotseat.CreateParams{
		WhiteName:    req.WhiteName,
		BlackName:    req.BlackName,
		ClockEnabled: req.ClockEnabled,
		ClockBudget:  time.Duration(req.ClockSeconds) * time.Second,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hotseat.ToDTO(v))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	v, err := s.mgr.Get(r.Context(), r.PathValue("id"))
	s.respondState(w, v, err)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req chessdto.SelectRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	sel, err := s.mgr.Select(r.Context(), r.PathValue("id"), req.Square)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := hotseat.SelectionDTO(sel)
	out.Message = sel.View.Message
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req chessdto.MoveRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.Move) == "" && (strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.To) == "") {
		s.badRequest(w, "move or from/to is required")
		return
	}
	v, mv, err := s.mgr.Move(r.Context(), r.PathValue("id"), moveInput(req))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chessdto.MoveSummary{
		State:    hotseat.ToDTO(v),
		UCI:      mv.UCI(),
		Notation: v.Notation[len(v.Notation)-1],
		Finished: v.State.Status.Terminal(),
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	v, err := s.mgr.Undo(r.Context(), r.PathValue("id"))
	s.respondState(w, v, err)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	v, err := s.mgr.NewGame(r.Context(), r.PathValue("id"))
	s.respondState(w, v, err)
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	v, err := s.mgr.Flip(r.Context(), r.PathValue("id"))
	s.respondState(w, v, err)
}

func (s *Server) handleHints(w http.ResponseWriter, r *http.Request) {
	var req chessdto.ToggleRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	v, err := s.mgr.SetHints(r.Context(), r.PathValue("id"), req.Enabled)
	s.respondState(w, v, err)
}

func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	var req chessdto.ToggleRequest
	if err := decode(r, &req); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	v, err := s.mgr.SetClock(r.Context(), r.PathValue("id"), req.Enabled)
	s.respondState(w, v, err)
}

func (s *Server) respondState(w http.ResponseWriter, v *hotseat.View, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotseat.ToDTO(v))
}

func (s *Server) handlePGN(w http.ResponseWriter, r *http.Request) {
	text, err := s.mgr.PGN(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-chess-pgn; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="game.pgn"`)
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	img, err := s.mgr.Render(r.Context(), r.PathValue("id"), r.URL.Query().Get("selected"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}

// ---- history ----

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	games, err := s.mgr.History(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := chessdto.HistoryResponse{Games: make([]*chessdto.ArchivedGame, 0, len(games))}
	for _, g := range games {
		out.Games = append(out.Games, hotseat.ArchivedDTO(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleArchived(w http.ResponseWriter, r *http.Request) {
	g, err := s.mgr.Archived(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotseat.ArchivedDTO(g))
}

func moveInput(req chessdto.MoveRequest) hotseat.MoveInput {
	return hotseat.MoveInput{
		From:      strings.TrimSpace(req.From),
		To:        strings.TrimSpace(req.To),
		Promotion: strings.TrimSpace(req.Promotion),
		UCI:       strings.TrimSpace(req.Move),
	}
}
