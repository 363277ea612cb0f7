// Package server exposes the codec over HTTP.
//
//	POST /api/decode   body: a .mid file      -> {"info": ..., "song": ...}
//	POST /api/encode   body: song JSON or YAML -> audio/midi
//	GET  /api/health
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"midi-player/debug"
	"midi-player/smf"
	"midi-player/song"
)

const DefaultMaxUpload = 16 << 20

type DecodeResponse struct {
	Info song.Info  `json:"info"`
	Song *song.Song `json:"song"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	MaxUpload int64
	router    *mux.Router
}

func New(maxUpload int64) *Server {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	s := &Server{MaxUpload: maxUpload, router: mux.NewRouter()}

	s.router.HandleFunc("/api/decode", s.decode).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/api/encode", s.encode).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/api/health", s.health).Methods(http.MethodGet, http.MethodOptions)
	s.router.Use(mux.CORSMethodMiddleware(s.router))
	s.router.Use(cors)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		debug.Log("server", "listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) body(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.MaxUpload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
		} else {
			writeError(w, http.StatusBadRequest, err)
		}
		return nil, false
	}
	return data, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) {
	data, ok := s.body(w, r)
	if !ok {
		return
	}
	f, err := smf.Decode(data)
	if err != nil {
		debug.Log("server", "decode %d bytes: %v", len(data), err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, DecodeResponse{Info: song.Describe(f), Song: song.FromFile(f)})
}

func (s *Server) encode(w http.ResponseWriter, r *http.Request) {
	data, ok := s.body(w, r)
	if !ok {
		return
	}
	sg, err := song.Parse(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := sg.MIDI()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, smf.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", `attachment; filename="song.mid"`)
	w.Write(out)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
