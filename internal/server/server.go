package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/raven-go"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/talentboard/job-portal/internal/config"
	"github.com/talentboard/job-portal/internal/middleware"
)

type Server struct {
	cfg    config.Config
	Conn   *sql.DB
	router *mux.Router
	Logger zerolog.Logger
}

func NewServer(cfg config.Config, conn *sql.DB, r *mux.Router) Server {
	if cfg.SentryDSN != "" {
		raven.SetDSN(cfg.SentryDSN)
	}
	return Server{
		cfg:    cfg,
		Conn:   conn,
		router: r,
		Logger: NewLogger(cfg.Env),
	}
}

// NewLogger returns a human readable logger in dev and a JSON one otherwise.
func NewLogger(env string) zerolog.Logger {
	if env == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func (s Server) RegisterRoute(path string, handler func(w http.ResponseWriter, r *http.Request), methods []string) {
	s.router.HandleFunc(path, handler).Methods(methods...)
}

func (s Server) GetConfig() config.Config {
	return s.cfg
}

func (s Server) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (s Server) XML(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	w.Write(data)
}

// Message writes the {"message": msg} error body used by every endpoint.
func (s Server) Message(w http.ResponseWriter, status int, msg string) {
	s.JSON(w, status, map[string]string{"message": msg})
}

func (s Server) Log(err error, msg string) {
	if s.cfg.SentryDSN != "" {
		raven.CaptureError(err, map[string]string{"ctx": msg})
	}
	s.Logger.Error().Err(err).Msg(msg)
}

// Handler is the router wrapped in the middleware chain.
func (s Server) Handler() http.Handler {
	return middleware.LoggingMiddleware(
		s.Logger,
		middleware.CORSMiddleware(
			middleware.HeadersMiddleware(s.router, s.cfg.Env),
			s.cfg.AllowedOrigins,
		),
	)
}

func (s Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	if s.cfg.IsDev() {
		s.Logger.Info().Msgf("local env http://localhost:%s", s.cfg.Port)
		addr = fmt.Sprintf("localhost:%s", s.cfg.Port)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
