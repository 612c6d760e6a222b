package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
)

// BuildInfo identifies the running binary in health output and logs.
type BuildInfo struct {
	Version string
	Commit  string
}

// Config carries every dependency the handlers need. The Crypter, token
// codec and token store are constructed once in main and injected here;
// nothing in this package reaches for globals.
type Config struct {
	Addr    string // e.g. ":8080"
	BaseURL string // absolute base for links in responses and emails
	Build   BuildInfo

	Auth   AuthConfig
	DB     *sql.DB
	Tokens *TokenService
	Store  TokenStore
	Minio  *minio.Client
	Bucket string
	Email  *EmailService
}

type Server struct {
	httpServer *http.Server
}

func New(cfg Config) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/ready", cfg.readyHandler())
	mux.HandleFunc("/health", cfg.healthHandler())

	mux.HandleFunc("/auth/ops/login", cfg.Auth.loginHandler(roleOps))
	mux.HandleFunc("/auth/client/login", cfg.Auth.loginHandler(roleClient))
	mux.HandleFunc("/auth/client/signup", cfg.clientSignupHandler())
	mux.HandleFunc("/auth/client/verify-email", cfg.verifyEmailHandler())

	mux.Handle("/ops/upload", cfg.uploadHandler(cfg.DB, cfg.Minio, cfg.Bucket))

	mux.Handle("/client/files", cfg.listFilesHandler(cfg.DB))
	mux.Handle("/client/download-file/", cfg.createDownloadLinkHandler(cfg.DB))

	mux.Handle("/download-file/", cfg.downloadFileHandler(cfg.DB, cfg.Minio, cfg.Bucket))

	// Wrap middleware: requestID -> logging -> mux
	var handler http.Handler = mux
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{httpServer: s}
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the composed handler for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
