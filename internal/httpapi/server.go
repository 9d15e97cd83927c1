// Package httpapi exposes receipt verification over HTTP.
package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/hyperifyio/telebirr-verify/internal/failure"
	"github.com/hyperifyio/telebirr-verify/internal/receipt"
	"github.com/hyperifyio/telebirr-verify/internal/slip"
)

//go:embed static
var staticFiles embed.FS

// Verifier is the pipeline the server drives.
type Verifier interface {
	ReceiptByTx(ctx context.Context, tx string) (receipt.Receipt, error)
	ReceiptByURL(ctx context.Context, raw string) (receipt.Receipt, error)
}

// Options configures the server.
type Options struct {
	Version string
	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string
	Logger      zerolog.Logger
	// Now stamps slips. Nil means time.Now.
	Now func() time.Time
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	verifier  Verifier
	validator *validator.Validate
	opts      Options
	router    chi.Router
}

// NewServer creates the router with middleware and routes installed.
func NewServer(v Verifier, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{verifier: v, validator: validator.New(), opts: opts}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.opts.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("reqId", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("elapsed", d).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/receipts", func(r chi.Router) {
		r.Get("/by-url", s.handleByURLQuery)
		r.Post("/by-url", s.handleByURLBody)
		r.Get("/{tx}", s.handleByTx)
		r.Get("/{tx}/slip.pdf", s.handleSlip)
	})

	sub, _ := fs.Sub(staticFiles, "static")
	r.Handle("/*", http.FileServer(http.FS(sub)))

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.opts.Version})
}

func (s *Server) handleByTx(w http.ResponseWriter, r *http.Request) {
	checkID := uuid.NewString()
	tx := chi.URLParam(r, "tx")
	rec, err := s.verifier.ReceiptByTx(r.Context(), tx)
	if err != nil {
		s.respondFailure(w, r, checkID, err, "tx", tx)
		return
	}
	respondJSON(w, http.StatusOK, receiptResponse{CheckID: checkID, Receipt: rec})
}

func (s *Server) handleSlip(w http.ResponseWriter, r *http.Request) {
	checkID := uuid.NewString()
	tx := chi.URLParam(r, "tx")
	rec, err := s.verifier.ReceiptByTx(r.Context(), tx)
	if err != nil {
		s.respondFailure(w, r, checkID, err, "tx", tx)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+rec.InvoiceNo+`.pdf"`)
	w.Header().Set("X-Check-Id", checkID)
	if err := slip.Render(w, rec, s.opts.Now()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("checkId", checkID).Msg("slip render failed")
	}
}

// ByURLRequest is the POST /api/receipts/by-url body.
type ByURLRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

func (s *Server) handleByURLBody(w http.ResponseWriter, r *http.Request) {
	checkID := uuid.NewString()
	var req ByURLRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		s.respondFailure(w, r, checkID, invalidRequest("invalid JSON: "+err.Error()), "url", "")
		return
	}
	s.byURL(w, r, checkID, req)
}

func (s *Server) handleByURLQuery(w http.ResponseWriter, r *http.Request) {
	s.byURL(w, r, uuid.NewString(), ByURLRequest{URL: r.URL.Query().Get("url")})
}

func (s *Server) byURL(w http.ResponseWriter, r *http.Request, checkID string, req ByURLRequest) {
	if err := s.validator.Struct(req); err != nil {
		s.respondFailure(w, r, checkID, invalidRequest("validation failed: "+err.Error()), "url", req.URL)
		return
	}
	rec, err := s.verifier.ReceiptByURL(r.Context(), req.URL)
	if err != nil {
		s.respondFailure(w, r, checkID, err, "url", req.URL)
		return
	}
	respondJSON(w, http.StatusOK, receiptResponse{CheckID: checkID, Receipt: rec})
}

func invalidRequest(reason string) error {
	return failure.New(failure.InvalidURL).WithDetails(map[string]string{"reason": reason})
}

type receiptResponse struct {
	CheckID string `json:"checkId"`
	receipt.Receipt
}

type errorResponse struct {
	CheckID string         `json:"checkId"`
	Error   *failure.Error `json:"error"`
}

// respondFailure logs the failure once and writes the error body.
func (s *Server) respondFailure(w http.ResponseWriter, r *http.Request, checkID string, err error, key, value string) {
	fe := failure.As(err)
	status := StatusFor(fe.Code)
	ev := hlog.FromRequest(r).Warn()
	if status >= http.StatusInternalServerError {
		ev = hlog.FromRequest(r).Error()
	}
	ev.Err(err).Str("checkId", checkID).Str("code", string(fe.Code)).Str(key, value).Msg("verification failed")
	if fe.Code == failure.Unknown {
		// Never echo an unclassified cause to the caller.
		fe = failure.New(failure.Unknown)
	}
	respondJSON(w, status, errorResponse{CheckID: checkID, Error: fe})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
