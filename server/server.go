// Package server is the HTTP transport adapter. It maps the gateway's
// typed outcomes to x402 wire responses and hosts the admin
// registration endpoints. Pure presentation: no payment logic lives
// here.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paygate/x402-gateway/backend"
	"github.com/paygate/x402-gateway/catalog"
	"github.com/paygate/x402-gateway/gateway"
	"github.com/paygate/x402-gateway/logger"
	"github.com/paygate/x402-gateway/types"
)

// x402 wire headers.
const (
	HeaderPayment         = "X-PAYMENT"
	HeaderPaymentRequired = "X-PAYMENT-REQUIRED"
	HeaderPaymentResponse = "X-PAYMENT-RESPONSE"
)

// Server wires the gateway, catalog and payment backend into an HTTP
// handler.
type Server struct {
	gw       *gateway.Gateway
	port     backend.Port
	store    catalog.Store
	log      logger.Logger
	validate *validator.Validate
	router   chi.Router
}

// New assembles the HTTP surface.
func New(gw *gateway.Gateway, port backend.Port, store catalog.Store, log logger.Logger) *Server {
	if log == nil {
		log = logger.NoopLogger{}
	}
	s := &Server{
		gw:       gw,
		port:     port,
		store:    store,
		log:      log,
		validate: validator.New(),
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/resources/{vendorID}/*", s.handleResource)
	r.Route("/admin", func(admin chi.Router) {
		admin.Post("/vendors", s.handleCreateVendor)
		admin.Post("/products", s.handleCreateProduct)
		admin.Get("/vendors/{vendorID}/products", s.handleListProducts)
	})
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleResource runs the orchestrator for one resource request and
// renders its outcome. The switch over outcome variants is exhaustive;
// anything else is a server fault.
func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorID")
	path := chi.URLParam(r, "*")
	resourceURL := requestURL(r)

	outcome, err := s.gw.Process(r.Context(), vendorID, path, resourceURL, r.Header.Get(HeaderPayment))
	if err != nil {
		s.log.Error("request failed", map[string]any{
			"vendor": vendorID, "path": path, "error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch o := outcome.(type) {
	case types.PaymentRequired:
		s.writePaymentRequired(w, o.Challenge)
	case types.Success:
		s.writeSuccess(w, o)
	case types.VerificationFailed:
		writeError(w, http.StatusPaymentRequired, o.Reason)
	case types.SettlementFailed:
		writeError(w, http.StatusPaymentRequired, o.Reason)
	case types.NotFound:
		writeError(w, http.StatusNotFound, o.Reason)
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) writePaymentRequired(w http.ResponseWriter, challenge *types.PaymentChallenge) {
	encoded, err := s.port.EncodePaymentRequired(challenge)
	if err != nil {
		s.log.Error("encode challenge failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set(HeaderPaymentRequired, encoded)
	writeJSON(w, http.StatusPaymentRequired, challenge)
}

func (s *Server) writeSuccess(w http.ResponseWriter, o types.Success) {
	encoded, err := s.port.EncodeSettleResponse(o.Settlement)
	if err != nil {
		s.log.Error("encode settlement failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set(HeaderPaymentResponse, encoded)

	mime := o.Product.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(o.Product.Content)
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host + r.URL.Path
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"error": reason})
}
