package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paygate/x402-gateway/catalog"
	"github.com/paygate/x402-gateway/gateway"
	"github.com/paygate/x402-gateway/types"
	"github.com/paygate/x402-gateway/utils"
)

type createVendorRequest struct {
	Name  string `json:"name" validate:"required"`
	PayTo string `json:"payTo" validate:"required"`
}

type createProductRequest struct {
	VendorID    string `json:"vendorId" validate:"required"`
	Path        string `json:"path" validate:"required"`
	Price       string `json:"price" validate:"required"`
	Network     string `json:"network" validate:"required"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
	Content     string `json:"content"`
}

func (s *Server) handleCreateVendor(w http.ResponseWriter, r *http.Request) {
	var req createVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !utils.ValidateAddress(req.PayTo) {
		writeError(w, http.StatusBadRequest, "payTo is not a valid chain account address")
		return
	}

	vendor := &types.Vendor{
		Name:  req.Name,
		PayTo: utils.NormalizeAddress(req.PayTo),
	}
	if err := s.store.CreateVendor(r.Context(), vendor); err != nil {
		if errors.Is(err, catalog.ErrDuplicateVendor) {
			writeError(w, http.StatusConflict, "vendor already registered")
			return
		}
		s.log.Error("create vendor failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, vendor)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := utils.ParsePrice(req.Price); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !types.Network(req.Network).IsEVM() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported network %q", req.Network))
		return
	}

	mime := req.MimeType
	if mime == "" {
		mime = "application/json"
	}
	product := &types.Product{
		VendorID:    req.VendorID,
		Path:        req.Path,
		Price:       req.Price,
		Network:     req.Network,
		Description: req.Description,
		MimeType:    mime,
		Content:     []byte(req.Content),
		Active:      true,
	}
	if err := s.store.CreateProduct(r.Context(), product); err != nil {
		switch {
		case errors.Is(err, catalog.ErrVendorNotFound):
			writeError(w, http.StatusNotFound, gateway.ReasonVendorNotFound)
		case errors.Is(err, catalog.ErrDuplicatePath):
			writeError(w, http.StatusConflict, "product path already registered for vendor")
		default:
			s.log.Error("create product failed", map[string]any{"error": err.Error()})
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorID")
	products, err := s.store.ListProducts(r.Context(), vendorID)
	if err != nil {
		if errors.Is(err, catalog.ErrVendorNotFound) {
			writeError(w, http.StatusNotFound, gateway.ReasonVendorNotFound)
			return
		}
		s.log.Error("list products failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}
