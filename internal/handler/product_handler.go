package handler

import (
	"net/http"
	"strconv"

	"github.com/Vishal2827/pern-stack/internal/model"
	"github.com/Vishal2827/pern-stack/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /products requests.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		writeFailure(w, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, products, h.logger)
}

// Create handles POST /products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, err, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeFailure(w, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusCreated, product, h.logger)
}

// Get handles GET /products/{id} requests.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeFailure(w, err, h.logger)
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeFailure(w, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, product, h.logger)
}

// Update handles PUT /products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeFailure(w, err, h.logger)
		return
	}

	var in model.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, err, h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		writeFailure(w, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, product, h.logger)
}

// Delete handles DELETE /products/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeFailure(w, err, h.logger)
		return
	}

	product, err := h.service.Delete(r.Context(), id)
	if err != nil {
		writeFailure(w, err, h.logger)
		return
	}

	writeSuccess(w, http.StatusOK, product, h.logger)
}

// productID parses the {id} path parameter. Any integer is accepted; ids that
// were never assigned are reported as not found further down.
func productID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, model.ErrInvalidID
	}
	return id, nil
}
