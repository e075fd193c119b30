package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/alexivanou/cityinfo-api/internal/model"
	"github.com/alexivanou/cityinfo-api/internal/service"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Handler handles HTTP requests
type Handler struct {
	service service.ServiceInterface
	logger  *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(service service.ServiceInterface, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// CreateCity handles POST /api/cities
func (h *Handler) CreateCity(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCityRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	city, err := h.service.CreateCity(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, city)
}

// UpdateCity handles PATCH /api/cities/{id}
func (h *Handler) UpdateCity(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req model.UpdateCityRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	city, err := h.service.UpdateCity(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, city)
}

// DeleteCity handles DELETE /api/cities/{id}
func (h *Handler) DeleteCity(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.service.DeleteCity(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SearchCities handles GET /api/cities/search
func (h *Handler) SearchCities(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	results, err := h.service.SearchCities(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, model.SearchResponse{Results: results})
}

// GetCity handles GET /api/cities/{id}
func (h *Handler) GetCity(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	city, err := h.service.GetCityByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, city)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// NotFound answers requests that match no route
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorBody(w, h.logger, http.StatusNotFound, model.ErrorBody{
		Code:    service.CodeNotFound,
		Message: "Route not found",
	})
}

// MethodNotAllowed answers requests to a known path with the wrong method
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorBody(w, h.logger, http.StatusMethodNotAllowed, model.ErrorBody{
		Code:    "METHOD_NOT_ALLOWED",
		Message: fmt.Sprintf("Method %s not allowed", r.Method),
	})
}

// decodeJSON reads a JSON body of at most 1 MiB into v. On failure the
// BAD_REQUEST response is already written.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}

	message := "Invalid JSON body"
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		message = "Request body too large"
	case errors.Is(err, io.EOF):
		message = "Request body is empty"
	}

	writeErrorBody(w, h.logger, http.StatusBadRequest, model.ErrorBody{
		Code:    service.CodeBadRequest,
		Message: message,
	})
	return false
}

// writeError maps err onto the error envelope. Business errors keep their
// status and code, anything else is a 500 carrying the error message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		writeErrorBody(w, h.logger, svcErr.Status, model.ErrorBody{
			Code:    svcErr.Code,
			Message: svcErr.Message,
			Fields:  svcErr.Fields,
		})
		return
	}

	h.logger.Error("Request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeErrorBody(w, h.logger, http.StatusInternalServerError, model.ErrorBody{
		Code:    service.CodeInternal,
		Message: err.Error(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	writeJSON(w, h.logger, status, v)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding response", zap.Error(err))
	}
}

func writeErrorBody(w http.ResponseWriter, logger *zap.Logger, status int, body model.ErrorBody) {
	writeJSON(w, logger, status, model.ErrorResponse{Error: body})
}
