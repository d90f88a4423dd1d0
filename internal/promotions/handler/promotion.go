package handler

import (
	"encoding/json"
	"net/http"

	"lodgebook/internal/promotions/service"
	"lodgebook/pkg/config"
	httputil "lodgebook/pkg/http"
	"lodgebook/pkg/logger"
	"lodgebook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type PromotionHandler struct {
	service service.PromotionService
	cfg     *config.Config
	log     *logger.Logger
}

func NewPromotionHandler(service service.PromotionService, cfg *config.Config) *PromotionHandler {
	return &PromotionHandler{
		service: service,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var promotion model.Promotion
	if err := json.NewDecoder(r.Body).Decode(&promotion); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &promotion); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, promotion); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *PromotionHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	promotion, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, promotion); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PromotionHandler) ListByLodging(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r, h.cfg)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListByLodging", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	promotions, err := h.service.ListByLodging(r.Context(), ps.ByName("lodgingId"), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListByLodging", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, promotions); err != nil {
		h.log.Error("failed to write success response", "handler", "ListByLodging", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PromotionHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.PromotionUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *PromotionHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Deactivate(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Deactivate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *PromotionHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/promotions", h.Create)
	router.GET("/api/v1/promotions/id/:id", h.GetByID)
	router.PATCH("/api/v1/promotions/id/:id", h.Update)
	router.DELETE("/api/v1/promotions/id/:id", h.Deactivate)
	router.GET("/api/v1/promotions/lodging/:lodgingId", h.ListByLodging)
}
