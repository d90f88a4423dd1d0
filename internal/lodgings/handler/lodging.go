package handler

import (
	"encoding/json"
	"net/http"

	"lodgebook/internal/lodgings/service"
	"lodgebook/pkg/config"
	httputil "lodgebook/pkg/http"
	"lodgebook/pkg/logger"
	"lodgebook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type LodgingHandler struct {
	service service.LodgingService
	cfg     *config.Config
	log     *logger.Logger
}

func NewLodgingHandler(service service.LodgingService, cfg *config.Config) *LodgingHandler {
	return &LodgingHandler{
		service: service,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

func (h *LodgingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var lodging model.Lodging
	if err := json.NewDecoder(r.Body).Decode(&lodging); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &lodging); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, lodging); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *LodgingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	lodging, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, lodging); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LodgingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r, h.cfg)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	lodgings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, lodgings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *LodgingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.LodgingUpdate
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

func (h *LodgingHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Deactivate(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Deactivate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *LodgingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/lodgings", h.Create)
	router.GET("/api/v1/lodgings", h.GetAll)
	router.GET("/api/v1/lodgings/id/:id", h.GetByID)
	router.PATCH("/api/v1/lodgings/id/:id", h.Update)
	router.DELETE("/api/v1/lodgings/id/:id", h.Deactivate)
}
