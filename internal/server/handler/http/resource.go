package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/avolkova/healthtrack/internal/middleware"
	"github.com/avolkova/healthtrack/internal/models"
	"github.com/avolkova/healthtrack/internal/schema"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ResourceService defines the per-kind operations required by the
// ResourceHandler. All operations are scoped to the authenticated caller.
type ResourceService interface {
	Create(ctx context.Context, ownerID string, input map[string]any) (models.Record, error)
	List(ctx context.Context, ownerID string, filter models.ListFilter, ordering []models.OrderBy) ([]models.Record, error)
	Get(ctx context.Context, ownerID, id string) (models.Record, error)
	Replace(ctx context.Context, ownerID, id string, input map[string]any) (models.Record, error)
	Patch(ctx context.Context, ownerID, id string, input map[string]any) (models.Record, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// ResourceHandler serves the REST endpoints for one resource kind.
// The same handler type is mounted once per schema; there is no
// per-kind handler code.
type ResourceHandler struct {
	// Service performs the resource operations.
	Service ResourceService
	// Schema describes the kind this handler serves.
	Schema *schema.Schema
}

// Mount registers the handler's routes on the router:
//
//	GET    /{plural}/          → List
//	POST   /{plural}/          → Create
//	GET    /{plural}/{id}/     → Get
//	PUT    /{plural}/{id}/     → Replace
//	PATCH  /{plural}/{id}/     → Patch
//	DELETE /{plural}/{id}/     → Delete
//	GET    /{kind}-choices/    → Choices
func (h *ResourceHandler) Mount(r chi.Router) {
	r.Route("/"+h.Schema.Plural, func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Replace)
			r.Patch("/", h.Patch)
			r.Delete("/", h.Delete)
		})
	})
	r.Get("/"+h.Schema.Kind+"-choices/", h.Choices)
}

// List handles GET /{plural}/. Query parameters: date, status, the kind's
// category field, and ordering (comma-separated, "-" prefix descending).
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserIDFromContext(r.Context())

	query := r.URL.Query()
	var filter models.ListFilter
	if raw := query.Get("date"); raw != "" {
		date, err := time.Parse(schema.DateLayout, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"date": "must be a date in YYYY-MM-DD format"})
			return
		}
		filter.Date = &date
	}
	if h.Schema.TypeField != "" {
		filter.Type = query.Get(h.Schema.TypeField)
	}
	filter.Status = query.Get("status")

	ordering := h.Schema.Ordering(query.Get("ordering"))

	records, err := h.Service.List(r.Context(), ownerID, filter, ordering)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		views = append(views, h.recordView(rec))
	}
	writeJSON(w, http.StatusOK, views)
}

// Create handles POST /{plural}/. The owner of the new record is always
// the authenticated caller, no matter what the body says.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserIDFromContext(r.Context())

	input, ok := decodeBody(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.Create(r.Context(), ownerID, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.recordView(rec))
}

// Get handles GET /{plural}/{id}/.
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserIDFromContext(r.Context())
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.Get(r.Context(), ownerID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.recordView(rec))
}

// Replace handles PUT /{plural}/{id}/ with a full set of mutable fields.
func (h *ResourceHandler) Replace(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserIDFromContext(r.Context())
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	input, ok := decodeBody(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.Replace(r.Context(), ownerID, id, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.recordView(rec))
}

// Patch handles PATCH /{plural}/{id}/ with a partial set of fields.
func (h *ResourceHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserIDFromContext(r.Context())
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	input, ok := decodeBody(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.Patch(r.Context(), ownerID, id, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.recordView(rec))
}

// Delete handles DELETE /{plural}/{id}/. Responds 204 on success.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserIDFromContext(r.Context())
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), ownerID, id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Choices handles GET /{kind}-choices/, returning the schema's choice
// sets as ordered {value, label} pairs for client consumption.
func (h *ResourceHandler) Choices(w http.ResponseWriter, r *http.Request) {
	payload := make(map[string]any, 2)
	if h.Schema.TypeField != "" {
		payload[h.Schema.Kind+"_types"] = h.Schema.Types
	}
	payload[h.Schema.Kind+"_statuses"] = h.Schema.Statuses
	writeJSON(w, http.StatusOK, payload)
}

// recordView renders a record as its flat JSON representation.
func (h *ResourceHandler) recordView(rec models.Record) map[string]any {
	view := map[string]any{
		"id":          rec.ID,
		"user":        rec.OwnerID,
		"date":        rec.Date.Format(schema.DateLayout),
		"status":      rec.Status,
		"description": rec.Description,
		"created_at":  rec.CreatedAt,
	}
	if h.Schema.TypeField != "" {
		view[h.Schema.TypeField] = rec.Type
	}
	for _, f := range h.Schema.Fields {
		view[f.Name] = rec.Fields[f.Name]
	}
	return view
}

func (h *ResourceHandler) writeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, models.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrConflict):
		writeDetail(w, http.StatusConflict, "duplicate record")
	default:
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var input map[string]any
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return input, true
}

// recordID extracts and validates the id path parameter. A value that is
// not a UUID cannot name any record, so it is reported as not found.
func recordID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeDetail(w, http.StatusNotFound, "not found")
		return "", false
	}
	return id, true
}
