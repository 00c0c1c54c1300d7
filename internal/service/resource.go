package service

import (
	"context"

	"github.com/avolkova/healthtrack/internal/models"
	"github.com/avolkova/healthtrack/internal/schema"
)

// RecordRepository defines the persistence operations needed by the
// ResourceService. Every operation is scoped by the owner's user ID.
type RecordRepository interface {
	// Create stores a new record, assigning its ID and creation timestamp.
	Create(ctx context.Context, rec models.Record) (models.Record, error)
	// List fetches the owner's records of a kind, filtered and ordered.
	List(ctx context.Context, ownerID, kind string, filter models.ListFilter, ordering []models.OrderBy) ([]models.Record, error)
	// Get fetches one record by ID, or models.ErrNotFound.
	Get(ctx context.Context, ownerID, kind, id string) (models.Record, error)
	// Update persists the mutable fields of rec, or models.ErrNotFound.
	Update(ctx context.Context, rec models.Record) error
	// Delete permanently removes a record, or models.ErrNotFound.
	Delete(ctx context.Context, ownerID, kind, id string) error
}

// ResourceService is the generic per-kind orchestration over schema
// validation and the record repository. One instance serves one resource
// kind; the three kinds are three instances of this type differing only
// in their schema.
type ResourceService struct {
	schema *schema.Schema
	repo   RecordRepository
}

// NewResourceService constructs a ResourceService for the given schema.
func NewResourceService(s *schema.Schema, repo RecordRepository) *ResourceService {
	return &ResourceService{schema: s, repo: repo}
}

// Schema exposes the schema this service is bound to.
func (s *ResourceService) Schema() *schema.Schema {
	return s.schema
}

// Create validates the input and stores a new record owned by ownerID.
// The owner is always taken from the authenticated caller; any owner
// value in the input is ignored. Nothing is persisted on validation
// failure.
func (s *ResourceService) Create(ctx context.Context, ownerID string, input map[string]any) (models.Record, error) {
	rec, err := s.schema.Validate(input)
	if err != nil {
		return models.Record{}, err
	}
	rec.OwnerID = ownerID
	return s.repo.Create(ctx, rec)
}

// List returns the owner's records narrowed by filter and sorted by the
// given ordering terms.
func (s *ResourceService) List(ctx context.Context, ownerID string, filter models.ListFilter, ordering []models.OrderBy) ([]models.Record, error) {
	return s.repo.List(ctx, ownerID, s.schema.Kind, filter, ordering)
}

// Get fetches one of the owner's records by ID.
func (s *ResourceService) Get(ctx context.Context, ownerID, id string) (models.Record, error) {
	return s.repo.Get(ctx, ownerID, s.schema.Kind, id)
}

// Replace performs a full update of the record's mutable fields. The
// identifier, owner, and creation timestamp of the stored record are
// preserved regardless of the input.
func (s *ResourceService) Replace(ctx context.Context, ownerID, id string, input map[string]any) (models.Record, error) {
	existing, err := s.repo.Get(ctx, ownerID, s.schema.Kind, id)
	if err != nil {
		return models.Record{}, err
	}

	rec, err := s.schema.Validate(input)
	if err != nil {
		return models.Record{}, err
	}
	rec.ID = existing.ID
	rec.OwnerID = existing.OwnerID
	rec.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, rec); err != nil {
		return models.Record{}, err
	}
	return rec, nil
}

// Patch applies a partial update: only fields present in the input are
// validated and changed, everything else keeps its stored value.
func (s *ResourceService) Patch(ctx context.Context, ownerID, id string, input map[string]any) (models.Record, error) {
	rec, err := s.repo.Get(ctx, ownerID, s.schema.Kind, id)
	if err != nil {
		return models.Record{}, err
	}

	if err := s.schema.ValidatePartial(&rec, input); err != nil {
		return models.Record{}, err
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return models.Record{}, err
	}
	return rec, nil
}

// Delete permanently removes one of the owner's records.
func (s *ResourceService) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.Delete(ctx, ownerID, s.schema.Kind, id)
}
