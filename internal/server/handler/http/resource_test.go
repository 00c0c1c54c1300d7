package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avolkova/healthtrack/internal/middleware"
	"github.com/avolkova/healthtrack/internal/models"
	"github.com/avolkova/healthtrack/internal/schema"
	"github.com/avolkova/healthtrack/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	callerID = "11111111-1111-4111-8111-111111111111"
	knownID  = "22222222-2222-4222-8222-222222222222"
)

// fakeRecordRepo implements service.RecordRepository for handler tests.
type fakeRecordRepo struct {
	created []models.Record
	updated []models.Record
	deleted []string

	getResult  models.Record
	getErr     error
	createErr  error
	deleteErr  error
	listResult []models.Record

	lastFilter   models.ListFilter
	lastOrdering []models.OrderBy
}

func (f *fakeRecordRepo) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	if f.createErr != nil {
		return models.Record{}, f.createErr
	}
	rec.ID = knownID
	rec.CreatedAt = time.Date(2025, 10, 29, 12, 0, 0, 0, time.UTC)
	f.created = append(f.created, rec)
	return rec, nil
}

func (f *fakeRecordRepo) List(ctx context.Context, ownerID, kind string, filter models.ListFilter, ordering []models.OrderBy) ([]models.Record, error) {
	f.lastFilter, f.lastOrdering = filter, ordering
	return f.listResult, nil
}

func (f *fakeRecordRepo) Get(ctx context.Context, ownerID, kind, id string) (models.Record, error) {
	return f.getResult, f.getErr
}

func (f *fakeRecordRepo) Update(ctx context.Context, rec models.Record) error {
	f.updated = append(f.updated, rec)
	return nil
}

func (f *fakeRecordRepo) Delete(ctx context.Context, ownerID, kind, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

// newTestRouter mounts the handler behind a middleware that injects the
// caller identity, standing in for the bearer-token middleware.
func newTestRouter(s *schema.Schema, repo *fakeRecordRepo) http.Handler {
	h := &ResourceHandler{
		Service: service.NewResourceService(s, repo),
		Schema:  s,
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), callerID)))
		})
	})
	h.Mount(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestCreateWorkout(t *testing.T) {
	repo := &fakeRecordRepo{}
	router := newTestRouter(schema.Workout, repo)

	rec := doJSON(t, router, "POST", "/workouts/", `{
		"date": "2025-10-29",
		"workout_type": "strength",
		"duration": 45,
		"calories_burned": 180,
		"user": "intruder"
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, "strength", body["workout_type"])
	assert.Equal(t, "planned", body["status"])
	assert.Equal(t, "2025-10-29", body["date"])
	assert.Equal(t, callerID, body["user"], "owner comes from the caller, not the body")
	assert.Equal(t, float64(45), body["duration"])
	require.Len(t, repo.created, 1)
	assert.Equal(t, callerID, repo.created[0].OwnerID)
}

func TestCreateSteps_NegativeTotalSteps(t *testing.T) {
	repo := &fakeRecordRepo{}
	router := newTestRouter(schema.Steps, repo)

	rec := doJSON(t, router, "POST", "/steps/", `{"date": "2025-10-29", "total_steps": -100}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeMap(t, rec)
	assert.Contains(t, body, "total_steps")
	assert.Empty(t, repo.created, "no record created on validation failure")
}

func TestCreate_DuplicateConflict(t *testing.T) {
	repo := &fakeRecordRepo{createErr: models.ErrConflict}
	router := newTestRouter(schema.Workout, repo)

	rec := doJSON(t, router, "POST", "/workouts/", `{
		"date": "2025-10-29",
		"workout_type": "strength",
		"duration": 45,
		"calories_burned": 180
	}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGet_NotFoundForOtherOwner(t *testing.T) {
	repo := &fakeRecordRepo{getErr: models.ErrNotFound}
	router := newTestRouter(schema.Workout, repo)

	rec := doJSON(t, router, "GET", "/workouts/"+knownID+"/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGet_NonUUIDIsNotFound(t *testing.T) {
	repo := &fakeRecordRepo{}
	router := newTestRouter(schema.Workout, repo)

	rec := doJSON(t, router, "GET", "/workouts/not-a-uuid/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchWorkoutStatus(t *testing.T) {
	repo := &fakeRecordRepo{getResult: models.Record{
		ID:        knownID,
		OwnerID:   callerID,
		Kind:      "workout",
		Date:      time.Date(2025, 10, 29, 0, 0, 0, 0, time.UTC),
		Type:      "strength",
		Status:    "planned",
		Fields:    map[string]any{"duration": int64(45), "calories_burned": int64(180)},
		CreatedAt: time.Date(2025, 10, 29, 12, 0, 0, 0, time.UTC),
	}}
	router := newTestRouter(schema.Workout, repo)

	rec := doJSON(t, router, "PATCH", "/workouts/"+knownID+"/", `{"status": "in_progress"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, "in_progress", body["status"])
	// everything else unchanged
	assert.Equal(t, "strength", body["workout_type"])
	assert.Equal(t, float64(45), body["duration"])
	require.Len(t, repo.updated, 1)
	assert.Equal(t, "in_progress", repo.updated[0].Status)
}

func TestPutMeal_FullReplace(t *testing.T) {
	repo := &fakeRecordRepo{getResult: models.Record{
		ID:        knownID,
		OwnerID:   callerID,
		Kind:      "meal",
		Date:      time.Date(2025, 10, 28, 0, 0, 0, 0, time.UTC),
		Type:      "lunch",
		Status:    "planned",
		Fields:    map[string]any{"food_name": "soup", "calories": int64(300)},
		CreatedAt: time.Date(2025, 10, 28, 12, 0, 0, 0, time.UTC),
	}}
	router := newTestRouter(schema.Meal, repo)

	rec := doJSON(t, router, "PUT", "/meals/"+knownID+"/", `{
		"date": "2025-10-28",
		"meal_type": "dinner",
		"food_name": "pasta",
		"calories": 600,
		"status": "consumed"
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	assert.Equal(t, "dinner", body["meal_type"])
	assert.Equal(t, "pasta", body["food_name"])
	assert.Equal(t, "consumed", body["status"])
	assert.Equal(t, knownID, body["id"])
}

func TestDelete(t *testing.T) {
	repo := &fakeRecordRepo{}
	router := newTestRouter(schema.Steps, repo)

	rec := doJSON(t, router, "DELETE", "/steps/"+knownID+"/", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{knownID}, repo.deleted)
}

func TestDelete_NotFound(t *testing.T) {
	repo := &fakeRecordRepo{deleteErr: models.ErrNotFound}
	router := newTestRouter(schema.Steps, repo)

	rec := doJSON(t, router, "DELETE", "/steps/"+knownID+"/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestList_QueryParameters(t *testing.T) {
	repo := &fakeRecordRepo{listResult: []models.Record{}}
	router := newTestRouter(schema.Workout, repo)

	rec := doJSON(t, router, "GET", "/workouts/?date=2025-10-29&workout_type=cardio&status=completed&ordering=-duration", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// empty result renders as an empty array, not null
	assert.JSONEq(t, "[]", rec.Body.String())

	require.NotNil(t, repo.lastFilter.Date)
	assert.Equal(t, "2025-10-29", repo.lastFilter.Date.Format(schema.DateLayout))
	assert.Equal(t, "cardio", repo.lastFilter.Type)
	assert.Equal(t, "completed", repo.lastFilter.Status)
	require.Len(t, repo.lastOrdering, 3)
	assert.Equal(t, models.OrderBy{Field: "duration", Desc: true}, repo.lastOrdering[0])
}

func TestList_BadDate(t *testing.T) {
	repo := &fakeRecordRepo{}
	router := newTestRouter(schema.Workout, repo)

	rec := doJSON(t, router, "GET", "/workouts/?date=29-10-2025", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeMap(t, rec)
	assert.Contains(t, body, "date")
}

func TestChoices_Workout(t *testing.T) {
	router := newTestRouter(schema.Workout, &fakeRecordRepo{})

	rec := doJSON(t, router, "GET", "/workout-choices/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		WorkoutTypes    []schema.Choice `json:"workout_types"`
		WorkoutStatuses []schema.Choice `json:"workout_statuses"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	values := make([]string, 0, len(body.WorkoutTypes))
	for _, c := range body.WorkoutTypes {
		values = append(values, c.Value)
	}
	assert.Equal(t, []string{"cardio", "strength", "yoga", "pilates", "sports", "other"}, values)
	assert.Equal(t, schema.Choice{Value: "in_progress", Label: "In Progress"}, body.WorkoutStatuses[1])
}

func TestChoices_StepsOmitsTypes(t *testing.T) {
	router := newTestRouter(schema.Steps, &fakeRecordRepo{})

	rec := doJSON(t, router, "GET", "/steps-choices/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeMap(t, rec)
	assert.Contains(t, body, "steps_statuses")
	assert.NotContains(t, body, "steps_types")
}
