package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-local-platform/internal/api/handlers"
	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/pricing"
	"bridge-local-platform/internal/services"
	"bridge-local-platform/internal/storage/memory"
	"bridge-local-platform/internal/transport/dto"
)

type jobTestEnv struct {
	router *gin.Engine
	store  *memory.Store
	repos  *services.Repos
	jobs   *services.JobService
}

// newJobTestEnv wires the public job routes against the in-memory store, with
// one active contractor so intake lands in offering_contractors.
func newJobTestEnv(t *testing.T) *jobTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := memory.NewStore()
	repos := &services.Repos{
		Users:             store.Users(),
		Cities:            store.Cities(),
		ServiceCategories: store.ServiceCategories(),
		Jobs:              store.Jobs(),
		JobEvents:         store.JobEvents(),
		Contractors:       store.Contractors(),
		Quotes:            store.Quotes(),
		Payments:          store.Payments(),
		Payouts:           store.Payouts(),
		Notifications:     store.Notifications(),
	}
	flags := services.DefaultPlatformFlags()
	notifier := services.NewNotifier(repos.Notifications, repos.Users, nil)
	sm := services.NewStateMachine(repos, notifier, flags)
	paymentService := services.NewPaymentService(repos, sm, nil, notifier, flags)
	quoteService := services.NewQuoteService(repos, sm, paymentService, notifier)
	jobService := services.NewJobService(repos, sm, &pricing.StaticSource{}, notifier, flags)

	city := models.City{ID: uuid.New(), Slug: "abq", Name: "Albuquerque", Active: true}
	require.NoError(t, repos.Cities.Create(ctx, &city))
	category := models.ServiceCategory{ID: uuid.New(), Slug: "handyman", DisplayName: "Handyman"}
	require.NoError(t, repos.ServiceCategories.Create(ctx, &category))

	user, err := repos.Users.Create(ctx, &models.User{
		ID: uuid.New(), Name: "Alex", Email: "alex@example.com",
		Role: models.RoleContractor, PasswordHash: "x",
	})
	require.NoError(t, err)
	_, err = repos.Contractors.Create(ctx, &models.ContractorProfile{
		ID: uuid.New(), UserID: user.ID, CityID: city.ID, BaseZip: "87102",
		RadiusMiles: 20, Services: []uuid.UUID{category.ID},
		Status: models.ContractorStatusActive, PublicName: "Alex",
	})
	require.NoError(t, err)

	validate := validator.New()
	jobHandler := handlers.NewJobHandler(jobService, quoteService, paymentService, validate)

	router := gin.New()
	jobs := router.Group("/api/v1/jobs")
	jobs.POST("", jobHandler.CreateJob)
	jobs.GET("/:id/status", jobHandler.GetStatus)
	jobs.POST("/:id/approve-quote", jobHandler.ApproveQuote)

	return &jobTestEnv{router: router, store: store, repos: repos, jobs: jobService}
}

func (e *jobTestEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func validCreatePayload() map[string]any {
	return map[string]any{
		"city_slug":             "abq",
		"service_category_slug": "handyman",
		"description":           "Fix a leaking faucet",
		"zip":                   "87102",
		"preferred_timing":      "asap",
		"client_name":           "Pat Client",
		"client_email":          "pat@example.com",
	}
}

func TestCreateJobEndpoint(t *testing.T) {
	env := newJobTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/jobs", validCreatePayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.CreateJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(models.JobStatusOfferingContractors), resp.Status)
	assert.Len(t, resp.ClientViewToken, 32)
	assert.NotEmpty(t, resp.JobID)
}

func TestCreateJobValidation(t *testing.T) {
	env := newJobTestEnv(t)

	payload := validCreatePayload()
	delete(payload, "client_email")
	rec := env.do(http.MethodPost, "/api/v1/jobs", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	payload = validCreatePayload()
	payload["preferred_timing"] = "someday"
	rec = env.do(http.MethodPost, "/api/v1/jobs", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	payload = validCreatePayload()
	payload["city_slug"] = "atlantis"
	rec = env.do(http.MethodPost, "/api/v1/jobs", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStatusEndpointTokenGate(t *testing.T) {
	env := newJobTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/jobs", validCreatePayload())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created dto.CreateJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = env.do(http.MethodGet, "/api/v1/jobs/"+created.JobID+"/status?token="+created.ClientViewToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var status dto.JobStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, created.JobID, status.JobID)

	rec = env.do(http.MethodGet, "/api/v1/jobs/"+created.JobID+"/status?token=wrong", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/jobs/"+uuid.NewString()+"/status?token="+created.ClientViewToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/jobs/not-a-uuid/status?token=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveQuoteEndpointInvalidState(t *testing.T) {
	env := newJobTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/jobs", validCreatePayload())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created dto.CreateJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// No quote was ever sent; approval is a 400.
	rec = env.do(http.MethodPost, "/api/v1/jobs/"+created.JobID+"/approve-quote",
		map[string]any{"token": created.ClientViewToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
