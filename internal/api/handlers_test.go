package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/api"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/database"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/jwt"
	infralogger "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/lexicon"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/processor"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/telemetry"
)

const testSecret = "api-test-secret"

type testEnv struct {
	router *gin.Engine
	lex    *lexicon.Lexicon
}

type envOptions struct {
	withDB      bool
	jwtSecret   string
	rateLimiter *processor.RateLimiter
}

func setupTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	lex, err := lexicon.Default()
	require.NoError(t, err)
	engine, err := classifier.NewEngine(lex, classifier.DefaultOptions())
	require.NoError(t, err)

	logger := infralogger.NewNop()
	tp := telemetry.NewProvider()
	service := classifier.NewService(engine, logger, classifier.ServiceConfig{Telemetry: tp})
	batch := processor.NewBatchProcessor(service, 4, nil, tp, logger)

	handlerCfg := api.HandlerConfig{MaxBatchItems: 3, Telemetry: tp}
	if opts.withDB {
		ctx := context.Background()
		db, dbErr := database.Open(ctx,
			database.Config{Driver: database.DriverSQLite, Path: ":memory:"},
			retry.Config{MaxAttempts: 1},
		)
		require.NoError(t, dbErr)
		t.Cleanup(func() { _ = db.Close() })
		require.NoError(t, database.EnsureSchema(ctx, db))
		handlerCfg.Selections = database.NewSelectionRepository(db)
	}

	handler := api.NewHandler(service, batch, handlerCfg, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api.SetupServiceRoutes(router, handler, api.RouteOptions{
		JWTSecret:   opts.jwtSecret,
		RateLimiter: opts.rateLimiter,
		Telemetry:   tp,
	})

	return &testEnv{router: router, lex: lex}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestReadyCheck(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(t, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, env.lex.Version, body["lexicon_version"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	env.do(t, http.MethodPost, "/api/v1/classify", `{"description":"trasportatore a nastro"}`)
	w := env.do(t, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tariff_classifications_total")
}

func TestClassify(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(t, http.MethodPost, "/api/v1/classify",
		`{"description":"Pressa idraulica per stampaggio lamiera"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[domain.ClassificationResponse](t, w)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "8462", resp.Results[0].HSCode)
	assert.InDelta(t, 1.0, resp.Results[0].Confidence, 1e-9)
	assert.Equal(t, "pressatura_stampaggio", resp.FunctionCategory)
	assert.Equal(t, env.lex.Version, resp.LexiconVersion)
	assert.Contains(t, resp.Results[0].Rationale, "pressa")
}

func TestClassify_EmptyDescription(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(t, http.MethodPost, "/api/v1/classify", `{"description":"   "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, mustField(t, w.Body.Bytes(), "results"))
}

func TestClassify_BadRequests(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	testCases := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"description":`},
		{name: "unknown field", body: `{"description":"pressa","colour":"red"}`},
		{name: "description too long", body: `{"description":"` + strings.Repeat("a", 2001) + `"}`},
		{name: "type hint too long", body: `{"description":"pressa","type_hint":"` + strings.Repeat("b", 201) + `"}`},
		{name: "empty body", body: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/classify", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestStrictDecodingLeavesGinDefaults(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	for _, tc := range []struct{ path, body string }{
		{"/api/v1/classify", `{"description":"pressa","colour":"red"}`},
		{"/api/v1/classify/batch", `{"items":[{"description":"pressa","extra":1}]}`},
		{"/api/v1/functions/infer", `{"description":"tornio","hint":"x"}`},
	} {
		w := env.do(t, http.MethodPost, tc.path, tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.path)
	}

	// Strict decoding is local to these handlers; gin's global binding is untouched.
	assert.False(t, binding.EnableDecoderDisallowUnknownFields)
}

func TestClassifyBatch(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(t, http.MethodPost, "/api/v1/classify/batch", `{"items":[
		{"description":"trasportatore a nastro per movimentazione pallet"},
		{"description":"xyz non pertinente 123"},
		{"description":"saldatrice mig","function_hint":"saldatura"}
	]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[api.BatchClassifyResponse](t, w)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 3, resp.Success)
	assert.Zero(t, resp.Failed)
	require.Len(t, resp.Results, 3)

	for i, r := range resp.Results {
		assert.Equal(t, i, r.Index)
		require.NotNil(t, r.Response)
	}
	assert.Equal(t, "8428", resp.Results[0].Response.Results[0].HSCode)
	assert.Empty(t, resp.Results[1].Response.Results)
	assert.Equal(t, "saldatura", resp.Results[2].Response.FunctionCategory)
}

func TestClassifyBatch_Limits(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(t, http.MethodPost, "/api/v1/classify/batch", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tooMany := `{"items":[{"description":"a"},{"description":"b"},{"description":"c"},{"description":"d"}]}`
	w = env.do(t, http.MethodPost, "/api/v1/classify/batch", tooMany)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too many items")
}

func TestInferFunction(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(t, http.MethodPost, "/api/v1/functions/infer", `{"description":"Tornio CNC a 2 assi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[api.InferFunctionResponse](t, w)
	require.NotNil(t, resp.FunctionCategory)
	assert.Equal(t, "tornitura_fresatura", *resp.FunctionCategory)
	require.NotNil(t, resp.Label)

	w = env.do(t, http.MethodPost, "/api/v1/functions/infer", `{"description":"oggetto misterioso"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"function_category":null,"label":null}`, w.Body.String())
}

func TestListFunctionsAndLexicon(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(t, http.MethodGet, "/api/v1/functions", "")
	require.Equal(t, http.StatusOK, w.Code)
	functions := decode[api.FunctionsResponse](t, w)
	require.Len(t, functions.Functions, len(env.lex.FunctionCategories))
	assert.Equal(t, env.lex.FunctionCategories[0].ID, functions.Functions[0].ID)

	w = env.do(t, http.MethodGet, "/api/v1/lexicon", "")
	require.Equal(t, http.StatusOK, w.Code)
	lex := decode[api.LexiconResponse](t, w)
	assert.Equal(t, env.lex.Version, lex.Version)
	assert.Equal(t, env.lex.Checksum, lex.Checksum)
	assert.Equal(t, len(env.lex.Entries), lex.Total)
	assert.Len(t, lex.Entries, lex.Total)
}

func TestSelectionRoutes_DisabledWithoutDatabase(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(t, http.MethodPost, "/api/v1/selections", `{"pratica_id":"p1","hs_code":"8462"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSelections_CRUD(t *testing.T) {
	env := setupTestEnv(t, envOptions{withDB: true, jwtSecret: testSecret})
	auth := []string{"Authorization", "Bearer " + signToken(t, "operator@example.com")}

	w := env.do(t, http.MethodPost, "/api/v1/selections", `{
		"pratica_id": "pratica-42",
		"machinery_id": "m-7",
		"hs_code": "8462.61",
		"description": "Pressa idraulica per lamiera",
		"confidence": 0.8,
		"duty_rate": 1.7,
		"vat_rate": 22
	}`, auth...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[api.SelectionResponse](t, w)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "operator@example.com", created.SelectedBy)
	assert.Equal(t, env.lex.Version, created.LexiconVersion)
	require.NotNil(t, created.MachineryID)
	assert.Equal(t, "m-7", *created.MachineryID)

	w = env.do(t, http.MethodGet, "/api/v1/selections/"+created.ID, "", auth...)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[api.SelectionResponse](t, w)
	assert.Equal(t, created.HSCode, got.HSCode)
	assert.InDelta(t, 22.0, got.VATRate, 1e-9)

	w = env.do(t, http.MethodGet, "/api/v1/pratiche/pratica-42/selections", "", auth...)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[api.SelectionsListResponse](t, w)
	assert.Equal(t, 1, list.Total)

	w = env.do(t, http.MethodDelete, "/api/v1/selections/"+created.ID, "", auth...)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/selections/"+created.ID, "", auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/selections/"+created.ID, "", auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSelections_Validation(t *testing.T) {
	env := setupTestEnv(t, envOptions{withDB: true})

	testCases := []struct {
		name string
		body string
	}{
		{name: "missing pratica", body: `{"hs_code":"8462","duty_rate":0,"vat_rate":22}`},
		{name: "malformed hs code", body: `{"pratica_id":"p","hs_code":"84-62","vat_rate":22}`},
		{name: "vat out of range", body: `{"pratica_id":"p","hs_code":"8462","vat_rate":122}`},
		{name: "confidence out of range", body: `{"pratica_id":"p","hs_code":"8462","confidence":1.5}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/selections", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupTestEnv(t, envOptions{jwtSecret: testSecret})

	w := env.do(t, http.MethodPost, "/api/v1/classify", `{"description":"pressa"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/classify", `{"description":"pressa"}`,
		"Authorization", "Bearer "+signToken(t, "svc"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code, "readiness stays public")
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := processor.NewRateLimiter(1, 1, nil)
	env := setupTestEnv(t, envOptions{rateLimiter: limiter})

	w := env.do(t, http.MethodGet, "/api/v1/functions", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/functions", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwt.Claims{
		Sub: sub,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func mustField(t *testing.T, body []byte, field string) string {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &raw))
	v, ok := raw[field]
	require.True(t, ok, "missing field %q", field)
	return string(v)
}
