package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fleetcheck-backend/config"
	"fleetcheck-backend/internal/checklist"
	"fleetcheck-backend/internal/db"
	"fleetcheck-backend/internal/model"
	"fleetcheck-backend/internal/store"
	"fleetcheck-backend/internal/template"
)

func testDSN(t *testing.T) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
}

// setupRouter wires the full API against an in-memory database, sharing one
// cache between the response middleware and the lifecycle invalidator.
func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open(testDSN(t)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(testDB))

	appStore := store.NewGormStore(testDB)
	resolver := template.NewResolver(appStore, nil)
	responseCache := gocache.New(time.Minute, 2*time.Minute)
	svc := checklist.NewService(appStore, resolver, checklist.NewInvalidator(responseCache))

	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	handler := NewHandler(appStore, svc, loc)

	cfg := &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 60,
	}
	return NewRouter(handler, responseCache, cfg), testDB
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(payload))
	} else {
		reader = strings.NewReader("")
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func exitBody(vehicleID int64) map[string]any {
	return map[string]any{
		"vehicleId":      vehicleID,
		"userId":         10,
		"kmInitial":      1000,
		"fuelLevelStart": "1/2",
		"startDate":      "2023-06-01T08:00:00Z",
		"inspectionStart": map[string]any{
			"pneus": true,
		},
	}
}

func returnBody() map[string]any {
	m := map[string]any{}
	for _, item := range template.BuiltinLegacyItems() {
		m[item.Key] = true
	}
	return map[string]any{
		"kmFinal":       1100,
		"fuelLevelEnd":  "1/4",
		"endDate":       "2023-06-01T17:30:00Z",
		"inspectionEnd": m,
	}
}

func TestPostExitAndConflict(t *testing.T) {
	router, testDB := setupRouter(t)
	require.NoError(t, testDB.Create(&model.Vehicle{ID: 1, Plate: "ABC1D23"}).Error)

	w := doJSON(t, router, "POST", "/api/checklists", exitBody(1))
	assert.Equal(t, http.StatusCreated, w.Code)

	var created model.ChecklistRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, model.ChecklistOpenStatus, created.Status)
	assert.NotEmpty(t, created.ID)

	// Same vehicle, still out: conflict.
	w = doJSON(t, router, "POST", "/api/checklists", exitBody(1))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPostExitValidation(t *testing.T) {
	router, testDB := setupRouter(t)
	require.NoError(t, testDB.Create(&model.Vehicle{ID: 1, Plate: "ABC1D23"}).Error)

	body := exitBody(1)
	delete(body, "kmInitial")
	w := doJSON(t, router, "POST", "/api/checklists", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = exitBody(1)
	body["fuelLevelStart"] = "brimming"
	w = doJSON(t, router, "POST", "/api/checklists", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/api/checklists", exitBody(99))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostReturnLifecycle(t *testing.T) {
	router, testDB := setupRouter(t)
	require.NoError(t, testDB.Create(&model.Vehicle{ID: 1, Plate: "ABC1D23", Mileage: 900}).Error)

	w := doJSON(t, router, "POST", "/api/checklists", exitBody(1))
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.ChecklistRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, "POST", "/api/checklists/"+created.ID+"/return", returnBody())
	assert.Equal(t, http.StatusOK, w.Code)

	var closed model.ChecklistRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	assert.Equal(t, model.ChecklistClosedStatus, closed.Status)

	// Closing again is a validation failure, not a conflict.
	w = doJSON(t, router, "POST", "/api/checklists/"+created.ID+"/return", returnBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "POST", "/api/checklists/no-such-id/return", returnBody())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetChecklistsStatusFilter(t *testing.T) {
	router, testDB := setupRouter(t)
	require.NoError(t, testDB.Create(&model.Vehicle{ID: 1, Plate: "ABC1D23"}).Error)

	w := doJSON(t, router, "POST", "/api/checklists", exitBody(1))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "GET", "/api/checklists?status=open", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var records []model.ChecklistRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 1)

	w = doJSON(t, router, "GET", "/api/checklists?status=parked", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetChecklistResolvesItems(t *testing.T) {
	router, testDB := setupRouter(t)
	require.NoError(t, testDB.Create(&model.Vehicle{ID: 1, Plate: "ABC1D23"}).Error)

	w := doJSON(t, router, "POST", "/api/checklists", exitBody(1))
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.ChecklistRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, "GET", "/api/checklists/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID     string               `json:"id"`
		Items  []model.TemplateItem `json:"items"`
		Source string               `json:"source"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, created.ID, resp.ID)
	assert.Equal(t, template.SourceLegacy, resp.Source)
	assert.NotEmpty(t, resp.Items)

	w = doJSON(t, router, "GET", "/api/checklists/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetChecklistEmptyTemplateRendersEmptyItems(t *testing.T) {
	router, testDB := setupRouter(t)
	require.NoError(t, testDB.Create(&model.ChecklistTemplate{ID: 3, Name: "Vazio"}).Error)
	templateID := int64(3)
	require.NoError(t, testDB.Create(&model.VehicleType{ID: 2, Name: "Empilhadeira", ChecklistTemplateID: &templateID}).Error)
	typeID := int64(2)
	require.NoError(t, testDB.Create(&model.Vehicle{ID: 1, Plate: "EMP0A01", VehicleTypeID: &typeID}).Error)

	w := doJSON(t, router, "POST", "/api/checklists", exitBody(1))
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.ChecklistRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, "GET", "/api/checklists/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `"items":[]`)
	assert.NotContains(t, body, `"items":null`)
}

func TestGetVehicleMileageReflectsReturn(t *testing.T) {
	router, testDB := setupRouter(t)
	require.NoError(t, testDB.Create(&model.Vehicle{ID: 1, Plate: "ABC1D23", Mileage: 900}).Error)

	w := doJSON(t, router, "GET", "/api/vehicles/1/mileage", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mileage":900`)

	w = doJSON(t, router, "POST", "/api/checklists", exitBody(1))
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.ChecklistRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	w = doJSON(t, router, "POST", "/api/checklists/"+created.ID+"/return", returnBody())
	require.Equal(t, http.StatusOK, w.Code)

	// The return invalidated the cached view, so the new mileage shows up.
	w = doJSON(t, router, "GET", "/api/vehicles/1/mileage", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mileage":1100`)
}

func TestGetVehicle(t *testing.T) {
	router, testDB := setupRouter(t)
	require.NoError(t, testDB.Create(&model.Vehicle{ID: 1, Plate: "ABC1D23"}).Error)

	w := doJSON(t, router, "GET", "/api/vehicles/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"plate":"ABC1D23"`)

	w = doJSON(t, router, "GET", "/api/vehicles/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "GET", "/api/vehicles/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTemplateItems(t *testing.T) {
	router, testDB := setupRouter(t)
	require.NoError(t, testDB.Create(&model.ChecklistTemplate{ID: 1, Name: "Vans"}).Error)
	require.NoError(t, testDB.Create(&model.TemplateItem{ID: 1, TemplateID: 1, Key: "rampa", Label: "Rampa", Column: 1, Position: 1}).Error)

	w := doJSON(t, router, "GET", "/api/templates/1/items", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rampa"`)

	w = doJSON(t, router, "GET", "/api/templates/99/items", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFleetAnalytics(t *testing.T) {
	router, testDB := setupRouter(t)
	require.NoError(t, testDB.Create(&model.Vehicle{ID: 1, Plate: "ABC1D23", Status: model.VehicleActive}).Error)

	w := doJSON(t, router, "POST", "/api/checklists", exitBody(1))
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.ChecklistRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	w = doJSON(t, router, "POST", "/api/checklists/"+created.ID+"/return", returnBody())
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/api/analytics/fleet", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var summary struct {
		TotalChecklists int     `json:"totalChecklists"`
		ClosedCount     int     `json:"closedCount"`
		TotalKm         float64 `json:"totalKm"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalChecklists)
	assert.Equal(t, 1, summary.ClosedCount)
	assert.Equal(t, float64(100), summary.TotalKm)

	// The same day in the reference zone keeps the record in range.
	w = doJSON(t, router, "GET", "/api/analytics/fleet?start=2023-06-01&end=2023-06-01", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalChecklists)

	w = doJSON(t, router, "GET", "/api/analytics/fleet?start=06/01/2023", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
