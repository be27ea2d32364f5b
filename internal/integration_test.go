package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fleetcheck-backend/config"
	"fleetcheck-backend/internal/checklist"
	"fleetcheck-backend/internal/db"
	"fleetcheck-backend/internal/model"
	"fleetcheck-backend/internal/settings"
	"fleetcheck-backend/internal/store"
	"fleetcheck-backend/internal/template"
)

// TestChecklistLifecycle simulates the entire lifecycle of a vehicle's
// checklist record, from exit to return, and verifies the database state at
// each step. The legacy item configuration comes from a mocked remote
// settings service.
func TestChecklistLifecycle(t *testing.T) {
	// --- Test Setup ---

	// 1. Setup an in-memory SQLite database for testing.
	testDB, err := gorm.Open(sqlite.Open("file:lifecycle?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to the in-memory database: %v", err)
	}
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, db.Migrate(testDB))

	// 2. Mock server to simulate the remote settings service. It overrides
	// the built-in legacy items with a two-item configuration.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/settings/obs_config", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(map[string]any{
			"key": settings.LegacyConfigKey,
			"value": []settings.LegacyItem{
				{Key: "pneus", Label: "Pneus calibrados", Column: 1, Group: "exterior", Position: 1},
				{Key: "freios", Label: "Freios respondendo", Column: 2, Group: "mecanica", Position: 2},
			},
		})
		assert.NoError(t, err)
	}))
	defer server.Close()

	settingsClient := settings.NewClient(&config.SettingsConfig{
		BaseURL:         server.URL,
		Timeout:         2 * time.Second,
		CacheTTLSeconds: 60,
	})

	// 3. Instantiate the store, resolver and lifecycle service.
	gormStore := store.NewGormStore(testDB)
	resolver := template.NewResolver(gormStore, settingsClient)
	svc := checklist.NewService(gormStore, resolver, nil)

	// 4. Pre-populate the database with a vehicle to be tested.
	vehicle := model.Vehicle{ID: 101, Plate: "FLT1A01", Brand: "Fiat", Model: "Fiorino", Mileage: 4200, Status: model.VehicleActive}
	require.NoError(t, testDB.Create(&vehicle).Error)

	var recordID string

	// --- Cycle 1: Vehicle exits the yard ---
	t.Run("Cycle 1: Vehicle Exits", func(t *testing.T) {
		rec, err := svc.Exit(context.Background(), checklist.ExitRequest{
			VehicleID:       101,
			UserID:          7,
			KmInitial:       4200,
			FuelLevelStart:  model.FuelFull,
			StartDate:       time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC),
			InspectionStart: map[string]any{"pneus": true, "freios": true},
		})
		require.NoError(t, err)
		recordID = rec.ID

		var open model.ChecklistOpen
		err = testDB.Where("vehicle_id = ?", 101).First(&open).Error
		assert.NoError(t, err, "Expected to find one record in checklist_opens")
		assert.Equal(t, rec.ID, open.ChecklistID)

		var stored model.ChecklistRecord
		require.NoError(t, testDB.First(&stored, "id = ?", rec.ID).Error)
		assert.Equal(t, model.ChecklistOpenStatus, stored.Status)
		assert.Nil(t, stored.KmFinal)

		// A second exit while the vehicle is out must lose atomically.
		_, err = svc.Exit(context.Background(), checklist.ExitRequest{
			VehicleID:      101,
			UserID:         8,
			KmInitial:      4200,
			FuelLevelStart: model.FuelHalf,
			StartDate:      time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, store.ErrVehicleInUse)
	})

	// --- Cycle 2: Return validates against the remote item set ---
	t.Run("Cycle 2: Return Requires Remote Items", func(t *testing.T) {
		// The remote configuration requires "freios"; leaving it unset fails
		// and must leave the record open.
		_, err := svc.Return(context.Background(), checklist.ReturnRequest{
			ChecklistID:   recordID,
			KmFinal:       4350,
			FuelLevelEnd:  model.FuelHalf,
			EndDate:       time.Date(2023, 6, 1, 17, 0, 0, 0, time.UTC),
			InspectionEnd: map[string]any{"pneus": true},
		})
		var verr *checklist.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "freios", verr.Field)

		var stored model.ChecklistRecord
		require.NoError(t, testDB.First(&stored, "id = ?", recordID).Error)
		assert.Equal(t, model.ChecklistOpenStatus, stored.Status)
	})

	// --- Cycle 3: Vehicle returns ---
	t.Run("Cycle 3: Vehicle Returns", func(t *testing.T) {
		closed, err := svc.Return(context.Background(), checklist.ReturnRequest{
			ChecklistID:   recordID,
			KmFinal:       4350,
			FuelLevelEnd:  model.FuelQuarter,
			EndDate:       time.Date(2023, 6, 1, 17, 0, 0, 0, time.UTC),
			InspectionEnd: map[string]any{"pneus": true, "freios": "não"},
		})
		require.NoError(t, err)
		assert.Equal(t, model.ChecklistClosedStatus, closed.Status)

		var markerCount int64
		testDB.Model(&model.ChecklistOpen{}).Where("vehicle_id = ?", 101).Count(&markerCount)
		assert.Equal(t, int64(0), markerCount, "checklist_opens should be empty after return")

		var updated model.Vehicle
		require.NoError(t, testDB.First(&updated, "id = ?", 101).Error)
		assert.Equal(t, float64(4350), updated.Mileage, "vehicle mileage should advance to kmFinal")

		// Closing again is rejected.
		_, err = svc.Return(context.Background(), checklist.ReturnRequest{
			ChecklistID:  recordID,
			KmFinal:      4400,
			FuelLevelEnd: model.FuelQuarter,
			EndDate:      time.Date(2023, 6, 1, 18, 0, 0, 0, time.UTC),
		})
		assert.ErrorIs(t, err, store.ErrNotOpen)
	})

	// --- Cycle 4: The vehicle can exit again ---
	t.Run("Cycle 4: Vehicle Exits Again", func(t *testing.T) {
		rec, err := svc.Exit(context.Background(), checklist.ExitRequest{
			VehicleID:      101,
			UserID:         7,
			KmInitial:      4350,
			FuelLevelStart: model.FuelQuarter,
			StartDate:      time.Date(2023, 6, 2, 8, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.NotEqual(t, recordID, rec.ID)

		var openCount int64
		testDB.Model(&model.ChecklistOpen{}).Count(&openCount)
		assert.Equal(t, int64(1), openCount)
	})
}
