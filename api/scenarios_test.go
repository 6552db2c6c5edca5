/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that every embedded fixture parses and loads, and that the loaded
	state behaves as each scenario describes.
*/
package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitrastat/honor-engine/core"
)

func TestScenarios_AllLoad(t *testing.T) {
	h, _ := newTestServer(t)
	ctx := context.Background()

	all, err := loadScenarios()
	require.NoError(t, err)
	require.Len(t, all, 2)

	for _, s := range all {
		t.Run(s.ID, func(t *testing.T) {
			require.NoError(t, h.loadScenario(ctx, s.ID))

			tasks, err := h.Store.ListTasks(ctx)
			require.NoError(t, err)
			assert.Len(t, tasks, len(s.Tasks))
			allocations, err := h.Store.ListAllocations(ctx)
			require.NoError(t, err)
			assert.Len(t, allocations, len(s.Allocations))
		})
	}
}

func TestScenario_Susenas(t *testing.T) {
	h, _ := newTestServer(t)
	ctx := context.Background()

	partner, err := h.Store.GetPartner(ctx, "m-001")
	require.NoError(t, err)
	assert.Equal(t, "3214014101900001", partner.NationalID)

	// GIVEN: sakernas-aug has an unmanaged PML rate
	rates, err := h.Store.RatesForTask(ctx, "sakernas-aug")
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.True(t, rates[0].BasisVolume.IsZero())

	setting, err := h.Store.GetContractSetting(ctx, core.YearKey(2025))
	require.NoError(t, err)
	assert.Equal(t, "2025-02-24", setting.IssueDate.String())
}

func TestScenario_CeilingNear(t *testing.T) {
	h, router := newTestServer(t)
	require.NoError(t, h.loadScenario(context.Background(), "ceiling-near"))

	// GIVEN: m-101 has 1.950.000 of a 2.000.000 ceiling
	rec := do(t, router, http.MethodPost, "/api/allocations/check", map[string]any{
		"task_id": "podes-jun", "partner_id": "m-101", "position": "PPL", "volume": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: one more document is 50.000 over
	d := decode[DecisionDTO](t, rec)
	assert.False(t, d.Allowed)
	assert.Equal(t, "50000", d.Projection.Excess)

	// AND: another partner is unaffected
	rec = do(t, router, http.MethodPost, "/api/allocations/check", map[string]any{
		"task_id": "podes-jun", "partner_id": "m-102", "position": "PPL", "volume": 20,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[DecisionDTO](t, rec).Allowed)
}

func TestScenarioEndpoints(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ScenarioDTO](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "ceiling-near", list[0].ID)
	assert.Equal(t, "susenas-2025", list[1].ID)

	current := decode[ScenarioDTO](t, do(t, router, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "susenas-2025", current.ID)

	rec = do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "ceiling-near"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	current = decode[ScenarioDTO](t, do(t, router, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "ceiling-near", current.ID)

	rec = do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "unknown"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
	rec = do(t, router, http.MethodGet, "/api/tasks/podes-may/quota", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
