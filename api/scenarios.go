/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario is a YAML fixture under
	scenarios/ embedded in the binary.

AVAILABLE SCENARIOS:

	susenas-2025:  Two surveys, managed quotas, yearly ceiling, contract settings
	ceiling-near:  A partner just below the yearly ceiling

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Reference tables: positions, units, activities
 3. Partners
 4. Tasks with their position rates
 5. Allocations
 6. Period rules and contract settings

 All steps run in one store transaction: a fixture either loads completely
 or leaves the database empty.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "susenas-2025"}

ADDING NEW SCENARIOS:
 1. Add scenarios/<id>.yaml with the same layout
 2. Nothing else: fixtures are discovered from the embedded directory

NOTE:

	Allocations in fixtures are written directly and are not admitted
	through the assignment service. Keep them within quota and ceilings.

SEE ALSO:
  - handlers.go: Handler context
  - core/store.go: Store interfaces
*/
package api

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mitrastat/honor-engine/core"
)

//go:embed scenarios/*.yaml
var scenarioFiles embed.FS

// =============================================================================
// FIXTURE FORMAT
// =============================================================================

type scenario struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Positions []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"positions"`
	Units []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"units"`
	Activities []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"activities"`
	Partners []struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		NIK     string `yaml:"nik"`
		Address string `yaml:"address"`
		Phone   string `yaml:"phone"`
		Email   string `yaml:"email"`
	} `yaml:"partners"`
	Tasks       []scenarioTask `yaml:"tasks"`
	Allocations []struct {
		ID       string `yaml:"id"`
		Task     string `yaml:"task"`
		Partner  string `yaml:"partner"`
		Position string `yaml:"position"`
		Volume   string `yaml:"volume"`
	} `yaml:"allocations"`
	Periods []scenarioPeriod `yaml:"periods"`
}

type scenarioTask struct {
	ID       string `yaml:"id"`
	Activity string `yaml:"activity"`
	Name     string `yaml:"name"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Rates    []struct {
		Position    string `yaml:"position"`
		Rate        string `yaml:"rate"`
		Unit        string `yaml:"unit"`
		BasisVolume string `yaml:"basis_volume"`
		BudgetLine  string `yaml:"budget_line"`
	} `yaml:"rates"`
}

type scenarioPeriod struct {
	Key      string `yaml:"key"`
	Ceiling  string `yaml:"ceiling"`
	Contract *struct {
		OfficialName       string `yaml:"official_name"`
		OfficialTitle      string `yaml:"official_title"`
		OfficialNIP        string `yaml:"official_nip"`
		LetterNumberFormat string `yaml:"letter_number_format"`
		IssueDate          string `yaml:"issue_date"`
		TemplateID         string `yaml:"template_id"`
		HonorClause        string `yaml:"honor_clause"`
	} `yaml:"contract"`
}

// loadScenarios parses every embedded fixture, ordered by ID.
func loadScenarios() ([]scenario, error) {
	names, err := scenarioFiles.ReadDir("scenarios")
	if err != nil {
		return nil, err
	}
	out := make([]scenario, 0, len(names))
	for _, n := range names {
		data, err := scenarioFiles.ReadFile(path.Join("scenarios", n.Name()))
		if err != nil {
			return nil, err
		}
		var s scenario
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", n.Name(), err)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func findScenario(id string) (scenario, bool, error) {
	all, err := loadScenarios()
	if err != nil {
		return scenario{}, false, err
	}
	for _, s := range all {
		if s.ID == id {
			return s, true, nil
		}
	}
	return scenario{}, false, nil
}

// =============================================================================
// APPLY
// =============================================================================

func (s scenario) apply(ctx context.Context, st core.Store) error {
	if err := st.Reset(ctx); err != nil {
		return err
	}

	for _, p := range s.Positions {
		if err := st.SavePosition(ctx, core.Position{Code: core.PositionCode(p.Code), Name: p.Name}); err != nil {
			return err
		}
	}
	for _, u := range s.Units {
		if err := st.SaveUnit(ctx, core.MeasureUnit{Code: u.Code, Name: u.Name}); err != nil {
			return err
		}
	}
	for _, a := range s.Activities {
		if err := st.SaveActivity(ctx, core.Activity{ID: core.ActivityID(a.ID), Name: a.Name}); err != nil {
			return err
		}
	}
	for _, p := range s.Partners {
		partner := core.Partner{
			ID:         core.PartnerID(p.ID),
			Name:       p.Name,
			NationalID: p.NIK,
			Address:    p.Address,
			Phone:      p.Phone,
			Email:      p.Email,
		}
		if err := st.SavePartner(ctx, partner); err != nil {
			return err
		}
	}
	for _, t := range s.Tasks {
		if err := t.apply(ctx, st); err != nil {
			return fmt.Errorf("task %s: %w", t.ID, err)
		}
	}
	for _, a := range s.Allocations {
		volume, err := decimal.NewFromString(a.Volume)
		if err != nil {
			return fmt.Errorf("allocation %s: volume %q: %w", a.ID, a.Volume, err)
		}
		alloc := core.Allocation{
			ID:        core.AllocationID(a.ID),
			TaskID:    core.TaskID(a.Task),
			PartnerID: core.PartnerID(a.Partner),
			Position:  core.PositionCode(a.Position),
			Volume:    volume,
		}
		if err := st.SaveAllocation(ctx, alloc); err != nil {
			return fmt.Errorf("allocation %s: %w", a.ID, err)
		}
	}
	for _, p := range s.Periods {
		if err := p.apply(ctx, st); err != nil {
			return fmt.Errorf("period %s: %w", p.Key, err)
		}
	}
	return nil
}

func (t scenarioTask) apply(ctx context.Context, st core.Store) error {
	start, err := core.ParseDate(t.Start)
	if err != nil {
		return err
	}
	end, err := core.ParseDate(t.End)
	if err != nil {
		return err
	}
	task := core.Task{
		ID:         core.TaskID(t.ID),
		ActivityID: core.ActivityID(t.Activity),
		Name:       t.Name,
		Start:      start,
		End:        end,
		Status:     core.TaskPlanned,
	}
	if err := st.SaveTask(ctx, task); err != nil {
		return err
	}

	for _, r := range t.Rates {
		rate, err := decimal.NewFromString(r.Rate)
		if err != nil {
			return fmt.Errorf("rate %q: %w", r.Rate, err)
		}
		basis := decimal.Zero
		if r.BasisVolume != "" {
			if basis, err = decimal.NewFromString(r.BasisVolume); err != nil {
				return fmt.Errorf("basis volume %q: %w", r.BasisVolume, err)
			}
		}
		err = st.SaveRate(ctx, core.PositionRate{
			TaskID:      task.ID,
			Position:    core.PositionCode(r.Position),
			Rate:        rate,
			Unit:        r.Unit,
			BasisVolume: basis,
			BudgetLine:  r.BudgetLine,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (p scenarioPeriod) apply(ctx context.Context, st core.Store) error {
	key, err := core.ParsePeriodKey(p.Key)
	if err != nil {
		return err
	}
	if p.Ceiling != "" {
		ceiling, err := decimal.NewFromString(p.Ceiling)
		if err != nil {
			return fmt.Errorf("ceiling %q: %w", p.Ceiling, err)
		}
		if err := st.SavePeriodRule(ctx, core.PeriodRule{Key: key, Ceiling: ceiling}); err != nil {
			return err
		}
	}
	if p.Contract == nil {
		return nil
	}

	setting := core.ContractSetting{
		Key:                key,
		OfficialName:       p.Contract.OfficialName,
		OfficialTitle:      p.Contract.OfficialTitle,
		OfficialNIP:        p.Contract.OfficialNIP,
		LetterNumberFormat: p.Contract.LetterNumberFormat,
		TemplateID:         core.TemplateID(p.Contract.TemplateID),
		HonorClause:        p.Contract.HonorClause,
	}
	if p.Contract.IssueDate != "" {
		if setting.IssueDate, err = core.ParseDate(p.Contract.IssueDate); err != nil {
			return err
		}
	}
	return st.SaveContractSetting(ctx, setting)
}

// loadScenario replaces the database content with the fixture.
func (h *Handler) loadScenario(ctx context.Context, id string) error {
	s, ok, err := findScenario(id)
	if err != nil {
		return err
	}
	if !ok {
		return &core.InvalidArgumentError{Field: "scenario_id", Value: id, Reason: "unknown scenario"}
	}

	if err := h.Store.WithTx(ctx, func(st core.Store) error { return s.apply(ctx, st) }); err != nil {
		return fmt.Errorf("failed to load scenario %s: %w", id, err)
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()

	h.Log.Info("scenario loaded",
		"scenario", id,
		"tasks", len(s.Tasks),
		"partners", len(s.Partners),
		"allocations", len(s.Allocations),
	)
	return nil
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	all, err := loadScenarios()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	dtos := make([]ScenarioDTO, len(all))
	for i, s := range all {
		dtos[i] = ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	id := h.currentScenario
	h.mu.Unlock()

	if id == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	s, ok, err := findScenario(id)
	if err != nil || !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description})
}

// LoadScenario resets the database and loads a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.loadScenario(r.Context(), req.ScenarioID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	h.Log.Info("database reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
