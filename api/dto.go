/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY AND VOLUMES:
  Amounts, rates and volumes are decimal strings ("175000", "2.5") so no
  client ever sees a float. Request volumes accept either a JSON number or a
  string.

TYPES:
  Quota:       QuotaDTO, TaskQuotaResponse
  Allocations: AllocationRequest, AllocationDTO, DecisionDTO, ProjectionDTO
  Income:      IncomeResponse, IncomeLineDTO
  Templates:   TemplateResponse (wraps factory.TemplateJSON)
  Terbilang:   TerbilangResponse
  Scenarios:   ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done by the services, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/template.go: TemplateJSON type
*/
package api

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mitrastat/honor-engine/assignment"
	"github.com/mitrastat/honor-engine/core"
	"github.com/mitrastat/honor-engine/factory"
	"github.com/mitrastat/honor-engine/income"
	"github.com/mitrastat/honor-engine/quota"
)

// =============================================================================
// QUOTA
// =============================================================================

type QuotaDTO struct {
	Position      string `json:"position"`
	Managed       bool   `json:"managed"`
	Cap           string `json:"cap"`
	Used          string `json:"used"`
	Remaining     string `json:"remaining"`
	Overallocated bool   `json:"overallocated"`
}

type TaskQuotaResponse struct {
	TaskID    string     `json:"task_id"`
	TaskName  string     `json:"task_name"`
	Positions []QuotaDTO `json:"positions"`
}

func toQuotaDTO(q quota.Quota) QuotaDTO {
	return QuotaDTO{
		Position:      string(q.Position),
		Managed:       q.Managed,
		Cap:           q.Cap.String(),
		Used:          q.Used.String(),
		Remaining:     q.Remaining.String(),
		Overallocated: q.Overallocated(),
	}
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

// AllocationRequest is the body of check, create and update calls.
type AllocationRequest struct {
	TaskID         string          `json:"task_id"`
	PartnerID      string          `json:"partner_id"`
	Position       string          `json:"position"`
	Volume         decimal.Decimal `json:"volume"`
	ConfirmCeiling bool            `json:"confirm_ceiling,omitempty"`
}

func (r AllocationRequest) input(id core.AllocationID) assignment.Input {
	return assignment.Input{
		AllocationID:   id,
		TaskID:         core.TaskID(r.TaskID),
		PartnerID:      core.PartnerID(r.PartnerID),
		Position:       core.PositionCode(r.Position),
		Volume:         r.Volume,
		ConfirmCeiling: r.ConfirmCeiling,
	}
}

type AllocationDTO struct {
	ID        string `json:"id,omitempty"`
	TaskID    string `json:"task_id"`
	PartnerID string `json:"partner_id"`
	Position  string `json:"position"`
	Volume    string `json:"volume"`
}

func toAllocationDTO(a core.Allocation) AllocationDTO {
	return AllocationDTO{
		ID:        string(a.ID),
		TaskID:    string(a.TaskID),
		PartnerID: string(a.PartnerID),
		Position:  string(a.Position),
		Volume:    a.Volume.String(),
	}
}

type ProjectionDTO struct {
	Previous  string `json:"previous"`
	Candidate string `json:"candidate"`
	Projected string `json:"projected"`
	Ceiling   string `json:"ceiling"`
	Excess    string `json:"excess"`
}

// DecisionDTO reports an admission decision. Error is empty when the
// allocation is (or would be) admitted.
type DecisionDTO struct {
	Allowed           bool          `json:"allowed"`
	Allocation        AllocationDTO `json:"allocation"`
	Period            string        `json:"period"`
	Quota             QuotaDTO      `json:"quota"`
	Projection        ProjectionDTO `json:"projection"`
	CeilingConfirmed  bool          `json:"ceiling_confirmed,omitempty"`
	NeedsConfirmation bool          `json:"needs_confirmation,omitempty"`
	Error             string        `json:"error,omitempty"`
}

func toDecisionDTO(d assignment.Decision) DecisionDTO {
	dto := DecisionDTO{
		Allowed:    d.Allowed(),
		Allocation: toAllocationDTO(d.Candidate),
		Period:     d.Period.String(),
		Quota:      toQuotaDTO(d.Quota),
		Projection: ProjectionDTO{
			Previous:  d.Projection.Previous.String(),
			Candidate: d.Projection.Candidate.String(),
			Projected: d.Projection.Projected.String(),
			Ceiling:   d.Projection.Ceiling.String(),
			Excess:    d.Projection.Result.Excess.String(),
		},
		CeilingConfirmed: d.CeilingConfirmed,
	}
	if d.Err != nil {
		dto.Error = d.Err.Error()
		var ce *core.CeilingExceededError
		if errors.As(d.Err, &ce) {
			dto.NeedsConfirmation = ce.NeedsConfirmation
		}
	}
	return dto
}

// =============================================================================
// INCOME
// =============================================================================

type IncomeLineDTO struct {
	AllocationID string `json:"allocation_id"`
	TaskID       string `json:"task_id"`
	TaskName     string `json:"task_name"`
	Position     string `json:"position"`
	Start        string `json:"start"`
	Volume       string `json:"volume"`
	Rate         string `json:"rate"`
	Earned       string `json:"earned"`
}

type IncomeResponse struct {
	PartnerID     string          `json:"partner_id"`
	PartnerName   string          `json:"partner_name"`
	Period        string          `json:"period"`
	Lines         []IncomeLineDTO `json:"lines"`
	Total         string          `json:"total"`
	TotalWords    string          `json:"total_words"`
	Ceiling       string          `json:"ceiling"`
	Remaining     string          `json:"remaining"`
	WithinCeiling bool            `json:"within_ceiling"`
	Excess        string          `json:"excess"`
}

func toIncomeLineDTO(l income.Line) IncomeLineDTO {
	return IncomeLineDTO{
		AllocationID: string(l.Allocation.ID),
		TaskID:       string(l.Task.ID),
		TaskName:     l.Task.Name,
		Position:     string(l.Allocation.Position),
		Start:        l.Task.Start.String(),
		Volume:       l.Allocation.Volume.String(),
		Rate:         l.Rate.Rate.String(),
		Earned:       l.Earned.String(),
	}
}

// =============================================================================
// TEMPLATES / TERBILANG
// =============================================================================

// TemplateResponse echoes a stored template with its non-fatal warnings.
type TemplateResponse struct {
	Template factory.TemplateJSON `json:"template"`
	Warnings []string             `json:"warnings"`
}

type TerbilangResponse struct {
	Number        int64  `json:"number"`
	Formatted     string `json:"formatted"`
	Words         string `json:"words"`
	CurrencyWords string `json:"currency_words"`
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
