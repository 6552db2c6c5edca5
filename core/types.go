/*
Package core provides the domain model shared by every engine component.

PURPOSE:
  This package contains the entity types, money arithmetic, dates, period keys,
  errors and store interfaces used by the quota ledger, the income accumulator,
  the document engine and the import pipeline. It holds no business rules of its
  own beyond small derived values (earned amount, rate lookup).

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A rupiah value backed by decimal.Decimal
  - Task / PositionRate / Allocation: The assignment model
  - Partner: The field worker (mitra) receiving allocations
  - PeriodRule / ContractSetting: Per-period ceiling and contract configuration
  - RateTable / TaskIndex: Explicit lookup tables passed into pure functions

DESIGN PRINCIPLES:
  1. Precision: Money and volumes use decimal.Decimal, never float64
  2. Type Safety: Distinct ID types prevent mixing task/partner/allocation IDs
  3. Explicit Inputs: Lookups are values handed to callers, never ambient state

USAGE:
  rates := core.NewRateTable(rateRows)
  rate, ok := rates.Lookup("task-1", "PPL")
  earned := alloc.Earned(rate)

SEE ALSO:
  - period.go: Period keys and granularity
  - errors.go: Error kinds
  - store.go: Collaborator interfaces
*/
package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Money with unit (rupiah for every amount in this system)
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const UnitRupiah Unit = "rupiah"

func Rupiah(value decimal.Decimal) Amount { return Amount{Value: value, Unit: UnitRupiah} }

func RupiahInt(value int64) Amount { return Rupiah(decimal.NewFromInt(value)) }

func ZeroRupiah() Amount { return Rupiah(decimal.Zero) }

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.unit()} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.unit()} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.unit()} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) String() string               { return a.Value.String() }

func (a Amount) unit() Unit {
	if a.Unit == "" {
		return UnitRupiah
	}
	return a.Unit
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ActivityID string
type TaskID string
type PartnerID string
type PositionCode string
type AllocationID string
type TemplateID string

// =============================================================================
// ASSIGNMENT MODEL
// =============================================================================

type Activity struct {
	ID   ActivityID
	Name string
}

type TaskStatus string

const (
	TaskPlanned TaskStatus = "planned"
	TaskOngoing TaskStatus = "ongoing"
	TaskDone    TaskStatus = "done"
)

// Task is a sub-activity: a schedulable unit of survey work.
type Task struct {
	ID          TaskID
	ActivityID  ActivityID
	Name        string
	Description string
	Start       Date
	End         Date
	Status      TaskStatus
}

// PositionRate prices one position within one task and caps its volume.
// BasisVolume of zero means the quota is not managed.
type PositionRate struct {
	TaskID      TaskID
	Position    PositionCode
	Rate        decimal.Decimal
	Unit        string
	BasisVolume decimal.Decimal
	BudgetLine  string
}

// Allocation assigns one partner to one position within one task.
type Allocation struct {
	ID        AllocationID
	TaskID    TaskID
	PartnerID PartnerID
	Position  PositionCode
	Volume    decimal.Decimal
}

// Earned returns rate x volume for this allocation.
func (a Allocation) Earned(rate PositionRate) Amount {
	return Rupiah(rate.Rate.Mul(a.Volume))
}

type Partner struct {
	ID         PartnerID
	Name       string
	NationalID string
	Address    string
	Phone      string
	Email      string
}

type Position struct {
	Code PositionCode
	Name string
}

type MeasureUnit struct {
	Code string
	Name string
}

// =============================================================================
// PERIOD CONFIGURATION
// =============================================================================

// PeriodRule is the honorarium ceiling for one period. A zero or negative
// ceiling means no ceiling is configured.
type PeriodRule struct {
	Key     PeriodKey
	Ceiling decimal.Decimal
}

// ContractSetting carries the issuing official and letter details for a period.
// An empty TemplateID selects the built-in template.
type ContractSetting struct {
	Key                PeriodKey
	OfficialName       string
	OfficialTitle      string
	OfficialNIP        string
	LetterNumberFormat string
	IssueDate          Date
	TemplateID         TemplateID
	HonorClause        string
}

// HasTemplate reports whether a custom template is attached to the period.
func (s ContractSetting) HasTemplate() bool { return s.TemplateID != "" }

// =============================================================================
// LOOKUP TABLES
// =============================================================================

type rateKey struct {
	TaskID   TaskID
	Position PositionCode
}

// RateTable indexes position rates by (task, position).
type RateTable struct {
	rates map[rateKey]PositionRate
}

func NewRateTable(rates []PositionRate) RateTable {
	t := RateTable{rates: make(map[rateKey]PositionRate, len(rates))}
	for _, r := range rates {
		t.rates[rateKey{TaskID: r.TaskID, Position: r.Position}] = r
	}
	return t
}

func (t RateTable) Lookup(task TaskID, position PositionCode) (PositionRate, bool) {
	r, ok := t.rates[rateKey{TaskID: task, Position: position}]
	return r, ok
}

// Find returns a pointer copy of the rate, or nil when none exists.
func (t RateTable) Find(task TaskID, position PositionCode) *PositionRate {
	r, ok := t.Lookup(task, position)
	if !ok {
		return nil
	}
	return &r
}

// ForTask returns the rates of one task ordered by position code.
func (t RateTable) ForTask(task TaskID) []PositionRate {
	var out []PositionRate
	for k, r := range t.rates {
		if k.TaskID == task {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (t RateTable) Len() int { return len(t.rates) }

// TaskIndex indexes tasks by ID.
type TaskIndex map[TaskID]Task

func NewTaskIndex(tasks []Task) TaskIndex {
	idx := make(TaskIndex, len(tasks))
	for _, t := range tasks {
		idx[t.ID] = t
	}
	return idx
}
