/*
store.go - Persistence interfaces for the assignment model

PURPOSE:
  Defines the boundary between the engine and the database. The quota ledger,
  income accumulator and document engine never touch storage: services read
  entities through these interfaces and hand them over as explicit inputs.

KEY INTERFACES:
  Reader:  Entity and reference-table lookups
  Writer:  Upserts and deletes
  Store:   Reader + Writer
  TxStore: Store with all-or-nothing WithTx (bulk import commit)

UNIQUENESS:
  Implementations enforce, independently of any service-level check:
  - one PositionRate per (task, position)    -> ErrDuplicateRate
  - one Allocation per (task, partner)       -> *DuplicateAllocationError
  - one PeriodRule / ContractSetting per key -> upsert

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite via database/sql
  - core/store/memory.go:   In-memory for tests and demos

SEE ALSO:
  - importer/commit.go: WithTx caller
  - assignment/service.go: Main reader
*/
package core

import "context"

// TemplateRecord is a stored document template. Body is the JSON document
// parsed by factory.TemplateFactory.
type TemplateRecord struct {
	ID   TemplateID
	Name string
	Body []byte
}

// Reader looks up entities. Get* methods return an error wrapping ErrNotFound
// when the record is missing. List methods return records ordered by ID.
type Reader interface {
	ListActivities(ctx context.Context) ([]Activity, error)

	GetTask(ctx context.Context, id TaskID) (Task, error)
	ListTasks(ctx context.Context) ([]Task, error)

	GetPartner(ctx context.Context, id PartnerID) (Partner, error)
	ListPartners(ctx context.Context) ([]Partner, error)

	ListPositions(ctx context.Context) ([]Position, error)
	ListUnits(ctx context.Context) ([]MeasureUnit, error)

	// ListRates returns every position rate ordered by (task, position).
	ListRates(ctx context.Context) ([]PositionRate, error)
	RatesForTask(ctx context.Context, task TaskID) ([]PositionRate, error)

	GetAllocation(ctx context.Context, id AllocationID) (Allocation, error)
	ListAllocations(ctx context.Context) ([]Allocation, error)
	AllocationsByTask(ctx context.Context, task TaskID) ([]Allocation, error)
	AllocationsByPartner(ctx context.Context, partner PartnerID) ([]Allocation, error)

	ListPeriodRules(ctx context.Context) ([]PeriodRule, error)
	GetContractSetting(ctx context.Context, key PeriodKey) (ContractSetting, error)

	GetTemplate(ctx context.Context, id TemplateID) (TemplateRecord, error)
}

// Writer persists entities. Save methods upsert by primary key.
type Writer interface {
	SaveActivity(ctx context.Context, a Activity) error

	SaveTask(ctx context.Context, t Task) error
	// DeleteTask removes the task together with its rates and allocations.
	DeleteTask(ctx context.Context, id TaskID) error

	SavePartner(ctx context.Context, p Partner) error
	SavePosition(ctx context.Context, p Position) error
	SaveUnit(ctx context.Context, u MeasureUnit) error

	// SaveRate inserts a rate. A second rate for the same (task, position)
	// fails with ErrDuplicateRate.
	SaveRate(ctx context.Context, r PositionRate) error

	// SaveAllocation upserts by ID. Another allocation for the same
	// (task, partner) fails with *DuplicateAllocationError.
	SaveAllocation(ctx context.Context, a Allocation) error
	DeleteAllocation(ctx context.Context, id AllocationID) error

	SavePeriodRule(ctx context.Context, r PeriodRule) error
	SaveContractSetting(ctx context.Context, s ContractSetting) error
	SaveTemplate(ctx context.Context, t TemplateRecord) error

	// Reset deletes every record.
	Reset(ctx context.Context) error
}

type Store interface {
	Reader
	Writer
}

// TxStore adds transactions to Store.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the given Store is rolled back.
	// If fn returns nil, the writes are committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
