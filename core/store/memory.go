// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/mitrastat/honor-engine/core"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	d  *memData
}

type rateKey struct {
	TaskID   core.TaskID
	Position core.PositionCode
}

type memData struct {
	activities  map[core.ActivityID]core.Activity
	tasks       map[core.TaskID]core.Task
	partners    map[core.PartnerID]core.Partner
	positions   map[core.PositionCode]core.Position
	units       map[string]core.MeasureUnit
	rates       map[rateKey]core.PositionRate
	allocations map[core.AllocationID]core.Allocation
	rules       map[core.PeriodKey]core.PeriodRule
	settings    map[core.PeriodKey]core.ContractSetting
	templates   map[core.TemplateID]core.TemplateRecord
}

func newMemData() *memData {
	return &memData{
		activities:  make(map[core.ActivityID]core.Activity),
		tasks:       make(map[core.TaskID]core.Task),
		partners:    make(map[core.PartnerID]core.Partner),
		positions:   make(map[core.PositionCode]core.Position),
		units:       make(map[string]core.MeasureUnit),
		rates:       make(map[rateKey]core.PositionRate),
		allocations: make(map[core.AllocationID]core.Allocation),
		rules:       make(map[core.PeriodKey]core.PeriodRule),
		settings:    make(map[core.PeriodKey]core.ContractSetting),
		templates:   make(map[core.TemplateID]core.TemplateRecord),
	}
}

func NewMemory() *Memory {
	return &Memory{d: newMemData()}
}

// =============================================================================
// READS
// =============================================================================

func (m *Memory) ListActivities(_ context.Context) ([]core.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := values(m.d.activities)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetTask(_ context.Context, id core.TaskID) (core.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.d.tasks[id]
	if !ok {
		return core.Task{}, core.ErrTaskNotFound
	}
	return t, nil
}

func (m *Memory) ListTasks(_ context.Context) ([]core.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := values(m.d.tasks)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetPartner(_ context.Context, id core.PartnerID) (core.Partner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.d.partners[id]
	if !ok {
		return core.Partner{}, core.ErrPartnerNotFound
	}
	return p, nil
}

func (m *Memory) ListPartners(_ context.Context) ([]core.Partner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := values(m.d.partners)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListPositions(_ context.Context) ([]core.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := values(m.d.positions)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *Memory) ListUnits(_ context.Context) ([]core.MeasureUnit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := values(m.d.units)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *Memory) ListRates(_ context.Context) ([]core.PositionRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := values(m.d.rates)
	sortRates(out)
	return out, nil
}

func (m *Memory) RatesForTask(_ context.Context, task core.TaskID) ([]core.PositionRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.PositionRate
	for k, r := range m.d.rates {
		if k.TaskID == task {
			out = append(out, r)
		}
	}
	sortRates(out)
	return out, nil
}

func (m *Memory) GetAllocation(_ context.Context, id core.AllocationID) (core.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.d.allocations[id]
	if !ok {
		return core.Allocation{}, core.ErrAllocationNotFound
	}
	return a, nil
}

func (m *Memory) ListAllocations(_ context.Context) ([]core.Allocation, error) {
	return m.filterAllocations(func(core.Allocation) bool { return true }), nil
}

func (m *Memory) AllocationsByTask(_ context.Context, task core.TaskID) ([]core.Allocation, error) {
	return m.filterAllocations(func(a core.Allocation) bool { return a.TaskID == task }), nil
}

func (m *Memory) AllocationsByPartner(_ context.Context, partner core.PartnerID) ([]core.Allocation, error) {
	return m.filterAllocations(func(a core.Allocation) bool { return a.PartnerID == partner }), nil
}

func (m *Memory) filterAllocations(keep func(core.Allocation) bool) []core.Allocation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Allocation
	for _, a := range m.d.allocations {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) ListPeriodRules(_ context.Context) ([]core.PeriodRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := values(m.d.rules)
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out, nil
}

func (m *Memory) GetContractSetting(_ context.Context, key core.PeriodKey) (core.ContractSetting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.d.settings[key]
	if !ok {
		return core.ContractSetting{}, &core.TemplateNotReadyError{Period: key}
	}
	return s, nil
}

func (m *Memory) GetTemplate(_ context.Context, id core.TemplateID) (core.TemplateRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.d.templates[id]
	if !ok {
		return core.TemplateRecord{}, core.ErrTemplateNotFound
	}
	t.Body = append([]byte(nil), t.Body...)
	return t, nil
}

// =============================================================================
// WRITES
// =============================================================================

func (m *Memory) SaveActivity(_ context.Context, a core.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.activities[a.ID] = a
	return nil
}

func (m *Memory) SaveTask(_ context.Context, t core.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.tasks[t.ID] = t
	return nil
}

func (m *Memory) DeleteTask(_ context.Context, id core.TaskID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.d.tasks[id]; !ok {
		return core.ErrTaskNotFound
	}
	delete(m.d.tasks, id)
	for k := range m.d.rates {
		if k.TaskID == id {
			delete(m.d.rates, k)
		}
	}
	for aid, a := range m.d.allocations {
		if a.TaskID == id {
			delete(m.d.allocations, aid)
		}
	}
	return nil
}

func (m *Memory) SavePartner(_ context.Context, p core.Partner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.partners[p.ID] = p
	return nil
}

func (m *Memory) SavePosition(_ context.Context, p core.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.positions[p.Code] = p
	return nil
}

func (m *Memory) SaveUnit(_ context.Context, u core.MeasureUnit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.units[u.Code] = u
	return nil
}

func (m *Memory) SaveRate(_ context.Context, r core.PositionRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := rateKey{TaskID: r.TaskID, Position: r.Position}
	if _, exists := m.d.rates[k]; exists {
		return core.ErrDuplicateRate
	}
	m.d.rates[k] = r
	return nil
}

func (m *Memory) SaveAllocation(_ context.Context, a core.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.d.allocations {
		if id != a.ID && other.TaskID == a.TaskID && other.PartnerID == a.PartnerID {
			return &core.DuplicateAllocationError{TaskID: a.TaskID, PartnerID: a.PartnerID, ExistingID: id}
		}
	}
	m.d.allocations[a.ID] = a
	return nil
}

func (m *Memory) DeleteAllocation(_ context.Context, id core.AllocationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.d.allocations[id]; !ok {
		return core.ErrAllocationNotFound
	}
	delete(m.d.allocations, id)
	return nil
}

func (m *Memory) SavePeriodRule(_ context.Context, r core.PeriodRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.rules[r.Key] = r
	return nil
}

func (m *Memory) SaveContractSetting(_ context.Context, s core.ContractSetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.settings[s.Key] = s
	return nil
}

func (m *Memory) SaveTemplate(_ context.Context, t core.TemplateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.Body = append([]byte(nil), t.Body...)
	m.d.templates[t.ID] = t
	return nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d = newMemData()
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn against a private copy of the data and swaps it in only when
// fn succeeds. Other callers block until the transaction ends.
func (m *Memory) WithTx(_ context.Context, fn func(core.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := &Memory{d: m.d.clone()}
	if err := fn(view); err != nil {
		return err
	}
	m.d = view.d
	return nil
}

func (d *memData) clone() *memData {
	return &memData{
		activities:  copyMap(d.activities),
		tasks:       copyMap(d.tasks),
		partners:    copyMap(d.partners),
		positions:   copyMap(d.positions),
		units:       copyMap(d.units),
		rates:       copyMap(d.rates),
		allocations: copyMap(d.allocations),
		rules:       copyMap(d.rules),
		settings:    copyMap(d.settings),
		templates:   copyMap(d.templates),
	}
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func values[K comparable, V any](src map[K]V) []V {
	out := make([]V, 0, len(src))
	for _, v := range src {
		out = append(out, v)
	}
	return out
}

func sortRates(rates []core.PositionRate) {
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].TaskID != rates[j].TaskID {
			return rates[i].TaskID < rates[j].TaskID
		}
		return rates[i].Position < rates[j].Position
	})
}

var _ core.TxStore = (*Memory)(nil)
