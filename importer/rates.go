package importer

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mitrastat/honor-engine/core"
)

// Rate import column keys.
const (
	ColActivity    = "activity"
	ColTask        = "task"
	ColDescription = "description"
	ColStart       = "start"
	ColEnd         = "end"
	ColPosition    = "position"
	ColRate        = "rate"
	ColUnit        = "unit"
	ColBasisVolume = "basis_volume"
	ColBudgetLine  = "budget_line"
)

// RateColumns are the columns of the rate import. The first synonym of each
// column is the header written by WriteTemplate.
var RateColumns = []Column{
	{Key: ColActivity, Synonyms: []string{"Nama Kegiatan", "Kegiatan", "Activity", "Activity Name"}},
	{Key: ColTask, Synonyms: []string{"Nama Sub Kegiatan", "Sub Kegiatan", "Subkegiatan", "Task", "Task Name"}},
	{Key: ColDescription, Synonyms: []string{"Deskripsi", "Keterangan", "Description"}},
	{Key: ColStart, Synonyms: []string{"Tanggal Mulai", "Mulai", "Start Date", "Start"}},
	{Key: ColEnd, Synonyms: []string{"Tanggal Selesai", "Selesai", "End Date", "End"}},
	{Key: ColPosition, Synonyms: []string{"Jabatan", "Posisi", "Kode Jabatan", "Position"}},
	{Key: ColRate, Synonyms: []string{"Harga Satuan", "Tarif", "Honor Satuan", "Rate", "Unit Rate"}},
	{Key: ColUnit, Synonyms: []string{"Satuan", "Unit"}},
	{Key: ColBasisVolume, Synonyms: []string{"Volume", "Target", "Kuota", "Basis Volume", "Quota"}},
	{Key: ColBudgetLine, Synonyms: []string{"Beban Anggaran", "MAK", "Akun", "Budget Line"}},
}

var requiredRateColumns = []Column{RateColumns[0], RateColumns[1], RateColumns[5], RateColumns[6]}

// RateRefs are the reference tables the rate import resolves against.
type RateRefs struct {
	Activities []core.Activity
	Tasks      []core.Task
	Positions  []core.Position
	Units      []core.MeasureUnit
	Rates      []core.PositionRate
}

type taskKey struct {
	activity core.ActivityID
	name     string
}

type rateImport struct {
	batch      Batch
	positions  map[string]core.PositionCode
	units      map[string]string
	activities map[string]core.ActivityID
	tasks      map[taskKey]core.TaskID
	rates      map[core.TaskID]map[core.PositionCode]bool
}

// ValidateRates builds a batch of activities, tasks and position rates.
// Rows without an activity or task name are skipped silently.
func ValidateRates(rows [][]string, refs RateRefs) (Batch, error) {
	if len(rows) == 0 {
		return Batch{}, &core.InvalidArgumentError{Field: "file", Reason: "no header row"}
	}
	headers := ResolveHeaders(rows[0], RateColumns)
	if missing := headers.Missing(requiredRateColumns); len(missing) > 0 {
		return Batch{}, missingColumnsError(missing)
	}

	imp := newRateImport(refs)
	for i, row := range rows[1:] {
		imp.batch.TotalRows++
		if isBlankRow(row) {
			imp.batch.Skipped++
			continue
		}
		imp.row(i+2, row, headers)
	}
	return imp.batch, nil
}

func newRateImport(refs RateRefs) *rateImport {
	imp := &rateImport{
		batch:      Batch{ID: uuid.NewString(), Kind: KindRates},
		positions:  make(map[string]core.PositionCode),
		units:      make(map[string]string),
		activities: make(map[string]core.ActivityID),
		tasks:      make(map[taskKey]core.TaskID),
		rates:      make(map[core.TaskID]map[core.PositionCode]bool),
	}
	// Codes are registered after names so a code always wins.
	for _, p := range refs.Positions {
		putExact(imp.positions, p.Name, p.Code)
	}
	for _, p := range refs.Positions {
		putExact(imp.positions, string(p.Code), p.Code)
	}
	for _, u := range refs.Units {
		putExact(imp.units, u.Name, u.Code)
	}
	for _, u := range refs.Units {
		putExact(imp.units, u.Code, u.Code)
	}
	for _, a := range refs.Activities {
		imp.activities[fold(a.Name)] = a.ID
	}
	for _, t := range refs.Tasks {
		imp.tasks[taskKey{activity: t.ActivityID, name: fold(t.Name)}] = t.ID
	}
	for _, r := range refs.Rates {
		imp.markRate(r.TaskID, r.Position)
	}
	return imp
}

func (imp *rateImport) row(n int, row []string, h Headers) {
	b := &imp.batch
	activityName := h.Get(row, ColActivity)
	taskName := h.Get(row, ColTask)
	if activityName == "" || taskName == "" {
		b.Skipped++
		return
	}

	positionText := h.Get(row, ColPosition)
	position, ok := imp.positions[strings.TrimSpace(positionText)]
	if !ok {
		b.notFound(n, "position", positionText)
		return
	}

	unitText := h.Get(row, ColUnit)
	unit := ""
	if unitText != "" {
		if unit, ok = imp.units[strings.TrimSpace(unitText)]; !ok {
			b.notFound(n, "unit", unitText)
			return
		}
	}

	rateText := h.Get(row, ColRate)
	rate, ok := ParseAmount(rateText)
	if !ok {
		b.warn(n, "rate", rateText, "is not a valid number")
		return
	}

	basisText := h.Get(row, ColBasisVolume)
	basis, ok := ParseVolume(basisText, decimal.Zero)
	if !ok {
		b.warn(n, "volume", basisText, "is not a valid number")
		return
	}

	taskID, ok := imp.resolveTask(n, row, h, activityName, taskName)
	if !ok {
		return
	}

	if imp.rates[taskID][position] {
		b.warn(n, "position", positionText, "already has a rate for this task")
		return
	}
	imp.markRate(taskID, position)
	b.Rates = append(b.Rates, RateRow{Row: n, Rate: core.PositionRate{
		TaskID:      taskID,
		Position:    position,
		Rate:        rate,
		Unit:        unit,
		BasisVolume: basis,
		BudgetLine:  h.Get(row, ColBudgetLine),
	}})
}

// resolveTask finds the task by activity and name, creating both when they
// are new. New tasks need valid start and end dates.
func (imp *rateImport) resolveTask(n int, row []string, h Headers, activityName, taskName string) (core.TaskID, bool) {
	b := &imp.batch

	activityID, known := imp.activities[fold(activityName)]
	if known {
		if id, ok := imp.tasks[taskKey{activity: activityID, name: fold(taskName)}]; ok {
			return id, true
		}
	}

	startText, endText := h.Get(row, ColStart), h.Get(row, ColEnd)
	start, ok := ParseDate(startText)
	if !ok {
		b.warn(n, "start date", startText, "is not a valid date")
		return "", false
	}
	end, ok := ParseDate(endText)
	if !ok {
		b.warn(n, "end date", endText, "is not a valid date")
		return "", false
	}
	if end.Before(start) {
		b.warn(n, "end date", endText, "is before the start date")
		return "", false
	}

	if !known {
		activityID = core.ActivityID(uuid.NewString())
		imp.activities[fold(activityName)] = activityID
		b.Activities = append(b.Activities, core.Activity{ID: activityID, Name: activityName})
	}
	taskID := core.TaskID(uuid.NewString())
	imp.tasks[taskKey{activity: activityID, name: fold(taskName)}] = taskID
	b.Tasks = append(b.Tasks, TaskRow{Row: n, Task: core.Task{
		ID:          taskID,
		ActivityID:  activityID,
		Name:        taskName,
		Description: h.Get(row, ColDescription),
		Start:       start,
		End:         end,
		Status:      core.TaskPlanned,
	}})
	return taskID, true
}

func (imp *rateImport) markRate(task core.TaskID, position core.PositionCode) {
	if imp.rates[task] == nil {
		imp.rates[task] = make(map[core.PositionCode]bool)
	}
	imp.rates[task][position] = true
}

// fold normalizes activity and task names, which are matched or created
// rather than looked up in a reference table.
func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// putExact registers a reference value under its trimmed code or name.
// Lookups are case-sensitive: "ppl" does not resolve to "PPL".
func putExact[V any](m map[string]V, key string, v V) {
	if k := strings.TrimSpace(key); k != "" {
		m[k] = v
	}
}
