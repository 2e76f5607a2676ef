package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/indexer"
	"github.com/yuta0709/nagara-care-api/internal/llm"
	"github.com/yuta0709/nagara-care-api/internal/notify"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

func TestRecordCreate_DefaultsAuthorAndTime(t *testing.T) {
	f := newFixture(t)

	rec, err := f.food.Create(f.ctx, f.care1, f.resident.UID, foodInput(domain.MealLunch))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.UID)
	assert.Equal(t, f.tenantA, rec.TenantUID)
	assert.Equal(t, f.resident.UID, rec.ResidentUID)
	assert.Equal(t, f.care1.UserID, rec.CaregiverUID)
	assert.True(t, rec.RecordedAt.Equal(baseTime))
	assert.Equal(t, 80, rec.MainCoursePercentage)

	got, err := f.food.Get(f.ctx, f.care2, f.resident.UID, rec.UID)
	require.NoError(t, err)
	assert.Equal(t, domain.MealLunch, got.MealTime)
}

func TestRecordCreate_Validation(t *testing.T) {
	f := newFixture(t)

	in := foodInput(domain.MealLunch)
	in.MainCoursePercentage = ptr(101)
	_, err := f.food.Create(f.ctx, f.care1, f.resident.UID, in)
	requireStatus(t, http.StatusBadRequest, err)

	in = foodInput(domain.MealLunch)
	in.MealTime = nil
	_, err = f.food.Create(f.ctx, f.care1, f.resident.UID, in)
	requireStatus(t, http.StatusBadRequest, err)

	_, err = f.bath.Create(f.ctx, f.care1, f.resident.UID, BathRecordInput{BathMethod: ptr("  ")})
	requireStatus(t, http.StatusBadRequest, err)

	_, err = f.daily.Create(f.ctx, f.care1, f.resident.UID, DailyRecordInput{DailyStatus: ptr(domain.DailyStatus("BAD"))})
	requireStatus(t, http.StatusBadRequest, err)

	// dailyStatus is optional
	_, err = f.daily.Create(f.ctx, f.care1, f.resident.UID, DailyRecordInput{})
	require.NoError(t, err)
}

func TestRecordCreate_FutureRecordedAtRejected(t *testing.T) {
	f := newFixture(t)
	in := BathRecordInput{BathMethod: ptr("個浴")}
	in.RecordedAt = ptr(baseTime.Add(5000 * time.Hour))
	_, err := f.bath.Create(f.ctx, f.care1, f.resident.UID, in)
	requireStatus(t, http.StatusBadRequest, err)

	in.RecordedAt = ptr(baseTime.Add(time.Minute))
	_, err = f.bath.Create(f.ctx, f.adminA, f.resident.UID, in)
	requireStatus(t, http.StatusBadRequest, err)
}

func TestRecordUpdate_RecordedAtCannotReopenWindow(t *testing.T) {
	f := newFixture(t)
	rec, err := f.bath.Create(f.ctx, f.care1, f.resident.UID, BathRecordInput{BathMethod: ptr("個浴")})
	require.NoError(t, err)

	f.advance(23 * time.Hour)
	in := BathRecordInput{}
	in.RecordedAt = ptr(f.now.Add(1000 * time.Hour))
	_, err = f.bath.Update(f.ctx, f.care1, f.resident.UID, rec.UID, in)
	requireStatus(t, http.StatusBadRequest, err)

	// caregiver may not push the record forward, even to now
	in.RecordedAt = ptr(f.now)
	_, err = f.bath.Update(f.ctx, f.care1, f.resident.UID, rec.UID, in)
	requireStatus(t, http.StatusForbidden, err)

	// earlier is fine
	in.RecordedAt = ptr(baseTime.Add(-time.Hour))
	_, err = f.bath.Update(f.ctx, f.care1, f.resident.UID, rec.UID, in)
	require.NoError(t, err)

	stored, err := f.bath.Get(f.ctx, f.care1, f.resident.UID, rec.UID)
	require.NoError(t, err)
	assert.True(t, stored.RecordedAt.Equal(baseTime.Add(-time.Hour)))

	f.advance(30 * 24 * time.Hour)
	_, err = f.bath.Update(f.ctx, f.care1, f.resident.UID, rec.UID, BathRecordInput{BathMethod: ptr("機械浴")})
	requireStatus(t, http.StatusBadRequest, err)
}

func TestRecordUpdate_AdminMayCorrectRecordedAtWithinWindow(t *testing.T) {
	f := newFixture(t)
	in := BathRecordInput{BathMethod: ptr("個浴")}
	in.RecordedAt = ptr(baseTime.Add(-3 * time.Hour))
	rec, err := f.bath.Create(f.ctx, f.care1, f.resident.UID, in)
	require.NoError(t, err)

	upd := BathRecordInput{}
	upd.RecordedAt = ptr(baseTime.Add(-time.Hour))
	got, err := f.bath.Update(f.ctx, f.adminA, f.resident.UID, rec.UID, upd)
	require.NoError(t, err)
	assert.True(t, got.RecordedAt.Equal(baseTime.Add(-time.Hour)))

	upd.RecordedAt = ptr(baseTime.Add(-48 * time.Hour))
	_, err = f.bath.Update(f.ctx, f.adminA, f.resident.UID, rec.UID, upd)
	requireStatus(t, http.StatusBadRequest, err)
}

func TestRecordCreate_UnknownResident(t *testing.T) {
	f := newFixture(t)
	_, err := f.food.Create(f.ctx, f.care1, "missing", foodInput(domain.MealLunch))
	requireStatus(t, http.StatusNotFound, err)
}

func TestRecordUpdate_WindowBoundary(t *testing.T) {
	f := newFixture(t)
	rec, err := f.bath.Create(f.ctx, f.care1, f.resident.UID, BathRecordInput{BathMethod: ptr("個浴")})
	require.NoError(t, err)

	f.advance(24 * time.Hour)
	updated, err := f.bath.Update(f.ctx, f.care1, f.resident.UID, rec.UID, BathRecordInput{BathMethod: ptr("機械浴")})
	require.NoError(t, err)
	assert.Equal(t, "機械浴", updated.BathMethod)

	f.advance(time.Second)
	_, err = f.bath.Update(f.ctx, f.care1, f.resident.UID, rec.UID, BathRecordInput{BathMethod: ptr("シャワー浴")})
	requireStatus(t, http.StatusBadRequest, err)

	// the window binds admins as well
	_, err = f.bath.Update(f.ctx, f.adminA, f.resident.UID, rec.UID, BathRecordInput{BathMethod: ptr("シャワー浴")})
	requireStatus(t, http.StatusBadRequest, err)

	got, err := f.bath.Get(f.ctx, f.care1, f.resident.UID, rec.UID)
	require.NoError(t, err)
	assert.Equal(t, "機械浴", got.BathMethod)
}

func TestRecordUpdate_OtherCaregiverForbidden(t *testing.T) {
	f := newFixture(t)
	rec, err := f.food.Create(f.ctx, f.care1, f.resident.UID, foodInput(domain.MealDinner))
	require.NoError(t, err)

	_, err = f.food.Update(f.ctx, f.care2, f.resident.UID, rec.UID, FoodRecordInput{SoupPercentage: ptr(10)})
	requireStatus(t, http.StatusForbidden, err)

	updated, err := f.food.Update(f.ctx, f.adminA, f.resident.UID, rec.UID, FoodRecordInput{SoupPercentage: ptr(10)})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.SoupPercentage)
	assert.Equal(t, f.care1.UserID, updated.CaregiverUID, "author is unchanged by an admin edit")
}

func TestRecordUpdate_AuthorCheckPrecedesWindow(t *testing.T) {
	f := newFixture(t)
	rec, err := f.food.Create(f.ctx, f.care1, f.resident.UID, foodInput(domain.MealDinner))
	require.NoError(t, err)

	f.advance(48 * time.Hour)
	_, err = f.food.Update(f.ctx, f.care2, f.resident.UID, rec.UID, FoodRecordInput{SoupPercentage: ptr(10)})
	requireStatus(t, http.StatusForbidden, err)
}

func TestRecordDelete_AdminsOnly(t *testing.T) {
	f := newFixture(t)
	rec, err := f.food.Create(f.ctx, f.care1, f.resident.UID, foodInput(domain.MealBreakfast))
	require.NoError(t, err)

	requireStatus(t, http.StatusForbidden, f.food.Delete(f.ctx, f.care1, f.resident.UID, rec.UID))

	// deletes are not time-boxed
	f.advance(72 * time.Hour)
	require.NoError(t, f.food.Delete(f.ctx, f.adminA, f.resident.UID, rec.UID))

	_, err = f.food.Get(f.ctx, f.adminA, f.resident.UID, rec.UID)
	requireStatus(t, http.StatusNotFound, err)
}

func TestRecord_CrossTenantForbidden(t *testing.T) {
	f := newFixture(t)
	rec, err := f.food.Create(f.ctx, f.care1, f.resident.UID, foodInput(domain.MealBreakfast))
	require.NoError(t, err)

	_, err = f.food.Get(f.ctx, f.adminB, f.resident.UID, rec.UID)
	requireStatus(t, http.StatusForbidden, err)
	_, err = f.food.List(f.ctx, f.adminB, f.resident.UID, repository.RecordFilter{})
	requireStatus(t, http.StatusForbidden, err)
	_, err = f.food.Create(f.ctx, f.adminB, f.resident.UID, foodInput(domain.MealLunch))
	requireStatus(t, http.StatusForbidden, err)
	requireStatus(t, http.StatusForbidden, f.food.Delete(f.ctx, f.adminB, f.resident.UID, rec.UID))

	// GLOBAL_ADMIN reaches every tenant
	_, err = f.food.Get(f.ctx, f.global, f.resident.UID, rec.UID)
	require.NoError(t, err)
}

func TestRecord_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.food.Get(f.ctx, f.adminA, f.resident.UID, "missing")
	requireStatus(t, http.StatusNotFound, err)

	rec, err := f.food.Create(f.ctx, f.care1, f.resident.UID, foodInput(domain.MealBreakfast))
	require.NoError(t, err)

	// filed under another resident
	_, err = f.food.Get(f.ctx, f.adminA, f.otherResident.UID, rec.UID)
	requireStatus(t, http.StatusNotFound, err)

	// not-found wins over tenant scope
	_, err = f.food.Get(f.ctx, f.adminB, f.resident.UID, "missing")
	requireStatus(t, http.StatusNotFound, err)
}

func TestRecordList_OrderedNewestFirst(t *testing.T) {
	f := newFixture(t)
	for i, h := range []int{1, 3, 2} {
		in := foodInput(domain.MealLunch)
		in.RecordedAt = ptr(baseTime.Add(-time.Duration(h) * time.Hour))
		in.MainCoursePercentage = ptr(i * 10)
		_, err := f.food.Create(f.ctx, f.care1, f.resident.UID, in)
		require.NoError(t, err)
	}
	_, err := f.food.Create(f.ctx, f.care1, f.otherResident.UID, foodInput(domain.MealLunch))
	require.NoError(t, err)

	list, err := f.food.List(f.ctx, f.care2, f.resident.UID, repository.RecordFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, list.Total)
	assert.Equal(t, 0, list.Items[0].MainCoursePercentage)
	assert.Equal(t, 20, list.Items[1].MainCoursePercentage)
	assert.Equal(t, 10, list.Items[2].MainCoursePercentage)
}

func TestRecordTranscription(t *testing.T) {
	f := newFixture(t)
	rec, err := f.daily.Create(f.ctx, f.care1, f.resident.UID, DailyRecordInput{})
	require.NoError(t, err)

	_, err = f.daily.AppendTranscription(f.ctx, f.care1, f.resident.UID, rec.UID, "朝食は完食")
	requireStatus(t, http.StatusForbidden, err)

	out, err := f.daily.AppendTranscription(f.ctx, f.adminA, f.resident.UID, rec.UID, "朝食は完食")
	require.NoError(t, err)
	assert.Equal(t, "朝食は完食", *out.Transcription)

	out, err = f.daily.AppendTranscription(f.ctx, f.adminA, f.resident.UID, rec.UID, "午後は散歩")
	require.NoError(t, err)
	assert.Equal(t, "朝食は完食\n午後は散歩", *out.Transcription)

	// reads are open to caregivers and transcription writes ignore the window
	f.advance(30 * 24 * time.Hour)
	got, err := f.daily.GetTranscription(f.ctx, f.care2, f.resident.UID, rec.UID)
	require.NoError(t, err)
	assert.Equal(t, "朝食は完食\n午後は散歩", *got.Transcription)

	out, err = f.daily.ReplaceTranscription(f.ctx, f.adminA, f.resident.UID, rec.UID, "置換")
	require.NoError(t, err)
	assert.Equal(t, "置換", *out.Transcription)

	_, err = f.daily.ReplaceTranscription(f.ctx, f.adminA, f.resident.UID, rec.UID, " ")
	requireStatus(t, http.StatusBadRequest, err)

	out, err = f.daily.ClearTranscription(f.ctx, f.adminA, f.resident.UID, rec.UID)
	require.NoError(t, err)
	assert.Nil(t, out.Transcription)

	out, err = f.daily.AppendTranscription(f.ctx, f.adminA, f.resident.UID, rec.UID, "再開")
	require.NoError(t, err)
	assert.Equal(t, "再開", *out.Transcription)
}

type fakeFoodExtractor struct {
	calls int
	err   error
}

func (e *fakeFoodExtractor) Extract(_ context.Context, transcript string, current *domain.FoodRecord) (llm.FoodExtraction, error) {
	e.calls++
	if e.err != nil {
		return llm.FoodExtraction{}, e.err
	}
	meal := current.MealTime
	return llm.FoodExtraction{MealTime: &meal, Notes: &transcript}, nil
}

func newFoodServiceWith(f *fixture, ex policy.Extractor[*domain.FoodRecord, llm.FoodExtraction]) *FoodRecordService {
	return NewFoodRecordService(RecordDeps{
		Coordinator: f.coord,
		Residents:   f.residents,
		Hooks:       RecordHooks{Metrics: f.metrics},
		Logger:      zap.NewNop(),
	}, f.foodRepo, ex)
}

func TestRecordExtract(t *testing.T) {
	f := newFixture(t)
	ex := &fakeFoodExtractor{}
	svc := newFoodServiceWith(f, ex)

	rec, err := svc.Create(f.ctx, f.care1, f.resident.UID, foodInput(domain.MealLunch))
	require.NoError(t, err)

	_, err = svc.Extract(f.ctx, f.adminA, f.resident.UID, rec.UID)
	requireStatus(t, http.StatusBadRequest, err)
	assert.Equal(t, 0, ex.calls)

	_, err = svc.AppendTranscription(f.ctx, f.adminA, f.resident.UID, rec.UID, "昼食は半分")
	require.NoError(t, err)

	_, err = svc.Extract(f.ctx, f.care1, f.resident.UID, rec.UID)
	requireStatus(t, http.StatusForbidden, err)

	out, err := svc.Extract(f.ctx, f.adminA, f.resident.UID, rec.UID)
	require.NoError(t, err)
	got := out.(llm.FoodExtraction)
	assert.Equal(t, domain.MealLunch, *got.MealTime)
	assert.Equal(t, "昼食は半分", *got.Notes)

	ex.err = errors.New("model down")
	_, err = svc.Extract(f.ctx, f.adminA, f.resident.UID, rec.UID)
	requireStatus(t, http.StatusBadGateway, err)

	// nothing is persisted by extraction
	stored, err := svc.Get(f.ctx, f.adminA, f.resident.UID, rec.UID)
	require.NoError(t, err)
	assert.Nil(t, stored.Notes)
}

func TestRecordExtract_Unconfigured(t *testing.T) {
	f := newFixture(t)
	rec, err := f.food.Create(f.ctx, f.care1, f.resident.UID, foodInput(domain.MealLunch))
	require.NoError(t, err)
	_, err = f.food.Extract(f.ctx, f.adminA, f.resident.UID, rec.UID)
	requireStatus(t, http.StatusBadGateway, err)
}

func TestRecordHooks(t *testing.T) {
	f := newFixture(t)
	rec, err := f.daily.Create(f.ctx, f.care1, f.resident.UID, DailyRecordInput{DailyStatus: ptr(domain.DailyWarning)})
	require.NoError(t, err)
	_, err = f.daily.Update(f.ctx, f.care1, f.resident.UID, rec.UID, DailyRecordInput{RecordInput: RecordInput{Notes: ptr("食欲低下")}})
	require.NoError(t, err)
	require.NoError(t, f.daily.Delete(f.ctx, f.adminA, f.resident.UID, rec.UID))

	// rejected writes emit nothing
	_, err = f.daily.Update(f.ctx, f.care2, f.resident.UID, rec.UID, DailyRecordInput{})
	requireStatus(t, http.StatusNotFound, err)

	require.Len(t, f.notes.changes, 3)
	assert.Equal(t, notify.EventCreated, f.notes.changes[0].Event)
	assert.Equal(t, notify.EventUpdated, f.notes.changes[1].Event)
	assert.Equal(t, notify.EventDeleted, f.notes.changes[2].Event)
	assert.Equal(t, f.tenantA, f.notes.changes[0].TenantUID)
	assert.Equal(t, "daily", f.notes.changes[0].Kind)

	require.Len(t, f.index.events, 3)
	assert.Equal(t, indexer.Event{Op: indexer.OpUpsert, Kind: "daily", UID: rec.UID}, f.index.events[0])
	assert.Equal(t, indexer.OpDelete, f.index.events[2].Op)
}

func TestFoodDailySummary(t *testing.T) {
	f := newFixture(t) // now = 2025-03-10 18:00 JST

	create := func(meal domain.MealTime, at time.Time, main int) {
		in := foodInput(meal)
		in.RecordedAt = &at
		in.MainCoursePercentage = ptr(main)
		_, err := f.food.Create(f.ctx, f.care1, f.resident.UID, in)
		require.NoError(t, err)
	}
	create(domain.MealBreakfast, time.Date(2025, 3, 10, 7, 0, 0, 0, jst), 50)
	create(domain.MealBreakfast, time.Date(2025, 3, 10, 8, 0, 0, 0, jst), 90)
	create(domain.MealLunch, time.Date(2025, 3, 9, 12, 0, 0, 0, jst), 60)
	// before the range
	create(domain.MealDinner, time.Date(2025, 3, 7, 23, 30, 0, 0, jst), 40)

	out, err := f.food.DailySummary(f.ctx, f.care2, f.resident.UID, DailySummaryRequest{StartDate: "2025-03-08", EndDate: "2025-03-10"})
	require.NoError(t, err)
	require.Equal(t, 3, out.Total)
	assert.Equal(t, "2025-03-10", out.Items[0].Date)
	require.NotNil(t, out.Items[0].Breakfast)
	assert.Equal(t, 90, out.Items[0].Breakfast.MainCoursePercentage)
	assert.Nil(t, out.Items[0].Lunch)
	assert.Equal(t, "2025-03-09", out.Items[1].Date)
	require.NotNil(t, out.Items[1].Lunch)
	assert.Equal(t, 60, out.Items[1].Lunch.MainCoursePercentage)
	assert.Equal(t, "2025-03-08", out.Items[2].Date)
	assert.Nil(t, out.Items[2].Dinner)

	def, err := f.food.DailySummary(f.ctx, f.care2, f.resident.UID, DailySummaryRequest{})
	require.NoError(t, err)
	require.Equal(t, 30, def.Total)
	assert.Equal(t, "2025-03-10", def.Items[0].Date)
	assert.Equal(t, "2025-02-09", def.Items[29].Date)

	_, err = f.food.DailySummary(f.ctx, f.care2, f.resident.UID, DailySummaryRequest{StartDate: "2025-03-11", EndDate: "2025-03-10"})
	requireStatus(t, http.StatusBadRequest, err)
	_, err = f.food.DailySummary(f.ctx, f.care2, f.resident.UID, DailySummaryRequest{StartDate: "03/01"})
	requireStatus(t, http.StatusBadRequest, err)
	_, err = f.food.DailySummary(f.ctx, f.adminB, f.resident.UID, DailySummaryRequest{})
	requireStatus(t, http.StatusForbidden, err)
}
