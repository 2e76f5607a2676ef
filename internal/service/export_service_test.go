package service

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/export"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

func TestExportResidentRecords(t *testing.T) {
	f := newFixture(t)
	_, err := f.food.Create(f.ctx, f.care1, f.resident.UID, foodInput(domain.MealBreakfast))
	require.NoError(t, err)
	_, err = f.daily.Create(f.ctx, f.care2, f.resident.UID, DailyRecordInput{DailyStatus: ptr(domain.DailyAlert)})
	require.NoError(t, err)
	old := foodInput(domain.MealDinner)
	old.RecordedAt = ptr(baseTime.AddDate(0, -2, 0))
	_, err = f.food.Create(f.ctx, f.care1, f.resident.UID, old)
	require.NoError(t, err)

	svc := NewExportService(f.coord, f.residents, f.users, ExportRepos{
		Food:        f.foodRepo,
		Bath:        repository.NewMemoryBathRecordRepo(),
		Elimination: repository.NewMemoryEliminationRecordRepo(),
		Beverage:    repository.NewMemoryBeverageRecordRepo(),
		Daily:       f.dailyRepo,
	}, zap.NewNop())

	file, err := svc.ExportResidentRecords(f.ctx, f.care1, f.resident.UID, ExportRequest{From: baseTime.AddDate(0, -1, 0)})
	require.NoError(t, err)
	assert.Equal(t, "山田花子_20250310.xlsx", file.Filename)
	assert.Equal(t, xlsxContentType, file.ContentType())

	wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(export.SheetFood)
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus the record inside the range")
	assert.Equal(t, "介護 care-1", rows[1][1])

	rows, err = wb.GetRows(export.SheetDaily)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "介護 care-2", rows[1][1])

	_, err = svc.ExportResidentRecords(f.ctx, f.adminB, f.resident.UID, ExportRequest{})
	requireStatus(t, http.StatusForbidden, err)
	_, err = svc.ExportResidentRecords(f.ctx, f.adminA, "missing", ExportRequest{})
	requireStatus(t, http.StatusNotFound, err)
	_, err = svc.ExportResidentRecords(f.ctx, f.adminA, f.resident.UID, ExportRequest{From: baseTime, To: baseTime.Add(-time.Hour)})
	requireStatus(t, http.StatusBadRequest, err)
}
