// Package export renders a resident's observation records as an .xlsx workbook.
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// ResidentRecords is everything written to one workbook.
type ResidentRecords struct {
	Resident     *domain.Resident
	Food         []*domain.FoodRecord
	Bath         []*domain.BathRecord
	Elimination  []*domain.EliminationRecord
	Beverage     []*domain.BeverageRecord
	Daily        []*domain.DailyRecord
	CaregiverFor func(uid string) string // display name lookup; nil prints the uid
}

// Sheet names, one per kind.
const (
	SheetFood        = "食事"
	SheetBath        = "入浴"
	SheetElimination = "排泄"
	SheetBeverage    = "水分"
	SheetDaily       = "日常"
)

var baseHeader = []string{"記録日時", "記録者", "備考", "音声文字起こし"}

type sheet struct {
	name   string
	header []string
	rows   [][]any
}

// Workbook builds the .xlsx bytes.
func Workbook(rr ResidentRecords) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []sheet{
		foodSheet(rr), bathSheet(rr), eliminationSheet(rr), beverageSheet(rr), dailySheet(rr),
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			// 默认的 Sheet1 改名为第一个 sheet
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, headerStyle); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	for col, h := range s.header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(s.name, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(s.name, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	for r, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", r+2, s.name, err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(s.header))
	if err := f.SetColWidth(s.name, "A", last, 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return f.SetPanes(s.name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

var jst = time.FixedZone("JST", 9*60*60)

func (rr ResidentRecords) base(b *domain.RecordBase) []any {
	who := b.CaregiverUID
	if rr.CaregiverFor != nil {
		who = rr.CaregiverFor(b.CaregiverUID)
	}
	return []any{b.RecordedAt.In(jst).Format("2006/01/02 15:04"), who, deref(b.Notes), deref(b.Transcription)}
}

func header(cols ...string) []string {
	return append(append([]string{}, baseHeader[:2]...), append(cols, baseHeader[2:]...)...)
}

// row puts kind columns between the author and the notes columns.
func row(base []any, cols ...any) []any {
	out := append([]any{}, base[:2]...)
	out = append(out, cols...)
	return append(out, base[2:]...)
}

func foodSheet(rr ResidentRecords) sheet {
	s := sheet{name: SheetFood, header: header("食事区分", "主食(%)", "副食(%)", "汁物(%)", "飲み物", "飲み物(ml)")}
	for _, r := range rr.Food {
		s.rows = append(s.rows, row(rr.base(&r.RecordBase),
			string(r.MealTime), r.MainCoursePercentage, r.SideDishPercentage, r.SoupPercentage,
			string(r.BeverageType), r.BeverageVolume))
	}
	return s
}

func bathSheet(rr ResidentRecords) sheet {
	s := sheet{name: SheetBath, header: header("入浴方法")}
	for _, r := range rr.Bath {
		s.rows = append(s.rows, row(rr.base(&r.RecordBase), r.BathMethod))
	}
	return s
}

func eliminationSheet(rr ResidentRecords) sheet {
	s := sheet{name: SheetElimination, header: header(
		"排泄方法", "便", "便失禁", "便性状", "便量(g)", "尿", "尿失禁", "尿性状", "尿量(ml)")}
	for _, r := range rr.Elimination {
		s.rows = append(s.rows, row(rr.base(&r.RecordBase),
			r.EliminationMethod, yesNo(r.HasFeces), optBool(r.FecalIncontinence), deref(r.FecesAppearance), optInt(r.FecesVolume),
			yesNo(r.HasUrine), optBool(r.UrinaryIncontinence), deref(r.UrineAppearance), optInt(r.UrineVolume)))
	}
	return s
}

func beverageSheet(rr ResidentRecords) sheet {
	s := sheet{name: SheetBeverage, header: header("種類", "量(ml)")}
	for _, r := range rr.Beverage {
		s.rows = append(s.rows, row(rr.base(&r.RecordBase), string(r.BeverageType), r.Volume))
	}
	return s
}

func dailySheet(rr ResidentRecords) sheet {
	s := sheet{name: SheetDaily, header: header("状態")}
	for _, r := range rr.Daily {
		status := ""
		if r.DailyStatus != nil {
			status = string(*r.DailyStatus)
		}
		s.rows = append(s.rows, row(rr.base(&r.RecordBase), status))
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "あり"
	}
	return "なし"
}

func optBool(b *bool) string {
	if b == nil {
		return ""
	}
	return yesNo(*b)
}

func optInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
