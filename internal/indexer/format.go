package indexer

import (
	"fmt"
	"strings"
	"time"

	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// jst 护理机构所在地时区
var jst = time.FixedZone("JST", 9*60*60)

var dailyStatusJa = map[domain.DailyStatus]string{
	domain.DailyNormal:  "普通",
	domain.DailyWarning: "注意",
	domain.DailyAlert:   "警告",
}

var mealTimeJa = map[domain.MealTime]string{
	domain.MealBreakfast: "朝食",
	domain.MealLunch:     "昼食",
	domain.MealDinner:    "夕食",
}

var beverageTypeJa = map[domain.BeverageType]string{
	domain.BeverageWater: "水",
	domain.BeverageTea:   "お茶",
	domain.BeverageOther: "その他",
}

func header(res *domain.Resident, label string) string {
	return fmt.Sprintf("%s %sさん（%s %s）の%s",
		res.FamilyName, res.GivenName, res.FamilyNameFurigana, res.GivenNameFurigana, label)
}

func recordedAt(t time.Time) string {
	l := t.In(jst)
	return fmt.Sprintf("%d年%d月%d日 %02d:%02d", l.Year(), int(l.Month()), l.Day(), l.Hour(), l.Minute())
}

func writeTail(b *strings.Builder, base *domain.RecordBase) {
	if base.Notes != nil && *base.Notes != "" {
		b.WriteString("【備考】\n" + *base.Notes + "\n")
	}
	if base.Transcription != nil && *base.Transcription != "" {
		b.WriteString("【音声文字起こし】\n" + *base.Transcription + "\n")
	}
}

// FormatDailyRecord renders a daily record as the text document stored in the vector index.
func FormatDailyRecord(rec *domain.DailyRecord, res *domain.Resident) string {
	var b strings.Builder
	b.WriteString(header(res, "日常記録") + "\n\n")
	b.WriteString("【記録日時】" + recordedAt(rec.RecordedAt) + "\n")
	if rec.DailyStatus != nil {
		b.WriteString("【状態】" + dailyStatusJa[*rec.DailyStatus] + "\n")
	}
	writeTail(&b, &rec.RecordBase)
	return b.String()
}

// FormatFoodRecord renders a food record as an index document.
func FormatFoodRecord(rec *domain.FoodRecord, res *domain.Resident) string {
	var b strings.Builder
	b.WriteString(header(res, "食事記録") + "\n\n")
	b.WriteString("【記録日時】" + recordedAt(rec.RecordedAt) + "\n")
	b.WriteString("【食事区分】" + mealTimeJa[rec.MealTime] + "\n")
	fmt.Fprintf(&b, "【摂取量】\n - 主食: %d%%\n - 副食: %d%%\n - 汁物: %d%%\n",
		rec.MainCoursePercentage, rec.SideDishPercentage, rec.SoupPercentage)
	fmt.Fprintf(&b, "【飲み物】\n - 種類: %s\n - 量: %dml\n", beverageTypeJa[rec.BeverageType], rec.BeverageVolume)
	writeTail(&b, &rec.RecordBase)
	return b.String()
}
