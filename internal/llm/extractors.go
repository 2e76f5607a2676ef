package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/policy"
)

// Extraction results. Nil fields were not mentioned in the transcript.

type FoodExtraction struct {
	MealTime             *domain.MealTime     `json:"mealTime"`
	MainCoursePercentage *int                 `json:"mainCoursePercentage"`
	SideDishPercentage   *int                 `json:"sideDishPercentage"`
	SoupPercentage       *int                 `json:"soupPercentage"`
	BeverageType         *domain.BeverageType `json:"beverageType"`
	BeverageVolume       *int                 `json:"beverageVolume"`
	Notes                *string              `json:"notes"`
}

type BathExtraction struct {
	BathMethod *string `json:"bathMethod"`
	Notes      *string `json:"notes"`
}

type EliminationExtraction struct {
	EliminationMethod   *string `json:"eliminationMethod"`
	HasFeces            *bool   `json:"hasFeces"`
	FecalIncontinence   *bool   `json:"fecalIncontinence"`
	FecesAppearance     *string `json:"fecesAppearance"`
	FecesVolume         *int    `json:"fecesVolume"`
	HasUrine            *bool   `json:"hasUrine"`
	UrinaryIncontinence *bool   `json:"urinaryIncontinence"`
	UrineAppearance     *string `json:"urineAppearance"`
	UrineVolume         *int    `json:"urineVolume"`
	Notes               *string `json:"notes"`
}

type BeverageExtraction struct {
	BeverageType *domain.BeverageType `json:"beverageType"`
	Volume       *int                 `json:"volume"`
	Notes        *string              `json:"notes"`
}

type DailyExtraction struct {
	DailyStatus *domain.DailyStatus `json:"dailyStatus"`
	Notes       *string             `json:"notes"`
}

type AssessmentExtraction struct {
	CareLevel             domain.CareLevel             `json:"careLevel"`
	PhysicalIndependence  domain.PhysicalIndependence  `json:"physicalIndependence"`
	CognitiveIndependence domain.CognitiveIndependence `json:"cognitiveIndependence"`
	domain.AssessmentText
}

// StructuredExtractor sends the current record as JSON plus the transcript and
// decodes the model's schema-constrained answer into P.
type StructuredExtractor[S any, P any] struct {
	client *Client
	name   string
	system string
	schema map[string]any
}

var _ policy.Extractor[*domain.FoodRecord, FoodExtraction] = (*StructuredExtractor[*domain.FoodRecord, FoodExtraction])(nil)

func (e *StructuredExtractor[S, P]) Extract(ctx context.Context, transcript string, current S) (P, error) {
	var out P
	state, err := json.Marshal(current)
	if err != nil {
		return out, fmt.Errorf("encode current state: %w", err)
	}
	msgs := []ChatMessage{
		{Role: RoleSystem, Content: e.system},
		{Role: RoleUser, Content: "現在の記録状態: " + string(state) + "\n\n文字起こし: " + transcript},
	}
	if err := e.client.ChatJSON(ctx, msgs, e.name, e.schema, &out); err != nil {
		return out, err
	}
	return out, nil
}

const extractRules = "**文字起こし内で明確に言及されているフィールドについてのみ値を設定し、言及されていないフィールドは0などではなく、nullにしてください**\n" +
	"現在の記録状態について、特に変更がなさそうであれば引き継いでください。"

func NewFoodExtractor(c *Client) *StructuredExtractor[*domain.FoodRecord, FoodExtraction] {
	return &StructuredExtractor[*domain.FoodRecord, FoodExtraction]{
		client: c,
		name:   "food_record",
		system: "あなたは介護施設の食事記録を作成するアシスタントです。\n\n" +
			"介護士が話した内容の文字起こしテキストを最後まで読んでから、食事記録を作成してください。\n" +
			"食事記録は以下のスキーマに厳密に従って作成してください。\n" +
			"- 食事の時間帯（朝食、昼食、夕食）\n" +
			"- 主食の摂取率（0-100%）\n" +
			"- 副食の摂取率（0-100%）\n" +
			"- 汁物の摂取率（0-100%）\n" +
			"- 飲み物の種類（水、お茶、その他）\n" +
			"- 飲み物の摂取量（ml）\n" +
			"- 特記事項（上記の項目では表現できない重要な情報のみを記載）\n\n" +
			"摂取率や飲み物の量など、他のフィールドで表現できる情報は特記事項に含めないでください。\n" +
			extractRules,
		schema: object(map[string]any{
			"mealTime":             nullableEnum("食事の時間帯", "BREAKFAST", "LUNCH", "DINNER"),
			"mainCoursePercentage": nullable("integer", "主食の摂取率（%）"),
			"sideDishPercentage":   nullable("integer", "副食の摂取率（%）"),
			"soupPercentage":       nullable("integer", "汁物の摂取率（%）"),
			"beverageType":         nullableEnum("飲み物の種類（水、お茶、その他）", "WATER", "TEA", "OTHER"),
			"beverageVolume":       nullable("integer", "飲み物の摂取量（ml）"),
			"notes":                nullable("string", "特記事項"),
		}),
	}
}

func NewBathExtractor(c *Client) *StructuredExtractor[*domain.BathRecord, BathExtraction] {
	return &StructuredExtractor[*domain.BathRecord, BathExtraction]{
		client: c,
		name:   "bath_record",
		system: "あなたは介護施設の入浴記録を作成するアシスタントです。\n\n" +
			"介護士が話した内容の文字起こしテキストを最後まで読んでから、入浴記録を作成してください。\n" +
			"- 入浴方法（一般浴、機械浴、シャワー浴など）\n" +
			"- 特記事項（上記の項目では表現できない重要な情報のみを記載）\n\n" +
			"入浴方法など、他のフィールドで表現できる情報は特記事項に含めないでください。\n" +
			extractRules,
		schema: object(map[string]any{
			"bathMethod": nullable("string", "入浴方法"),
			"notes":      nullable("string", "特記事項"),
		}),
	}
}

func NewEliminationExtractor(c *Client) *StructuredExtractor[*domain.EliminationRecord, EliminationExtraction] {
	return &StructuredExtractor[*domain.EliminationRecord, EliminationExtraction]{
		client: c,
		name:   "elimination_record",
		system: "あなたは介護施設の排泄記録を作成するアシスタントです。\n\n" +
			"介護士が話した内容の文字起こしテキストを最後まで読んでから、排泄記録を作成してください。\n" +
			"便の性状にはブリストルスケール（硬便、正常便、軟便）、尿の性状には色や血尿などの情報を優先して記載してください。\n" +
			"便や尿の有無、性状、量など、他のフィールドで表現できる情報は備考に含めないでください。\n" +
			extractRules,
		schema: object(map[string]any{
			"eliminationMethod":   nullable("string", "排泄方法"),
			"hasFeces":            nullable("boolean", "便の有無"),
			"fecalIncontinence":   nullable("boolean", "便失禁の有無"),
			"fecesAppearance":     nullable("string", "便の性状"),
			"fecesVolume":         nullable("integer", "便の量（g）"),
			"hasUrine":            nullable("boolean", "尿の有無"),
			"urinaryIncontinence": nullable("boolean", "尿失禁の有無"),
			"urineAppearance":     nullable("string", "尿の性状"),
			"urineVolume":         nullable("integer", "尿量（ml）"),
			"notes":               nullable("string", "備考"),
		}),
	}
}

func NewBeverageExtractor(c *Client) *StructuredExtractor[*domain.BeverageRecord, BeverageExtraction] {
	return &StructuredExtractor[*domain.BeverageRecord, BeverageExtraction]{
		client: c,
		name:   "beverage_record",
		system: "あなたは介護施設の水分摂取記録を作成するアシスタントです。\n\n" +
			"介護士が話した内容の文字起こしテキストを最後まで読んでから、水分摂取記録を作成してください。\n" +
			"- 飲み物の種類（水、お茶、その他）\n" +
			"- 飲み物の摂取量（ml）\n" +
			"- 特記事項\n\n" +
			extractRules,
		schema: object(map[string]any{
			"beverageType": nullableEnum("飲み物の種類（水、お茶、その他）", "WATER", "TEA", "OTHER"),
			"volume":       nullable("integer", "飲み物の摂取量（ml）"),
			"notes":        nullable("string", "特記事項"),
		}),
	}
}

func NewDailyExtractor(c *Client) *StructuredExtractor[*domain.DailyRecord, DailyExtraction] {
	return &StructuredExtractor[*domain.DailyRecord, DailyExtraction]{
		client: c,
		name:   "daily_record",
		system: "あなたは介護施設の日常記録を作成するアシスタントです。\n\n" +
			"介護士が話した内容の文字起こしテキストを最後まで読んでから、日常記録を作成してください。\n" +
			"- 特記事項（他の項目では表現できない重要な情報のみを記載）\n" +
			"- 日常の状態（普通、注意、警告）\n\n" +
			extractRules,
		schema: object(map[string]any{
			"dailyStatus": nullableEnum("日常の状態（普通、注意、警告）", "NORMAL", "WARNING", "ALERT"),
			"notes":       nullable("string", "特記事項"),
		}),
	}
}

var assessmentTextDescriptions = map[string]string{
	"familyInfo":             "家族構成",
	"medicalHistory":         "既往症",
	"medications":            "服用薬剤",
	"formalServices":         "使用しているフォーマルサービス",
	"informalSupport":        "使用しているインフォーマルサービス",
	"consultationBackground": "相談に至った経緯",
	"lifeHistory":            "生活史",
	"complaints":             "主訴",
	"healthNotes":            "健康状態",
	"mentalStatus":           "精神状態",
	"physicalStatus":         "身体状態",
	"adlStatus":              "ADL",
	"communication":          "コミュニケーション",
	"dailyLife":              "日常生活",
	"instrumentalADL":        "IADL",
	"participation":          "参加・参加制約",
	"environment":            "環境",
	"livingSituation":        "生活状況",
	"legalSupport":           "制度的環境",
	"personalTraits":         "個人因子",
}

func NewAssessmentExtractor(c *Client) *StructuredExtractor[*domain.Assessment, AssessmentExtraction] {
	props := map[string]any{
		"careLevel": enum("要介護状態区分",
			"NEEDS_CARE_1", "NEEDS_CARE_2", "NEEDS_CARE_3", "NEEDS_CARE_4", "NEEDS_CARE_5"),
		"physicalIndependence": enum("障害高齢者の日常生活自立度判定基準",
			"INDEPENDENT", "J1", "J2", "A1", "A2", "B1", "B2", "C1", "C2"),
		"cognitiveIndependence": enum("認知症高齢者の日常生活自立度判定基準",
			"INDEPENDENT", "I", "IIa", "IIb", "IIIa", "IIIb", "IV", "M"),
	}
	for k, desc := range assessmentTextDescriptions {
		props[k] = nullable("string", desc)
	}
	return &StructuredExtractor[*domain.Assessment, AssessmentExtraction]{
		client: c,
		name:   "assessment",
		system: "あなたは介護施設のアセスメント記録を作成するアシスタントです。\n\n" +
			"介護士が話した内容の文字起こしテキストを最後まで読んでから、アセスメント記録を作成してください。\n" +
			"アセスメント記録はスキーマに厳密に従って作成してください。\n\n" +
			extractRules,
		schema: object(props),
	}
}
