package domain

import "time"

// CareLevel 护理等级
type CareLevel string

const (
	NeedsCare1 CareLevel = "NEEDS_CARE_1"
	NeedsCare2 CareLevel = "NEEDS_CARE_2"
	NeedsCare3 CareLevel = "NEEDS_CARE_3"
	NeedsCare4 CareLevel = "NEEDS_CARE_4"
	NeedsCare5 CareLevel = "NEEDS_CARE_5"
)

func (c CareLevel) Valid() bool {
	switch c {
	case NeedsCare1, NeedsCare2, NeedsCare3, NeedsCare4, NeedsCare5:
		return true
	}
	return false
}

// PhysicalIndependence 残障老人日常生活自理程度
type PhysicalIndependence string

var physicalLevels = map[PhysicalIndependence]bool{
	"INDEPENDENT": true, "J1": true, "J2": true, "A1": true, "A2": true,
	"B1": true, "B2": true, "C1": true, "C2": true,
}

func (p PhysicalIndependence) Valid() bool { return physicalLevels[p] }

// CognitiveIndependence 认知症老人日常生活自理程度
type CognitiveIndependence string

var cognitiveLevels = map[CognitiveIndependence]bool{
	"INDEPENDENT": true, "I": true, "IIa": true, "IIb": true,
	"IIIa": true, "IIIb": true, "IV": true, "M": true,
}

func (c CognitiveIndependence) Valid() bool { return cognitiveLevels[c] }

// AssessmentText is the free-text body of an intake assessment.
type AssessmentText struct {
	FamilyInfo             *string `json:"familyInfo" db:"family_info"`
	MedicalHistory         *string `json:"medicalHistory" db:"medical_history"`
	Medications            *string `json:"medications" db:"medications"`
	FormalServices         *string `json:"formalServices" db:"formal_services"`
	InformalSupport        *string `json:"informalSupport" db:"informal_support"`
	ConsultationBackground *string `json:"consultationBackground" db:"consultation_background"`
	LifeHistory            *string `json:"lifeHistory" db:"life_history"`
	Complaints             *string `json:"complaints" db:"complaints"`
	HealthNotes            *string `json:"healthNotes" db:"health_notes"`
	MentalStatus           *string `json:"mentalStatus" db:"mental_status"`
	PhysicalStatus         *string `json:"physicalStatus" db:"physical_status"`
	ADLStatus              *string `json:"adlStatus" db:"adl_status"`
	Communication          *string `json:"communication" db:"communication"`
	DailyLife              *string `json:"dailyLife" db:"daily_life"`
	InstrumentalADL        *string `json:"instrumentalADL" db:"instrumental_adl"`
	Participation          *string `json:"participation" db:"participation"`
	Environment            *string `json:"environment" db:"environment"`
	LivingSituation        *string `json:"livingSituation" db:"living_situation"`
	LegalSupport           *string `json:"legalSupport" db:"legal_support"`
	PersonalTraits         *string `json:"personalTraits" db:"personal_traits"`
}

// Fields returns pointers to every text field in column order, keyed by column name.
// Repositories and patch application iterate this instead of repeating twenty names.
func (t *AssessmentText) Fields() []TextField {
	return []TextField{
		{"family_info", &t.FamilyInfo},
		{"medical_history", &t.MedicalHistory},
		{"medications", &t.Medications},
		{"formal_services", &t.FormalServices},
		{"informal_support", &t.InformalSupport},
		{"consultation_background", &t.ConsultationBackground},
		{"life_history", &t.LifeHistory},
		{"complaints", &t.Complaints},
		{"health_notes", &t.HealthNotes},
		{"mental_status", &t.MentalStatus},
		{"physical_status", &t.PhysicalStatus},
		{"adl_status", &t.ADLStatus},
		{"communication", &t.Communication},
		{"daily_life", &t.DailyLife},
		{"instrumental_adl", &t.InstrumentalADL},
		{"participation", &t.Participation},
		{"environment", &t.Environment},
		{"living_situation", &t.LivingSituation},
		{"legal_support", &t.LegalSupport},
		{"personal_traits", &t.PersonalTraits},
	}
}

// TextField binds a column name to a nullable text field.
type TextField struct {
	Column string
	Ptr    **string
}

// Assessment 评估（对应 assessments 表，subject 唯一）
type Assessment struct {
	UID                   string                `json:"uid" db:"uid"`
	TenantUID             string                `json:"tenantUid" db:"tenant_uid"`
	SubjectUID            string                `json:"subjectUid" db:"subject_uid"`
	UserUID               string                `json:"userUid" db:"user_uid"` // last editor
	CareLevel             CareLevel             `json:"careLevel" db:"care_level"`
	PhysicalIndependence  PhysicalIndependence  `json:"physicalIndependence" db:"physical_independence"`
	CognitiveIndependence CognitiveIndependence `json:"cognitiveIndependence" db:"cognitive_independence"`
	AssessmentText
	Transcription *string   `json:"transcription" db:"transcription"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Ownership has no author: assessments are shared documents edited by many staff.
func (a *Assessment) Ownership() Ownership {
	return Ownership{UID: a.UID, TenantUID: a.TenantUID, RecordedAt: a.CreatedAt}
}
