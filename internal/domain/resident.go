package domain

import "time"

// Gender 性别
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// Person holds the name/birth fields shared by residents and assessment subjects.
type Person struct {
	FamilyName         string    `json:"familyName" db:"family_name"`
	GivenName          string    `json:"givenName" db:"given_name"`
	FamilyNameFurigana string    `json:"familyNameFurigana" db:"family_name_furigana"`
	GivenNameFurigana  string    `json:"givenNameFurigana" db:"given_name_furigana"`
	DateOfBirth        time.Time `json:"dateOfBirth" db:"date_of_birth"`
	Gender             Gender    `json:"gender" db:"gender"`
}

// FullName returns "family given".
func (p Person) FullName() string {
	return p.FamilyName + " " + p.GivenName
}

// Resident 入住者（对应 residents 表）
type Resident struct {
	UID       string `json:"uid" db:"uid"`
	TenantUID string `json:"tenantUid" db:"tenant_uid"`
	Person
	AdmissionDate time.Time `json:"admissionDate" db:"admission_date"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Subject 评估对象（对应 subjects 表）
type Subject struct {
	UID       string `json:"uid" db:"uid"`
	TenantUID string `json:"tenantUid" db:"tenant_uid"`
	Person
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
