package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// ============================================
// tenants / users
// ============================================

func TestGetTenant_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresTenantsRepository(db)
	uid := uuid.NewString()
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM tenants WHERE uid = \$1`).
		WithArgs(uid).
		WillReturnRows(sqlmock.NewRows([]string{"uid", "name", "created_at", "updated_at"}).
			AddRow(uid, "ながら園", now, now))

	got, err := repo.GetTenant(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, "ながら園", got.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTenant_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresTenantsRepository(db)

	mock.ExpectQuery(`SELECT .* FROM tenants`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetTenant(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTenant_NoRows(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresTenantsRepository(db)

	mock.ExpectExec(`UPDATE tenants SET name = \$2`).
		WithArgs("t1", "renamed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateTenant(context.Background(), &domain.Tenant{UID: "t1", Name: "renamed"})
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DuplicateLoginID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresUsersRepository(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.CreateUser(context.Background(), &domain.User{LoginID: "caregiver1", Role: domain.RoleCaregiver})
	assert.True(t, errors.Is(err, ErrAlreadyExists))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByLoginID_GlobalAdminHasNoTenant(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresUsersRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM users WHERE login_id = \$1`).
		WithArgs("global-admin1").
		WillReturnRows(sqlmock.NewRows([]string{
			"uid", "login_id", "family_name", "given_name", "family_name_furigana", "given_name_furigana",
			"role", "tenant_uid", "password_digest", "created_at", "updated_at",
		}).AddRow("u1", "global-admin1", "管理者", "1", "かんりしゃ", "いち",
			"GLOBAL_ADMIN", nil, "$2a$10$digest", now, now))

	u, err := repo.GetUserByLoginID(context.Background(), "global-admin1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGlobalAdmin, u.Role)
	assert.Nil(t, u.TenantUID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// observation records
// ============================================

var foodRecordColumns = []string{
	"uid", "tenant_uid", "resident_uid", "caregiver_uid", "recorded_at", "notes", "transcription",
	"created_at", "updated_at",
	"meal_time", "main_course_percentage", "side_dish_percentage", "soup_percentage",
	"beverage_type", "beverage_volume",
}

func TestFoodRecordGet_ScansKindColumns(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresFoodRecordRepo(db)
	at := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM food_records WHERE uid = \$1`).
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows(foodRecordColumns).AddRow(
			"f1", "t1", "r1", "c1", at, nil, "完食されました", at, at,
			"LUNCH", 100, 80, 50, "TEA", 200,
		))

	rec, err := repo.Get(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, domain.MealLunch, rec.MealTime)
	assert.Equal(t, 80, rec.SideDishPercentage)
	assert.Equal(t, domain.BeverageTea, rec.BeverageType)
	assert.Nil(t, rec.Notes)
	require.NotNil(t, rec.Transcription)
	assert.Equal(t, "完食されました", *rec.Transcription)
	assert.Equal(t, "c1", *rec.Ownership().AuthorUID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFoodRecordListByResident_WithRange(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresFoodRecordRepo(db)
	from := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery(`FROM food_records WHERE resident_uid = \$1 AND recorded_at >= \$2 AND recorded_at < \$3 ORDER BY recorded_at DESC`).
		WithArgs("r1", from, to).
		WillReturnRows(sqlmock.NewRows(foodRecordColumns).
			AddRow("f2", "t1", "r1", "c1", from.Add(18*time.Hour), nil, nil, from, from, "DINNER", 50, 50, 50, "WATER", 100).
			AddRow("f1", "t1", "r1", "c1", from.Add(8*time.Hour), nil, nil, from, from, "BREAKFAST", 100, 100, 100, "TEA", 150))

	recs, total, err := repo.ListByResident(context.Background(), "r1", RecordFilter{From: from, To: to})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "f2", recs[0].UID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBathRecordCreate_DefaultsRecordedAt(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresBathRecordRepo(db)

	mock.ExpectExec(`INSERT INTO bath_records \(uid, tenant_uid, resident_uid, caregiver_uid, recorded_at, notes, transcription, created_at, updated_at, bath_method\) VALUES \(\$1, .*\$10\)`).
		WithArgs(sqlmock.AnyArg(), "t1", "r1", "c1", sqlmock.AnyArg(), nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg(), "シャワー浴").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := &domain.BathRecord{
		RecordBase: domain.RecordBase{TenantUID: "t1", ResidentUID: "r1", CaregiverUID: "c1"},
		BathMethod: "シャワー浴",
	}
	require.NoError(t, repo.Create(context.Background(), rec))
	assert.NotEmpty(t, rec.UID)
	assert.False(t, rec.RecordedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEliminationRecordUpdate_NullableColumns(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresEliminationRecordRepo(db)
	vol := 150

	mock.ExpectExec(`UPDATE elimination_records SET recorded_at = \$2, notes = \$3, updated_at = \$4, elimination_method = \$5`).
		WithArgs("e1", sqlmock.AnyArg(), nil, sqlmock.AnyArg(),
			"トイレ", true, nil, nil, nil, false, nil, nil, int64(vol)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &domain.EliminationRecord{
		RecordBase:        domain.RecordBase{UID: "e1", RecordedAt: time.Now()},
		EliminationMethod: "トイレ",
		HasFeces:          true,
		UrineVolume:       &vol,
	}
	require.NoError(t, repo.Update(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetTranscription_ClearWritesNull(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresDailyRecordRepo(db)

	mock.ExpectExec(`UPDATE daily_records SET transcription = \$2`).
		WithArgs("d1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetTranscription(context.Background(), "d1", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordDelete_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresBeverageRecordRepo(db)

	mock.ExpectExec(`DELETE FROM beverage_records WHERE uid = \$1`).
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "b1")
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordGet_MalformedUID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresFoodRecordRepo(db)

	mock.ExpectQuery(`SELECT .* FROM food_records WHERE uid = \$1`).
		WithArgs("missing").
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "missing"`})

	_, err := repo.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteResident_MalformedUID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresResidentsRepository(db)

	mock.ExpectExec(`DELETE FROM residents WHERE uid = \$1`).
		WithArgs("abc").
		WillReturnError(&pq.Error{Code: "22P02"})

	err := repo.DeleteResident(context.Background(), "abc")
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordGet_OtherDriverErrorKept(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresFoodRecordRepo(db)

	mock.ExpectQuery(`SELECT .* FROM food_records`).
		WithArgs("f1").
		WillReturnError(&pq.Error{Code: "57014", Message: "canceling statement due to statement timeout"})

	_, err := repo.Get(context.Background(), "f1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// assessments / qa
// ============================================

func TestCreateAssessment_DuplicateSubject(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresAssessmentsRepository(db)

	mock.ExpectExec(`INSERT INTO assessments \(uid, tenant_uid, subject_uid, user_uid, care_level, physical_independence, cognitive_independence, family_info`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateAssessment(context.Background(), &domain.Assessment{SubjectUID: "s1", CareLevel: domain.NeedsCare1})
	assert.True(t, errors.Is(err, ErrAlreadyExists))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAssessment_ScansTextFields(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresAssessmentsRepository(db)
	now := time.Now()

	cols := []string{"uid", "tenant_uid", "subject_uid", "user_uid", "care_level",
		"physical_independence", "cognitive_independence"}
	cols = append(cols, assessmentTextColumns...)
	cols = append(cols, "transcription", "created_at", "updated_at")

	values := []any{"a1", "t1", "s1", "u1", "NEEDS_CARE_2", "J1", "IIa"}
	for range assessmentTextColumns {
		values = append(values, nil)
	}
	values[7] = "長女と同居" // family_info
	values = append(values, nil, now, now)

	rows := sqlmock.NewRows(cols)
	driverValues := make([]driver.Value, len(values))
	for i, v := range values {
		driverValues[i] = v
	}
	rows.AddRow(driverValues...)

	mock.ExpectQuery(`FROM assessments WHERE uid = \$1`).WithArgs("a1").WillReturnRows(rows)

	a, err := repo.GetAssessment(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.NeedsCare2, a.CareLevel)
	assert.Equal(t, domain.CognitiveIndependence("IIa"), a.CognitiveIndependence)
	require.NotNil(t, a.FamilyInfo)
	assert.Equal(t, "長女と同居", *a.FamilyInfo)
	assert.Nil(t, a.MedicalHistory)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceQuestionAnswers_Transaction(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresQARepository(db)
	answer := "はい"

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM question_answers WHERE qa_session_uid = \$1`).
		WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO question_answers`).
		WithArgs(sqlmock.AnyArg(), "s1", "朝食は食べましたか", "はい", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO question_answers`).
		WithArgs(sqlmock.AnyArg(), "s1", "眠れましたか", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceQuestionAnswers(context.Background(), "s1", []*domain.QuestionAnswer{
		{Question: "朝食は食べましたか", Answer: &answer},
		{Question: "眠れましたか"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceQuestionAnswers_RollbackOnFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresQARepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM question_answers`).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO question_answers`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.ReplaceQuestionAnswers(context.Background(), "s1", []*domain.QuestionAnswer{{Question: "q"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
