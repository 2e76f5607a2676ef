package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// PostgresAssessmentsRepository 评估Repository实现
type PostgresAssessmentsRepository struct {
	db *sql.DB
}

func NewPostgresAssessmentsRepository(db *sql.DB) *PostgresAssessmentsRepository {
	return &PostgresAssessmentsRepository{db: db}
}

var _ AssessmentsRepository = (*PostgresAssessmentsRepository)(nil)

// text columns come from AssessmentText.Fields so the order never drifts.
var assessmentTextColumns = func() []string {
	var t domain.AssessmentText
	var cols []string
	for _, f := range t.Fields() {
		cols = append(cols, f.Column)
	}
	return cols
}()

var assessmentSelect = `SELECT uid::text, tenant_uid::text, subject_uid::text, user_uid::text, care_level,
	physical_independence, cognitive_independence, ` + strings.Join(assessmentTextColumns, ", ") +
	`, transcription, created_at, updated_at FROM assessments`

func scanAssessment(row interface{ Scan(...any) error }) (*domain.Assessment, error) {
	var a domain.Assessment
	dest := []any{&a.UID, &a.TenantUID, &a.SubjectUID, &a.UserUID, &a.CareLevel,
		&a.PhysicalIndependence, &a.CognitiveIndependence}
	for _, f := range a.AssessmentText.Fields() {
		dest = append(dest, f.Ptr)
	}
	dest = append(dest, &a.Transcription, &a.CreatedAt, &a.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &a, nil
}

func textValues(a *domain.Assessment) []any {
	var out []any
	for _, f := range a.AssessmentText.Fields() {
		out = append(out, *f.Ptr)
	}
	return out
}

func (r *PostgresAssessmentsRepository) GetAssessment(ctx context.Context, uid string) (*domain.Assessment, error) {
	a, err := scanAssessment(r.db.QueryRowContext(ctx, assessmentSelect+` WHERE uid = $1`, uid))
	if err != nil {
		return nil, notFound(err, "assessment")
	}
	return a, nil
}

func (r *PostgresAssessmentsRepository) GetAssessmentBySubject(ctx context.Context, subjectUID string) (*domain.Assessment, error) {
	a, err := scanAssessment(r.db.QueryRowContext(ctx, assessmentSelect+` WHERE subject_uid = $1`, subjectUID))
	if err != nil {
		return nil, notFound(err, "assessment")
	}
	return a, nil
}

func (r *PostgresAssessmentsRepository) ListAssessments(ctx context.Context, tenantUID string) ([]*domain.Assessment, int, error) {
	rows, err := r.db.QueryContext(ctx, assessmentSelect+` WHERE tenant_uid = $1 ORDER BY created_at DESC`, tenantUID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan assessment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, len(out), nil
}

func (r *PostgresAssessmentsRepository) CreateAssessment(ctx context.Context, a *domain.Assessment) error {
	if a.UID == "" {
		a.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	cols := append([]string{"uid", "tenant_uid", "subject_uid", "user_uid", "care_level",
		"physical_independence", "cognitive_independence"}, assessmentTextColumns...)
	cols = append(cols, "transcription", "created_at", "updated_at")
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	args := []any{a.UID, a.TenantUID, a.SubjectUID, a.UserUID, string(a.CareLevel),
		string(a.PhysicalIndependence), string(a.CognitiveIndependence)}
	args = append(args, textValues(a)...)
	args = append(args, a.Transcription, a.CreatedAt, a.UpdatedAt)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assessments (`+strings.Join(cols, ", ")+`) VALUES (`+strings.Join(ph, ", ")+`)`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assessment for subject %s: %w", a.SubjectUID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

func (r *PostgresAssessmentsRepository) UpdateAssessment(ctx context.Context, a *domain.Assessment) error {
	a.UpdatedAt = time.Now().UTC()
	sets := []string{"user_uid = $2", "care_level = $3", "physical_independence = $4",
		"cognitive_independence = $5", "updated_at = $6"}
	for i, c := range assessmentTextColumns {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+7))
	}
	args := []any{a.UID, a.UserUID, string(a.CareLevel), string(a.PhysicalIndependence),
		string(a.CognitiveIndependence), a.UpdatedAt}
	args = append(args, textValues(a)...)

	res, err := r.db.ExecContext(ctx, `UPDATE assessments SET `+strings.Join(sets, ", ")+` WHERE uid = $1`, args...)
	if err != nil {
		return execErr(err, "failed to update assessment")
	}
	return checkAffected(res, "assessment")
}

func (r *PostgresAssessmentsRepository) DeleteAssessment(ctx context.Context, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assessments WHERE uid = $1`, uid)
	if err != nil {
		return execErr(err, "failed to delete assessment")
	}
	return checkAffected(res, "assessment")
}

func (r *PostgresAssessmentsRepository) SetAssessmentTranscription(ctx context.Context, uid string, text *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE assessments SET transcription = $2, updated_at = $3 WHERE uid = $1`,
		uid, text, time.Now().UTC())
	if err != nil {
		return execErr(err, "failed to set assessment transcription")
	}
	return checkAffected(res, "assessment")
}
