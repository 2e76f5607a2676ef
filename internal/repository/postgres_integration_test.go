//go:build integration

package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuta0709/nagara-care-api/internal/common/config"
	"github.com/yuta0709/nagara-care-api/internal/common/database"
	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/migrations"
)

// 需要真实 PostgreSQL：DB_HOST=localhost go test -tags integration ./internal/repository/
func TestPostgres_TenantResidentRoundTrip(t *testing.T) {
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set")
	}
	cfg := &config.DatabaseConfig{Port: 5432, User: "postgres", Database: "nagara_care", SSLMode: "disable"}
	cfg.LoadFromEnv("DB")

	db, err := database.NewPostgresDB(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, migrations.Up(ctx, db))

	tenants := NewPostgresTenantsRepository(db)
	residents := NewPostgresResidentsRepository(db)

	tn := &domain.Tenant{Name: "integration-" + time.Now().Format("150405.000")}
	require.NoError(t, tenants.CreateTenant(ctx, tn))
	require.NotEmpty(t, tn.UID)
	defer func() { _ = tenants.DeleteTenant(ctx, tn.UID) }()

	r := &domain.Resident{
		TenantUID: tn.UID,
		Person: domain.Person{
			FamilyName:         "山田",
			GivenName:          "花子",
			FamilyNameFurigana: "やまだ",
			GivenNameFurigana:  "はなこ",
			DateOfBirth:        time.Date(1940, 4, 1, 0, 0, 0, 0, time.UTC),
			Gender:             domain.GenderFemale,
		},
		AdmissionDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, residents.CreateResident(ctx, r))

	got, err := residents.GetResident(ctx, r.UID)
	require.NoError(t, err)
	assert.Equal(t, "山田", got.FamilyName)
	assert.Equal(t, tn.UID, got.TenantUID)

	items, total, err := residents.ListResidents(ctx, tn.UID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)

	require.NoError(t, residents.DeleteResident(ctx, r.UID))
	_, err = residents.GetResident(ctx, r.UID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
