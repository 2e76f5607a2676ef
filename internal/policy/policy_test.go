package policy

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuta0709/nagara-care-api/internal/domain"
)

func strPtr(s string) *string { return &s }

func caregiver(id, tenant string) Caller {
	return Caller{UserID: id, TenantID: strPtr(tenant), Role: domain.RoleCaregiver}
}

func tenantAdmin(id, tenant string) Caller {
	return Caller{UserID: id, TenantID: strPtr(tenant), Role: domain.RoleTenantAdmin}
}

func globalAdmin(id string) Caller {
	return Caller{UserID: id, Role: domain.RoleGlobalAdmin}
}

// ============================================
// Tenant Scope Guard
// ============================================

func TestCheckTenantAccess(t *testing.T) {
	tests := []struct {
		name   string
		caller Caller
		tenant string
		allow  bool
	}{
		{"caregiver same tenant", caregiver("u1", "t1"), "t1", true},
		{"caregiver other tenant", caregiver("u1", "t1"), "t2", false},
		{"tenant admin same tenant", tenantAdmin("u2", "t1"), "t1", true},
		{"tenant admin other tenant", tenantAdmin("u2", "t2"), "t1", false},
		{"non-global without tenant", Caller{UserID: "u3", Role: domain.RoleTenantAdmin}, "t1", false},
		{"global admin any tenant", globalAdmin("g"), "t1", true},
		{"global admin empty tenant", globalAdmin("g"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTenantAccess(tt.caller, tt.tenant)
			if tt.allow {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, http.StatusForbidden, StatusOf(err))
		})
	}
}

func TestRequireRole(t *testing.T) {
	assert.NoError(t, RequireAdmin(tenantAdmin("a", "t1")))
	assert.NoError(t, RequireAdmin(globalAdmin("g")))
	err := RequireAdmin(caregiver("c", "t1"))
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, CodeOf(err))
	assert.Error(t, RequireRole(tenantAdmin("a", "t1"), domain.RoleGlobalAdmin))
}

// ============================================
// Role Capability Table
// ============================================

func TestCaregiverCannotDeleteAnyKind(t *testing.T) {
	table := DefaultCapabilityTable()
	for _, k := range Kinds {
		assert.False(t, table.CanPerform(domain.RoleCaregiver, ActionDelete, k), "kind %s", k)
		assert.True(t, table.CanPerform(domain.RoleTenantAdmin, ActionDelete, k), "kind %s", k)
		assert.True(t, table.CanPerform(domain.RoleGlobalAdmin, ActionDelete, k), "kind %s", k)
	}
}

func TestDefaultCapabilityTable(t *testing.T) {
	table := DefaultCapabilityTable()

	assert.True(t, table.CanPerform(domain.RoleCaregiver, ActionCreate, KindBath))
	assert.True(t, table.CanPerform(domain.RoleCaregiver, ActionCreate, KindDaily))
	assert.False(t, table.CanPerform(domain.RoleCaregiver, ActionCreate, KindAssessment))
	assert.True(t, table.CanPerform(domain.RoleTenantAdmin, ActionCreate, KindAssessment))

	assert.False(t, table.CanPerform(domain.RoleCaregiver, ActionUpdateOthers, KindFood))
	assert.True(t, table.CanPerform(domain.RoleTenantAdmin, ActionUpdateOthers, KindFood))

	assert.True(t, table.CanPerform(domain.RoleCaregiver, ActionTranscriptionRead, KindElimination))
	assert.False(t, table.CanPerform(domain.RoleCaregiver, ActionTranscriptionReplace, KindElimination))
	assert.False(t, table.CanPerform(domain.RoleCaregiver, ActionTranscriptionClear, KindElimination))
	assert.False(t, table.CanPerform(domain.RoleCaregiver, ActionExtract, KindBeverage))

	assert.False(t, table.CanPerform(domain.RoleGlobalAdmin, ActionSummarize, KindFood), "unknown entries deny")
	assert.False(t, table.CanPerform(domain.RoleGlobalAdmin, ActionRead, Kind("unknown")))
}

func TestCapabilityEntries_Ordered(t *testing.T) {
	entries := DefaultCapabilityTable().Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, KindFood, entries[0].Kind)
	assert.Equal(t, ActionCreate, entries[0].Action)
	assert.Equal(t, []domain.Role{domain.RoleGlobalAdmin, domain.RoleTenantAdmin, domain.RoleCaregiver}, entries[0].Roles)
	assert.Equal(t, KindAssessment, entries[len(entries)-1].Kind)
}

func TestParseCapabilityOverrides(t *testing.T) {
	base := DefaultCapabilityTable()
	data := []byte(`
kinds:
  assessment:
    create: [GLOBAL_ADMIN, TENANT_ADMIN, CAREGIVER]
`)
	table, err := ParseCapabilityOverrides(data, base)
	require.NoError(t, err)
	assert.True(t, table.CanPerform(domain.RoleCaregiver, ActionCreate, KindAssessment))
	assert.False(t, base.CanPerform(domain.RoleCaregiver, ActionCreate, KindAssessment), "base must stay untouched")
	assert.True(t, table.CanPerform(domain.RoleCaregiver, ActionRead, KindAssessment), "other entries kept")
}

func TestParseCapabilityOverrides_Rejects(t *testing.T) {
	base := DefaultCapabilityTable()
	cases := map[string]string{
		"caregiver delete": "kinds:\n  bath:\n    delete: [CAREGIVER]\n",
		"unknown kind":     "kinds:\n  medication:\n    read: [CAREGIVER]\n",
		"unknown action":   "kinds:\n  bath:\n    archive: [TENANT_ADMIN]\n",
		"unknown role":     "kinds:\n  bath:\n    read: [NURSE]\n",
		"bad yaml":         "kinds: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCapabilityOverrides([]byte(doc), base)
			assert.Error(t, err)
		})
	}
}

// ============================================
// Mutability Window
// ============================================

func TestCanMutate_Boundary(t *testing.T) {
	recordedAt := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	assert.True(t, CanMutate(recordedAt, recordedAt, DefaultMutabilityWindow))
	assert.True(t, CanMutate(recordedAt.Add(23*time.Hour), recordedAt, DefaultMutabilityWindow))
	assert.True(t, CanMutate(recordedAt.Add(24*time.Hour), recordedAt, DefaultMutabilityWindow))
	assert.False(t, CanMutate(recordedAt.Add(24*time.Hour+time.Second), recordedAt, DefaultMutabilityWindow))
	assert.True(t, CanMutate(recordedAt.Add(-time.Hour), recordedAt, DefaultMutabilityWindow), "future recordedAt is editable")
}

// ============================================
// Transcription
// ============================================

func TestTranscriptionOps(t *testing.T) {
	assert.Equal(t, "B", *AppendTranscription(nil, "B"))
	assert.Equal(t, "B", *AppendTranscription(strPtr(""), "B"))
	assert.Equal(t, "A\nB", *AppendTranscription(strPtr("A"), "B"))
	assert.Equal(t, "A\nB\nC", *AppendTranscription(AppendTranscription(strPtr("A"), "B"), "C"))

	assert.Equal(t, "X", *ReplaceTranscription("X"))
	assert.Nil(t, ClearTranscription())
}

// ============================================
// Coordinator
// ============================================

type fakeRecord struct {
	own domain.Ownership
}

func (f *fakeRecord) Ownership() domain.Ownership { return f.own }

func loaderOf(rec *fakeRecord) func(context.Context) (*fakeRecord, error) {
	return func(context.Context) (*fakeRecord, error) { return rec, nil }
}

func TestCoordinator_BathScenario(t *testing.T) {
	start := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	now := start
	coord := NewCoordinator(nil).WithClock(func() time.Time { return now })
	ctx := context.Background()

	c := caregiver("c", "t1")
	require.NoError(t, coord.AuthorizeTenant(c, ActionCreate, KindBath, "t1"))

	rec := &fakeRecord{own: domain.Ownership{UID: "b1", TenantUID: "t1", AuthorUID: strPtr("c"), RecordedAt: start}}

	_, err := Load(ctx, coord, c, ActionUpdate, KindBath, loaderOf(rec))
	require.NoError(t, err, "author may update immediately")

	now = start.Add(25 * time.Hour)
	_, err = Load(ctx, coord, c, ActionUpdate, KindBath, loaderOf(rec))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))

	for _, at := range []time.Time{start, start.Add(25 * time.Hour)} {
		now = at
		_, err = Load(ctx, coord, c, ActionDelete, KindBath, loaderOf(rec))
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, StatusOf(err))
	}
}

func TestCheckRecordedAt(t *testing.T) {
	now := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	coord := NewCoordinator(nil).WithClock(func() time.Time { return now })
	c := caregiver("c", "t1")
	a := tenantAdmin("a", "t1")
	stored := now.Add(-2 * time.Hour)

	// create
	require.NoError(t, coord.CheckRecordedAt(c, KindFood, now, nil))
	require.NoError(t, coord.CheckRecordedAt(c, KindFood, now.Add(-72*time.Hour), nil), "backdated create locks immediately")
	assert.Equal(t, http.StatusBadRequest, StatusOf(coord.CheckRecordedAt(c, KindFood, now.Add(time.Second), nil)))

	// update
	require.NoError(t, coord.CheckRecordedAt(c, KindBath, stored.Add(-time.Hour), &stored), "moving earlier is allowed")
	assert.Equal(t, http.StatusBadRequest, StatusOf(coord.CheckRecordedAt(c, KindBath, now.Add(1000*time.Hour), &stored)))
	assert.Equal(t, http.StatusBadRequest, StatusOf(coord.CheckRecordedAt(a, KindBath, now.Add(-25*time.Hour), &stored)))
	assert.Equal(t, http.StatusForbidden, StatusOf(coord.CheckRecordedAt(c, KindBath, now, &stored)))
	require.NoError(t, coord.CheckRecordedAt(a, KindBath, now, &stored))

	// assessments have no window
	require.NoError(t, coord.CheckRecordedAt(c, KindAssessment, now.Add(-365*24*time.Hour), &stored))
}

func TestCoordinator_CrossTenantAdminForbidden(t *testing.T) {
	coord := NewCoordinator(nil)
	ctx := context.Background()
	rec := &fakeRecord{own: domain.Ownership{UID: "f1", TenantUID: "t1", AuthorUID: strPtr("x"), RecordedAt: time.Now().Add(-72 * time.Hour)}}

	for _, action := range []Action{ActionRead, ActionUpdate, ActionDelete, ActionTranscriptionRead} {
		_, err := Load(ctx, coord, tenantAdmin("a2", "t2"), action, KindFood, loaderOf(rec))
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, StatusOf(err), "action %s", action)
	}
}

func TestCoordinator_CaregiverCannotUpdateOthers(t *testing.T) {
	coord := NewCoordinator(nil)
	rec := &fakeRecord{own: domain.Ownership{UID: "d1", TenantUID: "t1", AuthorUID: strPtr("someone-else"), RecordedAt: time.Now()}}

	_, err := Load(context.Background(), coord, caregiver("c", "t1"), ActionUpdate, KindDaily, loaderOf(rec))
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, StatusOf(err))

	_, err = Load(context.Background(), coord, tenantAdmin("a", "t1"), ActionUpdate, KindDaily, loaderOf(rec))
	assert.NoError(t, err)
}

func TestCoordinator_AuthorCheckPrecedesWindow(t *testing.T) {
	coord := NewCoordinator(nil)
	old := &fakeRecord{own: domain.Ownership{UID: "d1", TenantUID: "t1", AuthorUID: strPtr("other"), RecordedAt: time.Now().Add(-48 * time.Hour)}}

	_, err := Load(context.Background(), coord, caregiver("c", "t1"), ActionUpdate, KindDaily, loaderOf(old))
	assert.Equal(t, http.StatusForbidden, StatusOf(err))
}

func TestCoordinator_WindowAppliesToAdminsToo(t *testing.T) {
	coord := NewCoordinator(nil)
	old := &fakeRecord{own: domain.Ownership{UID: "e1", TenantUID: "t1", AuthorUID: strPtr("c"), RecordedAt: time.Now().Add(-30 * time.Hour)}}

	_, err := Load(context.Background(), coord, tenantAdmin("a", "t1"), ActionUpdate, KindElimination, loaderOf(old))
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	_, err = Load(context.Background(), coord, globalAdmin("g"), ActionUpdate, KindElimination, loaderOf(old))
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestCoordinator_NoWindowForAssessmentsOrTranscription(t *testing.T) {
	coord := NewCoordinator(nil)
	ctx := context.Background()
	old := &fakeRecord{own: domain.Ownership{UID: "a1", TenantUID: "t1", RecordedAt: time.Now().Add(-365 * 24 * time.Hour)}}

	_, err := Load(ctx, coord, caregiver("c", "t1"), ActionUpdate, KindAssessment, loaderOf(old))
	assert.NoError(t, err)

	oldFood := &fakeRecord{own: domain.Ownership{UID: "f1", TenantUID: "t1", AuthorUID: strPtr("c"), RecordedAt: time.Now().Add(-72 * time.Hour)}}
	_, err = Load(ctx, coord, tenantAdmin("a", "t1"), ActionTranscriptionAppend, KindFood, loaderOf(oldFood))
	assert.NoError(t, err)
}

func TestCoordinator_NotFoundFirst(t *testing.T) {
	coord := NewCoordinator(nil)
	called := false
	_, err := Run(context.Background(), coord, caregiver("c", "t1"), ActionDelete, KindBath,
		func(context.Context) (*fakeRecord, error) { return nil, errors.New("wrapped: " + domain.ErrNotFound.Error()) },
		func(context.Context, *fakeRecord) (struct{}, error) { called = true; return struct{}{}, nil })
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err), "only the sentinel maps to NotFound")

	_, err = Run(context.Background(), coord, caregiver("c", "t2"), ActionDelete, KindBath,
		func(context.Context) (*fakeRecord, error) { return nil, domain.ErrNotFound },
		func(context.Context, *fakeRecord) (struct{}, error) { called = true; return struct{}{}, nil })
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusOf(err), "not-found wins over tenant and role denial")
	assert.False(t, called)
}

func TestRun_EffectOnlyAfterChecks(t *testing.T) {
	coord := NewCoordinator(nil)
	rec := &fakeRecord{own: domain.Ownership{UID: "b1", TenantUID: "t1", AuthorUID: strPtr("c"), RecordedAt: time.Now()}}

	out, err := Run(context.Background(), coord, tenantAdmin("a", "t1"), ActionDelete, KindBath, loaderOf(rec),
		func(_ context.Context, r *fakeRecord) (string, error) { return "deleted " + r.own.UID, nil })
	require.NoError(t, err)
	assert.Equal(t, "deleted b1", out)
}

func TestExtract(t *testing.T) {
	coord := NewCoordinator(nil)
	ctx := context.Background()
	rec := &fakeRecord{own: domain.Ownership{UID: "f1", TenantUID: "t1", RecordedAt: time.Now()}}
	transcript := strPtr("朝食は全部食べました")

	ex := ExtractorFunc[*fakeRecord, map[string]int](func(_ context.Context, text string, _ *fakeRecord) (map[string]int, error) {
		return map[string]int{"mainCoursePercentage": 100}, nil
	})

	out, err := Extract(ctx, coord, tenantAdmin("a", "t1"), KindFood, loaderOf(rec),
		func(*fakeRecord) *string { return transcript }, ex)
	require.NoError(t, err)
	assert.Equal(t, 100, out["mainCoursePercentage"])

	_, err = Extract(ctx, coord, caregiver("c", "t1"), KindFood, loaderOf(rec),
		func(*fakeRecord) *string { return transcript }, ex)
	assert.Equal(t, http.StatusForbidden, StatusOf(err))

	_, err = Extract(ctx, coord, tenantAdmin("a", "t1"), KindFood, loaderOf(rec),
		func(*fakeRecord) *string { return nil }, ex)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))

	failing := ExtractorFunc[*fakeRecord, map[string]int](func(context.Context, string, *fakeRecord) (map[string]int, error) {
		return nil, errors.New("llm down")
	})
	_, err = Extract(ctx, coord, tenantAdmin("a", "t1"), KindFood, loaderOf(rec),
		func(*fakeRecord) *string { return transcript }, failing)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
}

func TestErrorHelpers(t *testing.T) {
	err := ErrUpstream("vector search failed", errors.New("timeout"))
	assert.Contains(t, err.Error(), "timeout")
	assert.Equal(t, "vector search failed", MessageOf(err))
	assert.Equal(t, "internal server error", MessageOf(errors.New("boom")))
	assert.Equal(t, "", CodeOf(errors.New("boom")))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(ErrUnauthenticated("no token")))
	assert.Equal(t, http.StatusTooManyRequests, StatusOf(ErrTooManyRequests("slow down")))
}

func TestCallerFromUser(t *testing.T) {
	tenant := "t1"
	u := &domain.User{UID: "u1", Role: domain.RoleCaregiver, TenantUID: &tenant}
	c := CallerFromUser(u)
	assert.Equal(t, "t1", c.Tenant())
	tenant = "changed"
	assert.Equal(t, "t1", c.Tenant(), "caller keeps its own copy")

	g := CallerFromUser(&domain.User{UID: "g", Role: domain.RoleGlobalAdmin})
	assert.True(t, g.IsGlobalAdmin())
	assert.Equal(t, "", g.Tenant())
}
