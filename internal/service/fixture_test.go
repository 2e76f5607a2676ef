package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/indexer"
	"github.com/yuta0709/nagara-care-api/internal/metrics"
	"github.com/yuta0709/nagara-care-api/internal/notify"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

// fixture 两个租户、各自的管理员/护理员，以及租户 A 的一名入住者
type fixture struct {
	ctx   context.Context
	now   time.Time
	coord *policy.Coordinator

	tenants   *repository.MemoryTenantsRepo
	users     *repository.MemoryUsersRepo
	residents *repository.MemoryResidentsRepo
	subjects  *repository.MemorySubjectsRepo

	foodRepo  *repository.MemoryRecordRepo[*domain.FoodRecord]
	dailyRepo *repository.MemoryRecordRepo[*domain.DailyRecord]
	repos     *repository.MemoryRepos

	food  *FoodRecordService
	bath  *BathRecordService
	daily *DailyRecordService

	notes   *recordingNotifier
	index   *recordingPublisher
	metrics *metrics.Registry

	tenantA, tenantB string
	resident         *domain.Resident
	otherResident    *domain.Resident

	global, adminA, care1, care2, adminB policy.Caller
}

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := repository.NewMemoryRepos()
	f := &fixture{
		ctx:       context.Background(),
		now:       baseTime,
		tenants:   repos.Tenants,
		users:     repos.Users,
		residents: repos.Residents,
		subjects:  repos.Subjects,
		foodRepo:  repos.Food,
		dailyRepo: repos.Daily,
		repos:     repos,
		notes:     &recordingNotifier{},
		index:     &recordingPublisher{},
		metrics:   metrics.NewRegistry(),
	}
	f.coord = policy.NewCoordinator(nil).WithClock(func() time.Time { return f.now })

	ta := &domain.Tenant{Name: "なごみ苑"}
	tb := &domain.Tenant{Name: "さくら荘"}
	require.NoError(t, f.tenants.CreateTenant(f.ctx, ta))
	require.NoError(t, f.tenants.CreateTenant(f.ctx, tb))
	f.tenantA, f.tenantB = ta.UID, tb.UID

	f.global = f.addUser(t, "global-admin1", domain.RoleGlobalAdmin, nil)
	f.adminA = f.addUser(t, "admin-a", domain.RoleTenantAdmin, &f.tenantA)
	f.care1 = f.addUser(t, "care-1", domain.RoleCaregiver, &f.tenantA)
	f.care2 = f.addUser(t, "care-2", domain.RoleCaregiver, &f.tenantA)
	f.adminB = f.addUser(t, "admin-b", domain.RoleTenantAdmin, &f.tenantB)

	f.resident = f.addResident(t, f.tenantA, "山田", "花子")
	f.otherResident = f.addResident(t, f.tenantA, "佐藤", "一郎")

	logger := zap.NewNop()
	deps := RecordDeps{
		Coordinator: f.coord,
		Residents:   f.residents,
		Hooks:       RecordHooks{Notifier: f.notes, Index: f.index, Metrics: f.metrics},
		Logger:      logger,
	}
	f.food = NewFoodRecordService(deps, f.foodRepo, nil)
	f.bath = NewBathRecordService(deps, repos.Bath, nil)
	f.daily = NewDailyRecordService(deps, f.dailyRepo, nil)
	return f
}

func (f *fixture) addUser(t *testing.T, login string, role domain.Role, tenant *string) policy.Caller {
	t.Helper()
	u := &domain.User{
		LoginID:            login,
		FamilyName:         "介護",
		GivenName:          login,
		FamilyNameFurigana: "かいご",
		GivenNameFurigana:  login,
		Role:               role,
		TenantUID:          tenant,
	}
	require.NoError(t, f.users.CreateUser(f.ctx, u))
	return policy.CallerFromUser(u)
}

func (f *fixture) addResident(t *testing.T, tenant, family, given string) *domain.Resident {
	t.Helper()
	r := &domain.Resident{
		TenantUID: tenant,
		Person: domain.Person{
			FamilyName:         family,
			GivenName:          given,
			FamilyNameFurigana: "やまだ",
			GivenNameFurigana:  "はなこ",
			DateOfBirth:        time.Date(1940, 5, 1, 0, 0, 0, 0, time.UTC),
			Gender:             domain.GenderFemale,
		},
		AdmissionDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.residents.CreateResident(f.ctx, r))
	return r
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

// requireStatus 断言 err 映射到期望的 HTTP 状态码
func requireStatus(t *testing.T, want int, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, policy.StatusOf(err), "error: %v", err)
}

func ptr[V any](v V) *V { return &v }

func foodInput(meal domain.MealTime) FoodRecordInput {
	return FoodRecordInput{
		MealTime:             ptr(meal),
		MainCoursePercentage: ptr(80),
		SideDishPercentage:   ptr(70),
		SoupPercentage:       ptr(100),
		BeverageType:         ptr(domain.BeverageTea),
		BeverageVolume:       ptr(150),
	}
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []notify.RecordChange
}

func (n *recordingNotifier) RecordChanged(_ context.Context, c notify.RecordChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []indexer.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev indexer.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}
