package repository

import (
	"context"
	"sync"

	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// ChildDeleter removes the rows referencing parentUID and reports how many went.
type ChildDeleter func(ctx context.Context, parentUID string) (int, error)

// cascade 内存模式下模拟 ON DELETE CASCADE：父行删除后依次调用子表的删除函数
type cascade struct {
	cmu      sync.RWMutex
	children []ChildDeleter
}

// OnDelete registers children removed whenever a parent row is deleted.
func (c *cascade) OnDelete(fn ...ChildDeleter) {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	c.children = append(c.children, fn...)
}

// run must be called without the owning repository's lock held.
func (c *cascade) run(ctx context.Context, parentUIDs ...string) error {
	c.cmu.RLock()
	children := append([]ChildDeleter(nil), c.children...)
	c.cmu.RUnlock()
	for _, uid := range parentUIDs {
		for _, fn := range children {
			if _, err := fn(ctx, uid); err != nil {
				return err
			}
		}
	}
	return nil
}

// recordPurger is the cascade surface shared by the five record repositories.
type recordPurger interface {
	DeleteByTenant(ctx context.Context, tenantUID string) (int, error)
	DeleteByResident(ctx context.Context, residentUID string) (int, error)
	DeleteByCaregiver(ctx context.Context, userUID string) (int, error)
}

// MemoryRepos is the complete in-memory backend, linked the way the SQL schema
// links its foreign keys.
type MemoryRepos struct {
	Tenants     *MemoryTenantsRepo
	Users       *MemoryUsersRepo
	Residents   *MemoryResidentsRepo
	Subjects    *MemorySubjectsRepo
	Assessments *MemoryAssessmentsRepo
	Chat        *MemoryChatRepo
	QA          *MemoryQARepo
	Food        *MemoryRecordRepo[*domain.FoodRecord]
	Bath        *MemoryRecordRepo[*domain.BathRecord]
	Elimination *MemoryRecordRepo[*domain.EliminationRecord]
	Beverage    *MemoryRecordRepo[*domain.BeverageRecord]
	Daily       *MemoryRecordRepo[*domain.DailyRecord]
}

func NewMemoryRepos() *MemoryRepos {
	m := &MemoryRepos{
		Tenants:     NewMemoryTenantsRepo(),
		Users:       NewMemoryUsersRepo(),
		Residents:   NewMemoryResidentsRepo(),
		Subjects:    NewMemorySubjectsRepo(),
		Assessments: NewMemoryAssessmentsRepo(),
		Chat:        NewMemoryChatRepo(),
		QA:          NewMemoryQARepo(),
		Food:        NewMemoryFoodRecordRepo(),
		Bath:        NewMemoryBathRecordRepo(),
		Elimination: NewMemoryEliminationRecordRepo(),
		Beverage:    NewMemoryBeverageRecordRepo(),
		Daily:       NewMemoryDailyRecordRepo(),
	}

	m.Tenants.OnDelete(
		m.Users.DeleteUsersByTenant,
		m.Residents.DeleteByTenant,
		m.Subjects.DeleteByTenant,
		m.Assessments.DeleteByTenant,
	)
	m.Users.OnDelete(m.Chat.DeleteByUser, m.QA.DeleteByUser)
	m.Subjects.OnDelete(m.Assessments.DeleteBySubject)
	for _, r := range []recordPurger{m.Food, m.Bath, m.Elimination, m.Beverage, m.Daily} {
		m.Tenants.OnDelete(r.DeleteByTenant)
		m.Residents.OnDelete(r.DeleteByResident)
		m.Users.OnDelete(r.DeleteByCaregiver)
	}
	return m
}
