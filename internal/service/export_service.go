package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/export"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

// ExportRepos are the per-kind repositories read by an export.
type ExportRepos struct {
	Food        repository.RecordRepository[*domain.FoodRecord]
	Bath        repository.RecordRepository[*domain.BathRecord]
	Elimination repository.RecordRepository[*domain.EliminationRecord]
	Beverage    repository.RecordRepository[*domain.BeverageRecord]
	Daily       repository.RecordRepository[*domain.DailyRecord]
}

// ExportRequest bounds recordedAt to [From, To); zero values are open.
type ExportRequest struct {
	From time.Time
	To   time.Time
}

// ExportFile 导出文件
type ExportFile struct {
	Filename string
	Data     []byte
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ContentType of every export.
func (ExportFile) ContentType() string { return xlsxContentType }

// ExportService 入住者记录导出为 Excel
type ExportService struct {
	coord     *policy.Coordinator
	residents repository.ResidentsRepository
	users     repository.UsersRepository
	repos     ExportRepos
	logger    *zap.Logger
}

func NewExportService(coord *policy.Coordinator, residents repository.ResidentsRepository, users repository.UsersRepository,
	repos ExportRepos, logger *zap.Logger) *ExportService {
	return &ExportService{coord: coord, residents: residents, users: users, repos: repos, logger: logger}
}

// ExportResidentRecords needs read capability on every observation kind of the resident's tenant.
func (s *ExportService) ExportResidentRecords(ctx context.Context, caller policy.Caller, residentUID string, req ExportRequest) (*ExportFile, error) {
	if !req.From.IsZero() && !req.To.IsZero() && !req.From.Before(req.To) {
		return nil, policy.ErrBadRequest("from must be before to")
	}
	res, err := s.residents.GetResident(ctx, residentUID)
	if err != nil {
		return nil, notFoundOr(err, "resident")
	}
	for _, k := range []policy.Kind{policy.KindFood, policy.KindBath, policy.KindElimination, policy.KindBeverage, policy.KindDaily} {
		if err := s.coord.AuthorizeTenant(caller, policy.ActionRead, k, res.TenantUID); err != nil {
			return nil, err
		}
	}

	f := repository.RecordFilter{From: req.From, To: req.To}
	rr := export.ResidentRecords{Resident: res}
	if rr.Food, _, err = s.repos.Food.ListByResident(ctx, residentUID, f); err != nil {
		return nil, fmt.Errorf("failed to list food records: %w", err)
	}
	if rr.Bath, _, err = s.repos.Bath.ListByResident(ctx, residentUID, f); err != nil {
		return nil, fmt.Errorf("failed to list bath records: %w", err)
	}
	if rr.Elimination, _, err = s.repos.Elimination.ListByResident(ctx, residentUID, f); err != nil {
		return nil, fmt.Errorf("failed to list elimination records: %w", err)
	}
	if rr.Beverage, _, err = s.repos.Beverage.ListByResident(ctx, residentUID, f); err != nil {
		return nil, fmt.Errorf("failed to list beverage records: %w", err)
	}
	if rr.Daily, _, err = s.repos.Daily.ListByResident(ctx, residentUID, f); err != nil {
		return nil, fmt.Errorf("failed to list daily records: %w", err)
	}
	rr.CaregiverFor = s.caregiverNames(ctx)

	data, err := export.Workbook(rr)
	if err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}
	s.logger.Info("Records exported",
		zap.String("tenant_id", res.TenantUID),
		zap.String("user_id", caller.UserID),
		zap.String("resident_id", residentUID),
		zap.Int("bytes", len(data)),
	)
	name := fmt.Sprintf("%s%s_%s.xlsx", res.FamilyName, res.GivenName, s.coord.Now().In(jst).Format("20060102"))
	return &ExportFile{Filename: name, Data: data}, nil
}

// caregiverNames memoizes user lookups; unknown authors print as their uid.
func (s *ExportService) caregiverNames(ctx context.Context) func(string) string {
	cache := map[string]string{}
	return func(uid string) string {
		if name, ok := cache[uid]; ok {
			return name
		}
		name := uid
		if u, err := s.users.GetUser(ctx, uid); err == nil {
			name = u.FamilyName + " " + u.GivenName
		}
		cache[uid] = name
		return name
	}
}
