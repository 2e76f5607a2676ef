package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// OwnedRecord is any record carrying tenant/author/recordedAt ownership.
type OwnedRecord interface {
	Ownership() domain.Ownership
}

// Coordinator sequences the guard checks for every record entry point:
// load, tenant scope, capability, then (updates on time-boxed kinds) author and window.
type Coordinator struct {
	table  *CapabilityTable
	window time.Duration
	now    func() time.Time
}

// NewCoordinator uses the 24h window and the wall clock.
func NewCoordinator(table *CapabilityTable) *Coordinator {
	if table == nil {
		table = DefaultCapabilityTable()
	}
	return &Coordinator{table: table, window: DefaultMutabilityWindow, now: time.Now}
}

// WithClock returns a copy reading time from now (tests simulate elapsed hours with it).
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Coordinator) Table() *CapabilityTable { return c.table }

func (c *Coordinator) Now() time.Time { return c.now() }

// AuthorizeTenant checks an action whose target is a tenant-owned parent (create, list).
func (c *Coordinator) AuthorizeTenant(caller Caller, action Action, kind Kind, tenantID string) error {
	if err := CheckTenantAccess(caller, tenantID); err != nil {
		return err
	}
	return c.capability(caller, action, kind)
}

// Authorize runs the tenant, capability and mutability checks against a loaded record.
func (c *Coordinator) Authorize(caller Caller, action Action, kind Kind, own domain.Ownership) error {
	if err := CheckTenantAccess(caller, own.TenantUID); err != nil {
		return err
	}
	if err := c.capability(caller, action, kind); err != nil {
		return err
	}
	if action != ActionUpdate || !kind.TimeBoxed() {
		return nil
	}
	if own.AuthorUID == nil || *own.AuthorUID != caller.UserID {
		if !c.table.CanPerform(caller.Role, ActionUpdateOthers, kind) {
			return ErrForbidden("updating another caregiver's record is not allowed")
		}
	}
	if !CanMutate(c.now(), own.RecordedAt, c.window) {
		return ErrBadRequest(fmt.Sprintf("records older than %s cannot be updated", formatWindow(c.window)))
	}
	return nil
}

// CheckRecordedAt validates a caller-supplied recordedAt. It may never be later than now.
// On update (current non-nil) the new value must itself be inside the window, and
// moving it later than current requires update_others on kind.
func (c *Coordinator) CheckRecordedAt(caller Caller, kind Kind, at time.Time, current *time.Time) error {
	now := c.now()
	if at.After(now) {
		return ErrBadRequest("recordedAt must not be in the future")
	}
	if current == nil || !kind.TimeBoxed() {
		return nil
	}
	if !CanMutate(now, at, c.window) {
		return ErrBadRequest(fmt.Sprintf("recordedAt must be within the last %s", formatWindow(c.window)))
	}
	if at.After(*current) && !c.table.CanPerform(caller.Role, ActionUpdateOthers, kind) {
		return ErrForbidden("recordedAt may not be moved later")
	}
	return nil
}

func (c *Coordinator) capability(caller Caller, action Action, kind Kind) error {
	if !c.table.CanPerform(caller.Role, action, kind) {
		return ErrForbidden(fmt.Sprintf("%s may not %s %s records", caller.Role, action, kind))
	}
	return nil
}

// Load fetches a record and authorizes action on it. A domain.ErrNotFound from
// load becomes a NotFound error before any other check runs.
func Load[T OwnedRecord](ctx context.Context, c *Coordinator, caller Caller, action Action, kind Kind,
	load func(context.Context) (T, error)) (T, error) {
	var zero T
	rec, err := load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return zero, ErrNotFound(fmt.Sprintf("%s record not found", kind))
		}
		return zero, err
	}
	if err := c.Authorize(caller, action, kind, rec.Ownership()); err != nil {
		return zero, err
	}
	return rec, nil
}

// Run is Load followed by effect; effect only runs when every check passed.
func Run[T OwnedRecord, R any](ctx context.Context, c *Coordinator, caller Caller, action Action, kind Kind,
	load func(context.Context) (T, error), effect func(context.Context, T) (R, error)) (R, error) {
	rec, err := Load(ctx, c, caller, action, kind, load)
	if err != nil {
		var zero R
		return zero, err
	}
	return effect(ctx, rec)
}

func formatWindow(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return d.String()
}
