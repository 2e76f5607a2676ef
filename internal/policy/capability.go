package policy

import (
	"sort"

	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// Kind is a record type guarded by the capability table.
type Kind string

const (
	KindFood        Kind = "food"
	KindBath        Kind = "bath"
	KindElimination Kind = "elimination"
	KindBeverage    Kind = "beverage"
	KindDaily       Kind = "daily"
	KindAssessment  Kind = "assessment"
)

// Kinds lists every guarded record kind.
var Kinds = []Kind{KindFood, KindBath, KindElimination, KindBeverage, KindDaily, KindAssessment}

// TimeBoxed reports whether updates are limited by the mutability window.
func (k Kind) TimeBoxed() bool {
	switch k {
	case KindFood, KindBath, KindElimination, KindBeverage, KindDaily:
		return true
	}
	return false
}

func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Action is an operation on a record.
type Action string

const (
	ActionCreate               Action = "create"
	ActionRead                 Action = "read"
	ActionUpdate               Action = "update"
	ActionUpdateOthers         Action = "update_others"
	ActionDelete               Action = "delete"
	ActionExtract              Action = "extract"
	ActionSummarize            Action = "summarize"
	ActionTranscriptionRead    Action = "transcription_read"
	ActionTranscriptionAppend  Action = "transcription_append"
	ActionTranscriptionReplace Action = "transcription_replace"
	ActionTranscriptionClear   Action = "transcription_clear"
)

// Actions lists every action in table order.
var Actions = []Action{
	ActionCreate, ActionRead, ActionUpdate, ActionUpdateOthers, ActionDelete,
	ActionExtract, ActionSummarize,
	ActionTranscriptionRead, ActionTranscriptionAppend, ActionTranscriptionReplace, ActionTranscriptionClear,
}

func (a Action) Valid() bool {
	for _, v := range Actions {
		if v == a {
			return true
		}
	}
	return false
}

type roleSet map[domain.Role]bool

func roles(rs ...domain.Role) roleSet {
	s := make(roleSet, len(rs))
	for _, r := range rs {
		s[r] = true
	}
	return s
}

// CapabilityTable maps (kind, action) to the roles allowed to perform it.
// Lookups of unknown entries deny.
type CapabilityTable struct {
	rules map[Kind]map[Action]roleSet
}

// Capability is one row of the flattened table.
type Capability struct {
	Kind   Kind
	Action Action
	Roles  []domain.Role
}

var (
	everyone = []domain.Role{domain.RoleGlobalAdmin, domain.RoleTenantAdmin, domain.RoleCaregiver}
	admins   = []domain.Role{domain.RoleGlobalAdmin, domain.RoleTenantAdmin}
)

// DefaultCapabilityTable returns the built-in table.
func DefaultCapabilityTable() *CapabilityTable {
	t := &CapabilityTable{rules: make(map[Kind]map[Action]roleSet)}
	observation := map[Action][]domain.Role{
		ActionCreate:               everyone,
		ActionRead:                 everyone,
		ActionUpdate:               everyone,
		ActionUpdateOthers:         admins,
		ActionDelete:               admins,
		ActionExtract:              admins,
		ActionTranscriptionRead:    everyone,
		ActionTranscriptionAppend:  admins,
		ActionTranscriptionReplace: admins,
		ActionTranscriptionClear:   admins,
	}
	for _, k := range []Kind{KindFood, KindBath, KindElimination, KindBeverage, KindDaily} {
		for a, rs := range observation {
			t.set(k, a, rs...)
		}
	}

	assessment := map[Action][]domain.Role{
		ActionCreate:               admins,
		ActionRead:                 everyone,
		ActionUpdate:               everyone,
		ActionUpdateOthers:         everyone,
		ActionDelete:               admins,
		ActionExtract:              admins,
		ActionSummarize:            admins,
		ActionTranscriptionRead:    everyone,
		ActionTranscriptionAppend:  admins,
		ActionTranscriptionReplace: admins,
		ActionTranscriptionClear:   admins,
	}
	for a, rs := range assessment {
		t.set(KindAssessment, a, rs...)
	}
	return t
}

func (t *CapabilityTable) set(kind Kind, action Action, rs ...domain.Role) {
	if t.rules[kind] == nil {
		t.rules[kind] = make(map[Action]roleSet)
	}
	t.rules[kind][action] = roles(rs...)
}

// CanPerform is the static lookup consulted at the top of every record operation.
func (t *CapabilityTable) CanPerform(role domain.Role, action Action, kind Kind) bool {
	return t.rules[kind][action][role]
}

// Clone returns an independent copy.
func (t *CapabilityTable) Clone() *CapabilityTable {
	c := &CapabilityTable{rules: make(map[Kind]map[Action]roleSet, len(t.rules))}
	for k, actions := range t.rules {
		for a, rs := range actions {
			list := make([]domain.Role, 0, len(rs))
			for r, ok := range rs {
				if ok {
					list = append(list, r)
				}
			}
			c.set(k, a, list...)
		}
	}
	return c
}

// Entries flattens the table in kind/action order, roles in privilege order.
func (t *CapabilityTable) Entries() []Capability {
	var out []Capability
	for _, k := range Kinds {
		actions := t.rules[k]
		keys := make([]Action, 0, len(actions))
		for a := range actions {
			keys = append(keys, a)
		}
		sort.Slice(keys, func(i, j int) bool { return actionIndex(keys[i]) < actionIndex(keys[j]) })
		for _, a := range keys {
			c := Capability{Kind: k, Action: a}
			for _, r := range domain.Roles {
				if actions[a][r] {
					c.Roles = append(c.Roles, r)
				}
			}
			out = append(out, c)
		}
	}
	return out
}

func actionIndex(a Action) int {
	for i, v := range Actions {
		if v == a {
			return i
		}
	}
	return len(Actions)
}
