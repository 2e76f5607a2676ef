package policy

import (
	"fmt"
	"os"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"gopkg.in/yaml.v3"
)

// capabilityFile is the YAML shape of a table override:
//
//	kinds:
//	  assessment:
//	    create: [GLOBAL_ADMIN, TENANT_ADMIN, CAREGIVER]
type capabilityFile struct {
	Kinds map[Kind]map[Action][]domain.Role `yaml:"kinds"`
}

// LoadCapabilityOverrides reads path and applies its entries on top of base.
// Entries replace the role list of the (kind, action) they name; others are kept.
func LoadCapabilityOverrides(path string, base *CapabilityTable) (*CapabilityTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capability table %s: %w", path, err)
	}
	return ParseCapabilityOverrides(data, base)
}

// ParseCapabilityOverrides applies YAML overrides to a copy of base.
func ParseCapabilityOverrides(data []byte, base *CapabilityTable) (*CapabilityTable, error) {
	var f capabilityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse capability table: %w", err)
	}

	t := base.Clone()
	for kind, actions := range f.Kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown record kind %q", kind)
		}
		for action, rs := range actions {
			if !action.Valid() {
				return nil, fmt.Errorf("unknown action %q for kind %s", action, kind)
			}
			for _, r := range rs {
				if !r.Valid() {
					return nil, fmt.Errorf("unknown role %q for %s/%s", r, kind, action)
				}
				if r == domain.RoleCaregiver && action == ActionDelete {
					return nil, fmt.Errorf("caregivers cannot be granted delete on %s", kind)
				}
			}
			t.set(kind, action, rs...)
		}
	}
	return t, nil
}
