package model

import "strings"

// Activity is the work-type code attached to an estimate line or catalog item.
type Activity string

const (
	// ActivityRemoveAndReplace covers full labor, material and equipment.
	ActivityRemoveAndReplace Activity = "REMOVE_AND_REPLACE"
	// ActivityRemove is tear-out labor only.
	ActivityRemove Activity = "REMOVE"
	// ActivityReplace is labor and equipment without material.
	ActivityReplace Activity = "REPLACE"
	// ActivityDetachAndReset is labor only.
	ActivityDetachAndReset Activity = "DETACH_AND_RESET"
	// ActivityMaterials is material only.
	ActivityMaterials Activity = "MATERIALS"
	// ActivityRepair is labor and material without equipment.
	ActivityRepair Activity = "REPAIR"
	// ActivityInstallOnly is labor and equipment.
	ActivityInstallOnly Activity = "INSTALL_ONLY"
)

var activitySymbols = map[string]Activity{
	"&":   ActivityRemoveAndReplace,
	"R&R": ActivityRemoveAndReplace,
	"D&R": ActivityDetachAndReset,
	"-":   ActivityRemove,
	"+":   ActivityReplace,
	"R":   ActivityDetachAndReset,
	"M":   ActivityMaterials,
	"F":   ActivityRepair,
	"I":   ActivityInstallOnly,
}

var knownActivities = map[Activity]bool{
	ActivityRemoveAndReplace: true,
	ActivityRemove:           true,
	ActivityReplace:          true,
	ActivityDetachAndReset:   true,
	ActivityMaterials:        true,
	ActivityRepair:           true,
	ActivityInstallOnly:      true,
}

// NormalizeActivity maps estimate symbols and loosely spelled names onto the
// canonical activity codes. Blank input stays blank so it lands in the
// category-wide bucket. Unrecognized values are returned trimmed.
func NormalizeActivity(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if a, ok := activitySymbols[strings.ToUpper(s)]; ok {
		return string(a)
	}
	canonical := Activity(strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "&", "AND").Replace(s)))
	if knownActivities[canonical] {
		return string(canonical)
	}
	return s
}

// IsKnown reports whether a is one of the canonical activity codes.
func (a Activity) IsKnown() bool {
	return knownActivities[a]
}
