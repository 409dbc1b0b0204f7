package enums

import "fmt"

// EntityKind identifies which level of the ad hierarchy a row of
// insights or derived metrics belongs to.
type EntityKind string

const (
	EntityKindAd       EntityKind = "ad"
	EntityKindAdSet    EntityKind = "adset"
	EntityKindCampaign EntityKind = "campaign"
	EntityKindAccount  EntityKind = "account"
)

var validEntityKinds = []EntityKind{
	EntityKindAd,
	EntityKindAdSet,
	EntityKindCampaign,
	EntityKindAccount,
}

// String implements fmt.Stringer.
func (e EntityKind) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EntityKind.
func (e EntityKind) IsValid() bool {
	for _, candidate := range validEntityKinds {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntityKind converts raw input into an EntityKind.
func ParseEntityKind(value string) (EntityKind, error) {
	for _, candidate := range validEntityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity kind %q", value)
}
