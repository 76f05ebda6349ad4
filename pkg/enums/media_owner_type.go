package enums

import "fmt"

// MediaOwnerType identifies which entity an asset is attached to. Every media
// row has exactly one owner.
type MediaOwnerType string

const (
	MediaOwnerTypeGame MediaOwnerType = "game"
	MediaOwnerTypeUser MediaOwnerType = "user"
)

var validMediaOwnerTypes = []MediaOwnerType{
	MediaOwnerTypeGame,
	MediaOwnerTypeUser,
}

// String implements fmt.Stringer.
func (m MediaOwnerType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MediaOwnerType.
func (m MediaOwnerType) IsValid() bool {
	for _, candidate := range validMediaOwnerTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMediaOwnerType converts raw input into a MediaOwnerType.
func ParseMediaOwnerType(value string) (MediaOwnerType, error) {
	for _, candidate := range validMediaOwnerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media owner type %q", value)
}
