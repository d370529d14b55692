package enums

import "fmt"

// MenuTitle is the daypart a menu belongs to.
type MenuTitle string

const (
	MenuTitleBreakfast MenuTitle = "breakfast"
	MenuTitleLunch     MenuTitle = "lunch"
	MenuTitleDinner    MenuTitle = "dinner"
	MenuTitleBeverages MenuTitle = "beverages"
)

var validMenuTitles = []MenuTitle{
	MenuTitleBreakfast,
	MenuTitleLunch,
	MenuTitleDinner,
	MenuTitleBeverages,
}

// String implements fmt.Stringer.
func (m MenuTitle) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MenuTitle.
func (m MenuTitle) IsValid() bool {
	for _, candidate := range validMenuTitles {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMenuTitle converts raw input into a MenuTitle.
func ParseMenuTitle(value string) (MenuTitle, error) {
	for _, candidate := range validMenuTitles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid menu title %q", value)
}
