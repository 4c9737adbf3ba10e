package name

import "strings"

// Compare orders two parsed names by last name, first name, suffix, homonym
// number and finally the raw string. Components are compared
// case-insensitively after folding; a missing first name or suffix sorts
// before a present one.
func Compare(a, b Parsed) int {
	if c := compareFolded(a.Last, b.Last); c != 0 {
		return c
	}
	switch {
	case !a.HasFirst && b.HasFirst:
		return -1
	case a.HasFirst && !b.HasFirst:
		return 1
	case a.HasFirst && b.HasFirst:
		if c := compareFolded(a.First, b.First); c != 0 {
			return c
		}
	}
	switch {
	case a.Suffix == "" && b.Suffix != "":
		return -1
	case a.Suffix != "" && b.Suffix == "":
		return 1
	case a.Suffix != "" && b.Suffix != "":
		if c := compareFolded(a.Suffix, b.Suffix); c != 0 {
			return c
		}
	}
	if a.HomonymID != "" && b.HomonymID != "" {
		if c := strings.Compare(a.HomonymID, b.HomonymID); c != 0 {
			return c
		}
	}
	return strings.Compare(a.Raw, b.Raw)
}

func compareFolded(a, b string) int {
	return strings.Compare(strings.ToLower(Fold(a)), strings.ToLower(Fold(b)))
}
