package lower

import "strings"

// Boundary names a word-boundary rule, configurable via GlobalConfig's
// NameWordBoundaries (spec.md §4.E step 2). The default set (DefaultBoundaries)
// is applied whenever a device's config does not list one explicitly.
const (
	BoundaryUnderscore  = "underscore"
	BoundaryHyphen      = "hyphen"
	BoundarySpace       = "space"
	BoundaryLowerUpper  = "lower_upper"
	BoundaryUpperDigit  = "upper_digit"
	BoundaryDigitUpper  = "digit_upper"
	BoundaryDigitLower  = "digit_lower"
	BoundaryLowerDigit  = "lower_digit"
	BoundaryAcronym     = "acronym"
)

// DefaultBoundaries is the union applied when NameWordBoundaries is unset.
var DefaultBoundaries = []string{
	BoundaryUnderscore, BoundaryHyphen, BoundarySpace,
	BoundaryLowerUpper, BoundaryUpperDigit, BoundaryDigitUpper,
	BoundaryDigitLower, BoundaryLowerDigit, BoundaryAcronym,
}

type boundarySet map[string]bool

func newBoundarySet(names []string) boundarySet {
	bs := make(boundarySet, len(names))
	for _, n := range names {
		bs[n] = true
	}
	return bs
}

type runeClass int

const (
	classOther runeClass = iota
	classLower
	classUpper
	classDigit
)

func classify(r rune) runeClass {
	switch {
	case r >= 'a' && r <= 'z':
		return classLower
	case r >= 'A' && r <= 'Z':
		return classUpper
	case r >= '0' && r <= '9':
		return classDigit
	default:
		return classOther
	}
}

// SplitWords splits an identifier into its component words according to
// the enabled boundary rules, mirroring the original implementation's
// Identifier.apply_boundaries. Separator characters (underscore, hyphen,
// space) are always treated as boundaries and dropped from the output
// regardless of whether their rule is enabled, since an identifier
// containing a literal separator has no other sensible word split; the
// boundary flags instead gate separator-less transitions (camelCase,
// digit runs, acronyms).
func SplitWords(s string, boundaries []string) []string {
	bs := newBoundarySet(boundaries)
	runes := []rune(s)

	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '_', '-', ' ':
			flush()
			continue
		}
		if len(cur) == 0 {
			cur = append(cur, r)
			continue
		}
		prev := cur[len(cur)-1]
		prevClass, curClass := classify(prev), classify(r)
		var nextClass runeClass = classOther
		if i+1 < len(runes) {
			nextClass = classify(runes[i+1])
		}

		boundary := false
		switch {
		case prevClass == classLower && curClass == classUpper && bs[BoundaryLowerUpper]:
			boundary = true
		case prevClass == classUpper && curClass == classDigit && bs[BoundaryUpperDigit]:
			boundary = true
		case prevClass == classDigit && curClass == classUpper && bs[BoundaryDigitUpper]:
			boundary = true
		case prevClass == classDigit && curClass == classLower && bs[BoundaryDigitLower]:
			boundary = true
		case prevClass == classLower && curClass == classDigit && bs[BoundaryLowerDigit]:
			boundary = true
		case prevClass == classUpper && curClass == classUpper && nextClass == classLower && bs[BoundaryAcronym]:
			// An acronym run ("HTTP" in "HTTPServer") ends at the upper-case
			// letter immediately before a lower-case one; split before it.
			boundary = true
		}
		if boundary {
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// CanonicalName joins words into the lowercase, underscore-separated form
// used internally for uniqueness comparisons. The emitter is responsible
// for recasing words into its target convention; this form is never
// shown to the user.
func CanonicalName(words []string) string {
	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}
	return strings.Join(lower, "_")
}

// Normalize is the combined split+canonicalize step applied to every
// object, field, enum and enum-variant identifier during lowering.
func Normalize(original string, boundaries []string) (canonical string, words []string) {
	words = SplitWords(original, boundaries)
	if len(words) == 0 {
		words = []string{original}
	}
	return CanonicalName(words), words
}
