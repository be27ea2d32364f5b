package inspection

import "strings"

// State is the normalized interpretation of a raw inspection value.
type State int

const (
	// Unset means the item has no usable value: absent key, null, or
	// unrecognized text.
	Unset State = iota
	// Checked means the item was affirmatively ticked.
	Checked
	// Negative means the item was explicitly marked not-OK.
	Negative
)

// String returns the state name, mostly for test failure output.
func (s State) String() string {
	switch s {
	case Checked:
		return "checked"
	case Negative:
		return "negative"
	default:
		return "unset"
	}
}

// Historical records store inspection values in several shapes: JSON booleans
// on recent rows, free-text spellings on legacy ones. The recognized
// negative spellings come from the legacy forms (Portuguese UI).
var negativeTexts = map[string]bool{
	"false": true,
	"nao":   true,
	"não":   true,
	"n":     true,
}

// Normalize maps a raw inspection value of unknown shape to its tri-state
// interpretation. It is total: every input yields exactly one State and no
// input ever fails.
func Normalize(raw any) State {
	switch v := raw.(type) {
	case bool:
		if v {
			return Checked
		}
		return Negative
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if s == "true" {
			return Checked
		}
		if negativeTexts[s] {
			return Negative
		}
	}
	return Unset
}
