package enums

// LineState tracks a cart line (or seller group) while a removal is outstanding.
type LineState string

const (
	LineStatePresent  LineState = "present"
	LineStateRemoving LineState = "removing"
	LineStateUpdating LineState = "updating"
)

// String implements fmt.Stringer.
func (l LineState) String() string {
	return string(l)
}

// Busy reports whether the line has a mutation in flight and its controls
// should be disabled.
func (l LineState) Busy() bool {
	return l == LineStateRemoving || l == LineStateUpdating
}
