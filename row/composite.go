package row

import "strings"

// Composite groups several independently encoded row slices — one per
// table/source a query reads from — each against its own Schema, and
// presents them as a single logical row indexed by (slice, column).
// This is how a join or multi-source projection passes its inputs to a
// compiled function without first materializing a single flattened row.
type Composite struct {
	views []*View
}

// NewComposite builds a Composite over schemas in slice order.
func NewComposite(schemas ...*Schema) *Composite {
	views := make([]*View, len(schemas))
	for i, s := range schemas {
		views[i] = NewView(s)
	}
	return &Composite{views: views}
}

// SetSlice points the sliceIdx-th component view at buf.
func (c *Composite) SetSlice(sliceIdx int, buf []byte) error {
	if sliceIdx < 0 || sliceIdx >= len(c.views) {
		return ErrIndexOutOfRange
	}
	return c.views[sliceIdx].Reset(buf)
}

// Slice returns the sliceIdx-th component View for direct column reads.
func (c *Composite) Slice(sliceIdx int) (*View, error) {
	if sliceIdx < 0 || sliceIdx >= len(c.views) {
		return nil, ErrIndexOutOfRange
	}
	return c.views[sliceIdx], nil
}

// GetRowString renders every component slice's GetRowString in order,
// separated by "|", giving a single human-readable line for the whole
// composite row.
func (c *Composite) GetRowString() (string, error) {
	parts := make([]string, len(c.views))
	for i, v := range c.views {
		s, err := v.GetRowString()
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, "|"), nil
}
