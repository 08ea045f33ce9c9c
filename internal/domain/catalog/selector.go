package catalog

// Selector is the per-row quantity picker shown next to each product.
type Selector struct {
	ProductID string
	Selected  int
	Max       int
}

// Accepts reports whether quantity lies inside 0..Max.
func (s Selector) Accepts(quantity int) bool {
	return quantity >= 0 && quantity <= s.Max
}
