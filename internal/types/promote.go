package types

// PromotionTable holds the process-wide ad-hoc subtype edges between
// otherwise unrelated types, keyed by full name (integer promotes to
// floating, bytearray to bytes). It is built once during startup and
// thereafter read-only; components receive it explicitly rather than
// through a hidden singleton.
type PromotionTable struct {
	edges   map[string]string
	Enabled bool
}

// NewPromotionTable returns a table seeded with the standard promotions.
func NewPromotionTable() *PromotionTable {
	t := &PromotionTable{edges: make(map[string]string), Enabled: true}
	t.Add("builtins.int", "builtins.float")
	t.Add("builtins.float", "builtins.complex")
	t.Add("builtins.bytearray", "builtins.bytes")
	t.Add("builtins.memoryview", "builtins.bytes")
	return t
}

// Add records a promotion edge.
func (t *PromotionTable) Add(from, to string) {
	t.edges[from] = to
}

// Promoted returns the promotion target of a type name, if any. A disabled
// table reports no edges.
func (t *PromotionTable) Promoted(from string) (string, bool) {
	if !t.Enabled {
		return "", false
	}
	to, ok := t.edges[from]
	return to, ok
}

// PromotesTo follows promotion edges from one full name to another.
func (t *PromotionTable) PromotesTo(from, to string) bool {
	for {
		next, ok := t.Promoted(from)
		if !ok {
			return false
		}
		if next == to {
			return true
		}
		from = next
	}
}
