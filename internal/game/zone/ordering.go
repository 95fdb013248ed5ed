package zone

// Ordering is the result of comparing two positions.
type Ordering int

const (
	Incomparable Ordering = iota
	Less
	Equal
	Greater
)

// String returns a human-readable ordering name.
func (o Ordering) String() string {
	switch o {
	case Less:
		return "LESS"
	case Equal:
		return "EQUAL"
	case Greater:
		return "GREATER"
	default:
		return "INCOMPARABLE"
	}
}

// Compare orders a against b axis by axis.
// Greater and Less require every axis to be strictly greater or less,
// Equal requires every axis to match; any mix is Incomparable.
func Compare(a, b Position) Ordering {
	av, bv := axes(a, b)

	var lt, gt, eq int
	for i := range av {
		switch {
		case av[i] < bv[i]:
			lt++
		case av[i] > bv[i]:
			gt++
		case av[i] == bv[i]:
			eq++
		}
	}

	n := len(av)
	switch n {
	case eq:
		return Equal
	case gt:
		return Greater
	case lt:
		return Less
	default:
		return Incomparable
	}
}

// AtLeast reports a >= b under Compare. Incomparable is false.
func AtLeast(a, b Position) bool {
	o := Compare(a, b)
	return o == Greater || o == Equal
}

// AtMost reports a <= b under Compare. Incomparable is false.
func AtMost(a, b Position) bool {
	o := Compare(a, b)
	return o == Less || o == Equal
}
