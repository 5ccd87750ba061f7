package core

// GoalSortField selects which column the active goal list is ordered by.
type GoalSortField int

const (
	SortByCreation GoalSortField = iota // insertion order, the default
	SortByTitle
	SortByAmount
	SortByPriority
)

// SortOrder is the direction of a goal list sort.
type SortOrder int

const (
	Ascending  SortOrder = 1
	Descending SortOrder = 2
)

func (f GoalSortField) String() string {
	switch f {
	case SortByTitle:
		return "Title"
	case SortByAmount:
		return "Amount"
	case SortByPriority:
		return "Priority"
	default:
		return "Creation"
	}
}

// ParseGoalSortField maps a stored field name back to its constant,
// falling back to Title for unknown values.
func ParseGoalSortField(s string) GoalSortField {
	switch s {
	case "Creation":
		return SortByCreation
	case "Amount":
		return SortByAmount
	case "Priority":
		return SortByPriority
	default:
		return SortByTitle
	}
}

func (o SortOrder) String() string {
	if o == Descending {
		return "Descending"
	}
	return "Ascending"
}

// ParseSortOrder falls back to Ascending for unknown values.
func ParseSortOrder(s string) SortOrder {
	if s == "Descending" {
		return Descending
	}
	return Ascending
}

// GoalFilter describes how the active goal list should be ordered.
type GoalFilter struct {
	Field GoalSortField
	Order SortOrder
}

// DefaultGoalFilter matches the UI default: title, ascending.
func DefaultGoalFilter() GoalFilter {
	return GoalFilter{Field: SortByTitle, Order: Ascending}
}
