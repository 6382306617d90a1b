package usecases

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"employee-export/internal/core/domain"
)

type employeeComparator func(a, b domain.Employee) int

// sortComparators is keyed by lower-cased field name. Each comparator puts
// missing values first.
var sortComparators = map[string]employeeComparator{
	"id": func(a, b domain.Employee) int { return cmp.Compare(a.ID, b.ID) },
	"firstname": func(a, b domain.Employee) int {
		return compareFold(a.FirstName, b.FirstName)
	},
	"lastname": func(a, b domain.Employee) int {
		return compareFold(a.LastName, b.LastName)
	},
	"email": func(a, b domain.Employee) int {
		return compareFold(a.Email, b.Email)
	},
	"department": func(a, b domain.Employee) int {
		return compareFold(a.Department, b.Department)
	},
	"position": func(a, b domain.Employee) int {
		return compareFold(a.Position, b.Position)
	},
	"salary": func(a, b domain.Employee) int {
		return compareNullable(a.Salary, b.Salary, cmp.Compare[float64])
	},
	"hiredate": func(a, b domain.Employee) int {
		return compareNullable(a.HireDate, b.HireDate, compareDate)
	},
	"dateofbirth": func(a, b domain.Employee) int {
		return compareNullable(a.DateOfBirth, b.DateOfBirth, compareDate)
	},
	"createdat": func(a, b domain.Employee) int {
		return compareNullable(a.CreatedAt, b.CreatedAt, compareTime)
	},
	"updatedat": func(a, b domain.Employee) int {
		return compareNullable(a.UpdatedAt, b.UpdatedAt, compareTime)
	},
}

// IsSortableField reports whether field names a known sort key, ignoring case.
func IsSortableField(field string) bool {
	_, ok := sortComparators[strings.ToLower(field)]
	return ok
}

// SortEmployees returns a stably sorted copy of records. An unknown field
// leaves the order untouched and reports false. The comparator result is
// negated for "desc", so missing values end up last in that direction.
func SortEmployees(records []domain.Employee, sortBy, sortDir string) ([]domain.Employee, bool) {
	sorted := slices.Clone(records)
	if len(sorted) == 0 || sortBy == "" {
		return sorted, true
	}

	compare, ok := sortComparators[strings.ToLower(sortBy)]
	if !ok {
		return sorted, false
	}

	if strings.EqualFold(sortDir, "desc") {
		asc := compare
		compare = func(a, b domain.Employee) int { return -asc(a, b) }
	}

	slices.SortStableFunc(sorted, compare)
	return sorted, true
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareDate(a, b domain.Date) int {
	return a.Compare(b.Time)
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}

func compareNullable[T any](a, b *T, compare func(T, T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return compare(*a, *b)
	}
}
