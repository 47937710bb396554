package holiday

import (
	"github.com/rickar/cal/v2"

	"github.com/ganot/overlap/internal/dates"
)

// FromCal adapts rickar/cal holiday definitions into a Rule. Definitions
// that do not occur in a year (outside StartYear/EndYear, or a fixed day
// that overflows its month such as Feb 29) are skipped.
func FromCal(defs ...*cal.Holiday) Rule {
	return func(year int) []Holiday {
		out := make([]Holiday, 0, len(defs))
		for _, def := range defs {
			actual, _ := def.Calc(year)
			if actual.IsZero() {
				continue
			}
			if def.Month != 0 && def.Func != nil && actual.Month() != def.Month && def.Offset == 0 {
				continue
			}
			out = append(out, Holiday{
				Date: dates.New(actual.Year(), actual.Month(), actual.Day()),
				Name: def.Name,
			})
		}
		return out
	}
}
