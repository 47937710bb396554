package holiday

import (
	"fmt"
	"os"
	"time"

	"github.com/rickar/cal/v2"
	"gopkg.in/yaml.v3"

	"github.com/ganot/overlap/internal/dates"
)

// File is the on-disk format for extra holidays:
//
//	countries:
//	  BR:
//	    - {month: 1, day: 25, name: "Aniversário de São Paulo"}
//	    - {date: "2025-12-24", name: "Véspera de Natal"}
type File struct {
	Countries map[string][]Entry `yaml:"countries"`
}

// Entry is either a yearly fixed date (month/day) or a single date.
type Entry struct {
	Name  string `yaml:"name"`
	Month int    `yaml:"month"`
	Day   int    `yaml:"day"`
	Date  string `yaml:"date"`
}

// LoadFile reads extra holidays from path and registers them on c.
func LoadFile(c *Calendar, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read holiday file: %w", err)
	}
	return Load(c, data)
}

// Load parses a YAML holiday document and registers it on c.
func Load(c *Calendar, data []byte) error {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse holiday file: %w", err)
	}
	for country, entries := range f.Countries {
		rule, err := entriesRule(entries)
		if err != nil {
			return fmt.Errorf("country %s: %w", country, err)
		}
		c.AddRule(country, rule)
	}
	return nil
}

func entriesRule(entries []Entry) (Rule, error) {
	var fixed []*cal.Holiday
	var single []Holiday
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("holiday without a name")
		}
		if e.Date != "" {
			d, err := dates.Parse(e.Date)
			if err != nil {
				return nil, err
			}
			single = append(single, Holiday{Date: d, Name: e.Name})
			continue
		}
		if e.Month < 1 || e.Month > 12 || e.Day < 1 || e.Day > 31 {
			return nil, fmt.Errorf("holiday %q: invalid month/day %d/%d", e.Name, e.Month, e.Day)
		}
		fixed = append(fixed, &cal.Holiday{Name: e.Name, Month: time.Month(e.Month), Day: e.Day, Func: cal.CalcDayOfMonth})
	}

	yearly := FromCal(fixed...)
	return func(year int) []Holiday {
		out := yearly(year)
		for _, s := range single {
			if s.Date.Year() == year {
				out = append(out, s)
			}
		}
		return out
	}, nil
}
