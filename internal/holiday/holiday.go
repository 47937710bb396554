// Package holiday answers which dates are public holidays in a country.
// Results are deterministic for a given (country, date).
package holiday

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/puzpuzpuz/xsync/v4"
)

// Holiday is a named public holiday.
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// Rule produces a country's holidays for one year.
type Rule func(year int) []Holiday

// Calendar looks up holidays across countries. It is safe for concurrent use.
type Calendar struct {
	rules map[string][]Rule
	years *xsync.Map[string, []Holiday]
}

// NewCalendar creates a calendar with the built-in country rules.
func NewCalendar() *Calendar {
	c := &Calendar{
		rules: make(map[string][]Rule),
		years: xsync.NewMap[string, []Holiday](),
	}
	c.rules["BR"] = []Rule{brazil}
	return c
}

// AddRule registers an extra rule for country. Call before first lookup.
func (c *Calendar) AddRule(country string, rule Rule) {
	country = normalize(country)
	c.rules[country] = append(c.rules[country], rule)
}

// Countries lists the country codes with at least one rule.
func (c *Calendar) Countries() []string {
	out := make([]string, 0, len(c.rules))
	for code := range c.rules {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// On returns the holiday falling on date, if any.
func (c *Calendar) On(country string, date time.Time) (Holiday, bool) {
	date = dates.Of(date)
	for _, h := range c.year(country, date.Year()) {
		if h.Date.Equal(date) {
			return h, true
		}
	}
	return Holiday{}, false
}

// Between returns the holidays in [from, to], ordered by date.
func (c *Calendar) Between(country string, from, to time.Time) []Holiday {
	from, to = dates.Of(from), dates.Of(to)
	var out []Holiday
	for y := from.Year(); y <= to.Year(); y++ {
		for _, h := range c.year(country, y) {
			if !h.Date.Before(from) && !h.Date.After(to) {
				out = append(out, h)
			}
		}
	}
	return out
}

func (c *Calendar) year(country string, year int) []Holiday {
	country = normalize(country)
	rules, ok := c.rules[country]
	if !ok {
		return nil
	}
	key := country + ":" + strconv.Itoa(year)
	if cached, ok := c.years.Load(key); ok {
		return cached
	}

	byDate := make(map[time.Time]Holiday)
	for _, rule := range rules {
		for _, h := range rule(year) {
			h.Date = dates.Of(h.Date)
			if _, dup := byDate[h.Date]; !dup {
				byDate[h.Date] = h
			}
		}
	}
	list := make([]Holiday, 0, len(byDate))
	for _, h := range byDate {
		list = append(list, h)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })

	actual, _ := c.years.LoadOrStore(key, list)
	return actual
}

func normalize(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}
