package holiday

import (
	"testing"
	"time"

	"github.com/ganot/overlap/internal/dates"
	"github.com/stretchr/testify/require"
)

func TestCalendar_BrazilOn(t *testing.T) {
	c := NewCalendar()

	h, ok := c.On("br", dates.New(2025, time.March, 3))
	require.True(t, ok)
	require.Equal(t, "Carnaval", h.Name)
	h, ok = c.On("BR", dates.New(2025, time.March, 4))
	require.True(t, ok)
	require.Equal(t, "Carnaval", h.Name)

	for _, d := range []time.Time{
		dates.New(2025, time.January, 1),
		dates.New(2025, time.April, 18), // Sexta-feira Santa
		dates.New(2025, time.April, 21),
		dates.New(2025, time.May, 1),
		dates.New(2025, time.June, 19), // Corpus Christi
		dates.New(2025, time.September, 7),
		dates.New(2025, time.October, 12),
		dates.New(2025, time.November, 2),
		dates.New(2025, time.November, 15),
		dates.New(2025, time.December, 25),
	} {
		h, ok := c.On("BR", d)
		require.True(t, ok, dates.Format(d))
		require.NotEmpty(t, h.Name)
		require.Equal(t, d, h.Date)
	}

	_, ok = c.On("BR", dates.New(2025, time.April, 22))
	require.False(t, ok)

	_, ok = c.On("BR", dates.New(2023, time.November, 20))
	require.False(t, ok)
	h, ok = c.On("BR", dates.New(2024, time.November, 20))
	require.True(t, ok)
	require.Equal(t, "Dia Nacional de Zumbi e da Consciência Negra", h.Name)
}

func TestCalendar_BetweenIsOrderedAndBounded(t *testing.T) {
	c := NewCalendar()
	list := c.Between("BR", dates.New(2025, time.January, 1), dates.New(2025, time.December, 31))
	require.Len(t, list, 13)
	for i := 1; i < len(list); i++ {
		require.True(t, list[i-1].Date.Before(list[i].Date))
	}

	span := c.Between("BR", dates.New(2024, time.December, 20), dates.New(2025, time.January, 5))
	require.Len(t, span, 2)
	require.Equal(t, dates.New(2024, time.December, 25), span[0].Date)
	require.Equal(t, dates.New(2025, time.January, 1), span[1].Date)
}

func TestCalendar_EasterMovesCarnaval(t *testing.T) {
	c := NewCalendar()
	// Easter 2024 is March 31, 2026 is April 5.
	for _, d := range []time.Time{dates.New(2024, time.February, 12), dates.New(2026, time.February, 17)} {
		h, ok := c.On("BR", d)
		require.True(t, ok, dates.Format(d))
		require.Equal(t, "Carnaval", h.Name)
	}
}

func TestCalendar_UnknownCountry(t *testing.T) {
	c := NewCalendar()
	_, ok := c.On("ZZ", dates.New(2025, time.January, 1))
	require.False(t, ok)
	require.Empty(t, c.Between("ZZ", dates.New(2025, time.January, 1), dates.New(2025, time.December, 31)))
}

func TestLoad_Extras(t *testing.T) {
	c := NewCalendar()
	doc := []byte(`
countries:
  BR:
    - {month: 1, day: 25, name: "Aniversário de São Paulo"}
    - {date: "2025-12-24", name: "Véspera de Natal"}
  PT:
    - {month: 4, day: 25, name: "Dia da Liberdade"}
`)
	require.NoError(t, Load(c, doc))
	require.Equal(t, []string{"BR", "PT"}, c.Countries())

	h, ok := c.On("BR", dates.New(2026, time.January, 25))
	require.True(t, ok)
	require.Equal(t, "Aniversário de São Paulo", h.Name)

	_, ok = c.On("BR", dates.New(2025, time.December, 24))
	require.True(t, ok)
	_, ok = c.On("BR", dates.New(2026, time.December, 24))
	require.False(t, ok)

	_, ok = c.On("PT", dates.New(2030, time.April, 25))
	require.True(t, ok)
}

func TestLoad_LeapDayOnlyInLeapYears(t *testing.T) {
	c := NewCalendar()
	require.NoError(t, Load(c, []byte(`countries: {XX: [{month: 2, day: 29, name: "Leap"}]}`)))

	_, ok := c.On("XX", dates.New(2028, time.February, 29))
	require.True(t, ok)
	_, ok = c.On("XX", dates.New(2027, time.March, 1))
	require.False(t, ok)
}

func TestLoad_RejectsBadEntries(t *testing.T) {
	c := NewCalendar()
	require.Error(t, Load(c, []byte(`countries: {BR: [{month: 13, day: 1, name: x}]}`)))
	require.Error(t, Load(c, []byte(`countries: {BR: [{month: 1, day: 1}]}`)))
	require.Error(t, Load(c, []byte(`countries: {BR: [{date: "2025-02-30", name: x}]}`)))
}
