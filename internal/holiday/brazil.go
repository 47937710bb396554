package holiday

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/br"
)

// brazilPinned comes ahead of the library list so these dates keep their
// names when both define them. Carnaval Monday and Tuesday share one label.
// Black Consciousness Day is national only from 2024 on.
var brazilPinned = []*cal.Holiday{
	{Name: "Carnaval", Offset: -48, Func: cal.CalcEasterOffset},
	{Name: "Carnaval", Offset: -47, Func: cal.CalcEasterOffset},
	{Name: "Dia Nacional de Zumbi e da Consciência Negra", Month: time.November, Day: 20, StartYear: 2024, Func: cal.CalcDayOfMonth},
}

var brazil = FromCal(brazilDefs()...)

func brazilDefs() []*cal.Holiday {
	defs := append([]*cal.Holiday{}, brazilPinned...)
	for _, h := range br.Holidays {
		if h == br.ConscienciaNegra {
			continue
		}
		defs = append(defs, h)
	}
	return defs
}
