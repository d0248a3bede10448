package force

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/tenpush/internal/core"
)

type entry struct {
	params int
	build  func(p []float64) Model
}

var models = map[string]entry{
	"spring": {2, func(p []float64) Model { return &Spring{K: p[0], Pull: p[1]} }},
	"gauss":  {1, func(p []float64) Model { return &Gauss{Cut: p[0]} }},
	"charge": {2, func(p []float64) Model { return &Charge{Strength: p[0], Cut: p[1]} }},
	"cotan":  {1, func(p []float64) Model { return &Cotan{Strength: p[0]} }},
}

// Parse builds a model from "<name>:<p1>,<p2>,...".
func Parse(spec string) (Model, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(spec), ":")
	name = strings.ToLower(strings.TrimSpace(name))

	e, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown force %q (available: %v)", core.ErrParse, name, Names())
	}

	var params []float64
	if strings.TrimSpace(rest) != "" {
		for _, field := range strings.Split(rest, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s parameter %q: %v", core.ErrParse, name, field, err)
			}
			params = append(params, v)
		}
	}

	if len(params) != e.params {
		return nil, fmt.Errorf("%w: %s takes %d parameters, got %d", core.ErrParse, name, e.params, len(params))
	}

	return e.build(params), nil
}

// Format renders m in the form accepted by Parse.
func Format(m Model) string {
	params := m.Params()
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = strconv.FormatFloat(p, 'g', -1, 64)
	}
	return m.Name() + ":" + strings.Join(parts, ",")
}

func Names() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
