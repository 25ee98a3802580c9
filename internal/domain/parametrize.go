package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	m "rig.dev/pkg/rig/internal/model"
)

// Expand turns one declared test into its concrete invocations. Each
// parametrize spec contributes a set of named argument tuples; multiple
// specs compose by Cartesian product, preserving declaration order in the
// generated invocation ids. A test without parametrize specs yields a
// single invocation.
//
// Every invocation owns a fresh function-scope namespace; parametrization
// never upgrades a broader-scoped dependency to per-invocation creation.
func Expand(item *m.TestItem) []*m.TestInvocation {
	combos := []combo{{values: m.Args{}}}

	for _, spec := range item.Parametrize {
		expanded := make([]combo, 0, len(combos)*len(spec.Rows))

		for _, base := range combos {
			for _, row := range spec.Rows {
				next := combo{
					values:  make(m.Args, len(base.values)+len(spec.Names)),
					idParts: append(append([]string(nil), base.idParts...), formatRow(spec.Names, row)),
				}

				for name, value := range base.values {
					next.values[name] = value
				}

				for i, name := range spec.Names {
					if i < len(row) {
						next.values[name] = row[i]
					}
				}

				expanded = append(expanded, next)
			}
		}

		combos = expanded
	}

	// Identical value rows would collide on one id (and so on one
	// function-scope key); repeated ids get an index suffix.
	ids := make(map[string]int, len(combos))
	for _, cb := range combos {
		ids[invocationID(item.Location.Name, cb.idParts)]++
	}

	seen := make(map[string]int)

	return lo.Map(combos, func(cb combo, _ int) *m.TestInvocation {
		id := invocationID(item.Location.Name, cb.idParts)
		if ids[id] > 1 {
			parts := append(append([]string(nil), cb.idParts...), strconv.Itoa(seen[id]))
			seen[id]++
			id = invocationID(item.Location.Name, parts)
		}

		return &m.TestInvocation{
			Item:        item,
			ID:          id,
			ParamValues: cb.values,
		}
	})
}

type combo struct {
	values  m.Args
	idParts []string
}

func invocationID(name string, parts []string) string {
	if len(parts) == 0 {
		return name
	}

	return name + "[" + strings.Join(parts, "-") + "]"
}

func formatRow(names []string, row []any) string {
	parts := make([]string, 0, len(names))

	for i := range names {
		if i < len(row) {
			parts = append(parts, formatValue(row[i]))
		}
	}

	return strings.Join(parts, "-")
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
