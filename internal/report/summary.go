package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/rubros-dev/rubros/internal/model"
	"github.com/rubros-dev/rubros/internal/money"
	"github.com/rubros-dev/rubros/internal/waterfall"
)

// Summary writes one block per product. Collapsed blocks show only the
// operating profit row with its ratio to net revenue.
func Summary(w io.Writer, sums []waterfall.ProductSummary, concepts []model.Concept, f money.Format, collapsed bool) error {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true).Foreground(colorBlue)

	if len(sums) == 0 {
		_, err := fmt.Fprintln(w, "Sin resultados.")
		return err
	}

	operating := operatingConcept(concepts)
	for i, ps := range sums {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		heading := ps.Code
		if ps.Name != "" {
			heading += " - " + ps.Name
		}
		if ps.Accounts > 0 {
			heading += fmt.Sprintf(" (%d %s)", ps.Accounts, plural(ps.Accounts, "cliente", "clientes"))
		}
		if _, err := fmt.Fprintln(w, title.Render(heading)); err != nil {
			return err
		}

		if collapsed {
			l := ps.Breakdown.Line(operating)
			style := conceptStyle(r.NewStyle(), operating.Meta)
			if _, err := fmt.Fprintf(w, "%s  %s  %s\n", style.Render(l.Concept.Name), f.Value(l), money.Ratio(l)); err != nil {
				return err
			}
			continue
		}
		if err := Lines(w, ps.Breakdown.Vector(concepts), f); err != nil {
			return err
		}
	}
	return nil
}

func operatingConcept(concepts []model.Concept) model.Concept {
	for _, c := range concepts {
		if c.Role == model.RoleOperatingProfit {
			return c
		}
	}
	return model.Concept{Name: "Utilidad o pérdida de Operación", Role: model.RoleOperatingProfit}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
