// Package report renders computed account views as terminal tables or CSV.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rubros-dev/rubros/internal/model"
	"github.com/rubros-dev/rubros/internal/money"
	"github.com/rubros-dev/rubros/internal/session"
	"github.com/rubros-dev/rubros/internal/waterfall"
)

var (
	colorBlue   = lipgloss.Color("#89b4fa")
	colorYellow = lipgloss.Color("#f9e2af")
	colorPeach  = lipgloss.Color("#fab387")
	colorMuted  = lipgloss.Color("#7f849c")
)

// Fixed rows shown above the concept lines of every item table.
const (
	rowBase = iota
	rowCost
	fixedRows
)

// Text writes one table per account: concept rows, and a value and ratio column per item.
// Overridden base quantities are marked with "*".
func Text(w io.Writer, views []session.AccountView, concepts []model.Concept, f money.Format) error {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)

	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "Sin resultados.")
		return err
	}

	for i, av := range views {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		heading := av.ID
		if av.Name != "" {
			heading += " - " + av.Name
		}
		if _, err := fmt.Fprintln(w, title.Render(heading)); err != nil {
			return err
		}
		if len(av.Items) == 0 {
			if _, err := fmt.Fprintln(w, r.NewStyle().Foreground(colorMuted).Render("Sin productos.")); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, accountTable(r, av, concepts, f)); err != nil {
			return err
		}
	}
	return nil
}

func accountTable(r *lipgloss.Renderer, av session.AccountView, concepts []model.Concept, f money.Format) string {
	headers := []string{"ID", "Concepto"}
	for _, iv := range av.Items {
		headers = append(headers, iv.Item.Code, "%")
	}

	base := []string{"", "Ventas brutas"}
	cost := []string{"", "Costo de venta"}
	for _, iv := range av.Items {
		mark := ""
		if iv.Overridden {
			mark = "*"
		}
		base = append(base, f.Currency(iv.BaseQty)+mark, "")
		cost = append(cost, f.Currency(iv.Item.CostQty), "")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Row(base...).
		Row(cost...)

	for ci, c := range concepts {
		row := []string{c.ID, c.Name}
		for _, iv := range av.Items {
			line := iv.Lines[ci]
			row = append(row, f.Value(line), money.Ratio(line))
		}
		t.Row(row...)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		s := r.NewStyle().Padding(0, 1)
		if col >= 2 {
			s = s.Align(lipgloss.Right)
		}
		if row == table.HeaderRow {
			return s.Bold(true)
		}
		if row < fixedRows || row-fixedRows >= len(concepts) {
			return s.Foreground(colorMuted)
		}
		return conceptStyle(s, concepts[row-fixedRows].Meta)
	})
	return t.String()
}

func conceptStyle(s lipgloss.Style, m model.ConceptMeta) lipgloss.Style {
	switch m.Band {
	case model.BandBlue:
		s = s.Foreground(colorBlue)
	case model.BandYellow:
		s = s.Foreground(colorYellow)
	case model.BandYellowStrong:
		s = s.Foreground(colorYellow).Bold(true)
	}
	if m.Strong {
		s = s.Bold(true)
	}
	if m.Emph {
		s = s.Foreground(colorPeach)
	}
	if m.Italic {
		s = s.Italic(true)
	}
	return s
}

// Concepts writes the catalog as a table.
func Concepts(w io.Writer, concepts []model.Concept) error {
	r := lipgloss.NewRenderer(w)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Nombre", "Rol")
	for _, c := range concepts {
		t.Row(c.ID, c.Name, string(c.Role))
	}
	t.StyleFunc(func(row, _ int) lipgloss.Style {
		s := r.NewStyle().Padding(0, 1)
		if row < 0 || row >= len(concepts) {
			return s.Bold(true)
		}
		return conceptStyle(s, concepts[row].Meta)
	})
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// Lines writes a single computed breakdown as a table of value and ratio per concept.
func Lines(w io.Writer, lines []waterfall.Line, f money.Format) error {
	r := lipgloss.NewRenderer(w)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Concepto", "Valor", "%")
	for _, l := range lines {
		t.Row(l.Concept.ID, l.Concept.Name, f.Value(l), money.Ratio(l))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		s := r.NewStyle().Padding(0, 1)
		if col >= 2 {
			s = s.Align(lipgloss.Right)
		}
		if row < 0 || row >= len(lines) {
			return s.Bold(true)
		}
		return conceptStyle(s, lines[row].Concept.Meta)
	})
	_, err := fmt.Fprintln(w, t.String())
	return err
}
