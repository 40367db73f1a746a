package export

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"incidencias-cli/internal/derive"
	"incidencias-cli/internal/model"
)

// Printable sheets are built as markdown so they read fine raw, piped to a
// file, or rendered for the terminal.

// ListSheet is the print view of the filtered board: the summary line plus
// one table row per incident.
func ListSheet(ins []model.Incident, buildingName func(string) string, now time.Time) string {
	sum := derive.Summarize(ins)
	var b strings.Builder
	fmt.Fprintf(&b, "# Incidencias · %s\n\n", now.Format("02/01/2006 15:04"))
	fmt.Fprintf(&b, "Total %d · Abiertas %d · En proceso %d · Cerradas %d\n\n",
		sum.Total, sum.Open, sum.InProgress, sum.Closed)
	b.WriteString("| Título | Estado | Prioridad | Edificio | Límite |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, in := range derive.Sort(ins) {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			mdCell(in.Title), in.Status, in.Priority,
			mdCell(buildingName(in.BuildingID)), in.DueDate)
	}
	return b.String()
}

// DetailSheet is the print view of one incident with its thread.
func DetailSheet(in model.Incident, comms []model.Communication, buildingName, contractorName func(string) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", in.Title)
	fmt.Fprintf(&b, "- Estado: %s\n- Prioridad: %s\n", in.Status, in.Priority)
	if in.BuildingID != "" {
		fmt.Fprintf(&b, "- Edificio: %s\n", buildingName(in.BuildingID))
	}
	if in.ContractorID != "" {
		fmt.Fprintf(&b, "- Reparador: %s\n", contractorName(in.ContractorID))
	}
	if in.DueDate != "" {
		fmt.Fprintf(&b, "- Fecha límite: %s\n", in.DueDate)
	}
	if in.IsClaim {
		fmt.Fprintf(&b, "- Siniestro: Sí (ref %s)\n", in.ClaimRef)
	}
	if in.ClosedAt != nil {
		fmt.Fprintf(&b, "- Cerrada: %s\n", in.ClosedAt.Local().Format("02/01/2006"))
	}
	if len(in.Tags) > 0 {
		fmt.Fprintf(&b, "- Etiquetas: %s\n", strings.Join(in.Tags, ", "))
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		fmt.Fprintf(&b, "\n%s\n", desc)
	}
	if len(in.Files) > 0 {
		b.WriteString("\n## Archivos\n\n")
		for _, f := range in.Files {
			fmt.Fprintf(&b, "- %s\n", f.Name)
		}
	}
	if len(comms) > 0 {
		b.WriteString("\n## Comunicaciones\n\n")
		for _, c := range comms {
			fmt.Fprintf(&b, "**%s** · %s · %s\n\n%s\n\n",
				c.Author, c.Type, c.CreatedAt.Local().Format("02/01/2006 15:04"), c.Message)
		}
	}
	return b.String()
}

func mdCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}

var (
	sheetRendererMu sync.Mutex
	sheetRenderers  = map[int]*glamour.TermRenderer{}

	// The background query can block, so it runs at most once.
	sheetStyle = sync.OnceValue(func() string {
		if termenv.HasDarkBackground() {
			return "dark"
		}
		return "light"
	})
)

// RenderSheet renders a markdown sheet for the terminal. Renderers are
// cached per width; glamour's auto style re-queries the terminal on every
// renderer, so the style is resolved once up front instead.
func RenderSheet(md string, width int) string {
	if width < 40 {
		width = 40
	}
	sheetRendererMu.Lock()
	r := sheetRenderers[width]
	sheetRendererMu.Unlock()
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(sheetStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		sheetRendererMu.Lock()
		if existing := sheetRenderers[width]; existing != nil {
			r = existing
		} else {
			sheetRenderers[width] = rr
			r = rr
		}
		sheetRendererMu.Unlock()
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
