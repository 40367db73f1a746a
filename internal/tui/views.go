package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"incidencias-cli/internal/model"
	"incidencias-cli/internal/session"
)

func (m *appModel) View() string {
	if m.mode == modeLogin {
		return m.viewLogin()
	}
	switch m.mode {
	case modeFilter:
		return m.viewFilterForm()
	case modeForm:
		return m.viewIncidentForm()
	}

	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	b.WriteString(m.viewMetrics())
	b.WriteString("\n")
	if chips := m.viewChips(); chips != "" {
		b.WriteString(chips)
		b.WriteString("\n")
	}

	board := m.viewBoard()
	if det := m.dash.Detail(); det != nil {
		detail := m.viewDetail(det)
		boardW := m.width * 3 / 5
		board = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(boardW).Render(board),
			paneStyle.Width(m.width-boardW-4).Render(detail))
	}
	b.WriteString(board)
	b.WriteString("\n")

	switch m.mode {
	case modeComm:
		b.WriteString("Nueva comunicación: " + m.commInput.View() + helpStyle.Render("  enter envía · esc cancela"))
	case modeSaveFilter:
		b.WriteString("Guardar filtro como: " + m.nameInput.View() + helpStyle.Render("  enter guarda · esc cancela"))
	case modeConfirmDelete:
		b.WriteString(errorStyle.Render("¿Eliminar la incidencia y sus archivos? (s/n)"))
	default:
		b.WriteString(m.viewToastsOrHelp())
	}
	return b.String()
}

func (m *appModel) viewHeader() string {
	viewName := "Lista"
	switch m.dash.View {
	case session.ViewKanban:
		viewName = "Kanban"
	case session.ViewAgenda:
		viewName = "Agenda"
	}
	sum := m.dash.Summary()
	left := titleStyle.Render("Incidencias") + mutedStyle.Render(" · "+viewName)
	right := mutedStyle.Render(fmt.Sprintf("%s · %d/%d/%d/%d",
		m.dash.User.Author(), sum.Total, sum.Open, sum.InProgress, sum.Closed))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *appModel) viewMetrics() string {
	met := m.dash.Metrics(time.Now())
	cell := func(label string, v, delta int) string {
		s := fmt.Sprintf("%s %d", label, v)
		if delta > 0 {
			s += successStyle.Render(fmt.Sprintf(" +%d", delta))
		} else if delta < 0 {
			s += errorStyle.Render(fmt.Sprintf(" %d", delta))
		}
		return s
	}
	return mutedStyle.Render("Hoy: ") + strings.Join([]string{
		cell("abiertas", met.Open, met.OpenDelta),
		cell("vencen<48h", met.DueSoon, met.DueSoonDelta),
		cell("sin reparador", met.NoContractor, met.NoContractorDelta),
		cell("creadas hoy", met.CreatedToday, met.CreatedTodayDelta),
	}, mutedStyle.Render(" · "))
}

func (m *appModel) viewChips() string {
	if len(m.dash.SavedFilters) == 0 {
		return ""
	}
	var chips []string
	active := m.dash.Criteria.Raw()
	for _, sf := range m.dash.SavedFilters {
		label := sf.Name
		if rawEqual(active, sf.Criteria) {
			label = "● " + label
		}
		chips = append(chips, chipStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, chips...)
}

func (m *appModel) viewBoard() string {
	switch m.dash.View {
	case session.ViewKanban:
		return m.viewKanban()
	case session.ViewAgenda:
		return m.viewAgenda()
	}
	return m.viewList()
}

func (m *appModel) viewList() string {
	rows := m.dash.Visible()
	if len(rows) == 0 {
		return mutedStyle.Render("Sin incidencias para el filtro actual.")
	}
	var b strings.Builder
	for i, in := range rows {
		line := m.listRow(in)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		if i != len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *appModel) listRow(in model.Incident) string {
	due := in.DueDate
	if due == "" {
		due = "—"
	}
	claim := "  "
	if in.IsClaim {
		claim = "⚑ "
	}
	return fmt.Sprintf("%s%s  %s  %s  %s  %s",
		claim,
		priorityStyle(in.Priority).Render(fmt.Sprintf("%-7s", priorityLabel(in.Priority))),
		statusStyle(in.Status).Render(fmt.Sprintf("%-10s", statusLabel(in.Status))),
		truncate(in.Title, 40),
		mutedStyle.Render(truncate(m.dash.BuildingName(in.BuildingID), 20)),
		mutedStyle.Render(due))
}

func (m *appModel) viewKanban() string {
	board := m.dash.Board()
	colW := m.width/3 - 2
	if colW < 20 {
		colW = 20
	}
	var cols []string
	for ci, st := range model.KnownStatuses() {
		var b strings.Builder
		head := statusStyle(st).Render(statusLabel(st))
		if ci == m.kanbanCol {
			head = headerStyle.Render("[" + statusLabel(st) + "]")
		}
		b.WriteString(head)
		b.WriteString("\n")
		for ri, in := range board.Columns[st] {
			line := truncate(priorityLabel(in.Priority)+" · "+in.Title, colW)
			if ci == m.kanbanCol && ri == m.cursor {
				line = selectedStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		cols = append(cols, lipgloss.NewStyle().Width(colW).Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m *appModel) viewAgenda() string {
	now := time.Now()
	upcoming := m.dash.Upcoming(now)
	var b strings.Builder
	b.WriteString(headerStyle.Render("Próximos 7 días") + "\n")
	if len(upcoming) == 0 {
		b.WriteString(mutedStyle.Render("Nada programado.") + "\n")
	}
	for i, in := range upcoming {
		line := fmt.Sprintf("%s  %s  %s",
			mutedStyle.Render(in.DueDate),
			priorityStyle(in.Priority).Render(fmt.Sprintf("%-7s", priorityLabel(in.Priority))),
			truncate(in.Title, 50))
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	buckets := m.dash.Calendar()
	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)
	b.WriteString("\n" + headerStyle.Render("Calendario") + "\n")
	if len(days) == 0 {
		b.WriteString(mutedStyle.Render("Sin fechas límite pendientes.") + "\n")
	}
	for _, day := range days {
		var titles []string
		for _, in := range buckets[day] {
			titles = append(titles, in.Title)
		}
		b.WriteString(fmt.Sprintf("%s (%d)  %s\n",
			day, len(buckets[day]), mutedStyle.Render(truncate(strings.Join(titles, " · "), 60))))
	}
	return b.String()
}

func (m *appModel) viewDetail(det *session.Detail) string {
	in := det.Incident
	var b strings.Builder
	b.WriteString(headerStyle.Render(in.Title))
	b.WriteString("\n")
	b.WriteString(statusStyle(in.Status).Render(statusLabel(in.Status)))
	b.WriteString(mutedStyle.Render(" · "))
	b.WriteString(priorityStyle(in.Priority).Render(priorityLabel(in.Priority)))
	if in.IsClaim {
		b.WriteString(mutedStyle.Render(" · "))
		b.WriteString(errorStyle.Render("Siniestro " + in.ClaimRef))
	}
	b.WriteString("\n")
	if in.BuildingID != "" {
		b.WriteString(mutedStyle.Render("Edificio: ") + m.dash.BuildingName(in.BuildingID) + "\n")
	}
	if in.ContractorID != "" {
		b.WriteString(mutedStyle.Render("Reparador: ") + m.dash.ContractorName(in.ContractorID) + "\n")
	}
	if in.DueDate != "" {
		b.WriteString(mutedStyle.Render("Límite: ") + in.DueDate + "\n")
	}
	if in.ClosedAt != nil {
		b.WriteString(mutedStyle.Render("Cerrada: ") + in.ClosedAt.Local().Format("02/01/2006") + "\n")
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		b.WriteString("\n" + desc + "\n")
	}

	b.WriteString("\n" + headerStyle.Render("Checklist") + "\n")
	for i, step := range det.Checklist {
		mark := "☐"
		if det.ChecklistState[step.ID] {
			mark = "☑"
		}
		b.WriteString(fmt.Sprintf("%s %d. %s\n", mark, i+1, step.Label))
	}

	if len(in.Files) > 0 {
		b.WriteString("\n" + headerStyle.Render("Archivos") + "\n")
		for _, f := range in.Files {
			b.WriteString("· " + f.Name + "\n")
		}
	}

	b.WriteString("\n" + headerStyle.Render("Comunicaciones") + "\n")
	if len(det.Communications) == 0 {
		b.WriteString(mutedStyle.Render("(sin comunicaciones)") + "\n")
	}
	for _, c := range det.Communications {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%s · %s · %s",
			c.Author, c.Type, c.CreatedAt.Local().Format("02/01 15:04"))) + "\n")
		b.WriteString(c.Message + "\n")
	}
	return b.String()
}

func (m *appModel) viewToastsOrHelp() string {
	toasts := m.dash.Toasts(time.Now())
	if len(toasts) > 0 {
		var lines []string
		for _, t := range toasts {
			lines = append(lines, toastStyle(t.Level).Render(t.Text))
		}
		return strings.Join(lines, "\n")
	}
	return helpStyle.Render("↑↓ mover · enter detalle · tab vista · f filtrar · F guardar filtro · g chips · n nueva · e editar · 1/2/3 estado · c comunicación · x exportar · p imprimir · q salir")
}

func (m *appModel) viewLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Incidencias · acceso") + "\n\n")
	b.WriteString("Email:       " + m.emailInput.View() + "\n")
	b.WriteString("Contraseña:  " + m.passInput.View() + "\n\n")
	if m.loginErr != "" {
		b.WriteString(errorStyle.Render(m.loginErr) + "\n\n")
	}
	b.WriteString(helpStyle.Render("enter entra · tab cambia de campo · esc sale"))
	return b.String()
}

func (m *appModel) viewFilterForm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Filtrar incidencias") + "\n\n")
	for i, in := range m.filterForm.inputs {
		b.WriteString(fmt.Sprintf("%-11s %s\n", m.filterForm.labels[i]+":", in.View()))
	}
	claims := "no"
	if m.filterForm.claims {
		claims = "sí"
	}
	b.WriteString(fmt.Sprintf("%-11s %s\n\n", "Siniestros:", claims))
	b.WriteString(helpStyle.Render("enter aplica · ctrl+t siniestros · esc cancela"))
	return b.String()
}

func (m *appModel) viewIncidentForm() string {
	var b strings.Builder
	title := "Nueva incidencia"
	if !m.form.isNew {
		title = "Editar incidencia"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")
	for i, in := range m.form.inputs {
		b.WriteString(fmt.Sprintf("%-14s %s\n", m.form.labels[i]+":", in.View()))
	}
	claim := "no"
	if m.form.claim {
		claim = "sí"
	}
	b.WriteString(fmt.Sprintf("%-14s %s\n", "Siniestro:", claim))
	if m.form.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.form.errMsg) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("ctrl+s guarda · ctrl+t siniestro · tab siguiente · esc cancela"))
	return b.String()
}

// truncate is display-width aware, so wide runes and escape sequences in
// titles do not break column alignment.
func truncate(s string, max int) string {
	if max <= 1 {
		return s
	}
	if ansi.StringWidth(s) <= max {
		return s
	}
	return ansi.Truncate(s, max-1, "…")
}
