package tui

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"incidencias-cli/internal/filter"
	"incidencias-cli/internal/model"
	"incidencias-cli/internal/mutate"
)

var filterZero = filter.Criteria{}

func normalizeCriteria(raw map[string]any) filter.Criteria {
	return filter.Normalize(raw)
}

func rawEqual(a, b map[string]any) bool {
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return string(ab) == string(bb)
}

// filterForm edits the board criteria field by field.
type filterForm struct {
	inputs []textinput.Model
	labels []string
	focus  int
	claims bool
}

const (
	ffSearch = iota
	ffStatus
	ffPriority
	ffBuilding
	ffContractor
	ffTags
	ffFrom
	ffTo
	ffCount
)

func newFilterForm() filterForm {
	labels := []string{
		"Búsqueda", "Estado", "Prioridad", "Edificio", "Reparador",
		"Etiquetas", "Desde", "Hasta",
	}
	placeholders := []string{
		"texto o referencia", "abierta|en_proceso|cerrada", "baja|media|alta|critica",
		"id de edificio", "id de reparador", "tejado, humedades", "YYYY-MM-DD", "YYYY-MM-DD",
	}
	f := filterForm{labels: labels}
	for i := 0; i < ffCount; i++ {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		f.inputs = append(f.inputs, in)
	}
	return f
}

func (f *filterForm) load(c filter.Criteria) {
	f.inputs[ffSearch].SetValue(c.Search)
	f.inputs[ffStatus].SetValue(string(c.Status))
	f.inputs[ffPriority].SetValue(string(c.Priority))
	f.inputs[ffBuilding].SetValue(c.BuildingID)
	f.inputs[ffContractor].SetValue(c.ContractorID)
	f.inputs[ffTags].SetValue(strings.Join(c.Tags, ", "))
	f.inputs[ffFrom].SetValue(c.From)
	f.inputs[ffTo].SetValue(c.To)
	f.claims = c.ClaimsOnly
	f.setFocus(0)
}

func (f *filterForm) criteria() filter.Criteria {
	return filter.Criteria{
		Search:       strings.TrimSpace(f.inputs[ffSearch].Value()),
		Status:       model.Status(strings.TrimSpace(f.inputs[ffStatus].Value())),
		Priority:     model.Priority(strings.TrimSpace(f.inputs[ffPriority].Value())),
		BuildingID:   strings.TrimSpace(f.inputs[ffBuilding].Value()),
		ContractorID: strings.TrimSpace(f.inputs[ffContractor].Value()),
		Tags:         filter.ParseTags(f.inputs[ffTags].Value()),
		From:         strings.TrimSpace(f.inputs[ffFrom].Value()),
		To:           strings.TrimSpace(f.inputs[ffTo].Value()),
		ClaimsOnly:   f.claims,
	}
}

func (f *filterForm) setFocus(i int) {
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (m *appModel) updateFilterForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBoard
		return m, nil
	case "tab", "down":
		m.filterForm.setFocus(m.filterForm.focus + 1)
		return m, textinput.Blink
	case "shift+tab", "up":
		m.filterForm.setFocus(m.filterForm.focus - 1)
		return m, textinput.Blink
	case "ctrl+t":
		m.filterForm.claims = !m.filterForm.claims
		return m, nil
	case "enter":
		m.dash.Criteria = m.filterForm.criteria()
		m.mode = modeBoard
		m.cursor = 0
		m.clampCursor()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterForm.inputs[m.filterForm.focus], cmd = m.filterForm.inputs[m.filterForm.focus].Update(msg)
	return m, cmd
}

// incidentForm creates or edits one incident.
type incidentForm struct {
	base   model.Incident
	isNew  bool
	inputs []textinput.Model
	labels []string
	focus  int
	claim  bool
	errMsg string
}

const (
	ifTitle = iota
	ifDescription
	ifPriority
	ifBuilding
	ifContractor
	ifTags
	ifDue
	ifPolicy
	ifClaimRef
	ifCount
)

// newIncidentForm builds the editor. defaultPolicy resolves a building id
// to its default policy so a claim with no explicit policy shows the policy
// it will inherit instead of a blank field.
func newIncidentForm(base model.Incident, isNew bool, defaultPolicy func(string) string) incidentForm {
	labels := []string{
		"Título", "Descripción", "Prioridad", "Edificio", "Reparador",
		"Etiquetas", "Fecha límite", "Póliza", "Ref. siniestro",
	}
	f := incidentForm{base: base, isNew: isNew, labels: labels, claim: base.IsClaim}
	for i := 0; i < ifCount; i++ {
		in := textinput.New()
		f.inputs = append(f.inputs, in)
	}
	if f.claim && strings.TrimSpace(base.PolicyID) == "" && defaultPolicy != nil {
		base.PolicyID = defaultPolicy(base.BuildingID)
	}
	f.inputs[ifTitle].SetValue(base.Title)
	f.inputs[ifDescription].SetValue(base.Description)
	f.inputs[ifDescription].CharLimit = 2000
	f.inputs[ifPriority].SetValue(string(base.Priority))
	f.inputs[ifPriority].Placeholder = "baja|media|alta|critica"
	f.inputs[ifBuilding].SetValue(base.BuildingID)
	f.inputs[ifContractor].SetValue(base.ContractorID)
	f.inputs[ifTags].SetValue(strings.Join(base.Tags, ", "))
	f.inputs[ifDue].SetValue(base.DueDate)
	f.inputs[ifDue].Placeholder = "YYYY-MM-DD"
	f.inputs[ifPolicy].SetValue(base.PolicyID)
	f.inputs[ifClaimRef].SetValue(base.ClaimRef)
	f.setFocus(0)
	return f
}

func (f *incidentForm) setFocus(i int) {
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *incidentForm) incident() model.Incident {
	in := f.base
	in.Title = strings.TrimSpace(f.inputs[ifTitle].Value())
	in.Description = strings.TrimSpace(f.inputs[ifDescription].Value())
	in.Priority = model.Priority(strings.TrimSpace(f.inputs[ifPriority].Value()))
	in.BuildingID = strings.TrimSpace(f.inputs[ifBuilding].Value())
	in.ContractorID = strings.TrimSpace(f.inputs[ifContractor].Value())
	in.Tags = filter.ParseTags(f.inputs[ifTags].Value())
	in.DueDate = strings.TrimSpace(f.inputs[ifDue].Value())
	in.IsClaim = f.claim
	in.PolicyID = strings.TrimSpace(f.inputs[ifPolicy].Value())
	in.ClaimRef = strings.TrimSpace(f.inputs[ifClaimRef].Value())
	return in
}

func (m *appModel) updateIncidentForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBoard
		return m, nil
	case "tab", "down":
		m.form.setFocus(m.form.focus + 1)
		return m, textinput.Blink
	case "shift+tab", "up":
		m.form.setFocus(m.form.focus - 1)
		return m, textinput.Blink
	case "ctrl+t":
		m.form.claim = !m.form.claim
		if m.form.claim && strings.TrimSpace(m.form.inputs[ifPolicy].Value()) == "" {
			building := strings.TrimSpace(m.form.inputs[ifBuilding].Value())
			m.form.inputs[ifPolicy].SetValue(m.defaultPolicyFor(building))
		}
		return m, nil
	case "ctrl+s", "enter":
		if msg.String() == "enter" && m.form.focus != len(m.form.inputs)-1 {
			m.form.setFocus(m.form.focus + 1)
			return m, textinput.Blink
		}
		in := m.form.incident()
		// Validate on the loop so the form can show the message in place.
		if err := mutate.ValidateIncident(in, m.form.isNew, time.Now()); err != nil {
			m.form.errMsg = err.Error()
			return m, nil
		}
		isNew := m.form.isNew
		buildings := m.dash.Buildings
		m.mode = modeBoard
		okText := "Incidencia actualizada"
		if isNew {
			okText = "Incidencia creada"
		}
		return m, m.runOp(okText, func(ctx context.Context) error {
			var err error
			if isNew {
				_, err = mutate.CreateIncident(ctx, m.be, in, buildings, time.Now())
			} else {
				_, err = mutate.EditIncident(ctx, m.be, in, buildings, time.Now())
			}
			return err
		})
	}
	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}
