// Package tui is the interactive dashboard: login, the filtered board in
// list or kanban form, the detail pane with checklist and thread, and the
// export actions. Everything runs on bubbletea's single update loop; the
// backend pushes snapshots through a channel drained by a command.
package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"incidencias-cli/internal/backend"
	"incidencias-cli/internal/export"
	"incidencias-cli/internal/model"
	"incidencias-cli/internal/mutate"
	"incidencias-cli/internal/session"
)

type mode int

const (
	modeLogin mode = iota
	modeBoard
	modeFilter
	modeForm
	modeComm
	modeSaveFilter
	modeConfirmDelete
)

type appModel struct {
	be   *backend.Local
	dash *session.Dashboard
	mode mode

	width, height int
	cursor        int
	kanbanCol     int

	snaps     chan backend.Snapshot
	cancelSub func()

	emailInput textinput.Model
	passInput  textinput.Model
	loginFocus int
	loginErr   string

	filterForm filterForm
	form       incidentForm
	commInput  textinput.Model
	nameInput  textinput.Model

	confirmID string

	pendingToggle *mutate.ChecklistToggle
}

// Run starts the dashboard against an opened backend.
func Run(be *backend.Local) error {
	if path := os.Getenv("INCIDENCIAS_DEBUG_LOG"); path != "" {
		f, err := tea.LogToFile(path, "incidencias")
		if err != nil {
			return err
		}
		defer f.Close()
	}
	m := newApp(be)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	if m.cancelSub != nil {
		m.cancelSub()
	}
	return err
}

func newApp(be *backend.Local) *appModel {
	email := textinput.New()
	email.Placeholder = "email"
	email.Focus()
	pass := textinput.New()
	pass.Placeholder = "contraseña"
	pass.EchoMode = textinput.EchoPassword

	comm := textinput.New()
	comm.Placeholder = "mensaje"
	comm.CharLimit = 500

	name := textinput.New()
	name.Placeholder = "nombre del filtro"

	m := &appModel{
		be:         be,
		mode:       modeLogin,
		emailInput: email,
		passInput:  pass,
		commInput:  comm,
		nameInput:  name,
		filterForm: newFilterForm(),
		snaps:      make(chan backend.Snapshot, 8),
	}
	if u, ok := be.CurrentUser(context.Background()); ok {
		m.startSession(u)
	}
	return m
}

func (m *appModel) startSession(u model.User) {
	m.dash = session.NewDashboard(u)
	m.mode = modeBoard
	m.cancelSub = m.be.Subscribe(func(s backend.Snapshot) {
		m.snaps <- s
	})
}

// Messages.

type snapshotMsg backend.Snapshot

type loginMsg struct {
	user model.User
	err  error
}

type catalogsMsg struct {
	buildings   []model.Building
	contractors []model.Contractor
	policies    []model.Policy
	filters     []model.SavedFilter
	err         error
}

type detailMsg struct {
	gen int
	det session.Detail
	err error
}

type opMsg struct {
	text string
	err  error
}

type checklistFailedMsg struct {
	toggle mutate.ChecklistToggle
	err    error
}

type checklistSavedMsg struct{}

type tickMsg time.Time

// Commands.

func (m *appModel) waitSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-m.snaps)
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *appModel) signIn(email, password string) tea.Cmd {
	return func() tea.Msg {
		u, err := m.be.SignIn(context.Background(), email, password)
		return loginMsg{user: u, err: err}
	}
}

func (m *appModel) loadCatalogs() tea.Cmd {
	userID := m.dash.User.ID
	return func() tea.Msg {
		ctx := context.Background()
		var msg catalogsMsg
		var err error
		if msg.buildings, err = m.be.Buildings(ctx); err != nil {
			msg.err = err
			return msg
		}
		if msg.contractors, err = m.be.Contractors(ctx); err != nil {
			msg.err = err
			return msg
		}
		if msg.policies, err = m.be.Policies(ctx); err != nil {
			msg.err = err
			return msg
		}
		msg.filters, msg.err = m.be.SavedFilters(ctx, userID)
		return msg
	}
}

func (m *appModel) fetchDetail(gen int, id string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		ins, err := m.be.Incidents(ctx)
		if err != nil {
			return detailMsg{gen: gen, err: err}
		}
		for _, in := range ins {
			if in.ID != id {
				continue
			}
			comms, err := m.be.Communications(ctx, id)
			if err != nil {
				return detailMsg{gen: gen, err: err}
			}
			return detailMsg{gen: gen, det: session.Detail{Incident: in, Communications: comms}}
		}
		return detailMsg{gen: gen, err: backend.NotFoundError{Kind: "incident", ID: id}}
	}
}

func (m *appModel) runOp(okText string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opMsg{text: okText, err: fn(context.Background())}
	}
}

func (m *appModel) Init() tea.Cmd {
	if m.mode == modeLogin {
		return textinput.Blink
	}
	return tea.Batch(m.waitSnapshot(), m.loadCatalogs(), tick())
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		if m.dash != nil {
			m.dash.Toasts(time.Time(msg))
		}
		return m, tick()

	case snapshotMsg:
		dropped := m.dash.ApplySnapshot(backend.Snapshot(msg))
		if dropped {
			m.dash.Notify(session.ToastInfo, "La incidencia seleccionada ya no existe", time.Now())
		}
		m.clampCursor()
		var cmds []tea.Cmd
		cmds = append(cmds, m.waitSnapshot())
		for _, due := range m.dash.DueReminders(time.Now()) {
			m.dash.Notify(session.ToastInfo,
				fmt.Sprintf("Vence pronto: %s (%s)", due.Title, due.DueDate), time.Now())
		}
		return m, tea.Batch(cmds...)

	case loginMsg:
		if msg.err != nil {
			m.loginErr = session.FriendlyAuthError(msg.err)
			return m, nil
		}
		m.loginErr = ""
		m.startSession(msg.user)
		return m, tea.Batch(m.waitSnapshot(), m.loadCatalogs(), tick())

	case catalogsMsg:
		if msg.err != nil {
			m.dash.Notify(session.ToastError, msg.err.Error(), time.Now())
			return m, nil
		}
		m.dash.Buildings = msg.buildings
		m.dash.Contractors = msg.contractors
		m.dash.Policies = msg.policies
		m.dash.SavedFilters = msg.filters
		return m, nil

	case detailMsg:
		if msg.err != nil {
			m.dash.Notify(session.ToastError, msg.err.Error(), time.Now())
			return m, nil
		}
		m.dash.ResolveDetail(msg.gen, msg.det)
		return m, nil

	case opMsg:
		if msg.err != nil {
			m.dash.Notify(session.ToastError, msg.err.Error(), time.Now())
		} else if msg.text != "" {
			m.dash.Notify(session.ToastSuccess, msg.text, time.Now())
		}
		return m, nil

	case checklistSavedMsg:
		m.pendingToggle = nil
		return m, nil

	case checklistFailedMsg:
		msg.toggle.Rollback(m.dash.Detail())
		m.dash.Notify(session.ToastError, "No se pudo guardar el paso: "+msg.err.Error(), time.Now())
		m.pendingToggle = nil
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeLogin:
		return m.updateLogin(msg)
	case modeFilter:
		return m.updateFilterForm(msg)
	case modeForm:
		return m.updateIncidentForm(msg)
	case modeComm:
		return m.updateComm(msg)
	case modeSaveFilter:
		return m.updateSaveFilter(msg)
	case modeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	return m.updateBoard(msg)
}

func (m *appModel) clampCursor() {
	var n int
	switch m.dash.View {
	case session.ViewKanban:
		cols := m.dash.Board()
		n = len(cols.Columns[model.KnownStatuses()[m.kanbanCol]])
	case session.ViewAgenda:
		n = len(m.dash.Upcoming(time.Now()))
	default:
		n = len(m.dash.Visible())
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// rowUnderCursor resolves the cursor to an incident in the active view.
func (m *appModel) rowUnderCursor() (model.Incident, bool) {
	var rows []model.Incident
	switch m.dash.View {
	case session.ViewKanban:
		rows = m.dash.Board().Columns[model.KnownStatuses()[m.kanbanCol]]
	case session.ViewAgenda:
		rows = m.dash.Upcoming(time.Now())
	default:
		rows = m.dash.Visible()
	}
	if m.cursor >= 0 && m.cursor < len(rows) {
		return rows[m.cursor], true
	}
	return model.Incident{}, false
}

func (m *appModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.loginFocus = 1 - m.loginFocus
		if m.loginFocus == 0 {
			m.emailInput.Focus()
			m.passInput.Blur()
		} else {
			m.passInput.Focus()
			m.emailInput.Blur()
		}
		return m, textinput.Blink
	case "enter":
		return m, m.signIn(m.emailInput.Value(), m.passInput.Value())
	}
	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passInput, cmd = m.passInput.Update(msg)
	}
	return m, cmd
}

func (m *appModel) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		m.cursor++
		m.clampCursor()
		return m, nil
	case "left", "h":
		if m.dash.View == session.ViewKanban && m.kanbanCol > 0 {
			m.kanbanCol--
			m.clampCursor()
		}
		return m, nil
	case "right", "l":
		if m.dash.View == session.ViewKanban && m.kanbanCol < 2 {
			m.kanbanCol++
			m.clampCursor()
		}
		return m, nil

	case "tab":
		switch m.dash.View {
		case session.ViewList:
			m.dash.View = session.ViewKanban
		case session.ViewKanban:
			m.dash.View = session.ViewAgenda
		default:
			m.dash.View = session.ViewList
		}
		m.clampCursor()
		return m, nil

	case "enter":
		in, ok := m.rowUnderCursor()
		if !ok {
			return m, nil
		}
		gen, fetch := m.dash.Select(in.ID)
		if !fetch {
			return m, nil
		}
		return m, m.fetchDetail(gen, in.ID)
	case "esc":
		m.dash.ClearSelection()
		return m, nil

	case "n":
		m.form = newIncidentForm(model.Incident{}, true, m.defaultPolicyFor)
		m.mode = modeForm
		return m, textinput.Blink
	case "e":
		in, ok := m.selectedOrCursor()
		if !ok {
			return m, nil
		}
		m.form = newIncidentForm(in, false, m.defaultPolicyFor)
		m.mode = modeForm
		return m, textinput.Blink
	case "d":
		in, ok := m.selectedOrCursor()
		if !ok {
			return m, nil
		}
		m.confirmID = in.ID
		m.mode = modeConfirmDelete
		return m, nil

	case "1", "2", "3":
		// Kanban-style move: set the workflow state directly.
		in, ok := m.selectedOrCursor()
		if !ok {
			return m, nil
		}
		st := model.KnownStatuses()[int(msg.String()[0]-'1')]
		return m, m.runOp("Estado actualizado", func(ctx context.Context) error {
			return mutate.SetStatus(ctx, m.be, in.ID, st)
		})

	case "c":
		if m.dash.Detail() == nil {
			return m, nil
		}
		m.commInput.SetValue("")
		m.commInput.Focus()
		m.mode = modeComm
		return m, textinput.Blink

	case "!", "\"", "·", "$", "%", "&", "/", "(", ")":
		return m.toggleChecklistAt(checklistIndexForKey(msg.String()))

	case "f":
		m.filterForm.load(m.dash.Criteria)
		m.mode = modeFilter
		return m, textinput.Blink
	case "F":
		if m.dash.Criteria.IsZero() {
			m.dash.Notify(session.ToastError, mutate.ErrFilterEmpty.Error(), time.Now())
			return m, nil
		}
		m.nameInput.SetValue("")
		m.nameInput.Focus()
		m.mode = modeSaveFilter
		return m, textinput.Blink
	case "g":
		m.applyNextSavedFilter()
		return m, nil
	case "G":
		m.dash.Criteria = filterZero
		m.clampCursor()
		return m, nil

	case "x":
		csv := export.CSV(m.dash.Visible())
		name := export.CSVFilename(time.Now())
		return m, m.runOp("Exportado "+name, func(ctx context.Context) error {
			return os.WriteFile(name, []byte(csv), 0o644)
		})
	case "p":
		return m, m.printSheet()
	}
	return m, nil
}

// defaultPolicyFor resolves a building to its default policy id, "" when
// the building is unknown or has none.
func (m *appModel) defaultPolicyFor(buildingID string) string {
	for _, b := range m.dash.Buildings {
		if b.ID == buildingID {
			return b.DefaultPolicyID
		}
	}
	return ""
}

func (m *appModel) selectedOrCursor() (model.Incident, bool) {
	if id := m.dash.Selected(); id != "" {
		if in, ok := m.dash.Incident(id); ok {
			return in, true
		}
	}
	return m.rowUnderCursor()
}

// checklistIndexForKey maps shift+digit (Spanish layout) to a step index.
func checklistIndexForKey(key string) int {
	keys := []string{"!", "\"", "·", "$", "%", "&", "/", "(", ")"}
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

// toggleChecklistAt flips a step optimistically. One write at a time: a
// second toggle while the previous one is in flight would race the rollback.
func (m *appModel) toggleChecklistAt(idx int) (tea.Model, tea.Cmd) {
	det := m.dash.Detail()
	if det == nil || idx < 0 || idx >= len(det.Checklist) || m.pendingToggle != nil {
		return m, nil
	}
	toggle, state := mutate.BeginChecklistToggle(det, det.Checklist[idx].ID)
	m.pendingToggle = &toggle
	id := det.Incident.ID
	return m, func() tea.Msg {
		if err := mutate.PersistChecklist(context.Background(), m.be, id, state); err != nil {
			return checklistFailedMsg{toggle: toggle, err: err}
		}
		return checklistSavedMsg{}
	}
}

func (m *appModel) applyNextSavedFilter() {
	if len(m.dash.SavedFilters) == 0 {
		return
	}
	// Cycle through the chips: current criteria -> next saved filter.
	next := 0
	cur := m.dash.Criteria.Raw()
	for i, sf := range m.dash.SavedFilters {
		if rawEqual(cur, sf.Criteria) {
			next = (i + 1) % len(m.dash.SavedFilters)
			break
		}
	}
	sf := m.dash.SavedFilters[next]
	m.dash.Criteria = normalizeCriteria(sf.Criteria)
	m.clampCursor()
	m.dash.Notify(session.ToastInfo, "Filtro: "+sf.Name, time.Now())
}

func (m *appModel) printSheet() tea.Cmd {
	if det := m.dash.Detail(); det != nil {
		md := export.DetailSheet(det.Incident, det.Communications, m.dash.BuildingName, m.dash.ContractorName)
		return tea.Println(export.RenderSheet(md, m.width))
	}
	md := export.ListSheet(m.dash.Visible(), m.dash.BuildingName, time.Now())
	return tea.Println(export.RenderSheet(md, m.width))
}

func (m *appModel) updateComm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBoard
		return m, nil
	case "enter":
		det := m.dash.Detail()
		if det == nil {
			m.mode = modeBoard
			return m, nil
		}
		text := m.commInput.Value()
		id := det.Incident.ID
		user := m.dash.User
		m.mode = modeBoard
		// Forced reload: the cached thread is stale once the post lands.
		gen, _ := m.dash.Select(id)
		return m, tea.Sequence(
			m.runOp("Comunicación añadida", func(ctx context.Context) error {
				_, err := mutate.PostCommunication(ctx, m.be, id, "nota", text, user)
				return err
			}),
			m.fetchDetail(gen, id),
		)
	}
	var cmd tea.Cmd
	m.commInput, cmd = m.commInput.Update(msg)
	return m, cmd
}

func (m *appModel) updateSaveFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBoard
		return m, nil
	case "enter":
		name := m.nameInput.Value()
		crit := m.dash.Criteria
		user := m.dash.User
		m.mode = modeBoard
		return m, tea.Sequence(
			m.runOp("Filtro guardado", func(ctx context.Context) error {
				_, err := mutate.SaveFilter(ctx, m.be, user, name, crit)
				return err
			}),
			m.loadCatalogs(),
		)
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *appModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "s":
		id := m.confirmID
		m.confirmID = ""
		m.mode = modeBoard
		return m, m.runOp("Incidencia eliminada", func(ctx context.Context) error {
			return mutate.DeleteIncident(ctx, m.be, id)
		})
	default:
		m.confirmID = ""
		m.mode = modeBoard
		return m, nil
	}
}
