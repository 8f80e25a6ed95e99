// Package tui is an interactive terminal front end for a todo list.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ImL1s/TodoListDemo-sub002/internal/service"
	internalstrings "github.com/ImL1s/TodoListDemo-sub002/internal/strings"
	"github.com/ImL1s/TodoListDemo-sub002/todo"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

type statusLevel int

const (
	statusNone statusLevel = iota
	statusInfo
	statusError
)

type inputMode int

const (
	inputNone inputMode = iota
	inputAdd
	inputEdit
)

type modalKind int

const (
	modalNone modalKind = iota
	modalHelp
	modalClearCompleted
	modalDelete
)

type model struct {
	ctx         context.Context
	svc         service.Service
	width       int
	height      int
	list        list.Model
	input       textinput.Model
	mode        inputMode
	editID      string
	filter      todo.Filter
	stats       todo.Stats
	modal       confirmModal
	status      string
	statusLevel statusLevel
	selectedID  string
	events      <-chan todo.Event
	eventErrs   <-chan error
}

type confirmModal struct {
	kind        modalKind
	message     string
	confirmText string
	cancelText  string
	selected    int
}

type todosLoadedMsg struct {
	listing service.Listing
	err     error
}

type mutationMsg struct {
	status   string
	selectID string
	err      error
	warning  error
}

type eventMsg struct {
	event todo.Event
}

type eventErrMsg struct {
	err error
}

// Run shows the todo list on the terminal until the user quits or ctx
// ends. Changes made elsewhere appear as they happen.
func Run(ctx context.Context, svc service.Service) error {
	return run(ctx, svc, tea.WithAltScreen())
}

func run(ctx context.Context, svc service.Service, opts ...tea.ProgramOption) error {
	if svc == nil {
		return fmt.Errorf("todo service is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(ctx, svc)
	m.events, m.eventErrs = svc.Events(ctx)
	opts = append(opts, tea.WithContext(ctx))
	_, err := tea.NewProgram(m, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func newModel(ctx context.Context, svc service.Service) model {
	todoList := list.New(nil, todoItemDelegate{}, 0, 0)
	todoList.SetShowTitle(false)
	todoList.SetShowStatusBar(false)
	todoList.SetFilteringEnabled(false)
	todoList.SetShowHelp(false)
	todoList.SetShowPagination(false)

	input := textinput.New()
	input.CharLimit = todo.MaxTextLength
	input.Placeholder = "What needs to be done?"
	input.Cursor.SetMode(cursor.CursorStatic)

	return model{
		ctx:    ctx,
		svc:    svc,
		list:   todoList,
		input:  input,
		filter: todo.FilterAll,
		modal:  confirmModal{kind: modalNone},
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.loadTodosCmd(), m.waitForEventCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case todosLoadedMsg:
		m.handleTodosLoaded(msg)
		return m, nil
	case mutationMsg:
		return m.handleMutation(msg)
	case eventMsg:
		if msg.event.Kind == todo.EventPersistFailed && msg.event.Err != nil {
			m.setStatus(persistenceWarning(msg.event.Err), statusError)
		}
		return m, tea.Batch(m.loadTodosCmd(), m.waitForEventCmd())
	case eventErrMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Live updates stopped: %v", msg.err), statusError)
		}
		return m, nil
	}

	if m.modal.kind != modalNone {
		return m.updateModal(msg)
	}
	if m.mode != inputNone {
		return m.updateInput(msg)
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(key)
	}
	return m, nil
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading todos..."
	}
	if m.modal.kind != modalNone {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.modalView())
	}

	lines := []string{m.renderTitleBar()}
	contentHeight := m.height - 4
	if m.mode != inputNone {
		contentHeight--
	}
	lines = append(lines, m.renderPane(max(contentHeight, 1)))
	if m.mode != inputNone {
		lines = append(lines, m.renderInputLine())
	}
	lines = append(lines, m.renderFooter(), m.renderStatusLine())

	return strings.Join(lines, "\n")
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.modal = confirmModal{kind: modalHelp}
		return m, nil
	case "up", "k":
		return m.moveSelection(-1), nil
	case "down", "j":
		return m.moveSelection(1), nil
	case "home", "g":
		return m.moveSelection(-len(m.list.Items())), nil
	case "end", "G":
		return m.moveSelection(len(m.list.Items())), nil
	case "a", "n":
		return m.startInput(inputAdd, "", ""), nil
	case "e", "enter":
		item, ok := m.currentItem()
		if !ok {
			return m, nil
		}
		return m.startInput(inputEdit, item.todo.ID, item.todo.Text), nil
	case " ", "x":
		return m, m.toggleCmd()
	case "p":
		return m, m.cyclePriorityCmd()
	case "K", "shift+up":
		return m, m.reorderCmd(-1)
	case "J", "shift+down":
		return m, m.reorderCmd(1)
	case "d", "delete":
		return m.promptDelete(), nil
	case "f", "tab":
		return m, m.setFilterCmd(nextFilter(m.filter))
	case "1":
		return m, m.setFilterCmd(todo.FilterAll)
	case "2":
		return m, m.setFilterCmd(todo.FilterActive)
	case "3":
		return m, m.setFilterCmd(todo.FilterCompleted)
	case "A":
		return m, m.toggleAllCmd()
	case "C":
		return m.promptClearCompleted(), nil
	case "r":
		return m, m.loadTodosCmd()
	}
	return m, nil
}

func (m model) startInput(mode inputMode, id, value string) model {
	m.mode = mode
	m.editID = id
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	if mode == inputAdd {
		m.setStatus("", statusNone)
	}
	return m
}

func (m model) stopInput() model {
	m.mode = inputNone
	m.editID = ""
	m.input.Blur()
	m.input.SetValue("")
	return m
}

func (m model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return m.stopInput(), nil
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			return m, m.submitInputCmd()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.modal.kind == modalHelp {
		switch key.String() {
		case "?", "esc", "q":
			m.modal = confirmModal{kind: modalNone}
		}
		return m, nil
	}

	switch key.String() {
	case "left", "h", "right", "l", "tab":
		m.modal.selected = 1 - m.modal.selected
		return m, nil
	case "y":
		return m.resolveModal(true)
	case "n", "esc":
		return m.resolveModal(false)
	case "enter":
		return m.resolveModal(m.modal.selected == 0)
	}
	return m, nil
}

func (m model) resolveModal(confirm bool) (tea.Model, tea.Cmd) {
	kind := m.modal.kind
	m.modal = confirmModal{kind: modalNone}
	if !confirm {
		return m, nil
	}
	switch kind {
	case modalClearCompleted:
		return m, m.clearCompletedCmd()
	case modalDelete:
		return m, m.deleteCmd()
	}
	return m, nil
}

func (m model) promptDelete() model {
	item, ok := m.currentItem()
	if !ok {
		return m
	}
	m.modal = confirmModal{
		kind:        modalDelete,
		message:     fmt.Sprintf("Delete %q?", truncate.StringWithTail(item.todo.Text, 40, "...")),
		confirmText: "Delete",
		cancelText:  "Cancel",
		selected:    1,
	}
	return m
}

func (m model) promptClearCompleted() model {
	if m.stats.Completed == 0 {
		m.setStatus("No completed todos", statusInfo)
		return m
	}
	noun := "todos"
	if m.stats.Completed == 1 {
		noun = "todo"
	}
	m.modal = confirmModal{
		kind:        modalClearCompleted,
		message:     fmt.Sprintf("Remove %d completed %s?", m.stats.Completed, noun),
		confirmText: "Clear",
		cancelText:  "Cancel",
		selected:    1,
	}
	return m
}

func (m *model) handleTodosLoaded(msg todosLoadedMsg) {
	if msg.err != nil {
		m.setStatus(fmt.Sprintf("Load failed: %v", msg.err), statusError)
		return
	}
	m.filter = msg.listing.Filter
	m.stats = msg.listing.Stats

	items := make([]list.Item, 0, len(msg.listing.Todos))
	for _, item := range msg.listing.Todos {
		items = append(items, todoItem{todo: item})
	}
	m.list.SetItems(items)
	if !m.selectByID(m.selectedID) && len(items) > 0 {
		index := min(max(m.list.Index(), 0), len(items)-1)
		m.list.Select(index)
	}
	m.syncSelection()
}

func (m model) handleMutation(msg mutationMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setStatus(msg.err.Error(), statusError)
		return m, nil
	}
	if m.mode != inputNone {
		m = m.stopInput()
	}
	if msg.selectID != "" {
		m.selectedID = msg.selectID
	}
	if msg.warning != nil {
		m.setStatus(persistenceWarning(msg.warning), statusError)
	} else {
		m.setStatus(msg.status, statusInfo)
	}
	return m, m.loadTodosCmd()
}

func persistenceWarning(err error) string {
	return fmt.Sprintf("Changes are kept in memory but could not be saved: %v", err)
}

func (m model) moveSelection(delta int) model {
	count := len(m.list.Items())
	if count == 0 {
		return m
	}
	next := min(max(m.list.Index()+delta, 0), count-1)
	m.list.Select(next)
	m.syncSelection()
	return m
}

func (m *model) syncSelection() {
	item, ok := m.currentItem()
	if !ok {
		m.selectedID = ""
		return
	}
	m.selectedID = item.todo.ID
}

func (m *model) selectByID(id string) bool {
	if id == "" {
		return false
	}
	for i, listItem := range m.list.Items() {
		if item, ok := listItem.(todoItem); ok && item.todo.ID == id {
			m.list.Select(i)
			return true
		}
	}
	return false
}

func (m model) currentItem() (todoItem, bool) {
	item, ok := m.list.SelectedItem().(todoItem)
	return item, ok
}

func (m *model) resize() {
	paneWidth := max(m.width-4, 1)
	m.list.SetSize(paneWidth, max(m.height-6, 1))
	m.input.Width = max(m.width-10, 1)
}

func (m *model) setStatus(text string, level statusLevel) {
	m.status = text
	m.statusLevel = level
}

func (m model) renderTitleBar() string {
	parts := []string{titleStyle.Render("Todos")}
	for _, filter := range todo.ValidFilters() {
		style := filterStyle
		if filter == m.filter {
			style = filterActiveStyle
		}
		parts = append(parts, style.Render(filterLabel(filter)))
	}
	content := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	hint := valueMuted.Render("Press ? for help")
	spacer := strings.Repeat(" ", max(m.width-lipgloss.Width(content)-lipgloss.Width(hint), 1))
	return titleBarStyle.Width(m.width).Render(content + spacer + hint)
}

func filterLabel(filter todo.Filter) string {
	switch filter {
	case todo.FilterActive:
		return "Active"
	case todo.FilterCompleted:
		return "Completed"
	default:
		return "All"
	}
}

func (m model) renderPane(height int) string {
	content := m.list.View()
	if len(m.list.Items()) == 0 {
		content = valueMuted.Render("Nothing to show. Press a to add a todo.")
	}
	return paneStyle.Width(max(m.width-2, 0)).Height(max(height-2, 0)).Render(content)
}

func (m model) renderInputLine() string {
	label := "Add: "
	if m.mode == inputEdit {
		label = "Edit: "
	}
	return labelStyle.Render(label) + m.input.View()
}

func (m model) renderFooter() string {
	text := fmt.Sprintf("%d active · %d completed · %d%% done", m.stats.Active, m.stats.Completed, m.stats.CompletionRate)
	return valueMuted.Render(text)
}

func (m model) renderStatusLine() string {
	if internalstrings.IsBlank(m.status) {
		return ""
	}
	style := valueMuted
	switch m.statusLevel {
	case statusError:
		style = statusErrorStyle
	case statusInfo:
		style = statusSuccessStyle
	}
	return style.Render(truncate.StringWithTail(m.status, uint(max(m.width, 1)), "..."))
}

func (m model) modalView() string {
	if m.modal.kind == modalHelp {
		return modalStyle.Render(helpContent())
	}
	options := []string{m.modal.confirmText, m.modal.cancelText}
	buttons := make([]string, 0, len(options))
	for i, option := range options {
		style := valueMuted
		if i == m.modal.selected {
			style = selectedButton
		}
		buttons = append(buttons, style.Render("["+option+"]"))
	}
	content := strings.Join([]string{m.modal.message, "", strings.Join(buttons, " ")}, "\n")
	return modalStyle.Render(content)
}

func helpContent() string {
	sections := []string{
		labelStyle.Render("Navigation"),
		"up/down or j/k: move selection",
		"g/G: first/last todo",
		"",
		labelStyle.Render("Todos"),
		"a: add todo",
		"e or enter: edit text",
		"space or x: toggle completed",
		"p: cycle priority",
		"J/K: move todo down/up",
		"d: delete todo",
		"",
		labelStyle.Render("List"),
		"f or tab: next filter (1/2/3: all/active/completed)",
		"A: toggle all",
		"C: clear completed",
		"r: reload",
		"",
		"q: quit, ? or esc: close help",
	}
	return strings.Join(sections, "\n")
}

func (m model) loadTodosCmd() tea.Cmd {
	return func() tea.Msg {
		listing, err := m.svc.List(m.ctx, todo.Query{})
		return todosLoadedMsg{listing: listing, err: err}
	}
}

func (m model) waitForEventCmd() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events, errs := m.events, m.eventErrs
	return func() tea.Msg {
		select {
		case event, ok := <-events:
			if !ok {
				return eventErrMsg{err: <-errs}
			}
			return eventMsg{event: event}
		case err := <-errs:
			return eventErrMsg{err: err}
		}
	}
}

// mutate runs fn and reports its outcome together with any persistence
// failure it caused.
func (m model) mutate(fn func() (status, selectID string, err error)) tea.Cmd {
	return func() tea.Msg {
		status, selectID, err := fn()
		if err != nil {
			return mutationMsg{err: err}
		}
		return mutationMsg{status: status, selectID: selectID, warning: m.svc.Flush(m.ctx)}
	}
}

func (m model) submitInputCmd() tea.Cmd {
	text := m.input.Value()
	if m.mode == inputEdit {
		id := m.editID
		return m.mutate(func() (string, string, error) {
			updated, err := m.svc.Edit(m.ctx, id, text)
			if err != nil {
				return "", "", err
			}
			return "Saved", updated.ID, nil
		})
	}
	return m.mutate(func() (string, string, error) {
		created, err := m.svc.Add(m.ctx, text, "")
		if err != nil {
			return "", "", err
		}
		return "Added " + created.ID, created.ID, nil
	})
}

func (m model) toggleCmd() tea.Cmd {
	item, ok := m.currentItem()
	if !ok {
		return nil
	}
	return m.mutate(func() (string, string, error) {
		updated, err := m.svc.Toggle(m.ctx, item.todo.ID)
		if err != nil {
			return "", "", err
		}
		if updated.Completed {
			return "Completed " + updated.ID, updated.ID, nil
		}
		return "Reopened " + updated.ID, updated.ID, nil
	})
}

func (m model) cyclePriorityCmd() tea.Cmd {
	item, ok := m.currentItem()
	if !ok {
		return nil
	}
	priority := nextPriority(item.todo.Priority)
	return m.mutate(func() (string, string, error) {
		updated, err := m.svc.SetPriority(m.ctx, item.todo.ID, priority)
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf("Priority %s", updated.Priority), updated.ID, nil
	})
}

// reorderCmd moves the selected todo past its visible neighbor. The
// neighbor's position in the whole list is the target, so hidden todos
// keep their places.
func (m model) reorderCmd(delta int) tea.Cmd {
	item, ok := m.currentItem()
	if !ok {
		return nil
	}
	items := m.list.Items()
	next := m.list.Index() + delta
	if next < 0 || next >= len(items) {
		return nil
	}
	neighbor, ok := items[next].(todoItem)
	if !ok {
		return nil
	}
	return m.mutate(func() (string, string, error) {
		listing, err := m.svc.List(m.ctx, todo.Query{Filter: todo.FilterAll})
		if err != nil {
			return "", "", err
		}
		target := slices.IndexFunc(listing.Todos, func(t todo.Todo) bool { return t.ID == neighbor.todo.ID })
		if target < 0 {
			return "", "", fmt.Errorf("%w: %s", todo.ErrTodoNotFound, neighbor.todo.ID)
		}
		moved, err := m.svc.Move(m.ctx, item.todo.ID, target)
		if err != nil {
			return "", "", err
		}
		return "Moved " + moved.ID, moved.ID, nil
	})
}

func (m model) deleteCmd() tea.Cmd {
	item, ok := m.currentItem()
	if !ok {
		return nil
	}
	return m.mutate(func() (string, string, error) {
		deleted, err := m.svc.Delete(m.ctx, item.todo.ID)
		if err != nil {
			return "", "", err
		}
		return "Deleted " + deleted.ID, "", nil
	})
}

func (m model) toggleAllCmd() tea.Cmd {
	return m.mutate(func() (string, string, error) {
		completed, err := m.svc.ToggleAll(m.ctx)
		if err != nil {
			return "", "", err
		}
		if completed {
			return "Completed all todos", "", nil
		}
		return "Reopened all todos", "", nil
	})
}

func (m model) clearCompletedCmd() tea.Cmd {
	return m.mutate(func() (string, string, error) {
		removed, err := m.svc.ClearCompleted(m.ctx)
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf("Removed %d completed", removed), "", nil
	})
}

func (m model) setFilterCmd(filter todo.Filter) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.SetFilter(m.ctx, filter); err != nil {
			return mutationMsg{err: err}
		}
		return mutationMsg{status: "Showing " + strings.ToLower(filterLabel(filter))}
	}
}
