package tui

import (
	"context"
	"fmt"
	"image/color"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/evanschultz/taskboard/internal/domain"
	"github.com/evanschultz/taskboard/internal/reorder"
)

// Service is the board surface the model drives.
type Service interface {
	Snapshot() reorder.State
	Dispatch(context.Context, reorder.Event) (reorder.State, bool, error)
	ListActivity(context.Context, int) ([]domain.ChangeEvent, error)
	ItemActivity(context.Context, domain.ItemType, string, int) ([]domain.ChangeEvent, error)
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeEditTask
	modeRenameColumn
	modeTaskInfo
	modeConfirmDeleteColumn
	modeActivityLog
)

// task-form field indexes.
const (
	taskFieldTitle = iota
	taskFieldDescription
)

// activity log limits used by modal rendering and retention.
const (
	activityLogMaxItems   = 200
	activityLogViewWindow = 14
	taskHistoryLimit      = 5
)

// activityEntry describes one recorded change for the activity log modal.
type activityEntry struct {
	At      time.Time
	Summary string
	Target  string
}

// Model represents model data used by this package.
type Model struct {
	svc   Service
	title string

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	state          reorder.State
	selectedColumn int
	selectedTask   int

	mode          inputMode
	formInputs    []textinput.Model
	formFocus     int
	editingTaskID string
	renameInput   textinput.Model
	renameColumn  string
	infoTaskID    string
	infoHistory   []activityEntry
	confirmColumn string

	// dragging is set between a press on a card and the matching release.
	dragging     bool
	dragActiveID string
	dragOver     dropTarget
	dragHasOver  bool
	dragOverID   string

	activityLog   []activityEntry
	activityLimit int

	showDescriptions bool
	markdownWrap     int
	markdown         *markdownRenderer
	writeClipboard   func(string) error
}

// boardLoadedMsg carries the initial board snapshot.
type boardLoadedMsg struct {
	state reorder.State
}

// taskHistoryLoadedMsg carries the recent ledger entries of one task.
type taskHistoryLoadedMsg struct {
	taskID  string
	entries []activityEntry
	err     error
}

// activityLogLoadedMsg carries ledger entries for the activity modal.
type activityLogLoadedMsg struct {
	entries []activityEntry
	err     error
}

// configReloadedMsg carries runtime settings picked up from the config file.
type configReloadedMsg struct {
	config RuntimeConfig
	err    error
}

// clipboardMsg reports the outcome of a copy.
type clipboardMsg struct {
	title string
	err   error
}

// ConfigReloaded wraps a reloaded runtime config, or the error that prevented loading it,
// as a message for a running program.
func ConfigReloaded(cfg RuntimeConfig, err error) tea.Msg {
	return configReloadedMsg{config: cfg, err: err}
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	defaults := DefaultRuntimeConfig()
	m := Model{
		svc:              svc,
		title:            "taskboard",
		status:           "loading...",
		help:             h,
		keys:             newKeyMap(),
		activityLog:      []activityEntry{},
		activityLimit:    activityLogMaxItems,
		showDescriptions: defaults.ShowDescriptions,
		markdownWrap:     defaults.MarkdownWrap,
		markdown:         &markdownRenderer{},
		writeClipboard:   clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadBoard
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		m.state = msg.state
		m.clampSelections()
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case activityLogLoadedMsg:
		if msg.err != nil {
			if m.mode == modeActivityLog {
				m.status = "activity log unavailable: " + msg.err.Error()
			}
			return m, nil
		}
		m.activityLog = append([]activityEntry(nil), msg.entries...)
		if m.mode == modeActivityLog {
			m.status = "activity log"
		}
		return m, nil

	case taskHistoryLoadedMsg:
		if msg.taskID != m.infoTaskID {
			return m, nil
		}
		if msg.err != nil {
			m.status = "task history unavailable: " + msg.err.Error()
			return m, nil
		}
		m.infoHistory = msg.entries
		return m, nil

	case configReloadedMsg:
		if msg.err != nil {
			m.status = "reload config failed: " + msg.err.Error()
			return m, nil
		}
		m.applyRuntimeConfig(msg.config)
		m.status = "config reloaded"
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "copied " + truncate(msg.title, 40)
		return m, nil

	case tea.KeyPressMsg:
		if m.help.ShowAll {
			return m.handleHelpKey(msg)
		}
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// loadBoard reads the current board snapshot.
func (m Model) loadBoard() tea.Msg {
	return boardLoadedMsg{state: m.svc.Snapshot()}
}

// loadActivityLog loads ledger entries for modal rendering.
func (m Model) loadActivityLog() tea.Msg {
	events, err := m.svc.ListActivity(context.Background(), m.activityLimit)
	if err != nil {
		return activityLogLoadedMsg{err: err}
	}
	return activityLogLoadedMsg{entries: mapChangeEventsToActivityEntries(events)}
}

// loadTaskHistory returns a command reading the ledger entries of one task.
func (m Model) loadTaskHistory(taskID string) tea.Cmd {
	return func() tea.Msg {
		events, err := m.svc.ItemActivity(context.Background(), domain.ItemTypeTask, taskID, taskHistoryLimit)
		if err != nil {
			return taskHistoryLoadedMsg{taskID: taskID, err: err}
		}
		return taskHistoryLoadedMsg{taskID: taskID, entries: mapChangeEventsToActivityEntries(events)}
	}
}

// openActivityLog enters activity-log mode and triggers the ledger fetch.
func (m *Model) openActivityLog() tea.Cmd {
	m.mode = modeActivityLog
	m.status = "activity log"
	return m.loadActivityLog
}

// applyRuntimeConfig applies runtime-updateable settings.
func (m *Model) applyRuntimeConfig(cfg RuntimeConfig) {
	WithRuntimeConfig(cfg)(m)
	m.clampSelections()
}

// dispatch applies one event through the service and adopts the resulting board. Ledger
// failures arrive after the change is applied, so they only surface in the status line.
func (m *Model) dispatch(ev reorder.Event) bool {
	state, changed, err := m.svc.Dispatch(context.Background(), ev)
	m.state = state
	m.clampSelections()
	if err != nil {
		m.status = "error: " + err.Error()
	}
	return changed
}

// handleHelpKey handles keys while the help overlay is open.
func (m Model) handleHelpKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp), msg.String() == "esc":
		m.help.ShowAll = false
	}
	return m, nil
}

// handleNormalModeKey handles board navigation and actions.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = true
		return m, nil
	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.clampSelections()
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(m.state.Board.Columns)-1 {
			m.selectedColumn++
			m.clampSelections()
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selectedTask > 0 {
			m.selectedTask--
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if m.selectedTask < len(m.currentColumnTaskIDs())-1 {
			m.selectedTask++
		}
		return m, nil
	case key.Matches(msg, m.keys.addColumn):
		if m.dispatch(reorder.AddColumn{}) {
			m.selectedColumn = len(m.state.Board.Columns) - 1
			m.selectedTask = 0
			m.status = "column added"
		}
		return m, nil
	case key.Matches(msg, m.keys.addTask):
		column, ok := m.currentColumn()
		if !ok {
			m.status = "add a column first"
			return m, nil
		}
		if m.dispatch(reorder.AddTask{ColumnID: column.ID}) {
			m.selectedTask = len(m.currentColumnTaskIDs()) - 1
			m.status = "task added"
		}
		return m, nil
	case key.Matches(msg, m.keys.editTask):
		task, ok := m.selectedTaskItem()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.startTaskForm(task)
	case key.Matches(msg, m.keys.renameColumn):
		column, ok := m.currentColumn()
		if !ok {
			m.status = "no column selected"
			return m, nil
		}
		return m, m.startRenameColumn(column)
	case key.Matches(msg, m.keys.deleteTask):
		task, ok := m.selectedTaskItem()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		if m.dispatch(reorder.DeleteTask{TaskID: task.ID}) {
			m.status = "deleted " + truncate(task.Title, 40)
		}
		return m, nil
	case key.Matches(msg, m.keys.deleteColumn):
		column, ok := m.currentColumn()
		if !ok {
			m.status = "no column selected"
			return m, nil
		}
		m.mode = modeConfirmDeleteColumn
		m.confirmColumn = column.ID
		return m, nil
	case key.Matches(msg, m.keys.taskInfo):
		task, ok := m.selectedTaskItem()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.mode = modeTaskInfo
		m.infoTaskID = task.ID
		m.infoHistory = nil
		return m, m.loadTaskHistory(task.ID)
	case key.Matches(msg, m.keys.copyTask):
		task, ok := m.selectedTaskItem()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.copyTaskCmd(task)
	case key.Matches(msg, m.keys.activityLog):
		return m, m.openActivityLog()
	default:
		return m, nil
	}
}

// handleInputModeKey handles keys for forms and modals.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeEditTask:
		switch msg.String() {
		case "esc":
			m.closeModal("edit cancelled")
			return m, nil
		case "tab", "down", "shift+tab", "up":
			return m, m.focusTaskFormField((m.formFocus + 1) % len(m.formInputs))
		case "enter":
			return m.submitTaskForm()
		}
		var cmd tea.Cmd
		m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
		return m, cmd

	case modeRenameColumn:
		switch msg.String() {
		case "esc":
			m.closeModal("rename cancelled")
			return m, nil
		case "enter":
			title := strings.TrimSpace(m.renameInput.Value())
			if title == "" {
				m.status = "column title required"
				return m, nil
			}
			columnID := m.renameColumn
			m.closeModal("")
			if m.dispatch(reorder.UpdateColumn{ColumnID: columnID, Title: title}) {
				m.status = "column renamed"
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.renameInput, cmd = m.renameInput.Update(msg)
		return m, cmd

	case modeTaskInfo:
		task, ok := m.state.Board.Tasks[m.infoTaskID]
		if !ok {
			m.closeModal("")
			return m, nil
		}
		switch {
		case msg.String() == "esc", key.Matches(msg, m.keys.taskInfo):
			m.closeModal("")
			return m, nil
		case key.Matches(msg, m.keys.editTask):
			return m, m.startTaskForm(task)
		case key.Matches(msg, m.keys.copyTask):
			return m, m.copyTaskCmd(task)
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		}
		return m, nil

	case modeConfirmDeleteColumn:
		switch msg.String() {
		case "enter", "y":
			columnID := m.confirmColumn
			title := columnTitle(m.state.Board, columnID)
			m.closeModal("")
			if m.dispatch(reorder.DeleteColumn{ColumnID: columnID}) {
				m.status = "deleted column " + truncate(title, 40)
			}
		case "esc", "n":
			m.closeModal("delete cancelled")
		}
		return m, nil

	case modeActivityLog:
		switch {
		case msg.String() == "esc", key.Matches(msg, m.keys.activityLog):
			m.closeModal("")
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		}
		return m, nil

	default:
		m.mode = modeNone
		return m, nil
	}
}

// closeModal returns to normal mode and resets modal state.
func (m *Model) closeModal(status string) {
	m.mode = modeNone
	m.formInputs = nil
	m.formFocus = 0
	m.editingTaskID = ""
	m.renameColumn = ""
	m.infoTaskID = ""
	m.infoHistory = nil
	m.confirmColumn = ""
	if status != "" {
		m.status = status
	}
}

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// startTaskForm opens the title and description form for one task.
func (m *Model) startTaskForm(task domain.Task) tea.Cmd {
	m.mode = modeEditTask
	m.editingTaskID = task.ID
	m.infoTaskID = ""
	m.formInputs = []textinput.Model{
		newModalInput("title: ", "task title", task.Title, 120),
		newModalInput("description: ", "optional details", task.Description, 500),
	}
	m.status = "edit task"
	return m.focusTaskFormField(taskFieldTitle)
}

// focusTaskFormField moves focus to one task form input.
func (m *Model) focusTaskFormField(idx int) tea.Cmd {
	if len(m.formInputs) == 0 {
		return nil
	}
	idx = clamp(idx, 0, len(m.formInputs)-1)
	m.formFocus = idx
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	return m.formInputs[idx].Focus()
}

// submitTaskForm dispatches the fields that changed.
func (m Model) submitTaskForm() (tea.Model, tea.Cmd) {
	task, ok := m.state.Board.Tasks[m.editingTaskID]
	if !ok {
		m.closeModal("task no longer exists")
		return m, nil
	}
	title := strings.TrimSpace(m.formInputs[taskFieldTitle].Value())
	if title == "" {
		m.status = "title required"
		return m, nil
	}
	description := strings.TrimSpace(m.formInputs[taskFieldDescription].Value())

	var patch domain.TaskPatch
	if title != task.Title {
		patch.Title = &title
	}
	if description != task.Description {
		patch.Description = &description
	}
	m.closeModal("")
	if patch.Empty() {
		m.status = "no changes"
		return m, nil
	}
	if m.dispatch(reorder.UpdateTask{TaskID: task.ID, Patch: patch}) {
		m.status = "task updated"
	}
	return m, nil
}

// startRenameColumn opens the rename input for one column.
func (m *Model) startRenameColumn(column domain.Column) tea.Cmd {
	m.mode = modeRenameColumn
	m.renameColumn = column.ID
	m.renameInput = newModalInput("title: ", "column title", column.Title, 80)
	m.status = "rename column"
	return m.renameInput.Focus()
}

// copyTaskCmd copies one task to the clipboard as markdown.
func (m Model) copyTaskCmd(task domain.Task) tea.Cmd {
	write := m.writeClipboard
	text := taskMarkdown(task.Title, task.Description)
	return func() tea.Msg {
		return clipboardMsg{title: task.Title, err: write(text)}
	}
}

// handleMouseClick starts a drag when the press lands on a task card.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone || msg.Button != tea.MouseLeft {
		return m, nil
	}
	target, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.selectedColumn = m.state.Board.ColumnIndex(target.ColumnID)
	m.selectedTask = 0
	if !target.isTask() {
		m.clampSelections()
		return m, nil
	}
	m.focusTask(target.ID)
	m.dispatch(reorder.DragStart{ActiveID: target.ID})
	if m.state.ActiveTaskID != target.ID {
		return m, nil
	}
	m.dragging = true
	m.dragActiveID = target.ID
	m.dragOver = target
	m.dragHasOver = true
	return m, nil
}

// handleMouseMotion sends dragOver whenever the hovered target changes.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !m.dragging {
		return m, nil
	}
	target, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		m.dragHasOver = false
		return m, nil
	}
	if m.dragHasOver && target == m.dragOver {
		return m, nil
	}
	m.dragOver = target
	m.dragHasOver = true
	m.dragOverID = ""
	if target.ID == m.dragActiveID {
		return m, nil
	}
	m.dragOverID = m.hoverID(target)
	m.dispatch(reorder.DragOver{ActiveID: m.dragActiveID, OverID: m.dragOverID})
	m.focusTask(m.dragActiveID)
	return m, nil
}

// hoverID names the dragOver target for a hovered card. The lower half of a card in another
// column targets the card after it, or the column itself below its last card.
func (m Model) hoverID(target dropTarget) string {
	if !target.isTask() || !target.Below {
		return target.ID
	}
	b := m.state.Board
	colIdx := b.ColumnIndex(target.ColumnID)
	if colIdx < 0 || b.ColumnIndexOfTask(m.dragActiveID) == colIdx {
		return target.ID
	}
	ids := b.Columns[colIdx].TaskIDs
	if idx := slices.Index(ids, target.ID); idx >= 0 && idx+1 < len(ids) {
		return ids[idx+1]
	}
	return target.ColumnID
}

// handleMouseRelease ends the gesture with the target under the pointer, if any.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if !m.dragging {
		return m, nil
	}
	overID := ""
	if target, ok := m.hitTest(msg.X, msg.Y); ok {
		overID = target.ID
		// Releasing where the last hover landed repeats that hover's target.
		if m.dragHasOver && target == m.dragOver && m.dragOverID != "" {
			overID = m.dragOverID
		}
	}
	activeID := m.dragActiveID
	m.dragging = false
	m.dragActiveID = ""
	m.dragOver = dropTarget{}
	m.dragHasOver = false
	m.dragOverID = ""
	m.dispatch(reorder.DragEnd{ActiveID: activeID, OverID: overID})
	m.focusTask(activeID)
	if task, ok := m.state.Board.Tasks[activeID]; ok {
		m.status = "dropped " + truncate(task.Title, 40)
	}
	return m, nil
}

// handleMouseWheel moves the task selection.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone || m.dragging {
		return m, nil
	}
	ids := m.currentColumnTaskIDs()
	if len(ids) == 0 {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		if m.selectedTask > 0 {
			m.selectedTask--
		}
	case tea.MouseWheelDown:
		if m.selectedTask < len(ids)-1 {
			m.selectedTask++
		}
	}
	return m, nil
}

// clampSelections clamps selections.
func (m *Model) clampSelections() {
	columns := m.state.Board.Columns
	if len(columns) == 0 {
		m.selectedColumn = 0
		m.selectedTask = 0
		return
	}
	m.selectedColumn = clamp(m.selectedColumn, 0, len(columns)-1)
	m.selectedTask = clamp(m.selectedTask, 0, max(0, len(columns[m.selectedColumn].TaskIDs)-1))
}

// focusTask selects a task wherever it currently sits.
func (m *Model) focusTask(taskID string) {
	colIdx := m.state.Board.ColumnIndexOfTask(taskID)
	if colIdx < 0 {
		return
	}
	m.selectedColumn = colIdx
	m.selectedTask = m.state.Board.Columns[colIdx].IndexOf(taskID)
}

// currentColumn returns the selected column.
func (m Model) currentColumn() (domain.Column, bool) {
	columns := m.state.Board.Columns
	if len(columns) == 0 {
		return domain.Column{}, false
	}
	return columns[clamp(m.selectedColumn, 0, len(columns)-1)], true
}

// currentColumnTaskIDs returns the task order of the selected column.
func (m Model) currentColumnTaskIDs() []string {
	column, ok := m.currentColumn()
	if !ok {
		return nil
	}
	return column.TaskIDs
}

// selectedTaskItem returns the selected task.
func (m Model) selectedTaskItem() (domain.Task, bool) {
	ids := m.currentColumnTaskIDs()
	if len(ids) == 0 {
		return domain.Task{}, false
	}
	task, ok := m.state.Board.Tasks[ids[clamp(m.selectedTask, 0, len(ids)-1)]]
	return task, ok
}

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.renderScreen())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderScreen renders the full screen as one string.
func (m Model) renderScreen() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress q to quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render(m.title)
	header += statusStyle.Render(fmt.Sprintf("  [%s]  rev %d", m.modeLabel(), m.state.Revision))

	board := m.renderBoard(accent, muted, dim)

	status := m.status
	if active, ok := m.state.Board.Tasks[m.state.ActiveTaskID]; ok && m.state.Dragging() {
		status = "dragging: " + active.Title
	}
	sections := []string{header, "", board}
	if strings.TrimSpace(status) != "" && status != "ready" {
		sections = append(sections, statusStyle.Render(status))
	} else {
		sections = append(sections, "")
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine

	overlay := m.renderModeOverlay(accent, muted, m.width-8)
	if m.help.ShowAll {
		overlay = m.renderHelpOverlay(accent, muted, dim, m.width-8)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}
	return fullContent
}

// renderBoard draws every column side by side. Line layout must stay in step with hitTest.
func (m Model) renderBoard(accent, muted, dim color.Color) string {
	columns := m.state.Board.Columns
	if len(columns) == 0 {
		return lipgloss.NewStyle().Foreground(muted).Render("No columns yet. Press c to add one.")
	}

	width := m.columnInnerWidth()
	rows := m.columnContentRows()
	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1)
	selColStyle := baseColStyle.BorderForeground(accent)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedTaskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	draggedTaskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("237")).Bold(true)
	itemSubStyle := lipgloss.NewStyle().Foreground(muted)

	views := make([]string, 0, 2*len(columns))
	for colIdx, column := range columns {
		lines := make([]string, 0, rows)
		lines = append(lines,
			colTitle.Render(padLine(fmt.Sprintf("%s (%d)", column.Title, len(column.TaskIDs)), width)),
			padLine("", width),
		)
		if len(column.TaskIDs) == 0 {
			lines = append(lines, emptyStyle.Render(padLine("(empty)", width)))
		}
		for taskIdx, taskID := range column.TaskIDs {
			task := m.state.Board.Tasks[taskID]
			selected := colIdx == m.selectedColumn && taskIdx == m.selectedTask
			dragged := taskID == m.state.ActiveTaskID

			prefix := "  "
			switch {
			case dragged:
				prefix = "◆ "
			case selected:
				prefix = "│ "
			}
			title := padLine(prefix+task.Title, width)
			switch {
			case dragged:
				title = draggedTaskStyle.Render(title)
			case selected:
				title = selectedTaskStyle.Render(title)
			}
			lines = append(lines, title)
			if m.showDescriptions {
				subPrefix := "  "
				if selected && !dragged {
					subPrefix = "│ "
				}
				lines = append(lines, itemSubStyle.Render(padLine(subPrefix+firstLine(task.Description), width)))
			}
			lines = append(lines, padLine("", width))
		}
		for len(lines) < rows {
			lines = append(lines, padLine("", width))
		}

		style := baseColStyle
		if colIdx == m.selectedColumn {
			style = selColStyle
		}
		if colIdx > 0 {
			views = append(views, strings.Repeat(" ", columnGap))
		}
		views = append(views, style.Render(strings.Join(lines[:rows], "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// renderHelpOverlay renders the expanded key reference.
func (m Model) renderHelpOverlay(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Taskboard Help")
	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Mouse"),
		"press a card and drag it onto another card or column, release to drop",
		"drop on the lower half of a card to land below it",
		"release outside every column to keep the card where it is",
	}
	lines := []string{
		title,
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(muted).Render(strings.Join(workflow, "\n")),
		lipgloss.NewStyle().Foreground(muted).Render("press ? or esc to close"),
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderModeOverlay renders the modal for the current input mode.
func (m Model) renderModeOverlay(accent, muted color.Color, maxWidth int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	switch m.mode {
	case modeEditTask:
		if maxWidth > 0 {
			boxStyle = boxStyle.Width(clamp(maxWidth, 40, 80))
		}
		lines := []string{titleStyle.Render("Edit Task")}
		for _, in := range m.formInputs {
			lines = append(lines, in.View())
		}
		lines = append(lines, hintStyle.Render("tab next field • enter save • esc cancel"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeRenameColumn:
		if maxWidth > 0 {
			boxStyle = boxStyle.Width(clamp(maxWidth, 40, 64))
		}
		return boxStyle.Render(strings.Join([]string{
			titleStyle.Render("Rename Column"),
			m.renameInput.View(),
			hintStyle.Render("enter save • esc cancel"),
		}, "\n"))

	case modeTaskInfo:
		task, ok := m.state.Board.Tasks[m.infoTaskID]
		if !ok {
			return ""
		}
		width := 72
		if maxWidth > 0 {
			width = clamp(maxWidth, 32, 96)
			boxStyle = boxStyle.Width(width)
		}
		wrap := min(m.markdownWrap, width-4)
		body := m.markdown.render(taskMarkdown(task.Title, task.Description), wrap)
		column := "-"
		if idx := m.state.Board.ColumnIndexOfTask(task.ID); idx >= 0 {
			column = m.state.Board.Columns[idx].Title
		}
		lines := []string{
			titleStyle.Render("Task Info"),
			body,
			hintStyle.Render("column: " + column + " • id: " + task.ID),
			hintStyle.Render("created: " + formatActivityTimestamp(task.CreatedAt) + " • updated: " + formatActivityTimestamp(task.UpdatedAt)),
		}
		for idx := len(m.infoHistory) - 1; idx >= 0; idx-- {
			entry := m.infoHistory[idx]
			lines = append(lines, hintStyle.Render(fmt.Sprintf("%s  %s • %s", formatActivityTimestamp(entry.At), entry.Summary, truncate(entry.Target, 36))))
		}
		lines = append(lines, hintStyle.Render("e edit • y copy markdown • esc close"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeConfirmDeleteColumn:
		if maxWidth > 0 {
			boxStyle = boxStyle.Width(clamp(maxWidth, 40, 64))
		}
		title := columnTitle(m.state.Board, m.confirmColumn)
		count := 0
		if idx := m.state.Board.ColumnIndex(m.confirmColumn); idx >= 0 {
			count = len(m.state.Board.Columns[idx].TaskIDs)
		}
		return boxStyle.Render(strings.Join([]string{
			titleStyle.Render("Delete Column"),
			fmt.Sprintf("Delete %q and its %d tasks?", title, count),
			hintStyle.Render("enter/y confirm • esc/n cancel"),
		}, "\n"))

	case modeActivityLog:
		if maxWidth > 0 {
			boxStyle = boxStyle.Width(clamp(maxWidth, 44, 96))
		}
		lines := []string{titleStyle.Render("Activity Log")}
		if len(m.activityLog) == 0 {
			lines = append(lines, hintStyle.Render("(no activity yet)"))
		} else {
			rendered := 0
			for idx := len(m.activityLog) - 1; idx >= 0; idx-- {
				entry := m.activityLog[idx]
				lines = append(lines, fmt.Sprintf("%s  %s • %s", formatActivityTimestamp(entry.At), entry.Summary, truncate(entry.Target, 42)))
				rendered++
				if rendered >= activityLogViewWindow {
					break
				}
			}
		}
		lines = append(lines, hintStyle.Render("esc close"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	default:
		return ""
	}
}

// modeLabel handles mode label.
func (m Model) modeLabel() string {
	if m.dragging {
		return "drag"
	}
	switch m.mode {
	case modeEditTask:
		return "edit-task"
	case modeRenameColumn:
		return "rename-column"
	case modeTaskInfo:
		return "task-info"
	case modeConfirmDeleteColumn:
		return "confirm"
	case modeActivityLog:
		return "activity"
	default:
		return "normal"
	}
}

// mapChangeEventsToActivityEntries converts newest-first ledger events into modal rows.
func mapChangeEventsToActivityEntries(events []domain.ChangeEvent) []activityEntry {
	if len(events) == 0 {
		return []activityEntry{}
	}
	entries := make([]activityEntry, 0, len(events))
	// Ledger events are newest-first; modal rendering expects chronological order.
	for idx := len(events) - 1; idx >= 0; idx-- {
		entries = append(entries, mapChangeEventToActivityEntry(events[idx]))
	}
	if len(entries) > activityLogMaxItems {
		entries = append([]activityEntry(nil), entries[len(entries)-activityLogMaxItems:]...)
	}
	return entries
}

// mapChangeEventToActivityEntry derives a compact activity row from one ledger event.
func mapChangeEventToActivityEntry(event domain.ChangeEvent) activityEntry {
	summary := string(event.Operation) + " " + string(event.ItemType)
	target := strings.TrimSpace(event.Metadata["title"])
	if target == "" {
		target = strings.TrimSpace(event.ItemID)
	}
	if event.Operation == domain.ChangeOperationMove {
		from, to := event.Metadata["from_column_id"], event.Metadata["to_column_id"]
		if from != "" && to != "" && from != to {
			target += " (" + from + " → " + to + ")"
		}
	}
	if target == "" {
		target = "-"
	}
	return activityEntry{
		At:      event.OccurredAt.UTC(),
		Summary: summary,
		Target:  target,
	}
}

// columnTitle returns the title of one column or an empty string.
func columnTitle(b domain.Board, columnID string) string {
	if idx := b.ColumnIndex(columnID); idx >= 0 {
		return b.Columns[idx].Title
	}
	return ""
}

// formatActivityTimestamp formats activity timestamps for compact modal rendering.
func formatActivityTimestamp(at time.Time) string {
	if at.IsZero() {
		return "--:--:--"
	}
	local := at.Local()
	now := time.Now().In(local.Location())
	if local.Year() != now.Year() || local.YearDay() != now.YearDay() {
		return local.Format("01-02 15:04")
	}
	return local.Format("15:04:05")
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
