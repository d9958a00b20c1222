package tui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/evanschultz/taskboard/internal/app"
	"github.com/evanschultz/taskboard/internal/domain"
)

// memoryLedger records change events in memory, newest first on read.
type memoryLedger struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	err    error
}

func (l *memoryLedger) AppendChangeEvent(_ context.Context, ev domain.ChangeEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev.ID = int64(len(l.events) + 1)
	l.events = append(l.events, ev)
	return nil
}

func (l *memoryLedger) ListChangeEvents(_ context.Context, limit int) ([]domain.ChangeEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	out := slices.Clone(l.events)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *memoryLedger) ListItemChangeEvents(_ context.Context, itemType domain.ItemType, itemID string, limit int) ([]domain.ChangeEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	out := make([]domain.ChangeEvent, 0)
	for idx := len(l.events) - 1; idx >= 0; idx-- {
		ev := l.events[idx]
		if ev.ItemType != itemType || ev.ItemID != itemID {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// newTestService seeds a=[t1,t2] and b=[t3].
func newTestService(t *testing.T, ledger app.ActivityLedger) *app.Service {
	t.Helper()
	now := time.Date(2026, 2, 24, 12, 0, 0, 0, time.UTC)
	board, err := app.BuildBoard([]app.SeedColumn{
		{ID: "a", Title: "Backlog", Tasks: []app.SeedTask{
			{ID: "t1", Title: "One", Description: "first card"},
			{ID: "t2", Title: "Two"},
		}},
		{ID: "b", Title: "Doing", Tasks: []app.SeedTask{{ID: "t3", Title: "Three"}}},
	}, now)
	if err != nil {
		t.Fatalf("BuildBoard() error = %v", err)
	}
	ids := 0
	svc, err := app.NewService(board, ledger, func() string {
		ids++
		return "gen-" + string(rune('0'+ids))
	}, func() time.Time { return now }, app.ServiceConfig{})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

// loadedModel returns a sized model with the board snapshot applied.
func loadedModel(t *testing.T, svc Service, opts ...Option) Model {
	t.Helper()
	m := NewModel(svc, opts...)
	m = applyMsg(t, m, m.Init()())
	return applyMsg(t, m, tea.WindowSizeMsg{Width: 120, Height: 35})
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", updated)
	}
	return out
}

func applyCmdMsg(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", updated)
	}
	return out, cmd
}

func keyPress(s string) tea.KeyPressMsg {
	switch s {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

// cellOf returns the screen cell on the title row of a task card.
func cellOf(m Model, col, task int) (int, int) {
	x := col*(m.columnInnerWidth()+columnChrome+columnGap) + 2
	y := boardTop + 1 + columnHeaderRows + task*m.taskBlockHeight()
	return x, y
}

func columnIDs(m Model, columnID string) []string {
	idx := m.state.Board.ColumnIndex(columnID)
	if idx < 0 {
		return nil
	}
	return m.state.Board.Columns[idx].TaskIDs
}

func drag(t *testing.T, m Model, from, over, release [2]int) Model {
	t.Helper()
	fx, fy := cellOf(m, from[0], from[1])
	m = applyMsg(t, m, tea.MouseClickMsg{X: fx, Y: fy, Button: tea.MouseLeft})
	ox, oy := cellOf(m, over[0], over[1])
	m = applyMsg(t, m, tea.MouseMotionMsg{X: ox, Y: oy, Button: tea.MouseLeft})
	rx, ry := cellOf(m, release[0], release[1])
	return applyMsg(t, m, tea.MouseReleaseMsg{X: rx, Y: ry, Button: tea.MouseLeft})
}

// TestModelLoadsBoard verifies behavior for the covered scenario.
func TestModelLoadsBoard(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil))
	if got := len(m.state.Board.Columns); got != 2 {
		t.Fatalf("expected 2 columns, got %d", got)
	}
	view := ansi.Strip(m.renderScreen())
	for _, want := range []string{"taskboard", "Backlog (2)", "Doing (1)", "One", "first card", "Three"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q, got\n%s", want, view)
		}
	}
}

// TestModelHitTest verifies behavior for the covered scenario.
func TestModelHitTest(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil))

	x, y := cellOf(m, 0, 1)
	target, ok := m.hitTest(x, y)
	if !ok || target.ID != "t2" || target.ColumnID != "a" || target.Below {
		t.Fatalf("unexpected target on t2 title row %#v ok=%t", target, ok)
	}
	target, ok = m.hitTest(x, y+1)
	if !ok || target.ID != "t2" || !target.Below {
		t.Fatalf("expected lower half of t2, got %#v ok=%t", target, ok)
	}

	x, y = cellOf(m, 1, 4)
	target, ok = m.hitTest(x, y)
	if !ok || target.ID != "b" || target.isTask() {
		t.Fatalf("expected empty space in column b, got %#v ok=%t", target, ok)
	}

	if _, ok := m.hitTest(x, 0); ok {
		t.Fatal("expected header row to miss every column")
	}
	if _, ok := m.hitTest(m.columnInnerWidth()+columnChrome, y); ok {
		t.Fatal("expected gap between columns to miss")
	}
	if _, ok := m.hitTest(119, y); ok {
		t.Fatal("expected space right of the last column to miss")
	}
}

// TestModelDragAcrossColumns verifies behavior for the covered scenario.
func TestModelDragAcrossColumns(t *testing.T) {
	svc := newTestService(t, nil)
	m := loadedModel(t, svc)

	fx, fy := cellOf(m, 0, 0)
	m = applyMsg(t, m, tea.MouseClickMsg{X: fx, Y: fy, Button: tea.MouseLeft})
	if !m.dragging || m.state.ActiveTaskID != "t1" {
		t.Fatalf("expected drag of t1 to start, got dragging=%t active=%q", m.dragging, m.state.ActiveTaskID)
	}
	if view := ansi.Strip(m.renderScreen()); !strings.Contains(view, "dragging: One") {
		t.Fatalf("expected drag status in view, got\n%s", view)
	}

	ox, oy := cellOf(m, 1, 0)
	m = applyMsg(t, m, tea.MouseMotionMsg{X: ox, Y: oy, Button: tea.MouseLeft})
	if got := columnIDs(m, "b"); !slices.Equal(got, []string{"t1", "t3"}) {
		t.Fatalf("expected hover to move t1 above t3, got %v", got)
	}

	m = applyMsg(t, m, tea.MouseReleaseMsg{X: ox, Y: oy, Button: tea.MouseLeft})
	if m.dragging || m.state.ActiveTaskID != "" {
		t.Fatalf("expected drag to end, got dragging=%t active=%q", m.dragging, m.state.ActiveTaskID)
	}
	if got := columnIDs(m, "a"); !slices.Equal(got, []string{"t2"}) {
		t.Fatalf("expected a=[t2], got %v", got)
	}
	if got := columnIDs(m, "b"); !slices.Equal(got, []string{"t1", "t3"}) {
		t.Fatalf("expected b=[t1 t3], got %v", got)
	}
	if m.selectedColumn != 1 || m.selectedTask != 0 {
		t.Fatalf("expected selection to follow dropped task, got col=%d task=%d", m.selectedColumn, m.selectedTask)
	}
	if snap := svc.Snapshot(); !slices.Equal(snap.Board.Columns[1].TaskIDs, []string{"t1", "t3"}) {
		t.Fatalf("expected service state to match model, got %v", snap.Board.Columns[1].TaskIDs)
	}
}

// TestModelDragBelowAndOntoEmptySpace verifies behavior for the covered scenario.
func TestModelDragBelowAndOntoEmptySpace(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil))

	fx, fy := cellOf(m, 0, 0)
	m = applyMsg(t, m, tea.MouseClickMsg{X: fx, Y: fy, Button: tea.MouseLeft})
	ox, oy := cellOf(m, 1, 0)
	m = applyMsg(t, m, tea.MouseMotionMsg{X: ox, Y: oy + 1, Button: tea.MouseLeft})
	if got := columnIDs(m, "b"); !slices.Equal(got, []string{"t3", "t1"}) {
		t.Fatalf("expected lower-half hover to insert below t3, got %v", got)
	}
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: 119, Y: 0, Button: tea.MouseLeft})
	if got := columnIDs(m, "b"); !slices.Equal(got, []string{"t3", "t1"}) {
		t.Fatalf("expected release outside to keep hover placement, got %v", got)
	}

	// Drag t2 over the empty tail of column b.
	fx, fy = cellOf(m, 0, 0)
	m = applyMsg(t, m, tea.MouseClickMsg{X: fx, Y: fy, Button: tea.MouseLeft})
	ex, ey := cellOf(m, 1, 5)
	m = applyMsg(t, m, tea.MouseMotionMsg{X: ex, Y: ey, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: ex, Y: ey, Button: tea.MouseLeft})
	if got := columnIDs(m, "b"); !slices.Equal(got, []string{"t3", "t1", "t2"}) {
		t.Fatalf("expected t2 appended to b, got %v", got)
	}
	if got := columnIDs(m, "a"); len(got) != 0 {
		t.Fatalf("expected a to be empty, got %v", got)
	}
}

// TestModelDragLowerHalfTargetsNextCard verifies behavior for the covered scenario.
func TestModelDragLowerHalfTargetsNextCard(t *testing.T) {
	svc := newTestService(t, nil)
	m := loadedModel(t, svc)

	// Move t2 to the tail of b so b=[t3 t2].
	fx, fy := cellOf(m, 0, 1)
	m = applyMsg(t, m, tea.MouseClickMsg{X: fx, Y: fy, Button: tea.MouseLeft})
	ex, ey := cellOf(m, 1, 5)
	m = applyMsg(t, m, tea.MouseMotionMsg{X: ex, Y: ey, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: ex, Y: ey, Button: tea.MouseLeft})
	if got := columnIDs(m, "b"); !slices.Equal(got, []string{"t3", "t2"}) {
		t.Fatalf("expected b=[t3 t2], got %v", got)
	}

	fx, fy = cellOf(m, 0, 0)
	m = applyMsg(t, m, tea.MouseClickMsg{X: fx, Y: fy, Button: tea.MouseLeft})
	ox, oy := cellOf(m, 1, 0)
	m = applyMsg(t, m, tea.MouseMotionMsg{X: ox, Y: oy + 1, Button: tea.MouseLeft})
	if got := columnIDs(m, "b"); !slices.Equal(got, []string{"t3", "t1", "t2"}) {
		t.Fatalf("expected lower half of t3 to insert before t2, got %v", got)
	}
	if m.dragOverID != "t2" {
		t.Fatalf("expected hover to target t2, got %q", m.dragOverID)
	}
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: ox, Y: oy + 1, Button: tea.MouseLeft})
	if got := columnIDs(m, "b"); !slices.Equal(got, []string{"t3", "t1", "t2"}) {
		t.Fatalf("expected release on the hover spot to keep placement, got %v", got)
	}
	if got := svc.Snapshot().Board.Columns[1].TaskIDs; !slices.Equal(got, []string{"t3", "t1", "t2"}) {
		t.Fatalf("expected service b=[t3 t1 t2], got %v", got)
	}
}

// TestModelDragWithinColumn verifies behavior for the covered scenario.
func TestModelDragWithinColumn(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil))

	m = drag(t, m, [2]int{0, 0}, [2]int{0, 1}, [2]int{0, 1})
	if got := columnIDs(m, "a"); !slices.Equal(got, []string{"t2", "t1"}) {
		t.Fatalf("expected a=[t2 t1], got %v", got)
	}

	m = drag(t, m, [2]int{0, 1}, [2]int{0, 0}, [2]int{0, 0})
	if got := columnIDs(m, "a"); !slices.Equal(got, []string{"t1", "t2"}) {
		t.Fatalf("expected a=[t1 t2], got %v", got)
	}
}

// TestModelReleaseOutsideKeepsOrder verifies behavior for the covered scenario.
func TestModelReleaseOutsideKeepsOrder(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil))
	fx, fy := cellOf(m, 0, 1)
	m = applyMsg(t, m, tea.MouseClickMsg{X: fx, Y: fy, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: 119, Y: 34, Button: tea.MouseLeft})
	if got := columnIDs(m, "a"); !slices.Equal(got, []string{"t1", "t2"}) {
		t.Fatalf("expected unchanged order, got %v", got)
	}
	if m.state.Dragging() {
		t.Fatal("expected drag marker to clear")
	}
}

// TestModelMouseIgnoredOutsideDrag verifies behavior for the covered scenario.
func TestModelMouseIgnoredOutsideDrag(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil))

	x, y := cellOf(m, 1, 0)
	m = applyMsg(t, m, tea.MouseMotionMsg{X: x, Y: y})
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: x, Y: y, Button: tea.MouseLeft})
	if m.state.Revision != 0 {
		t.Fatalf("expected no events without a press, got revision %d", m.state.Revision)
	}

	m = applyMsg(t, m, tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseRight})
	if m.dragging {
		t.Fatal("expected right click to leave drag idle")
	}

	m = applyMsg(t, m, keyPress("i"))
	m = applyMsg(t, m, tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseLeft})
	if m.dragging {
		t.Fatal("expected clicks to be ignored while a modal is open")
	}
}

// TestModelKeyboardNavigation verifies behavior for the covered scenario.
func TestModelKeyboardNavigation(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil))
	m = applyMsg(t, m, keyPress("j"))
	if task, _ := m.selectedTaskItem(); task.ID != "t2" {
		t.Fatalf("expected t2 selected, got %q", task.ID)
	}
	m = applyMsg(t, m, keyPress("j"))
	if m.selectedTask != 1 {
		t.Fatalf("expected selection to stop at the last task, got %d", m.selectedTask)
	}
	m = applyMsg(t, m, keyPress("l"))
	if task, _ := m.selectedTaskItem(); task.ID != "t3" {
		t.Fatalf("expected clamp onto t3, got %q", task.ID)
	}
	m = applyMsg(t, m, keyPress("l"))
	if m.selectedColumn != 1 {
		t.Fatalf("expected selection to stop at the last column, got %d", m.selectedColumn)
	}
	m = applyMsg(t, m, tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	if m.selectedTask != 0 {
		t.Fatalf("expected wheel to stay within one task, got %d", m.selectedTask)
	}
}

// TestModelAddAndDeleteItems verifies behavior for the covered scenario.
func TestModelAddAndDeleteItems(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil))

	m = applyMsg(t, m, keyPress("n"))
	if got := columnIDs(m, "a"); len(got) != 3 {
		t.Fatalf("expected a new task in a, got %v", got)
	}
	if m.selectedTask != 2 {
		t.Fatalf("expected new task selected, got %d", m.selectedTask)
	}

	m = applyMsg(t, m, keyPress("c"))
	if got := len(m.state.Board.Columns); got != 3 {
		t.Fatalf("expected 3 columns, got %d", got)
	}
	if m.selectedColumn != 2 {
		t.Fatalf("expected new column selected, got %d", m.selectedColumn)
	}
	m = applyMsg(t, m, keyPress("d"))
	if got := len(m.state.Board.Columns); got != 3 {
		t.Fatalf("expected delete on empty column to be a no-op, got %d columns", got)
	}

	m = applyMsg(t, m, keyPress("h"))
	m = applyMsg(t, m, keyPress("h"))
	m = applyMsg(t, m, keyPress("d"))
	if _, ok := m.state.Board.Tasks["t1"]; ok {
		t.Fatal("expected t1 deleted")
	}
	if !strings.Contains(m.status, "deleted One") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

// TestModelDeleteColumnConfirm verifies behavior for the covered scenario.
func TestModelDeleteColumnConfirm(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil))

	m = applyMsg(t, m, keyPress("X"))
	if m.mode != modeConfirmDeleteColumn {
		t.Fatalf("expected confirm mode, got %v", m.mode)
	}
	if view := ansi.Strip(m.renderScreen()); !strings.Contains(view, "Delete Column") {
		t.Fatalf("expected confirm overlay, got\n%s", view)
	}
	m = applyMsg(t, m, keyPress("n"))
	if m.mode != modeNone || len(m.state.Board.Columns) != 2 {
		t.Fatalf("expected cancel to keep columns, mode=%v columns=%d", m.mode, len(m.state.Board.Columns))
	}

	m = applyMsg(t, m, keyPress("X"))
	m = applyMsg(t, m, keyPress("enter"))
	if len(m.state.Board.Columns) != 1 || m.state.Board.Columns[0].ID != "b" {
		t.Fatalf("expected only column b to remain, got %#v", m.state.Board.Columns)
	}
	for _, id := range []string{"t1", "t2"} {
		if _, ok := m.state.Board.Tasks[id]; ok {
			t.Fatalf("expected %s removed with its column", id)
		}
	}
}

// TestModelEditTaskForm verifies behavior for the covered scenario.
func TestModelEditTaskForm(t *testing.T) {
	svc := newTestService(t, nil)
	m := loadedModel(t, svc)

	m = applyMsg(t, m, keyPress("e"))
	if m.mode != modeEditTask || m.editingTaskID != "t1" {
		t.Fatalf("expected edit mode for t1, got mode=%v task=%q", m.mode, m.editingTaskID)
	}
	if got := m.formInputs[taskFieldTitle].Value(); got != "One" {
		t.Fatalf("expected title prefilled, got %q", got)
	}
	m = applyMsg(t, m, keyPress("tab"))
	if m.formFocus != taskFieldDescription {
		t.Fatalf("expected focus on description, got %d", m.formFocus)
	}
	m.formInputs[taskFieldTitle].SetValue("  Renamed  ")
	m = applyMsg(t, m, keyPress("enter"))
	if m.mode != modeNone {
		t.Fatalf("expected form to close, got %v", m.mode)
	}
	task := svc.Snapshot().Board.Tasks["t1"]
	if task.Title != "Renamed" || task.Description != "first card" {
		t.Fatalf("unexpected task after edit %#v", task)
	}

	m = applyMsg(t, m, keyPress("e"))
	m = applyMsg(t, m, keyPress("enter"))
	if m.status != "no changes" {
		t.Fatalf("expected unchanged form to report no changes, got %q", m.status)
	}

	m = applyMsg(t, m, keyPress("e"))
	m.formInputs[taskFieldTitle].SetValue("   ")
	m = applyMsg(t, m, keyPress("enter"))
	if m.mode != modeEditTask || m.status != "title required" {
		t.Fatalf("expected blank title to be rejected, mode=%v status=%q", m.mode, m.status)
	}
	m = applyMsg(t, m, keyPress("esc"))
	if m.mode != modeNone || m.status != "edit cancelled" {
		t.Fatalf("expected esc to cancel, mode=%v status=%q", m.mode, m.status)
	}
}

// TestModelRenameColumn verifies behavior for the covered scenario.
func TestModelRenameColumn(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil))
	m = applyMsg(t, m, keyPress("l"))
	m = applyMsg(t, m, keyPress("r"))
	if m.mode != modeRenameColumn || m.renameColumn != "b" {
		t.Fatalf("expected rename mode for b, got mode=%v column=%q", m.mode, m.renameColumn)
	}
	m.renameInput.SetValue("Review")
	m = applyMsg(t, m, keyPress("enter"))
	if got := m.state.Board.Columns[1].Title; got != "Review" {
		t.Fatalf("expected renamed column, got %q", got)
	}
	if view := ansi.Strip(m.renderScreen()); !strings.Contains(view, "Review (1)") {
		t.Fatalf("expected renamed column in view, got\n%s", view)
	}
}

// TestModelTaskInfoAndCopy verifies behavior for the covered scenario.
func TestModelTaskInfoAndCopy(t *testing.T) {
	var copied string
	m := loadedModel(t, newTestService(t, nil), WithClipboard(func(text string) error {
		copied = text
		return nil
	}))

	m = applyMsg(t, m, keyPress("i"))
	if m.mode != modeTaskInfo || m.infoTaskID != "t1" {
		t.Fatalf("expected info for t1, got mode=%v task=%q", m.mode, m.infoTaskID)
	}
	if view := ansi.Strip(m.renderScreen()); !strings.Contains(view, "Task Info") {
		t.Fatalf("expected info overlay, got\n%s", view)
	}

	m, cmd := applyCmdMsg(t, m, keyPress("y"))
	if cmd == nil {
		t.Fatal("expected copy command")
	}
	m = applyMsg(t, m, cmd())
	if copied != "## One\n\nfirst card\n" {
		t.Fatalf("unexpected clipboard text %q", copied)
	}
	if m.status != "copied One" {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = applyMsg(t, m, keyPress("esc"))
	if m.mode != modeNone {
		t.Fatalf("expected info to close, got %v", m.mode)
	}
}

// TestModelTaskInfoShowsHistory verifies behavior for the covered scenario.
func TestModelTaskInfoShowsHistory(t *testing.T) {
	ledger := &memoryLedger{}
	svc := newTestService(t, ledger)
	title := "One renamed"
	if _, err := svc.UpdateTask(context.Background(), "t1", domain.TaskPatch{Title: &title}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if _, err := svc.UpdateTask(context.Background(), "t2", domain.TaskPatch{Title: &title}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	m := loadedModel(t, svc)
	m, cmd := applyCmdMsg(t, m, keyPress("i"))
	if cmd == nil {
		t.Fatal("expected task history command")
	}
	m = applyMsg(t, m, cmd())
	if len(m.infoHistory) != 1 {
		t.Fatalf("expected one history entry for t1, got %#v", m.infoHistory)
	}
	if got := m.infoHistory[0]; got.Summary != "update task" || got.Target != "One renamed" {
		t.Fatalf("unexpected history entry %#v", got)
	}
	if view := ansi.Strip(m.renderScreen()); !strings.Contains(view, "update task") {
		t.Fatalf("expected history in info overlay, got\n%s", view)
	}

	stale := taskHistoryLoadedMsg{taskID: "t2", entries: []activityEntry{{Summary: "stale"}}}
	m = applyMsg(t, m, stale)
	if len(m.infoHistory) != 1 || m.infoHistory[0].Summary != "update task" {
		t.Fatalf("expected stale history to be ignored, got %#v", m.infoHistory)
	}

	m = applyMsg(t, m, keyPress("esc"))
	if m.infoHistory != nil {
		t.Fatalf("expected history to reset on close, got %#v", m.infoHistory)
	}
}

// TestModelCopyFailure verifies behavior for the covered scenario.
func TestModelCopyFailure(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil), WithClipboard(func(string) error {
		return errors.New("no clipboard")
	}))
	m, cmd := applyCmdMsg(t, m, keyPress("y"))
	m = applyMsg(t, m, cmd())
	if m.status != "copy failed: no clipboard" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

// TestModelActivityLog verifies behavior for the covered scenario.
func TestModelActivityLog(t *testing.T) {
	ledger := &memoryLedger{}
	m := loadedModel(t, newTestService(t, ledger), WithActivityLimit(10))

	m = drag(t, m, [2]int{0, 0}, [2]int{1, 0}, [2]int{1, 0})
	m = applyMsg(t, m, keyPress("d"))

	m, cmd := applyCmdMsg(t, m, keyPress("a"))
	if m.mode != modeActivityLog || cmd == nil {
		t.Fatalf("expected activity mode and load command, got mode=%v", m.mode)
	}
	m = applyMsg(t, m, cmd())
	if len(m.activityLog) != 2 {
		t.Fatalf("expected 2 entries, got %#v", m.activityLog)
	}
	if got := m.activityLog[0].Summary; got != "move task" {
		t.Fatalf("expected oldest entry first, got %q", got)
	}
	if got := m.activityLog[0].Target; got != "t1 (a → b)" {
		t.Fatalf("unexpected move target %q", got)
	}
	if got := m.activityLog[1].Summary; got != "delete task" {
		t.Fatalf("unexpected second entry %q", got)
	}
	if view := ansi.Strip(m.renderScreen()); !strings.Contains(view, "Activity Log") {
		t.Fatalf("expected activity overlay, got\n%s", view)
	}

	ledger.err = errors.New("disk gone")
	m = applyMsg(t, m, m.loadActivityLog())
	if !strings.Contains(m.status, "activity log unavailable") {
		t.Fatalf("unexpected status %q", m.status)
	}
	if len(m.activityLog) != 2 {
		t.Fatal("expected failed reload to keep previous entries")
	}

	m = applyMsg(t, m, keyPress("a"))
	if m.mode != modeNone {
		t.Fatalf("expected activity key to close the log, got %v", m.mode)
	}
}

// TestMapChangeEventToActivityEntry verifies behavior for the covered scenario.
func TestMapChangeEventToActivityEntry(t *testing.T) {
	at := time.Date(2026, 2, 24, 12, 0, 0, 0, time.UTC)
	entry := mapChangeEventToActivityEntry(domain.ChangeEvent{
		ItemType:   domain.ItemTypeColumn,
		ItemID:     "c1",
		Operation:  domain.ChangeOperationCreate,
		Metadata:   map[string]string{"title": "Review"},
		OccurredAt: at,
	})
	if entry.Summary != "create column" || entry.Target != "Review" || !entry.At.Equal(at) {
		t.Fatalf("unexpected entry %#v", entry)
	}

	entry = mapChangeEventToActivityEntry(domain.ChangeEvent{
		ItemType:  domain.ItemTypeTask,
		ItemID:    "t1",
		Operation: domain.ChangeOperationMove,
		Metadata:  map[string]string{"from_column_id": "a", "to_column_id": "a"},
	})
	if entry.Target != "t1" {
		t.Fatalf("expected same-column move to show only the id, got %q", entry.Target)
	}

	if got := mapChangeEventsToActivityEntries(nil); len(got) != 0 {
		t.Fatalf("expected no entries, got %#v", got)
	}
}

// TestModelConfigReload verifies behavior for the covered scenario.
func TestModelConfigReload(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil))
	if m.taskBlockHeight() != 3 {
		t.Fatalf("expected descriptions shown by default")
	}

	m = applyMsg(t, m, ConfigReloaded(RuntimeConfig{ShowDescriptions: false, MarkdownWrap: 60}, nil))
	if m.showDescriptions || m.markdownWrap != 60 {
		t.Fatalf("expected runtime config applied, got show=%t wrap=%d", m.showDescriptions, m.markdownWrap)
	}
	if m.status != "config reloaded" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if view := ansi.Strip(m.renderScreen()); strings.Contains(view, "first card") {
		t.Fatalf("expected descriptions hidden, got\n%s", view)
	}

	// Geometry follows the new block height.
	m = drag(t, m, [2]int{0, 1}, [2]int{0, 0}, [2]int{0, 0})
	if got := columnIDs(m, "a"); !slices.Equal(got, []string{"t2", "t1"}) {
		t.Fatalf("expected compact drag to reorder, got %v", got)
	}

	m = applyMsg(t, m, ConfigReloaded(RuntimeConfig{}, errors.New("bad toml")))
	if m.status != "reload config failed: bad toml" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if m.showDescriptions {
		t.Fatal("expected failed reload to keep the previous settings")
	}
}

// TestModelHelpOverlay verifies behavior for the covered scenario.
func TestModelHelpOverlay(t *testing.T) {
	m := loadedModel(t, newTestService(t, nil))
	m = applyMsg(t, m, keyPress("?"))
	if !m.help.ShowAll {
		t.Fatal("expected help overlay")
	}
	if view := ansi.Strip(m.renderScreen()); !strings.Contains(view, "Taskboard Help") {
		t.Fatalf("expected help overlay content, got\n%s", view)
	}
	m = applyMsg(t, m, keyPress("n"))
	if len(columnIDs(m, "a")) != 2 {
		t.Fatal("expected keys other than close to be ignored under help")
	}
	m = applyMsg(t, m, keyPress("esc"))
	if m.help.ShowAll {
		t.Fatal("expected esc to close help")
	}
}

// TestModelEmptyBoard verifies behavior for the covered scenario.
func TestModelEmptyBoard(t *testing.T) {
	svc, err := app.NewService(domain.NewBoard(), nil, nil, nil, app.ServiceConfig{DefaultColumnTitle: "Inbox"})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	m := loadedModel(t, svc)
	if view := ansi.Strip(m.renderScreen()); !strings.Contains(view, "No columns yet") {
		t.Fatalf("expected empty-board hint, got\n%s", view)
	}
	m = applyMsg(t, m, keyPress("n"))
	if m.status != "add a column first" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if _, ok := m.hitTest(2, 6); ok {
		t.Fatal("expected hit test to miss on an empty board")
	}
	m = applyMsg(t, m, keyPress("c"))
	if len(m.state.Board.Columns) != 1 || m.state.Board.Columns[0].Title != "Inbox" {
		t.Fatalf("expected configured default column title, got %#v", m.state.Board.Columns)
	}
}

// TestTruncate verifies behavior for the covered scenario.
func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{in: "hello", max: 10, want: "hello"},
		{in: "hello", max: 4, want: "hel…"},
		{in: "hello", max: 1, want: "h"},
		{in: "hello", max: 0, want: ""},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

// TestPadLineAndFirstLine verifies behavior for the covered scenario.
func TestPadLineAndFirstLine(t *testing.T) {
	if got := padLine("ab", 4); got != "ab  " {
		t.Fatalf("padLine() = %q", got)
	}
	if got := padLine("abcdef", 4); got != "abc…" {
		t.Fatalf("padLine() = %q", got)
	}
	if got := firstLine("\n  \n second \nthird"); got != "second" {
		t.Fatalf("firstLine() = %q", got)
	}
}
