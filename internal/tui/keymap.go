package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit         key.Binding
	toggleHelp   key.Binding
	moveLeft     key.Binding
	moveRight    key.Binding
	moveUp       key.Binding
	moveDown     key.Binding
	addTask      key.Binding
	addColumn    key.Binding
	editTask     key.Binding
	renameColumn key.Binding
	deleteTask   key.Binding
	deleteColumn key.Binding
	taskInfo     key.Binding
	copyTask     key.Binding
	activityLog  key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		addTask:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		addColumn:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "new column")),
		editTask:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
		renameColumn: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename column")),
		deleteTask:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		deleteColumn: key.NewBinding(key.WithKeys("X", "shift+x"), key.WithHelp("X", "delete column")),
		taskInfo:     key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "task info")),
		copyTask:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task")),
		activityLog:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "activity log")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.addColumn, k.taskInfo, k.editTask, k.activityLog, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.addColumn, k.taskInfo, k.editTask, k.renameColumn, k.copyTask, k.activityLog, k.toggleHelp, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.deleteTask, k.deleteColumn},
	}
}
