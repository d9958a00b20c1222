package app

import (
	"fmt"
	"time"

	"github.com/evanschultz/taskboard/internal/domain"
)

// SeedColumn describes one column of the initial board.
type SeedColumn struct {
	ID    string
	Title string
	Tasks []SeedTask
}

// SeedTask describes one task of the initial board.
type SeedTask struct {
	ID          string
	Title       string
	Description string
}

// BuildBoard turns seed columns into a validated board whose tasks are stamped with now.
func BuildBoard(columns []SeedColumn, now time.Time) (domain.Board, error) {
	board := domain.NewBoard()
	for _, seedColumn := range columns {
		column, err := domain.NewColumn(seedColumn.ID, seedColumn.Title)
		if err != nil {
			return domain.Board{}, fmt.Errorf("seed column %q: %w", seedColumn.ID, err)
		}
		for _, seedTask := range seedColumn.Tasks {
			task, err := domain.NewTask(seedTask.ID, seedTask.Title, seedTask.Description, now)
			if err != nil {
				return domain.Board{}, fmt.Errorf("seed task %q: %w", seedTask.ID, err)
			}
			if board.HasTask(task.ID) {
				return domain.Board{}, fmt.Errorf("seed task %q: %w", task.ID, domain.ErrDuplicateID)
			}
			board.Tasks[task.ID] = task
			column.TaskIDs = append(column.TaskIDs, task.ID)
		}
		board.Columns = append(board.Columns, column)
	}
	if err := board.Validate(); err != nil {
		return domain.Board{}, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	return board, nil
}
