package model

import "time"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyCritical Difficulty = "critical"
	DifficultyHigh     Difficulty = "high"
	DifficultyMedium   Difficulty = "medium"
	DifficultyLow      Difficulty = "low"
	DifficultyUnknown  Difficulty = "unknown"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyCritical, DifficultyHigh, DifficultyMedium, DifficultyLow, DifficultyUnknown:
		return true
	}
	return false
}

type Status string

const (
	StatusNoExecutor  Status = "no_executor"
	StatusHasExecutor Status = "has_executor"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusCanceled    Status = "canceled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNoExecutor, StatusHasExecutor, StatusInProgress, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

type Task struct {
	ID           string     `json:"task_id"`
	TeamID       string     `json:"team_id"`
	Name         string     `json:"task_name"`
	Text         string     `json:"task_text"`
	AuthorID     string     `json:"author"`
	ExecutorID   *string    `json:"executor,omitempty"`
	LastExecutor *string    `json:"last_executor,omitempty"`
	UpdateAuthor *string    `json:"task_update_author,omitempty"`
	Priority     Priority   `json:"priority"`
	Difficulty   Difficulty `json:"difficulty"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"task_create_date"`
	UpdatedAt    *time.Time `json:"task_update_date,omitempty"`
	Deadline     *time.Time `json:"task_deadline_date,omitempty"`
	FinishedAt   *time.Time `json:"task_finish_date,omitempty"`
	IsCompleted  bool       `json:"is_completed"`
}

// TaskStats counts tasks over a rolling day window: completed within the
// window plus everything still open.
type TaskStats struct {
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
}
