package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/autosave/internal/models"
)

// SurfaceDailyPlan поверхность редактирования дневного плана
const SurfaceDailyPlan = "daily-plan"

// errUnknownCommand команда редактора не распознана
var errUnknownCommand = errors.New("unknown command")

// Task пункт дневного плана
type Task struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// DailyPlan снимок формы дневного плана. Движок автосохранения видит его
// только как непрозрачный JSON.
type DailyPlan struct {
	Date  string `json:"date,omitempty"`
	Title string `json:"title"`
	Notes string `json:"notes,omitempty"`
	Tasks []Task `json:"tasks"`
}

// decodePlan распаковывает снимок. Пустой payload дает новый план;
// если id похож на дату, она подставляется в план.
func decodePlan(e models.Entity) (DailyPlan, error) {
	var plan DailyPlan
	if len(e.Payload) == 0 {
		if _, err := time.Parse(time.DateOnly, e.ID); err == nil {
			plan.Date = e.ID
		}
		return plan, nil
	}
	if err := e.Decode(&plan); err != nil {
		return DailyPlan{}, fmt.Errorf("unexpected payload: %w", err)
	}
	return plan, nil
}

func encodePlan(id string, plan DailyPlan) (models.Entity, error) {
	if plan.Tasks == nil {
		plan.Tasks = []Task{}
	}
	return models.NewEntity(id, plan)
}

// applyCommand применяет команду редактирования к плану.
// Возвращает false, если команда не меняет план.
func applyCommand(plan *DailyPlan, command, arg string) (bool, error) {
	switch command {
	case "title":
		if plan.Title == arg {
			return false, nil
		}
		plan.Title = arg
		return true, nil

	case "date":
		if arg != "" {
			if _, err := time.Parse(time.DateOnly, arg); err != nil {
				return false, fmt.Errorf("date must be YYYY-MM-DD")
			}
		}
		if plan.Date == arg {
			return false, nil
		}
		plan.Date = arg
		return true, nil

	case "task":
		if arg == "" {
			return false, fmt.Errorf("task text is required. Usage: task <text>")
		}
		plan.Tasks = append(plan.Tasks, Task{Text: arg})
		return true, nil

	case "done":
		i, err := taskIndex(plan, arg)
		if err != nil {
			return false, err
		}
		plan.Tasks[i].Done = !plan.Tasks[i].Done
		return true, nil

	case "rm":
		i, err := taskIndex(plan, arg)
		if err != nil {
			return false, err
		}
		plan.Tasks = append(plan.Tasks[:i], plan.Tasks[i+1:]...)
		return true, nil

	case "note":
		if plan.Notes == arg {
			return false, nil
		}
		plan.Notes = arg
		return true, nil

	default:
		return false, fmt.Errorf("%w: %s", errUnknownCommand, command)
	}
}

// taskIndex переводит номер пункта (с 1) в индекс
func taskIndex(plan *DailyPlan, arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(plan.Tasks) {
		return 0, fmt.Errorf("no task #%s (plan has %d)", arg, len(plan.Tasks))
	}
	return n - 1, nil
}

// splitCommand делит строку ввода на команду и аргумент
func splitCommand(line string) (string, string) {
	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	return strings.ToLower(command), strings.TrimSpace(arg)
}
