package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/questforge/questforge/internal/engine"
	"github.com/questforge/questforge/models"
	"github.com/spf13/cobra"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a new task",
	Long: `Add a new task. Difficulty and importance decide the XP reward when the
task is completed; a recurrence flag turns the task into a repeating template
whose timed instances are materialized by 'questforge expand'.

Examples:
  questforge add "Morning run" --difficulty easy --due 2026-09-02T07:00:00Z
  questforge add "Weekly review" --recur week --every 1 --difficulty hard
  questforge add "File taxes" --difficulty very_hard --importance special`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addDescription string
	addCategory    string
	addDifficulty  string
	addImportance  string
	addDue         string
	addRecur       string
	addEvery       int
	addRecurEnd    string
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addDescription, "description", "", "task description")
	addCmd.Flags().StringVar(&addCategory, "category", "", "category reference")
	addCmd.Flags().StringVar(&addDifficulty, "difficulty", "easy", "very_easy, easy, hard or very_hard")
	addCmd.Flags().StringVar(&addImportance, "importance", "normal", "normal, important, very_important or special")
	addCmd.Flags().StringVar(&addDue, "due", "", "due time (RFC3339)")
	addCmd.Flags().StringVar(&addRecur, "recur", "", "recurrence unit: day, week or month")
	addCmd.Flags().IntVar(&addEvery, "every", 1, "recurrence interval count")
	addCmd.Flags().StringVar(&addRecurEnd, "until", "", "recurrence end time (RFC3339)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	owner, err := currentUser()
	if err != nil {
		return err
	}
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	params := engine.CreateTaskParams{
		OwnerID:     owner,
		Title:       title,
		Description: addDescription,
		Category:    addCategory,
		Difficulty:  models.Difficulty(addDifficulty),
		Importance:  models.Importance(addImportance),
	}
	if addDue != "" {
		due, err := time.Parse(time.RFC3339, addDue)
		if err != nil {
			return fmt.Errorf("parse --due: %w", err)
		}
		params.DueAt = &due
	}
	if addRecur != "" {
		start := time.Now().UTC()
		if params.DueAt != nil {
			start = *params.DueAt
		}
		rec := &models.Recurrence{
			Unit:  models.RecurrenceUnit(addRecur),
			Every: addEvery,
			Start: start,
		}
		if addRecurEnd != "" {
			end, err := time.Parse(time.RFC3339, addRecurEnd)
			if err != nil {
				return fmt.Errorf("parse --until: %w", err)
			}
			rec.End = end
		}
		params.Recurrence = rec
	}

	svc, store, err := getService()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	t, err := svc.CreateTask(params)
	if err != nil {
		return err
	}

	kind := "task"
	if t.IsMaster() {
		kind = "recurring template"
	}
	fmt.Printf("%s %s %s (id %s)\n", styleSuccess.Render("✓"), kind, styleTitle.Render(t.Title), styleSubtle.Render(t.ID))
	return nil
}
