package cmd

import (
	"fmt"

	"github.com/questforge/questforge/models"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your tasks",
	RunE:  runList,
}

var listStatus string

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (active, completed, failed, canceled, paused)")
}

func runList(cmd *cobra.Command, args []string) error {
	owner, err := currentUser()
	if err != nil {
		return err
	}
	svc, store, err := getService()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tasks, err := svc.ListTasks(owner, models.TaskStatus(listStatus))
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println(styleSubtle.Render("no tasks"))
		return nil
	}

	for _, t := range tasks {
		marker := statusMarker(t.Status)
		line := fmt.Sprintf("%s %s", marker, t.Title)
		if t.IsMaster() {
			line += styleSubtle.Render(fmt.Sprintf("  (every %d %s)", t.Recurrence.Every, t.Recurrence.Unit))
		} else if t.DueAt != nil {
			line += styleSubtle.Render("  due " + t.DueAt.Format("2006-01-02 15:04"))
		}
		line += styleSubtle.Render("  " + t.ID)
		fmt.Println(line)
	}
	return nil
}

func statusMarker(s models.TaskStatus) string {
	switch s {
	case models.StatusCompleted:
		return styleSuccess.Render("✓")
	case models.StatusFailed:
		return styleError.Render("✗")
	case models.StatusCanceled:
		return styleSubtle.Render("–")
	case models.StatusPaused:
		return styleWarning.Render("‖")
	default:
		return stylePrimary.Render("•")
	}
}
