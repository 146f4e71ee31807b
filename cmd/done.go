package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// doneCmd represents the done command
var doneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Complete a task and collect the reward",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

func init() {
	rootCmd.AddCommand(doneCmd)
}

func runDone(cmd *cobra.Command, args []string) error {
	svc, store, err := getService()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	res, err := svc.Complete(args[0], time.Now().UTC())
	if err != nil {
		return err
	}

	fmt.Printf("%s %s  %s\n",
		styleSuccess.Render("✓"),
		styleTitle.Render(res.Task.Title),
		stylePrimary.Render(fmt.Sprintf("+%d XP", res.XPAwarded)))
	fmt.Printf("  streak: %d day(s)\n", res.Streak)
	for _, up := range res.LevelUps {
		fmt.Printf("  %s level %d → %d (+%d PP)\n",
			styleWarning.Render("⬆"), up.OldLevel, up.NewLevel, up.PPGained)
	}
	return nil
}
