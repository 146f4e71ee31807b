package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show daily completion statistics",
	RunE:  runStats,
}

var statsDays int

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "trailing window length in days")
}

func runStats(cmd *cobra.Command, args []string) error {
	owner, err := currentUser()
	if err != nil {
		return err
	}
	svc, store, err := getService()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	summary, err := svc.StatsLastNDays(owner, statsDays, time.Now().UTC())
	if err != nil {
		return err
	}

	fmt.Println(styleTitle.Render(fmt.Sprintf("Last %d days", statsDays)))
	for _, d := range summary.Days {
		bar := ""
		for i := 0; i < d.TasksCompleted; i++ {
			bar += "▪"
		}
		fmt.Printf("  %s  %2d task(s) %4d XP  %s\n", d.Day, d.TasksCompleted, d.XPEarned, stylePrimary.Render(bar))
	}
	fmt.Printf("total: %d task(s), %d XP", summary.TasksCompleted, summary.XPEarned)
	if summary.BestDay != "" {
		fmt.Printf("  best day: %s (%d XP)", summary.BestDay, summary.BestDayXP)
	}
	fmt.Println()
	return nil
}

// ledgerCmd represents the ledger command
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show your progression ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := currentUser()
		if err != nil {
			return err
		}
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		l, err := svc.Ledger(owner)
		if err != nil {
			return err
		}
		fmt.Println(styleTitle.Render("Progression — " + owner))
		fmt.Printf("  level   %s\n", stylePrimary.Render(fmt.Sprintf("%d", l.Level)))
		fmt.Printf("  xp      %d\n", l.XP)
		fmt.Printf("  pp      %d\n", l.PP)
		fmt.Printf("  coins   %d\n", l.Coins)
		fmt.Printf("  streak  %d (longest %d)\n", l.CurrentStreak, l.LongestStreak)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
}
