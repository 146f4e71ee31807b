package cmd

import (
	"fmt"
	"strings"

	"github.com/questforge/questforge/internal/memory"
	"github.com/spf13/cobra"
)

// syncCmd exposes the engine's surface for the remote sync collaborator:
// listing unsynced rows and marking rows pushed. The engine itself never
// talks to the network; gameplay state is correct offline.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Inspect and update sync bookkeeping",
}

var syncEntities = []memory.SyncEntity{
	memory.EntityTasks, memory.EntityCompletions, memory.EntityLedgers,
	memory.EntityStats, memory.EntityMissions, memory.EntityMembers,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Count unsynced rows per entity",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		for _, e := range syncEntities {
			keys, err := store.UnsyncedKeys(e)
			if err != nil {
				return err
			}
			marker := styleSuccess.Render("✓")
			if len(keys) > 0 {
				marker = styleWarning.Render("…")
			}
			fmt.Printf("  %s %-20s %d unsynced\n", marker, e, len(keys))
		}
		return nil
	},
}

var syncMarkCmd = &cobra.Command{
	Use:   "mark <entity> <key>...",
	Short: "Mark one row as pushed upstream",
	Long: `Mark one row as pushed upstream. Composite keys are passed as separate
arguments, e.g.:

  questforge sync mark daily_stats alice 2026-09-01`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		entity := memory.SyncEntity(strings.ToLower(args[0]))
		if err := store.MarkSynced(entity, args[1:]...); err != nil {
			return err
		}
		fmt.Println(styleSuccess.Render("✓") + " marked synced")
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncStatusCmd, syncMarkCmd)
	rootCmd.AddCommand(syncCmd)
}
