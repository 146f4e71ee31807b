package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// Simple status-transition commands share one shape: resolve the service, run
// the guarded transition, print the outcome.

var failCmd = &cobra.Command{
	Use:   "fail <task-id>",
	Short: "Mark a task as failed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := svc.Fail(args[0], time.Now().UTC()); err != nil {
			return err
		}
		fmt.Println(styleWarning.Render("✗") + " task failed")
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Cancel a task (cancels a template's pending instances too)",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		t, err := svc.GetTask(args[0])
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if t.IsMaster() {
			if err := svc.CancelMaster(t.ID, now); err != nil {
				return err
			}
		} else if err := svc.Cancel(t.ID, now); err != nil {
			return err
		}
		fmt.Println(styleSubtle.Render("task canceled"))
		return nil
	},
	Args: cobra.ExactArgs(1),
}

var pauseCmd = &cobra.Command{
	Use:   "pause <task-id>",
	Short: "Pause an active recurring instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := svc.Pause(args[0], time.Now().UTC()); err != nil {
			return err
		}
		fmt.Println(styleSubtle.Render("task paused"))
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <task-id>",
	Short: "Resume a paused task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := svc.Resume(args[0], time.Now().UTC()); err != nil {
			return err
		}
		fmt.Println(styleSuccess.Render("task resumed"))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task (a template's non-completed instances cascade)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		n, err := svc.DeleteTask(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s deleted %d task(s)\n", styleSubtle.Render("·"), n)
		return nil
	},
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Fail active tasks past their due time and grace window",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		n, err := svc.ExpireOverdue(time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Printf("expired %d overdue task(s)\n", n)
		return nil
	},
}

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Materialize upcoming instances of recurring templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		n, err := svc.ExpandAll(time.Now().UTC())
		if err != nil {
			// The materialization cap is informational, not a failure.
			fmt.Println(styleWarning.Render("! ") + err.Error())
		}
		fmt.Printf("materialized %d instance(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(failCmd, cancelCmd, pauseCmd, resumeCmd, deleteCmd, expireCmd, expandCmd)
}
