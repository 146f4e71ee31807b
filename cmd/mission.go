package cmd

import (
	"fmt"
	"time"

	"github.com/questforge/questforge/internal/engine"
	"github.com/questforge/questforge/models"
	"github.com/spf13/cobra"
)

// missionCmd groups the alliance mission subcommands.
var missionCmd = &cobra.Command{
	Use:   "mission",
	Short: "Manage alliance boss missions",
}

var (
	missionBoss   string
	missionHealth int
	missionDays   int
)

var missionCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Start a new mission with yourself as leader",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		leader, err := currentUser()
		if err != nil {
			return err
		}
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		now := time.Now().UTC()
		m, err := svc.CreateMission(engine.CreateMissionParams{
			Title:    args[0],
			BossName: missionBoss,
			Health:   missionHealth,
			StartAt:  now,
			EndAt:    now.AddDate(0, 0, missionDays),
			LeaderID: leader,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s mission %s vs %s (%d HP, %d days) — id %s\n",
			styleSuccess.Render("✓"), styleTitle.Render(m.Title), m.BossName, m.MaxHealth, missionDays, styleSubtle.Render(m.ID))
		return nil
	},
}

var missionJoinCmd = &cobra.Command{
	Use:   "join <mission-id>",
	Short: "Join an existing mission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := currentUser()
		if err != nil {
			return err
		}
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := svc.JoinMission(args[0], user, models.RoleMember); err != nil {
			return err
		}
		fmt.Println(styleSuccess.Render("✓") + " joined mission")
		return nil
	},
}

var missionStatusCmd = &cobra.Command{
	Use:   "status <mission-id>",
	Short: "Show boss health and member contributions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		m, members, err := svc.Mission(args[0])
		if err != nil {
			return err
		}
		fmt.Println(styleTitle.Render(m.Title) + "  " + styleSubtle.Render(string(m.Status)))
		fmt.Printf("  boss %s: %s\n", m.BossName, renderHealth(m.BossHealth, m.MaxHealth))
		for _, mm := range members {
			clean := styleSuccess.Render("clean")
			if !mm.NoFailedTasks {
				clean = styleError.Render("failed a task")
			}
			fmt.Printf("  %-12s %-6s dmg %-6d atk %-4d easy %-3d hard %-3d chat-days %-3d %s\n",
				mm.UserID, mm.Role, mm.DamageDealt, mm.Attacks, mm.EasyCompletions, mm.HardCompletions, mm.ChatDays, clean)
		}
		return nil
	},
}

var (
	attackDifficulty string
	attackImportance string
)

var missionAttackCmd = &cobra.Command{
	Use:   "attack <mission-id>",
	Short: "Record a qualifying contribution against the boss",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := currentUser()
		if err != nil {
			return err
		}
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		difficulty := models.Difficulty(attackDifficulty)
		if !difficulty.Valid() {
			return fmt.Errorf("unknown difficulty %q (very_easy, easy, hard or very_hard)", attackDifficulty)
		}
		importance := models.Importance(attackImportance)
		if !importance.Valid() {
			return fmt.Errorf("unknown importance %q (normal, important, very_important or special)", attackImportance)
		}

		res, err := svc.RecordContribution(args[0], user, difficulty, importance, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Printf("%s dealt %s damage, boss at %d\n",
			styleSuccess.Render("⚔"), stylePrimary.Render(fmt.Sprintf("%d", res.Damage)), res.BossHealth)
		if res.Resolved {
			fmt.Println(styleSuccess.Render("boss defeated!"))
		}
		return nil
	},
}

var missionVisitCmd = &cobra.Command{
	Use:   "visit <mission-id>",
	Short: "Record an in-app shop visit for your membership",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := currentUser()
		if err != nil {
			return err
		}
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := svc.RecordStoreVisit(args[0], user); err != nil {
			return err
		}
		fmt.Println(styleSuccess.Render("✓") + " visit recorded")
		return nil
	},
}

var missionChatCmd = &cobra.Command{
	Use:   "chat <mission-id>",
	Short: "Credit a chat message toward your distinct-day count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := currentUser()
		if err != nil {
			return err
		}
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		first, err := svc.RecordChatMessage(args[0], user, time.Now().UTC())
		if err != nil {
			return err
		}
		if first {
			fmt.Println(styleSuccess.Render("✓") + " first message today, chat-day counted")
		} else {
			fmt.Println(styleSubtle.Render("already counted today"))
		}
		return nil
	},
}

var missionExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire missions whose window has elapsed",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := getService()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		n, err := svc.ExpireMissions(time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Printf("expired %d mission(s)\n", n)
		return nil
	},
}

func renderHealth(cur, max int) string {
	if cur == 0 {
		return styleSuccess.Render("defeated")
	}
	const width = 20
	filled := cur * width / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return fmt.Sprintf("%s %d/%d", styleError.Render(bar), cur, max)
}

func init() {
	missionCreateCmd.Flags().StringVar(&missionBoss, "boss", "Procrastinatus", "boss name")
	missionCreateCmd.Flags().IntVar(&missionHealth, "health", 1000, "boss health pool")
	missionCreateCmd.Flags().IntVar(&missionDays, "days", 14, "mission window in days")

	missionAttackCmd.Flags().StringVar(&attackDifficulty, "difficulty", "easy", "very_easy, easy, hard or very_hard")
	missionAttackCmd.Flags().StringVar(&attackImportance, "importance", "normal", "normal, important, very_important or special")

	missionCmd.AddCommand(missionCreateCmd, missionJoinCmd, missionAttackCmd, missionStatusCmd, missionVisitCmd, missionChatCmd, missionExpireCmd)
	rootCmd.AddCommand(missionCmd)
}
