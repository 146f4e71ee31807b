package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/questforge/questforge/internal/engine"
	"github.com/questforge/questforge/internal/memory"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// userID identifies the acting user for ownership-scoped commands.
	userID string
	// version is the application version.
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "questforge",
	Short: "QuestForge turns your real-world tasks into an RPG.",
	Long: `QuestForge is the task & progression engine of a cooperative productivity
game. Completing real-world tasks earns XP, PP and coins, feeds your daily
streak, and damages the shared boss of your alliance's active mission.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render("✗ ")+err.Error())
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.questforge.yaml or ./.questforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "acting user id (or QUESTFORGE_USER)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
}

// getService opens the store and builds the engine service. The caller must
// Close the returned store.
func getService() (*engine.Service, *memory.Store, error) {
	if viper.GetBool("verbose") {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	store, err := memory.NewStore(dataDir())
	if err != nil {
		return nil, nil, fmt.Errorf("open store at %s: %w", dataDir(), err)
	}
	return engine.NewService(store, nil, nil), store, nil
}

// currentUser resolves the acting user id from flag, env or config.
func currentUser() (string, error) {
	u := viper.GetString("user")
	if u == "" {
		return "", fmt.Errorf("no user id set; pass --user or set QUESTFORGE_USER")
	}
	return u, nil
}
