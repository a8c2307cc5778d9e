package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"boothbot/internal/config"
	"boothbot/internal/logging"
	"boothbot/internal/resolver"
	"boothbot/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "boothbot",
	Short: "booth_bot - course lookup chat bot",
	Long: `booth_bot answers questions about this term's course sections.

Ask it about a course title, a course number or an instructor, and it finds
the best-rated sections. Misspelled queries get "did you mean" suggestions,
and partial queries fall back to a word-by-word search. Users can also mark
their interest in a section.

Use "boothbot chat" to run the bot against stdin, or "boothbot ask" for a
single command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		if verbose {
			cfg.Logging.DebugMode = true
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if err := logging.Initialize(logging.Options{
			Level:      cfg.Logging.Level,
			Format:     cfg.Logging.Format,
			DebugMode:  cfg.Logging.DebugMode,
			Categories: cfg.Logging.Categories,
		}, nil); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logging.Named("cli")
		logging.Boot("boothbot %s starting (config=%s, db=%s)", cmd.Name(), configPath, cfg.Database.Path)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		_ = logging.Sync()
	},
}

// askCmd answers one command and exits
var askCmd = &cobra.Command{
	Use:   "ask [command...]",
	Short: "Answer a single command, e.g. ask course Financial Accounting",
	Args:  cobra.ArbitraryArgs,
	RunE:  runAsk,
}

// chatCmd runs the bot loop on stdin/stdout
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the bot against stdin, one message per line",
	Long: `Reads chat messages from stdin and writes replies to stdout.

Each line is either "user<TAB>text" or bare text from the --user account.
When bot.id is configured only messages containing <@ID> are answered, and
the command is the text after the mention.`,
	RunE: runChat,
}

// importCmd loads a YAML catalog into the course table
var importCmd = &cobra.Command{
	Use:   "import [catalog.yaml]",
	Short: "Import a term's course catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImport,
}

// migrateCmd upgrades an existing database
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the course database up to the current schema",
	RunE:  runMigrate,
}

// sectionCmd shows a single section
var sectionCmd = &cobra.Command{
	Use:   "section [id]",
	Short: "Show one section and the users interested in it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSection,
}

// initCmd writes a config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration (defaults plus overrides) to --config",
	RunE:  runInit,
}

// statusCmd shows configuration and row counts
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show booth_bot status",
	RunE:  showStatus,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "boothbot.yaml", "Config file (missing file means defaults)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Course database path (overrides config)")

	askCmd.Flags().StringVarP(&askUser, "user", "u", "", "User id the command comes from")
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "local", "User id for lines without a user prefix")
	chatCmd.Flags().BoolVar(&chatWatch, "watch", false, "Re-import the catalog when it changes")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sectionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the configured course database.
func openStore() (*store.CourseStore, error) {
	s, err := store.NewCourseStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open course store: %w", err)
	}
	return s, nil
}

// newResolver builds a resolver over s using the configured limits.
func newResolver(s *store.CourseStore) (*resolver.Resolver, error) {
	jokes, err := resolver.LoadJokes()
	if err != nil {
		return nil, err
	}
	logging.BootDebug("Loaded %d jokes", jokes.Len())
	return resolver.New(s, jokes, resolver.Options{
		ExactLimit:     cfg.Matching.ExactLimit,
		FallbackLimit:  cfg.Matching.FallbackLimit,
		MaxSuggestions: cfg.Matching.MaxSuggestions,
		Cutoff:         cfg.Matching.Cutoff,
		Handle:         cfg.Bot.Handle,
		Owner:          cfg.Bot.Owner,
	}), nil
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
