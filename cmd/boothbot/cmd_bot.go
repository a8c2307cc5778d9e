package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"boothbot/internal/catalog"
	"boothbot/internal/chat"
	"boothbot/internal/logging"
	"boothbot/internal/store"
)

var (
	askUser   string
	chatUser  string
	chatWatch bool
	initForce bool
)

// runAsk answers a single command given on the command line
func runAsk(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := newResolver(s)
	if err != nil {
		return err
	}

	command := joinArgs(args)
	logger.Debug("Answering command", zap.String("command", command), zap.String("user", askUser))
	fmt.Println(r.Respond(commandContext(cmd), command, askUser))
	return nil
}

// runChat runs the message loop until stdin closes or a signal arrives
func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	watch := chatWatch || cfg.Catalog.Watch
	if watch && cfg.Catalog.Path == "" {
		return fmt.Errorf("--watch needs catalog.path (or BOOTHBOT_CATALOG)")
	}

	if cfg.Catalog.Path != "" {
		_, n, err := catalog.Import(ctx, s, cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("initial catalog import failed: %w", err)
		}
		logger.Info("Catalog imported", zap.String("path", cfg.Catalog.Path), zap.Int("sections", n))
	}

	if watch {
		w, err := catalog.NewWatcher(cfg.Catalog.Path, reimport(s))
		if err != nil {
			return fmt.Errorf("failed to create catalog watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			w.Stop()
			return fmt.Errorf("failed to watch catalog: %w", err)
		}
		defer func() {
			w.Stop()
			st := w.Stats()
			logger.Info("Catalog watcher stopped",
				zap.Int("events", st.Events),
				zap.Int("reloads", st.Reloads),
				zap.Int("invalid", st.InvalidFiles),
				zap.Int("errors", st.Errors))
		}()
	}

	r, err := newResolver(s)
	if err != nil {
		return err
	}

	if cfg.Bot.ID == "" {
		logging.BootWarn("bot.id is not set; every input line is treated as a command")
	}
	loop := chat.NewLoop(cmd.InOrStdin(), cmd.OutOrStdout(), r, chat.Options{
		BotID:       cfg.Bot.ID,
		DefaultUser: chatUser,
		PollDelay:   cfg.GetPollDelay(),
	})
	logger.Info("Chat loop running", zap.String("db", s.Path()), zap.Bool("watch", watch))
	return loop.Run(ctx)
}

// reimport writes a reloaded catalog into s.
func reimport(s *store.CourseStore) catalog.ReloadFunc {
	return func(ctx context.Context, c *catalog.Catalog) error {
		n, err := s.UpsertSections(ctx, c.StoreSections())
		if err != nil {
			return err
		}
		logger.Info("Catalog re-imported", zap.String("term", c.Term), zap.Int("sections", n))
		return nil
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// runImport loads the catalog named on the command line or in config
func runImport(cmd *cobra.Command, args []string) error {
	path := cfg.Catalog.Path
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no catalog given (pass a file or set catalog.path)")
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	c, n, err := catalog.Import(commandContext(cmd), s, path)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d sections for %s into %s\n", n, termName(c.Term), s.Path())
	return nil
}

func termName(term string) string {
	if term == "" {
		return "the current term"
	}
	return term
}

// runMigrate opens the database, which applies any pending migrations
func runMigrate(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfg.Database.Path); os.IsNotExist(err) {
		fmt.Printf("No database at %s; it will be created on first use.\n", cfg.Database.Path)
		return nil
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	res := s.Migration()
	if res == (store.MigrationResult{}) {
		fmt.Println("Schema is up to date.")
		return nil
	}
	fmt.Printf("Added %d columns\n", res.ColumnsAdded)
	fmt.Printf("Moved %d interest entries from %d sections into %s\n", res.InterestsCopied, res.LegacyRows, store.InterestTable)
	return nil
}

// runSection prints one section and who is interested in it
func runSection(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := commandContext(cmd)
	sec, err := s.GetSection(ctx, args[0])
	if err != nil {
		return err
	}
	users, err := s.InterestedUsers(ctx, sec.Section)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", sec.Title, sec.Section)
	fmt.Printf("  Course:     %s\n", sec.Course)
	fmt.Printf("  Instructor: %s\n", sec.Instructor)
	fmt.Printf("  When:       %s at %s\n", sec.Time, sec.Location)
	fmt.Printf("  Ratings:    recommend %g, interesting %g, %g hours/week\n", sec.Recommend, sec.Interesting, sec.Hours)
	if len(users) == 0 {
		fmt.Println("  Interested: nobody yet")
		return nil
	}
	fmt.Printf("  Interested: %d (%s)\n", len(users), strings.Join(users, ", "))
	return nil
}

// runInit writes the effective configuration to the --config path
func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}
	if err := cfg.Save(configPath); err != nil {
		return err
	}
	fmt.Printf("Wrote configuration to %s\n", configPath)
	return nil
}

// showStatus prints configuration and database counts
func showStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("booth_bot Status")
	fmt.Println("================")
	fmt.Printf("Handle:   %s\n", cfg.Bot.Handle)
	if cfg.Bot.ID != "" {
		fmt.Printf("Mention:  %s\n", chat.MentionToken(cfg.Bot.ID))
	} else {
		fmt.Println("Mention:  (none, every message is answered)")
	}
	fmt.Printf("Matching: exact=%d fallback=%d suggestions=%d cutoff=%.2f\n",
		cfg.Matching.ExactLimit, cfg.Matching.FallbackLimit, cfg.Matching.MaxSuggestions, cfg.Matching.Cutoff)
	if cfg.Catalog.Path != "" {
		fmt.Printf("Catalog:  %s (watch=%v)\n", cfg.Catalog.Path, cfg.Catalog.Watch)
	}
	fmt.Println()

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.GetStats(commandContext(cmd))
	if err != nil {
		return err
	}
	fmt.Printf("✓ Database: %s\n", s.Path())
	fmt.Printf("  Sections:  %d\n", st.Sections)
	fmt.Printf("  Interests: %d from %d users\n", st.Interests, st.Users)
	return nil
}
