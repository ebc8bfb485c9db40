package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/bmatcuk/doublestar/v4"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/listview/internal/config"
	"github.com/charmbracelet/listview/internal/datasource"
	"github.com/charmbracelet/listview/internal/datasource/sqlstore"
	core "github.com/charmbracelet/listview/internal/listview"
	"github.com/charmbracelet/listview/internal/log"
	tuilist "github.com/charmbracelet/listview/internal/tui/listview"
	"github.com/charmbracelet/listview/internal/version"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a configuration file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().BoolP("watch", "w", false, "Reload list files when they change")
		c.Flags().String("db", "", "Browse the items of a SQLite database instead of files")
	}
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [files...]",
	Short: "Browse lists interactively",
	Long:  "Browse lists interactively. This is what listview does without a subcommand.",
	RunE:  runList,
}

var rootCmd = &cobra.Command{
	Use:   "listview [files...]",
	Short: "A virtualized list for your terminal",
	Long: heredoc.Doc(`
		Browse large, grouped lists in the terminal.

		Each file is a YAML or JSON list and becomes one group. Glob
		patterns, including **, are expanded.
	`),
	Example: heredoc.Doc(`
		# Browse two lists
		listview todo.yaml groceries.json

		# Browse every list under a directory and follow changes
		listview --watch 'lists/**/*.yaml'

		# Browse a database
		listview --db items.db

		# Run with debug logging
		listview -d todo.yaml
	`),
	SilenceUsage: true,
	RunE:         runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	watch, _ := cmd.Flags().GetBool("watch")
	dbPath, _ := cmd.Flags().GetString("db")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	opts, err := modelOptions(cfg)
	if err != nil {
		return err
	}

	var (
		src  datasource.Source
		file *datasource.File
	)
	switch {
	case dbPath != "":
		db, err := sqlstore.Connect(ctx, dbPath)
		if err != nil {
			return err
		}
		store := sqlstore.New(db)
		defer store.Close()
		src = store
	case len(args) > 0:
		paths, err := expand(args)
		if err != nil {
			return err
		}
		file, err = datasource.OpenFiles(paths)
		if err != nil {
			return err
		}
		src = file
		opts = append(opts, tuilist.WithFilterBase(file.Memory))
	default:
		return cmd.Help()
	}

	m := tuilist.New(src, opts...)
	defer m.Close()

	program := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithMouseCellMotion(),
	)
	m.SetSender(program.Send)

	if file != nil && watch {
		if err := file.Watch(ctx, m.Apply); err != nil {
			return err
		}
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI run error: %w", err)
	}
	return nil
}

func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
	); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and starts file logging.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dataDir := cfg.Options.DataDirectory
	if err := os.MkdirAll(filepath.Join(dataDir, "logs"), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %q %w", dataDir, err)
	}
	log.Setup(filepath.Join(dataDir, "logs", "listview.log"), cfg.Options.Debug)
	return cfg, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Options.Debug = true
	}
	return cfg, nil
}

func modelOptions(cfg *config.Config) ([]tuilist.Option, error) {
	sel, err := cfg.SelectionConfig()
	if err != nil {
		return nil, err
	}
	lay, err := cfg.NewLayout()
	if err != nil {
		return nil, err
	}
	a := cfg.Animations
	return []tuilist.Option{
		tuilist.WithSpringOptions(tuilist.WithSpring(a.FPS, a.Frequency, a.Damping)),
		tuilist.WithListOptions(
			core.WithLayout(lay),
			core.WithSelection(sel),
			core.WithOverscan(cfg.Layout.Overscan),
			core.WithAnimations(cfg.AnimationsEnabled()),
			core.WithEntrance(cfg.EntranceEnabled()),
		),
	}, nil
}

// expand resolves glob patterns. Arguments that match nothing are kept as
// they are so that opening them reports the missing file.
func expand(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}
