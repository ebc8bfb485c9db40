package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/listview/internal/config"
	"github.com/charmbracelet/listview/internal/datasource"
	"github.com/charmbracelet/listview/internal/datasource/sqlstore"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage item databases",
	Long:  `Import list files into a SQLite database and list or export its items`,
}

var dbImportCmd = &cobra.Command{
	Use:   "import <files...>",
	Short: "Import list files",
	Long: heredoc.Doc(`
		Append the items of every list file to the database. Each file
		becomes one group.
	`),
	Example: heredoc.Doc(`
		listview db import todo.yaml 'archive/**/*.json'
	`),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := expand(args)
		if err != nil {
			return err
		}
		var items []datasource.Item
		for _, p := range paths {
			read, err := datasource.ReadFile(p)
			if err != nil {
				return err
			}
			items = append(items, read...)
		}
		return withStore(cmd, func(ctx context.Context, store *sqlstore.Store) error {
			if err := store.Import(ctx, items); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items from %d files\n", len(items), len(paths))
			return nil
		})
	},
}

var dbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return withStore(cmd, func(ctx context.Context, store *sqlstore.Store) error {
			items, err := allItems(ctx, store)
			if err != nil {
				return err
			}
			return formatItems(cmd.OutOrStdout(), items, format)
		})
	},
}

var dbGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List groups and their sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *sqlstore.Store) error {
			gs, err := store.Groups(ctx)
			if err != nil {
				return err
			}
			for _, g := range gs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", g.Key, g.Count)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbImportCmd)
	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbGroupsCmd)

	dbCmd.PersistentFlags().String("path", "", "Database file (defaults to the data directory)")
	dbListCmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
}

func dbPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("path"); p != "" {
		return p
	}
	return filepath.Join(config.GlobalDataDir(), "listview.db")
}

func withStore(cmd *cobra.Command, fn func(context.Context, *sqlstore.Store) error) error {
	if _, err := setup(cmd); err != nil {
		return err
	}
	ctx := cmd.Context()
	path := dbPath(cmd)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlstore.Connect(ctx, path)
	if err != nil {
		return err
	}
	store := sqlstore.New(db)
	defer store.Close()
	return fn(ctx, store)
}

func allItems(ctx context.Context, store *sqlstore.Store) ([]datasource.Item, error) {
	n, err := store.Count(ctx)
	if err != nil || n == 0 {
		return nil, err
	}
	res, err := store.ItemsFromIndex(ctx, 0, 0, n-1)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func formatItems(w io.Writer, items []datasource.Item, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal items: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		data, err := yaml.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to marshal items: %w", err)
		}
		fmt.Fprint(w, string(data))
	case "text":
		group := ""
		for i, it := range items {
			if i == 0 || it.Group != group {
				group = it.Group
				fmt.Fprintf(w, "%s\n", group)
			}
			fmt.Fprintf(w, "  • %s (%s)\n", it.Text, it.Key)
		}
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return nil
}
