package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"insider-hq/relay/pkg/cli"
	"insider-hq/relay/pkg/config"
	"insider-hq/relay/pkg/items"
	"insider-hq/relay/pkg/security/crypto"
)

var itemsFlags struct {
	format    string
	overwrite bool
}

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Inspect and import configuration items",
	Long: `Work with the configuration item store selected by items.backend.

Items are addressed as <kind>/<name>, for example tools/search or
providers/openai. Detail values are never printed; only their keys are.`,
}

var itemsListCmd = &cobra.Command{
	Use:   "list [kind]",
	Short: "List stored items",
	Long: `List the items in the store, optionally only those of one kind.

With the memory backend the configured seed items are listed.

Examples:
  # List all items
  relay items list

  # List tools as CSV
  relay items list tools --format csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: listItems,
}

var itemsImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import items from a YAML file",
	Long: `Import items from a YAML file holding a list of items in the same
form as items.seed in the configuration. Detail keys ending in @encrypt are
encrypted with the configured key.

Existing items are kept unless --overwrite is given.

Examples:
  relay items import items.yaml
  relay items import items.yaml --overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: importItems,
}

func init() {
	rootCmd.AddCommand(itemsCmd)
	itemsCmd.AddCommand(itemsListCmd, itemsImportCmd)

	itemsListCmd.Flags().StringVarP(&itemsFlags.format, "format", "f", "text", "output format: text, json, yaml, csv")
	itemsImportCmd.Flags().BoolVar(&itemsFlags.overwrite, "overwrite", false, "replace items that already exist")
}

// openItemStore opens the configured store. A memory store is seeded so
// that it reflects the configuration.
func openItemStore(ctx context.Context, cfg *config.Config, enc crypto.Encrypter) (items.Store, error) {
	store, err := items.Open(ctx, cfg.Items)
	if err != nil {
		return nil, cli.NewCommandError("items", fmt.Errorf("failed to open item store: %w", err))
	}
	if _, ok := store.(*items.MemoryStore); ok {
		if _, err := items.Seed(ctx, store, cfg.Items.Seed, enc); err != nil {
			store.Close()
			return nil, cli.NewCommandError("items", err)
		}
	}
	return store, nil
}

func listItems(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(itemsFlags.format)
	if err != nil {
		return err
	}

	var kind string
	if len(args) == 1 {
		kind = args[0]
	}

	ctx := context.Background()
	cfg, secretMgr, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer secretMgr.Close()

	svc, err := loadCrypto(cfg.Crypto)
	if err != nil {
		return err
	}
	var enc crypto.Encrypter
	if svc != nil {
		enc = svc
	}

	store, err := openItemStore(ctx, cfg, enc)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(ctx, kind)
	if err != nil {
		return cli.NewCommandError("items", err)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), itemTable(list))
}

func itemTable(list []*items.Item) *cli.Table {
	t := &cli.Table{Headers: []string{"path", "type", "id", "enabled", "title", "details"}}
	for _, it := range list {
		keys := make([]string, 0, len(it.Details))
		for k := range it.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t.Rows = append(t.Rows, []string{
			it.Path,
			it.Type,
			it.ID,
			strconv.FormatBool(it.Enabled),
			it.Title,
			strings.Join(keys, " "),
		})
	}
	return t
}

func importItems(cmd *cobra.Command, args []string) error {
	// #nosec G304 - User-specified import file is expected behavior for a CLI tool.
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	var seeds []config.ItemSeed
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	ctx := context.Background()
	cfg, secretMgr, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer secretMgr.Close()

	svc, err := loadCrypto(cfg.Crypto)
	if err != nil {
		return err
	}
	var enc crypto.Encrypter
	if svc != nil {
		enc = svc
	}

	// Convert everything first so a bad entry imports nothing.
	list := make([]*items.Item, 0, len(seeds))
	for i, seed := range seeds {
		it, err := items.FromSeed(seed, enc)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		list = append(list, it)
	}

	store, err := openItemStore(ctx, cfg, enc)
	if err != nil {
		return err
	}
	defer store.Close()

	progress := cli.NewProgressReporter(cmd.ErrOrStderr(), "Imported")
	progress.Start(len(list))

	var added, skipped int
	for _, it := range list {
		if !itemsFlags.overwrite {
			_, err := store.Get(ctx, it.Path)
			if err == nil {
				skipped++
				progress.Increment(it.Path + " (kept)")
				continue
			}
			if !errors.Is(err, items.ErrNotFound) {
				progress.Error(err)
				return cli.NewCommandError("items", err)
			}
		}
		if err := store.Put(ctx, it); err != nil {
			progress.Error(err)
			return cli.NewCommandError("items", err)
		}
		added++
		progress.Increment(it.Path)
	}
	progress.Finish()

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %d items imported, %d kept\n", added, skipped)
	return nil
}
