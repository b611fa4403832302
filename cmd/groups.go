package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/livingwales/areaselect/internal/catalog"
)

func newCatalog() *catalog.Catalog {
	return catalog.New(catalog.Options{
		Root:         cfg.Catalog.Root,
		UploadsDir:   cfg.Catalog.UploadsDir,
		UploadsLabel: cfg.Catalog.UploadsLabel,
		DrawSuffix:   cfg.Catalog.DrawSuffix,
	})
}

// listGroups returns the dataset groups. A missing root is reported and the
// uploads group alone is offered.
func listGroups(c *catalog.Catalog) []catalog.Group {
	groups, err := c.ListDatasetGroups()
	if err != nil {
		var cfgErr *catalog.ConfigurationError
		if errors.As(err, &cfgErr) {
			zap.L().Warn("dataset root unavailable", zap.String("root", cfgErr.Root), zap.Error(err))
			fmt.Fprintln(os.Stderr, "No dataset groups found:", err)
		}
		opts := c.Options()
		return []catalog.Group{{Name: opts.UploadsLabel, Path: opts.UploadsDir, Uploads: true}}
	}
	return groups
}

func findGroup(groups []catalog.Group, name string) (catalog.Group, error) {
	for _, g := range groups {
		if g.Name == name {
			return g, nil
		}
	}
	return catalog.Group{}, eris.Errorf("groups: unknown group %q", name)
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List dataset groups",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("catalog"); err != nil {
			return err
		}
		c := newCatalog()
		groups := listGroups(c)
		return emit(cmd.OutOrStdout(), groups, func(out io.Writer) {
			rows := make([][]string, 0, len(groups))
			for _, g := range groups {
				rows = append(rows, []string{g.Name, strconv.FormatBool(c.IsDrawGroup(g.Name)), g.Path})
			}
			writeTable(out, []string{"GROUP", "DRAW", "PATH"}, rows)
		})
	},
}

var shapefilesCmd = &cobra.Command{
	Use:   "shapefiles <group>",
	Short: "List the shapefiles in a dataset group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("catalog"); err != nil {
			return err
		}
		c := newCatalog()
		group, err := findGroup(listGroups(c), args[0])
		if err != nil {
			return err
		}
		files, err := c.ListShapefiles(group.Path)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "No shapefiles found.")
			return nil
		}
		return emit(cmd.OutOrStdout(), files, func(out io.Writer) {
			rows := make([][]string, 0, len(files))
			for _, f := range files {
				rows = append(rows, []string{f.Name, f.Path})
			}
			writeTable(out, []string{"SHAPEFILE", "PATH"}, rows)
		})
	},
}

func init() {
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(shapefilesCmd)
}
