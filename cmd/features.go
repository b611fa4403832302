package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/livingwales/areaselect/internal/catalog"
	"github.com/livingwales/areaselect/internal/geomio"
)

var featuresName string

var featuresCmd = &cobra.Command{
	Use:   "features <shapefile>",
	Short: "List the polygons of a shapefile",
	Long:  "Loads a shapefile and lists its features with their synthetic identifiers. Identifiers are row positions and change if the file changes.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := catalog.LoadDataset(args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("name") {
			ds = ds.FilterByName(featuresName)
		}
		if ds.Empty() {
			fmt.Fprintln(os.Stderr, "No features found.")
			return nil
		}

		return emit(cmd.OutOrStdout(), ds.FeatureCollection(), func(out io.Writer) {
			rows := make([][]string, 0, ds.Len())
			for _, f := range ds.Features {
				area := "-"
				if f.Geometry != nil {
					if ha, err := geomio.AreaHectares(f.Geometry); err == nil {
						area = strconv.FormatFloat(ha, 'f', 2, 64)
					}
				}
				rows = append(rows, []string{strconv.Itoa(f.ID), ds.Name(f), area})
			}
			writeTable(out, []string{"ID", "NAME", "AREA_HA"}, rows)
		})
	},
}

func init() {
	featuresCmd.Flags().StringVar(&featuresName, "name", "", "only features whose name column equals this value")
	rootCmd.AddCommand(featuresCmd)
}
