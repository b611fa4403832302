package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/livingwales/areaselect/internal/catalog"
	"github.com/livingwales/areaselect/internal/geomio"
	"github.com/livingwales/areaselect/internal/selection"
)

var (
	resolveShapefile string
	resolveID        int
	resolveName      string
	resolveAll       bool
	resolveGeoJSON   string
)

// areaOutput is a resolved area as printed by resolve and buffer.
type areaOutput struct {
	Source       selection.Source           `json:"source"`
	Label        string                     `json:"label"`
	Count        int                        `json:"count"`
	AreaHectares float64                    `json:"area_hectares"`
	Features     *geojson.FeatureCollection `json:"features"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a selection to its area",
	Long: `Replays a selection and prints the area it resolves to.

  --geojson FILE             a drawn area (use - for stdin)
  --shapefile F --all        every polygon, or those named --name
  --shapefile F --id N       the polygon with synthetic identifier N
  --shapefile F --name X     the polygons named X`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		state, ds, err := replaySelection(cmd)
		if err != nil {
			return err
		}
		area, err := selection.Resolve(state, ds)
		if err != nil {
			return err
		}
		if area == nil {
			fmt.Fprintln(os.Stderr, selection.HintNothingSelected)
			return nil
		}
		return printArea(cmd.OutOrStdout(), area)
	},
}

// replaySelection drives the interaction transitions the way the map would.
func replaySelection(cmd *cobra.Command) (selection.State, *catalog.Dataset, error) {
	state := selection.NewState()
	state.BufferDistance = cfg.Buffer.DefaultMeters

	if resolveGeoJSON != "" {
		g, err := readGeoJSON(resolveGeoJSON)
		if err != nil {
			return state, nil, err
		}
		if state, err = selection.StartSelection(state, selection.ModeDraw); err != nil {
			return state, nil, err
		}
		state, err = selection.FinishDrawing(state, g)
		return state, nil, err
	}

	if resolveShapefile == "" {
		return state, nil, eris.New("resolve: --shapefile or --geojson is required")
	}
	ds, err := catalog.LoadDataset(resolveShapefile)
	if err != nil {
		return state, nil, err
	}

	if cmd.Flags().Changed("name") {
		name := resolveName
		if state, err = selection.ChooseDropdown(state, &name); err != nil {
			return state, ds, err
		}
	}
	if state, err = selection.StartSelection(state, selection.ModeSelect); err != nil {
		return state, ds, err
	}
	switch {
	case resolveAll:
		state, err = selection.UseAll(state)
	case cmd.Flags().Changed("id"):
		state, err = selection.ClickFeature(state, selection.FeatureClick{
			Properties: map[string]any{catalog.IDProperty: resolveID},
		})
	}
	return state, ds, err
}

func readGeoJSON(path string) (*geojson.Geometry, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read geojson %s", path)
	}
	g, err := geomio.Parse(data)
	if err != nil {
		return nil, err
	}
	return geomio.ToGeoJSON(g)
}

func printArea(out io.Writer, area *selection.Area) error {
	ha, err := area.AreaHectares()
	if err != nil {
		return err
	}
	v := areaOutput{
		Source:       area.Source,
		Label:        area.Label,
		Count:        area.Len(),
		AreaHectares: ha,
		Features:     area.FeatureCollection(),
	}
	return emit(out, v, func(out io.Writer) {
		writeTable(out, []string{"SOURCE", "LABEL", "FEATURES", "AREA_HA"}, [][]string{{
			v.Source.String(), v.Label, strconv.Itoa(v.Count), strconv.FormatFloat(ha, 'f', 2, 64),
		}})
	})
}

func init() {
	f := resolveCmd.Flags()
	f.StringVar(&resolveShapefile, "shapefile", "", "shapefile to select from")
	f.IntVar(&resolveID, "id", 0, "synthetic identifier of the clicked polygon")
	f.StringVar(&resolveName, "name", "", "polygon name chosen in the dropdown")
	f.BoolVar(&resolveAll, "all", false, "use all polygons")
	f.StringVar(&resolveGeoJSON, "geojson", "", "drawn area as GeoJSON (- for stdin)")
	resolveCmd.MarkFlagsMutuallyExclusive("geojson", "shapefile")
	resolveCmd.MarkFlagsMutuallyExclusive("id", "all")
	rootCmd.AddCommand(resolveCmd)
}
