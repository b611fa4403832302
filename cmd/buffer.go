package main

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/livingwales/areaselect/internal/buffer"
	"github.com/livingwales/areaselect/internal/geomio"
	"github.com/livingwales/areaselect/internal/selection"
)

var (
	bufferGeoJSON string
	bufferMeters  float64
	bufferKm      float64
	bufferMode    string
)

var bufferCmd = &cobra.Command{
	Use:   "buffer",
	Short: "Buffer a drawn area",
	Long:  "Buffers a GeoJSON area by a distance in meters (or a custom distance in km), including or excluding the area itself. Distances are measured in Web Mercator.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("buffer"); err != nil {
			return err
		}
		mode, err := buffer.ParseMode(bufferMode)
		if err != nil {
			return err
		}
		if bufferGeoJSON == "" {
			return eris.New("buffer: --geojson is required")
		}
		drawn, err := readGeoJSON(bufferGeoJSON)
		if err != nil {
			return err
		}

		state := selection.NewState()
		state.BufferDistance = cfg.Buffer.DefaultMeters
		if state, err = selection.StartSelection(state, selection.ModeDraw); err != nil {
			return err
		}
		if state, err = selection.FinishDrawing(state, drawn); err != nil {
			return err
		}
		switch {
		case cmd.Flags().Changed("km"):
			bounds := selection.KmRange{Min: cfg.Buffer.CustomMinKm, Max: cfg.Buffer.CustomMaxKm}
			state, err = selection.SetCustomBufferKm(state, bufferKm, bounds)
		case cmd.Flags().Changed("meters"):
			state, err = selection.SelectBufferDistance(state, bufferMeters)
		}
		if err != nil {
			return err
		}

		area, err := selection.Resolve(state, nil)
		if err != nil {
			return err
		}
		g, ok := area.FirstGeometry()
		if !ok {
			return eris.Wrap(geomio.ErrInvalidGeometryInput, "buffer: empty area")
		}

		engine := buffer.New(buffer.Options{QuadrantSegments: cfg.Buffer.QuadrantSegments})
		out, err := engine.Apply(g, state.BufferDistance, mode)
		if err != nil {
			return err
		}
		enc, err := geomio.ToGeoJSON(out)
		if err != nil {
			return err
		}
		if state, err = selection.ConfirmBuffer(state, enc); err != nil {
			return err
		}
		buffered, err := selection.Resolve(state, nil)
		if err != nil {
			return err
		}
		buffered.Label = mode.String() + " buffer " + strconv.FormatFloat(state.BufferDistance, 'f', -1, 64) + " m"
		return printArea(cmd.OutOrStdout(), buffered)
	},
}

func init() {
	f := bufferCmd.Flags()
	f.StringVar(&bufferGeoJSON, "geojson", "", "area to buffer as GeoJSON (- for stdin)")
	f.Float64Var(&bufferMeters, "meters", 0, "buffer distance in meters (default from config)")
	f.Float64Var(&bufferKm, "km", 0, "custom buffer distance in kilometers")
	f.StringVar(&bufferMode, "mode", "include", "include or exclude the area itself")
	bufferCmd.MarkFlagsMutuallyExclusive("meters", "km")
	rootCmd.AddCommand(bufferCmd)
}
