package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dyuri/dxfconv/internal/config"
	"github.com/dyuri/dxfconv/internal/export"
	"github.com/dyuri/dxfconv/internal/model"
	"github.com/dyuri/dxfconv/pkg/dxfconv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dxfconv",
	Short: "Read DXF drawings and convert them to GIS formats",
	Long: `dxfconv is a tool for working with ASCII DXF drawings.

It reads layers, texts, points, lines and polygons, repairs polygon
boundaries that retrace a bridge to reach their holes or concatenate
several rings in one polyline, and converts the result to GeoJSON,
FlatGeobuf or DXF.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default: $"+config.EnvVar+")")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(layersCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and attaches it and a logger to the
// command context.
func setup(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	ctx := withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level))
	cmd.SetContext(withConfig(ctx, cfg))
	return nil
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info <input.dxf>",
	Short: "Display layers and entity counts",
	Long: `Display information about a DXF drawing: its codepage and, for each
layer, the number of texts, points, lines and polygons and whether any of
them are 3D or carry extra attributes.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "Output as JSON")
	infoCmd.Flags().String("codepage", "", "Codepage assumed when the drawing declares none")
}

func runInfo(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	res, err := parseFile(cmd, args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeInfoJSON(cmd.OutOrStdout(), args[0], res)
	}
	printInfo(cmd.OutOrStdout(), args[0], res)
	return nil
}

// layerInfo is the JSON form of one layer
type layerInfo struct {
	Name     string              `json:"name"`
	Texts    int                 `json:"texts"`
	Points   int                 `json:"points"`
	Lines    int                 `json:"lines"`
	Polygons int                 `json:"polygons"`
	Holes    int                 `json:"holes"`
	Flags    map[string][]string `json:"flags,omitempty"`
}

func newLayerInfo(l *model.Layer) layerInfo {
	info := layerInfo{
		Name:     l.Name,
		Texts:    len(l.Texts),
		Points:   len(l.Points),
		Lines:    len(l.Lines),
		Polygons: len(l.Polygons),
		Holes:    holeCount(l),
	}
	for kind, f := range map[string]model.TypeFlags{
		export.KindText:    l.TextFlags,
		export.KindPoint:   l.PointFlags,
		export.KindLine:    l.LineFlags,
		export.KindPolygon: l.PolygonFlags,
	} {
		var flags []string
		if f.Is3D {
			flags = append(flags, "3d")
		}
		if f.HasExtra {
			flags = append(flags, "extra")
		}
		if len(flags) > 0 {
			if info.Flags == nil {
				info.Flags = make(map[string][]string)
			}
			info.Flags[kind] = flags
		}
	}
	return info
}

func holeCount(l *model.Layer) int {
	n := 0
	for _, p := range l.Polygons {
		n += len(p.Holes)
	}
	return n
}

func writeInfoJSON(w io.Writer, path string, res *dxfconv.Result) error {
	layers := make([]layerInfo, 0, len(res.Drawing.Layers))
	for _, l := range res.Drawing.Layers {
		layers = append(layers, newLayerInfo(l))
	}

	output := map[string]interface{}{
		"file":     path,
		"codepage": res.Drawing.Codepage,
		"layers":   layers,
		"repair":   res.Stats,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// convert command
var convertCmd = &cobra.Command{
	Use:   "convert <input.dxf>",
	Short: "Convert a DXF drawing to GeoJSON, FlatGeobuf or DXF",
	Long: `Convert a DXF drawing to another format.

Every text, point, line and polygon becomes one feature carrying its layer,
kind and extra attributes. Polygons keep the holes recovered while reading.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	convertCmd.Flags().StringP("format", "f", "", "Output format: geojson, fgb, dxf (default from config)")
	convertCmd.Flags().String("name", "", "Dataset name (FlatGeobuf)")
	convertCmd.Flags().StringSlice("layer", nil, "Only convert these layers")
	convertCmd.Flags().Bool("force-multi", false, "Write polygons as MultiPolygon")
	convertCmd.Flags().Bool("no-retrace", false, "Do not repair retraced boundaries")
	convertCmd.Flags().Bool("no-split", false, "Do not repair concatenated boundaries")
	convertCmd.Flags().Bool("no-index", false, "Skip the FlatGeobuf spatial index")
	convertCmd.Flags().String("codepage", "", "Codepage assumed when the drawing declares none")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := configFromContext(cmd.Context())
	outputPath, _ := cmd.Flags().GetString("output")
	layers, _ := cmd.Flags().GetStringSlice("layer")
	noIndex, _ := cmd.Flags().GetBool("no-index")

	format := cfg.Export.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	name := cfg.Export.Name
	if cmd.Flags().Changed("name") {
		name, _ = cmd.Flags().GetString("name")
	}
	forceMulti := cfg.Repair.ForceMulti
	if cmd.Flags().Changed("force-multi") {
		forceMulti, _ = cmd.Flags().GetBool("force-multi")
	}

	res, err := parseFile(cmd, args[0])
	if err != nil {
		return err
	}

	// Determine output writer
	var output io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	opts := &export.Options{
		ForceMulti: forceMulti,
		Layers:     layers,
		Name:       name,
		Index:      !noIndex,
	}
	if err := dxfconv.Write(output, res.Drawing, format, opts); err != nil {
		return err
	}

	loggerFromContext(cmd.Context()).Info("converted", "input", args[0], "format", format, "output", outputName(outputPath))
	return nil
}

func outputName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}

// layers command
var layersCmd = &cobra.Command{
	Use:   "layers <input.dxf>",
	Short: "List layer names",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayers,
}

func init() {
	layersCmd.Flags().String("codepage", "", "Codepage assumed when the drawing declares none")
}

func runLayers(cmd *cobra.Command, args []string) error {
	res, err := parseFile(cmd, args[0])
	if err != nil {
		return err
	}
	for _, l := range res.Drawing.Layers {
		fmt.Fprintln(cmd.OutOrStdout(), l.Name)
	}
	return nil
}

// repair command
var repairCmd = &cobra.Command{
	Use:   "repair <input.dxf>",
	Short: "Report polygon boundary repairs",
	Long: `Read a DXF drawing and report how many closed polylines were rebuilt
into polygons with holes.

Use -o to also write the repaired drawing as DXF.`,
	Args: cobra.ExactArgs(1),
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().StringP("output", "o", "", "Write the repaired drawing as DXF")
	repairCmd.Flags().Bool("no-retrace", false, "Do not repair retraced boundaries")
	repairCmd.Flags().Bool("no-split", false, "Do not repair concatenated boundaries")
	repairCmd.Flags().String("codepage", "", "Codepage assumed when the drawing declares none")
}

func runRepair(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")

	res, err := parseFile(cmd, args[0])
	if err != nil {
		return err
	}
	printRepair(cmd.OutOrStdout(), res)

	if outputPath == "" {
		return nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()
	return dxfconv.WriteDXF(f, res.Drawing)
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dxfconv %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// parseFile reads a DXF file using the configuration in the command context
// and the command's repair flags.
func parseFile(cmd *cobra.Command, path string) (*dxfconv.Result, error) {
	ctx := cmd.Context()
	cfg := configFromContext(ctx)
	logger := loggerFromContext(ctx)

	opts := &dxfconv.Options{
		Codepage: cfg.Codepage,
		Retrace:  cfg.Repair.Retrace,
		Split:    cfg.Repair.Split,
		Logger:   logger,
	}
	if cp, _ := cmd.Flags().GetString("codepage"); cp != "" {
		opts.Codepage = cp
	}
	if off, _ := cmd.Flags().GetBool("no-retrace"); off {
		opts.Retrace = false
	}
	if off, _ := cmd.Flags().GetBool("no-split"); off {
		opts.Split = false
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	p := newProgress(logger)
	res, err := dxfconv.Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("parse DXF file: %w", err)
	}
	texts, points, lines, polygons := res.Drawing.Counts()
	p.done(fmt.Sprintf("Read %d layers: %d texts, %d points, %d lines, %d polygons",
		len(res.Drawing.Layers), texts, points, lines, polygons))
	return res, nil
}
