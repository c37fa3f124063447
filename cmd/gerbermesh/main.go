// Command gerbermesh turns a Gerber RS-274X or Excellon NC-drill file into a
// triangulated STL solid, by extruding the flat mesh gerbermesh produces to
// a fixed height.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gerbermesh"
)

var (
	stencilHeight float64
	keepPreview   bool
	forceExcellon bool
	forceGerber   bool
)

func main() {
	root := &cobra.Command{
		Use:   "gerbermesh <path_to_gerber_or_drill_file> [output.stl]",
		Short: "Extrude a Gerber or Excellon file into an STL solid",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  run,
	}

	root.Flags().Float64VarP(&stencilHeight, "height", "H", 0.2, "extrusion height in mm")
	root.Flags().BoolVarP(&keepPreview, "keep-png", "k", false, "write a debug PNG preview of the flattened mesh alongside the STL")
	root.Flags().BoolVar(&forceExcellon, "excellon", false, "force Excellon NC-drill parsing regardless of file extension")
	root.Flags().BoolVar(&forceGerber, "gerber", false, "force Gerber RS-274X parsing regardless of file extension")
	root.MarkFlagsMutuallyExclusive("excellon", "gerber")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gerbermesh:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	inPath := args[0]
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}

	isExcellon := forceExcellon || (!forceGerber && looksLikeExcellon(inPath))

	var rec gerbermesh.GeometryRecord
	if isExcellon {
		rec, err = gerbermesh.ParseExcellon(data)
	} else {
		rec, err = gerbermesh.ParseGerber(data)
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", inPath, err)
	}

	for _, w := range rec.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	fmt.Fprintf(os.Stderr, "%s: %d vertices, %d triangles, %d warnings\n",
		inPath, rec.VertexCount, rec.IndexCount/3, rec.WarningCount)

	outPath := defaultOutputPath(inPath)
	if len(args) == 2 {
		outPath = args[1]
	}

	solid := extrude(rec, stencilHeight)
	if err := writeSTL(outPath, solid); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Fprintln(os.Stderr, "wrote", outPath)

	if keepPreview {
		pngPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".png"
		if err := writePreviewPNG(pngPath, rec); err != nil {
			return fmt.Errorf("writing preview %s: %w", pngPath, err)
		}
		fmt.Fprintln(os.Stderr, "wrote", pngPath)
	}
	return nil
}

// looksLikeExcellon classifies a file by its extension, the same way most
// Gerber viewers guess layer type before the caller's own classifier runs:
// drill files conventionally use .drl, .txt, or .xln.
func looksLikeExcellon(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".drl", ".xln", ".txt":
		return true
	default:
		return false
	}
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	return strings.TrimSuffix(inPath, ext) + ".stl"
}
