package main

import (
	"fmt"

	"github.com/gekko3d/roomview/viewrt/scan"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"
)

var infoUpAxis bool

var infoCmd = &cobra.Command{
	Use:   "info [scan.ply]",
	Short: "Display the bounding volume of a PLY scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoUpAxis, "up-axis", false, "convert the scan from Z-up to Y-up")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cloud, err := scan.LoadPLYFile(args[0], scan.Options{FixUpAxis: infoUpAxis})
	if err != nil {
		return err
	}
	b := cloud.Bounds

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Scan Information")
	fmt.Fprintln(out, "================")
	fmt.Fprintf(out, "File: %s\n", args[0])
	fmt.Fprintf(out, "Format: %s\n", cloud.Format)
	fmt.Fprintf(out, "Vertices: %d\n\n", cloud.VertexCount)

	fmt.Fprintln(out, "Bounding Volume:")
	fmt.Fprintf(out, "  Min: %s\n", formatVec(b.Min))
	fmt.Fprintf(out, "  Max: %s\n", formatVec(b.Max))
	fmt.Fprintf(out, "  Center: %s\n", formatVec(b.Center()))
	fmt.Fprintf(out, "  Size: %.4f x %.4f x %.4f\n\n", b.Width(), b.Height(), b.Depth())

	fitted, scale := b.Fit(cfg.RoomSize)
	fmt.Fprintf(out, "Fitted to room %s:\n", formatVec(cfg.RoomSize))
	fmt.Fprintf(out, "  Scale: %.6f\n", scale)
	fmt.Fprintf(out, "  Min: %s\n", formatVec(fitted.Min))
	fmt.Fprintf(out, "  Max: %s\n", formatVec(fitted.Max))
	return nil
}

func formatVec(v mgl32.Vec3) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v[0], v[1], v[2])
}
