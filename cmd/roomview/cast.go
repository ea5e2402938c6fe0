package main

import (
	"fmt"
	"io"

	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/spf13/cobra"
)

var castScene sceneFlags

var castCmd = &cobra.Command{
	Use:   "cast [x] [y]",
	Short: "Resolve a screen tap to a room surface",
	Long:  "Cast a ray through the screen pixel (x, y), origin top-left, and report the nearest surface it leaves the room through.",
	Args:  cobra.ExactArgs(2),
	RunE:  runCast,
}

func init() {
	castScene.register(castCmd)
	rootCmd.AddCommand(castCmd)
}

func runCast(cmd *cobra.Command, args []string) error {
	xy, err := parseFloats(args)
	if err != nil {
		return err
	}
	v, err := openViewer(&castScene)
	if err != nil {
		return err
	}
	defer v.Close()

	hit, err := v.Cast(xy[0], xy[1])
	if err != nil {
		return err
	}
	printHit(cmd.OutOrStdout(), hit)
	fmt.Fprintf(cmd.OutOrStdout(), "Camera inside: %v\n", v.Frame().CameraInside)
	return nil
}

func printHit(out io.Writer, hit core.RayHit) {
	if !hit.Hit {
		fmt.Fprintln(out, "No hit")
		return
	}
	fmt.Fprintf(out, "Surface: %s\n", hit.Surface)
	fmt.Fprintf(out, "Normalized: (%.4f, %.4f)\n", hit.Normalized[0], hit.Normalized[1])
	fmt.Fprintf(out, "World: %s\n", formatVec(hit.World))
	fmt.Fprintf(out, "Distance: %.4f\n", hit.T)
}
