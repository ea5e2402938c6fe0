package main

import (
	"fmt"
	"io"
	"time"

	"github.com/gekko3d/roomview"
	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/gekko3d/roomview/viewrt/store"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	annotationType   string
	annotationWidth  float32
	annotationHeight float32
	annotateScene    sceneFlags
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Manage surface annotations",
}

var annotateAddCmd = &cobra.Command{
	Use:   "add [surface] [x] [y]",
	Short: "Add an annotation at normalized surface coordinates",
	Args:  cobra.ExactArgs(3),
	RunE:  runAnnotateAdd,
}

var annotateTapCmd = &cobra.Command{
	Use:   "tap [x] [y]",
	Short: "Add an annotation where a screen tap lands",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnnotateTap,
}

var annotateListCmd = &cobra.Command{
	Use:   "list [surface]",
	Short: "List annotations, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnnotateList,
}

var annotateDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete one annotation",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnnotateDelete,
}

var annotateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every annotation",
	Args:  cobra.NoArgs,
	RunE:  runAnnotateClear,
}

func init() {
	for _, c := range []*cobra.Command{annotateAddCmd, annotateTapCmd} {
		c.Flags().StringVar(&annotationType, "type", "spray", "annotation type: spray, sand or obstacle")
	}
	annotateAddCmd.Flags().Float32Var(&annotationWidth, "size-x", 0, "normalized width (default: the configured annotation size)")
	annotateAddCmd.Flags().Float32Var(&annotationHeight, "size-y", 0, "normalized height (default: the configured annotation size)")
	annotateScene.register(annotateTapCmd)

	annotateCmd.AddCommand(annotateAddCmd, annotateTapCmd, annotateListCmd, annotateDeleteCmd, annotateClearCmd)
	rootCmd.AddCommand(annotateCmd)
}

func runAnnotateAdd(cmd *cobra.Command, args []string) error {
	surface, err := core.ParseSurface(args[0])
	if err != nil {
		return err
	}
	pos, err := parseFloats(args[1:])
	if err != nil {
		return err
	}
	typ, err := store.ParseAnnotationType(annotationType)
	if err != nil {
		return err
	}

	v, err := openViewer(nil)
	if err != nil {
		return err
	}
	defer v.Close()

	size := mgl32.Vec2{annotationWidth, annotationHeight}
	for i := range size {
		if size[i] == 0 {
			size[i] = v.Config().DefaultAnnotationSize
		}
	}
	a, err := v.AddAnnotationAt(surface, mgl32.Vec2{pos[0], pos[1]}, size, typ)
	if err != nil {
		return err
	}
	printAnnotations(cmd.OutOrStdout(), []store.Annotation{a})
	return nil
}

func runAnnotateTap(cmd *cobra.Command, args []string) error {
	xy, err := parseFloats(args)
	if err != nil {
		return err
	}
	typ, err := store.ParseAnnotationType(annotationType)
	if err != nil {
		return err
	}

	v, err := openViewer(&annotateScene)
	if err != nil {
		return err
	}
	defer v.Close()

	v.Modes().SetAnnotationType(typ)
	hit, err := v.Cast(xy[0], xy[1])
	if err != nil {
		return err
	}
	if !hit.Hit {
		return fmt.Errorf("tap (%g, %g): %w", xy[0], xy[1], roomview.ErrNoHit)
	}
	a, err := v.AddAnnotation(hit)
	if err != nil {
		return err
	}
	printAnnotations(cmd.OutOrStdout(), []store.Annotation{a})
	return nil
}

func runAnnotateList(cmd *cobra.Command, args []string) error {
	v, err := openViewer(nil)
	if err != nil {
		return err
	}
	defer v.Close()

	anns := v.Annotations()
	if len(args) == 1 {
		surface, err := core.ParseSurface(args[0])
		if err != nil {
			return err
		}
		anns = v.AnnotationsOn(surface)
	}
	if len(anns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No annotations")
		return nil
	}
	printAnnotations(cmd.OutOrStdout(), anns)
	return nil
}

func runAnnotateDelete(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid annotation id %q: %w", args[0], err)
	}
	v, err := openViewer(nil)
	if err != nil {
		return err
	}
	defer v.Close()

	if err := v.DeleteAnnotation(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
	return nil
}

func runAnnotateClear(cmd *cobra.Command, args []string) error {
	v, err := openViewer(nil)
	if err != nil {
		return err
	}
	defer v.Close()

	n, err := v.ClearAnnotations()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d annotations\n", n)
	return nil
}

func printAnnotations(out io.Writer, anns []store.Annotation) {
	for _, a := range anns {
		fmt.Fprintf(out, "%s  %-10s %-10s pos (%.3f, %.3f) size (%.3f, %.3f)  %s\n",
			a.ID, a.Type, a.Surface,
			a.Position[0], a.Position[1], a.Size[0], a.Size[1],
			a.CreatedAt.Format(time.RFC3339))
	}
}
