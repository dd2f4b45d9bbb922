/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tablostudio/internal/layout"
	"tablostudio/internal/naming"
	"tablostudio/internal/telemetry"
)

// arrangeFlags are shared by the arrange subcommands.
type arrangeFlags struct {
	size             string
	dpi              int
	doc              string
	students         []string
	teachers         []string
	studentMaxPerRow int
	teacherMaxPerRow int
	gapH             float64
	gapV             float64
	align            string
}

func (f *arrangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.size, "size", "kistablo", `board size: "kistablo" or "<height>x<width>" in cm`)
	cmd.Flags().IntVar(&f.dpi, "dpi", 300, "document resolution")
	cmd.Flags().StringVar(&f.doc, "doc", "", "target document (default: tracked document)")
	cmd.Flags().StringSliceVar(&f.students, "student", nil, "student layer name (repeatable)")
	cmd.Flags().StringSliceVar(&f.teachers, "teacher", nil, "teacher layer name (repeatable)")
	cmd.Flags().IntVar(&f.studentMaxPerRow, "student-max-per-row", 0, "cap student photos per row (0 = fit)")
	cmd.Flags().IntVar(&f.teacherMaxPerRow, "teacher-max-per-row", 0, "cap teacher photos per row (0 = fit)")
	cmd.Flags().Float64Var(&f.gapH, "gap-h", 0, "horizontal gap override in cm (0 = stored setting)")
	cmd.Flags().Float64Var(&f.gapV, "gap-v", 0, "vertical gap override in cm (0 = stored setting)")
	cmd.Flags().StringVar(&f.align, "align", "", "row alignment override: left, center, right")
}

func (f *arrangeFlags) request() (layout.GridRequest, error) {
	size, ok := naming.ParseSizeValue(f.size)
	if !ok {
		return layout.GridRequest{}, fmt.Errorf(`invalid size %q: want "kistablo" or "<height>x<width>"`, f.size)
	}
	return layout.GridRequest{
		WidthCm:          float64(size.WidthCm),
		HeightCm:         float64(size.HeightCm),
		DPI:              f.dpi,
		Students:         f.students,
		Teachers:         f.teachers,
		StudentMaxPerRow: f.studentMaxPerRow,
		TeacherMaxPerRow: f.teacherMaxPerRow,
		LinkedLayerNames: append(append([]string{}, f.students...), f.teachers...),
		GapHCm:           f.gapH,
		GapVCm:           f.gapV,
		GridAlign:        f.align,
	}, nil
}

// arrangeCommand groups the layout arrangement operations.
func (c *CLI) arrangeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arrange",
		Short: "Arrange photo grids, captions and subtitles on the board",
	}
	cmd.AddCommand(c.arrangeTabloCmd())
	cmd.AddCommand(c.arrangeGridCmd())
	cmd.AddCommand(c.arrangeNamesCmd())
	return cmd
}

func (c *CLI) arrangeTabloCmd() *cobra.Command {
	var flags arrangeFlags
	cmd := &cobra.Command{
		Use:   "tablo",
		Short: "Run the full composition: grid, captions, subtitles",
		Long:  "Run the full tablo composition: teachers packed from the top, students from the bottom, captions centered under their photos and subtitles distributed in the free band between the groups.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			ctx, cancel := c.scriptCtx(cmd.Context())
			defer cancel()
			c.loadSettings(ctx)

			report, err := c.Ops.ArrangeTabloLayout(ctx, req, flags.doc)
			if err != nil {
				return err
			}
			telemetry.Event(telemetry.EventArrange, map[string]any{
				"mode":     "tablo",
				"students": len(req.Students),
				"teachers": len(req.Teachers),
			})
			out := cmd.OutOrStdout()
			if report.FreeZone != nil {
				fmt.Fprintf(out, "grid arranged, free zone %d..%d px\n", report.FreeZone.TopPx, report.FreeZone.BottomPx)
			} else {
				fmt.Fprintln(out, "grid arranged")
			}
			if report.NamesErr != nil {
				fmt.Fprintf(out, "warning: captions not arranged: %v\n", report.NamesErr)
			}
			if report.SubtitlesErr != nil {
				fmt.Fprintf(out, "warning: subtitles not arranged: %v\n", report.SubtitlesErr)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) arrangeGridCmd() *cobra.Command {
	var flags arrangeFlags
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Pack the photo grid top-down without captions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			ctx, cancel := c.scriptCtx(cmd.Context())
			defer cancel()
			c.loadSettings(ctx)

			if err := c.Ops.ArrangeGrid(ctx, req, flags.doc); err != nil {
				return err
			}
			telemetry.Event(telemetry.EventArrange, map[string]any{
				"mode":     "grid",
				"students": len(req.Students),
				"teachers": len(req.Teachers),
			})
			fmt.Fprintln(cmd.OutOrStdout(), "grid arranged")
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) arrangeNamesCmd() *cobra.Command {
	var (
		doc    string
		linked []string
	)
	cmd := &cobra.Command{
		Use:   "names",
		Short: "Reposition caption layers under their photos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.scriptCtx(cmd.Context())
			defer cancel()
			c.loadSettings(ctx)
			if err := c.Ops.ArrangeNames(ctx, linked, doc); err != nil {
				return err
			}
			telemetry.Event(telemetry.EventArrange, map[string]any{"mode": "names"})
			fmt.Fprintln(cmd.OutOrStdout(), "captions arranged")
			return nil
		},
	}
	cmd.Flags().StringVar(&doc, "doc", "", "target document (default: tracked document)")
	cmd.Flags().StringSliceVar(&linked, "linked", nil, "linked layer name to release during the move (repeatable)")
	return cmd
}
