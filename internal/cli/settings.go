/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"tablostudio/internal/domain"
)

// settingsCommand exposes the persisted layout settings.
func (c *CLI) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the stored layout settings",
	}
	cmd.AddCommand(c.settingsShowCmd())
	cmd.AddCommand(c.settingsSetCmd())
	return cmd
}

func (c *CLI) settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective layout settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.scriptCtx(cmd.Context())
			defer cancel()
			c.loadSettings(ctx)
			s := c.Settings
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "margin-cm            %g\n", s.MarginCm)
			fmt.Fprintf(out, "student-size-cm      %g\n", s.StudentSizeCm)
			fmt.Fprintf(out, "teacher-size-cm      %g\n", s.TeacherSizeCm)
			fmt.Fprintf(out, "gap-h-cm             %g\n", s.GapHCm)
			fmt.Fprintf(out, "gap-v-cm             %g\n", s.GapVCm)
			fmt.Fprintf(out, "name-gap-cm          %g\n", s.NameGapCm)
			fmt.Fprintf(out, "name-break-after     %d\n", s.NameBreakAfter)
			fmt.Fprintf(out, "text-align           %s\n", s.TextAlign)
			fmt.Fprintf(out, "grid-align           %s\n", s.GridAlign)
			fmt.Fprintf(out, "position-gap-cm      %g\n", s.PositionGapCm)
			fmt.Fprintf(out, "position-font-size   %d\n", s.PositionFontSize)
			fmt.Fprintf(out, "sample-size-large    %d\n", s.SampleSizeLarge)
			fmt.Fprintf(out, "sample-size-small    %d\n", s.SampleSizeSmall)
			fmt.Fprintf(out, "sample-use-large     %t\n", s.SampleUseLargeSize)
			fmt.Fprintf(out, "watermark-text       %s\n", s.SampleWatermarkText)
			fmt.Fprintf(out, "watermark-color      %s\n", s.SampleWatermarkColor)
			fmt.Fprintf(out, "watermark-opacity    %g\n", s.SampleWatermarkOpacity)
			return nil
		},
	}
}

// settingSetters maps the CLI key names onto the persisting setters.
func (c *CLI) settingSetters() map[string]func(context.Context, string) error {
	s := c.Settings
	float := func(set func(context.Context, float64) error) func(context.Context, string) error {
		return func(ctx context.Context, raw string) error {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("not a number: %q", raw)
			}
			return set(ctx, v)
		}
	}
	integer := func(set func(context.Context, int) error) func(context.Context, string) error {
		return func(ctx context.Context, raw string) error {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("not an integer: %q", raw)
			}
			return set(ctx, v)
		}
	}
	return map[string]func(context.Context, string) error{
		"margin-cm":          float(s.SetMargin),
		"student-size-cm":    float(s.SetStudentSize),
		"teacher-size-cm":    float(s.SetTeacherSize),
		"gap-h-cm":           float(s.SetGapH),
		"gap-v-cm":           float(s.SetGapV),
		"name-gap-cm":        float(s.SetNameGap),
		"name-break-after":   integer(s.SetNameBreakAfter),
		"position-gap-cm":    float(s.SetPositionGap),
		"position-font-size": integer(s.SetPositionFontSize),
		"sample-size-large":  integer(s.SetSampleSizeLarge),
		"sample-size-small":  integer(s.SetSampleSizeSmall),
		"watermark-opacity":  float(s.SetSampleWatermarkOpacity),
		"text-align": func(ctx context.Context, raw string) error {
			return s.SetTextAlign(ctx, domain.Justification(raw))
		},
		"grid-align": func(ctx context.Context, raw string) error {
			return s.SetGridAlign(ctx, raw)
		},
		"sample-use-large": func(ctx context.Context, raw string) error {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("not a boolean: %q", raw)
			}
			return s.SetSampleUseLargeSize(ctx, v)
		},
		"watermark-text": func(ctx context.Context, raw string) error {
			return s.SetSampleWatermarkText(ctx, raw)
		},
		"watermark-color": func(ctx context.Context, raw string) error {
			return s.SetSampleWatermarkColor(ctx, raw)
		},
	}
}

func (c *CLI) settingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist one layout setting",
		Long:  "Persist one layout setting through the host settings store. Run 'settings show' for the key names.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			setters := c.settingSetters()
			set, ok := setters[args[0]]
			if !ok {
				keys := make([]string, 0, len(setters))
				for k := range setters {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				return fmt.Errorf("unknown setting %q; known: %v", args[0], keys)
			}
			ctx, cancel := c.scriptCtx(cmd.Context())
			defer cancel()
			c.loadSettings(ctx)
			if err := set(ctx, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	}
}
