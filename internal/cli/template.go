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

	"tablostudio/internal/naming"
	"tablostudio/internal/telemetry"
)

// templateCommand groups the template operations over the global store.
func (c *CLI) templateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Capture, apply and manage board templates",
	}
	cmd.AddCommand(c.templateSaveCmd())
	cmd.AddCommand(c.templateApplyCmd())
	cmd.AddCommand(c.templateListCmd())
	cmd.AddCommand(c.templateRenameCmd())
	cmd.AddCommand(c.templateDeleteCmd())
	return cmd
}

func (c *CLI) templateSaveCmd() *cobra.Command {
	var (
		size string
		doc  string
	)
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Extract the current layout into a reusable template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, ok := naming.ParseSizeValue(size)
			if !ok {
				return fmt.Errorf(`invalid size %q: want "kistablo" or "<height>x<width>"`, size)
			}
			ctx, cancel := c.scriptCtx(cmd.Context())
			defer cancel()
			c.loadSettings(ctx)

			t, err := c.templateEngine().SaveTemplate(ctx, args[0], float64(board.WidthCm), float64(board.HeightCm), doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "template saved: %s (%d student slots, %d teacher slots)\n",
				t.ID, len(t.StudentSlots), len(t.TeacherSlots))
			return nil
		},
	}
	cmd.Flags().StringVar(&size, "size", "kistablo", `board size: "kistablo" or "<height>x<width>" in cm`)
	cmd.Flags().StringVar(&doc, "doc", "", "read from this open document instead of the active one")
	return cmd
}

func (c *CLI) templateApplyCmd() *cobra.Command {
	var doc string
	cmd := &cobra.Command{
		Use:   "apply <template-id>",
		Short: "Apply a stored template to the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.scriptCtx(cmd.Context())
			defer cancel()
			if err := c.templateEngine().ApplyTemplate(ctx, args[0], doc); err != nil {
				return err
			}
			telemetry.Event(telemetry.EventTemplateApply, map[string]any{"template": args[0]})
			fmt.Fprintf(cmd.OutOrStdout(), "template applied: %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&doc, "doc", "", "apply to this open document instead of the active one")
	return cmd
}

func (c *CLI) templateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the stored templates, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := c.templateEngine().Store().List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				fmt.Fprintln(out, "no templates")
				return nil
			}
			for _, info := range infos {
				fmt.Fprintf(out, "%s\t%s\t%d student slots, %d teacher slots\t%s\n",
					info.ID, info.TemplateName, info.StudentSlots, info.TeacherSlots, info.CreatedAt)
			}
			return nil
		},
	}
}

func (c *CLI) templateRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <template-id> <new-name>",
		Short: "Change a template's display name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.templateEngine().Store().Rename(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed: %s -> %q\n", t.ID, t.TemplateName)
			return nil
		},
	}
}

func (c *CLI) templateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <template-id>",
		Short: "Delete a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.templateEngine().Store().Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted: %s\n", args[0])
			return nil
		},
	}
}
