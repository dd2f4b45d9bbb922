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
	"strings"

	"github.com/spf13/cobra"

	"tablostudio/internal/naming"
	"tablostudio/internal/telemetry"
)

// snapshotCommand groups the layout snapshot operations. Every subcommand
// takes the board document whose layouts/ directory holds the snapshots.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, list, restore and manage layout snapshots",
	}
	cmd.AddCommand(c.snapshotSaveCmd())
	cmd.AddCommand(c.snapshotListCmd())
	cmd.AddCommand(c.snapshotRestoreCmd())
	cmd.AddCommand(c.snapshotRenameCmd())
	cmd.AddCommand(c.snapshotDeleteCmd())
	return cmd
}

func (c *CLI) snapshotSaveCmd() *cobra.Command {
	var (
		size string
		doc  string
	)
	cmd := &cobra.Command{
		Use:   "save <document> <name>",
		Short: "Capture the current layout as a named snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, ok := naming.ParseSizeValue(size)
			if !ok {
				return fmt.Errorf(`invalid size %q: want "kistablo" or "<height>x<width>"`, size)
			}
			ctx, cancel := c.scriptCtx(cmd.Context())
			defer cancel()
			c.loadSettings(ctx)

			item, err := c.snapshotManager(args[0]).Save(ctx, args[1], float64(board.WidthCm), float64(board.HeightCm), doc)
			if err != nil {
				return err
			}
			telemetry.Event(telemetry.EventSnapshotSave, map[string]any{"layers": item.LayerCount})
			fmt.Fprintf(cmd.OutOrStdout(), "snapshot saved: %s (%d layers)\n", item.Path, item.LayerCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&size, "size", "kistablo", `board size: "kistablo" or "<height>x<width>" in cm`)
	cmd.Flags().StringVar(&doc, "doc", "", "read from this open document instead of the active one")
	return cmd
}

func (c *CLI) snapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <document>",
		Short: "List the snapshots of a board document, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.snapshotManager(args[0]).Store().List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "no snapshots")
				return nil
			}
			for _, it := range items {
				fmt.Fprintf(out, "%s\t%s\t%d persons, %d layers\t%s\n",
					it.FileName, it.SnapshotName, it.PersonCount, it.LayerCount, it.CreatedAt)
			}
			return nil
		},
	}
}

func (c *CLI) snapshotRestoreCmd() *cobra.Command {
	var (
		doc    string
		groups []string
	)
	cmd := &cobra.Command{
		Use:   "restore <document> <snapshot-file>",
		Short: "Apply a stored snapshot to the document",
		Long:  "Apply a stored snapshot to the document. --group narrows the restore to layers under the given group path, e.g. --group Images/Students.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prefixes [][]string
			for _, g := range groups {
				parts := strings.Split(g, "/")
				if len(parts) == 0 || parts[0] == "" {
					return fmt.Errorf("invalid group path %q", g)
				}
				prefixes = append(prefixes, parts)
			}
			ctx, cancel := c.scriptCtx(cmd.Context())
			defer cancel()
			if err := c.snapshotManager(args[0]).Restore(ctx, args[1], doc, prefixes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "snapshot restored: %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&doc, "doc", "", "apply to this open document instead of the active one")
	cmd.Flags().StringSliceVar(&groups, "group", nil, "restrict restore to a slash-joined group path (repeatable)")
	return cmd
}

func (c *CLI) snapshotRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <document> <snapshot-file> <new-name>",
		Short: "Change a snapshot's display name",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := c.snapshotManager(args[0]).Store().Rename(args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed: %s -> %q\n", item.FileName, item.SnapshotName)
			return nil
		},
	}
}

func (c *CLI) snapshotDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document> <snapshot-file>",
		Short: "Delete a snapshot file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.snapshotManager(args[0]).Store().Delete(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted: %s\n", args[1])
			return nil
		},
	}
}
