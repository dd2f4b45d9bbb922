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
)

// hostCommand groups the editor connection operations.
func (c *CLI) hostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Detect, launch and drive the image editor",
	}
	cmd.AddCommand(c.hostDetectCmd())
	cmd.AddCommand(c.hostLaunchCmd())
	cmd.AddCommand(c.hostOpenCmd())
	cmd.AddCommand(c.hostSaveCloseCmd())
	cmd.AddCommand(c.hostBackupCmd())
	cmd.AddCommand(c.hostStatusCmd())
	return cmd
}

func (c *CLI) hostDetectCmd() *cobra.Command {
	var set string
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Find the editor in known install locations or on PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if set != "" {
				if err := c.Conn.SetExecutable(set); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "editor set: %s\n", set)
				return nil
			}
			path, err := c.Conn.Detect()
			if err != nil {
				return fmt.Errorf("no editor found; install one or pass --set <path>")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "editor found: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "use this editor path instead of probing")
	return cmd
}

func (c *CLI) hostLaunchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Start the configured editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Conn.Launch(cmd.Context())
		},
	}
}

func (c *CLI) hostOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <document>",
		Short: "Open a board document in the editor and track it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.scriptCtx(cmd.Context())
			defer cancel()
			if err := c.Conn.OpenDocument(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "opened: %s\n", args[0])
			return nil
		},
	}
}

func (c *CLI) hostSaveCloseCmd() *cobra.Command {
	var doc string
	cmd := &cobra.Command{
		Use:   "save-close",
		Short: "Save and close the tracked (or given) document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.scriptCtx(cmd.Context())
			defer cancel()
			return c.Conn.SaveAndClose(ctx, doc)
		},
	}
	cmd.Flags().StringVar(&doc, "doc", "", "document path (default: tracked document)")
	return cmd
}

func (c *CLI) hostBackupCmd() *cobra.Command {
	var doc string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the tracked document to a .bak file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if doc != "" {
				c.Conn.TrackDocument(doc)
			}
			path, err := c.Conn.Backup()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup written: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&doc, "doc", "", "document path (default: tracked document)")
	return cmd
}

func (c *CLI) hostStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the connection state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if c.Port.Available() {
				fmt.Fprintln(out, "editor: available")
			} else {
				fmt.Fprintln(out, "editor: not connected")
			}
			if exe := c.Config.Host.Executable; exe != "" {
				fmt.Fprintf(out, "configured path: %s\n", exe)
			}
			if doc := c.Conn.Document(); doc != "" {
				fmt.Fprintf(out, "tracked document: %s\n", doc)
			}
			return nil
		},
	}
}
