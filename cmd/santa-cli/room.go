// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var roomListLimit int

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Inspect rooms",
}

var roomListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent rooms",
	Example: `  # List the 20 most recently created rooms
  santa-cli room list --limit 20`,
	RunE: runRoomList,
}

var roomInspectCmd = &cobra.Command{
	Use:   "inspect <room-id>",
	Short: "Show a room's join code and member roster",
	Args:  cobra.ExactArgs(1),
	Example: `  santa-cli room inspect 3fae2b1a-...`,
	RunE: runRoomInspect,
}

func init() {
	rootCmd.AddCommand(roomCmd)
	roomCmd.AddCommand(roomListCmd)
	roomCmd.AddCommand(roomInspectCmd)

	roomListCmd.Flags().IntVarP(&roomListLimit, "limit", "l", 20, "maximum number of rooms to list")
}

func runRoomList(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	rooms, err := store.ListRooms(cmd.Context(), roomListLimit)
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	if len(rooms) == 0 {
		fmt.Println("No rooms found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ROOM ID\tNAME\tJOIN CODE\tMAX MEMBERS\tCREATED\n")
	fmt.Fprintf(w, "-------\t----\t---------\t-----------\t-------\n")
	for _, r := range rooms {
		maxMembers := "unlimited"
		if r.MaxMembers != nil {
			maxMembers = fmt.Sprintf("%d", *r.MaxMembers)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.JoinCode, maxMembers, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()

	fmt.Printf("\nTotal rooms shown: %d\n", len(rooms))
	return nil
}

func runRoomInspect(cmd *cobra.Command, args []string) error {
	roomID := args[0]

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	joinCode, err := store.RoomJoinCode(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to resolve room: %w", err)
	}

	names, err := store.GetMemberNames(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}

	fmt.Printf("Room ID:   %s\n", roomID)
	fmt.Printf("Join code: %s\n", joinCode)
	fmt.Printf("Members (%d):\n", len(names))
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}

	return nil
}
