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

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage member tokens",
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <member-id>",
	Short: "Revoke every token owned by a member",
	Long: `Revoke deletes the Challenge, Session, and Ephemeral tokens owned by the
given member, forcing re-authentication. Use this to eject a misbehaving
or compromised participant from a room.`,
	Args: cobra.ExactArgs(1),
	Example: `  santa-cli token revoke 9b1f6b2e-...`,
	RunE: runTokenRevoke,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenRevokeCmd)
}

func runTokenRevoke(cmd *cobra.Command, args []string) error {
	memberID := args[0]

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.RevokeAll(cmd.Context(), memberID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}

	fmt.Printf("Revoked all tokens for member %s\n", memberID)
	return nil
}
