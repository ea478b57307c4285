package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frostbyte-dev/santa-ring/core/store/postgres"
)

// openStore connects to the database named by the --database-url flag,
// bailing out with a usage error if it's unset.
func openStore(cmd *cobra.Command) (*postgres.Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("--database-url (or $DATABASE_URL) is required")
	}
	return postgres.NewStore(cmd.Context(), postgres.Config{DatabaseURL: databaseURL})
}
