package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and seed the item catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Database ready: %s (%s)\n", redactDSN(cfg.DBDSN), cfg.DBDriver)
		return nil
	},
}

func init() {
	addServeFlags(migrateCmd)
}

// redactDSN masks the password in a postgres URL or key=value DSN. SQLite
// paths are returned as they are.
func redactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		return u.Redacted()
	}

	fields := strings.Fields(dsn)
	for i, f := range fields {
		if k, _, ok := strings.Cut(f, "="); ok && strings.EqualFold(k, "password") {
			fields[i] = k + "=xxxxx"
		}
	}
	if len(fields) > 1 || strings.Contains(dsn, "=") {
		return strings.Join(fields, " ")
	}
	return dsn
}
