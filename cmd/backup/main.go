// Command backup dumps a MySQL database into a timestamped gzip file on the
// configured storage disk and prunes backups past their retention period.
//
// Usage:
//
//	# Dump, keeping every existing backup
//	backup
//
//	# Delete backups older than the retention period, then dump
//	backup --auto
//
//	# Only delete backups older than the retention period
//	backup --d --auto
//
//	# Only delete, removing every backup regardless of age
//	backup --d --all
//
//	# Run the --auto flow on the configured schedule
//	backup schedule
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
