// Command mariadb-query runs ad hoc statements against a configured MariaDB host.
//
// Usage:
//
//	mariadb-query --config mariadb.yaml --host accounts query \
//	    "SELECT member_uid, grade FROM accounts.member WHERE grade=:grade" --param grade=gold
//	mariadb-query --host accounts exec "DELETE FROM accounts.session WHERE expires_at<NOW()"
//	mariadb-query hosts
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	// Version information (set by build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
