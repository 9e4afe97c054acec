// forumctl is the operator CLI: schema migrations, counter repair, a manual
// auto-lock pass and token issuing for trusted identity providers.
package main

import (
	"os"

	"github.com/itchan-dev/forum/shared/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Log.Error("command failed", "error", err)
		os.Exit(1)
	}
}
