// The registry server: replace-semantics bundle import/export and the
// linked-data projection of stored community graphs.
package main

import (
	"github.com/celine-eu/rec-registry/internal/server"
	"github.com/celine-eu/rec-registry/internal/util"
	"github.com/celine-eu/rec-registry/pkg/logger"
	"github.com/celine-eu/rec-registry/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
	}))

	server.Init()
}
