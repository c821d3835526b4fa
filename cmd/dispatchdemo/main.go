// Command dispatchdemo exercises the dispatcher: it hosts the foreground loop
// on the main goroutine, routes work through the pool and reports the
// results through listeners.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "dispatchdemo",
		Usage: "foreground/background dispatch demo",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
				EnvVars: []string{"DISPATCHER_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			localIPCommand(),
			configCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
