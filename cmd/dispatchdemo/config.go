package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	dispatcher "github.com/Swind/go-dispatcher"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Print the effective configuration",
		Action: configAction,
	}
}

func configAction(c *cli.Context) error {
	cfg, err := dispatcher.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	fmt.Print(string(out))
	return nil
}
