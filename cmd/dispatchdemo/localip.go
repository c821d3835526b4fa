package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	dispatcher "github.com/Swind/go-dispatcher"
	"github.com/Swind/go-dispatcher/netutil"
)

func localIPCommand() *cli.Command {
	return &cli.Command{
		Name:  "localip",
		Usage: "Print the local address found by the interface scan",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Interface name prefix (overrides interface_prefix)",
			},
		},
		Action: localIPAction,
	}
}

func localIPAction(c *cli.Context) error {
	cfg, err := dispatcher.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	if p := c.String("prefix"); p != "" {
		cfg.InterfacePrefix = p
	}

	ip := netutil.LocalIPAddress(netutil.SystemNetwork{},
		netutil.WithInterfacePrefix(cfg.InterfacePrefix),
		netutil.WithLogger(cfg.Logger()),
	)
	if ip == nil {
		return cli.Exit(fmt.Sprintf("no address on %s* interfaces", cfg.InterfacePrefix), 1)
	}

	fmt.Printf("%s (unix %d)\n", ip, netutil.CurrentUnixTimeSeconds())
	return nil
}
