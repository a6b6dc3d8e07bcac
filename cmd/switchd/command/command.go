// Package command wires the switchd subcommands into a single CLI
// application.
package command

import (
	"time"

	"github.com/urfave/cli"

	"github.com/packetplane/switchd/pkg/log"
	"github.com/packetplane/switchd/version"
)

const usage = `
# to check a desired port configuration against a platform mapping
switchd validate --platform platform.yaml --state state.yaml

# to inspect the lane groups of a platform
switchd show --platform platform.yaml
`

func App() *cli.App {
	app := cli.NewApp()

	app.Name = "switchd"
	app.Version = version.Version
	app.Usage = usage
	app.Description = "switch ASIC lane configuration tooling"

	logLevelFlag := cli.StringFlag{
		Name:  "log-level,l",
		Usage: "set the logging level [debug, info, warn, error, fatal, panic, dpanic]",
	}
	platformFlag := cli.StringFlag{
		Name:  "platform,p",
		Usage: "platform mapping YAML file",
	}
	dbFlag := cli.StringFlag{
		Name:  "db",
		Usage: "lane event journal SQLite file",
		Value: "/var/lib/switchd/switchd.db",
	}

	app.Commands = []cli.Command{
		{
			Name:   "validate",
			Usage:  "check whether a desired port configuration is realizable on the platform's lane resources",
			Action: validateCommand,
			Flags: []cli.Flag{
				platformFlag,
				cli.StringFlag{
					Name:  "state,s",
					Usage: "desired state YAML file",
				},
				logLevelFlag,
			},
		},
		{
			Name:   "show",
			Usage:  "print the platform's ports and lane groups",
			Action: showCommand,
			Flags: []cli.Flag{
				platformFlag,
				logLevelFlag,
			},
		},
		{
			Name:   "events",
			Usage:  "print the lane transition journal",
			Action: eventsCommand,
			Flags: []cli.Flag{
				dbFlag,
				cli.DurationFlag{
					Name:  "since",
					Usage: "only print events newer than this",
					Value: 7 * 24 * time.Hour,
				},
				logLevelFlag,
			},
		},
		{
			Name:   "compact",
			Usage:  "compact the lane event journal database",
			Action: compactCommand,
			Flags: []cli.Flag{
				dbFlag,
				logLevelFlag,
			},
		},
	}

	return app
}

func setupLogger(cliContext *cli.Context) error {
	zapLvl, err := log.ParseLogLevel(cliContext.String("log-level"))
	if err != nil {
		return err
	}
	log.SetLogger(log.CreateLogger(zapLvl, ""))
	return nil
}
