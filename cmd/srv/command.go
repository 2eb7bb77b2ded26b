package main

import "github.com/urfave/cli/v2"

// loadApp creates an app with sane defaults.
func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "Drawbot"
	app.Usage = ""
	app.Before = s.loadConfig
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path of the TOML config file",
		},
	}
	app.Commands = []*cli.Command{
		{
			Action:      s.startBot,
			Name:        "bot",
			Usage:       "Start the chat bot",
			Category:    "Bot",
			Description: `Long-polls chat updates and serves lottery commands, joins, and group messages.`,
		},
		{
			Action:      s.startCron,
			Name:        "cron",
			Usage:       "Start the lottery scheduler",
			Category:    "Worker",
			Description: `Runs the recurring job that draws due lotteries, expires stale ones, and purges old records.`,
		},
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate the database schema",
			Category:    "Database",
			Description: `Creates or updates all tables and exits.`,
		},
	}

	s.app = app
}
