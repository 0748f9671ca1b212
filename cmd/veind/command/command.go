package command

import (
	"github.com/urfave/cli"

	cmdrun "github.com/vein-tools/veind/cmd/veind/run"
	"github.com/vein-tools/veind/version"
)

const usage = `
# to run the control-plane API beside the game server
veind run

# with a shared-secret credential for the mutating routes
veind run --api-key <KEY>
`

func App() *cli.App {
	app := cli.NewApp()

	app.Name = "veind"
	app.Version = version.Version
	app.Usage = usage
	app.Description = "control-plane API for the Vein dedicated server"

	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "run the control-plane HTTP server in the foreground",
			UsageText: `# defaults come from the container environment
veind run

# or override on the command line
veind run --address :9081 --server-dir /home/steam/vein-server --appid 2131400
`,
			Action: cmdrun.Command,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "address",
					Usage: "listen address for the control-plane API (default: :9081, env SERVER_API_PORT)",
				},
				&cli.StringFlag{
					Name:  "server-dir",
					Usage: "game server install directory (env SERVER_PATH)",
				},
				&cli.StringFlag{
					Name:  "config-dir",
					Usage: "directory holding Game.ini and Engine.ini (env CONFIG_PATH)",
				},
				&cli.StringFlag{
					Name:  "log-dir",
					Usage: "directory holding the server log files (env LOG_DIR)",
				},
				&cli.StringFlag{
					Name:  "api-key",
					Usage: "shared secret required on the /api routes (env SERVER_API_KEY)",
				},
				&cli.StringFlag{
					Name:  "appid",
					Usage: "steam app id of the dedicated server (env APPID)",
				},
				&cli.StringFlag{
					Name:  "process-name",
					Usage: "binary name used to find the running server process (env SERVER_PROCESS_NAME)",
				},
				&cli.DurationFlag{
					Name:  "graceful-timeout",
					Usage: "how long to wait after SIGTERM before escalating to SIGKILL on restart",
				},
				&cli.StringFlag{
					Name:  "log-level,l",
					Usage: "set the logging level [debug, info, warn, error, fatal, panic, dpanic]",
				},
				&cli.StringFlag{
					Name:  "log-file",
					Usage: "set the log file path (set empty to log to stdout/stderr)",
				},
			},
		},
	}

	return app
}
