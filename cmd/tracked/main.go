package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// Globals are shared by every command.
type Globals struct {
	Store       string `help:"Storage backend." enum:"postgres,memory" default:"postgres" env:"STORE"`
	DatabaseURL string `help:"PostgreSQL connection string." env:"DATABASE_URL"`

	LogLevel     string `help:"Log level." default:"info" env:"LOG_LEVEL"`
	LogFormat    string `help:"Log format (text or json)." enum:"text,json" default:"text" env:"LOG_FORMAT"`
	LogFile      string `help:"Also write logs to this rotating file." type:"path" env:"LOG_FILE"`
	LogMaxSizeMB int    `help:"Rotate the log file after this many megabytes." default:"10" env:"LOG_MAX_SIZE_MB"`
}

var CLI struct {
	Globals

	Serve    ServeCmd    `cmd:"" help:"Run the HTTP server." default:"1"`
	Migrate  MigrateCmd  `cmd:"" help:"Apply the PostgreSQL schema and exit."`
	DemoUser DemoUserCmd `cmd:"" name:"demo-user" help:"Create a demo account with catalog trackers."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("tracked"),
		kong.Description("Daily habit and metric tracker"),
		kong.UsageOnError(),
	)

	if err := ctx.Run(&CLI.Globals); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
