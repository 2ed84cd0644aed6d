// ABOUTME: Entry point for the hazardos site survey CLI and MCP server
// ABOUTME: Routes to survey, sync, cache, or MCP commands based on arguments
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/markahope-aag/hazardos-sub000/charm"
	"github.com/markahope-aag/hazardos-sub000/cli"
	"github.com/markahope-aag/hazardos-sub000/config"
	"github.com/markahope-aag/hazardos-sub000/db"
	"github.com/markahope-aag/hazardos-sub000/logging"
)

type command func(*cli.App, []string) error

var surveyCommands = map[string]command{
	"new":        cli.SurveyNewCommand,
	"list":       cli.SurveyListCommand,
	"use":        cli.SurveyUseCommand,
	"show":       cli.SurveyShowCommand,
	"set":        cli.SurveySetCommand,
	"goto":       cli.SurveyGotoCommand,
	"hazard":     cli.SurveyHazardCommand,
	"material":   cli.SurveyMaterialCommand,
	"area":       cli.SurveyAreaCommand,
	"component":  cli.SurveyComponentCommand,
	"photo":      cli.SurveyPhotoCommand,
	"validate":   cli.SurveyValidateCommand,
	"thresholds": cli.SurveyThresholdsCommand,
	"submit":     cli.SurveySubmitCommand,
	"discard":    cli.SurveyDiscardCommand,
	"tui":        cli.TUICommand,
}

var syncCommands = map[string]command{
	"now":    cli.SyncNowCommand,
	"status": cli.SyncStatusCommand,
	"login":  cli.SyncLoginCommand,
	"daemon": cli.SyncDaemonCommand,
}

var cacheCommands = map[string]func(*charm.Client, []string) error{
	"link":   func(c *charm.Client, args []string) error { return charm.LinkCommand(c, os.Stdout, args) },
	"status": func(c *charm.Client, args []string) error { return charm.StatusCommand(c, os.Stdout, args) },
	"now":    func(c *charm.Client, args []string) error { return charm.NowCommand(c, os.Stdout, args) },
	"wipe":   func(c *charm.Client, args []string) error { return charm.WipeCommand(c, os.Stdout, args) },
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/hazardos/hazardos.db)")
	initOnly := flag.Bool("init", false, "Initialize database and config, then exit")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("hazardos version %s\n", cli.Version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	logging.InitLogger(config.AppName)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.EnsureDeviceID() {
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}
	}

	finalDBPath := getDatabasePath(*dbPath)
	database, err := db.OpenDatabase(finalDBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	if *initOnly {
		fmt.Printf("✓ Database initialized: %s\n", finalDBPath)
		fmt.Printf("✓ Config: %s\n", config.Path())
		return
	}

	cache, err := charm.Open(charm.ConfigFrom(cfg.Cache))
	if err != nil {
		log.Fatalf("Failed to open draft cache: %v", err)
	}
	app := cli.NewApp(cfg, database, cache)

	name, commandArgs := args[0], args[1:]
	switch name {
	case "mcp":
		if err := cli.MCPCommand(app); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	case "survey":
		dispatch(app, "survey", surveyCommands, commandArgs)

	case "sync":
		dispatch(app, "sync", syncCommands, commandArgs)

	case "cache":
		if len(commandArgs) == 0 {
			fmt.Println("Error: cache requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		run, ok := cacheCommands[commandArgs[0]]
		if !ok {
			fmt.Printf("Unknown cache command: %s\n\n", commandArgs[0])
			printUsage()
			os.Exit(1)
		}
		if err := run(cache, commandArgs[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}
}

func dispatch(app *cli.App, group string, commands map[string]command, args []string) {
	if len(args) == 0 {
		fmt.Printf("Error: %s requires a subcommand\n", group)
		printUsage()
		os.Exit(1)
	}
	run, ok := commands[args[0]]
	if !ok {
		fmt.Printf("Unknown %s command: %s\n\n", group, args[0])
		printUsage()
		os.Exit(1)
	}
	if err := run(app, args[1:]); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func getDatabasePath(dbPath string) string {
	if dbPath != "" {
		return dbPath
	}
	return config.DatabasePath()
}

func printUsage() {
	fmt.Printf(`hazardos v%s - Site survey capture for environmental hazard remediation

USAGE:
  hazardos [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/hazardos/hazardos.db)
  --init                 Initialize database and config, then exit

COMMANDS:
  survey                 Edit, validate and submit the active survey draft
  sync                   Remote sync, login and background daemon
  cache                  Charm draft cache commands
  mcp                    Start MCP server for AI assistants

SURVEY COMMANDS:
  hazardos survey new       Start a new survey and make it active
    --customer <id>           Customer the survey belongs to

  hazardos survey list      List cached surveys (* marks the active one)
  hazardos survey use <id>  Make a cached survey active
  hazardos survey show      Show the active survey

  hazardos survey set <section> key=value...   Update a section
  hazardos survey set <section> '<json>'       Merge a JSON object into a section
    Sections: property, access, environment, hazards, review
    Use key=null to clear an optional field

  hazardos survey goto next|back|<section>     Move through the wizard

  hazardos survey hazard toggle <type>         Toggle asbestos, mold, lead or other
  hazardos survey hazard set <a,b,...>         Replace the hazard selection
  hazardos survey hazard other <text>          Describe an "other" hazard

  hazardos survey material add|remove          Asbestos materials
    --type --quantity --unit --location --condition --friable --notes
  hazardos survey area add|remove              Mold affected areas
    --location --sqft --material --severity
  hazardos survey component add|remove         Lead components
    --type --location --quantity --unit --condition

  hazardos survey photo add [flags] <file>     Attach a photo and queue its upload
    --category --location --caption --gps <lat,lon>
  hazardos survey photo list|retry <id>|remove <id>

  hazardos survey validate    Check every section
  hazardos survey thresholds  Show derived regulatory values
  hazardos survey submit      Upload photos and submit the survey
    --timeout <duration>        How long to wait for photo uploads
  hazardos survey discard --confirm   Delete the active draft
  hazardos survey tui         Walk the survey in an interactive wizard
    --customer <id>             Customer for a new survey when none is active

SYNC COMMANDS:
  hazardos sync now          Upload pending photos, resync, finish deferred submits
  hazardos sync status       Show network, remote and per-survey sync state
    --log <n>                  Number of sync log entries (default: 10)
  hazardos sync login        Store API credentials for the REST backend
    --base-url --token-url --client-id --org
  hazardos sync daemon       Keep syncing in the background
    --interval <duration>      Catch-up interval (default: 5m, minimum: 30s)
    --http-addr <addr>         Serve the status dashboard and metrics (e.g. :8080)

CACHE COMMANDS:
  hazardos cache link        Link this device to the charm server
  hazardos cache status      Show draft cache status
  hazardos cache now         Sync the draft cache now
  hazardos cache wipe        Delete all cached drafts

EXAMPLES:
  # Start a survey and fill in the property
  hazardos survey new --customer cust-42
  hazardos survey set property address="12 Elm St" city=Madison state=WI zip=53703 year_built=1965

  # Record friable pipe insulation
  hazardos survey hazard toggle asbestos
  hazardos survey material add --type pipe_insulation --quantity 120 --unit linear_ft --friable

  # Walk the survey interactively
  hazardos survey tui

`, cli.Version)
}
