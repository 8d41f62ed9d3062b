// ABOUTME: Entry point for the onsite visit recap tool
// ABOUTME: Runs the interview TUI by default and routes subcommands to the cli package
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/harperreed/onsite/charm"
	"github.com/harperreed/onsite/cli"
	"github.com/harperreed/onsite/config"
)

const version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	storagePath := flag.String("storage-path", "", "Storage path (default: ~/.local/share/onsite/visits)")
	flag.Usage = printUsage
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("onsite version %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *storagePath != "" {
		cfg.StoragePath = *storagePath
	}

	args := flag.Args()
	command := "tui"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "help":
		printUsage()
		return

	case "config":
		if err := cli.ConfigCommand(cfg, os.Stdout); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return

	case "auth":
		if err := cli.AuthCommand(cfg, args, os.Stdout); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return

	case "sync":
		if err := charm.SyncCommand(args, os.Stdout); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	app, err := cli.OpenApp(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer func() { _ = app.Close() }()

	switch command {
	case "tui":
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Println("Error: the interview needs an interactive terminal")
			printUsage()
			_ = app.Close()
			os.Exit(1)
		}
		err = app.RunTUI()
	case "mcp":
		err = cli.MCPCommand(app.Store, version, app.Logger)
	case "list":
		err = app.ListCommand(args, os.Stdout)
	case "show":
		err = app.ShowCommand(args, os.Stdout)
	case "export":
		err = app.ExportCommand(args, os.Stdout)
	case "delete":
		err = app.DeleteCommand(args, os.Stdout)
	case "stats":
		err = app.StatsCommand(os.Stdout)
	case "serve":
		err = app.ServeCommand(args, os.Stdout)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		_ = app.Close()
		os.Exit(1)
	}

	if err != nil {
		_ = app.Close()
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Printf(`onsite v%s - Guided onsite customer visit recaps

USAGE:
  onsite [global flags] [command] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --storage-path <path>  Override the storage location from config

COMMANDS:
  (none), tui            Start the guided interview
  list                   List visit recaps
    --query <text>         Filter by customer, account or summary text
    --drafts               List unfinished visits instead
    --limit <n>            Max results (default: 20)
  show <id>              Print a visit recap
  export <id>            Save a visit recap as PDF
    --output <file>        PDF path (default: Downloads folder)
    --upload               Also upload it to Google Drive
  delete <id>            Delete a visit and its recordings
  stats                  Show account health, open action items and follow-ups
  auth                   Connect Google Drive
    --status               Only report whether Drive is connected
  sync <sub>             Charm sync: status, now, auto, wipe
  serve                  Browse recaps in a web browser
    --addr <host:port>     Listen address (default: localhost:8090)
  mcp                    Start MCP server on stdio
  config                 Show settings and file locations

Visit IDs may be shortened to the prefix shown by list.
Settings live in %s
`, version, config.FilePath())
}
