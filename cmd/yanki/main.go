package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"yanki-connect/internal/adapter/tui/theme"
	"yanki-connect/internal/adapter/tui/uxerror"
	"yanki-connect/internal/domain"
	"yanki-connect/internal/infra/config"
)

func main() {
	args := stripGlobalFlags(os.Args[1:])

	if len(args) == 0 {
		showUsage(os.Stdout)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch args[0] {
	case "--help", "-h", "help":
		showUsage(os.Stdout)
		return
	case "invoke":
		err = runInvoke(ctx, args[1:], os.Stdin, os.Stdout)
	case "actions":
		err = runActions(args[1:], os.Stdout)
	case "decks":
		err = runDecks(ctx, os.Stdout)
	case "browse":
		err = runBrowse(ctx)
	case "launch":
		err = runLaunch(ctx, os.Stdout)
	case "schedule":
		err = runSchedule(ctx)
	case "doctor":
		err = runDoctor(ctx, os.Stdout)
	case "encrypt":
		err = runEncrypt(args[1:], os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'yanki --help' for usage information.\n", args[0])
		os.Exit(1)
	}
	if err != nil {
		reportError(os.Stderr, args[0], err)
		os.Exit(1)
	}
}

// reportError prints the error code line followed by recovery hints.
func reportError(w io.Writer, command string, err error) {
	fmt.Fprintf(w, "%s: [%s] %v\n", command, domain.ErrorCodeOf(err), err)
	fe := uxerror.Humanize(err)
	for _, h := range fe.Hints {
		fmt.Fprintf(w, "  %s %s\n", theme.SymbolBullet, h)
	}
}

func showUsage(w io.Writer) {
	fmt.Fprint(w, `yanki - command line client for AnkiConnect

USAGE:
    yanki [--config PATH] COMMAND [ARGS]

COMMANDS:
    invoke ACTION [JSON|-]   Send one action; params as JSON, or - to read stdin
    actions [GROUP]          List the known actions, optionally for one group
    decks                    Print every deck with its due counts
    browse                   Interactive deck browser
    launch                   Start the Anki app (throttled)
    schedule                 Run the scheduled tasks from the config until interrupted
    doctor                   Run health checks on your setup
    encrypt VALUE            Encrypt a secret for the config (needs YANKI_CONFIG_KEY)

FLAGS:
    -h, --help         Show this help message
    --config PATH      Config file (default: ~/.config/yanki/config.yaml)

CONFIGURATION:
    Environment: YANKI_* variables override the config file
    YANKI_CONFIG selects the config file when --config is not given

EXAMPLES:
    yanki invoke deckNames
    yanki invoke findCards '{"query":"deck:Spanish is:due"}'
    yanki actions model
    yanki encrypt my-api-key
`)
}

// configFlag is set by stripGlobalFlags.
var configFlag string

// stripGlobalFlags removes --config from args so subcommands see only their
// own arguments.
func stripGlobalFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			configFlag = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--config="):
			configFlag = strings.TrimPrefix(args[i], "--config=")
		default:
			out = append(out, args[i])
		}
	}
	return out
}

func configPath() string {
	if configFlag != "" {
		return configFlag
	}
	if p := os.Getenv("YANKI_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath()
}
