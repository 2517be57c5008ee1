package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"rawmouse/internal/cfg"
	"rawmouse/internal/log"
	"rawmouse/internal/res"
	"rawmouse/internal/session"
)

//go:embed .version
var version string

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			printHelp()
			return
		case "--version", "version":
			fmt.Println("rawmouse", strings.Trim(version, "\n"))
			return
		case "new":
			if len(os.Args) < 3 {
				printHelp()
				os.Exit(1)
			}
			logger := log.DefaultLogger(log.INFO, "")
			if err := cfg.MakeProfile(os.Args[2]); err != nil {
				logger.Error("Failed to make profile: %s", err)
				os.Exit(1)
			}
			logger.Info("Created profile!")
			return
		}
	}
	Run()
}

func Run() {
	profileName := "default"
	if len(os.Args) >= 2 {
		profileName = os.Args[1]
	}
	profile, err := cfg.GetProfile(profileName)
	if err != nil {
		logger := log.DefaultLogger(log.INFO, "")
		logger.Error("Failed to get profile: %s", err)
		os.Exit(1)
	}

	level, _ := log.LevelFromName(profile.Log.Level)
	logger := log.DefaultLogger(level, profile.Log.Path)
	defer logger.Close()

	if err := res.WriteResources(); err != nil {
		logger.Error("Failed to write resources: %s", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := session.Run(ctx, profileName, &profile, &logger); err != nil {
		logger.Error("Failed to run: %s", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`
    rawmouse - raw pointer motion capture demo

    Opens a window, confines the mouse pointer to it and prints relative
    raw-motion deltas to stdout. Press any key to release the pointer and
    stop reporting; close the window to exit.

    USAGE:
        rawmouse [PROFILE]      Run rawmouse with the given profile
                                (default: "default".)

    SUBCOMMANDS:
        rawmouse new [PROFILE]  Create a new profile named PROFILE with
                                the default configuration.
        rawmouse help           Print this message.
        rawmouse version        Get the version of rawmouse installed.
    `)
}
