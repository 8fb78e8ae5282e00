package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"imgscout/internal/di"
	"imgscout/internal/domain/entity"
	"imgscout/internal/infrastructure/config"
	"imgscout/internal/infrastructure/env"
)

func main() {
	flags, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "imgscout: %v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.ApplyEnv(cfg, env.NewEnvService())
	flags.apply(cfg)
	if err := config.ValidateConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	req, err := buildRequest(flags, cfg)
	if err != nil {
		log.Fatalf("Invalid -pierce: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	container, err := di.NewContainer(ctx, cfg, di.Options{
		Live:    flags.url != "",
		Verbose: flags.verbose,
	})
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}
	defer container.Close()

	var items []entity.BatchItem
	if flags.url != "" {
		items, err = container.Batch.ScanURLs(ctx, []string{flags.url}, req)
	} else {
		items, err = container.Batch.ScanFiles(ctx, flags.fileList(), req)
	}
	if err != nil {
		container.Logger.Error("Scan aborted", "error", err)
	}

	failed := report(ctx, container, items, flags)
	if flags.screenshot != "" {
		saveScreenshot(container, items, flags.screenshot)
	}
	if failed || err != nil {
		container.Close()
		os.Exit(1)
	}
}

// report prints every item and tells whether any page failed.
func report(ctx context.Context, c *di.Container, items []entity.BatchItem, flags *cliFlags) bool {
	failed := false
	for _, item := range items {
		if item.Error != "" {
			failed = true
		}
	}

	if flags.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			c.Logger.Error("Failed to encode results", "error", err)
			return true
		}
		return failed
	}

	for _, item := range items {
		if item.Error != "" {
			c.Reporter.ShowError(ctx, item.Page, fmt.Errorf("%s", item.Error))
			continue
		}
		c.Reporter.ShowScan(ctx, item.Result)
	}
	return failed
}

func saveScreenshot(c *di.Container, items []entity.BatchItem, path string) {
	for _, item := range items {
		if item.Result == nil || item.Result.Screenshot == nil {
			continue
		}
		if err := os.WriteFile(path, item.Result.Screenshot.Data, 0o644); err != nil {
			c.Logger.Error("Failed to save screenshot", "path", path, "error", err)
			return
		}
		c.Logger.Info("Screenshot saved", "path", path)
		return
	}
	c.Logger.Warn("No screenshot captured")
}
