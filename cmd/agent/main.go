package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/di"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/infrastructure/env"
)

func main() {
	envService := env.NewEnvService()

	goal := strings.TrimSpace(strings.Join(os.Args[1:], " "))
	if goal == "" {
		fmt.Println("\nEnter the task for the agent:")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatal("failed to read input: ", err)
		}
		goal = strings.TrimSpace(line)
	}
	if goal == "" {
		log.Fatal("no task given")
	}

	runTimeout := envService.GetDuration("RUN_TIMEOUT", 30*time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx, di.Config{
		Goal:             goal,
		OpenRouterAPIKey: envService.MustGet("OPENROUTER_API_KEY"),
		OpenRouterModel:  envService.GetDefault("OPENROUTER_MODEL_NAME", "openai/gpt-4o"),
		BrowserHeadless:  envService.GetBool("BROWSER_HEADLESS", false),
		DatasetDir:       envService.GetDefault("DATASET_DIR", "datasets"),
		SessionFile:      envService.Get("SESSION_FILE"),
		LogLevel:         envService.GetDefault("LOG_LEVEL", "info"),
		StartURL:         envService.Get("START_URL"),
		MaxElements:      envService.GetInt("MAX_ELEMENTS", 0),
		HistoryDepth:     envService.GetInt("HISTORY_DEPTH", 0),
		GuardWindow:      envService.GetInt("GUARD_WINDOW", 0),
		WarnThreshold:    envService.GetInt("GUARD_WARN_THRESHOLD", 0),
		BlockThreshold:   envService.GetInt("GUARD_BLOCK_THRESHOLD", 0),
		MaxParseRetries:  envService.GetInt("MAX_PARSE_RETRIES", 0),
		MaxCycles:        envService.GetInt("MAX_CYCLES", 0),
		RequestTimeout:   envService.GetDuration("ORACLE_REQUEST_TIMEOUT", 0),
	})
	if err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer container.Close()

	container.Logger.Info("task started", "goal", goal)

	result, err := container.RunExecutor.Execute(ctx, goal)
	if err != nil {
		container.Logger.Error("run failed", "error", err)
		fmt.Printf("\nrun failed: %v\n", err)
		container.Close()
		os.Exit(1)
	}

	fmt.Printf("\nStatus:  %s\n", result.Status)
	if result.Summary != "" {
		fmt.Printf("Summary: %s\n", result.Summary)
	}
	fmt.Printf("Steps:   %d\n", result.Steps)
	fmt.Printf("Output:  %s\n", result.OutputDir)
}
