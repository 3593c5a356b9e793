// Package di wires the infrastructure adapters into the run controller.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/input"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/application/port/output"
	rodadapter "github.com/abhiroop-sudansh/softlight-automation-framework/internal/infrastructure/browser/rod"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/infrastructure/llm/openrouter"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/infrastructure/logger"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/infrastructure/prompts"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/infrastructure/store"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/decision"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/extractor"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/guard"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/runner"
	"github.com/abhiroop-sudansh/softlight-automation-framework/internal/usecase/serializer"
)

type Container struct {
	Driver      output.DriverPort
	Oracle      output.OraclePort
	Logger      output.LoggerPort
	Store       output.WorkflowStorePort
	RunExecutor input.RunExecutor
}

type Config struct {
	Goal string

	OpenRouterAPIKey string
	OpenRouterModel  string
	BrowserHeadless  bool

	DatasetDir  string
	SessionFile string
	LogLevel    string

	MaxElements     int
	HistoryDepth    int
	GuardWindow     int
	WarnThreshold   int
	BlockThreshold  int
	MaxParseRetries int
	MaxCycles       int
	StartURL        string
	RequestTimeout  time.Duration
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	logCfg := logger.DefaultConfig(cfg.Goal)
	if cfg.LogLevel != "" {
		logCfg.Level = cfg.LogLevel
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	browserCfg := rodadapter.DefaultConfig()
	browserCfg.Headless = cfg.BrowserHeadless
	driver, err := rodadapter.New(ctx, browserCfg)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}

	appName, startURL := runner.InferApp(cfg.Goal, cfg.StartURL)
	systemPrompt, err := prompts.GenerateSystemPrompt(prompts.SystemPromptData{
		Goal:     cfg.Goal,
		AppName:  appName,
		StartURL: startURL,
	})
	if err != nil {
		driver.Close()
		log.Close()
		return nil, fmt.Errorf("failed to render system prompt: %w", err)
	}

	oracleCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	oracleCfg.SystemPrompt = systemPrompt
	oracleCfg.Logger = log
	oracle := openrouter.New(oracleCfg)

	fsStore, err := store.New(cfg.DatasetDir, cfg.Goal)
	if err != nil {
		driver.Close()
		log.Close()
		return nil, fmt.Errorf("failed to create workflow store: %w", err)
	}

	var session output.SessionPort
	if cfg.SessionFile != "" {
		session = rodadapter.NewCookieSession(driver, cfg.SessionFile)
	}

	extractorCfg := extractor.DefaultConfig()
	if cfg.MaxElements > 0 {
		extractorCfg.MaxElements = cfg.MaxElements
	}

	serializerCfg := serializer.DefaultConfig()
	if cfg.HistoryDepth > 0 {
		serializerCfg.HistoryDepth = cfg.HistoryDepth
	}

	guardCfg := guard.DefaultConfig()
	if cfg.GuardWindow > 0 {
		guardCfg.Window = cfg.GuardWindow
	}
	if cfg.WarnThreshold > 0 {
		guardCfg.WarnThreshold = cfg.WarnThreshold
	}
	if cfg.BlockThreshold > 0 {
		guardCfg.BlockThreshold = cfg.BlockThreshold
	}

	decisionCfg := decision.DefaultConfig()
	if cfg.MaxParseRetries > 0 {
		decisionCfg.MaxParseRetries = cfg.MaxParseRetries
	}
	if cfg.RequestTimeout > 0 {
		decisionCfg.RequestTimeout = cfg.RequestTimeout
	}

	runnerCfg := runner.DefaultConfig()
	if cfg.MaxCycles > 0 {
		runnerCfg.MaxCycles = cfg.MaxCycles
	}
	runnerCfg.StartURL = cfg.StartURL

	uc := runner.New(runner.Deps{
		Driver:     driver,
		Session:    session,
		Store:      fsStore,
		Logger:     log,
		Extractor:  extractor.New(extractorCfg),
		Serializer: serializer.New(serializerCfg),
		Engine:     decision.New(oracle, log, decisionCfg),
		Config:     runnerCfg,
		GuardCfg:   guardCfg,
	})

	return &Container{
		Driver:      driver,
		Oracle:      oracle,
		Logger:      log,
		Store:       fsStore,
		RunExecutor: uc,
	}, nil
}

func (c *Container) Close() {
	if c.Driver != nil {
		c.Driver.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
