package main

import (
	"context"
	"fmt"
	"os"

	"github.com/catalogqa/catalog-contract-tests/catalogtests"
	"github.com/catalogqa/catalog-contract-tests/config"
	"github.com/catalogqa/catalog-contract-tests/framework"
	"github.com/catalogqa/catalog-contract-tests/framework/harness"
	"github.com/catalogqa/catalog-contract-tests/logging"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	var params commandParams
	if !params.Read(args) {
		return 1
	}

	cfg, err := config.Load(params.configFile, params.envFile)
	if err != nil {
		usageError(err.Error())
		return 1
	}
	params.applyTo(&cfg)
	if err := cfg.Validate(); err != nil {
		usageError(err.Error())
		return 1
	}

	level := cfg.LogLevel
	if params.debugAll {
		level = zapcore.DebugLevel
	}
	logger, flush := logging.Setup(os.Stderr, level)
	defer flush()

	h, err := harness.NewTestHarness(
		cfg.BaseURL,
		cfg.RequestTimeout,
		logging.NewPrintfLogger(logger).Named("http"),
	)
	if err != nil {
		logger.Error("invalid service configuration", zap.Error(err))
		return 1
	}
	if err := h.CheckReachable(context.Background(), os.Stdout); err != nil {
		logger.Error("cannot reach the catalog service", zap.String("url", cfg.BaseURL), zap.Error(err))
		return 1
	}

	fmt.Println()
	framework.PrintFilterDescription(os.Stdout, params.filters)

	fmt.Println("Running test suite")
	logger.Debug("test run configuration",
		zap.String("url", cfg.BaseURL),
		zap.String("login_path", cfg.LoginPath),
		zap.String("email", cfg.Email),
		zap.Duration("request_timeout", cfg.RequestTimeout),
	)

	testLogger := &ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := catalogtests.RunTestSuite(h, cfg, params.filters.AsFilter, testLogger)

	fmt.Println()
	framework.PrintResults(os.Stdout, results)
	if !results.OK() {
		fmt.Println()
		fmt.Println("To run only the failed tests again:")
		fmt.Printf("  %s\n", params.rerunCommand(cfg, results))
		return 1
	}
	return 0
}
