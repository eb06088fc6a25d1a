package main

import (
	"flag"
	"fmt"
	"os"

	"loan-service/internal/config"
	"loan-service/internal/infrastructure/db"
	"loan-service/pkg/logger"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate up|down")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	switch flag.Arg(0) {
	case "up":
		err = db.RunMigrations(cfg.MigrateDSN(), cfg.MigrationsDir)
	case "down":
		err = db.RunMigrationsDown(cfg.MigrateDSN(), cfg.MigrationsDir)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("migration failed", "direction", flag.Arg(0), "err", err)
		os.Exit(1)
	}
	log.Info("migration done", "direction", flag.Arg(0), "dir", cfg.MigrationsDir)
}
