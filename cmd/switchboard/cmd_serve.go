// Switchboard - Multi-agent conversational platform
// License: MIT
//
// Copyright (c) 2026 Switchboard contributors

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/switchboard-ai/switchboard/pkg/agents"
	"github.com/switchboard-ai/switchboard/pkg/config"
	"github.com/switchboard-ai/switchboard/pkg/gateway"
	"github.com/switchboard-ai/switchboard/pkg/logger"
	"github.com/switchboard-ai/switchboard/pkg/memory"
	"github.com/switchboard-ai/switchboard/pkg/providers"
	"github.com/switchboard-ai/switchboard/pkg/session"
	"github.com/switchboard-ai/switchboard/pkg/state"
	"github.com/switchboard-ai/switchboard/pkg/tools"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway and agent roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func parseLogLevel(raw string) logger.LogLevel {
	switch strings.ToLower(raw) {
	case "debug":
		return logger.DEBUG
	case "warn":
		return logger.WARN
	case "error":
		return logger.ERROR
	default:
		return logger.INFO
	}
}

func serve(cfg *config.Config) error {
	logger.SetLevel(parseLogLevel(cfg.Logging.Level))
	if cfg.Logging.File != "" {
		if err := logger.EnableFileLogging(cfg.Logging.File); err != nil {
			return err
		}
		defer logger.DisableFileLogging()
	}

	provider, err := providers.NewProvider(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
	if err != nil {
		return err
	}

	sessions := session.NewManager(cfg.SessionsDir())
	states := state.NewManager(state.Options{MaxSessions: cfg.State.MaxSessions})

	var memories memory.Store
	if cfg.Memory.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Memory.DBPath), 0o755); err != nil {
			return err
		}
		memories, err = memory.NewSQLiteStore(cfg.Memory.DBPath)
		if err != nil {
			return err
		}
		defer memories.Close()
	}

	base := []tools.Tool{tools.NewStatsTool(states, sessions)}
	if cfg.CRM.APIKey != "" {
		crm := tools.NewCRMTool(cfg.CRM.APIKey, cfg.CRM.BaseURL, cfg.CRM.RequestsPerMinute)
		base = append(base, crm, tools.NewCRMNoteTool(crm))
	}
	if memories != nil {
		base = append(base, tools.NewMemorySearchTool(memories, 5))
	}

	registry := agents.NewRegistry(agents.Deps{
		Provider:  provider,
		Sessions:  sessions,
		States:    states,
		BaseTools: base,
	})

	server := gateway.NewServer(cfg, registry, states, sessions, memories)
	if err := server.Start(); err != nil {
		return err
	}
	logger.InfoCF("main", "switchboard started", map[string]any{
		"version": formatVersion(),
		"agents":  registry.Names(),
		"addr":    fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port),
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.InfoC("main", "shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.WarnCF("main", "shutdown error", map[string]any{"error": err.Error()})
	}
	for key := range sessions.Sessions() {
		if err := sessions.Save(key); err != nil {
			logger.WarnCF("main", "session save failed", map[string]any{
				"session": key,
				"error":   err.Error(),
			})
		}
	}
	return nil
}
