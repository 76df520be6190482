package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stepflowhq/stepflow/internal/workflows"
	"github.com/stepflowhq/stepflow/pkg/stepflow"
)

func main() {

	//you may do your own logger setup here or use this default one with slog
	stepflow.SetupLogger()

	store, closeStore, err := stepflow.OpenStore()
	if err != nil {
		slog.Error("Failed to open instance store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	engine := stepflow.NewEngine(store)

	def, err := workflows.SignupDefinition()
	if err != nil {
		slog.Error("Invalid workflow definition", "error", err)
		os.Exit(1)
	}
	if err := engine.Register(def); err != nil {
		slog.Error("Failed to register workflow", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go engine.StartEngine(ctx)

	id, err := engine.Start(ctx, workflows.SignupWorkflowName, map[string]string{
		"email":                    "ada@example.com",
		"simulateTransientFailure": "true",
	})
	if err != nil {
		slog.Error("Failed to start workflow", "error", err)
		os.Exit(1)
	}
	slog.Info("Started signup instance", "instance_id", id)

	// watch the instance until it finishes or we are interrupted
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			desc, err := engine.Describe(ctx, id)
			if err != nil {
				slog.Error("Describe failed", "instance_id", id, "error", err)
				return
			}
			slog.Info("Instance progress", "status", desc.Status, "step", desc.CurrentStep, "history_lines", len(desc.History))
			if desc.Status != "RUNNING" {
				for _, h := range desc.History {
					slog.Info("History", "at", h.DateTime.Format(time.RFC3339), "line", h.Line)
				}
				return
			}
		}
	}
}
