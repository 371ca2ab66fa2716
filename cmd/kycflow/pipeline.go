package main

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"kycflow/internal/agent"
	agentmetrics "kycflow/internal/agent/metrics"
	"kycflow/internal/aggregation"
	"kycflow/internal/platform/config"
	"kycflow/internal/result"
	"kycflow/internal/workflow"
	workflowmetrics "kycflow/internal/workflow/metrics"
	"kycflow/pkg/platform/circuit"
)

// pipeline is the agent-facing half of the system: gateway, driver and the
// metrics they report into.
type pipeline struct {
	gateway *agent.HTTPGateway
	driver  *workflow.Driver
	health  *agent.HealthChecker
	metrics *workflowmetrics.Metrics
}

type pipelineOptions struct {
	registerer prometheus.Registerer
	observer   workflow.StateObserver
	gate       workflow.QualityGate
}

func newPipeline(cfg config.Config, logger *slog.Logger, opts pipelineOptions) *pipeline {
	gwOpts := []agent.Option{
		agent.WithTimeout(cfg.Agents.Timeout),
		agent.WithLogger(logger),
		agent.WithMetrics(agentmetrics.New(opts.registerer)),
	}
	if b := cfg.Agents.Breaker; b.Enabled {
		gwOpts = append(gwOpts, agent.WithCircuitBreaker(
			circuit.WithFailureThreshold(b.FailureThreshold),
			circuit.WithSuccessThreshold(b.SuccessThreshold),
			circuit.WithCooldown(b.Cooldown),
		))
	}
	gw := agent.NewHTTPGateway(gwOpts...)

	gate := opts.gate
	if gate == nil {
		gate = qualityGate(cfg.Agents, gw)
	}

	wm := workflowmetrics.New(opts.registerer)
	executor := workflow.NewExecutor(gw,
		workflow.WithRetry(cfg.Workflow.Retry),
		workflow.WithExecutorLogger(logger),
	)
	driverOpts := []workflow.Option{
		workflow.WithQualityGate(gate, cfg.Workflow.Gate.Threshold),
		workflow.WithLogger(logger),
		workflow.WithMetrics(wm),
	}
	if opts.observer != nil {
		driverOpts = append(driverOpts, workflow.WithObserver(opts.observer))
	}
	driver := workflow.NewDriver(executor, cfg.Agents.Endpoints(),
		aggregation.NewEngine(cfg.Aggregation),
		result.New(cfg.Result),
		driverOpts...,
	)

	return &pipeline{
		gateway: gw,
		driver:  driver,
		health:  agent.NewHealthChecker(gw, cfg.Agents.HealthEndpoints()),
		metrics: wm,
	}
}

// qualityGate prefers the data-quality agent and falls back to the local
// completeness heuristic.
func qualityGate(agents config.Agents, gw agent.Gateway) workflow.QualityGate {
	if ep, ok := agents.QualityEndpoint(); ok {
		return workflow.NewAgentQualityGate(gw, ep)
	}
	return workflow.CompletenessGate{}
}
