package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"kycflow/internal/kyc/claim"
	"kycflow/internal/kyc/models"
	"kycflow/internal/kyc/service"
	"kycflow/internal/kyc/status"
	"kycflow/internal/kyc/store"
	"kycflow/internal/workflow"
	"kycflow/pkg/platform/audit/publisher"
	auditmemory "kycflow/pkg/platform/audit/store/memory"
)

func (a *app) processCmd() *cobra.Command {
	var qualityScore float64
	cmd := &cobra.Command{
		Use:   "process FILE...",
		Short: "Process case request JSON files locally and print the results",
		Long: `Process runs each case file through the configured agents with in-memory
stores and prints a JSON array of results in argument order.

Examples:
  kycflow process case.json
  kycflow process --quality-score 1 cases/*.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var gate workflow.QualityGate
			if cmd.Flags().Changed("quality-score") {
				gate = workflow.StaticGate(qualityScore)
			}
			return a.process(cmd.Context(), args, gate, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Float64Var(&qualityScore, "quality-score", 1, "fixed data-quality score in [0,1] instead of the configured gate")
	return cmd
}

func (a *app) process(ctx context.Context, paths []string, gate workflow.QualityGate, out io.Writer) error {
	reqs := make([]models.CaseRequest, 0, len(paths))
	for _, path := range paths {
		req, err := readCaseFile(path)
		if err != nil {
			return err
		}
		reqs = append(reqs, req)
	}

	svc := a.localService(gate)
	items := svc.ProcessBatch(ctx, reqs)

	results := make([]*models.CaseResult, 0, len(items))
	var errs []error
	for i, item := range items {
		if item.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", paths[i], item.Err))
			continue
		}
		results = append(results, item.Result)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return errors.Join(errs...)
}

// localService wires a service without any external backend.
func (a *app) localService(gate workflow.QualityGate) *service.Service {
	tracker := status.NewInMemoryTracker()
	p := newPipeline(a.cfg, a.logger, pipelineOptions{observer: tracker, gate: gate})
	return service.New(p.driver, store.NewInMemoryResultStore(), tracker, claim.NewInMemoryClaimer(0),
		service.WithLogger(a.logger),
		service.WithAuditPublisher(publisher.NewPublisher(auditmemory.NewInMemoryStore(), publisher.WithLogger(a.logger))),
		service.WithPublishers(workflow.NewPublishers(a.logger, p.metrics)),
		service.WithConcurrency(a.cfg.Workers.Concurrency),
	)
}

func readCaseFile(path string) (models.CaseRequest, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return models.CaseRequest{}, fmt.Errorf("read case file: %w", err)
	}
	var req models.CaseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return models.CaseRequest{}, fmt.Errorf("decode case file %s: %w", path, err)
	}
	return req, nil
}
