package agent

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthStatus is the probe result for one agent.
type HealthStatus struct {
	Agent     string `json:"agent"`
	Healthy   bool   `json:"healthy"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// CheckAll probes every endpoint concurrently. A failing probe never cancels
// the others.
func CheckAll(ctx context.Context, gw Gateway, endpoints []Endpoint) []HealthStatus {
	statuses := make([]HealthStatus, len(endpoints))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, ep := range endpoints {
		g.Go(func() error {
			start := time.Now()
			err := gw.Health(gctx, ep)
			st := HealthStatus{
				Agent:     ep.Name,
				Healthy:   err == nil,
				LatencyMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				st.Error = err.Error()
			}
			mu.Lock()
			statuses[i] = st
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}

// HealthChecker probes a fixed set of endpoints.
type HealthChecker struct {
	gateway   Gateway
	endpoints []Endpoint
}

func NewHealthChecker(gw Gateway, endpoints []Endpoint) *HealthChecker {
	return &HealthChecker{gateway: gw, endpoints: endpoints}
}

func (c *HealthChecker) CheckAgents(ctx context.Context) []HealthStatus {
	return CheckAll(ctx, c.gateway, c.endpoints)
}
