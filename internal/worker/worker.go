package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nitehive/backend/internal/ads"
	"github.com/nitehive/backend/pkg/queue"
)

// AdEventProcessor processes out-of-band ad events: click jobs reported after
// delivery and reconcile jobs pushed by external ledger syncs.
type AdEventProcessor struct {
	ledger *ads.Ledger
	queue  *queue.Queue
	logger *zap.Logger
}

// NewAdEventProcessor creates an ad event processor.
func NewAdEventProcessor(ledger *ads.Ledger, q *queue.Queue, logger *zap.Logger) *AdEventProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdEventProcessor{ledger: ledger, queue: q, logger: logger}
}

// Process executes one ad event job.
func (p *AdEventProcessor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeAdClick:
		var payload queue.ClickPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		clicks, err := p.ledger.RecordClick(ctx, payload.AdID)
		if err != nil {
			return fmt.Errorf("record click: %w", err)
		}
		p.logger.Debug("click recorded", zap.String("ad_id", payload.AdID.String()), zap.Int64("total_clicks", clicks))
		return nil

	case queue.JobTypeAdReconcile:
		var payload queue.ReconcilePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		ad, err := p.ledger.Reconcile(ctx, payload.AdID, payload.ExternalImpressions, payload.ExternalClicks)
		if err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
		p.logger.Info("ad counters reconciled",
			zap.String("ad_id", payload.AdID.String()),
			zap.Int64("used_impressions", ad.UsedImpressions),
			zap.Int64("remaining_impressions", ad.RemainingImpressions))
		return nil

	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *AdEventProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ad event worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
