package ads

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nitehive/backend/internal/models"
)

// Failure reasons reported in impression receipts and audit rows.
const (
	ReasonAdNotActive            = "ad_not_active"
	ReasonNoRemainingImpressions = "no_remaining_impressions"
)

// AdStore is the counter-mutation surface the ledger needs from the ad store.
type AdStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.DynamicAd, error)
	ConsumeImpression(ctx context.Context, id uuid.UUID) (*models.DynamicAd, bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, from, to models.AdStatus) (bool, error)
	IncrementClicks(ctx context.Context, id uuid.UUID) (int64, error)
	ApplyReconcile(ctx context.Context, id uuid.UUID, extImpressions, extClicks int64) (*models.DynamicAd, error)
}

// AuditStore appends ad audit log rows.
type AuditStore interface {
	AppendAudit(ctx context.Context, entry *models.AdAuditLog) error
}

// Ledger applies impression and click side effects to a single ad's counters,
// including the budget-exhaustion transitions.
type Ledger struct {
	store  AdStore
	audit  AuditStore
	logger *zap.Logger
}

// NewLedger creates an impression/click ledger updater.
func NewLedger(store AdStore, audit AuditStore, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, audit: audit, logger: logger}
}

// RecordImpression consumes one impression from the ad's budget. The decrement
// is a single conditional update; when it matches no row the failure is
// classified by a follow-up read, and an ad that ran out of budget is paused.
// Every call appends an audit row with the 1-unit delta and outcome.
func (l *Ledger) RecordImpression(ctx context.Context, adID uuid.UUID) (*models.ImpressionReceipt, error) {
	ad, ok, err := l.store.ConsumeImpression(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("consume impression: %w", err)
	}
	if ok {
		receipt := &models.ImpressionReceipt{
			Success:              true,
			RemainingImpressions: ad.RemainingImpressions,
			TotalImpressions:     ad.UsedImpressions,
			Status:               ad.Status,
		}
		l.appendAudit(ctx, adID, impressionAudit(adID, true, ""))
		return receipt, nil
	}

	// Guard did not match: classify why. An exhausted budget wins over the
	// status check, so a just-completed ad reports no_remaining_impressions;
	// ad_not_active is reserved for non-active ads with budget left.
	ad, err = l.store.GetByID(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("load ad: %w", err)
	}
	reason := ReasonAdNotActive
	if ad.RemainingImpressions <= 0 {
		reason = ReasonNoRemainingImpressions
		if ad.Status == models.AdStatusActive {
			if _, err := l.store.SetStatus(ctx, adID, models.AdStatusActive, models.AdStatusPaused); err != nil {
				l.logger.Error("pause exhausted ad failed", zap.Error(err), zap.String("ad_id", adID.String()))
			} else {
				ad.Status = models.AdStatusPaused
			}
		}
	}
	l.appendAudit(ctx, adID, impressionAudit(adID, false, reason))
	return &models.ImpressionReceipt{
		Success:              false,
		Reason:               reason,
		RemainingImpressions: ad.RemainingImpressions,
		TotalImpressions:     ad.UsedImpressions,
		Status:               ad.Status,
	}, nil
}

// RecordClick unconditionally increments the ad's click counter. Click budgets
// are not modeled; status is untouched.
func (l *Ledger) RecordClick(ctx context.Context, adID uuid.UUID) (int64, error) {
	clicks, err := l.store.IncrementClicks(ctx, adID)
	if err != nil {
		l.appendAudit(ctx, adID, &models.AdAuditLog{
			AdID: adID, Action: models.AuditActionClick, ClicksDelta: 1, Success: false, Reason: err.Error(),
		})
		return 0, fmt.Errorf("increment clicks: %w", err)
	}
	l.appendAudit(ctx, adID, &models.AdAuditLog{
		AdID: adID, Action: models.AuditActionClick, ClicksDelta: 1, Success: true,
	})
	return clicks, nil
}

// Reconcile overwrites local totals with external authoritative values and
// reduces remaining by the impression delta, floored at zero. An audit row is
// appended whether the reconcile succeeds or fails.
func (l *Ledger) Reconcile(ctx context.Context, adID uuid.UUID, extImpressions, extClicks int64) (*models.DynamicAd, error) {
	before, err := l.store.GetByID(ctx, adID)
	if err != nil {
		l.appendAudit(ctx, adID, &models.AdAuditLog{
			AdID: adID, Action: models.AuditActionReconcile, Success: false, Reason: err.Error(),
		})
		return nil, fmt.Errorf("load ad: %w", err)
	}

	ad, err := l.store.ApplyReconcile(ctx, adID, extImpressions, extClicks)
	if err != nil {
		l.appendAudit(ctx, adID, &models.AdAuditLog{
			AdID: adID, Action: models.AuditActionReconcile, Success: false, Reason: err.Error(),
		})
		return nil, fmt.Errorf("apply reconcile: %w", err)
	}

	l.appendAudit(ctx, adID, &models.AdAuditLog{
		AdID:             adID,
		Action:           models.AuditActionReconcile,
		ImpressionsDelta: extImpressions - before.UsedImpressions,
		ClicksDelta:      extClicks - before.TotalClicks,
		Success:          true,
	})
	return ad, nil
}

func (l *Ledger) appendAudit(ctx context.Context, adID uuid.UUID, entry *models.AdAuditLog) {
	if err := l.audit.AppendAudit(ctx, entry); err != nil {
		l.logger.Error("append audit log failed", zap.Error(err), zap.String("ad_id", adID.String()))
	}
}

func impressionAudit(adID uuid.UUID, success bool, reason string) *models.AdAuditLog {
	return &models.AdAuditLog{
		AdID:             adID,
		Action:           models.AuditActionImpression,
		ImpressionsDelta: 1,
		Success:          success,
		Reason:           reason,
	}
}
