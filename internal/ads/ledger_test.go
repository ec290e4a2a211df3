package ads

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitehive/backend/internal/models"
)

// fakeAdStore applies the same conditional-update semantics as the SQL store,
// in memory.
type fakeAdStore struct {
	ads map[uuid.UUID]*models.DynamicAd
	err error
}

func newFakeAdStore(ads ...*models.DynamicAd) *fakeAdStore {
	s := &fakeAdStore{ads: make(map[uuid.UUID]*models.DynamicAd)}
	for _, a := range ads {
		s.ads[a.ID] = a
	}
	return s
}

func (s *fakeAdStore) GetByID(_ context.Context, id uuid.UUID) (*models.DynamicAd, error) {
	if s.err != nil {
		return nil, s.err
	}
	a, ok := s.ads[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	copy := *a
	return &copy, nil
}

func (s *fakeAdStore) ConsumeImpression(_ context.Context, id uuid.UUID) (*models.DynamicAd, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	a, ok := s.ads[id]
	if !ok || a.Status != models.AdStatusActive || a.RemainingImpressions <= 0 {
		return nil, false, nil
	}
	a.RemainingImpressions--
	a.UsedImpressions++
	if a.RemainingImpressions == 0 {
		a.Status = models.AdStatusCompleted
	}
	copy := *a
	return &copy, true, nil
}

func (s *fakeAdStore) SetStatus(_ context.Context, id uuid.UUID, from, to models.AdStatus) (bool, error) {
	a, ok := s.ads[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	return true, nil
}

func (s *fakeAdStore) IncrementClicks(_ context.Context, id uuid.UUID) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	a, ok := s.ads[id]
	if !ok {
		return 0, errors.New("no rows")
	}
	a.TotalClicks++
	return a.TotalClicks, nil
}

func (s *fakeAdStore) ApplyReconcile(_ context.Context, id uuid.UUID, extImpressions, extClicks int64) (*models.DynamicAd, error) {
	a, ok := s.ads[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	delta := extImpressions - a.UsedImpressions
	if delta < 0 {
		delta = 0
	}
	a.RemainingImpressions -= delta
	if a.RemainingImpressions < 0 {
		a.RemainingImpressions = 0
	}
	a.UsedImpressions = extImpressions
	a.TotalClicks = extClicks
	copy := *a
	return &copy, nil
}

type fakeAudit struct {
	entries []models.AdAuditLog
}

func (f *fakeAudit) AppendAudit(_ context.Context, entry *models.AdAuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func activeLedgerAd(remaining int64) *models.DynamicAd {
	return &models.DynamicAd{
		ID:                   uuid.New(),
		Status:               models.AdStatusActive,
		PricingModel:         models.PricingCPM,
		BidAmount:            50000,
		PurchasedImpressions: 100,
		UsedImpressions:      100 - remaining,
		RemainingImpressions: remaining,
	}
}

func TestRecordImpressionDecrements(t *testing.T) {
	ad := activeLedgerAd(10)
	store := newFakeAdStore(ad)
	audit := &fakeAudit{}
	ledger := NewLedger(store, audit, nil)

	receipt, err := ledger.RecordImpression(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, int64(9), receipt.RemainingImpressions)
	assert.Equal(t, int64(91), receipt.TotalImpressions)
	assert.Equal(t, models.AdStatusActive, receipt.Status)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionImpression, audit.entries[0].Action)
	assert.Equal(t, int64(1), audit.entries[0].ImpressionsDelta)
	assert.True(t, audit.entries[0].Success)
}

func TestRecordImpressionLastImpressionCompletes(t *testing.T) {
	ad := activeLedgerAd(1)
	store := newFakeAdStore(ad)
	ledger := NewLedger(store, &fakeAudit{}, nil)

	receipt, err := ledger.RecordImpression(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Zero(t, receipt.RemainingImpressions)
	assert.Equal(t, models.AdStatusCompleted, receipt.Status)

	// A second call must fail with the exhausted-budget reason, without
	// decrementing further or disturbing the completed status.
	receipt, err = ledger.RecordImpression(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.False(t, receipt.Success)
	assert.Equal(t, ReasonNoRemainingImpressions, receipt.Reason)
	assert.Equal(t, models.AdStatusCompleted, receipt.Status)
	assert.Equal(t, models.AdStatusCompleted, store.ads[ad.ID].Status)
	assert.Equal(t, int64(100), store.ads[ad.ID].UsedImpressions)
}

func TestRecordImpressionExhaustedAdIsPaused(t *testing.T) {
	// An active ad whose counter already reads zero (e.g. after reconcile)
	// fails with no_remaining_impressions and transitions to paused.
	ad := activeLedgerAd(0)
	store := newFakeAdStore(ad)
	audit := &fakeAudit{}
	ledger := NewLedger(store, audit, nil)

	receipt, err := ledger.RecordImpression(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.False(t, receipt.Success)
	assert.Equal(t, ReasonNoRemainingImpressions, receipt.Reason)
	assert.Equal(t, models.AdStatusPaused, receipt.Status)
	assert.Equal(t, models.AdStatusPaused, store.ads[ad.ID].Status)

	require.Len(t, audit.entries, 1)
	assert.False(t, audit.entries[0].Success)
	assert.Equal(t, ReasonNoRemainingImpressions, audit.entries[0].Reason)
}

func TestRecordImpressionPausedAdUnchanged(t *testing.T) {
	ad := activeLedgerAd(10)
	ad.Status = models.AdStatusPaused
	store := newFakeAdStore(ad)
	ledger := NewLedger(store, &fakeAudit{}, nil)

	receipt, err := ledger.RecordImpression(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.False(t, receipt.Success)
	assert.Equal(t, ReasonAdNotActive, receipt.Reason)
	assert.Equal(t, int64(10), store.ads[ad.ID].RemainingImpressions)
	assert.Equal(t, int64(90), store.ads[ad.ID].UsedImpressions)
}

func TestRecordClick(t *testing.T) {
	ad := activeLedgerAd(10)
	ad.TotalClicks = 4
	store := newFakeAdStore(ad)
	audit := &fakeAudit{}
	ledger := NewLedger(store, audit, nil)

	clicks, err := ledger.RecordClick(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), clicks)
	assert.Equal(t, models.AdStatusActive, store.ads[ad.ID].Status)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionClick, audit.entries[0].Action)
	assert.Equal(t, int64(1), audit.entries[0].ClicksDelta)
}

func TestReconcileAppliesExternalTotals(t *testing.T) {
	ad := activeLedgerAd(50) // used 50
	ad.TotalClicks = 3
	store := newFakeAdStore(ad)
	audit := &fakeAudit{}
	ledger := NewLedger(store, audit, nil)

	// External ledger says 60 impressions and 7 clicks were actually served.
	updated, err := ledger.Reconcile(context.Background(), ad.ID, 60, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(60), updated.UsedImpressions)
	assert.Equal(t, int64(40), updated.RemainingImpressions)
	assert.Equal(t, int64(7), updated.TotalClicks)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionReconcile, audit.entries[0].Action)
	assert.Equal(t, int64(10), audit.entries[0].ImpressionsDelta)
	assert.Equal(t, int64(4), audit.entries[0].ClicksDelta)
	assert.True(t, audit.entries[0].Success)
}

func TestReconcileFloorsRemainingAtZero(t *testing.T) {
	ad := activeLedgerAd(5) // used 95, remaining 5
	store := newFakeAdStore(ad)
	ledger := NewLedger(store, &fakeAudit{}, nil)

	updated, err := ledger.Reconcile(context.Background(), ad.ID, 120, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(120), updated.UsedImpressions)
	assert.Zero(t, updated.RemainingImpressions)
}

func TestReconcileFailureStillAudited(t *testing.T) {
	audit := &fakeAudit{}
	ledger := NewLedger(newFakeAdStore(), audit, nil)

	_, err := ledger.Reconcile(context.Background(), uuid.New(), 10, 0)
	require.Error(t, err)
	require.Len(t, audit.entries, 1)
	assert.False(t, audit.entries[0].Success)
}
