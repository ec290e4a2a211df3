package auction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitehive/backend/internal/models"
)

type fakeCandidates struct {
	ads []models.DynamicAd
	err error
}

func (f *fakeCandidates) ActiveAdsForVenue(_ context.Context, _ uuid.UUID) ([]models.DynamicAd, error) {
	return f.ads, f.err
}

type fakeFallback struct {
	ad    *models.StaticAd
	err   error
	calls int
}

func (f *fakeFallback) NextStaticAd(_ context.Context, _ uuid.UUID) (*models.StaticAd, error) {
	f.calls++
	return f.ad, f.err
}

type fakeLedger struct {
	receipt *models.ImpressionReceipt
	err     error
	adIDs   []uuid.UUID
}

func (f *fakeLedger) RecordImpression(_ context.Context, adID uuid.UUID) (*models.ImpressionReceipt, error) {
	f.adIDs = append(f.adIDs, adID)
	if f.receipt == nil {
		f.receipt = &models.ImpressionReceipt{Success: true}
	}
	return f.receipt, f.err
}

type fakeLogs struct {
	entries   []models.ImpressionLog
	appendErr error
	dynamic   int64
	static    int64
	countErr  error
}

func (f *fakeLogs) Append(_ context.Context, entry *models.ImpressionLog) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	entry.ID = uuid.New()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLogs) CountByTypeBetween(_ context.Context, _, _ time.Time) (int64, int64, error) {
	return f.dynamic, f.static, f.countErr
}

func newTestEngine(c *fakeCandidates, fb *fakeFallback, l *fakeLedger, logs *fakeLogs) *Engine {
	return NewEngine(c, fb, l, logs, NewScorer(DefaultConfig()), nil)
}

func eligibleAd(venueID uuid.UUID, bid int64) models.DynamicAd {
	return models.DynamicAd{
		ID:                   uuid.New(),
		VenueID:              venueID,
		Status:               models.AdStatusActive,
		PricingModel:         models.PricingCPM,
		BidAmount:            bid,
		RemainingImpressions: 100,
	}
}

func TestRunAuctionDynamicWinner(t *testing.T) {
	venueID := uuid.New()
	low := eligibleAd(venueID, 1000)
	high := eligibleAd(venueID, 50000)
	c := &fakeCandidates{ads: []models.DynamicAd{low, high}}
	fb := &fakeFallback{ad: &models.StaticAd{ID: uuid.New()}}

	result := newTestEngine(c, fb, &fakeLedger{}, &fakeLogs{}).RunAuction(context.Background(), venueID, "feed", nil)

	require.Equal(t, models.DecisionDynamic, result.Type)
	require.NotNil(t, result.DynamicAd)
	assert.Equal(t, high.ID, result.DynamicAd.ID)
	assert.Equal(t, 50000.0, result.Score)
	assert.Equal(t, 2, result.Diagnostics.CandidateCount)
	assert.Equal(t, 2, result.Diagnostics.EligibleCount)
	assert.Zero(t, fb.calls)
}

func TestRunAuctionTieBrokenByEncounterOrder(t *testing.T) {
	venueID := uuid.New()
	first := eligibleAd(venueID, 50000)
	second := eligibleAd(venueID, 50000)
	c := &fakeCandidates{ads: []models.DynamicAd{first, second}}

	result := newTestEngine(c, &fakeFallback{}, &fakeLedger{}, &fakeLogs{}).RunAuction(context.Background(), venueID, "feed", nil)

	require.Equal(t, models.DecisionDynamic, result.Type)
	assert.Equal(t, first.ID, result.DynamicAd.ID)
}

func TestRunAuctionFallsBackToStatic(t *testing.T) {
	venueID := uuid.New()
	paused := eligibleAd(venueID, 50000)
	paused.Status = models.AdStatusPaused
	c := &fakeCandidates{ads: []models.DynamicAd{paused}}
	staticAd := &models.StaticAd{ID: uuid.New(), Title: "house"}
	fb := &fakeFallback{ad: staticAd}

	result := newTestEngine(c, fb, &fakeLedger{}, &fakeLogs{}).RunAuction(context.Background(), venueID, "feed", nil)

	require.Equal(t, models.DecisionStatic, result.Type)
	assert.Equal(t, staticAd.ID, result.StaticAd.ID)
	assert.Zero(t, result.Score)
	assert.Equal(t, FallbackNoneEligible, result.Diagnostics.FallbackReason)
}

func TestRunAuctionEmptySetStaticThenNone(t *testing.T) {
	venueID := uuid.New()
	c := &fakeCandidates{}

	withStatic := newTestEngine(c, &fakeFallback{ad: &models.StaticAd{ID: uuid.New()}}, &fakeLedger{}, &fakeLogs{})
	assert.Equal(t, models.DecisionStatic, withStatic.RunAuction(context.Background(), venueID, "", nil).Type)

	withoutStatic := newTestEngine(c, &fakeFallback{}, &fakeLedger{}, &fakeLogs{})
	result := withoutStatic.RunAuction(context.Background(), venueID, "", nil)
	assert.Equal(t, models.DecisionNone, result.Type)
	assert.Equal(t, FallbackNoCandidates, result.Diagnostics.FallbackReason)
}

func TestRunAuctionStoreErrorDegrades(t *testing.T) {
	venueID := uuid.New()
	c := &fakeCandidates{err: errors.New("store unavailable")}

	// Candidate store down but static pool reachable: serve static.
	fb := &fakeFallback{ad: &models.StaticAd{ID: uuid.New()}}
	result := newTestEngine(c, fb, &fakeLedger{}, &fakeLogs{}).RunAuction(context.Background(), venueID, "", nil)
	assert.Equal(t, models.DecisionStatic, result.Type)
	assert.Equal(t, FallbackStoreError, result.Diagnostics.FallbackReason)

	// Everything down: degrade to none, never error.
	fbDown := &fakeFallback{err: errors.New("store unavailable")}
	result = newTestEngine(c, fbDown, &fakeLedger{}, &fakeLogs{}).RunAuction(context.Background(), venueID, "", nil)
	assert.Equal(t, models.DecisionNone, result.Type)
}

func TestRunAuctionBelowThreshold(t *testing.T) {
	venueID := uuid.New()
	cfg := DefaultConfig()
	cfg.MinScore = 100000
	ad := eligibleAd(venueID, 50000)
	c := &fakeCandidates{ads: []models.DynamicAd{ad}}
	fb := &fakeFallback{ad: &models.StaticAd{ID: uuid.New()}}
	engine := NewEngine(c, fb, &fakeLedger{}, &fakeLogs{}, NewScorer(cfg), nil)

	result := engine.RunAuction(context.Background(), venueID, "", nil)

	assert.Equal(t, models.DecisionStatic, result.Type)
	assert.Equal(t, FallbackBelowThreshold, result.Diagnostics.FallbackReason)
}

func TestServeAdRecordsImpressionForDynamicWinner(t *testing.T) {
	venueID := uuid.New()
	ad := eligibleAd(venueID, 50000)
	c := &fakeCandidates{ads: []models.DynamicAd{ad}}
	ledger := &fakeLedger{}
	logs := &fakeLogs{}

	result, entry := newTestEngine(c, &fakeFallback{}, ledger, logs).ServeAd(context.Background(), venueID, "banner", nil)

	require.Equal(t, models.DecisionDynamic, result.Type)
	require.Len(t, ledger.adIDs, 1)
	assert.Equal(t, ad.ID, ledger.adIDs[0])
	require.Len(t, logs.entries, 1)
	assert.Equal(t, models.DecisionDynamic, logs.entries[0].DecisionType)
	assert.Equal(t, "banner", logs.entries[0].ZoneID)
	require.NotNil(t, entry.AdID)
	assert.Equal(t, ad.ID, *entry.AdID)
}

func TestServeAdStaticWinnerNoLedgerCall(t *testing.T) {
	venueID := uuid.New()
	ledger := &fakeLedger{}
	logs := &fakeLogs{}
	fb := &fakeFallback{ad: &models.StaticAd{ID: uuid.New()}}

	result, _ := newTestEngine(&fakeCandidates{}, fb, ledger, logs).ServeAd(context.Background(), venueID, "", nil)

	assert.Equal(t, models.DecisionStatic, result.Type)
	assert.Empty(t, ledger.adIDs)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, models.DecisionStatic, logs.entries[0].DecisionType)
}

func TestServeAdBookkeepingFailureDoesNotUnwindDelivery(t *testing.T) {
	venueID := uuid.New()
	ad := eligibleAd(venueID, 50000)
	c := &fakeCandidates{ads: []models.DynamicAd{ad}}
	ledger := &fakeLedger{err: errors.New("store unavailable")}
	logs := &fakeLogs{appendErr: errors.New("store unavailable")}

	result, _ := newTestEngine(c, &fakeFallback{}, ledger, logs).ServeAd(context.Background(), venueID, "", nil)

	assert.Equal(t, models.DecisionDynamic, result.Type)
}

func TestStats(t *testing.T) {
	logs := &fakeLogs{dynamic: 30, static: 10}
	engine := newTestEngine(&fakeCandidates{}, &fakeFallback{}, &fakeLedger{}, logs)

	stats, err := engine.Stats(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(40), stats.Total)
	assert.Equal(t, int64(30), stats.Dynamic)
	assert.Equal(t, int64(10), stats.Static)
	assert.Equal(t, 75.0, stats.DynamicPercentage)
	assert.Equal(t, 25.0, stats.StaticPercentage)
}

func TestStatsEmptyPeriod(t *testing.T) {
	engine := newTestEngine(&fakeCandidates{}, &fakeFallback{}, &fakeLedger{}, &fakeLogs{})

	stats, err := engine.Stats(context.Background(), time.Now(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.DynamicPercentage)
	assert.Zero(t, stats.StaticPercentage)
}
