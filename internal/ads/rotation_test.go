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

// fakeStaticPool mirrors the store's cursor semantics: the persisted value is
// the NEXT index to serve, advanced atomically on every call.
type fakeStaticPool struct {
	ads     []models.StaticAd
	cursors map[uuid.UUID]int
	counts  map[uuid.UUID]int64
	listErr error
	cursErr error
}

func newFakeStaticPool(n int) *fakeStaticPool {
	p := &fakeStaticPool{cursors: make(map[uuid.UUID]int), counts: make(map[uuid.UUID]int64)}
	for i := 0; i < n; i++ {
		p.ads = append(p.ads, models.StaticAd{ID: uuid.New(), DisplayOrder: i, Enabled: true})
	}
	return p
}

func (p *fakeStaticPool) ListEnabled(_ context.Context) ([]models.StaticAd, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.ads, nil
}

func (p *fakeStaticPool) AdvanceCursor(_ context.Context, venueID uuid.UUID, poolSize int) (int, int64, error) {
	if p.cursErr != nil {
		return 0, 0, p.cursErr
	}
	served := p.cursors[venueID] % poolSize
	p.cursors[venueID] = (served + 1) % poolSize
	p.counts[venueID]++
	return served, p.counts[venueID], nil
}

func TestNextStaticAdRoundRobin(t *testing.T) {
	pool := newFakeStaticPool(3)
	rotation := NewRotation(pool)
	venueID := uuid.New()

	// N consecutive calls visit each pool member exactly once, in order.
	for i := 0; i < 3; i++ {
		ad, err := rotation.NextStaticAd(context.Background(), venueID)
		require.NoError(t, err)
		require.NotNil(t, ad)
		assert.Equal(t, pool.ads[i].ID, ad.ID)
	}

	// The (N+1)-th call wraps back to the first member.
	ad, err := rotation.NextStaticAd(context.Background(), venueID)
	require.NoError(t, err)
	assert.Equal(t, pool.ads[0].ID, ad.ID)
}

func TestNextStaticAdEmptyPool(t *testing.T) {
	rotation := NewRotation(newFakeStaticPool(0))

	ad, err := rotation.NextStaticAd(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, ad)
}

func TestNextStaticAdIndependentVenues(t *testing.T) {
	pool := newFakeStaticPool(2)
	rotation := NewRotation(pool)
	venueA := uuid.New()
	venueB := uuid.New()

	adA, err := rotation.NextStaticAd(context.Background(), venueA)
	require.NoError(t, err)
	adB, err := rotation.NextStaticAd(context.Background(), venueB)
	require.NoError(t, err)

	// Each venue's cursor starts at the head of the pool.
	assert.Equal(t, pool.ads[0].ID, adA.ID)
	assert.Equal(t, pool.ads[0].ID, adB.ID)
}

func TestNextStaticAdStoreErrors(t *testing.T) {
	pool := newFakeStaticPool(2)
	pool.listErr = errors.New("store unavailable")
	rotation := NewRotation(pool)

	_, err := rotation.NextStaticAd(context.Background(), uuid.New())
	assert.Error(t, err)

	pool.listErr = nil
	pool.cursErr = errors.New("store unavailable")
	_, err = rotation.NextStaticAd(context.Background(), uuid.New())
	assert.Error(t, err)
}
