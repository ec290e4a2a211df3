package ads

import (
	"context"

	"github.com/google/uuid"

	"github.com/nitehive/backend/internal/models"
)

// StaticPool is the read/advance surface the rotation needs from the static store.
type StaticPool interface {
	ListEnabled(ctx context.Context) ([]models.StaticAd, error)
	AdvanceCursor(ctx context.Context, venueID uuid.UUID, poolSize int) (served int, displayCount int64, err error)
}

// Rotation serves static house ads round-robin per venue. The cursor advance
// is a single atomic write, so concurrent requests cannot skip or repeat an
// index by racing a read against a write.
type Rotation struct {
	pool StaticPool
}

// NewRotation creates the static rotation fallback.
func NewRotation(pool StaticPool) *Rotation {
	return &Rotation{pool: pool}
}

// NextStaticAd returns the next ad in round-robin order for the venue, or nil
// when the enabled pool is empty.
func (r *Rotation) NextStaticAd(ctx context.Context, venueID uuid.UUID) (*models.StaticAd, error) {
	list, err := r.pool.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	served, _, err := r.pool.AdvanceCursor(ctx, venueID, len(list))
	if err != nil {
		return nil, err
	}
	ad := list[served%len(list)]
	return &ad, nil
}
