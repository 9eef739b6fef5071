package dashboard

import (
	"context"
	"time"
)

type Repository interface {
	Stats(ctx context.Context, contratoID string, from, to time.Time) (Stats, error)
	Timeseries(ctx context.Context, contratoID string, from, to time.Time, groupBy GroupBy) ([]TimeseriesPoint, error)
}
