package postgresql

import (
	"context"
	"fmt"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/remote"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/database"
)

type prober struct {
	db *database.DB
}

// NewProber returns a remote.Prober that upserts a heartbeat row.
func NewProber(db *database.DB) remote.Prober {
	return &prober{db: db}
}

func (p *prober) Probe(ctx context.Context) error {
	q := GetQuerier(ctx, p.db)

	query := `
		INSERT INTO connection_probes (id, probed_at) VALUES ('heartbeat', NOW())
		ON CONFLICT (id) DO UPDATE SET probed_at = EXCLUDED.probed_at
	`
	if _, err := q.Exec(ctx, query); err != nil {
		return fmt.Errorf("probe remote store: %w", err)
	}
	return nil
}
