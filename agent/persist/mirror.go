package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

type checkpointRow struct {
	bun.BaseModel `bun:"table:checkpoints,alias:cp"`

	ID        string          `bun:"id,pk"`
	Kind      string          `bun:"kind,notnull"`
	Name      string          `bun:"name"`
	Location  string          `bun:"location"`
	Payload   json.RawMessage `bun:"payload,type:jsonb"`
	CreatedAt time.Time       `bun:"created_at,notnull"`
}

// Mirror copies written checkpoints into Postgres for reporting. The file
// remains the record of truth.
type Mirror struct {
	db *bun.DB
}

func NewMirror(db *bun.DB) (*Mirror, error) {
	if db == nil {
		return nil, errors.New("mirror db is required")
	}
	return &Mirror{db: db}, nil
}

func (m *Mirror) EnsureSchema(ctx context.Context) error {
	if _, err := m.db.NewCreateTable().
		Model((*checkpointRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create checkpoints table: %w", err)
	}
	return nil
}

func (m *Mirror) Record(ctx context.Context, cp contractx.Checkpoint, location string) error {
	row, err := newCheckpointRow(cp, location)
	if err != nil {
		return err
	}
	if _, err := m.insertQuery(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert checkpoint %s: %w", row.ID, err)
	}
	return nil
}

func (m *Mirror) insertQuery(row *checkpointRow) *bun.InsertQuery {
	return m.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO NOTHING")
}

func newCheckpointRow(cp contractx.Checkpoint, location string) (*checkpointRow, error) {
	payload, err := json.Marshal(cp.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint payload: %w", err)
	}
	createdAt := cp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	id := cp.ID
	if id == "" {
		id = NewID(createdAt)
	}
	return &checkpointRow{
		ID:        id,
		Kind:      cp.Kind,
		Name:      cp.Name,
		Location:  location,
		Payload:   payload,
		CreatedAt: createdAt.UTC(),
	}, nil
}

// Recorder receives checkpoints after the primary sink wrote them.
type Recorder interface {
	Record(ctx context.Context, cp contractx.Checkpoint, location string) error
}

// Tee writes to the primary sink and then forwards to recorders. Recorder
// failures are logged and never fail the checkpoint.
type Tee struct {
	primary   contractx.Sink
	recorders []Recorder
}

func NewTee(primary contractx.Sink, recorders ...Recorder) *Tee {
	return &Tee{primary: primary, recorders: recorders}
}

func (t *Tee) Write(ctx context.Context, cp contractx.Checkpoint) (string, error) {
	location, err := t.primary.Write(ctx, cp)
	if err != nil {
		return "", err
	}
	for _, r := range t.recorders {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, cp, location); err != nil {
			log.Warn().Err(err).Str("kind", cp.Kind).Str("path", location).Msg("checkpoint mirror failed")
		}
	}
	return location, nil
}
