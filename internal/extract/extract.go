// Package extract implements the Extractor Core (C3): the idempotent,
// incremental reconciliation algorithm described in spec §4.3.
package extract

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmarx/chat2obs/internal/platform"
	"github.com/dmarx/chat2obs/internal/store"
)

// Options controls per-run extraction behavior (§4.3.1).
type Options struct {
	// AssumeImmutable skips content-hash comparison for existing messages,
	// treating them as unchanged. Still detects new/removed messages.
	AssumeImmutable bool
	// Incremental treats the import as a delta: messages absent from the
	// current import are not soft-deleted.
	Incremental bool
	// DryRun classifies every dialogue without committing any write. Not
	// part of spec.md; backs the CLI's --dry-run flag.
	DryRun bool
}

// Result is the outcome summary returned by one extraction run (§6.3).
type Result struct {
	New     int
	Updated int
	Skipped int
	Failed  int
}

// Extractor drives one platform.Adapter against a Store Gateway.
type Extractor struct {
	gw      *store.Gateway
	adapter platform.Adapter
	log     zerolog.Logger
}

// New builds an Extractor for one adapter instance.
func New(gw *store.Gateway, adapter platform.Adapter, log zerolog.Logger) *Extractor {
	return &Extractor{gw: gw, adapter: adapter, log: log}
}

// Run reconciles every dialogue the adapter exposes against existing
// storage, one dialogue per transaction (§5: "extraction rolls back that
// dialogue only").
func (e *Extractor) Run(ctx context.Context, opts Options) (Result, error) {
	var result Result

	dialogues, err := e.adapter.Dialogues()
	if err != nil {
		return result, err
	}

	for _, rd := range dialogues {
		if rd.ExternalID == "" {
			e.log.Warn().Str("source", e.adapter.SourceID()).Msg("dialogue missing external id, skipping")
			continue
		}

		var outcome string
		txErr := e.gw.WithinTx(ctx, func(q store.Querier) error {
			o, err := e.processDialogue(ctx, q, rd, opts)
			outcome = o
			if opts.DryRun {
				return errDryRunRollback
			}
			return err
		})
		if txErr == errDryRunRollback {
			txErr = nil
		}
		if txErr != nil {
			result.Failed++
			e.log.Error().Err(txErr).Str("dialogue", rd.ExternalID).Msg("dialogue extraction failed, rolled back")
			continue
		}

		switch outcome {
		case outcomeNew:
			result.New++
		case outcomeUpdated:
			result.Updated++
		case outcomeSkipped:
			result.Skipped++
		}
		e.log.Info().Str("dialogue", rd.ExternalID).Str("outcome", outcome).Msg("dialogue processed")
	}

	return result, nil
}

const (
	outcomeNew     = "new"
	outcomeUpdated = "updated"
	outcomeSkipped = "skipped"
)

// errDryRunRollback is returned from inside a dry-run transaction purely to
// force Gateway.WithinTx to roll back; it is never surfaced to the caller.
var errDryRunRollback = errDryRun{}

type errDryRun struct{}

func (errDryRun) Error() string { return "dry run: rolled back by design" }

// processDialogue implements §4.3.2.
func (e *Extractor) processDialogue(ctx context.Context, q store.Querier, rd platform.RawDialogue, opts Options) (string, error) {
	existing, err := store.GetDialogueByExternalID(ctx, q, e.adapter.SourceID(), rd.ExternalID)
	if err != nil {
		return "", err
	}
	now := time.Now().UnixMilli()

	if existing == nil {
		d := &store.Dialogue{
			ID:              store.NewID(),
			SourceID:        e.adapter.SourceID(),
			ExternalID:      rd.ExternalID,
			Title:           rd.Title,
			RawJSON:         rd.RawJSON,
			SourceCreatedAt: rd.SourceCreatedAt,
			SourceUpdatedAt: rd.SourceUpdatedAt,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := store.InsertDialogue(ctx, q, d); err != nil {
			return "", err
		}
		if err := e.syncMessages(ctx, q, d.ID, rd.ExternalID, opts, now); err != nil {
			return "", err
		}
		return outcomeNew, nil
	}

	if rd.SourceUpdatedAt != nil && existing.SourceUpdatedAt != nil && *rd.SourceUpdatedAt <= *existing.SourceUpdatedAt {
		return outcomeSkipped, nil
	}

	existing.Title = rd.Title
	existing.RawJSON = rd.RawJSON
	existing.SourceCreatedAt = rd.SourceCreatedAt
	existing.SourceUpdatedAt = rd.SourceUpdatedAt
	existing.UpdatedAt = now
	if err := store.UpdateDialogue(ctx, q, existing); err != nil {
		return "", err
	}
	if err := e.syncMessages(ctx, q, existing.ID, rd.ExternalID, opts, now); err != nil {
		return "", err
	}
	return outcomeUpdated, nil
}
