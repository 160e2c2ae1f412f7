package store

import (
	"context"
	"fmt"
)

// InsertCitation attaches one citation payload to a message. Citations are
// opaque JSON blobs from the adapter's perspective (§6.2).
func InsertCitation(ctx context.Context, q Querier, id, messageID, payload string) error {
	_, err := q.ExecContext(ctx, `INSERT INTO citations (id, message_id, payload) VALUES (?, ?, ?)`, id, messageID, payload)
	if err != nil {
		return fmt.Errorf("store: insert citation for message %s: %w", messageID, err)
	}
	return nil
}

// InsertAttachment attaches one attachment payload to a message.
func InsertAttachment(ctx context.Context, q Querier, id, messageID, payload string) error {
	_, err := q.ExecContext(ctx, `INSERT INTO attachments (id, message_id, payload) VALUES (?, ?, ?)`, id, messageID, payload)
	if err != nil {
		return fmt.Errorf("store: insert attachment for message %s: %w", messageID, err)
	}
	return nil
}
