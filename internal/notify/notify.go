// Package notify delivers one message per newly published record to an
// external channel. This abstraction keeps the pipeline independent of
// the concrete transport (Telegram, Pub/Sub, or nothing for dry runs).
package notify

import (
	"context"
	"fmt"

	"github.com/gfiorillo/albowatch/internal/albo"
)

// Provider defines the common interface for a notification channel.
type Provider interface {
	// Notify renders and submits one message for the record. The
	// boolean reports whether the channel acknowledged delivery; a
	// refused delivery is not an error, the pipeline continues.
	Notify(ctx context.Context, rec albo.Record) (bool, error)

	// Close releases channel resources.
	Close() error
}

// NoOpProvider swallows notifications. Useful for dry runs where the
// diff should be computed and committed without messaging anyone.
type NoOpProvider struct{}

// Notify for NoOpProvider acknowledges without sending anything.
func (n *NoOpProvider) Notify(_ context.Context, _ albo.Record) (bool, error) {
	return true, nil
}

// Close for NoOpProvider does nothing.
func (n *NoOpProvider) Close() error { return nil }

// RenderMessage builds the fixed-structure notification text. The
// wording stays Italian: it is what subscribers of the municipality's
// register read. Telegram's Markdown subset is assumed by all providers
// so the rendered text is transport-independent.
func RenderMessage(rec albo.Record) string {
	msg := fmt.Sprintf(
		"📰 *Nuova Pubblicazione*\n"+
			"\n🗂 *Tipo Atto:* %s"+
			"\n🔢 *Numero:* %s"+
			"\n📅 *Periodo pubblicazione:* %s"+
			"\n📝 *Oggetto:* %s"+
			"\n🔗 [Vedi Dettagli](%s)",
		rec.Category,
		rec.Number,
		rec.Period(),
		rec.Subject,
		rec.DetailURL,
	)
	if rec.Enrichment != nil && rec.Enrichment.Summary != "" {
		msg += fmt.Sprintf("\n\n🧾 *Riassunto:* %s", rec.Enrichment.Summary)
	}
	return msg
}
