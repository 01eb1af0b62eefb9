// Package albo defines the core domain types for the register watcher:
// published acts, their optional enrichment, and the persisted seen-state.
package albo

// Record is one entry of the online register (albo pretorio).
// ID is the only identity key; every other field is display data and may
// be empty on malformed or partially filled rows.
type Record struct {
	ID          string
	Number      string
	Category    string
	Subject     string
	PeriodStart string
	PeriodEnd   string
	DetailURL   string

	// Enrichment is attached by the enricher for newly discovered
	// records; nil when enrichment is disabled or has not run.
	Enrichment *Enrichment
}

// Period renders the publication period for display, joining start and
// end when both are present.
func (r Record) Period() string {
	if r.PeriodEnd == "" {
		return r.PeriodStart
	}
	return r.PeriodStart + " - " + r.PeriodEnd
}

// Enrichment holds the derived content attached to a new record.
type Enrichment struct {
	AttachmentURL string
	ExtractedText string
	Summary       string

	// Degraded lists the steps that fell back to a placeholder,
	// in the order they ran.
	Degraded []string
}

// SeenEntry is the small per-record summary persisted in the seen-store.
// The full Record is never persisted.
type SeenEntry struct {
	Number  string `json:"numero"`
	Subject string `json:"oggetto"`
	Summary string `json:"riassunto,omitempty"`
}

// Snapshot maps record ID to its persisted summary. It is loaded once per
// run, grown in memory, and committed wholesale.
type Snapshot map[string]SeenEntry

// Clone returns a shallow copy of the snapshot. Entries are value types,
// so the copy is safe to mutate independently.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, e := range s {
		out[id] = e
	}
	return out
}
