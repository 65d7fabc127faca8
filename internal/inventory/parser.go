package inventory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/logger"
	"github.com/sprite-ai/specgate/internal/pattern"
	"github.com/sprite-ai/specgate/internal/review"
)

// Parser builds a MessageInventory from a document.
type Parser struct {
	taxonomy *Taxonomy
	store    review.Store
	log      zerolog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithStore makes the parser auto-accept unrecognized messages into s.
func WithStore(s review.Store) Option {
	return func(p *Parser) { p.store = s }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Parser) { p.log = l }
}

// NewParser returns a parser for the given taxonomy.
func NewParser(t *Taxonomy, opts ...Option) (*Parser, error) {
	if t == nil {
		return nil, ErrTaxonomyNotFound
	}
	p := &Parser{taxonomy: t, log: logger.Component("inventory")}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Taxonomy returns the taxonomy the parser categorizes against.
func (p *Parser) Taxonomy() *Taxonomy { return p.taxonomy }

// Parse recognizes, deduplicates and categorizes the messages and fields of
// doc. With a device type and a store, unrecognized messages are recorded
// for review; a failure to record them fails the parse.
func (p *Parser) Parse(doc *document.Document, deviceType string) (*MessageInventory, error) {
	msgs := ScanMessages(doc)
	fields := ScanFields(doc)
	recognized, unrecognized := p.Categorize(msgs)

	if deviceType != "" && p.store != nil && len(unrecognized) > 0 {
		n, err := review.AutoAccept(p.store, deviceType, candidates(unrecognized))
		if err != nil {
			return nil, fmt.Errorf("auto-accepting unrecognized messages: %w", err)
		}
		if n > 0 {
			p.log.Info().Str("device_type", deviceType).Int("count", n).Msg("auto-accepted unrecognized messages for review")
		}
	}

	p.log.Debug().
		Int("recognized", len(recognized)).
		Int("unrecognized", len(unrecognized)).
		Int("fields", len(fields)).
		Msg("parsed inventory")

	return &MessageInventory{
		Recognized:   recognized,
		Unrecognized: unrecognized,
		Fields:       fields,
		Categories:   buildCategories(recognized, unrecognized),
	}, nil
}

// ParseFile loads a document and parses it.
func (p *Parser) ParseFile(path, deviceType string) (*MessageInventory, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(doc, deviceType)
}

// Categorize splits messages into recognized and unrecognized, setting each
// message's category.
func (p *Parser) Categorize(msgs []MessageType) (recognized, unrecognized []MessageType) {
	for _, m := range msgs {
		cat, ok := p.taxonomy.Categorize(m.MessageID)
		m.Category = cat
		if ok {
			recognized = append(recognized, m)
			continue
		}
		m.Malformed = !plausiblePrefix(pattern.MessagePrefix(m.MessageID))
		unrecognized = append(unrecognized, m)
	}
	return recognized, unrecognized
}

func candidates(msgs []MessageType) []review.Candidate {
	out := make([]review.Candidate, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, review.Candidate{
			MessageID: m.MessageID,
			Direction: m.Direction,
			Citations: m.Citations,
			Malformed: m.Malformed,
		})
	}
	return out
}
