package lexicon

import (
	"github.com/iamNilotpal/lexi/internal/extent"
	"github.com/iamNilotpal/lexi/internal/posting"
	"github.com/iamNilotpal/lexi/pkg/errors"
)

// BeginDocument opens the document-level side channel for a new
// document starting at docStart (spec §4.2 "Document-level
// side-channel", delimited by the <doc>/</doc> tags). When
// LexiconOptions.DocumentLevel is set, every ordinary Insert made before
// the matching EndDocument contributes to that term's per-document
// frequency counter; otherwise Insert leaves the counter untouched.
func (l *Lexicon) BeginDocument(docStart extent.Posting) error {
	if l.docOpen {
		return errors.NewIndexCorruptionError("BeginDocument", 0, nil).
			WithDetail("reason", "a document is already open")
	}
	l.docOpen = true
	l.docStart = docStart
	return nil
}

// EndDocument closes the currently open document. For every term seen
// since BeginDocument, it synthesizes one document-level posting —
// value docStart*2^s + encodeTF(count) — under that term's "<!>"-
// prefixed variant entry, per spec §4.2.
func (l *Lexicon) EndDocument() error {
	if !l.docOpen {
		return errors.NewIndexCorruptionError("EndDocument", 0, nil).
			WithDetail("reason", "no document is open")
	}

	bits := l.opts.LexiconOptions.TFBits
	if bits <= 0 {
		bits = 6
	}

	for _, id := range l.openDocTerm {
		e := l.entries[id-1]
		tf := posting.EncodeTF(uint32(e.docTF), bits)
		docPosting := l.docStart<<uint(bits) | extent.Posting(tf)

		if err := l.insertDocVariant(e.term, docPosting); err != nil {
			return err
		}
		e.docTF = 0
		e.docTouched = false
	}

	l.openDocTerm = l.openDocTerm[:0]
	l.docOpen = false
	l.docStart = 0
	return nil
}

// insertDocVariant appends posting to term's "<!>"-prefixed document-
// level entry, bypassing the per-document TF bookkeeping that ordinary
// Insert applies (the variant entry itself never participates in it).
func (l *Lexicon) insertDocVariant(term string, posting extent.Posting) error {
	docTerm := docMarker + term
	_, e := l.resolve(docTerm)
	if e.head != 0 && posting <= e.lastPosting {
		return errors.NewIndexCorruptionError("insertDocVariant", 0, nil).
			WithDetail("reason", "document postings must be strictly increasing").
			WithDetail("term", docTerm)
	}

	gap := posting - e.lastPosting
	if err := l.appendDelta(e, gap); err != nil {
		return err
	}
	e.lastPosting = posting
	return nil
}
