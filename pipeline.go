package dataflow

import (
	"fmt"
	"log"
)

// Pipeline binds a client contract to the artifact store. It is
// synchronous and processes one upload per call; callers drive it from
// the (out-of-scope) upload UI.
type Pipeline struct {
	contract *Contract
	store    *Store
}

// New returns a pipeline for one client deployment.
func New(c *Contract, store *Store) *Pipeline {
	return &Pipeline{contract: c, store: store}
}

// Contract returns the pipeline's immutable configuration.
func (p *Pipeline) Contract() *Contract { return p.contract }

// Store returns the pipeline's artifact store.
func (p *Pipeline) Store() *Store { return p.store }

// Check runs the reader and the guardian only: it answers whether the
// upload would be accepted, without coercing or persisting anything.
// The outcome contract is the same tri-state as [Pipeline.Process].
func (p *Pipeline) Check(up Upload) (ok bool, message string, report *IntegrityReport) {
	defer recoverOutcome(&ok, &message, &report)

	t, err := ReadUpload(up, p.contract)
	if err != nil {
		return false, err.Error(), nil
	}
	rep := Inspect(t)
	ok, message = Validate(t, p.contract)
	return ok, message, &rep
}

// Process runs the full pipeline on one upload: read, validate,
// coerce, enrich, persist, signal. No error escapes it; every outcome
// is reported through the returned tri-state, and the message always
// carries the integrity percentage on success and on integrity-driven
// rejection.
func (p *Pipeline) Process(up Upload) (ok bool, message string, report *IntegrityReport) {
	defer recoverOutcome(&ok, &message, &report)

	t, err := ReadUpload(up, p.contract)
	if err != nil {
		return false, err.Error(), nil
	}

	rep := Inspect(t)
	accepted, diag := Validate(t, p.contract)
	if !accepted {
		// Best effort: a rejection record lets consumers tell a refused
		// upload from one that never arrived.
		if _, err := p.store.Reject(up.Name, diag, rep); err != nil {
			log.Printf("cannot write rejection record for %q: %v", up.Name, err)
		}
		return false, diag, &rep
	}

	coerced, dropped := Coerce(t, p.contract)
	if coerced.NumRows() == 0 {
		msg := "no rows survived type coercion: check the declared column types"
		if _, err := p.store.Reject(up.Name, msg, rep); err != nil {
			log.Printf("cannot write rejection record for %q: %v", up.Name, err)
		}
		return false, msg, &rep
	}

	enriched := Enrich(coerced, p.contract)

	record, err := p.store.Persist(enriched, up.Name, rep)
	if err != nil {
		return false, err.Error(), &rep
	}

	message = fmt.Sprintf("processed %d rows (integrity %.2f%%), artifact %s",
		record.Rows, rep.IntegrityPct, record.FilePath)
	if dropped > 0 {
		message += fmt.Sprintf(" (warning: %d incomplete rows dropped)", dropped)
	}
	return true, message, &rep
}

// recoverOutcome keeps the no-error-escapes promise of the public entry
// points even for a panic in a conversion step.
func recoverOutcome(ok *bool, message *string, report **IntegrityReport) {
	if r := recover(); r != nil {
		*ok = false
		*message = fmt.Sprintf("internal pipeline failure: %v", r)
		*report = nil
	}
}
