package replay

import (
	"fmt"

	"dcatool/internal/logger"
)

// DiagKind classifies a recoverable data problem found during replay.
type DiagKind string

const (
	DiagMissingPriceData         DiagKind = "missing_price_data"
	DiagAmbiguousTransactionDate DiagKind = "ambiguous_transaction_date"
	DiagMalformedPosition        DiagKind = "malformed_position"
)

// Diagnostic is one soft warning. The replay never fails on bad data; a
// single malformed transaction must not blank a multi-year chart, so every
// problem is recovered with a best-effort default and recorded here.
type Diagnostic struct {
	Kind    DiagKind `json:"kind"`
	Date    string   `json:"date,omitempty"`
	Message string   `json:"message"`
}

// Recorder accumulates diagnostics for one replay pass.
type Recorder struct {
	list []Diagnostic
}

func (r *Recorder) Warnf(kind DiagKind, date, format string, v ...any) {
	if r == nil {
		return
	}
	msg := fmt.Sprintf(format, v...)
	r.list = append(r.list, Diagnostic{Kind: kind, Date: date, Message: msg})
	logger.Warnf("[replay] %s %s: %s", kind, date, msg)
}

func (r *Recorder) Diagnostics() []Diagnostic {
	if r == nil {
		return nil
	}
	return r.list
}
