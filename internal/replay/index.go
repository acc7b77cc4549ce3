package replay

import (
	"sort"
)

// Index is the date-keyed lookup over the executed transaction log.
// Aborted events are dropped before indexing; the ordered slice supports
// binary search for the most recent transaction on or before a given day.
type Index struct {
	byDate  map[string]Transaction
	ordered []Transaction
}

// NewIndex builds the lookup. Input order does not matter. If two executed
// transactions share a calendar date (the engine should never emit that),
// the later one in log order wins and the collision is recorded.
func NewIndex(log []Transaction, rec *Recorder) *Index {
	idx := &Index{byDate: make(map[string]Transaction, len(log))}
	for _, tx := range log {
		if tx.Type.Aborted() {
			continue
		}
		if err := tx.Validate(); err != nil {
			rec.Warnf(DiagMalformedPosition, tx.Date, "transaction dropped: %v", err)
			continue
		}
		if prev, ok := idx.byDate[tx.Date]; ok {
			rec.Warnf(DiagAmbiguousTransactionDate, tx.Date,
				"two executed transactions on one date (%s then %s), keeping the later", prev.Type, tx.Type)
		}
		idx.byDate[tx.Date] = tx
	}
	idx.ordered = make([]Transaction, 0, len(idx.byDate))
	for _, tx := range idx.byDate {
		idx.ordered = append(idx.ordered, tx)
	}
	sort.Slice(idx.ordered, func(i, j int) bool {
		return idx.ordered[i].Date < idx.ordered[j].Date
	})
	return idx
}

func (x *Index) Len() int { return len(x.ordered) }

// Ordered returns the executed transactions, date ascending.
func (x *Index) Ordered() []Transaction { return x.ordered }

// OnDate returns the transaction executed exactly on day, if any.
func (x *Index) OnDate(day string) (Transaction, bool) {
	tx, ok := x.byDate[day]
	return tx, ok
}

// LatestOnOrBefore returns the most recent transaction with date <= day.
func (x *Index) LatestOnOrBefore(day string) (Transaction, bool) {
	// First index strictly after day; the predecessor is the answer.
	i := sort.Search(len(x.ordered), func(i int) bool {
		return x.ordered[i].Date > day
	})
	if i == 0 {
		return Transaction{}, false
	}
	return x.ordered[i-1], true
}
