package sales

// Source is a read-only, indexed sequence of records.
// Both Store and Records satisfy it, so the reduction primitives accept either
// the whole dataset or an ad-hoc slice.
type Source interface {
	Len() int
	At(i int) Record
}

// Records adapts a plain slice to Source.
type Records []Record

func (r Records) Len() int        { return len(r) }
func (r Records) At(i int) Record { return r[i] }

// Store is the materialized dataset for one analysis session.
// It owns a private copy of its records and exposes no mutators, which makes it
// safe to share between concurrent readers.
type Store struct {
	records []Record
}

// NewStore copies records into a new immutable store.
func NewStore(records []Record) *Store {
	owned := make([]Record, len(records))
	copy(owned, records)
	return &Store{records: owned}
}

// Len returns the number of records. A nil store is empty.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// At returns the i-th record by value.
func (s *Store) At(i int) Record {
	return s.records[i]
}
