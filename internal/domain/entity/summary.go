package entity

// FailedRecord pairs a record with the error that skipped it.
type FailedRecord struct {
	Record AnnotationRecord
	Err    error
}

// RunSummary is the driver's result: counts plus the list of failed
// records with reasons, enabling targeted re-runs.
type RunSummary struct {
	Processed int
	Skipped   int
	Failed    []FailedRecord
}

func (s *RunSummary) AddFailure(rec AnnotationRecord, err error) {
	s.Failed = append(s.Failed, FailedRecord{Record: rec, Err: err})
}
