package model

// IngestStatus classifies what happened to one work unit (a video chunk or a
// document item) during an ingestion run.
type IngestStatus string

const (
	IngestInserted            IngestStatus = "inserted"
	IngestSkippedExisting     IngestStatus = "skipped_existing"
	IngestSkippedMissingInput IngestStatus = "skipped_missing_input"
	IngestFailed              IngestStatus = "failed"
)

// IngestOutcome is the per-unit result of an ingestion attempt.
type IngestOutcome struct {
	RecordID string
	Status   IngestStatus
	Reason   string
}

// IngestSummary aggregates outcomes for batch reporting.
type IngestSummary struct {
	Inserted            int
	SkippedExisting     int
	SkippedMissingInput int
	Failed              int
}

func (s *IngestSummary) Add(o IngestOutcome) {
	switch o.Status {
	case IngestInserted:
		s.Inserted++
	case IngestSkippedExisting:
		s.SkippedExisting++
	case IngestSkippedMissingInput:
		s.SkippedMissingInput++
	case IngestFailed:
		s.Failed++
	}
}

func (s IngestSummary) Total() int {
	return s.Inserted + s.SkippedExisting + s.SkippedMissingInput + s.Failed
}
