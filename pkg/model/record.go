// pkg/model/record.go
package model

import "time"

// FundingRecord is one cleaned row of the funding registry. String fields
// hold the literal decoded cell value; empty string means the source cell
// was empty. Optional numeric/temporal fields carry an explicit presence
// flag instead of a sentinel value.
type FundingRecord struct {
	FKZ                 string // project funding reference code, near-unique
	Ministry            string // Ressort short code
	Country             string // Staat
	State               string // Bundesland, meaningful only for Deutschland
	City                string // Ort
	Recipient           string // Zuwendungsempfänger
	Topic               string // Thema, free-text project title
	ClassificationCode  string // Leistungsplansystematik
	ClassificationLabel string // Klartext Leistungsplansystematik
	FundingType         string // Förderart
	FundingProfile      string // Förderprofil
	Sponsor             string // PT, Projektträger code
	JointProjectName    string // Verbundprojekt, non-empty for joint projects

	FundingAmount float64

	StartDate    time.Time
	HasStartDate bool
	EndDate      time.Time
	HasEndDate   bool

	StartYear int // valid only when HasStartDate
	EndYear   int // valid only when HasEndDate

	DurationMonths    float64
	HasDurationMonths bool
}

// IsJoint reports whether the record belongs to a multi-party joint
// project.
func (r *FundingRecord) IsJoint() bool {
	return r.JointProjectName != ""
}

// RecordSet is the frozen record collection produced by a single load. All
// report builders read the same set; none of them mutates it.
type RecordSet struct {
	records []FundingRecord
	source  string
}

// NewRecordSet wraps a loaded record slice. The slice must not be modified
// after the call.
func NewRecordSet(records []FundingRecord, source string) *RecordSet {
	return &RecordSet{records: records, source: source}
}

// Records returns the underlying record slice. Callers must treat it as
// read-only.
func (s *RecordSet) Records() []FundingRecord {
	return s.records
}

// Len returns the number of records in the set.
func (s *RecordSet) Len() int {
	return len(s.records)
}

// Source returns the path of the file the set was loaded from.
func (s *RecordSet) Source() string {
	return s.source
}

// TotalFunding returns the sum of all funding amounts in the set.
func (s *RecordSet) TotalFunding() float64 {
	total := 0.0
	for i := range s.records {
		total += s.records[i].FundingAmount
	}
	return total
}
