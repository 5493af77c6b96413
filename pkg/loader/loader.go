// pkg/loader/loader.go
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/foerderkatalog/pipeline/pkg/decode"
	"github.com/foerderkatalog/pipeline/pkg/model"
)

// Column names of the registry export, after header decoding.
const (
	colFKZ                 = "FKZ"
	colMinistry            = "Ressort"
	colCountry             = "Staat"
	colState               = "Bundesland"
	colCity                = "Ort"
	colRecipient           = "Zuwendungsempfänger"
	colTopic               = "Thema"
	colClassification      = "Leistungsplansystematik"
	colClassificationLabel = "Klartext Leistungsplansystematik"
	colFundingType         = "Förderart"
	colFundingProfile      = "Förderprofil"
	colSponsor             = "PT"
	colJointProject        = "Verbundprojekt"
	colFundingAmount       = "Fördersumme in EUR"
	colRuntimeFrom         = "Laufzeit von"
	colRuntimeTo           = "Laufzeit bis"
)

// requiredColumns must all be present after header cleaning; a file missing
// any of them is treated as malformed.
var requiredColumns = []string{
	colFKZ,
	colMinistry,
	colFundingAmount,
	colRuntimeFrom,
	colRuntimeTo,
}

// daysPerMonth is the average month length used to derive project
// durations from date ranges.
const daysPerMonth = 30.44

// Loader reads the raw semicolon-delimited, Windows-1252-encoded registry
// export and produces the cleaned in-memory record set.
type Loader struct {
	logger *zap.Logger
	strict bool
}

// NewLoader creates a new Loader.
func NewLoader(logger *zap.Logger) (*Loader, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Loader{logger: logger}, nil
}

// WithStrict toggles strict decoding: non-empty cells that fail to decode
// become load errors instead of silently taking the default value. Report
// consumers rely on the defaults, so strict mode is for diagnostics and
// tests only.
func (l *Loader) WithStrict(strict bool) *Loader {
	l.strict = strict
	return l
}

// Load reads and cleans the registry file at path. Any read or parse
// failure of the file itself is fatal and aborts the pipeline; individual
// cell decoding failures degrade to the documented defaults.
func (l *Loader) Load(path string) (*model.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file %s: %w", path, err)
	}
	defer f.Close()

	// The export is Windows-1252; decode on the fly so cell values arrive
	// as UTF-8.
	reader := csv.NewReader(charmap.Windows1252.NewDecoder().Reader(f))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rawHeader, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	columns := cleanHeader(rawHeader)
	if err := checkRequiredColumns(columns); err != nil {
		return nil, fmt.Errorf("unexpected header in %s: %w", path, err)
	}

	l.logger.Info("Loading registry file",
		zap.String("path", path),
		zap.Int("columns", len(columns)))

	records := make([]model.FundingRecord, 0, 1024)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d from %s: %w", len(records)+2, path, err)
		}
		rec, err := l.buildRecord(columns, row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode row %d of %s: %w", len(records)+2, path, err)
		}
		records = append(records, rec)
	}

	l.logger.Info("Registry file loaded",
		zap.String("path", path),
		zap.Int("rows", len(records)))

	return model.NewRecordSet(records, path), nil
}

// columnIndex maps a cleaned column name to its position in the raw row.
// Columns dropped during header cleaning never appear in the map.
type columnIndex map[string]int

// duplicateSuffixPattern matches the ".1", ".2", ... suffix that dataframe
// exporters append to repeated column names.
var duplicateSuffixPattern = regexp.MustCompile(`\.\d+$`)

// cleanHeader trims and decodes every header cell and drops spreadsheet
// export artifacts: duplicate-suffix columns (".1") and unnamed columns.
func cleanHeader(rawHeader []string) columnIndex {
	columns := make(columnIndex, len(rawHeader))
	for i, raw := range rawHeader {
		name := decode.Text(raw)
		if name == "" || duplicateSuffixPattern.MatchString(name) || strings.Contains(name, "Unnamed") {
			continue
		}
		if _, exists := columns[name]; exists {
			// A second column with the same cleaned name is an export
			// artifact; keep the first occurrence.
			continue
		}
		columns[name] = i
	}
	return columns
}

func checkRequiredColumns(columns columnIndex) error {
	missing := make([]string, 0)
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// cell returns the decoded value of the named column in row, or "" when
// the column is absent or the row is short.
func cell(columns columnIndex, row []string, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return decode.Text(row[idx])
}

// buildRecord cleans one raw row and derives the computed fields. Decoding
// failures degrade to the documented defaults unless strict mode is on.
func (l *Loader) buildRecord(columns columnIndex, row []string) (model.FundingRecord, error) {
	rec := model.FundingRecord{
		FKZ:                 cell(columns, row, colFKZ),
		Ministry:            cell(columns, row, colMinistry),
		Country:             cell(columns, row, colCountry),
		State:               cell(columns, row, colState),
		City:                cell(columns, row, colCity),
		Recipient:           cell(columns, row, colRecipient),
		Topic:               cell(columns, row, colTopic),
		ClassificationCode:  cell(columns, row, colClassification),
		ClassificationLabel: cell(columns, row, colClassificationLabel),
		FundingType:         cell(columns, row, colFundingType),
		FundingProfile:      cell(columns, row, colFundingProfile),
		Sponsor:             cell(columns, row, colSponsor),
		JointProjectName:    cell(columns, row, colJointProject),
	}

	if l.strict {
		if err := l.checkStrict(columns, row); err != nil {
			return rec, err
		}
	}

	rec.FundingAmount = decode.Amount(cell(columns, row, colFundingAmount))

	rec.StartDate, rec.HasStartDate = decode.Date(cell(columns, row, colRuntimeFrom))
	rec.EndDate, rec.HasEndDate = decode.Date(cell(columns, row, colRuntimeTo))
	if rec.HasStartDate {
		rec.StartYear = rec.StartDate.Year()
	}
	if rec.HasEndDate {
		rec.EndYear = rec.EndDate.Year()
	}

	if rec.HasStartDate && rec.HasEndDate {
		days := rec.EndDate.Sub(rec.StartDate).Hours() / 24
		months := days / daysPerMonth
		if months < 0 {
			months = 0
		}
		rec.DurationMonths = months
		rec.HasDurationMonths = true
	}

	return rec, nil
}

// checkStrict surfaces decode failures that the default path would swallow.
// Empty cells stay legitimate absences in either mode.
func (l *Loader) checkStrict(columns columnIndex, row []string) error {
	if raw := cell(columns, row, colFundingAmount); raw != "" {
		if _, err := decode.AmountStrict(raw); err != nil {
			return fmt.Errorf("column %q: %w", colFundingAmount, err)
		}
	}
	for _, col := range []string{colRuntimeFrom, colRuntimeTo} {
		if raw := cell(columns, row, col); raw != "" {
			if _, err := decode.DateStrict(raw); err != nil {
				return fmt.Errorf("column %q: %w", col, err)
			}
		}
	}
	return nil
}
