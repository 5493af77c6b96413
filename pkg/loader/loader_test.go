package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// writeRegistry encodes the given UTF-8 lines as Windows-1252 and writes
// them to a temp file, mimicking the real export.
func writeRegistry(t *testing.T, lines ...string) string {
	t.Helper()
	encoded, err := charmap.Windows1252.NewEncoder().String(strings.Join(lines, "\n") + "\n")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "Suchliste.csv")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))
	return path
}

const testHeader = `="FKZ";="Ressort";="Staat";="Bundesland";="Ort";="Zuwendungsempfänger";="Thema";="Leistungsplansystematik";="Klartext Leistungsplansystematik";="Förderart";="Förderprofil";="PT";="Verbundprojekt";="Fördersumme in EUR";="Laufzeit von";="Laufzeit bis"`

func TestLoad(t *testing.T) {
	path := writeRegistry(t,
		testHeader,
		`="01K1";BMFTR;Deutschland;Bayern;München;="TU München";="Entwicklung neuer Sensorik";A01;Grundlagenforschung;Zuschuss;Profil1;PTJ;;="1.000,00";01.01.2020;01.07.2020`,
		`="01K2";BMWE;Deutschland;Berlin;Berlin;Firma GmbH;Projekt zwei;B02;Angewandte Forschung;Zuschuss;;PT-DLR;="Verbund X";500,00;01.01.2021;`,
	)

	l, err := NewLoader(zap.NewNop())
	require.NoError(t, err)
	set, err := l.Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	r := set.Records()[0]
	assert.Equal(t, "01K1", r.FKZ)
	assert.Equal(t, "BMFTR", r.Ministry)
	assert.Equal(t, "Bayern", r.State)
	assert.Equal(t, "TU München", r.Recipient)
	assert.InDelta(t, 1000.0, r.FundingAmount, 1e-9)
	assert.True(t, r.HasStartDate)
	assert.Equal(t, 2020, r.StartYear)
	assert.True(t, r.HasDurationMonths)
	// 01.01.2020 to 01.07.2020 is 182 days = 5.979... months.
	assert.InDelta(t, 182.0/30.44, r.DurationMonths, 1e-9)
	assert.False(t, r.IsJoint())

	r2 := set.Records()[1]
	assert.Equal(t, "Verbund X", r2.JointProjectName)
	assert.True(t, r2.IsJoint())
	assert.True(t, r2.HasStartDate)
	assert.False(t, r2.HasEndDate, "empty end date decodes to absent")
	assert.False(t, r2.HasDurationMonths)
	assert.Equal(t, "", r2.FundingProfile)
}

func TestLoadDropsDuplicateSuffixColumns(t *testing.T) {
	path := writeRegistry(t,
		`="FKZ";="Ressort";="Ressort.1";="Unnamed: 3";="Fördersumme in EUR";="Laufzeit von";="Laufzeit bis"`,
		`A1;BMV;stale;junk;100,00;01.01.2020;01.01.2021`,
	)

	l, err := NewLoader(zap.NewNop())
	require.NoError(t, err)
	set, err := l.Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, "BMV", set.Records()[0].Ministry)
}

func TestCleanHeaderSuffixOnly(t *testing.T) {
	columns := cleanHeader([]string{"Ressort", "Nr.15 Kennzahl", "Thema.1", "Thema.12"})

	// Only a trailing ".N" marks a duplicated column; a dot-number in the
	// middle of a name is part of the name.
	assert.Contains(t, columns, "Nr.15 Kennzahl")
	assert.NotContains(t, columns, "Thema.1")
	assert.NotContains(t, columns, "Thema.12")
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	l, err := NewLoader(zap.NewNop())
	require.NoError(t, err)
	_, err = l.Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestLoadMissingRequiredColumns(t *testing.T) {
	path := writeRegistry(t,
		`="FKZ";="Staat"`,
		`A1;Deutschland`,
	)
	l, err := NewLoader(zap.NewNop())
	require.NoError(t, err)
	_, err = l.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ressort")
}

func TestLoadNegativeDurationFloorsAtZero(t *testing.T) {
	path := writeRegistry(t,
		testHeader,
		`A1;BMV;;;;;;;;;;;;100,00;01.01.2021;01.01.2020`,
	)
	l, err := NewLoader(zap.NewNop())
	require.NoError(t, err)
	set, err := l.Load(path)
	require.NoError(t, err)
	r := set.Records()[0]
	require.True(t, r.HasDurationMonths)
	assert.Equal(t, 0.0, r.DurationMonths)
}

func TestLoadStrictMode(t *testing.T) {
	path := writeRegistry(t,
		testHeader,
		`A1;BMV;;;;;;;;;;;;abc;31.13.2020;`,
	)

	// The default path swallows both bad cells.
	l, err := NewLoader(zap.NewNop())
	require.NoError(t, err)
	set, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, set.Records()[0].FundingAmount)
	assert.False(t, set.Records()[0].HasStartDate)

	// Strict mode turns them into load errors with row context.
	strict, err := NewLoader(zap.NewNop())
	require.NoError(t, err)
	_, err = strict.WithStrict(true).Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}
