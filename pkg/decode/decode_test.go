package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`="12345"`, "12345"},
		{`="BMFTR"`, "BMFTR"},
		{"plain value", "plain value"},
		{"  spaced  ", "spaced"},
		{`="umlaut öäü"`, "umlaut öäü"},
		{"", ""},
		{`="`, `="`},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Text(c.in), "input %q", c.in)
	}
}

func TestTextIdempotent(t *testing.T) {
	samples := []string{`="01K12345"`, "Deutschland", `="1.234,56"`, "", "  x  "}
	for _, s := range samples {
		once := Text(s)
		assert.Equal(t, once, Text(once), "decoding twice must equal decoding once for %q", s)
	}
}

func TestAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1.234,56", 1234.56},
		{`="1.234,56"`, 1234.56},
		{"500,00", 500.0},
		{"2.000.000,99", 2000000.99},
		{"0,01", 0.01},
		{"", 0.0},
		{"abc", 0.0},
		{"1,2,3", 0.0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, Amount(c.in), 1e-9, "input %q", c.in)
	}
}

func TestAmountStrict(t *testing.T) {
	_, err := AmountStrict("")
	assert.Error(t, err)
	_, err = AmountStrict("abc")
	assert.Error(t, err)
	v, err := AmountStrict("0,00")
	assert.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestDate(t *testing.T) {
	d, ok := Date("01.02.2020")
	assert.True(t, ok)
	assert.Equal(t, 2020, d.Year())
	assert.Equal(t, time.February, d.Month())
	assert.Equal(t, 1, d.Day())

	_, ok = Date("31.13.2020")
	assert.False(t, ok, "invalid month must decode to absent")
	_, ok = Date("31.04.2021")
	assert.False(t, ok, "overflowing day must decode to absent")
	_, ok = Date("")
	assert.False(t, ok)
	_, ok = Date("2020-01-01")
	assert.False(t, ok, "ISO dates are not the registry format")
	_, ok = Date(`="15.06.1999"`)
	assert.True(t, ok, "wrapped dates decode like plain ones")
}
