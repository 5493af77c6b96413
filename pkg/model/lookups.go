// pkg/model/lookups.go
package model

// MinistryNames maps the Ressort short codes to the full ministry names.
// Codes missing from the map are displayed by their raw code; the set of
// codes in the source file is small but not guaranteed closed.
var MinistryNames = map[string]string{
	"BMFTR":    "Bundesministerium für Forschung, Technologie und Raumfahrt",
	"BMWE":     "Bundesministerium für Wirtschaft und Energie",
	"BMV":      "Bundesministerium für Verkehr",
	"BMLEH":    "Bundesministerium für Landwirtschaft, Ernährung und Heimat",
	"BMUKN":    "Bundesministerium für Umwelt, Klimaschutz und Naturschutz",
	"BMJV":     "Bundesministerium der Justiz und für Verbraucherschutz",
	"BMJV_BLE": "BMJV - Bundesanstalt für Landwirtschaft und Ernährung",
}

// SponsorNames maps Projektträger short codes to the administering
// organization's full name.
var SponsorNames = map[string]string{
	"BF":      "DLR Projektträger (ehem. Beratungsfirma)",
	"VDI/VDE": "VDI/VDE Innovation + Technik GmbH",
	"PT-DLR":  "DLR Projektträger",
	"FZ-Jül":  "Forschungszentrum Jülich",
	"GSI":     "GSI Helmholtzzentrum für Schwerionenforschung",
	"PTJ":     "Projektträger Jülich",
	"PTKA":    "Karlsruher Institut für Technologie (KIT)",
	"TÜV":     "TÜV Rheinland Consulting GmbH",
	"PT-SW":   "DLR Projektträger Software",
	"LF":      "Landwirtschaftliche Fakultät",
	"BLE":     "Bundesanstalt für Landwirtschaft und Ernährung",
	"FNR":     "Fachagentur Nachwachsende Rohstoffe e.V.",
}

// MinistryName resolves a Ressort code to its display name, falling back
// to the raw code for unknown ministries.
func MinistryName(code string) string {
	if name, ok := MinistryNames[code]; ok {
		return name
	}
	return code
}

// SponsorName resolves a Projektträger code to its display name, falling
// back to the raw code.
func SponsorName(code string) string {
	if name, ok := SponsorNames[code]; ok {
		return name
	}
	return code
}
