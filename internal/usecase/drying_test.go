package usecase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baglabel/backend/internal/domain"
)

func TestDefaultDryingTable_Loads(t *testing.T) {
	table := DefaultDryingTable()
	assert.Equal(t, 33, table.Len())

	entries := table.Entries()
	assert.Equal(t, "PLA Basic/PLA Matte", entries[0].FilamentType)
	assert.Equal(t, "Support for ABS", entries[len(entries)-1].FilamentType)
}

func TestDryingTable_Lookup(t *testing.T) {
	table := DefaultDryingTable()

	tests := []struct {
		name     string
		label    string
		wantTemp string
		wantDur  string
		wantOK   bool
	}{
		{"exact key", "PLA", "55°C", "8h", true},
		{"case-insensitive key", "pla", "55°C", "8h", true},
		{"exact composite key", "PLA Basic/PLA Matte", "50°C", "8h", true},
		{"containment prefers longest key", "PLA-CF Matte", "55°C", "8h", true},
		{"nylon carbon", "Bambu PAHT-CF", "80°C", "10h", true},
		{"high temp", "PPS-CF", "120°C", "10h", true},
		{"support", "Support for ABS", "80°C", "4h", true},
		{"unknown", "Unobtainium", "", "", false},
		{"empty", "   ", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := table.Lookup(tt.label)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTemp, p.Temperature)
			assert.Equal(t, tt.wantDur, p.Duration)
		})
	}
}

func TestDryingTable_LookupCaseInsensitiveMatchesExact(t *testing.T) {
	table := DefaultDryingTable()
	for _, e := range table.Entries() {
		exact, ok := table.Lookup(e.FilamentType)
		require.True(t, ok, e.FilamentType)

		upper, ok := table.Lookup(toUpperASCII(e.FilamentType))
		require.True(t, ok, e.FilamentType)
		assert.Equal(t, exact, upper, e.FilamentType)
	}
}

func TestDryingTable_ExtractFilamentType(t *testing.T) {
	table := DefaultDryingTable()

	tests := []struct {
		title string
		want  string
	}{
		{"PLA-CF Matte", "PLA-CF"},
		{"Bambu PLA Basic - Jade White", "PLA"},
		{"PETG-CF Filament", "PETG-CF"},
		{"PETG HF", "PETG"},
		{"PAHT-CF", "PAHT-CF"},
		{"Support for PLA/PETG", "Support for PLA/PETG"},
		{"ppa-cf spool", "PPA-CF"},
		{"Hotend Assembly", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, table.ExtractFilamentType(tt.title))
		})
	}
}

func TestDryingTable_WarningFor(t *testing.T) {
	table := DefaultDryingTable()

	tests := []struct {
		filamentType string
		want         domain.WarningType
	}{
		{"PA", domain.WarningPAMoisture},
		{"PAHT-CF", domain.WarningPAMoisture},
		{"PPA-GF", domain.WarningPAMoisture},
		{"PC", domain.WarningPCBrittleness},
		{"PC-FR", domain.WarningPCBrittleness},
		{"Bambu PC", domain.WarningPCBrittleness},
		{"PLA", ""},
		{"PETG", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filamentType, func(t *testing.T) {
			w := table.WarningFor(tt.filamentType)
			if tt.want == "" {
				assert.Nil(t, w)
				return
			}
			require.NotNil(t, w)
			assert.Equal(t, tt.want, w.Type)
			assert.True(t, strings.HasPrefix(w.ShortText, "⚠️ "), w.ShortText)
			assert.NotEmpty(t, w.FullText)
		})
	}
}

func TestHasFilamentSignal(t *testing.T) {
	assert.True(t, HasFilamentSignal("PLA Basic"))
	assert.True(t, HasFilamentSignal("Bambu PA6-GF"))
	assert.True(t, HasFilamentSignal("TPU 95A HF"))
	assert.False(t, HasFilamentSignal("Hardened Steel Nozzle 2 PCS"))
	assert.False(t, HasFilamentSignal("Cool Plate SuperTack"))
	assert.False(t, HasFilamentSignal(""))
}

func TestNewDryingTable_Rejects(t *testing.T) {
	_, err := NewDryingTable(nil)
	assert.Error(t, err)

	_, err = NewDryingTable([]domain.DryingEntry{
		{FilamentType: "PLA", DryingParameters: domain.DryingParameters{Temperature: "55°C", Duration: "8h"}},
		{FilamentType: "PLA", DryingParameters: domain.DryingParameters{Temperature: "50°C", Duration: "8h"}},
	})
	assert.Error(t, err)

	_, err = NewDryingTable([]domain.DryingEntry{{FilamentType: "PLA"}})
	assert.Error(t, err)
}

func TestLoadDryingTable_RoundTripsThroughFile(t *testing.T) {
	entries := []domain.DryingEntry{
		{FilamentType: "PLA", DryingParameters: domain.DryingParameters{Temperature: "55°C", Duration: "8h"}},
		{FilamentType: "PA-CF", DryingParameters: domain.DryingParameters{Temperature: "80°C", Duration: "10h"}},
	}
	data, err := MarshalDryingTable(entries)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "drying.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	table, err := LoadDryingTable(path)
	require.NoError(t, err)
	assert.Equal(t, entries, table.Entries())

	_, err = LoadDryingTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	def, err := LoadDryingTable("")
	require.NoError(t, err)
	assert.Equal(t, 33, def.Len())
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}
