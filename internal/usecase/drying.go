package usecase

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/baglabel/backend/internal/domain"
)

//go:embed data/drying_parameters.yaml
var defaultDryingTable []byte

const (
	paMoistureShort = "⚠️ Store sealed with desiccant!"
	paMoistureFull  = "PA filaments absorb significant moisture after ~3 months in open air. " +
		"Becomes very difficult to dry with standard 80-90°C ovens. " +
		"Store sealed with desiccants if not used for extended periods."

	pcBrittleShort = "⚠️ Avoid repeated drying cycles!"
	pcBrittleFull  = "PC may become brittle after repeated drying cycles due to thermal stress. " +
		"After drying, keep sealed with desiccants. " +
		"If well-protected, may need little or no re-drying."
)

// paBasedTypes are the nylon-family keys that carry the moisture advisory
var paBasedTypes = []string{"PA", "PA-CF", "PA-GF", "PAHT-CF", "PAHT-GF", "PAHT", "PPA-CF", "PPA-GF", "PPA"}

// filamentFamilyRegex matches material family names as whole tokens.
// Token boundaries keep "PCS" or "PAD" from passing as PC or PA.
var filamentFamilyRegex = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(PLA|PETG|PET|ABS|ASA|TPU|TPE|PC|PA|PA6|PA12|PAHT|PPA|PPS|PVA|BVOH|HIPS|Nylon)(?:[^a-z0-9]|$)`)

type dryingFile struct {
	Entries []domain.DryingEntry `yaml:"entries"`
}

// DryingTable resolves filament labels to drying parameters and advisories.
// It is immutable after construction and safe for concurrent use.
type DryingTable struct {
	entries      []domain.DryingEntry
	byKey        map[string]domain.DryingParameters
	longestFirst []string
}

// NewDryingTable builds a table from entries in their declared order.
func NewDryingTable(entries []domain.DryingEntry) (*DryingTable, error) {
	if len(entries) == 0 {
		return nil, errors.New("drying table has no entries")
	}

	t := &DryingTable{
		entries: make([]domain.DryingEntry, 0, len(entries)),
		byKey:   make(map[string]domain.DryingParameters, len(entries)),
	}
	for i, e := range entries {
		key := strings.TrimSpace(e.FilamentType)
		if key == "" {
			return nil, fmt.Errorf("drying entry %d: empty filament type", i)
		}
		if e.Temperature == "" || e.Duration == "" {
			return nil, fmt.Errorf("drying entry %q: temperature and duration are required", key)
		}
		if _, dup := t.byKey[key]; dup {
			return nil, fmt.Errorf("drying entry %q: duplicate filament type", key)
		}
		e.FilamentType = key
		t.entries = append(t.entries, e)
		t.byKey[key] = e.DryingParameters
		t.longestFirst = append(t.longestFirst, key)
	}

	// Stable so equal-length keys keep their declared order.
	sort.SliceStable(t.longestFirst, func(i, j int) bool {
		return len(t.longestFirst[i]) > len(t.longestFirst[j])
	})
	return t, nil
}

// ParseDryingTable decodes a YAML table document.
func ParseDryingTable(data []byte) (*DryingTable, error) {
	var f dryingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse drying table: %w", err)
	}
	return NewDryingTable(f.Entries)
}

// DefaultDryingTable returns the table compiled into the binary.
func DefaultDryingTable() *DryingTable {
	t, err := ParseDryingTable(defaultDryingTable)
	if err != nil {
		panic(fmt.Sprintf("embedded drying table is invalid: %v", err))
	}
	return t
}

// LoadDryingTable reads a table from path, or returns the embedded one when path is empty.
func LoadDryingTable(path string) (*DryingTable, error) {
	if path == "" {
		return DefaultDryingTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read drying table: %w", err)
	}
	return ParseDryingTable(data)
}

// MarshalDryingTable renders entries in the on-disk YAML format.
func MarshalDryingTable(entries []domain.DryingEntry) ([]byte, error) {
	return yaml.Marshal(dryingFile{Entries: entries})
}

// Entries returns the entries in declared order.
func (t *DryingTable) Entries() []domain.DryingEntry {
	out := make([]domain.DryingEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len is the number of keys in the table.
func (t *DryingTable) Len() int {
	return len(t.entries)
}

// Resolve finds the table key for a label: exact, then case-insensitive,
// then the longest key contained in the label.
func (t *DryingTable) Resolve(label string) (string, domain.DryingParameters, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", domain.DryingParameters{}, false
	}

	if p, ok := t.byKey[label]; ok {
		return label, p, true
	}

	lower := strings.ToLower(label)
	for _, e := range t.entries {
		if strings.ToLower(e.FilamentType) == lower {
			return e.FilamentType, e.DryingParameters, true
		}
	}

	for _, key := range t.longestFirst {
		if strings.Contains(lower, strings.ToLower(key)) {
			return key, t.byKey[key], true
		}
	}
	return "", domain.DryingParameters{}, false
}

// Lookup returns drying parameters for a label.
func (t *DryingTable) Lookup(label string) (domain.DryingParameters, bool) {
	_, p, ok := t.Resolve(label)
	return p, ok
}

// ExtractFilamentType returns the longest table key found in title, or "".
func (t *DryingTable) ExtractFilamentType(title string) string {
	lower := strings.ToLower(title)
	if strings.TrimSpace(lower) == "" {
		return ""
	}
	for _, key := range t.longestFirst {
		if strings.Contains(lower, strings.ToLower(key)) {
			return key
		}
	}
	return ""
}

// WarningFor returns the handling advisory for a filament type key, if any.
// PA-based materials take precedence over PC.
func (t *DryingTable) WarningFor(filamentType string) *domain.FilamentWarning {
	if filamentType == "" {
		return nil
	}
	if isPABased(filamentType) {
		return &domain.FilamentWarning{
			Type:      domain.WarningPAMoisture,
			ShortText: paMoistureShort,
			FullText:  paMoistureFull,
		}
	}
	if isPC(filamentType) {
		return &domain.FilamentWarning{
			Type:      domain.WarningPCBrittleness,
			ShortText: pcBrittleShort,
			FullText:  pcBrittleFull,
		}
	}
	return nil
}

// HasFilamentSignal reports whether a title names a filament material family.
func HasFilamentSignal(title string) bool {
	return filamentFamilyRegex.MatchString(title)
}

func isPABased(filamentType string) bool {
	upper := strings.ToUpper(filamentType)
	for _, pa := range paBasedTypes {
		if strings.Contains(upper, pa) {
			return true
		}
	}
	return false
}

func isPC(filamentType string) bool {
	upper := strings.ToUpper(strings.TrimSpace(filamentType))
	return upper == "PC" ||
		strings.HasPrefix(upper, "PC-") ||
		strings.HasPrefix(upper, "PC ") ||
		strings.Contains(upper, " PC ") ||
		strings.HasSuffix(upper, " PC")
}
