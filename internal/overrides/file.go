package overrides

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a set of edits. Percentages are signed decimals
// with "." or "," as separator; item values are thousands-formatted amounts.
type File struct {
	Accounts map[string]AccountFile `yaml:"accounts"`
}

// AccountFile holds the edits of one account.
type AccountFile struct {
	Percentages map[string]string `yaml:"percentages,omitempty"`
	Items       map[string]string `yaml:"items,omitempty"`
}

// LoadFile reads an overrides YAML file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading overrides: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing overrides: %w", err)
	}
	return &f, nil
}

// SaveFile writes an overrides YAML file.
func SaveFile(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling overrides: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing overrides: %w", err)
	}
	return nil
}

// Apply commits every edit in the file to s, in a stable order.
// Percentages keep their sign, clamped to [-9999, 9999], since a snapshot
// carries backend values as well as editor commits.
// It returns the number of commits made.
func (f *File) Apply(s *Store) int {
	n := 0
	for _, acctID := range sortedKeys(f.Accounts) {
		af := f.Accounts[acctID]
		for _, conceptID := range sortedKeys(af.Percentages) {
			s.SetPercentage(acctID, conceptID, ClampPercent(af.Percentages[conceptID]))
			n++
		}
		for _, code := range sortedKeys(af.Items) {
			s.CommitItemOverride(acctID, code, af.Items[code])
			n++
		}
	}
	return n
}

// Snapshot builds a File from the current state of s.
func Snapshot(s *Store) *File {
	f := &File{Accounts: make(map[string]AccountFile)}
	for _, acctID := range s.AccountIDs() {
		af := AccountFile{}
		if pcts := s.Percentages(acctID); len(pcts) > 0 {
			af.Percentages = make(map[string]string, len(pcts))
			for id, v := range pcts {
				af.Percentages[id] = v.String()
			}
		}
		if items := s.ItemOverrides(acctID); len(items) > 0 {
			af.Items = make(map[string]string, len(items))
			for code, v := range items {
				af.Items[code] = v.String()
			}
		}
		f.Accounts[acctID] = af
	}
	return f
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
