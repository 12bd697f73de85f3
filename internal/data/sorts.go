// Package data loads tunable game tables from YAML files.
package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bugduel/server/internal/arena"
)

type sortEntry struct {
	Sort        string  `yaml:"sort"`
	Mass        float64 `yaml:"mass"`
	Restitution float64 `yaml:"restitution"`
	MaxHealth   int     `yaml:"max_health"`
	BonusDamage int     `yaml:"bonus_damage"`
}

type sortsFile struct {
	Sorts []sortEntry `yaml:"sorts"`
}

// LoadSortTable loads bug sort stats from a YAML file, starting from the
// built-in table so a file may override only some sorts. An empty path
// returns the built-ins.
func LoadSortTable(path string) (arena.SortTable, error) {
	table := arena.DefaultSorts()
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sort table: %w", err)
	}
	var f sortsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse sort table: %w", err)
	}

	for _, entry := range f.Sorts {
		sort, err := arena.ParseBugSort(entry.Sort)
		if err != nil {
			return nil, fmt.Errorf("sort table: %w", err)
		}
		table[sort] = arena.SortParams{
			Mass:        entry.Mass,
			Restitution: entry.Restitution,
			MaxHealth:   entry.MaxHealth,
			BonusDamage: entry.BonusDamage,
		}
	}
	return table, nil
}
