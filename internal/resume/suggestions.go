package resume

import (
	_ "embed"
	"fmt"
	"math/rand/v2"

	"gopkg.in/yaml.v3"
)

//go:embed suggestions.yaml
var suggestionsYAML []byte

type suggestionTable struct {
	Suggestions []string `yaml:"suggestions"`
}

var suggestions = mustLoadSuggestions(suggestionsYAML)

func mustLoadSuggestions(data []byte) []string {
	list, err := loadSuggestions(data)
	if err != nil {
		panic(err)
	}
	return list
}

func loadSuggestions(data []byte) ([]string, error) {
	var table suggestionTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}
	if len(table.Suggestions) == 0 {
		return nil, fmt.Errorf("suggestion table is empty")
	}
	return table.Suggestions, nil
}

// Suggestions returns a copy of the static suggestion table.
func Suggestions() []string {
	out := make([]string, len(suggestions))
	copy(out, suggestions)
	return out
}

// Suggest returns a uniformly random entry of the table. pick receives the
// table size and returns an index; nil uses math/rand.
func Suggest(pick func(n int) int) string {
	if pick == nil {
		pick = rand.IntN
	}
	return suggestions[pick(len(suggestions))]
}
