package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlFAQ is the on-disk YAML shape of a FAQ record.
type yamlFAQ struct {
	ID       int64    `yaml:"id"`
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	Tags     []string `yaml:"tags"`
}

// LoadFAQsYAML reads FAQ records from a YAML file containing a list of
// records with id, question, answer, and tags keys. Every record must
// validate; a single bad record fails the whole load so a corpus import
// is all-or-nothing.
func LoadFAQsYAML(path string) ([]FAQ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw []yamlFAQ
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	faqs := make([]FAQ, 0, len(raw))
	for i, r := range raw {
		f := FAQ{
			ID:       r.ID,
			Question: r.Question,
			Answer:   r.Answer,
			Tags:     r.Tags,
		}
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("record %d in %s: %w", i, path, err)
		}
		faqs = append(faqs, f)
	}
	return faqs, nil
}
