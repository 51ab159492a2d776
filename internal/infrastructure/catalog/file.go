// Package catalog loads the reference rule catalog used to build both
// retrieval indexes. The catalog is assumed static for the process lifetime;
// reloading goes through a full index rebuild.
package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

type FileCatalog struct {
	path string
}

func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

type catalogFile struct {
	Rules []domain.Rule `yaml:"rules"`
}

func (c *FileCatalog) Load(_ context.Context) ([]domain.Rule, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read rule catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rule catalog: %w", err)
	}

	rules := make([]domain.Rule, 0, len(file.Rules))
	for i, rule := range file.Rules {
		rule.ID = strings.TrimSpace(rule.ID)
		if rule.ID == "" {
			return nil, fmt.Errorf("rule at position %d has no id", i)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
