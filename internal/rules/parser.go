package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func ParseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse rules YAML: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid rules configuration: %w", err)
	}

	return &config, nil
}

func validate(config *Config) error {
	rules := &config.Rules

	if rules.MaxTypeMismatches != nil && *rules.MaxTypeMismatches < 0 {
		return fmt.Errorf("max_type_mismatches cannot be negative: %d", *rules.MaxTypeMismatches)
	}
	if rules.MaxBodyDiffs != nil && *rules.MaxBodyDiffs < 0 {
		return fmt.Errorf("max_body_diffs cannot be negative: %d", *rules.MaxBodyDiffs)
	}

	for i, endpoint := range rules.EndpointRules {
		if endpoint.Path == "" {
			return fmt.Errorf("endpoint_rules[%d]: path is required", i)
		}

		if endpoint.MaxTypeMismatches != nil && *endpoint.MaxTypeMismatches < 0 {
			return fmt.Errorf("endpoint_rules[%d]: max_type_mismatches cannot be negative: %d",
				i, *endpoint.MaxTypeMismatches)
		}
		if endpoint.MaxBodyDiffs != nil && *endpoint.MaxBodyDiffs < 0 {
			return fmt.Errorf("endpoint_rules[%d]: max_body_diffs cannot be negative: %d",
				i, *endpoint.MaxBodyDiffs)
		}
	}

	return nil
}
