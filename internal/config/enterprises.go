package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"otter/internal/dataprocessing"
	"otter/pkg/contracts/domain"
)

// EnterpriseRegistry holds every configured enterprise keyed by lower-case code
type EnterpriseRegistry struct {
	enterprises map[string]domain.Enterprise
}

type enterprisesFile struct {
	Enterprises []domain.Enterprise `yaml:"enterprises" validate:"required,min=1,dive"`
}

// LoadEnterprises reads and validates the enterprise registry YAML file
func LoadEnterprises(path string) (*EnterpriseRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read enterprises file: %w", err)
	}
	return ParseEnterprises(data)
}

// ParseEnterprises decodes and validates an enterprise registry document
func ParseEnterprises(data []byte) (*EnterpriseRegistry, error) {
	var doc enterprisesFile
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse enterprises: %w", err)
	}

	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid enterprises: %w", err)
	}

	registry := &EnterpriseRegistry{enterprises: make(map[string]domain.Enterprise, len(doc.Enterprises))}
	for _, e := range doc.Enterprises {
		key := strings.ToLower(e.Code)
		if _, dup := registry.enterprises[key]; dup {
			return nil, fmt.Errorf("duplicate enterprise code %q", e.Code)
		}
		if _, err := dataprocessing.ParseDate(e.StartDate); err != nil {
			return nil, fmt.Errorf("enterprise %s start_date: %w", e.Code, err)
		}
		registry.enterprises[key] = e
	}

	return registry, nil
}

// Get returns the enterprise for code, ignoring case
func (r *EnterpriseRegistry) Get(code string) (domain.Enterprise, bool) {
	e, ok := r.enterprises[strings.ToLower(strings.TrimSpace(code))]
	return e, ok
}

// Codes returns all enterprise codes in sorted order
func (r *EnterpriseRegistry) Codes() []string {
	codes := make([]string, 0, len(r.enterprises))
	for _, e := range r.enterprises {
		codes = append(codes, e.Code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of enterprises
func (r *EnterpriseRegistry) Len() int {
	return len(r.enterprises)
}
