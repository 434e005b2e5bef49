package aggregation

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/aevon-lab/salescope/internal/core/sales"
	"gopkg.in/yaml.v3"
)

// ErrRuleNotFound is returned when a named reduction is not in the catalog.
var ErrRuleNotFound = errors.New("reduction rule not found")

// ruleName keeps names usable as URL segments, file names and sheet names.
var ruleName = regexp.MustCompile(`^[a-z0-9_]{1,26}$`)

// Rule is a named reduction loaded from YAML.
// Rules are loaded at startup and fingerprinted so reports can tell which
// definition produced a table.
type Rule struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	GroupBy     []string  `json:"group_by"`
	Measures    []Measure `json:"measures"`
	Fingerprint string    `json:"fingerprint"` // SHA-256 of the raw YAML file
}

// rawRule is the on-disk YAML shape.
//
//	name: store_monthly_sales
//	group_by: [store_id, month]
//	measures:
//	  - {name: total_sales, field: sales_amount, operator: sum}
type rawRule struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	GroupBy     []string     `yaml:"group_by"`
	Measures    []rawMeasure `yaml:"measures"`
}

type rawMeasure struct {
	Name     string `yaml:"name"`
	Field    string `yaml:"field"`
	Operator string `yaml:"operator"`
}

// Dimensions resolves GroupBy into grouping dimensions. An entry is either a
// categorical column or a period name (month, quarter) bucketing the date.
func (r Rule) Dimensions() ([]Dimension, error) {
	dims := make([]Dimension, 0, len(r.GroupBy))
	for _, name := range r.GroupBy {
		if p, err := ParsePeriod(name); err == nil {
			dims = append(dims, PeriodDimension(p))
			continue
		}
		f, err := sales.ParseField(name)
		if err != nil {
			return nil, Invalidf("rule %q: %v", r.Name, err)
		}
		if !f.Categorical() {
			return nil, Invalidf("rule %q: field %q cannot be used as a grouping key", r.Name, f)
		}
		dims = append(dims, FieldDimension(f))
	}
	return dims, nil
}

// Validate checks the rule compiles into a reduction.
func (r Rule) Validate() error {
	if !ruleName.MatchString(r.Name) {
		return Invalidf("rule %q: name must be 1-26 lowercase letters, digits or underscores", r.Name)
	}
	dims, err := r.Dimensions()
	if err != nil {
		return err
	}
	if len(r.Measures) == 0 {
		return Invalidf("rule %q: at least one measure is required", r.Name)
	}
	if _, err := compile(dims, r.Measures); err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}
	return nil
}

// RuleRepository defines the interface for looking up reduction rules.
type RuleRepository interface {
	// Get returns the rule with the given name, or ErrRuleNotFound.
	Get(ctx context.Context, name string) (*Rule, error)

	// List returns all loaded rules ordered by name.
	List(ctx context.Context) ([]Rule, error)
}

// FileSystemRuleRepository loads reduction rules from *.yaml files in a directory.
// Each file contains exactly one rule at the top level. Rules are loaded once at
// startup and cached in memory.
type FileSystemRuleRepository struct {
	dir   string
	rules map[string]Rule // keyed by Name
}

// NewFileSystemRuleRepository creates a new repository and eagerly loads all rules
// from dir. Returns an error if any rule file is malformed or invalid.
// A missing directory yields an empty catalog.
func NewFileSystemRuleRepository(dir string) (*FileSystemRuleRepository, error) {
	repo := &FileSystemRuleRepository{
		dir:   dir,
		rules: make(map[string]Rule),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemRuleRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reduction rule dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("reduction rule path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading reduction rule dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading rule file %s: %w", path, err)
		}

		rule, err := parseRule(data)
		if err != nil {
			return fmt.Errorf("rule file %s: %w", path, err)
		}
		if rule == nil {
			continue // empty or comment-only file
		}

		if _, exists := r.rules[rule.Name]; exists {
			return fmt.Errorf("rule %q: duplicate rule name (check multiple YAML files)", rule.Name)
		}
		r.rules[rule.Name] = *rule
	}
	return nil
}

// parseRule decodes and validates one rule file. It returns nil for a file
// without a name.
func parseRule(data []byte) (*Rule, error) {
	var raw rawRule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rule: %w", err)
	}
	if raw.Name == "" {
		return nil, nil
	}

	rule := Rule{
		Name:        raw.Name,
		Description: raw.Description,
		GroupBy:     raw.GroupBy,
		Measures:    make([]Measure, 0, len(raw.Measures)),
		Fingerprint: fmt.Sprintf("%x", sha256.Sum256(data)),
	}
	for _, m := range raw.Measures {
		rule.Measures = append(rule.Measures, Measure{
			Name:     m.Name,
			Field:    sales.Field(strings.ToLower(strings.TrimSpace(m.Field))),
			Operator: strings.ToLower(strings.TrimSpace(m.Operator)),
		})
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Get returns the rule with the given name, or ErrRuleNotFound.
func (r *FileSystemRuleRepository) Get(_ context.Context, name string) (*Rule, error) {
	rule, ok := r.rules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRuleNotFound, name)
	}
	return &rule, nil
}

// List returns all loaded rules ordered by name.
func (r *FileSystemRuleRepository) List(_ context.Context) ([]Rule, error) {
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
