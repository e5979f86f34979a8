package dataflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NumberStyle selects how raw numeric text is normalized before
// parsing. The two deployment families never mix styles within one
// contract.
type NumberStyle int

const (
	// Plain keeps digits, comma and period, then turns the decimal
	// comma into a period.
	Plain NumberStyle = iota
	// Currency first strips the contract currency's symbol, spaces and
	// thousands-separator periods, then turns the decimal comma into a
	// period.
	Currency
)

func (s NumberStyle) String() string {
	if s == Currency {
		return "currency"
	}
	return "plain"
}

// ParseNumberStyle parses the textual form used in contract files.
func ParseNumberStyle(s string) (NumberStyle, error) {
	switch s {
	case "", "plain":
		return Plain, nil
	case "currency":
		return Currency, nil
	default:
		return Plain, fmt.Errorf("unknown number style %q", s)
	}
}

// UnmarshalYAML decodes a number style from its textual form.
func (s *NumberStyle) UnmarshalYAML(node *yaml.Node) error {
	var str string
	if err := node.Decode(&str); err != nil {
		return err
	}
	v, err := ParseNumberStyle(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UnmarshalYAML decodes a column kind from its textual form.
func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	var str string
	if err := node.Decode(&str); err != nil {
		return err
	}
	v, err := ParseKind(str)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// CostSpec declares the monetary aggregate: Target is the sum of
// Primary plus every Extras column present in the table.
type CostSpec struct {
	Target  string   `yaml:"target"`
	Primary string   `yaml:"primary"`
	Extras  []string `yaml:"extras"`
}

// RatioSpec declares the per-unit price: Target is Value divided by By,
// 0 whenever By is null or not positive.
type RatioSpec struct {
	Target string `yaml:"target"`
	Value  string `yaml:"value"`
	By     string `yaml:"by"`
}

// QuartileSpec declares the quantile binning of Column into four
// labeled buckets. Fallback names the catch-all label used when the
// distribution cannot produce four distinct boundaries.
type QuartileSpec struct {
	Target   string   `yaml:"target"`
	Column   string   `yaml:"column"`
	Labels   []string `yaml:"labels"`
	Fallback string   `yaml:"fallback"`
}

// Derivations groups the optional derived-column declarations. Calendar
// decomposition is not declared here: it applies to every temporal
// column automatically.
type Derivations struct {
	CostTotal *CostSpec     `yaml:"cost_total"`
	PerUnit   *RatioSpec    `yaml:"per_unit"`
	Quartile  *QuartileSpec `yaml:"quartile"`
}

// Labels holds the localized calendar names used by the decomposition.
// Weekdays run Monday through Sunday.
type Labels struct {
	Weekdays []string `yaml:"weekdays"`
	Months   []string `yaml:"months"`
}

// Contract is the per-client schema configuration. It is decoded once
// from a YAML file and never mutated afterwards.
type Contract struct {
	Client       string          `yaml:"client"`
	Currency     string          `yaml:"currency"`
	MinIntegrity float64         `yaml:"min_integrity_pct"`
	NumberStyle  NumberStyle     `yaml:"number_style"`
	StrictRows   bool            `yaml:"strict_rows"`
	Required     []string        `yaml:"required"`
	Types        map[string]Kind `yaml:"types"`
	Essential    []string        `yaml:"essential"`
	RecordsPath  string          `yaml:"records_path"`
	MaxRows      int             `yaml:"max_rows"`
	Derive       Derivations     `yaml:"derive"`
	Labels       Labels          `yaml:"labels"`
}

// Defaults observed across the Brazilian deployments.
var (
	defaultWeekdays = []string{"Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado", "Domingo"}
	defaultMonths   = []string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}
	defaultLabels   = []string{"Economic", "Standard", "Premium", "Luxury"}
)

const defaultFallbackLabel = "General"

// LoadContract reads and checks a contract from a YAML file.
func LoadContract(path string) (*Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read contract %q: %w", path, err)
	}
	var c Contract
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cannot parse contract %q: %w", path, err)
	}
	if err := c.Check(); err != nil {
		return nil, fmt.Errorf("invalid contract %q: %w", path, err)
	}
	return &c, nil
}

// Check validates the contract and fills in defaults. It is called by
// LoadContract and by tests that build contracts in code.
func (c *Contract) Check() error {
	if c.MinIntegrity < 0 || c.MinIntegrity > 100 {
		return fmt.Errorf("min_integrity_pct %v out of range [0,100]", c.MinIntegrity)
	}
	if c.RecordsPath == "" {
		c.RecordsPath = "$"
	}
	if len(c.Labels.Weekdays) == 0 {
		c.Labels.Weekdays = defaultWeekdays
	}
	if len(c.Labels.Weekdays) != 7 {
		return fmt.Errorf("labels.weekdays must name 7 days, got %d", len(c.Labels.Weekdays))
	}
	if len(c.Labels.Months) == 0 {
		c.Labels.Months = defaultMonths
	}
	if len(c.Labels.Months) != 12 {
		return fmt.Errorf("labels.months must name 12 months, got %d", len(c.Labels.Months))
	}
	if q := c.Derive.Quartile; q != nil {
		if q.Column == "" || q.Target == "" {
			return fmt.Errorf("derive.quartile needs both column and target")
		}
		if len(q.Labels) == 0 {
			q.Labels = defaultLabels
		}
		if len(q.Labels) != 4 {
			return fmt.Errorf("derive.quartile.labels must name 4 buckets, got %d", len(q.Labels))
		}
		if q.Fallback == "" {
			q.Fallback = defaultFallbackLabel
		}
	}
	if ct := c.Derive.CostTotal; ct != nil && (ct.Target == "" || ct.Primary == "") {
		return fmt.Errorf("derive.cost_total needs both target and primary")
	}
	if r := c.Derive.PerUnit; r != nil && (r.Target == "" || r.Value == "" || r.By == "") {
		return fmt.Errorf("derive.per_unit needs target, value and by")
	}
	return nil
}

// TypeOf returns the declared kind for a column and whether one exists.
func (c *Contract) TypeOf(name string) (Kind, bool) {
	k, ok := c.Types[name]
	return k, ok
}
