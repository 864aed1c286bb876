package policy

import (
	"fmt"
	"reflect"
	"strings"
)

// Operator defines how to compare an attribute with a value.
type Operator string

const (
	OpEqual    Operator = "equals"
	OpNotEqual Operator = "not_equals"
	// OpContains means the attribute value contains the given substring.
	// e.g., repository "svc-billing" contains "billing"
	OpContains Operator = "contains"
	// OpPrefix means the attribute value starts with the given string.
	OpPrefix Operator = "prefix"
	// OpIn means the attribute value is in the given list.
	// e.g., owner "octocat" in ["octocat", "github"]
	OpIn    Operator = "in"
	OpNotIn Operator = "not_in"
)

func (op Operator) IsValid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpContains, OpPrefix, OpIn, OpNotIn:
		return true
	default:
		return false
	}
}

// Condition is a structured alternative to an expression, checked against the target attributes.
type Condition struct {
	// Logic operators
	All []Condition `yaml:"all,omitempty"`
	Any []Condition `yaml:"any,omitempty"`
	Not *Condition  `yaml:"not,omitempty"`

	// Leaf condition
	Key      string   `yaml:"key,omitempty"`
	Operator Operator `yaml:"operator,omitempty"`
	Value    any      `yaml:"value,omitempty"`
}

func (c *Condition) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}

	// explicit:  { key: owner, operator: equals, value: octocat }
	// shorthand: { owner: octocat }
	isExplicit := false
	for k := range raw {
		if k == "all" || k == "any" || k == "not" || k == "key" || k == "operator" || k == "value" {
			isExplicit = true
			break
		}
	}

	if isExplicit {
		type plain Condition // prevents recursion
		var p plain
		if err := unmarshal(&p); err != nil {
			return err
		}
		*c = Condition(p)

		// implicit equals if operator missing
		if c.Key != "" && c.Operator == "" {
			c.Operator = OpEqual
		}
		return nil
	}

	var children []Condition
	for k, v := range raw {
		sub := Condition{Key: k, Operator: OpEqual, Value: v}

		// operator shorthand: { repository: { prefix: svc- } }
		if vMap, ok := v.(map[string]any); ok && len(vMap) == 1 {
			for opKey, opVal := range vMap {
				if op := Operator(opKey); op.IsValid() {
					sub.Operator = op
					sub.Value = opVal
				}
			}
		}
		children = append(children, sub)
	}

	if len(children) == 1 {
		*c = children[0]
	} else {
		// implicit AND
		c.All = children
	}
	return nil
}

func (c *Condition) Validate() error {
	if c == nil {
		return nil
	}

	hasAll := len(c.All) > 0
	hasAny := len(c.Any) > 0
	hasNot := c.Not != nil
	hasLeaf := c.Key != ""

	for _, sub := range c.All {
		if err := sub.Validate(); err != nil {
			return err
		}
	}
	for _, sub := range c.Any {
		if err := sub.Validate(); err != nil {
			return err
		}
	}
	if hasNot {
		if err := c.Not.Validate(); err != nil {
			return err
		}
	}
	if hasLeaf {
		if !c.Operator.IsValid() {
			return fmt.Errorf("invalid operator '%s' for key '%s'", c.Operator, c.Key)
		}
		if _, known := attributeKeys[c.Key]; !known {
			return fmt.Errorf("unknown attribute '%s' (available: app_id, owner, repository)", c.Key)
		}
	}

	count := 0
	for _, set := range []bool{hasAll, hasAny, hasNot, hasLeaf} {
		if set {
			count++
		}
	}
	switch {
	case count > 1:
		return fmt.Errorf("condition for key '%s' has multiple types set (all, any, not, leaf); only one is allowed", c.Key)
	case count == 0:
		return fmt.Errorf("condition is missing required fields; must be one of (all, any, not, leaf)")
	default:
		return nil
	}
}

// Evaluate checks the condition against attributes.
// If it does not match, the reason names the first failing leaf.
func (c *Condition) Evaluate(attributes map[string]any) (bool, string) {
	switch {
	case len(c.All) > 0:
		for _, sub := range c.All {
			if ok, reason := sub.Evaluate(attributes); !ok {
				return false, reason
			}
		}
		return true, ""
	case len(c.Any) > 0:
		reasons := make([]string, 0, len(c.Any))
		for _, sub := range c.Any {
			ok, reason := sub.Evaluate(attributes)
			if ok {
				return true, ""
			}
			reasons = append(reasons, reason)
		}
		return false, "none matched: " + strings.Join(reasons, "; ")
	case c.Not != nil:
		if ok, _ := c.Not.Evaluate(attributes); ok {
			return false, "negated condition matched"
		}
		return true, ""
	}
	return evaluateLeaf(*c, attributes)
}

func evaluateLeaf(cond Condition, attributes map[string]any) (bool, string) {
	val, exists := attributes[cond.Key]
	if !exists {
		return false, fmt.Sprintf("attribute '%s' missing", cond.Key)
	}

	switch cond.Operator {
	case OpEqual:
		if !equal(val, cond.Value) {
			return false, fmt.Sprintf("expected %s '%v' to equal '%v'", cond.Key, val, cond.Value)
		}
	case OpNotEqual:
		if equal(val, cond.Value) {
			return false, fmt.Sprintf("expected %s '%v' to not equal '%v'", cond.Key, val, cond.Value)
		}
	case OpContains:
		if !strings.Contains(fmt.Sprint(val), fmt.Sprint(cond.Value)) {
			return false, fmt.Sprintf("%s '%v' does not contain '%v'", cond.Key, val, cond.Value)
		}
	case OpPrefix:
		if !strings.HasPrefix(fmt.Sprint(val), fmt.Sprint(cond.Value)) {
			return false, fmt.Sprintf("%s '%v' does not start with '%v'", cond.Key, val, cond.Value)
		}
	case OpIn:
		if !contains(cond.Value, val) {
			return false, fmt.Sprintf("%s '%v' not in '%v'", cond.Key, val, cond.Value)
		}
	case OpNotIn:
		if contains(cond.Value, val) {
			return false, fmt.Sprintf("%s '%v' found in '%v'", cond.Key, val, cond.Value)
		}
	default:
		return false, fmt.Sprintf("unknown operator '%s' in condition", cond.Operator)
	}
	return true, ""
}

// equal compares by string representation, all attributes are strings
// but YAML may decode values like app ids as numbers.
func equal(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func contains(container, item any) bool {
	v := reflect.ValueOf(container)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		for i := 0; i < v.Len(); i++ {
			if equal(v.Index(i).Interface(), item) {
				return true
			}
		}
		return false
	}
	return equal(container, item)
}
