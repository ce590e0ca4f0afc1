package desensitize

import (
	"fmt"
	"regexp"
)

// Rule 脱敏规则
type Rule interface {
	Name() string
	Process(s string) string
}

// ContentRule 基于正则内容匹配的规则
type ContentRule struct {
	name        string
	pattern     *regexp.Regexp
	replacement string
}

// NewContentRule 创建内容规则，replacement 支持 $1 形式的分组引用
func NewContentRule(name, pattern, replacement string) (*ContentRule, error) {
	if name == "" {
		return nil, fmt.Errorf("rule name cannot be empty")
	}
	if pattern == "" {
		return nil, fmt.Errorf("pattern cannot be empty")
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}

	return &ContentRule{name: name, pattern: re, replacement: replacement}, nil
}

// MustNewContentRule 创建规则，失败时 panic（用于内置规则）
func MustNewContentRule(name, pattern, replacement string) *ContentRule {
	rule, err := NewContentRule(name, pattern, replacement)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *ContentRule) Name() string { return r.name }

func (r *ContentRule) Process(s string) string {
	return r.pattern.ReplaceAllString(s, r.replacement)
}

// FieldRule 替换 JSON 中指定字符串字段的值
type FieldRule struct {
	name        string
	field       string
	replacement string
	pattern     *regexp.Regexp
}

// NewFieldRule 创建字段规则
func NewFieldRule(name, field, replacement string) (*FieldRule, error) {
	if name == "" {
		return nil, fmt.Errorf("rule name cannot be empty")
	}
	if field == "" {
		return nil, fmt.Errorf("field name cannot be empty")
	}

	re, err := regexp.Compile(fmt.Sprintf(`"%s"\s*:\s*"(?:[^"\\]|\\.)*"`, regexp.QuoteMeta(field)))
	if err != nil {
		return nil, fmt.Errorf("failed to compile field pattern: %w", err)
	}

	return &FieldRule{name: name, field: field, replacement: replacement, pattern: re}, nil
}

// MustNewFieldRule 创建字段规则，失败时 panic
func MustNewFieldRule(name, field, replacement string) *FieldRule {
	rule, err := NewFieldRule(name, field, replacement)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *FieldRule) Name() string { return r.name }

func (r *FieldRule) Process(s string) string {
	return r.pattern.ReplaceAllString(s, fmt.Sprintf(`"%s":"%s"`, r.field, r.replacement))
}
