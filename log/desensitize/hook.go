package desensitize

import (
	"sync"
)

// Hook 按注册顺序依次执行脱敏规则
type Hook struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewHook 创建脱敏钩子
func NewHook(rules ...Rule) *Hook {
	h := &Hook{}
	h.Add(rules...)
	return h
}

// Add 添加规则，同名规则会被替换
func (h *Hook) Add(rules ...Rule) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 写时复制，Desensitize 持有的旧切片不受影响
	next := make([]Rule, len(h.rules), len(h.rules)+len(rules))
	copy(next, h.rules)
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		replaced := false
		for i, existing := range next {
			if existing.Name() == rule.Name() {
				next[i] = rule
				replaced = true
				break
			}
		}
		if !replaced {
			next = append(next, rule)
		}
	}
	h.rules = next
}

// AddContentRule 添加基于内容匹配的规则
func (h *Hook) AddContentRule(name, pattern, replacement string) error {
	rule, err := NewContentRule(name, pattern, replacement)
	if err != nil {
		return err
	}
	h.Add(rule)
	return nil
}

// AddFieldRule 添加基于 JSON 字段名的规则
func (h *Hook) AddFieldRule(name, field, replacement string) error {
	rule, err := NewFieldRule(name, field, replacement)
	if err != nil {
		return err
	}
	h.Add(rule)
	return nil
}

// Remove 移除规则
func (h *Hook) Remove(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, rule := range h.rules {
		if rule.Name() == name {
			next := make([]Rule, 0, len(h.rules)-1)
			next = append(next, h.rules[:i]...)
			h.rules = append(next, h.rules[i+1:]...)
			return true
		}
	}
	return false
}

// Len 返回规则数量
func (h *Hook) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rules)
}

// Desensitize 对字符串执行全部规则
func (h *Hook) Desensitize(s string) string {
	if s == "" {
		return s
	}

	h.mu.RLock()
	rules := h.rules
	h.mu.RUnlock()

	for _, rule := range rules {
		s = rule.Process(s)
	}
	return s
}
