package cache

import (
	"fmt"
	"regexp"
)

// Invalidate 删除 key 匹配 pattern 的全部条目，pattern 为空时等同 Clear。
//
// pattern 按正则表达式编译且不做转义：包含 "." 或 "*" 等元字符的普通字符串
// 会按正则生效。需要字面匹配时使用 InvalidateLiteral。
func (c *Cache[T]) Invalidate(pattern string) (int, error) {
	if pattern == "" {
		return c.clearCounting(), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("compile invalidate pattern: %w", err)
	}
	return c.InvalidateRegexp(re), nil
}

// InvalidateLiteral 删除 key 中包含 s 的全部条目，s 中的元字符不生效。
func (c *Cache[T]) InvalidateLiteral(s string) int {
	if s == "" {
		return c.clearCounting()
	}
	return c.InvalidateRegexp(regexp.MustCompile(regexp.QuoteMeta(s)))
}

// InvalidateRegexp 使用预编译正则删除匹配条目，re 为 nil 时等同 Clear。
func (c *Cache[T]) InvalidateRegexp(re *regexp.Regexp) int {
	if re == nil {
		return c.clearCounting()
	}

	c.mu.Lock()
	removed := 0
	for key := range c.entries {
		if re.MatchString(key) && c.removeLocked(key) {
			removed++
		}
	}
	var write *snapshotWrite
	if removed > 0 {
		write = c.snapshotLocked(c.now())
	}
	c.mu.Unlock()

	c.persist(write)
	return removed
}

func (c *Cache[T]) clearCounting() int {
	c.mu.Lock()
	count := len(c.entries)
	c.mu.Unlock()
	c.Clear()
	return count
}
