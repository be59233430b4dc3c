package hr

import "github.com/dashcache/dashcache/internal/proxy/hooks"

// 薪资明细不写入缓存，也就不会出现在持久化快照中。
func init() {
	hooks.MustRegister("hr", hooks.Hooks{
		CachePolicy: hooks.BypassPrefixes("/payroll"),
	})
}
