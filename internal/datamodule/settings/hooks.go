package settings

import "github.com/dashcache/dashcache/internal/proxy/hooks"

// 会话与当前用户信息按用户区分，不进入共享缓存。
func init() {
	hooks.MustRegister("settings", hooks.Hooks{
		CachePolicy: hooks.BypassPrefixes("/session", "/me"),
	})
}
