package crm

import "github.com/dashcache/dashcache/internal/proxy/hooks"

// 列表页会附加 _=<timestamp> 防缓存参数，计算缓存 key 前剔除。
func init() {
	hooks.MustRegister("crm", hooks.Hooks{
		NormalizeQuery: hooks.DropParams("_"),
	})
}
