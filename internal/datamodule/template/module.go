// Package template 提供编写新数据模块时可复制的骨架示例。
package template

import "github.com/dashcache/dashcache/internal/datamodule"

// 使用方式：复制整个目录到 internal/datamodule/<module-key>/ 并替换字段。
// - 在 init() 中调用 datamodule.MustRegister，注册新的 ModuleMetadata。
// - 需要剔除查询参数或绕过缓存时，在 hooks.go 中调用 hooks.MustRegister。
// - 在 internal/config/modules.go 中追加空导入，使 init() 生效。
//
// 注意：本包不会被 config 导入，示例元数据不会出现在注册表中。
var _ = datamodule.ModuleMetadata{
	Key:         "template",
	Description: "Skeleton for new business modules",
	Resources:   []string{"/items"},
	Profile: datamodule.CacheProfile{
		MaxSizeMB:         4,
		BackgroundRefresh: true,
	},
}
