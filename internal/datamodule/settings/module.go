// Package settings 注册系统设置模块，配置类数据几乎不变，缓存一小时。
package settings

import (
	"time"

	"github.com/dashcache/dashcache/internal/datamodule"
)

const settingsDefaultMaxAge = time.Hour

func init() {
	datamodule.MustRegister(datamodule.ModuleMetadata{
		Key:         "settings",
		Description: "Organisation settings, roles and permissions",
		Resources: []string{
			"/organization",
			"/roles",
		},
		Profile: datamodule.CacheProfile{
			MaxAge:           settingsDefaultMaxAge,
			MaxSizeMB:        2,
			PersistToStorage: true,
		},
	})
}
