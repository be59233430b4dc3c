// Package assets 注册资产模块。
package assets

import (
	"time"

	"github.com/dashcache/dashcache/internal/datamodule"
)

const assetsDefaultMaxAge = 30 * time.Minute

func init() {
	datamodule.MustRegister(datamodule.ModuleMetadata{
		Key:         "assets",
		Description: "Asset inventory, maintenance and depreciation dashboards",
		Resources: []string{
			"/assets",
			"/maintenance",
		},
		Profile: datamodule.CacheProfile{
			MaxAge:           assetsDefaultMaxAge,
			MaxSizeMB:        8,
			PersistToStorage: true,
		},
	})
}
