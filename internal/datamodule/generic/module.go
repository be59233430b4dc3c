// Package generic 提供未声明 Module 的数据集使用的通用默认值。
package generic

import (
	"time"

	"github.com/dashcache/dashcache/internal/datamodule"
)

const genericDefaultMaxAge = 5 * time.Minute

func init() {
	datamodule.MustRegister(datamodule.ModuleMetadata{
		Key:         "generic",
		Description: "Generic REST dataset without module specific defaults",
		Profile: datamodule.CacheProfile{
			MaxAge:    genericDefaultMaxAge,
			MaxSizeMB: 4,
		},
	})
}
