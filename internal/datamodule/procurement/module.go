// Package procurement 注册采购模块：采购单与供应商列表。
package procurement

import (
	"time"

	"github.com/dashcache/dashcache/internal/datamodule"
)

const procurementDefaultMaxAge = 15 * time.Minute

func init() {
	datamodule.MustRegister(datamodule.ModuleMetadata{
		Key:         "procurement",
		Description: "Purchase orders, vendors and requisition dashboards",
		Resources: []string{
			"/purchase-orders",
			"/vendors",
			"/requisitions",
		},
		Profile: datamodule.CacheProfile{
			MaxAge:            procurementDefaultMaxAge,
			MaxSizeMB:         8,
			BackgroundRefresh: true,
		},
	})
}
