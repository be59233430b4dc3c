// Package crm 注册客户关系模块，销售漏斗数据变化频繁，缓存时间较短。
package crm

import (
	"time"

	"github.com/dashcache/dashcache/internal/datamodule"
)

const crmDefaultMaxAge = 2 * time.Minute

func init() {
	datamodule.MustRegister(datamodule.ModuleMetadata{
		Key:         "crm",
		Description: "Leads, contacts, deals and pipeline dashboards",
		Resources: []string{
			"/leads",
			"/contacts",
			"/deals",
		},
		Profile: datamodule.CacheProfile{
			MaxAge:            crmDefaultMaxAge,
			MaxSizeMB:         16,
			BackgroundRefresh: true,
		},
	})
}
