// Package finance 描述财务模块的缓存默认值。
package finance

import (
	"time"

	"github.com/dashcache/dashcache/internal/datamodule"
)

const financeDefaultMaxAge = 5 * time.Minute

func init() {
	datamodule.MustRegister(datamodule.ModuleMetadata{
		Key:         "finance",
		Description: "Invoices, expenses, budgets and ledger dashboards",
		Resources: []string{
			"/invoices",
			"/expenses",
			"/budgets",
		},
		Profile: datamodule.CacheProfile{
			MaxAge:                     financeDefaultMaxAge,
			MaxSizeMB:                  16,
			BackgroundRefresh:          true,
			PersistToStorage:           true,
			BackgroundRefreshThreshold: 0.6,
		},
	})
}
