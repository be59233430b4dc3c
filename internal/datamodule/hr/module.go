// Package hr 注册人力资源模块：员工与部门数据变化慢，默认持久化并后台刷新。
package hr

import (
	"time"

	"github.com/dashcache/dashcache/internal/datamodule"
)

const hrDefaultMaxAge = 10 * time.Minute

func init() {
	datamodule.MustRegister(datamodule.ModuleMetadata{
		Key:         "hr",
		Description: "Employees, departments, leave and payroll dashboards",
		Resources: []string{
			"/employees",
			"/departments",
			"/leave-requests",
		},
		Profile: datamodule.CacheProfile{
			MaxAge:            hrDefaultMaxAge,
			MaxSizeMB:         8,
			BackgroundRefresh: true,
			PersistToStorage:  true,
		},
	})
}
