// Package projects 注册项目模块，任务与工时数据按项目维度缓存。
package projects

import (
	"time"

	"github.com/dashcache/dashcache/internal/datamodule"
)

const projectsDefaultMaxAge = 5 * time.Minute

func init() {
	datamodule.MustRegister(datamodule.ModuleMetadata{
		Key:         "projects",
		Description: "Projects, tasks and timesheet dashboards",
		Resources: []string{
			"/projects",
			"/tasks",
			"/timesheets",
		},
		Profile: datamodule.CacheProfile{
			MaxAge:            projectsDefaultMaxAge,
			MaxSizeMB:         16,
			BackgroundRefresh: true,
		},
	})
}
