package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供数据集/模块/命中状态字段，供 /api 请求日志复用。
func RequestFields(dataset, moduleKey, key, outcome string) logrus.Fields {
	return logrus.Fields{
		"dataset":    dataset,
		"module_key": moduleKey,
		"cache_key":  key,
		"cache":      outcome,
	}
}

// CacheFields 用于缓存管理类日志（失效、预热）。
func CacheFields(action, dataset string) logrus.Fields {
	return logrus.Fields{
		"action":  action,
		"dataset": dataset,
	}
}
