package config

import (
	_ "github.com/dashcache/dashcache/internal/datamodule/assets"
	_ "github.com/dashcache/dashcache/internal/datamodule/crm"
	_ "github.com/dashcache/dashcache/internal/datamodule/finance"
	_ "github.com/dashcache/dashcache/internal/datamodule/generic"
	_ "github.com/dashcache/dashcache/internal/datamodule/hr"
	_ "github.com/dashcache/dashcache/internal/datamodule/procurement"
	_ "github.com/dashcache/dashcache/internal/datamodule/projects"
	_ "github.com/dashcache/dashcache/internal/datamodule/settings"
)
