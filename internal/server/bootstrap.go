package server

import (
	"fmt"

	"github.com/dashcache/dashcache/internal/config"
	"github.com/dashcache/dashcache/internal/datamodule"
)

func moduleMetadataForDataset(ds config.DatasetConfig) (datamodule.ModuleMetadata, error) {
	key := ds.Module
	if key == "" {
		key = datamodule.DefaultModuleKey()
	}
	if meta, ok := datamodule.Resolve(key); ok {
		return meta, nil
	}
	return datamodule.ModuleMetadata{}, fmt.Errorf("module %s is not registered", key)
}
