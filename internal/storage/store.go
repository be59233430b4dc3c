package storage

import (
	"context"
	"errors"
)

// Store 是缓存快照依赖的最小持久化契约：按 key 整体读写字符串值。
//
//	<basePath>/<escaped key>.json    # 文件实现中的磁盘布局
//
// 实现必须保证单 key 写入的原子性，缓存层不会自行处理半写状态。
type Store interface {
	// Get 返回 key 对应的完整值。若不存在则返回 ErrNotFound。
	Get(ctx context.Context, key string) (string, error)

	// Set 以整体覆盖的方式写入 key，失败时不得留下部分内容。
	Set(ctx context.Context, key, value string) error

	// Remove 删除 key，不存在时视为成功。
	Remove(ctx context.Context, key string) error
}

// ErrNotFound 表示存储中没有该 key。
var ErrNotFound = errors.New("storage key not found")
