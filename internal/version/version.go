package version

import (
	"fmt"
	"runtime"
)

// Version/Commit 可在构建时通过 -ldflags 注入，默认使用开发占位符。
var (
	Version = "0.1.0"
	Commit  = "dev"
)

// Full 返回便于 CLI 打印的完整版本信息。
func Full() string {
	return fmt.Sprintf("dashcache %s (%s)", Version, Commit)
}

// Info 是 /-/version 的响应体。
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
}

// Current 返回当前二进制的版本信息。
func Current() Info {
	return Info{Version: Version, Commit: Commit, GoVersion: runtime.Version()}
}
