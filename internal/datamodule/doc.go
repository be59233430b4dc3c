// Package datamodule 汇总业务模块（hr、crm、finance 等）的缓存默认值，并提供统一的注册入口。
//
// 模块作者需要：
//  1. 在 internal/datamodule/<module-key>/ 目录下声明模块元数据；
//  2. 在 init() 中调用 MustRegister 注册；
//  3. 在 internal/config/modules.go 中以空白导入的方式启用模块。
//
// [[Dataset]] 配置中的覆盖项经 ResolveProfile 合并到模块默认值之上。
package datamodule
