// Package batch runs groups of independent requests concurrently with a bound
// and reports every outcome, the way a dashboard fires several data requests
// at once and renders whatever comes back.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result 记录单个请求的结果，Index 对应输入切片中的位置。
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Execute 以 limit 为并发上限对每个请求调用 fn，结果按输入顺序返回。
// 单个请求失败不会取消其它请求；limit <= 0 表示不限制。
// ctx 已结束时尚未开始的请求直接记录 ctx.Err()。
func Execute[R any, T any](ctx context.Context, requests []R, limit int, fn func(context.Context, R) (T, error)) []Result[T] {
	results := make([]Result[T], len(requests))
	if len(requests) == 0 {
		return results
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range requests {
		g.Go(func() error {
			results[i] = run(ctx, i, req, fn)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func run[R any, T any](ctx context.Context, index int, req R, fn func(context.Context, R) (T, error)) (res Result[T]) {
	res.Index = index
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("batch: request %d panic: %v", index, r)
		}
	}()
	res.Value, res.Err = fn(ctx, req)
	return res
}

// Count 返回成功与失败的数量。
func Count[T any](results []Result[T]) (succeeded, failed int) {
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed
}
