// Package mocks 提供 natpeer 接口的手写 mock
//
// 每个 mock 都带有可覆盖的 XxxFunc 字段，未设置时使用默认行为，
// 并记录调用参数。所有 mock 都可以在多个 goroutine 中使用。
package mocks
