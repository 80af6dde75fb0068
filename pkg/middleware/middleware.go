// Package middleware 提供 gin 中间件：CORS、追踪、指标、鉴权、角色、
// 限流、熔断、响应缓存以及存储/调度器注入.
package middleware
