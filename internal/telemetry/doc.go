// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает structured logging через slog: единый формат для всех
// компонентов (pool, captcha, checkout, orchestrator, analytics)
// и хелперы для привязки task_id / platform / proxy к логгеру.
//
// Prometheus метрики живут рядом с данными — в internal/analytics.
package telemetry
