// Package analytics записывает и агрегирует MetricEvent'ы задач.
//
// Recorder — единственный потребитель потока событий: принимает
// события append-only, обновляет Prometheus-метрики inline и,
// при наличии store, сохраняет события надолго. Авторитетного
// состояния задач Recorder не держит.
//
// Summarize пересчитывает сводку по платформе из сохранённых
// событий и идемпотентен между вызовами Record.
package analytics
