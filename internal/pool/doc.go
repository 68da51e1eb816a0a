// Package pool владеет разделяемыми ресурсами: аккаунтами и прокси.
//
// Pool Manager отвечает за:
//   - Эксклюзивную выдачу: ресурс одновременно держит максимум одна задача
//   - Выбор аккаунта равномерно случайно среди активных
//   - Выбор прокси с предпочтением HEALTHY > UNTESTED > DEGRADED
//   - Прогрессивное понижение после серий неудач (degraded → dead)
//   - Обновление счётчиков и временных меток при каждой операции
//
// Acquire никогда не блокирует: если подходящего ресурса нет,
// возвращается ErrResourceUnavailable, и решение — ждать или
// завершить задачу — принимает вызывающая сторона.
package pool
