// Package scheduler запускает задачи выкупа по расписанию релизов.
//
// Release описывает дроп: платформа + товар + размер и либо
// cron-выражение (минутная точность), либо интервал в секундах.
// Scheduler тикает с фиксированным шагом, находит релизы с истекшим
// next_due_at и подаёт задачи через Orchestrator.
//
// Backpressure на подаче не фатален: релиз остаётся due и будет
// повторён следующим тиком.
package scheduler
