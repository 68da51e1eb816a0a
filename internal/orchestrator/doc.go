// Package orchestrator владеет жизненным циклом задач выкупа.
//
// Orchestrator принимает запросы через Submit, держит их в
// ограниченной очереди и выполняет пулом воркеров фиксированного
// размера. Переполнение очереди — немедленный ErrBackpressure,
// ожидания на границе подачи нет.
//
// Воркер на одну задачу:
//  1. Берёт аккаунт и прокси у pool.Manager (недоступность ресурсов —
//     быстрый отказ с retry на уровне задачи, без ожидания пула)
//  2. Строит адаптер платформы и ведёт задачу через checkout.Machine
//     под таймаутом задачи
//  3. Сообщает пулу итог по обоим ресурсам и возвращает их
//  4. Архивирует задачу, пишет ровно одно терминальное событие
//     и рассылает уведомления
//
// Cancel снимает задачу в ближайшей точке приостановки; истечение
// таймаута даёт result=cancelled, reason=timeout.
package orchestrator
