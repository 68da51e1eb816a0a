// Package checkout реализует state machine выкупа.
//
// # Обзор
//
// Machine ведёт одну задачу через последовательность шагов:
//
//	authenticating → queueing (опционально) → locating_product →
//	selecting_size → adding_to_cart → reaching_checkout → completed
//
// Переходы монотонны: неудача шага либо повторяет этот же шаг
// (transient_error, challenge_required), либо завершает задачу
// (not_found, fatal_error, исчерпание попыток).
//
// # PlatformAdapter
//
// Взаимодействие с конкретной платформой инкапсулировано за
// интерфейсом PlatformAdapter. Адаптер конструируется на каждую
// задачу через Registry из Session (credentials аккаунта + URL
// прокси) и возвращает StepResult с одним из пяти исходов.
//
// # Повторы
//
// Повторы шага ограничены StepMaxAttempts; между попытками действует
// экспоненциальная задержка с full jitter (Backoff). CAPTCHA решается
// через captcha.Client внутри шага: решённый токен передаётся
// адаптеру, и шаг повторяется без задержки. Каждая попытка решения
// создаёт новый challenge.
//
// Машина не владеет ресурсами задачи и не пишет терминальное событие:
// retry на уровне задачи, возврат ресурсов и терминальный MetricEvent —
// зона ответственности Orchestrator'а.
package checkout
