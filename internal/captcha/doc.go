// Package captcha решает CAPTCHA-challenges, встреченные задачами.
//
// Два режима, выбираемых конфигурацией (ровно один на challenge):
//
//   - auto — отправка во внешний solver-сервис и опрос результата
//     с фиксированным интервалом до максимального времени ожидания;
//   - manual — приостановка до сигнала оператора (токен или отмена),
//     без обращения к сервису и без стоимости.
//
// Client никогда не повторяет challenge целиком: терминальный исход
// (FAILED/TIMED_OUT/CANCELLED) поднимается в checkout state machine,
// которая решает — retry шага с новым challenge или провал задачи.
package captcha
