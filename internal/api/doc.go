// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (оркестратор, пул, аналитика, scheduler, gate)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и коды ошибок
//   - dto.go              — Data Transfer Objects (request)
//   - task_handler.go     — обработчики для /tasks
//   - stats_handler.go    — сводка платформы
//   - resource_handler.go — аккаунты и прокси пула
//   - release_handler.go  — релизы планировщика
//   - captcha_handler.go  — операторский ввод CAPTCHA
//
// API предоставляет REST endpoints для постановки и отмены задач чекаута,
// управления ресурсами и расписанием релизов. Переполнение очереди
// оркестратора транслируется в 429 BACKPRESSURE.
package api
