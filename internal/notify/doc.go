// Package notify доставляет уведомления о терминальных исходах задач.
//
// Sink — один канал доставки. Реализации:
//   - WebhookSink — Discord-совместимый JSON webhook
//   - AMQPSink    — публикация в RabbitMQ exchange
//   - Multi       — fan-out по нескольким каналам
//
// Доставка уведомлений не влияет на путь задачи: ошибки каналов
// логируются и никогда не возвращаются оркестратору как сбой задачи.
package notify
