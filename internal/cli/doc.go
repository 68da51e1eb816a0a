// Package cli реализует инструмент командной строки Copflow.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Copflow API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для постановки задач чекаута, управления пулом
// ресурсов, расписанием релизов и операторским вводом CAPTCHA.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Copflow API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (dataResponse, listResponse, errorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	tasks, err := client.ListTasks()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: copflowctl task list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - task: submit, list, show, cancel
//   - stats: сводка платформы за окно дней
//   - account: list, add, reactivate, deactivate
//   - proxy: list, add
//   - release: list, add, remove
//   - captcha: token, cancel
//
// Каждая группа создаётся через фабричную функцию (NewTaskCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
