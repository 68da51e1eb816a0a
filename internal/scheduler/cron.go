package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Copflow/internal/domain"
)

// cronParser — парсер cron-выражений с минутной точностью.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CalculateNextDue вычисляет следующее время запуска релиза.
// Учитывает timezone релиза; невалидный timezone — fallback на UTC.
func CalculateNextDue(rel *domain.Release, from time.Time) (time.Time, error) {
	loc := time.UTC
	if rel.Timezone != "" {
		if l, err := time.LoadLocation(rel.Timezone); err == nil {
			loc = l
		}
	}
	fromInTz := from.In(loc)

	if rel.IsCron() {
		schedule, err := cronParser.Parse(rel.CronExpr)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse cron expression %q: %w", rel.CronExpr, err)
		}
		return schedule.Next(fromInTz).UTC(), nil
	}

	if rel.IsInterval() {
		return fromInTz.Add(time.Duration(rel.IntervalSec) * time.Second).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("release has neither cron_expr nor interval_sec")
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}
