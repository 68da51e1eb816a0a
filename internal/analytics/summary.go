package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Copflow/internal/domain"
)

// Summary — агрегированная сводка по платформе за окно.
type Summary struct {
	Platform   string `json:"platform"`
	WindowDays int    `json:"window_days"`

	// Attempts — терминальных задач в окне.
	Attempts      int `json:"attempts"`
	Successes     int `json:"successes"`
	Failures      int `json:"failures"`
	Cancellations int `json:"cancellations"`

	// SuccessRate — доля успехов среди терминальных задач.
	SuccessRate float64 `json:"success_rate"`

	// MeanDurationMs — средняя длительность терминальной задачи.
	MeanDurationMs float64 `json:"mean_duration_ms"`

	// ChallengeEncounterRate — доля задач, встретивших хотя бы одну CAPTCHA.
	ChallengeEncounterRate float64 `json:"challenge_encounter_rate"`

	// ChallengeSolveRate — доля решённых среди попыток CAPTCHA.
	ChallengeSolveRate float64 `json:"challenge_solve_rate"`

	// DetectionRate — доля задач, завершённых с FATAL_ERROR
	// (бан, антибот и прочие невосстановимые отказы платформы).
	DetectionRate float64 `json:"detection_rate"`

	// CaptchaCost — суммарная стоимость решений CAPTCHA.
	CaptchaCost float64 `json:"captcha_cost"`
}

// Summarize пересчитывает сводку платформы за последние windowDays
// из сохранённых событий. Не изменяет состояние Recorder'а.
func (r *Recorder) Summarize(ctx context.Context, platform string, windowDays int) (Summary, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	since := time.Now().AddDate(0, 0, -windowDays)

	events, err := r.events(ctx, platform, since)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Platform: platform, WindowDays: windowDays}

	var (
		totalDurationMs float64
		detections      int
		captchaTotal    int
		captchaSolved   int
		challengedTasks = make(map[uuid.UUID]struct{})
		terminatedTasks = make(map[uuid.UUID]struct{})
	)

	for i := range events {
		ev := &events[i]
		switch {
		case ev.Type == domain.EventTypeTask && ev.Terminal:
			terminatedTasks[ev.TaskID] = struct{}{}
			s.Attempts++
			switch detailString(ev.Detail, "result") {
			case string(domain.TaskResultSuccess):
				s.Successes++
			case string(domain.TaskResultCancelled):
				s.Cancellations++
			default:
				s.Failures++
			}
			if detailString(ev.Detail, "reason") == string(domain.ReasonFatalError) {
				detections++
			}
			if ms, ok := detailFloat(ev.Detail, "duration_ms"); ok {
				totalDurationMs += ms
			}

		case ev.Type == domain.EventTypeCaptcha:
			captchaTotal++
			challengedTasks[ev.TaskID] = struct{}{}
			if detailString(ev.Detail, "state") == string(domain.ChallengeStateSolved) {
				captchaSolved++
			}
			if cost, ok := detailFloat(ev.Detail, "cost"); ok {
				s.CaptchaCost += cost
			}
		}
	}

	if s.Attempts > 0 {
		s.SuccessRate = float64(s.Successes) / float64(s.Attempts)
		s.MeanDurationMs = totalDurationMs / float64(s.Attempts)
		s.DetectionRate = float64(detections) / float64(s.Attempts)

		encountered := 0
		for id := range challengedTasks {
			if _, ok := terminatedTasks[id]; ok {
				encountered++
			}
		}
		s.ChallengeEncounterRate = float64(encountered) / float64(s.Attempts)
	}
	if captchaTotal > 0 {
		s.ChallengeSolveRate = float64(captchaSolved) / float64(captchaTotal)
	}

	return s, nil
}
