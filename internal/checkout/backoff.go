package checkout

import (
	"context"
	"math/rand/v2"
	"time"
)

// Default backoff values.
const (
	defaultBackoffBase   = 1 * time.Second
	defaultBackoffFactor = 2.0
	defaultBackoffCap    = 60 * time.Second
)

// Backoff — экспоненциальная задержка с half jitter.
//
// Потолок попытки N равен min(Cap, Base * Factor^(N-1)); задержка
// равномерно выбирается из [потолок/2, потолок]. Нижняя половина
// фиксирована, поэтому при Factor >= 2 последовательные задержки
// не убывают, пока потолок не упёрся в Cap.
type Backoff struct {
	// Base — потолок задержки перед первой повторной попыткой.
	Base time.Duration

	// Factor — множитель потолка на каждую следующую попытку.
	Factor float64

	// Cap — верхняя граница потолка.
	Cap time.Duration
}

// normalized возвращает Backoff с заполненными default-значениями.
func (b Backoff) normalized() Backoff {
	if b.Base <= 0 {
		b.Base = defaultBackoffBase
	}
	if b.Factor < 1 {
		b.Factor = defaultBackoffFactor
	}
	if b.Cap <= 0 {
		b.Cap = defaultBackoffCap
	}
	return b
}

// Delay возвращает задержку перед повторной попыткой attempt (с 1).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	ceiling := float64(b.Base)
	for i := 1; i < attempt; i++ {
		ceiling *= b.Factor
		if ceiling >= float64(b.Cap) {
			ceiling = float64(b.Cap)
			break
		}
	}

	if ceiling <= 0 {
		return 0
	}
	half := int64(ceiling) / 2
	return time.Duration(half + rand.Int64N(half+1))
}

// sleep ждёт d или отмены контекста, что наступит раньше.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
