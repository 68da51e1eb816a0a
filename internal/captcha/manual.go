package captcha

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// operatorSignal — сигнал оператора по одному challenge.
type operatorSignal struct {
	token     string
	cancelled bool
}

// OperatorGate — точка встречи задачи и оператора в ручном режиме.
//
// Ожидание — suspension point на канале, а не блокирующее чтение
// ввода: оно снимается сигналом оператора, отменой контекста или
// таймаутом задачи.
type OperatorGate struct {
	mu      sync.Mutex
	waiters map[uuid.UUID]chan operatorSignal
}

// NewOperatorGate создаёт OperatorGate.
func NewOperatorGate() *OperatorGate {
	return &OperatorGate{
		waiters: make(map[uuid.UUID]chan operatorSignal),
	}
}

// Await приостанавливает вызывающего до сигнала оператора.
// Возвращает токен решения; cancelled=true означает отказ оператора.
func (g *OperatorGate) Await(ctx context.Context, challengeID uuid.UUID) (token string, cancelled bool, err error) {
	ch := make(chan operatorSignal, 1)

	g.mu.Lock()
	g.waiters[challengeID] = ch
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.waiters, challengeID)
		g.mu.Unlock()
	}()

	select {
	case sig := <-ch:
		return sig.token, sig.cancelled, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// Provide передаёт токен решения ждущей задаче.
func (g *OperatorGate) Provide(challengeID uuid.UUID, token string) error {
	return g.signal(challengeID, operatorSignal{token: token})
}

// Cancel отменяет challenge со стороны оператора.
func (g *OperatorGate) Cancel(challengeID uuid.UUID) error {
	return g.signal(challengeID, operatorSignal{cancelled: true})
}

func (g *OperatorGate) signal(challengeID uuid.UUID, sig operatorSignal) error {
	g.mu.Lock()
	ch, ok := g.waiters[challengeID]
	if ok {
		delete(g.waiters, challengeID)
	}
	g.mu.Unlock()

	if !ok {
		return ErrNoWaiter
	}
	ch <- sig
	return nil
}
