package captcha

import "errors"

// Терминальные исходы challenge.
var (
	// ErrChallengeFailed — сервис отклонил отправку или сообщил
	// терминальную ошибку; в ручном режиме — оператор отменил.
	ErrChallengeFailed = errors.New("challenge failed")

	// ErrChallengeTimedOut — решение не пришло за максимальное время.
	ErrChallengeTimedOut = errors.New("challenge timed out")

	// ErrNoWaiter — оператор прислал сигнал для challenge,
	// который никто не ждёт.
	ErrNoWaiter = errors.New("no waiter for challenge")
)
