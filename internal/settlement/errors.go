package settlement

import "errors"

var (
	// validação: síncronas, nenhuma mutação de estado
	ErrPaused        = errors.New("game paused")
	ErrStakeTooLow   = errors.New("stake below minimum")
	ErrStakeTooHigh  = errors.New("stake above maximum")
	ErrInvalidChoice = errors.New("invalid choice")
	ErrNoRandomWords = errors.New("no random words")
	ErrInvalidAmount = errors.New("invalid amount")

	ErrRequestNotFound  = errors.New("request not found")
	ErrDuplicateRequest = errors.New("request id already used")

	ErrNotOwner  = errors.New("only callable by owner")
	ErrNotOracle = errors.New("only callable by oracle")

	ErrTransferFailed         = errors.New("funds transfer failed")
	ErrRandomnessUnavailable  = errors.New("randomness request failed")
	ErrInsufficientHouseFunds = errors.New("insufficient house funds")
	ErrTooRecent              = errors.New("bet too recent")
)

// Kind agrupa os erros do core para quem precisa traduzir (HTTP, métricas)
type Kind string

const (
	KindNone       Kind = ""
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindAuth       Kind = "auth"
	KindTransfer   Kind = "transfer"
	KindTimeout    Kind = "timeout_not_elapsed"
	KindInsolvent  Kind = "insufficient_house"
	KindUpstream   Kind = "upstream"
	KindInternal   Kind = "internal"
)

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPaused),
		errors.Is(err, ErrStakeTooLow),
		errors.Is(err, ErrStakeTooHigh),
		errors.Is(err, ErrInvalidChoice),
		errors.Is(err, ErrNoRandomWords),
		errors.Is(err, ErrInvalidAmount):
		return KindValidation
	case errors.Is(err, ErrRequestNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotOracle):
		return KindAuth
	case errors.Is(err, ErrTransferFailed):
		return KindTransfer
	case errors.Is(err, ErrTooRecent):
		return KindTimeout
	case errors.Is(err, ErrInsufficientHouseFunds):
		return KindInsolvent
	case errors.Is(err, ErrRandomnessUnavailable):
		return KindUpstream
	default:
		return KindInternal
	}
}
