package settlement

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Evaluation é o resultado puro de uma política para um valor aleatório.
// Payout é o valor bruto devolvido ao jogador (já inclui o stake) e é zero na derrota.
type Evaluation struct {
	Outcome uint64
	Won     bool
	Payout  *uint256.Int
}

// Policy mapeia (choice, stake, word) -> Evaluation de forma determinística.
type Policy interface {
	Name() string
	ValidateChoice(choice uint64) error
	Evaluate(choice uint64, stake, word *uint256.Int) Evaluation
}

// reduce devolve word mod n
func reduce(word *uint256.Int, n uint64) uint64 {
	return new(uint256.Int).Mod(word, uint256.NewInt(n)).Uint64()
}

func multiply(stake *uint256.Int, num, den uint64) *uint256.Int {
	out := new(uint256.Int).Mul(stake, uint256.NewInt(num))
	return out.Div(out, uint256.NewInt(den))
}

const (
	Tails uint64 = 0
	Heads uint64 = 1
)

// CoinFlip: palpite cara/coroa, palavra ímpar = cara, paga 2x.
type CoinFlip struct{}

func (CoinFlip) Name() string { return "coinflip" }

func (CoinFlip) ValidateChoice(choice uint64) error {
	if choice != Heads && choice != Tails {
		return fmt.Errorf("%w: coinflip expects 0 (tails) or 1 (heads), got %d", ErrInvalidChoice, choice)
	}
	return nil
}

func (CoinFlip) Evaluate(choice uint64, stake, word *uint256.Int) Evaluation {
	side := reduce(word, 2)
	ev := Evaluation{Outcome: side, Won: side == choice, Payout: new(uint256.Int)}
	if ev.Won {
		ev.Payout = multiply(stake, 2, 1)
	}
	return ev
}

const (
	rouletteSlots   = 50
	rouletteWinUpTo = 25
)

// Roulette sorteia 1..50 e o jogador ganha 2x em 1..25. Não há escolha.
type Roulette struct{}

func (Roulette) Name() string { return "roulette" }

func (Roulette) ValidateChoice(choice uint64) error {
	if choice != 0 {
		return fmt.Errorf("%w: roulette takes no choice", ErrInvalidChoice)
	}
	return nil
}

func (Roulette) Evaluate(_ uint64, stake, word *uint256.Int) Evaluation {
	n := reduce(word, rouletteSlots) + 1
	ev := Evaluation{Outcome: n, Won: n <= rouletteWinUpTo, Payout: new(uint256.Int)}
	if ev.Won {
		ev.Payout = multiply(stake, 2, 1)
	}
	return ev
}

const (
	DiceMinTarget = 2
	DiceMaxTarget = 96

	diceSides = 100
	diceRTP   = 98
)

// Dice é o roll-under: rola 1..100 e ganha se o resultado for menor que o alvo.
// O prêmio é stake * 98 / (alvo - 1), ou seja, 2% de vantagem da casa.
type Dice struct{}

func (Dice) Name() string { return "dice" }

func (Dice) ValidateChoice(target uint64) error {
	if target < DiceMinTarget || target > DiceMaxTarget {
		return fmt.Errorf("%w: roll-under target must be in [%d, %d], got %d",
			ErrInvalidChoice, DiceMinTarget, DiceMaxTarget, target)
	}
	return nil
}

func (Dice) Evaluate(target uint64, stake, word *uint256.Int) Evaluation {
	roll := reduce(word, diceSides) + 1
	ev := Evaluation{Outcome: roll, Won: roll < target, Payout: new(uint256.Int)}
	if ev.Won {
		ev.Payout = multiply(stake, diceRTP, target-1)
	}
	return ev
}

// PolicyByName resolve a política pelo nome do jogo
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "coinflip":
		return CoinFlip{}, nil
	case "roulette":
		return Roulette{}, nil
	case "dice":
		return Dice{}, nil
	}
	return nil, fmt.Errorf("unknown game %q", name)
}
