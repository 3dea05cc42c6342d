package money

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// 1 ether = 10^18 wei
const etherDecimals = 18

var ErrInvalidAmount = errors.New("invalid amount")

// ParseEther converte "0.005" em wei. Rejeita negativos e frações abaixo de 1 wei.
func ParseEther(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: negative %q", ErrInvalidAmount, s)
	}
	wei := d.Shift(etherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, etherDecimals)
	}
	v, overflow := uint256.FromBig(wei.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %q overflows 256 bits", ErrInvalidAmount, s)
	}
	return v, nil
}

// MustEther é usado em defaults e testes
func MustEther(s string) *uint256.Int {
	v, err := ParseEther(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatEther devolve o valor em ether sem zeros à direita
func FormatEther(wei *uint256.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei.ToBig(), -etherDecimals).String()
}

// ParseWei aceita string decimal inteira (formato dos eventos)
func ParseWei(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

func FormatWei(wei *uint256.Int) string {
	if wei == nil {
		return "0"
	}
	return wei.Dec()
}
