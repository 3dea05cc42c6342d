package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/ethereum/go-ethereum/common"
)

// GameLimits em ether, como o operador escreve ("0.005")
type GameLimits struct {
	Min string
	Max string
}

// Settlement são os parâmetros do core de liquidação (settlement-service e oracle-simulator)
type Settlement struct {
	OwnerAddress  string `env:"OWNER_ADDRESS,required"`
	OracleAddress string `env:"ORACLE_ADDRESS,required"`
	AdminToken    string `env:"ADMIN_TOKEN,required"`
	OracleToken   string `env:"ORACLE_TOKEN,required"`

	Games []string `env:"GAMES" envDefault:"coinflip,roulette,dice" envSeparator:","`

	CoinFlipStake   string `env:"COINFLIP_STAKE" envDefault:"0.0001"`
	RouletteMinBet  string `env:"ROULETTE_MIN_BET" envDefault:"0.001"`
	RouletteMaxBet  string `env:"ROULETTE_MAX_BET" envDefault:"0.005"`
	DiceMinBet      string `env:"DICE_MIN_BET" envDefault:"0.001"`
	DiceMaxBet      string `env:"DICE_MAX_BET" envDefault:"0.05"`
	InitialHouseEth string `env:"INITIAL_HOUSE_FUNDS" envDefault:"0"`

	StuckTimeout      time.Duration `env:"STUCK_TIMEOUT" envDefault:"1h"`
	StuckScanInterval time.Duration `env:"STUCK_SCAN_INTERVAL" envDefault:"1m"`

	// VRF
	KeyHash              string `env:"ORACLE_KEY_HASH" envDefault:"0x787d74caea10b2b357790d5b5247c2f63d1d91572a9846f780606e4d953677ae"`
	SubscriptionID       uint64 `env:"ORACLE_SUBSCRIPTION_ID" envDefault:"1"`
	CallbackGasLimit     uint32 `env:"ORACLE_CALLBACK_GAS_LIMIT" envDefault:"500000"`
	RequestConfirmations uint16 `env:"ORACLE_REQUEST_CONFIRMATIONS" envDefault:"3"`
	NumWords             uint32 `env:"ORACLE_NUM_WORDS" envDefault:"1"`
}

// Limits resolve os limites por jogo; coinflip tem stake fixo
func (s Settlement) Limits(game string) (GameLimits, error) {
	switch game {
	case "coinflip":
		return GameLimits{Min: s.CoinFlipStake, Max: s.CoinFlipStake}, nil
	case "roulette":
		return GameLimits{Min: s.RouletteMinBet, Max: s.RouletteMaxBet}, nil
	case "dice":
		return GameLimits{Min: s.DiceMinBet, Max: s.DiceMaxBet}, nil
	}
	return GameLimits{}, fmt.Errorf("no limits for game %q", game)
}

func LoadSettlement() (Settlement, error) {
	var s Settlement
	if err := env.Parse(&s); err != nil {
		return Settlement{}, fmt.Errorf("parse settlement env: %w", err)
	}
	if err := s.validate(); err != nil {
		return Settlement{}, err
	}
	return s, nil
}

// validate recusa identidades que abririam privilégio para chamadas sem token:
// sem credencial o chamador vira o endereço zero
func (s Settlement) validate() error {
	for name, v := range map[string]string{"OWNER_ADDRESS": s.OwnerAddress, "ORACLE_ADDRESS": s.OracleAddress} {
		if !common.IsHexAddress(v) {
			return fmt.Errorf("%s must be a hex address", name)
		}
		if common.HexToAddress(v) == (common.Address{}) {
			return fmt.Errorf("%s must not be the zero address", name)
		}
	}
	if s.AdminToken == s.OracleToken {
		return errors.New("ADMIN_TOKEN and ORACLE_TOKEN must differ")
	}
	return nil
}

// Oracle é a configuração do oracle-simulator
type Oracle struct {
	Token        string        `env:"ORACLE_TOKEN,required"`
	MinDelay     time.Duration `env:"ORACLE_MIN_DELAY" envDefault:"500ms"`
	MaxDelay     time.Duration `env:"ORACLE_MAX_DELAY" envDefault:"3s"`
	DropRate     float64       `env:"ORACLE_DROP_RATE" envDefault:"0"`
	Retries      int           `env:"ORACLE_RETRIES" envDefault:"3"`
	GroupID      string        `env:"ORACLE_GROUP_ID" envDefault:"oracle-simulator"`
	FulfillRoute string        `env:"ORACLE_FULFILL_ROUTE" envDefault:"/oracle/fulfill"`
}

func LoadOracle() (Oracle, error) {
	var o Oracle
	if err := env.Parse(&o); err != nil {
		return Oracle{}, fmt.Errorf("parse oracle env: %w", err)
	}
	if o.MaxDelay < o.MinDelay {
		o.MaxDelay = o.MinDelay
	}
	return o, nil
}
