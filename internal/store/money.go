// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package store

import (
	"database/sql/driver"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

// usdcDecimals is the fixed scale of every persisted USDC amount.
const usdcDecimals = 6

var usdcScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(usdcDecimals), nil)

// Money is a fixed-point decimal, stored and compared exactly via
// math/big — never a binary float, per the core's decimal-arithmetic
// design note. No third-party decimal type exists anywhere in the
// retrieved corpus, so this one type is a deliberate standard-library
// exception (recorded in DESIGN.md).
type Money struct {
	// scaled holds the value * 10^usdcDecimals.
	scaled *big.Int
}

// ZeroMoney is the additive identity.
func ZeroMoney() Money { return Money{scaled: new(big.Int)} }

// MoneyFromRawUnits builds a Money from an integer amount already
// scaled by 10^decimals (e.g. the raw uint256 a USDC Transfer carries,
// decimals=6), normalizing it to usdcDecimals.
func MoneyFromRawUnits(raw *big.Int, decimals int) Money {
	if decimals == usdcDecimals {
		return Money{scaled: new(big.Int).Set(raw)}
	}
	diff := usdcDecimals - decimals
	v := new(big.Int).Set(raw)
	if diff > 0 {
		v.Mul(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(diff)), nil))
	} else if diff < 0 {
		v.Quo(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-diff)), nil))
	}
	return Money{scaled: v}
}

// ParseMoney parses a decimal string like "1000.000000" or "1000".
func ParseMoney(s string) (Money, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Money{}, errors.Errorf("invalid decimal amount %q", s)
	}
	scaled := new(big.Int).Mul(r.Num(), usdcScale)
	scaled.Quo(scaled, r.Denom())
	return Money{scaled: scaled}, nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{scaled: new(big.Int).Add(m.scaledOrZero(), other.scaledOrZero())}
}

// Float64 converts to a float64 for use inside signal shapers only —
// never for persistence or equality comparison.
func (m Money) Float64() float64 {
	f := new(big.Rat).SetFrac(m.scaledOrZero(), usdcScale)
	out, _ := f.Float64()
	return out
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.scaledOrZero().Sign() == 0
}

func (m Money) scaledOrZero() *big.Int {
	if m.scaled == nil {
		return new(big.Int)
	}
	return m.scaled
}

// String renders the canonical "%d.%06d" decimal form.
func (m Money) String() string {
	scaled := m.scaledOrZero()
	neg := scaled.Sign() < 0
	abs := new(big.Int).Abs(scaled)
	whole := new(big.Int)
	frac := new(big.Int)
	whole.QuoRem(abs, usdcScale, frac)
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%0*d", sign, whole.String(), usdcDecimals, frac.Int64())
}

// Value implements driver.Valuer so gorm persists Money as its decimal
// string form.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		*m = ZeroMoney()
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return errors.Errorf("unsupported Money source type %T", src)
	}
	if s == "" {
		*m = ZeroMoney()
		return nil
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
