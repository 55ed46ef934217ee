package identifier

import (
	"fmt"
	"math/big"
	"strings"
)

// alphabet32 is a restricted base-32 alphabet without the visually ambiguous
// characters 0, 1, O and I.
const alphabet32 = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

var base = big.NewInt(int64(len(alphabet32)))

func encodeBaseX(value *big.Int) string {
	if value.Sign() == 0 {
		return string(alphabet32[0])
	}
	var sb strings.Builder
	v := new(big.Int).Set(value)
	mod := new(big.Int)
	for v.Sign() > 0 {
		v.DivMod(v, base, mod)
		sb.WriteByte(alphabet32[mod.Int64()])
	}
	// digits were produced least-significant first
	encoded := []byte(sb.String())
	for i, j := 0, len(encoded)-1; i < j; i, j = i+1, j-1 {
		encoded[i], encoded[j] = encoded[j], encoded[i]
	}
	return string(encoded)
}

func decodeBaseX(encoded string) (*big.Int, error) {
	if encoded == "" {
		return nil, fmt.Errorf("empty identifier")
	}
	value := new(big.Int)
	for _, r := range encoded {
		idx := strings.IndexRune(alphabet32, r)
		if idx < 0 {
			return nil, fmt.Errorf("invalid identifier character %q", r)
		}
		value.Mul(value, base)
		value.Add(value, big.NewInt(int64(idx)))
	}
	return value, nil
}
