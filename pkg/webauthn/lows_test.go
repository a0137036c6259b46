package webauthn

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLowS(t *testing.T) {
	half := new(big.Int).Rsh(P256N, 1)
	r := big.NewInt(12345)

	cases := []struct {
		name  string
		s     *big.Int
		wantS *big.Int
	}{
		{"zero", big.NewInt(0), big.NewInt(0)},
		{"small", big.NewInt(7), big.NewInt(7)},
		{"exactly half", half, half},
		{"half plus one", new(big.Int).Add(half, big.NewInt(1)), new(big.Int).Sub(P256N, new(big.Int).Add(half, big.NewInt(1)))},
		{"n minus one", new(big.Int).Sub(P256N, big.NewInt(1)), big.NewInt(1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orig := new(big.Int).Set(tc.s)
			gotR, gotS := NormalizeLowS(r, tc.s, P256N)

			assert.Equal(t, 0, gotR.Cmp(r), "r must be untouched")
			assert.Equal(t, 0, gotS.Cmp(tc.wantS))
			assert.True(t, gotS.Cmp(half) <= 0)
			assert.Equal(t, 0, tc.s.Cmp(orig), "input must not be mutated")
		})
	}
}
