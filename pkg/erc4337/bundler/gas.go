package bundler

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// GasEstimation is the result of eth_estimateUserOperationGas.
type GasEstimation struct {
	PreVerificationGas   *big.Int
	VerificationGasLimit *big.Int
	CallGasLimit         *big.Int
}

// quantity accepts both 0x-prefixed hex strings and plain JSON numbers; bundlers disagree on which
// they return for gas values.
type quantity big.Int

func (q *quantity) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if !strings.HasPrefix(s, "0x") {
			v, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return fmt.Errorf("invalid quantity %q", s)
			}
			(*big.Int)(q).Set(v)
			return nil
		}
		v, err := hexutil.DecodeBig(s)
		if err != nil {
			return fmt.Errorf("invalid quantity %q: %w", s, err)
		}
		(*big.Int)(q).Set(v)
		return nil
	}

	v, ok := new(big.Int).SetString(string(data), 10)
	if !ok {
		return fmt.Errorf("invalid quantity %s", data)
	}
	(*big.Int)(q).Set(v)
	return nil
}

func (q *quantity) toInt() *big.Int {
	if q == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(q))
}

type gasEstimationResult struct {
	PreVerificationGas   *quantity `json:"preVerificationGas"`
	VerificationGasLimit *quantity `json:"verificationGasLimit"`
	CallGasLimit         *quantity `json:"callGasLimit"`
}

func (r gasEstimationResult) toEstimation() (*GasEstimation, error) {
	if r.PreVerificationGas == nil || r.VerificationGasLimit == nil || r.CallGasLimit == nil {
		return nil, fmt.Errorf("incomplete gas estimation result")
	}
	return &GasEstimation{
		PreVerificationGas:   r.PreVerificationGas.toInt(),
		VerificationGasLimit: r.VerificationGasLimit.toInt(),
		CallGasLimit:         r.CallGasLimit.toInt(),
	}, nil
}
