package cmd

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/userop"
)

var testEntryPoint = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")

func fakeBundler(t *testing.T, responses map[string]string) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var req struct {
			Method string `json:"method"`
		}
		assert.NoError(t, json.Unmarshal(body, &req))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(responses[req.Method]))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func signedOp() userop.UserOperation {
	return userop.UserOperation{
		Sender:               common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1"),
		Nonce:                new(big.Int).Lsh(big.NewInt(8453), 64),
		CallData:             common.FromHex("0x2c2abd1e"),
		CallGasLimit:         big.NewInt(100000),
		VerificationGasLimit: big.NewInt(100000),
		PreVerificationGas:   big.NewInt(50000),
		MaxFeePerGas:         big.NewInt(10),
		MaxPriorityFeePerGas: big.NewInt(1),
		Signature:            []byte{1},
	}
}

func TestBroadcast(t *testing.T) {
	const opHash = "0x2ae9873530c238649e155b087cd3b9b42ec7293f55fc5238f94aa50280a3ada1"

	good := fakeBundler(t, map[string]string{
		"eth_supportedEntryPoints": `{"jsonrpc":"2.0","id":1,"result":["0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"]}`,
		"eth_sendUserOperation":    `{"jsonrpc":"2.0","id":1,"result":"` + opHash + `"}`,
		"eth_getUserOperationReceipt": `{"jsonrpc":"2.0","id":1,"result":{"userOpHash":"` + opHash + `","success":true,` +
			`"receipt":{"transactionHash":"0x00000000000000000000000000000000000000000000000000000000000000aa"}}}`,
	})
	wrongEntryPoint := fakeBundler(t, map[string]string{
		"eth_supportedEntryPoints": `{"jsonrpc":"2.0","id":1,"result":["0x0000000071727De22E5E9d8BAf0edAc6f37da032"]}`,
	})

	results, err := broadcast(context.Background(), []string{good, wrongEntryPoint}, signedOp(), testEntryPoint, time.Second, nil)
	require.Error(t, err)
	require.Len(t, results, 2)

	assert.NoError(t, results[0].err)
	assert.Equal(t, opHash, results[0].hash)
	require.NotNil(t, results[0].receipt)
	assert.True(t, results[0].receipt.Success)
	assert.Contains(t, results[0].status(), "success=true")

	assert.ErrorContains(t, results[1].err, "does not support entrypoint")
	assert.Empty(t, results[1].hash)
}

func TestCleanURLs(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, cleanURLs([]string{" http://a", "", "http://b "}))
}

func TestBroadcast_WaitReportsDroppedAndPending(t *testing.T) {
	const opHash = "0x2ae9873530c238649e155b087cd3b9b42ec7293f55fc5238f94aa50280a3ada1"
	base := map[string]string{
		"eth_supportedEntryPoints":    `{"jsonrpc":"2.0","id":1,"result":["0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"]}`,
		"eth_sendUserOperation":       `{"jsonrpc":"2.0","id":1,"result":"` + opHash + `"}`,
		"eth_getUserOperationReceipt": `{"jsonrpc":"2.0","id":1,"result":null}`,
	}
	with := func(method, body string) map[string]string {
		m := map[string]string{method: body}
		for k, v := range base {
			m[k] = v
		}
		return m
	}

	dropped := fakeBundler(t, with("eth_getUserOperationByHash", `{"jsonrpc":"2.0","id":1,"result":null}`))
	results, err := broadcast(context.Background(), []string{dropped}, signedOp(), testEntryPoint, time.Second, nil)
	assert.ErrorContains(t, err, "dropped by the bundler")
	require.Len(t, results, 1)
	assert.Equal(t, opHash, results[0].hash)

	pending := fakeBundler(t, with("eth_getUserOperationByHash", `{"jsonrpc":"2.0","id":1,"result":{"userOperation":{"sender":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1"},"entryPoint":"0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"}}`))
	results, err = broadcast(context.Background(), []string{pending}, signedOp(), testEntryPoint, 50*time.Millisecond, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, results[0].receipt)
}
