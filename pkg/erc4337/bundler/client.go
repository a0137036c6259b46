// Provide primitive to work with a bundler RPC
// Bundler RPC is stateless
package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/go-resty/resty/v2"

	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/userop"
	"github.com/AvaProtocol/replayable-aa/pkg/logger"
)

const defaultTimeout = 30 * time.Second

// BundlerClient defines a client for interacting with an EIP-4337 bundler RPC endpoint.
type BundlerClient struct {
	client *rpc.Client
	http   *resty.Client
	url    string
	logger logger.Logger
}

// RPCError is a JSON-RPC error object returned by the bundler, e.g. code -32500 for AA2x/AA3x
// validation failures.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

type Option func(*BundlerClient)

func WithLogger(l logger.Logger) Option {
	return func(bc *BundlerClient) {
		bc.logger = logger.EnsureLogger(l)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(bc *BundlerClient) {
		bc.http.SetTimeout(d)
	}
}

// NewBundlerClient creates a new BundlerClient that connects to the given URL.
func NewBundlerClient(url string, opts ...Option) (*BundlerClient, error) {
	// DialHTTP works with plain HTTP bundler endpoints, which is what every hosted bundler exposes.
	c, err := rpc.DialHTTP(url)
	if err != nil {
		return nil, fmt.Errorf("Error creating bundler client: %w", err)
	}

	bc := &BundlerClient{
		client: c,
		http: resty.New().
			SetTimeout(defaultTimeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		url:    url,
		logger: logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(bc)
	}
	return bc, nil
}

// Close closes the underlying RPC client connection.
func (bc *BundlerClient) Close() {
	bc.client.Close()
}

// call issues a JSON-RPC request over plain HTTP and decodes result into out.
func (bc *BundlerClient) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	req := jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	resp, err := bc.http.R().SetContext(ctx).SetBody(req).Post(bc.url)
	if err != nil {
		return fmt.Errorf("%s: HTTP request failed: %w", method, err)
	}

	bc.logger.Debug("bundler response", "method", method, "status", resp.StatusCode(), "bytes", len(resp.Body()))

	var rpcResp jsonrpcResponse
	if resp.StatusCode() != http.StatusOK {
		// bundlers commonly return JSON-RPC errors with a 4xx/5xx status
		if json.Unmarshal(resp.Body(), &rpcResp) == nil && rpcResp.Error != nil {
			return fmt.Errorf("%s: %w", method, rpcResp.Error)
		}
		return fmt.Errorf("%s: %d %s: %s", method, resp.StatusCode(), http.StatusText(resp.StatusCode()), resp.String())
	}

	if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
		return fmt.Errorf("%s: failed to parse JSON response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return fmt.Errorf("%s: missing result in JSON-RPC response", method)
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("%s: failed to decode result: %w", method, err)
	}
	return nil
}

// SendUserOperation sends a UserOperation to the bundler and returns the user operation hash.
func (bc *BundlerClient) SendUserOperation(
	ctx context.Context,
	userOp userop.UserOperation,
	entrypoint common.Address,
) (string, error) {
	bc.logger.Debug("eth_sendUserOperation",
		"sender", userOp.Sender.Hex(),
		"nonce", userOp.Nonce,
		"entrypoint", entrypoint.Hex())

	var opHash string
	if err := bc.call(ctx, &opHash, "eth_sendUserOperation", userOp, entrypoint.Hex()); err != nil {
		return "", err
	}
	return opHash, nil
}

// EstimateUserOperationGas estimates the gas required for a UserOperation.
// https://eips.ethereum.org/EIPS/eip-4337#rpc-methods-eth-namespace
// The signature field is ignored by the wallet during estimation but must have a realistic length.
// override is an optional state override set, with the same semantics as for eth_call.
func (bc *BundlerClient) EstimateUserOperationGas(
	ctx context.Context,
	userOp userop.UserOperation,
	entrypoint common.Address,
	override map[string]any,
) (*GasEstimation, error) {
	bc.logger.Debug("eth_estimateUserOperationGas",
		"sender", userOp.Sender.Hex(),
		"nonce", userOp.Nonce,
		"initCodeLen", len(userOp.InitCode),
		"callDataLen", len(userOp.CallData),
		"signatureLen", len(userOp.Signature),
		"entrypoint", entrypoint.Hex())

	params := []interface{}{userOp, entrypoint.Hex()}
	if override != nil {
		params = append(params, override)
	}

	var result gasEstimationResult
	if err := bc.call(ctx, &result, "eth_estimateUserOperationGas", params...); err != nil {
		return nil, err
	}

	gas, err := result.toEstimation()
	if err != nil {
		return nil, fmt.Errorf("eth_estimateUserOperationGas: %w", err)
	}
	return gas, nil
}

// UserOperationReceipt is the subset of eth_getUserOperationReceipt this client exposes.
type UserOperationReceipt struct {
	UserOpHash    common.Hash    `json:"userOpHash"`
	Sender        common.Address `json:"sender"`
	Nonce         *hexutil.Big   `json:"nonce"`
	Success       bool           `json:"success"`
	Reason        string         `json:"reason"`
	ActualGasCost *hexutil.Big   `json:"actualGasCost"`
	ActualGasUsed *hexutil.Big   `json:"actualGasUsed"`
	Receipt       struct {
		TransactionHash common.Hash  `json:"transactionHash"`
		BlockNumber     *hexutil.Big `json:"blockNumber"`
	} `json:"receipt"`
}

// GetUserOperationReceipt fetches the receipt of a UserOperation. A nil receipt and nil error
// means the operation is not mined yet.
func (bc *BundlerClient) GetUserOperationReceipt(ctx context.Context, hash string) (*UserOperationReceipt, error) {
	var receipt *UserOperationReceipt
	err := bc.client.CallContext(ctx, &receipt, "eth_getUserOperationReceipt", hash)
	return receipt, err
}

// GetUserOperationByHash fetches a UserOperation by its hash.
func (bc *BundlerClient) GetUserOperationByHash(ctx context.Context, hash string) (map[string]interface{}, error) {
	var userOp map[string]interface{}
	err := bc.client.CallContext(ctx, &userOp, "eth_getUserOperationByHash", hash)
	return userOp, err
}

// SupportedEntryPoints lists the entry points the bundler accepts operations for.
func (bc *BundlerClient) SupportedEntryPoints(ctx context.Context) ([]common.Address, error) {
	var entryPoints []common.Address
	err := bc.client.CallContext(ctx, &entryPoints, "eth_supportedEntryPoints")
	return entryPoints, err
}
