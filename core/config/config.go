package config

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"

	"github.com/AvaProtocol/replayable-aa/core/chainio/aa"
	"github.com/AvaProtocol/replayable-aa/pkg/erc4337/preset"
	"github.com/AvaProtocol/replayable-aa/pkg/logger"
	"github.com/AvaProtocol/replayable-aa/pkg/webauthn"
)

// Config is the resolved configuration of the CLI: every value present, addresses parsed.
type Config struct {
	Environment sdklogging.LogLevel
	Logger      logger.Logger

	EthRpcUrl  string
	BundlerUrl string

	EntrypointAddress  common.Address
	FactoryAddress     common.Address
	RelyingPartyOrigin string
	NonceKey           *big.Int
	PlaceholderGas     preset.GasLimits
}

// These are read from configPath
type ConfigRaw struct {
	Environment        sdklogging.LogLevel `yaml:"environment" validate:"omitempty,oneof=production development"`
	EthRpcUrl          string              `yaml:"eth_rpc_url" validate:"required,url"`
	BundlerUrl         string              `yaml:"bundler_url" validate:"required,url"`
	EntrypointAddress  string              `yaml:"entrypoint_address" validate:"omitempty,eth_addr"`
	FactoryAddress     string              `yaml:"factory_address" validate:"omitempty,eth_addr"`
	RelyingPartyOrigin string              `yaml:"relying_party_origin" validate:"omitempty,url"`
	NonceKey           string              `yaml:"nonce_key" validate:"omitempty,number"`
	PlaceholderGas     PlaceholderGasRaw   `yaml:"placeholder_gas"`
}

type PlaceholderGasRaw struct {
	Call            uint64 `yaml:"call"`
	Verification    uint64 `yaml:"verification"`
	PreVerification uint64 `yaml:"pre_verification"`
}

var validate = validator.New()

// NewConfig reads and validates the yaml file at configFilePath. An empty path yields the defaults.
func NewConfig(configFilePath string) (*Config, error) {
	var data []byte
	if configFilePath != "" {
		var err error
		data, err = os.ReadFile(configFilePath)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", configFilePath, err)
		}
	}
	return Parse(data)
}

// Parse builds a Config from yaml bytes, filling defaults before validation.
func Parse(data []byte) (*Config, error) {
	var raw ConfigRaw
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	raw.applyDefaults()

	if err := validate.Struct(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := webauthn.ValidateOrigin(raw.RelyingPartyOrigin); err != nil {
		return nil, fmt.Errorf("invalid config: relying_party_origin: %w", err)
	}

	nonceKey, ok := new(big.Int).SetString(raw.NonceKey, 10)
	if !ok || nonceKey.Sign() < 0 || nonceKey.BitLen() > 192 {
		return nil, fmt.Errorf("invalid config: nonce_key %q is not a uint192", raw.NonceKey)
	}

	l, err := logger.New(string(raw.Environment))
	if err != nil {
		return nil, err
	}

	return &Config{
		Environment:        raw.Environment,
		Logger:             l,
		EthRpcUrl:          raw.EthRpcUrl,
		BundlerUrl:         raw.BundlerUrl,
		EntrypointAddress:  common.HexToAddress(raw.EntrypointAddress),
		FactoryAddress:     common.HexToAddress(raw.FactoryAddress),
		RelyingPartyOrigin: raw.RelyingPartyOrigin,
		NonceKey:           nonceKey,
		PlaceholderGas: preset.GasLimits{
			CallGasLimit:         new(big.Int).SetUint64(raw.PlaceholderGas.Call),
			VerificationGasLimit: new(big.Int).SetUint64(raw.PlaceholderGas.Verification),
			PreVerificationGas:   new(big.Int).SetUint64(raw.PlaceholderGas.PreVerification),
		},
	}, nil
}

func (c *ConfigRaw) applyDefaults() {
	if c.Environment == "" {
		c.Environment = sdklogging.Development
	}
	if c.EthRpcUrl == "" {
		c.EthRpcUrl = DefaultEthRpcURL
	}
	if c.BundlerUrl == "" {
		c.BundlerUrl = DefaultBundlerURL
	}
	if c.EntrypointAddress == "" {
		c.EntrypointAddress = aa.EntrypointAddress.Hex()
	}
	if c.FactoryAddress == "" {
		c.FactoryAddress = aa.FactoryAddress().Hex()
	}
	if c.RelyingPartyOrigin == "" {
		c.RelyingPartyOrigin = webauthn.DefaultOrigin
	}
	if c.NonceKey == "" {
		c.NonceKey = DefaultNonceKey.String()
	}
	if c.PlaceholderGas.Call == 0 {
		c.PlaceholderGas.Call = preset.DEFAULT_CALL_GAS_LIMIT.Uint64()
	}
	if c.PlaceholderGas.Verification == 0 {
		c.PlaceholderGas.Verification = preset.DEFAULT_VERIFICATION_GAS_LIMIT.Uint64()
	}
	if c.PlaceholderGas.PreVerification == 0 {
		c.PlaceholderGas.PreVerification = preset.DEFAULT_PREVERIFICATION_GAS.Uint64()
	}
}

// BuilderOptions maps the config onto preset.Options.
func (c *Config) BuilderOptions() preset.Options {
	return preset.Options{
		EntryPoint:  c.EntrypointAddress,
		Origin:      c.RelyingPartyOrigin,
		Placeholder: c.PlaceholderGas,
		Logger:      c.Logger,
	}
}
