// Package network holds the process-wide, read-only domain table: for each
// supported chain, its chain ID, USDC contract address, and EIP-712 domain
// name/version (§4.2). These are initialised once at startup and never
// mutated, per the concurrency model in §5.
package network

import (
	"encoding/json"
	"math/big"

	"github.com/x402-network/facilitator/pkg/types"
)

// Domain is the EIP-712 signing domain plus settlement metadata for one
// supported network.
type Domain struct {
	Network     types.Network
	ChainID     int64
	USDCAddress string
	Name        string
	Version     string
}

// ChainIDBig returns the chain ID as a *big.Int, for EIP-712 digest math.
func (d Domain) ChainIDBig() *big.Int { return big.NewInt(d.ChainID) }

// MetadataJSON renders {name, version}, surfaced as SupportedKind.Metadata so a
// client never needs out-of-band domain knowledge. Nothing in this repository
// copies it into PaymentRequirements.Extra.
func (d Domain) MetadataJSON() json.RawMessage {
	b, _ := json.Marshal(struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}{d.Name, d.Version})
	return b
}

var domains = map[types.Network]Domain{
	types.NetworkBase: {
		Network:     types.NetworkBase,
		ChainID:     8453,
		USDCAddress: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
		Name:        "USD Coin",
		Version:     "2",
	},
	types.NetworkBaseSepolia: {
		Network:     types.NetworkBaseSepolia,
		ChainID:     84532,
		USDCAddress: "0x036cbd53842c5426634e7929541ec2318f3dcf7e",
		Name:        "USDC",
		Version:     "2",
	},
	types.NetworkAvalanche: {
		Network:     types.NetworkAvalanche,
		ChainID:     43114,
		USDCAddress: "0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e",
		Name:        "USD Coin",
		Version:     "2",
	},
	types.NetworkAvalancheFuji: {
		Network:     types.NetworkAvalancheFuji,
		ChainID:     43113,
		USDCAddress: "0x5425890298aed601595a70ab815c96711a31bc65",
		Name:        "USDC",
		Version:     "2",
	},
}

// Lookup returns the signing domain for a supported network, or an
// UnsupportedNetwork protocol error.
func Lookup(n types.Network) (Domain, error) {
	d, ok := domains[n]
	if !ok {
		return Domain{}, types.NewUnsupportedNetworkError(n)
	}
	return d, nil
}

// Supported lists every network this build recognises, in a stable order.
func Supported() []types.Network {
	return []types.Network{
		types.NetworkBase,
		types.NetworkBaseSepolia,
		types.NetworkAvalanche,
		types.NetworkAvalancheFuji,
	}
}
