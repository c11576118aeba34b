// Package eip712 computes the EIP-712 digest for a TransferWithAuthorization
// struct (§4.2). It is pure: no I/O, no shared state, safe to call
// concurrently from any number of verification goroutines.
package eip712

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	domainTypeHash = crypto.Keccak256([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
	structTypeHash = crypto.Keccak256([]byte("TransferWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)"))
)

// Domain is the EIP-712 signing domain for one asset on one chain.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// Authorization is the EIP-3009 transferWithAuthorization struct.
type Authorization struct {
	From        common.Address
	To          common.Address
	Value       *big.Int
	ValidAfter  *big.Int
	ValidBefore *big.Int
	Nonce       [32]byte
}

func domainSeparator(d Domain) []byte {
	buf := make([]byte, 0, 4*32)
	buf = append(buf, domainTypeHash...)
	buf = append(buf, crypto.Keccak256([]byte(d.Name))...)
	buf = append(buf, crypto.Keccak256([]byte(d.Version))...)
	buf = append(buf, common.LeftPadBytes(d.ChainID.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(d.VerifyingContract.Bytes(), 32)...)
	return crypto.Keccak256(buf)
}

func structHash(a Authorization) []byte {
	buf := make([]byte, 0, 7*32)
	buf = append(buf, structTypeHash...)
	buf = append(buf, common.LeftPadBytes(a.From.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(a.To.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(a.Value.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(a.ValidAfter.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(a.ValidBefore.Bytes(), 32)...)
	buf = append(buf, a.Nonce[:]...)
	return crypto.Keccak256(buf)
}

// Digest computes keccak256(0x19 0x01 || domainSeparator || structHash), the
// value a signer's private key actually signs under EIP-712.
func Digest(d Domain, a Authorization) common.Hash {
	ds := domainSeparator(d)
	sh := structHash(a)

	payload := make([]byte, 0, 2+len(ds)+len(sh))
	payload = append(payload, 0x19, 0x01)
	payload = append(payload, ds...)
	payload = append(payload, sh...)

	return crypto.Keccak256Hash(payload)
}
