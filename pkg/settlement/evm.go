package settlement

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/x402-network/facilitator/pkg/eip712"
)

const transferWithAuthorizationABI = `[{"inputs":[{"internalType":"address","name":"from","type":"address"},{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"uint256","name":"validAfter","type":"uint256"},{"internalType":"uint256","name":"validBefore","type":"uint256"},{"internalType":"bytes32","name":"nonce","type":"bytes32"},{"internalType":"bytes","name":"signature","type":"bytes"}],"name":"transferWithAuthorization","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// EVMSettler submits transferWithAuthorization transactions through a pool
// of relayer keys, round-robined across requests. Adapted from the
// teacher's evm.Provider.transferWithAuthorization, with the balance
// pre-check dropped: it is not one of the six checks the verification
// pipeline runs, and the pipeline's own amount check already covers the
// claimed authorization value.
type EVMSettler struct {
	client        *ethclient.Client
	abi           abi.ABI
	signers       []*ecdsa.PrivateKey
	signerIndex   atomic.Uint64
	confirmations uint64
	waitTimeout   time.Duration
}

// NewEVMSettler builds an EVMSettler over an existing client and at least
// one relayer key. confirmations of 0 is treated as 1.
func NewEVMSettler(client *ethclient.Client, signers []*ecdsa.PrivateKey, confirmations uint64) (*EVMSettler, error) {
	if len(signers) == 0 {
		return nil, fmt.Errorf("settlement: at least one relayer key is required")
	}
	parsedABI, err := abi.JSON(strings.NewReader(transferWithAuthorizationABI))
	if err != nil {
		return nil, fmt.Errorf("settlement: failed to parse ABI: %w", err)
	}
	if confirmations == 0 {
		confirmations = 1
	}
	return &EVMSettler{
		client:        client,
		abi:           parsedABI,
		signers:       signers,
		confirmations: confirmations,
		waitTimeout:   30 * time.Second,
	}, nil
}

func (s *EVMSettler) SendTransferWithAuthorization(ctx context.Context, domain eip712.Domain, auth eip712.Authorization, signature []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	defer cancel()

	idx := int(s.signerIndex.Add(1) % uint64(len(s.signers)))
	signer := s.signers[idx]
	signerAddr := crypto.PubkeyToAddress(signer.PublicKey)

	data, err := s.abi.Pack("transferWithAuthorization", auth.From, auth.To, auth.Value, auth.ValidAfter, auth.ValidBefore, auth.Nonce, signature)
	if err != nil {
		return "", fmt.Errorf("settlement: pack transferWithAuthorization: %w", err)
	}

	nonce, err := s.client.PendingNonceAt(ctx, signerAddr)
	if err != nil {
		return "", fmt.Errorf("settlement: fetch relayer nonce: %w", err)
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("settlement: suggest gas price: %w", err)
	}

	verifyingContract := domain.VerifyingContract
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &verifyingContract,
		Value:    big.NewInt(0),
		Gas:      100000,
		GasPrice: gasPrice,
		Data:     data,
	})

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(domain.ChainID), signer)
	if err != nil {
		return "", fmt.Errorf("settlement: sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("settlement: send transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, s.client, signedTx)
	if err != nil {
		return "", fmt.Errorf("settlement: waiting for confirmation: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("settlement: transaction reverted")
	}

	if s.confirmations > 1 {
		if err := s.awaitConfirmations(ctx, receipt.BlockNumber.Uint64()); err != nil {
			return "", err
		}
	}

	return signedTx.Hash().Hex(), nil
}

func (s *EVMSettler) awaitConfirmations(ctx context.Context, minedBlock uint64) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("settlement: confirmation wait timed out: %w", ctx.Err())
		case <-ticker.C:
			head, err := s.client.BlockNumber(ctx)
			if err != nil {
				continue
			}
			if head >= minedBlock+s.confirmations-1 {
				return nil
			}
		}
	}
}
