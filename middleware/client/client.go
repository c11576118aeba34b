// Package client provides a PayingClient: an HTTP client that transparently
// signs and retries x402-gated requests.
package client

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/x402-network/facilitator/pkg/eip712"
	"github.com/x402-network/facilitator/pkg/network"
	"github.com/x402-network/facilitator/pkg/types"
)

// PayingClient is an HTTP client that automatically handles x402 payments.
type PayingClient struct {
	client     *http.Client
	signer     *ecdsa.PrivateKey
	signerAddr common.Address
}

// NewPayingClient creates a new client with payment capabilities.
func NewPayingClient(privateKeyHex string) (*PayingClient, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("error casting public key to ECDSA")
	}
	address := crypto.PubkeyToAddress(*publicKey)

	return &PayingClient{
		client:     &http.Client{},
		signer:     privateKey,
		signerAddr: address,
	}, nil
}

// Get performs a GET request with automatic payment handling.
func (c *PayingClient) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Post performs a POST request with automatic payment handling.
func (c *PayingClient) Post(url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(req)
}

// Do executes an HTTP request, transparently paying and retrying once if
// the server responds 402 Payment Required.
func (c *PayingClient) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		buf, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(buf))
		req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(buf)), nil }
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	requirements, err := c.parsePaymentRequirements(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payment requirements: %w", err)
	}

	payload, err := c.generatePaymentPayload(requirements)
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment: %w", err)
	}

	encoded, err := types.EncodePaymentPayloadHeader(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment: %w", err)
	}

	retryReq := req.Clone(req.Context())
	if req.GetBody != nil {
		if retryReq.Body, err = req.GetBody(); err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
	}
	retryReq.Header.Set("X-Payment", encoded)

	return c.client.Do(retryReq)
}

// parsePaymentRequirements extracts payment requirements from a 402 response.
func (c *PayingClient) parsePaymentRequirements(resp *http.Response) (*types.PaymentRequirements, error) {
	if reqHeader := resp.Header.Get("X-Payment-Required"); reqHeader != "" {
		var requirements types.PaymentRequirements
		if err := json.Unmarshal([]byte(reqHeader), &requirements); err == nil {
			return &requirements, nil
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var response struct {
		PaymentRequirements types.PaymentRequirements `json:"paymentRequirements"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, err
	}

	return &response.PaymentRequirements, nil
}

// generatePaymentPayload builds and signs a payment payload satisfying the
// given requirements, valid for the next hour.
func (c *PayingClient) generatePaymentPayload(requirements *types.PaymentRequirements) (*types.PaymentPayload, error) {
	if !requirements.Network.IsEVM() {
		return nil, fmt.Errorf("unsupported network: %s", requirements.Network)
	}
	domain, err := network.Lookup(requirements.Network)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := time.Now().Unix()
	validAfter := now
	validBefore := now + 3600

	var nonceArr [32]byte
	copy(nonceArr[:], nonce)

	value, ok := new(big.Int).SetString(requirements.MaxAmountRequired, 10)
	if !ok {
		return nil, fmt.Errorf("invalid maxAmountRequired: %s", requirements.MaxAmountRequired)
	}

	auth := eip712.Authorization{
		From:        c.signerAddr,
		To:          common.HexToAddress(requirements.PayTo),
		Value:       value,
		ValidAfter:  big.NewInt(validAfter),
		ValidBefore: big.NewInt(validBefore),
		Nonce:       nonceArr,
	}

	digestDomain := eip712.Domain{
		Name:              domain.Name,
		Version:           domain.Version,
		ChainID:           domain.ChainIDBig(),
		VerifyingContract: common.HexToAddress(requirements.Asset),
	}

	digest := eip712.Digest(digestDomain, auth)
	signature, err := crypto.Sign(digest.Bytes(), c.signer)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	if signature[64] < 27 {
		signature[64] += 27
	}

	return &types.PaymentPayload{
		X402Version: types.CurrentX402Version,
		Scheme:      types.SchemeExact,
		Network:     requirements.Network,
		Payload: types.ExactPayload{
			Signature: "0x" + hex.EncodeToString(signature),
			Authorization: types.ExactAuthorization{
				From:        auth.From.Hex(),
				To:          auth.To.Hex(),
				Value:       requirements.MaxAmountRequired,
				ValidAfter:  fmt.Sprintf("%d", validAfter),
				ValidBefore: fmt.Sprintf("%d", validBefore),
				Nonce:       "0x" + hex.EncodeToString(nonce),
			},
		},
	}, nil
}
