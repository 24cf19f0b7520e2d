package main

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/citizenwallet/dao/pkg/router"
	"github.com/ethereum/go-ethereum/crypto"
)

var errNoKey = errors.New("a private key is required to sign this request (--key or DAO_KEY)")

type envelope struct {
	Object json.RawMessage `json:"object"`
	Array  json.RawMessage `json:"array"`
	Error  string          `json:"error"`
}

// client talks to the api of a dao node
type client struct {
	baseURL string
	apiKey  string
	key     *ecdsa.PrivateKey
	ttl     time.Duration
	http    *http.Client
}

func newClient(baseURL, apiKey, hexKey string) (*client, error) {
	c := &client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		ttl:     time.Minute,
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	if hexKey != "" {
		k, err := dao.HexToPrivateKey(hexKey)
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		c.key = k
	}

	return c, nil
}

func (c *client) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	return c.do(req)
}

// post signs payload with the client key and sends it
func (c *client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	if c.key == nil {
		return nil, errNoKey
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	body, sig, err := router.SignBody(c.key, http.MethodPost, path, data, c.ttl)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(dao.SignatureHeader, sig)
	req.Header.Set(dao.AddressHeader, crypto.PubkeyToAddress(c.key.PublicKey).Hex())

	return c.do(req)
}

func (c *client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if len(b) > 0 {
		err = json.Unmarshal(b, &env)
		if err != nil {
			return nil, fmt.Errorf("unexpected response (%s): %w", resp.Status, err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if env.Error != "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, env.Error)
		}
		return nil, errors.New(resp.Status)
	}

	if env.Array != nil {
		return env.Array, nil
	}

	return env.Object, nil
}
