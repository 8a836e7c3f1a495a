// Package chain runs a local anvil node for development sessions.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meysamhadeli/dappai/apperrors"
	"github.com/meysamhadeli/dappai/runner"
)

const (
	DefaultRPCURL  = "http://127.0.0.1:8545"
	DefaultChainID = 31337

	anvilBinary = "anvil"
)

// Node is a local test chain. The anvil process lives until the context passed
// to Start is cancelled.
type Node struct {
	runner       runner.ProcessRunner
	rpcURL       string
	chainID      uint64
	logger       *zap.Logger
	client       *http.Client
	pollInterval time.Duration
	readyTimeout time.Duration

	done   chan struct{}
	result *runner.Result
	err    error
}

// Option configures a Node.
type Option func(*Node)

// WithPollInterval sets how often readiness is probed.
func WithPollInterval(d time.Duration) Option {
	return func(n *Node) { n.pollInterval = d }
}

// WithReadyTimeout bounds how long Start waits for the RPC endpoint.
func WithReadyTimeout(d time.Duration) Option {
	return func(n *Node) { n.readyTimeout = d }
}

// WithHTTPClient overrides the client used for JSON-RPC probes.
func WithHTTPClient(client *http.Client) Option {
	return func(n *Node) { n.client = client }
}

func NewNode(processRunner runner.ProcessRunner, rpcURL string, chainID uint64, logger *zap.Logger, opts ...Option) *Node {
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	if chainID == 0 {
		chainID = DefaultChainID
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Node{
		runner:       processRunner,
		rpcURL:       rpcURL,
		chainID:      chainID,
		logger:       logger,
		client:       &http.Client{Timeout: 2 * time.Second},
		pollInterval: 200 * time.Millisecond,
		readyTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// RPCURL is the JSON-RPC endpoint of the node.
func (n *Node) RPCURL() string {
	return n.rpcURL
}

// Start launches anvil and blocks until it answers eth_chainId. When a node is
// already listening on the RPC URL it is reused and no process is spawned.
func (n *Node) Start(ctx context.Context) error {
	if id, err := ChainID(ctx, n.client, n.rpcURL); err == nil {
		n.logger.Info("reusing running chain", zap.String("rpc_url", n.rpcURL), zap.Uint64("chain_id", id))
		return nil
	}

	host, port, err := hostPort(n.rpcURL)
	if err != nil {
		return err
	}

	n.done = make(chan struct{})
	go func() {
		defer close(n.done)
		n.result, n.err = n.runner.Run(ctx, runner.Command{
			Name: anvilBinary,
			Args: []string{"--host", host, "--port", port, "--chain-id", strconv.FormatUint(n.chainID, 10)},
		})
	}()

	readyCtx, cancel := context.WithTimeout(ctx, n.readyTimeout)
	defer cancel()

	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	for {
		if id, err := ChainID(readyCtx, n.client, n.rpcURL); err == nil {
			n.logger.Info("chain ready", zap.String("rpc_url", n.rpcURL), zap.Uint64("chain_id", id))
			return nil
		}

		select {
		case <-n.done:
			if errors.Is(n.err, runner.ErrNotFound) {
				return apperrors.ErrMissingToolchain(anvilBinary, n.err)
			}
			if n.err != nil {
				return fmt.Errorf("anvil failed to start: %w", n.err)
			}
			return fmt.Errorf("anvil exited before becoming ready: %s", strings.TrimSpace(n.result.Stderr))
		case <-readyCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("chain at %s not ready after %s", n.rpcURL, n.readyTimeout)
		case <-ticker.C:
		}
	}
}

// Wait blocks until a process started by Start has exited. It returns
// immediately when Start reused an existing node.
func (n *Node) Wait() error {
	if n.done == nil {
		return nil
	}
	<-n.done
	return n.err
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ChainID calls eth_chainId on rpcURL.
func ChainID(ctx context.Context, client *http.Client, rpcURL string) (uint64, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: "eth_chainId", Params: []any{}})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rpcURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Close = true

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("eth_chainId returned status %d", resp.StatusCode)
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decoding eth_chainId: %w", err)
	}
	if decoded.Error != nil {
		return 0, fmt.Errorf("eth_chainId: %s", decoded.Error.Message)
	}
	return strconv.ParseUint(strings.TrimPrefix(decoded.Result, "0x"), 16, 64)
}

func hostPort(rpcURL string) (string, string, error) {
	u, err := url.Parse(rpcURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid rpc url %q: %w", rpcURL, err)
	}
	host, port := u.Hostname(), u.Port()
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "8545"
	}
	return host, port, nil
}
