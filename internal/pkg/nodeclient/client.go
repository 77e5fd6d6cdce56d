package nodeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type Options struct {
	RequestTimeout time.Duration
}

// Client talks to the REST interface of a bitcoind node (-rest=1).
type Client struct {
	nodeRestURL *url.URL
	c           *http.Client
}

func New(nodeRestURL *url.URL, opts *Options) (*Client, error) {
	if nodeRestURL == nil {
		return nil, ErrNodeHostNotSpecified
	}

	defaultOptions := &Options{
		RequestTimeout: 10 * time.Second,
	}

	if opts != nil {
		if opts.RequestTimeout != 0 {
			defaultOptions.RequestTimeout = opts.RequestTimeout
		}
	}

	httpClient := http.Client{
		Transport: http.DefaultTransport,
		Timeout:   defaultOptions.RequestTimeout,
	}

	return &Client{
		nodeRestURL: nodeRestURL,
		c:           &httpClient,
	}, nil
}

type ChainInfo struct {
	Chain         string `json:"chain"`
	Blocks        int64  `json:"blocks"`
	BestBlockHash string `json:"bestblockhash"`
}

func (c *Client) GetChainInfo(ctx context.Context) (*ChainInfo, error) {
	var info ChainInfo

	if err := c.getJSON(ctx, "chaininfo.json", &info); err != nil {
		return nil, fmt.Errorf("failed to get chain info: %w", err)
	}

	return &info, nil
}

// GetBlockHashByHeight returns the hash of the block at the given height on
// the node's active chain. ErrBlockNotFound means the node's chain is shorter.
func (c *Client) GetBlockHashByHeight(ctx context.Context, height int64) (chainhash.Hash, error) {
	var res struct {
		BlockHash string `json:"blockhash"`
	}

	if err := c.getJSON(ctx, fmt.Sprintf("blockhashbyheight/%d.json", height), &res); err != nil {
		return chainhash.Hash{}, fmt.Errorf("failed to get block hash at height %d: %w", height, err)
	}

	hash, err := chainhash.NewHashFromStr(res.BlockHash)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("failed to parse block hash %q: %w", res.BlockHash, err)
	}

	return *hash, nil
}

// GetRawBlock returns the raw serialized block.
func (c *Client) GetRawBlock(ctx context.Context, hash chainhash.Hash) ([]byte, error) {
	body, err := c.get(ctx, fmt.Sprintf("block/%s.bin", hash))
	if err != nil {
		return nil, fmt.Errorf("failed to get block %s: %w", hash, err)
	}

	return body, nil
}

func (c *Client) get(ctx context.Context, method string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL(method), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := c.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call node: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrBlockNotFound
	}

	if res.StatusCode != http.StatusOK {
		return nil, newBadStatusCodeError(res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

func (c *Client) getJSON(ctx context.Context, method string, unmarshalTo any) error {
	body, err := c.get(ctx, method)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, unmarshalTo); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/rest/%s", strings.TrimSuffix(c.nodeRestURL.String(), "/"), method)
}
