package nodeclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ciricc/btc-address-indexer/internal/pkg/nodeclient"
	"github.com/stretchr/testify/require"
)

const testBlockHashHex = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"

func newTestClient(t *testing.T) (*nodeclient.Client, *http.ServeMux) {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	nodeURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	client, err := nodeclient.New(nodeURL, nil)
	require.NoError(t, err)

	return client, mux
}

func TestGetChainInfo(t *testing.T) {
	client, mux := newTestClient(t)

	mux.HandleFunc("/rest/chaininfo.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chain":"main","blocks":42,"bestblockhash":"` + testBlockHashHex + `"}`))
	})

	info, err := client.GetChainInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, "main", info.Chain)
	require.Equal(t, int64(42), info.Blocks)
	require.Equal(t, testBlockHashHex, info.BestBlockHash)
}

func TestGetBlockHashByHeight(t *testing.T) {
	client, mux := newTestClient(t)

	mux.HandleFunc("/rest/blockhashbyheight/7.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"blockhash":"` + testBlockHashHex + `"}`))
	})

	hash, err := client.GetBlockHashByHeight(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, testBlockHashHex, hash.String())

	_, err = client.GetBlockHashByHeight(context.Background(), 8)
	require.ErrorIs(t, err, nodeclient.ErrBlockNotFound)
}

func TestGetRawBlock(t *testing.T) {
	client, mux := newTestClient(t)

	raw := []byte{0x01, 0x02, 0x03}
	mux.HandleFunc("/rest/block/"+testBlockHashHex+".bin", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(raw)
	})

	hash, err := chainhash.NewHashFromStr(testBlockHashHex)
	require.NoError(t, err)

	body, err := client.GetRawBlock(context.Background(), *hash)
	require.NoError(t, err)
	require.Equal(t, raw, body)
}

func TestBadStatusCode(t *testing.T) {
	client, mux := newTestClient(t)

	mux.HandleFunc("/rest/chaininfo.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetChainInfo(context.Background())
	require.ErrorIs(t, err, nodeclient.ErrBadStatusCode)
}

func TestNewRequiresURL(t *testing.T) {
	_, err := nodeclient.New(nil, nil)
	require.ErrorIs(t, err, nodeclient.ErrNodeHostNotSpecified)
}
