package watchlist

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/samber/lo"
)

// Script is a watched address together with the output script it locks to.
type Script struct {
	Address  string
	PkScript []byte
}

// Load reads the watchlist from the given file, one address per line. The
// path "-" reads from stdin.
func Load(path string, params *chaincfg.Params) ([]Script, error) {
	if path == "-" {
		return Parse(os.Stdin, params)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open watchlist file: %w", err)
	}
	defer f.Close()

	return Parse(f, params)
}

// Parse decodes whitespace-separated addresses and returns the watched
// scripts with duplicates removed.
func Parse(r io.Reader, params *chaincfg.Params) ([]Script, error) {
	var scripts []Script

	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	for sc.Scan() {
		address := sc.Text()

		addr, err := btcutil.DecodeAddress(address, params)
		if err != nil {
			return nil, fmt.Errorf("failed to decode address %q: %w", address, err)
		}

		pkScript, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to build output script for %q: %w", address, err)
		}

		scripts = append(scripts, Script{
			Address:  address,
			PkScript: pkScript,
		})
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read watchlist: %w", err)
	}

	scripts = lo.UniqBy(scripts, func(s Script) string {
		return string(s.PkScript)
	})

	if len(scripts) == 0 {
		return nil, ErrEmptyWatchlist
	}

	return scripts, nil
}
