package domain

import (
	"github.com/fd1az/walletd/internal/asset"
)

// NativeCurrency is the serializable view of a chain's native asset.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// Network is a static chain descriptor.
type Network struct {
	ChainID        uint64         `json:"chainId"`
	Name           string         `json:"name"`
	RPCURLs        []string       `json:"rpcUrls"`
	ExplorerURLs   []string       `json:"explorerUrls"`
	NativeCurrency NativeCurrency `json:"nativeCurrency"`
	Testnet        bool           `json:"testnet"`
	Local          bool           `json:"local"`

	currency *asset.Asset
}

// Currency returns the native asset used to format balances.
func (n Network) Currency() *asset.Asset {
	return n.currency
}

// WithRPCURL returns a copy of n whose primary RPC endpoint is url.
func (n Network) WithRPCURL(url string) Network {
	n.RPCURLs = append([]string{url}, n.RPCURLs...)
	return n
}

func newNetwork(name string, currency *asset.Asset, rpc, explorer []string, testnet, local bool) Network {
	return Network{
		ChainID:      currency.ChainID(),
		Name:         name,
		RPCURLs:      rpc,
		ExplorerURLs: explorer,
		NativeCurrency: NativeCurrency{
			Name:     currency.Name(),
			Symbol:   currency.Symbol(),
			Decimals: currency.Decimals(),
		},
		Testnet:  testnet,
		Local:    local,
		currency: currency,
	}
}

var supportedNetworks = []Network{
	newNetwork("Avalanche C-Chain", asset.AVAX,
		[]string{"https://api.avax.network/ext/bc/C/rpc"},
		[]string{"https://snowtrace.io"}, false, false),
	newNetwork("BNB Smart Chain", asset.BNB,
		[]string{"https://bsc-dataseed.binance.org"},
		[]string{"https://bscscan.com"}, false, false),
	newNetwork("Polygon", asset.MATIC,
		[]string{"https://polygon-rpc.com"},
		[]string{"https://polygonscan.com"}, false, false),
	newNetwork("Ethereum", asset.ETH,
		[]string{"https://cloudflare-eth.com"},
		[]string{"https://etherscan.io"}, false, false),
	newNetwork("Avalanche Fuji", asset.FujiAVAX,
		[]string{"https://api.avax-test.network/ext/bc/C/rpc"},
		[]string{"https://testnet.snowtrace.io"}, true, false),
	newNetwork("BNB Smart Chain Testnet", asset.TestBNB,
		[]string{"https://data-seed-prebsc-1-s1.binance.org:8545"},
		[]string{"https://testnet.bscscan.com"}, true, false),
	newNetwork("Polygon Mumbai", asset.MumbaiMATIC,
		[]string{"https://rpc-mumbai.maticvigil.com"},
		[]string{"https://mumbai.polygonscan.com"}, true, false),
	newNetwork("Goerli", asset.GoerliETH,
		[]string{"https://rpc.ankr.com/eth_goerli"},
		[]string{"https://goerli.etherscan.io"}, true, false),
	newNetwork("Ganache", asset.GanacheETH,
		[]string{"http://127.0.0.1:7545"},
		nil, true, true),
	newNetwork("Sepolia", asset.SepoliaETH,
		[]string{"https://rpc.sepolia.org"},
		[]string{"https://sepolia.etherscan.io"}, true, false),
	newNetwork("Hardhat", asset.HardhatETH,
		[]string{"http://127.0.0.1:8545"},
		nil, true, true),
}

// SupportedNetworks returns the configured network list.
func SupportedNetworks() []Network {
	return append([]Network(nil), supportedNetworks...)
}

// FindNetwork returns the supported network with chainID.
func FindNetwork(chainID uint64) (Network, bool) {
	for _, n := range supportedNetworks {
		if n.ChainID == chainID {
			return n, true
		}
	}
	return Network{}, false
}
