package asset

// Chain IDs of the networks the wallet session supports.
const (
	ChainIDAvalanche     = 43114
	ChainIDAvalancheFuji = 43113
	ChainIDBSC           = 56
	ChainIDBSCTestnet    = 97
	ChainIDPolygon       = 137
	ChainIDPolygonMumbai = 80001
	ChainIDEthereum      = 1
	ChainIDGoerli        = 5
	ChainIDSepolia       = 11155111
	ChainIDGanache       = 1337
	ChainIDHardhat       = 31337
)

// Native currencies.
var (
	AVAX        = NewNative(ChainIDAvalanche, "AVAX", "Avalanche", 18)
	FujiAVAX    = NewNative(ChainIDAvalancheFuji, "AVAX", "Avalanche Fuji", 18)
	BNB         = NewNative(ChainIDBSC, "BNB", "BNB", 18)
	TestBNB     = NewNative(ChainIDBSCTestnet, "tBNB", "BNB Testnet", 18)
	MATIC       = NewNative(ChainIDPolygon, "MATIC", "Polygon", 18)
	MumbaiMATIC = NewNative(ChainIDPolygonMumbai, "MATIC", "Polygon Mumbai", 18)
	ETH         = NewNative(ChainIDEthereum, "ETH", "Ethereum", 18)
	GoerliETH   = NewNative(ChainIDGoerli, "ETH", "Goerli Ether", 18)
	SepoliaETH  = NewNative(ChainIDSepolia, "ETH", "Sepolia Ether", 18)
	GanacheETH  = NewNative(ChainIDGanache, "ETH", "Ganache Ether", 18)
	HardhatETH  = NewNative(ChainIDHardhat, "ETH", "Hardhat Ether", 18)
)
