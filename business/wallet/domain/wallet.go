package domain

// WalletName identifies a supported wallet.
type WalletName string

const (
	MetaMask WalletName = "METAMASK"
	Core     WalletName = "CORE"
	Coinbase WalletName = "COINBASE"
	Rabby    WalletName = "RABBY"
)

// WalletDescriptor describes an installed wallet.
type WalletDescriptor struct {
	Name  WalletName `json:"name"`
	Label string     `json:"label"`
}

var knownWallets = map[WalletName]string{
	MetaMask: "MetaMask",
	Core:     "Core",
	Coinbase: "Coinbase Wallet",
	Rabby:    "Rabby",
}

// LookupWallet returns the descriptor of a known wallet.
func LookupWallet(name WalletName) (WalletDescriptor, bool) {
	label, ok := knownWallets[name]
	if !ok {
		return WalletDescriptor{}, false
	}
	return WalletDescriptor{Name: name, Label: label}, true
}
