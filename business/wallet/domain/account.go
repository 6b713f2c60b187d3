package domain

import "github.com/ethereum/go-ethereum/common"

// Account is the loaded wallet account. DomainName and AvatarURL are filled
// asynchronously after authentication.
type Account struct {
	Address      common.Address `json:"address"`
	ShortAddress string         `json:"shortAddress"`
	DomainName   string         `json:"domainName,omitempty"`
	AvatarURL    string         `json:"avatarUrl,omitempty"`
	AccessToken  string         `json:"accessToken,omitempty"`
}

// NewAccount builds an Account for addr.
func NewAccount(addr common.Address) Account {
	return Account{
		Address:      addr,
		ShortAddress: ShortAddress(addr.Hex()),
	}
}

// ShortAddress abbreviates an address to its first 6 and last 4 characters.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
