package ethereum

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/spruceid/siwe-go"

	"github.com/fd1az/walletd/internal/apperror"
)

// PrepareSignMessage builds an EIP-4361 sign-in message for the active
// account and current chain. Any previous challenge is discarded.
func (a *Adapter) PrepareSignMessage(ctx context.Context, statement string) (string, error) {
	_, span := a.tracer.StartSpanFromContext(ctx, "wallet.adapter.PrepareSignMessage")
	defer span.End()

	_, acc, _, err := a.active()
	if err != nil {
		return "", err
	}
	if statement == "" {
		statement = a.cfg.SignStatement
	}

	a.mu.Lock()
	chainID := a.loadedChain
	if chainID == 0 {
		chainID = a.chainID
	}
	a.mu.Unlock()

	// siwe nonces are alphanumeric.
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
	msg, err := siwe.InitMessage(a.cfg.SignDomain, acc.Address.Hex(), a.cfg.SignURI, nonce, map[string]interface{}{
		"statement": statement,
		"chainId":   int(chainID),
		"issuedAt":  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		span.NoticeError(err)
		return "", apperror.New(apperror.CodeSignFailed, apperror.WithCause(err), apperror.WithContext("prepare message"))
	}

	text := msg.String()
	a.mu.Lock()
	a.challenge = &challenge{text: text, nonce: nonce, chainID: chainID}
	a.token = ""
	a.mu.Unlock()
	return text, nil
}

// Sign asks the prompter to approve prepared and signs it with the active
// key as an EIP-191 personal message.
func (a *Adapter) Sign(ctx context.Context, prepared string) error {
	ctx, span := a.tracer.StartSpanFromContext(ctx, "wallet.adapter.Sign")
	defer span.End()

	ks, acc, _, err := a.active()
	if err != nil {
		return err
	}

	a.mu.Lock()
	known := a.challenge != nil && a.challenge.text == prepared
	a.mu.Unlock()
	if !known {
		return apperror.New(apperror.CodeSignFailed, apperror.WithContext("unknown challenge"))
	}

	if err := a.prompter.ApproveSign(ctx, acc.Address, prepared); err != nil {
		return promptError(err, apperror.CodeSignRejected, "sign")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sig, err := ks.SignHash(acc, accounts.TextHash([]byte(prepared)))
	if err != nil {
		span.NoticeError(err)
		if errors.Is(err, keystore.ErrLocked) {
			return apperror.New(apperror.CodeWalletLocked, apperror.WithCause(err))
		}
		return apperror.New(apperror.CodeSignFailed, apperror.WithCause(err))
	}
	sig[crypto.RecoveryIDOffset] += 27

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.challenge == nil || a.challenge.text != prepared {
		return apperror.New(apperror.CodeSignFailed, apperror.WithContext("challenge replaced"))
	}
	a.challenge.signature = hexutil.Encode(sig)
	return nil
}

// IsSigned verifies the stored signature against the challenge and, on
// success, issues an access token for the account.
func (a *Adapter) IsSigned(ctx context.Context) (bool, error) {
	_, span := a.tracer.StartSpanFromContext(ctx, "wallet.adapter.IsSigned")
	defer span.End()

	_, acc, _, err := a.active()
	if err != nil {
		return false, err
	}

	a.mu.Lock()
	ch := a.challenge
	a.mu.Unlock()
	if ch == nil || ch.signature == "" {
		return false, nil
	}

	msg, err := siwe.ParseMessage(ch.text)
	if err != nil {
		return false, apperror.New(apperror.CodeSignatureInvalid, apperror.WithCause(err))
	}
	if msg.GetNonce() != ch.nonce {
		return false, nil
	}
	pub, err := msg.VerifyEIP191(ch.signature)
	if err != nil {
		span.NoticeError(err)
		return false, nil
	}
	if crypto.PubkeyToAddress(*pub) != acc.Address {
		return false, nil
	}

	var token string
	if a.tokens != nil {
		token, err = a.tokens.Issue(acc.Address, ch.chainID, ch.nonce)
		if err != nil {
			return false, err
		}
	}

	a.mu.Lock()
	if a.challenge == ch {
		a.token = token
	}
	a.mu.Unlock()
	return true, nil
}
