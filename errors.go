package rfq

import "errors"

// Standard rfq error definitions

var (
	// ErrInvalidParameter indicates a zero minimum price or minimum bid size
	// at offer creation, or an otherwise malformed argument.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnauthorized indicates the caller is not the offer's seller.
	ErrUnauthorized = errors.New("caller is not the offer seller")

	// ErrOfferNotFound indicates the referenced offer does not exist.
	ErrOfferNotFound = errors.New("offer not found")

	// ErrInconsistentOffer indicates the bid does not match the offer it
	// references (wrong tokens, wrong offer id, or bid below minimum size).
	ErrInconsistentOffer = errors.New("bid inconsistent with offer")

	// ErrInvalidDelegate indicates the bid's signer is neither the bidder nor
	// the bidder's registered delegate.
	ErrInvalidDelegate = errors.New("signer not delegated by bidder")

	// ErrInvalidSignature indicates a malformed signature or a recovered
	// signer that does not match the claimed signer.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrTransferFailed indicates a settlement transfer leg failed.
	ErrTransferFailed = errors.New("token transfer failed")

	// ErrInvalidKey indicates a missing or malformed signing key.
	ErrInvalidKey = errors.New("invalid private key")

	// ErrInvalidKeystore indicates an unreadable or undecryptable keystore file.
	ErrInvalidKeystore = errors.New("invalid keystore")

	// ErrInvalidMnemonic indicates an invalid BIP-39 mnemonic phrase.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
)
