package security

import (
	"fmt"
	"log"

	"github.com/desafio-logico/desafio/internal/domain"
	"github.com/desafio-logico/desafio/internal/infra/metrics"
	"github.com/desafio-logico/desafio/internal/infra/sqlite"
)

// TierFallback holds "secure" data unencrypted when the cipher cannot be
// initialized. It is kept apart from the sealed tier so the two never mix.
const TierFallback = "secure_fallback"

// StoreOptions configures the encrypted tier.
type StoreOptions struct {
	Home       string // key material lives in Home/keys
	Passphrase string // optional; argon2id-derived key instead of a key file
	Disabled   bool   // skip encryption entirely
}

// OpenSecureStore returns the encrypted-at-rest preference tier.
// If the data key or cipher cannot be set up, it logs the cause and returns
// an unencrypted fallback tier instead; fellBack reports which one it is.
// Callers never see the failure, matching how the core treats storage.
func OpenSecureStore(db *sqlite.DB, opts StoreOptions) (store domain.KeyValueStore, fellBack bool) {
	if opts.Disabled {
		return db.Tier(TierFallback), true
	}

	c, err := newStoreCipher(opts)
	if err == nil {
		err = selfTest(c)
	}
	if err != nil {
		log.Printf("[security] encrypted storage unavailable, using fallback tier: %v", err)
		metrics.SecureStoreFallbacks.Inc()
		return db.Tier(TierFallback), true
	}

	return db.SealedTier(sqlite.TierSecure, c), false
}

func newStoreCipher(opts StoreOptions) (*Cipher, error) {
	var (
		key []byte
		err error
	)
	if opts.Passphrase != "" {
		key, err = DeriveDataKey(opts.Home, opts.Passphrase)
	} else {
		key, err = LoadOrCreateDataKey(opts.Home)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCipherUnavailable, err)
	}
	return NewCipher(key)
}

// selfTest proves the cipher round-trips before any user data goes through it.
func selfTest(c *Cipher) error {
	sealed, err := c.Seal("selftest", "ok")
	if err != nil {
		return fmt.Errorf("%w: seal: %v", domain.ErrCipherUnavailable, err)
	}
	plain, err := c.Open("selftest", sealed)
	if err != nil || plain != "ok" {
		return fmt.Errorf("%w: round trip failed", domain.ErrCipherUnavailable)
	}
	return nil
}
