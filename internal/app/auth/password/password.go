package password

import (
	"errors"
	"fmt"
	"strings"

	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/config"
	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher hashes new passwords with the configured algorithm and verifies
// stored hashes of either supported algorithm, detected by prefix.
type Hasher struct {
	algorithm  string
	bcryptCost int
	argon      *argon2id.Params
}

func New(cfg *config.Config) (*Hasher, error) {
	h := &Hasher{
		algorithm:  cfg.PasswordHasher,
		bcryptCost: cfg.BcryptCost,
		argon:      argonParams,
	}
	if h.algorithm == "" {
		h.algorithm = config.HasherBcrypt
	}
	if h.bcryptCost == 0 {
		h.bcryptCost = 10
	}
	if h.bcryptCost < bcrypt.MinCost || h.bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", h.bcryptCost)
	}
	switch h.algorithm {
	case config.HasherBcrypt, config.HasherArgon2id:
	default:
		return nil, fmt.Errorf("unknown hasher %q", h.algorithm)
	}
	return h, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	if h.algorithm == config.HasherArgon2id {
		return argon2id.CreateHash(password, h.argon)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", customErrors.NewInvalidArgument("password must be at most 72 bytes")
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports a mismatch as (false, nil). An error means the stored hash
// itself could not be read.
func (h *Hasher) Verify(password, hash string) (bool, error) {
	if isArgon(hash) {
		return argon2id.ComparePasswordAndHash(password, hash)
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// NeedsRehash is true when the hash was produced by another algorithm or,
// for bcrypt, with another cost.
func (h *Hasher) NeedsRehash(hash string) bool {
	if isArgon(hash) {
		return h.algorithm != config.HasherArgon2id
	}
	if h.algorithm != config.HasherBcrypt {
		return true
	}
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != h.bcryptCost
}

func isArgon(hash string) bool {
	return strings.HasPrefix(hash, "$argon2id$")
}
