package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"
	"golang.org/x/crypto/twofish"
	"golang.org/x/crypto/xtea"
)

// Algorithm names a registered block cipher
type Algorithm string

const (
	AlgAES128   Algorithm = "aes128"
	AlgAES192   Algorithm = "aes192"
	AlgAES256   Algorithm = "aes256"
	AlgBlowfish Algorithm = "blowfish"
	AlgCAST5    Algorithm = "cast5"
	AlgTwofish  Algorithm = "twofish"
	AlgXTEA     Algorithm = "xtea"
	AlgAESCTR   Algorithm = "aesctr"
	AlgChaCha20 Algorithm = "chacha20"
	AlgRC4MD5   Algorithm = "rc4md5"

	// DefaultAlgorithm is used when no algorithm is named
	DefaultAlgorithm = AlgAES128
)

// CipherFactory creates a new cipher instance
type CipherFactory func() FullCipher

// registry holds registered cipher factories
var (
	registryMu sync.RWMutex
	registry   = make(map[Algorithm]CipherFactory)
)

func init() {
	registerCFB(AlgAES128, 16, aes.BlockSize, aes.NewCipher)
	registerCFB(AlgAES192, 24, aes.BlockSize, aes.NewCipher)
	registerCFB(AlgAES256, 32, aes.BlockSize, aes.NewCipher)
	registerCFB(AlgBlowfish, 32, blowfish.BlockSize, func(key []byte) (cipher.Block, error) {
		c, err := blowfish.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
	registerCFB(AlgCAST5, cast5.KeySize, cast5.BlockSize, func(key []byte) (cipher.Block, error) {
		c, err := cast5.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
	registerCFB(AlgTwofish, 32, twofish.BlockSize, func(key []byte) (cipher.Block, error) {
		c, err := twofish.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
	registerCFB(AlgXTEA, 16, xtea.BlockSize, func(key []byte) (cipher.Block, error) {
		c, err := xtea.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
	Register(AlgAESCTR, func() FullCipher { return NewAESCTR() })
	Register(AlgChaCha20, func() FullCipher { return NewChaCha20() })
	Register(AlgRC4MD5, func() FullCipher { return NewRC4MD5() })
}

func registerCFB(alg Algorithm, keySize, blockSize int, newBlock BlockFactory) {
	Register(alg, func() FullCipher {
		return NewCFB(string(alg), keySize, blockSize, newBlock)
	})
}

// Register adds a cipher factory to the registry
func Register(alg Algorithm, factory CipherFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[alg] = factory
}

// NewBlockCipher creates a cipher using the registry
func NewBlockCipher(alg Algorithm) (FullCipher, error) {
	if alg == "" {
		alg = DefaultAlgorithm
	}

	registryMu.RLock()
	factory, ok := registry[alg]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported algorithm: %s", alg)
	}
	return factory(), nil
}

// ListRegistered returns all registered algorithms, sorted by name
func ListRegistered() []Algorithm {
	registryMu.RLock()
	defer registryMu.RUnlock()

	algs := make([]Algorithm, 0, len(registry))
	for a := range registry {
		algs = append(algs, a)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
	return algs
}

// IsRegistered checks if an algorithm is registered
func IsRegistered(alg Algorithm) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[alg]
	return ok
}
