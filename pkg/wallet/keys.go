package wallet

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// ExtendedKeyLength is the size of kL || kR || chain code.
	ExtendedKeyLength = 96
	// RootKeyHrp is the bech32 prefix of encoded root keys.
	RootKeyHrp = "xprv"

	pbkdf2Iterations = 4096
)

// PrivateKey is a BIP32-Ed25519 extended private key.
type PrivateKey struct {
	kL        [32]byte
	kR        [32]byte
	chainCode [32]byte
}

// PublicKey is an ed25519 public key.
type PublicKey []byte

// Hash returns the blake2b-224 hash of the key.
func (p PublicKey) Hash() []byte {
	return ledger.HashKey(p)
}

// Verify reports whether sig is a valid signature of msg by p.
func (p PublicKey) Verify(msg, sig []byte) bool {
	if len(p) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p), msg, sig)
}

// NewRootKeyFromEntropy derives the Icarus master key from bip39 entropy.
func NewRootKeyFromEntropy(entropy, passphrase []byte) *PrivateKey {
	data := pbkdf2.Key(
		passphrase, entropy, pbkdf2Iterations, ExtendedKeyLength, sha512.New,
	)
	data[0] &= 0xf8
	data[31] &= 0x1f
	data[31] |= 0x40

	key, _ := NewPrivateKeyFromBytes(data)
	return key
}

// NewPrivateKeyFromBytes parses a 96-byte extended private key.
func NewPrivateKeyFromBytes(buf []byte) (*PrivateKey, error) {
	if len(buf) != ExtendedKeyLength {
		return nil, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidRootKey, ExtendedKeyLength, len(buf),
		)
	}
	key := &PrivateKey{}
	copy(key.kL[:], buf[:32])
	copy(key.kR[:], buf[32:64])
	copy(key.chainCode[:], buf[64:])
	return key, nil
}

// ParseRootKeyBech32 decodes a bech32 xprv root key.
func ParseRootKeyBech32(s string) (*PrivateKey, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRootKey, err)
	}
	if hrp != RootKeyHrp {
		return nil, fmt.Errorf("%w: unexpected prefix %s", ErrInvalidRootKey, hrp)
	}
	buf, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRootKey, err)
	}
	return NewPrivateKeyFromBytes(buf)
}

// Bytes returns kL || kR || chain code.
func (k *PrivateKey) Bytes() []byte {
	buf := make([]byte, 0, ExtendedKeyLength)
	buf = append(buf, k.kL[:]...)
	buf = append(buf, k.kR[:]...)
	return append(buf, k.chainCode[:]...)
}

// Bech32 encodes the key with the xprv prefix.
func (k *PrivateKey) Bech32() (string, error) {
	conv, err := bech32.ConvertBits(k.Bytes(), 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(RootKeyHrp, conv)
}

func (k *PrivateKey) scalar() *edwards25519.Scalar {
	var wide [64]byte
	copy(wide[:], k.kL[:])
	s, _ := edwards25519.NewScalar().SetUniformBytes(wide[:])
	return s
}

// PublicKey returns kL·B.
func (k *PrivateKey) PublicKey() PublicKey {
	p := new(edwards25519.Point).ScalarBaseMult(k.scalar())
	return PublicKey(p.Bytes())
}

// Derive returns the child key at the given index. Indexes from
// HardenedKeyStart on are hardened.
func (k *PrivateKey) Derive(index uint32) *PrivateKey {
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], index)

	zMac := hmac.New(sha512.New, k.chainCode[:])
	iMac := hmac.New(sha512.New, k.chainCode[:])
	if index >= HardenedKeyStart {
		zMac.Write([]byte{0x00})
		zMac.Write(k.kL[:])
		zMac.Write(k.kR[:])
		iMac.Write([]byte{0x01})
		iMac.Write(k.kL[:])
		iMac.Write(k.kR[:])
	} else {
		pub := k.PublicKey()
		zMac.Write([]byte{0x02})
		zMac.Write(pub)
		iMac.Write([]byte{0x03})
		iMac.Write(pub)
	}
	zMac.Write(idx[:])
	iMac.Write(idx[:])
	z := zMac.Sum(nil)
	i := iMac.Sum(nil)

	child := &PrivateKey{}
	// kL' = 8*zL[:28] + kL
	var carry uint16
	for j := 0; j < 32; j++ {
		var zl8 uint16
		if j < 28 {
			zl8 = uint16(z[j]) << 3
		}
		if j > 0 && j <= 28 {
			zl8 |= uint16(z[j-1]) >> 5
		}
		sum := uint16(k.kL[j]) + (zl8 & 0xff) + carry
		child.kL[j] = byte(sum)
		carry = sum >> 8
	}
	// kR' = zR + kR mod 2^256
	carry = 0
	for j := 0; j < 32; j++ {
		sum := uint16(k.kR[j]) + uint16(z[32+j]) + carry
		child.kR[j] = byte(sum)
		carry = sum >> 8
	}
	copy(child.chainCode[:], i[32:])
	return child
}

// DerivePath derives the key at the given path relative to k.
func (k *PrivateKey) DerivePath(path DerivationPath) *PrivateKey {
	key := k
	for _, index := range path {
		key = key.Derive(index)
	}
	return key
}

// Sign produces an ed25519 signature of msg using the extended key.
func (k *PrivateKey) Sign(msg []byte) []byte {
	pub := k.PublicKey()

	h := sha512.New()
	h.Write(k.kR[:])
	h.Write(msg)
	r, _ := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	R := new(edwards25519.Point).ScalarBaseMult(r).Bytes()

	h.Reset()
	h.Write(R)
	h.Write(pub)
	h.Write(msg)
	c, _ := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))

	s := edwards25519.NewScalar().MultiplyAdd(c, k.scalar(), r)

	sig := make([]byte, 0, ed25519.SignatureSize)
	sig = append(sig, R...)
	return append(sig, s.Bytes()...)
}
