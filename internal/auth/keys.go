package auth // package auth implements token issuing and verification for both token families

import (
    "crypto/rsa"
    "crypto/x509"
    "encoding/pem"
    "errors"
    "fmt"
    "os"
)

// Keys bundles the RSA key material for the two token families.  The session
// pair signs and verifies long-lived session tokens; the action pair covers
// short-lived verification/reset tokens.  Keeping the pairs disjoint means a
// token from one family can never validate under the other family's key,
// regardless of what its claims say.
//
// Keys are read from disk exactly once at startup and are immutable
// afterwards, so the struct is safe to share across request goroutines.
type Keys struct {
    SessionPrivate *rsa.PrivateKey
    SessionPublic  *rsa.PublicKey
    ActionPrivate  *rsa.PrivateKey
    ActionPublic   *rsa.PublicKey
}

// LoadKeys reads four PEM files (private/public pair per token family) and
// returns the parsed key material.  Any unreadable or malformed file aborts
// startup; there is no lazy reloading later.
func LoadKeys(sessionPriv, sessionPub, actionPriv, actionPub string) (*Keys, error) {
    sp, err := readPrivateKey(sessionPriv)
    if err != nil {
        return nil, fmt.Errorf("session private key: %w", err)
    }
    spub, err := readPublicKey(sessionPub)
    if err != nil {
        return nil, fmt.Errorf("session public key: %w", err)
    }
    ap, err := readPrivateKey(actionPriv)
    if err != nil {
        return nil, fmt.Errorf("action private key: %w", err)
    }
    apub, err := readPublicKey(actionPub)
    if err != nil {
        return nil, fmt.Errorf("action public key: %w", err)
    }
    return &Keys{
        SessionPrivate: sp,
        SessionPublic:  spub,
        ActionPrivate:  ap,
        ActionPublic:   apub,
    }, nil
}

// readPrivateKey loads an RSA private key from a PEM file.  Both PKCS1 and
// PKCS8 containers are accepted because key generation tooling differs on
// which one it emits.
func readPrivateKey(path string) (*rsa.PrivateKey, error) {
    raw, err := os.ReadFile(path)
    if err != nil {
        return nil, err
    }
    block, _ := pem.Decode(raw)
    if block == nil {
        return nil, errors.New("no PEM block found")
    }
    switch block.Type {
    case "RSA PRIVATE KEY":
        return x509.ParsePKCS1PrivateKey(block.Bytes)
    case "PRIVATE KEY":
        key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
        if err != nil {
            return nil, err
        }
        rk, ok := key.(*rsa.PrivateKey)
        if !ok {
            return nil, errors.New("not an RSA private key")
        }
        return rk, nil
    default:
        return nil, fmt.Errorf("unsupported PEM type %q", block.Type)
    }
}

// readPublicKey loads an RSA public key from a PEM file (PKIX or PKCS1).
func readPublicKey(path string) (*rsa.PublicKey, error) {
    raw, err := os.ReadFile(path)
    if err != nil {
        return nil, err
    }
    block, _ := pem.Decode(raw)
    if block == nil {
        return nil, errors.New("no PEM block found")
    }
    switch block.Type {
    case "PUBLIC KEY":
        key, err := x509.ParsePKIXPublicKey(block.Bytes)
        if err != nil {
            return nil, err
        }
        pk, ok := key.(*rsa.PublicKey)
        if !ok {
            return nil, errors.New("not an RSA public key")
        }
        return pk, nil
    case "RSA PUBLIC KEY":
        return x509.ParsePKCS1PublicKey(block.Bytes)
    default:
        return nil, fmt.Errorf("unsupported PEM type %q", block.Type)
    }
}
