package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/bistro/internal/domain/order"
)

// Identity headers set by the upstream identity provider.
const (
	HeaderCustomerName  = "X-Customer-Name"
	HeaderCustomerPhone = "X-Customer-Phone"
	HeaderCustomerEmail = "X-Customer-Email"
	HeaderAdminKey      = "X-Admin-Key"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves the caller of a request. Admin keys are verified by
// comparing HMAC-SHA256(pepper, key) with a configured hash in constant time.
type Authenticator struct {
	adminHash []byte
	pepper    []byte
}

// NewAuthenticator creates an Authenticator. adminKeyHash is the hex encoded
// HMAC of the admin key; when empty, admin access is disabled.
func NewAuthenticator(adminKeyHash string, pepper []byte) (*Authenticator, error) {
	a := &Authenticator{pepper: pepper}
	if adminKeyHash == "" {
		return a, nil
	}
	hash, err := hex.DecodeString(adminKeyHash)
	if err != nil {
		return nil, errors.Wrap(err, "decode admin key hash")
	}
	if len(hash) != sha256.Size {
		return nil, errors.Errorf("admin key hash must be %d bytes, got %d", sha256.Size, len(hash))
	}
	a.adminHash = hash
	return a, nil
}

// HashKey returns the hex encoded HMAC-SHA256 of key, the format expected
// by NewAuthenticator.
func HashKey(key string, pepper []byte) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *Authenticator) verify(key string) bool {
	if len(a.adminHash) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, a.pepper)
	mac.Write([]byte(key))
	return subtle.ConstantTimeCompare(mac.Sum(nil), a.adminHash) == 1
}

// Identify returns the actor of r. A request with an admin key is an admin,
// or unauthenticated if the key is wrong. Otherwise the customer email
// header is required.
func (a *Authenticator) Identify(r *http.Request) (order.Actor, error) {
	c := order.Customer{
		Name:  strings.TrimSpace(r.Header.Get(HeaderCustomerName)),
		Phone: strings.TrimSpace(r.Header.Get(HeaderCustomerPhone)),
		Email: strings.TrimSpace(r.Header.Get(HeaderCustomerEmail)),
	}
	if key := r.Header.Get(HeaderAdminKey); key != "" {
		if !a.verify(key) {
			return order.Actor{}, ErrUnauthenticated
		}
		return order.Actor{Role: order.RoleAdmin, Customer: c}, nil
	}
	if c.Key() == "" {
		return order.Actor{}, ErrUnauthenticated
	}
	if c.Name == "" {
		c.Name = c.Email
	}
	return order.CustomerActor(c), nil
}
