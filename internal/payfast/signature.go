package payfast

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Scheme selects how the canonical signing string is built. The two dialects
// are not interchangeable: the ordered one concatenates a fixed field
// sequence with %20 for spaces, the sorted one takes every payload field
// lexicographically with + for spaces and an optional trailing passphrase.
type Scheme string

const (
	SchemeOrdered Scheme = "ordered"
	SchemeSorted  Scheme = "sorted"
)

var (
	ErrUnknownScheme = errors.New("unknown signing scheme")
	ErrMissingField  = errors.New("missing signature field")
)

// Exact field sequence the ordered scheme signs. The gateway rebuilds the
// same string on its side, so the payload's arrival order is irrelevant.
var orderedFields = []string{
	"merchant_id",
	"merchant_key",
	"return_url",
	"cancel_url",
	"notify_url",
	"name_first",
	"name_last",
	"email_address",
	"m_payment_id",
	"amount",
	"item_name",
	"item_description",
}

type Signer struct {
	scheme     Scheme
	passphrase string
}

func NewSigner(scheme Scheme, passphrase string) (*Signer, error) {
	switch scheme {
	case SchemeOrdered, SchemeSorted:
		return &Signer{scheme: scheme, passphrase: passphrase}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
}

func (s *Signer) Scheme() Scheme { return s.scheme }

// Sign computes the lowercase hex MD5 digest over the canonical string.
// MD5 is what the provider mandates, not a choice this code gets to make.
func (s *Signer) Sign(fields map[string]string) (string, error) {
	base, err := s.canonical(fields)
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(base))
	return hex.EncodeToString(sum[:]), nil
}

// Verify strips the transmitted signature, recomputes, and compares in
// constant time. A payload the scheme cannot even canonicalize (ordered
// scheme with a field missing) is unverified, not an error.
func (s *Signer) Verify(fields map[string]string) bool {
	got := fields["signature"]
	if got == "" {
		return false
	}
	rest := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == "signature" {
			continue
		}
		rest[k] = v
	}
	want, err := s.Sign(rest)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(got))) == 1
}

func (s *Signer) canonical(fields map[string]string) (string, error) {
	var sb strings.Builder
	switch s.scheme {
	case SchemeOrdered:
		for i, k := range orderedFields {
			v, ok := fields[k]
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrMissingField, k)
			}
			if i > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(encodeSpaceHex(v))
		}
	case SchemeSorted:
		keys := make([]string, 0, len(fields))
		for k := range fields {
			if k == "signature" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(encodeSpacePlus(fields[k]))
		}
		if s.passphrase != "" {
			sb.WriteString("&passphrase=")
			sb.WriteString(encodeSpacePlus(s.passphrase))
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScheme, s.scheme)
	}
	return sb.String(), nil
}

// legacy dialect: space must land as %20, never +
func encodeSpaceHex(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

func encodeSpacePlus(v string) string { return url.QueryEscape(v) }
