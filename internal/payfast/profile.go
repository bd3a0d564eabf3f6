package payfast

import (
	"errors"
	"fmt"
)

// The service has been pointed at two distinct PayFast integrations over its
// life; they disagree on signing scheme and endpoints. Neither supersedes the
// other, so both live here as selectable profiles.
const (
	ProfilePK = "payfast_pk"
	ProfileZA = "payfast_za"

	pkEndpoint = "https://ipg.apps.net.pk/Ecommerce/api/Transaction/PostTransaction"
	pkBaseURL  = "https://ipg.apps.net.pk/Ecommerce/api"
	zaEndpoint = "https://www.payfast.co.za/eng/process"
	zaBaseURL  = "https://api.payfast.co.za"
)

var ErrUnknownProfile = errors.New("unknown gateway profile")

type Profile struct {
	Name        string
	Scheme      Scheme
	Endpoint    string // checkout URL the signed form posts to
	BaseURL     string // API base for token / transaction-status calls
	MerchantID  string
	MerchantKey string
	SecuredKey  string // token API credential (PK integration)
	Passphrase  string // sorted-scheme salt (ZA integration), optional
	ReturnURL   string
	CancelURL   string
	NotifyURL   string
}

// ApplyDefaults fills scheme and endpoints from the profile name, keeping any
// explicit override from configuration.
func ApplyDefaults(p *Profile) error {
	switch p.Name {
	case "", ProfilePK:
		p.Name = ProfilePK
		if p.Scheme == "" {
			p.Scheme = SchemeOrdered
		}
		if p.Endpoint == "" {
			p.Endpoint = pkEndpoint
		}
		if p.BaseURL == "" {
			p.BaseURL = pkBaseURL
		}
	case ProfileZA:
		if p.Scheme == "" {
			p.Scheme = SchemeSorted
		}
		if p.Endpoint == "" {
			p.Endpoint = zaEndpoint
		}
		if p.BaseURL == "" {
			p.BaseURL = zaBaseURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProfile, p.Name)
	}
	return nil
}
