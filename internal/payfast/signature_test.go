package payfast

import (
	"errors"
	"strings"
	"testing"
)

func orderedPayload() map[string]string {
	return map[string]string{
		"merchant_id":      "102",
		"merchant_key":     "46f0cd694581a",
		"return_url":       "https://shop.example/return",
		"cancel_url":       "https://shop.example/cancel",
		"notify_url":       "https://shop.example/api/payments/callback",
		"name_first":       "Jane Doe",
		"name_last":        "",
		"email_address":    "jane@example.com",
		"m_payment_id":     "ORD-1",
		"amount":           "1900.00",
		"item_name":        "Event tickets",
		"item_description": "2x VIP (day 1), 3x General (day 2)",
	}
}

func TestOrderedCanonicalString(t *testing.T) {
	s, err := NewSigner(SchemeOrdered, "")
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.canonical(orderedPayload())
	if err != nil {
		t.Fatal(err)
	}
	want := "merchant_id=102" +
		"&merchant_key=46f0cd694581a" +
		"&return_url=https%3A%2F%2Fshop.example%2Freturn" +
		"&cancel_url=https%3A%2F%2Fshop.example%2Fcancel" +
		"&notify_url=https%3A%2F%2Fshop.example%2Fapi%2Fpayments%2Fcallback" +
		"&name_first=Jane%20Doe" +
		"&name_last=" +
		"&email_address=jane%40example.com" +
		"&m_payment_id=ORD-1" +
		"&amount=1900.00" +
		"&item_name=Event%20tickets" +
		"&item_description=2x%20VIP%20%28day%201%29%2C%203x%20General%20%28day%202%29"
	if got != want {
		t.Errorf("canonical mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestSortedCanonicalString(t *testing.T) {
	s, err := NewSigner(SchemeSorted, "jt7NOE43FZPn")
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.canonical(map[string]string{
		"m_payment_id":   "ORD-1",
		"amount":         "100.00",
		"name_first":     "Jane Doe",
		"payment_status": "COMPLETE",
		"signature":      "should-be-ignored",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "amount=100.00&m_payment_id=ORD-1&name_first=Jane+Doe&payment_status=COMPLETE&passphrase=jt7NOE43FZPn"
	if got != want {
		t.Errorf("canonical mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name       string
		scheme     Scheme
		passphrase string
	}{
		{"ordered", SchemeOrdered, ""},
		{"sorted", SchemeSorted, ""},
		{"sorted-passphrase", SchemeSorted, "jt7NOE43FZPn"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewSigner(tc.scheme, tc.passphrase)
			if err != nil {
				t.Fatal(err)
			}
			fields := orderedPayload()
			sig, err := s.Sign(fields)
			if err != nil {
				t.Fatal(err)
			}
			if len(sig) != 32 || strings.ToLower(sig) != sig {
				t.Errorf("signature not lowercase hex md5: %q", sig)
			}
			fields["signature"] = sig
			if !s.Verify(fields) {
				t.Error("verify of freshly signed payload = false")
			}
		})
	}
}

func TestVerifyDetectsTamper(t *testing.T) {
	for _, scheme := range []Scheme{SchemeOrdered, SchemeSorted} {
		s, err := NewSigner(scheme, "")
		if err != nil {
			t.Fatal(err)
		}
		base := orderedPayload()
		sig, err := s.Sign(base)
		if err != nil {
			t.Fatal(err)
		}

		// mutating any single field must break verification
		for k := range base {
			fields := orderedPayload()
			fields[k] = fields[k] + "x"
			fields["signature"] = sig
			if s.Verify(fields) {
				t.Errorf("%s: verify = true after tampering with %s", scheme, k)
			}
		}
	}
}

func TestVerifyMissingOrEmptySignature(t *testing.T) {
	s, _ := NewSigner(SchemeSorted, "")
	fields := map[string]string{"amount": "10.00"}
	if s.Verify(fields) {
		t.Error("verify without signature = true")
	}
	fields["signature"] = ""
	if s.Verify(fields) {
		t.Error("verify with empty signature = true")
	}
}

func TestOrderedMissingFieldFails(t *testing.T) {
	s, _ := NewSigner(SchemeOrdered, "")
	fields := orderedPayload()
	delete(fields, "notify_url")
	if _, err := s.Sign(fields); !errors.Is(err, ErrMissingField) {
		t.Errorf("Sign without notify_url: err = %v, want ErrMissingField", err)
	}

	// same payload is unverifiable, not an error
	fields["signature"] = "deadbeefdeadbeefdeadbeefdeadbeef"
	if s.Verify(fields) {
		t.Error("verify of uncanonicalizable payload = true")
	}
}

func TestSortedPassphraseChangesDigest(t *testing.T) {
	plain, _ := NewSigner(SchemeSorted, "")
	salted, _ := NewSigner(SchemeSorted, "secret phrase")
	fields := map[string]string{"m_payment_id": "ORD-1", "amount": "10.00"}

	a, err := plain.Sign(fields)
	if err != nil {
		t.Fatal(err)
	}
	b, err := salted.Sign(fields)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("passphrase did not change the digest")
	}

	// a signer with the wrong passphrase must reject the salted signature
	fields["signature"] = b
	if plain.Verify(fields) {
		t.Error("unsalted signer verified salted signature")
	}
}

func TestSortedCoversEveryTransmittedField(t *testing.T) {
	s, _ := NewSigner(SchemeSorted, "")
	fields := map[string]string{"m_payment_id": "ORD-1", "amount": "10.00"}
	a, _ := s.Sign(fields)
	fields["custom_str1"] = "promo"
	b, _ := s.Sign(fields)
	if a == b {
		t.Error("sorted scheme must cover every transmitted field")
	}
}

func TestNewSignerUnknownScheme(t *testing.T) {
	if _, err := NewSigner("md5-ish", ""); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("err = %v, want ErrUnknownScheme", err)
	}
}
