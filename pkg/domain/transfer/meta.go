package transfer

import (
	"encoding/json"
	"fmt"

	"github.com/solventhq/walletcore/pkg/domain/wallet"
)

// Method identifies how the transfer was initiated. It selects both the
// default balance buckets and the extension payload variant.
type Method string

// Transfer methods
const (
	MethodStandard        Method = "standard"
	MethodBonusConversion Method = "bonus_conversion"
	MethodCardPayment     Method = "card_payment"
)

// IsValid reports whether the method is known.
func (m Method) IsValid() bool {
	switch m {
	case MethodStandard, MethodBonusConversion, MethodCardPayment:
		return true
	}
	return false
}

// DefaultBalanceTypes returns the source and destination buckets implied by
// the method when the caller does not name them explicitly.
func (m Method) DefaultBalanceTypes() (from, to wallet.BalanceType) {
	if m == MethodBonusConversion {
		return wallet.BalanceBonus, wallet.BalanceReal
	}
	return wallet.BalanceReal, wallet.BalanceReal
}

// Extension is the closed set of method-specific meta payloads. Exactly one
// variant exists per method that carries extra data; free-form data goes
// through Opaque.
type Extension interface {
	extensionKind() string
}

// BonusConversion is the extension payload for bonus-to-real conversions.
type BonusConversion struct {
	CampaignID     string `json:"campaignId"`
	WagerRequired  int64  `json:"wagerRequired,omitempty"`
	WagerCompleted int64  `json:"wagerCompleted,omitempty"`
}

func (BonusConversion) extensionKind() string { return "bonus_conversion" }

// CardPayment is the extension payload for card-funded transfers.
type CardPayment struct {
	CardLast4 string `json:"cardLast4"`
	AuthCode  string `json:"authCode,omitempty"`
	Acquirer  string `json:"acquirer,omitempty"`
}

func (CardPayment) extensionKind() string { return "card_payment" }

// Opaque is the escape hatch for genuinely free-form downstream data.
type Opaque struct {
	Raw json.RawMessage `json:"raw"`
}

func (Opaque) extensionKind() string { return "opaque" }

type extensionEnvelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalExtension serializes an extension with its kind tag. A nil
// extension serializes to null.
func MarshalExtension(e Extension) ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(extensionEnvelope{Kind: e.extensionKind(), Payload: payload})
}

// UnmarshalExtension deserializes a tagged extension payload.
func UnmarshalExtension(data []byte) (Extension, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env extensionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case "bonus_conversion":
		var e BonusConversion
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case "card_payment":
		var e CardPayment
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case "opaque":
		var e Opaque
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("unknown meta extension kind %q", env.Kind)
}

// MarshalJSON implements json.Marshaler for the tagged union.
func (m Meta) MarshalJSON() ([]byte, error) {
	type alias Meta
	ext, err := MarshalExtension(m.Extension)
	if err != nil {
		return nil, err
	}
	aux := struct {
		alias
		Extension json.RawMessage `json:"extension,omitempty"`
	}{alias: alias(m)}
	if string(ext) != "null" {
		aux.Extension = ext
	}
	aux.alias.Extension = nil
	return json.Marshal(aux)
}

// UnmarshalJSON implements json.Unmarshaler for the tagged union.
func (m *Meta) UnmarshalJSON(data []byte) error {
	type alias Meta
	aux := struct {
		*alias
		Extension json.RawMessage `json:"extension"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ext, err := UnmarshalExtension(aux.Extension)
	if err != nil {
		return err
	}
	m.Extension = ext
	return nil
}
