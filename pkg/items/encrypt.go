package items

import (
	"errors"
	"fmt"
	"strings"

	"insider-hq/relay/pkg/security/crypto"
)

// EncryptSuffix flags a details key for encryption: {"_token": "sk-…",
// "_token@encrypt": true} stores _token as "enc_<base64>".
const EncryptSuffix = "@encrypt"

// ErrEncryptionUnavailable is returned when values must be encrypted but no
// key is configured.
var ErrEncryptionUnavailable = errors.New("encryption requested but no key is configured")

// SealDetails returns a copy of details with every flagged value encrypted
// and the flags removed. Blank values and values already carrying the "enc_"
// prefix are left as they are.
func SealDetails(details map[string]any, enc crypto.Encrypter) (map[string]any, error) {
	if details == nil {
		return nil, nil
	}

	out := make(map[string]any, len(details))
	var flagged []string
	for k, v := range details {
		if field, ok := strings.CutSuffix(k, EncryptSuffix); ok {
			if isSet(v) {
				flagged = append(flagged, field)
			}
			continue
		}
		out[k] = v
	}

	for _, field := range flagged {
		raw, present := out[field]
		if !present {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("field %q is flagged for encryption but is not a string", field)
		}
		if strings.TrimSpace(value) == "" || crypto.IsSealed(value) {
			continue
		}
		if enc == nil {
			return nil, ErrEncryptionUnavailable
		}
		sealed, err := crypto.Seal(enc, value)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt field %q: %w", field, err)
		}
		out[field] = sealed
	}
	return out, nil
}

func isSet(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && !strings.EqualFold(t, "false")
	case nil:
		return false
	default:
		return true
	}
}
