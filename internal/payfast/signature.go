package payfast

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// componentUnescape restores the characters encodeURIComponent leaves bare
// but url.QueryEscape escapes. Every "%" in QueryEscape output opens an
// escape triple, so these patterns only ever match an escaped byte.
var componentUnescape = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeValue percent-encodes v the way the gateway's reference client does:
// encodeURIComponent (A-Z a-z 0-9 and -_.!~*'() kept, uppercase hex) with
// spaces written as "+".
func encodeValue(v string) string {
	return componentUnescape.Replace(url.QueryEscape(v))
}

// Canonicalize renders params as the gateway expects them before hashing:
// keys with empty values dropped, the rest sorted, key=value pairs encoded
// with encodeValue and joined by "&". A non-empty passphrase is appended last.
// Values are used verbatim; callers post exactly what they sign.
func Canonicalize(params map[string]string, passphrase string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(encodeValue(params[k]))
	}
	if passphrase != "" {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString("passphrase=")
		b.WriteString(encodeValue(passphrase))
	}
	return b.String()
}

// Sign returns the lowercase hex MD5 of the canonical parameter string.
// MD5 is what the gateway computes; it is a compatibility requirement.
func Sign(params map[string]string, passphrase string) string {
	sum := md5.Sum([]byte(Canonicalize(params, passphrase)))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the signature over every field except "signature" and
// compares it with the received one.
func Verify(params map[string]string, passphrase string) bool {
	received := strings.ToLower(strings.TrimSpace(params["signature"]))
	if received == "" {
		return false
	}
	rest := make(map[string]string, len(params))
	for k, v := range params {
		if k != "signature" {
			rest[k] = v
		}
	}
	return subtle.ConstantTimeCompare([]byte(Sign(rest, passphrase)), []byte(received)) == 1
}
