package cloud

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// hmacSHA1Hex computes the hex HMAC-SHA1 of msg.
func hmacSHA1Hex(key, msg string) string {
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

// hmacSHA256 computes the raw HMAC-SHA256 of msg.
func hmacSHA256(key []byte, msg string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}

// sha256Hex computes the hex SHA-256 digest of data.
func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// cosAuthorization builds the object-storage request signature for one
// PUT/GET. The key-time window is valid from now until now+expiry.
func cosAuthorization(secretID, secretKey, method, objectKey string, headers map[string]string, now time.Time, expiry time.Duration) string {
	keyTime := fmt.Sprintf("%d;%d", now.Unix(), now.Add(expiry).Unix())
	signKey := hmacSHA1Hex(secretKey, keyTime)

	names := make([]string, 0, len(headers))
	pairs := make([]string, 0, len(headers))
	for _, name := range sortedKeys(headers) {
		lower := strings.ToLower(name)
		names = append(names, lower)
		pairs = append(pairs, lower+"="+urlEncode(headers[name]))
	}
	headerList := strings.Join(names, ";")
	headerString := strings.Join(pairs, "&")

	httpString := fmt.Sprintf("%s\n/%s\n\n%s\n", strings.ToLower(method), objectKey, headerString)
	stringToSign := fmt.Sprintf("sha1\n%s\n%s\n", keyTime, sha1Hex(httpString))
	signature := hmacSHA1Hex(signKey, stringToSign)

	return strings.Join([]string{
		"q-sign-algorithm=sha1",
		"q-ak=" + secretID,
		"q-sign-time=" + keyTime,
		"q-key-time=" + keyTime,
		"q-header-list=" + headerList,
		"q-url-param-list=",
		"q-signature=" + signature,
	}, "&")
}

// tc3Authorization builds the TC3-HMAC-SHA256 header for one API call.
func tc3Authorization(secretID, secretKey, service, host, action string, payload []byte, now time.Time) string {
	date := now.UTC().Format("2006-01-02")

	canonicalHeaders := fmt.Sprintf("content-type:application/json\nhost:%s\nx-tc-action:%s\n",
		host, strings.ToLower(action))
	signedHeaders := "content-type;host;x-tc-action"
	canonicalRequest := strings.Join([]string{
		"POST", "/", "", canonicalHeaders, signedHeaders, sha256Hex(payload),
	}, "\n")

	scope := fmt.Sprintf("%s/%s/tc3_request", date, service)
	stringToSign := strings.Join([]string{
		"TC3-HMAC-SHA256",
		fmt.Sprintf("%d", now.Unix()),
		scope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	secretDate := hmacSHA256([]byte("TC3"+secretKey), date)
	secretService := hmacSHA256(secretDate, service)
	secretSigning := hmacSHA256(secretService, "tc3_request")
	signature := hex.EncodeToString(hmacSHA256(secretSigning, stringToSign))

	return fmt.Sprintf("TC3-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		secretID, scope, signedHeaders, signature)
}

// sha1Hex computes the hex SHA-1 digest of a string.
func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// sortedKeys returns map keys in ascending order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// urlEncode percent-encodes a header value for the signature string.
func urlEncode(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
