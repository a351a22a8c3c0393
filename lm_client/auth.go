package lm_client

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// GenerateLMv1Token builds the Authorization value for LMv1 request signing:
// HMAC-SHA256 over METHOD + epoch_ms + body + resource_path, base64 encoded,
// emitted as "LMv1 <id>:<signature>:<epoch_ms>". The epoch timestamp is
// captured once and appears both inside the signed string and in the token;
// recomputing it would break verification.
func GenerateLMv1Token(accessID, accessKey, httpMethod, resourcePath, body string) string {
	epochMs := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return buildLMv1Token(accessID, accessKey, httpMethod, resourcePath, body, epochMs)
}

func buildLMv1Token(accessID, accessKey, httpMethod, resourcePath, body, epochMs string) string {
	requestVars := httpMethod + epochMs + body + resourcePath

	mac := hmac.New(sha256.New, []byte(accessKey))
	mac.Write([]byte(requestVars))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("LMv1 %s:%s:%s", accessID, signature, epochMs)
}

// BearerHeader builds the Authorization header for webhook requests.
func BearerHeader(token string) map[string]string {
	return map[string]string{authorizationHeader: "Bearer " + token}
}
