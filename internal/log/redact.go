package log

import (
	"net/url"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"password":            true,
	"passwd":              true,
	"secret":              true,
	"token":               true,
	"api_key":             true,
	"apikey":              true,
	"api-key":             true,
	"access_token":        true,
	"refresh_token":       true,
	"session":             true,
	"session_id":          true,
	"sessionid":           true,
	"sid":                 true,
	"jsessionid":          true,
	"credential":          true,
	"credentials":         true,
	"auth":                true,
}

// sensitiveKeywords mask any key that contains them. A bare "key" is not
// in the list: it matches far too many harmless names.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "private",
}

// sensitiveQueryParams are URL query parameters whose values are masked.
var sensitiveQueryParams = map[string]bool{
	"token":        true,
	"access_token": true,
	"api_key":      true,
	"apikey":       true,
	"key":          true,
	"password":     true,
	"passwd":       true,
	"secret":       true,
	"sig":          true,
	"signature":    true,
	"session":      true,
	"sid":          true,
	"auth":         true,
}

// sensitivePatterns mask a value regardless of its key.
var sensitivePatterns = []*regexp.Regexp{
	// JWT
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// isSensitiveKey reports whether values under key must be masked.
func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if sensitiveKeys[key] {
		return true
	}
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue reports whether value looks like a secret.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// redactURL masks the password of the userinfo and the values of sensitive
// query parameters in an http(s) URL. Other strings are returned unchanged.
// The parameter order of the query is kept.
func redactURL(value string) string {
	lower := strings.ToLower(value)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return value
	}
	u, err := url.Parse(value)
	if err != nil {
		return value
	}

	changed := false
	userinfo := ""
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			// Written by hand: url.URL.String would percent-encode the mask.
			userinfo = url.User(u.User.Username()).String() + ":" + MaskValue + "@"
			u.User = nil
			changed = true
		}
	}
	if u.RawQuery != "" {
		parts := strings.Split(u.RawQuery, "&")
		for i, part := range parts {
			name, _, hasValue := strings.Cut(part, "=")
			if !hasValue {
				continue
			}
			decoded, err := url.QueryUnescape(name)
			if err != nil {
				decoded = name
			}
			if sensitiveQueryParams[strings.ToLower(decoded)] {
				parts[i] = name + "=" + MaskValue
				changed = true
			}
		}
		u.RawQuery = strings.Join(parts, "&")
	}

	if !changed {
		return value
	}
	if userinfo == "" {
		return u.String()
	}
	prefix := u.Scheme + "://"
	return prefix + userinfo + strings.TrimPrefix(u.String(), prefix)
}
