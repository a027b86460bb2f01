package auth

import (
	"net/url"
	"strings"
)

const (
	LoginPath    = "/admin/login"
	AdminHome    = "/admin"
	PublicHome   = "/"
	callbackKey  = "callbackUrl"
	loginFailure = "CredentialsSignin"
)

// SafeCallback returns raw when it is a same-site relative path and fallback
// otherwise, so redirects can never leave the site.
func SafeCallback(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return raw
}

// LoginURL is the login page remembering where to go afterwards
func LoginURL(callback string) string {
	return LoginPath + "?" + url.Values{callbackKey: {callback}}.Encode()
}

// LoginErrorURL sends the user back to the login page after a failed attempt
func LoginErrorURL(callback string) string {
	return LoginPath + "?" + url.Values{"error": {loginFailure}, callbackKey: {callback}}.Encode()
}
