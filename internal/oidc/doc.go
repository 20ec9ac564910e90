/*
Package oidc provides OIDC (OpenID Connect) discovery functionality.

It fetches the .well-known/openid-configuration document from an issuer so
that the JWKS location does not have to be configured by hand.

# OIDC Discovery

OIDC providers expose a discovery document at a well-known URL:

	https://issuer.example.com/.well-known/openid-configuration

Only two fields are read:
  - issuer: must equal the issuer URL that was queried
  - jwks_uri: URL to fetch JSON Web Keys

# Usage

	issuerURL, _ := url.Parse("https://accounts.google.com")
	client := &http.Client{Timeout: 10 * time.Second}

	jwksURI, err := oidc.DiscoverJWKSURI(ctx, client, issuerURL)
	if err != nil {
	    // network failure, non-200 status, invalid JSON,
	    // missing fields or issuer mismatch
	}

# Specification

This package implements OIDC Discovery as defined in:
OpenID Connect Discovery 1.0
https://openid.net/specs/openid-connect-discovery-1_0.html
*/
package oidc
