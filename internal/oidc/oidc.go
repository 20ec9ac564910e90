package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
)

// maxMetadataBytes caps the discovery document size.
const maxMetadataBytes = 1 * 1024 * 1024

// WellKnownEndpoints holds the well known OIDC endpoints
type WellKnownEndpoints struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// GetWellKnownEndpointsFromIssuerURL gets the well known endpoints for the
// passed in issuer url. The issuer in the returned metadata must equal
// expectedIssuer exactly.
func GetWellKnownEndpointsFromIssuerURL(
	ctx context.Context,
	client *http.Client,
	issuerURL url.URL,
	expectedIssuer string,
) (*WellKnownEndpoints, error) {
	issuerURL.Path = path.Join(issuerURL.Path, ".well-known/openid-configuration")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuerURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request to get well-known endpoints: %w", err)
	}

	r, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch well-known endpoints from url %s: %w", issuerURL.String(), err)
	}
	defer r.Body.Close()

	if r.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("could not fetch well-known endpoints from url %s: status %d", issuerURL.String(), r.StatusCode)
	}

	var wkEndpoints WellKnownEndpoints
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMetadataBytes)).Decode(&wkEndpoints); err != nil {
		return nil, fmt.Errorf("failed to decode JSON body of well-known endpoints: %w", err)
	}

	if wkEndpoints.Issuer == "" {
		return nil, fmt.Errorf("discovery metadata is missing required 'issuer' field")
	}
	if wkEndpoints.JWKSURI == "" {
		return nil, fmt.Errorf("discovery metadata is missing required 'jwks_uri' field")
	}
	if wkEndpoints.Issuer != expectedIssuer {
		return nil, fmt.Errorf("issuer mismatch: metadata has %q, expected %q", wkEndpoints.Issuer, expectedIssuer)
	}

	return &wkEndpoints, nil
}

// DiscoverJWKSURI resolves the key set location advertised by issuerURL.
func DiscoverJWKSURI(ctx context.Context, client *http.Client, issuerURL *url.URL) (*url.URL, error) {
	wkEndpoints, err := GetWellKnownEndpointsFromIssuerURL(ctx, client, *issuerURL, issuerURL.String())
	if err != nil {
		return nil, err
	}

	jwksURI, err := url.Parse(wkEndpoints.JWKSURI)
	if err != nil {
		return nil, fmt.Errorf("could not parse JWKS URI from well known endpoints: %w", err)
	}
	return jwksURI, nil
}
