package keystore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
)

// MaxSetSize is the largest key set document read from a file or URL.
const MaxSetSize = 1 << 20

// FetchSet fetches a JWK set from the given URL and HTTP client. A nil
// client means http.DefaultClient.
func FetchSet(ctx context.Context, url string, client *http.Client) (jwk.KeySet, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return jwk.KeySet{}, fmt.Errorf("failed to create JWK set request: %w", err)
	}
	req.Header.Set("Accept", "application/jwk-set+json, application/json")

	resp, err := client.Do(req)
	if err != nil {
		return jwk.KeySet{}, fmt.Errorf("failed to fetch JWK set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return jwk.KeySet{}, fmt.Errorf("failed to fetch JWK set: %s", resp.Status)
	}

	return ReadSet(resp.Body)
}

// LoadFile reads a JWK set from the file at path.
func LoadFile(path string) (jwk.KeySet, error) {
	f, err := os.Open(path)
	if err != nil {
		return jwk.KeySet{}, fmt.Errorf("failed to open JWK set: %w", err)
	}
	defer f.Close()

	return ReadSet(f)
}

// ReadSet decodes and validates a JWK set read from r.
func ReadSet(r io.Reader) (jwk.KeySet, error) {
	var set jwk.KeySet
	err := json.NewDecoder(io.LimitReader(r, MaxSetSize)).Decode(&set)
	if err != nil {
		return jwk.KeySet{}, fmt.Errorf("failed to decode JWK set: %w", err)
	}

	err = set.Validate()
	if err != nil {
		return jwk.KeySet{}, fmt.Errorf("failed to validate JWK set: %w", err)
	}

	return set, nil
}
