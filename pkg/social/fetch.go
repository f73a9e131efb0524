package social

import (
	"context"
	"encoding/json"
	"net/http"
)

// fetchBearerJSON performs one authenticated GET against a profile
// endpoint and decodes the JSON body. A bad status and an unparsable body
// are distinct ProfileFetchError causes; neither is ever retried here,
// since a transient blip and an expired token look identical from this
// side.
func fetchBearerJSON(ctx context.Context, client *http.Client, provider, url, accessToken string) (RawProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ProfileFetchError{Provider: provider, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ProfileFetchError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	return decodeProfile(provider, resp)
}

// decodeProfile turns an HTTP response from a profile endpoint into a
// RawProfile, enforcing the non-200 and malformed-body rules. Numbers are
// kept as json.Number: Twitter user IDs exceed 2^53 and would lose digits
// as float64.
func decodeProfile(provider string, resp *http.Response) (RawProfile, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, &ProfileFetchError{Provider: provider, StatusCode: resp.StatusCode}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var raw RawProfile
	if err := dec.Decode(&raw); err != nil {
		return nil, &ProfileFetchError{Provider: provider, Malformed: true, Err: err}
	}
	return raw, nil
}
