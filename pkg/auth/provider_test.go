package auth

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviderName(t *testing.T) {
	tests := []struct {
		in      string
		want    ProviderName
		wantErr bool
	}{
		{"google", Google, false},
		{"GitHub", GitHub, false},
		{" LINKEDIN ", LinkedIn, false},
		{"reddit", Reddit, false},
		{"myspace", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProviderName(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, KindConfiguration, KindOf(err))
				assert.Equal(t, "Unsupported provider: "+tt.in, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSupportedProviders_ReturnsFreshSlice(t *testing.T) {
	a := SupportedProviders()
	a[0] = "mutated"
	assert.Equal(t, Google, SupportedProviders()[0])
	assert.Len(t, SupportedProviders(), 7)
}

func TestProviderConfig_Validate(t *testing.T) {
	assert.NoError(t, testConfig(Google).Validate())

	for _, cfg := range []ProviderConfig{
		{},
		{ClientID: "id", ClientSecret: "secret"},
		{ClientID: "id", RedirectURI: "http://localhost/cb"},
		{ClientSecret: "secret", RedirectURI: "http://localhost/cb"},
	} {
		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, KindConfiguration, KindOf(err))
	}
}

func TestUser_JSONHasAllKeys(t *testing.T) {
	data, err := json.Marshal(User{ID: "7", Name: "adal", Provider: GitHub})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, map[string]any{
		"id":       "7",
		"name":     "adal",
		"email":    "",
		"picture":  "",
		"provider": "github",
	}, m)
}

func TestAccessToken_Redacted(t *testing.T) {
	tok := AccessToken("secret-token")
	assert.Equal(t, "[redacted]", tok.String())
	assert.NotContains(t, fmt.Sprintf("%v", tok), "secret-token")
	assert.Equal(t, "", AccessToken("").String())
}
