package auth

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const clientSecret = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret",
"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",
"redirect_uris":["http://localhost"]}}`

func TestGmailClientWithoutTokenFile(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credential.json")
	require.NoError(t, os.WriteFile(creds, []byte(clientSecret), 0600))

	_, err := GmailClient(context.Background(), creds, filepath.Join(dir, "token.json"))
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestGmailClientLoadsSavedToken(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credential.json")
	tokenFile := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(creds, []byte(clientSecret), 0600))
	require.NoError(t, saveToken(tokenFile, &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}))

	client, err := GmailClient(context.Background(), creds, tokenFile)
	require.NoError(t, err)
	assert.NotNil(t, client)

	tok, err := tokenFromFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "refresh", tok.RefreshToken)
}

func TestGmailConfigMissingFile(t *testing.T) {
	_, err := GmailConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestAuthorizeExchangesCodeAndSavesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "4/code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh","refresh_token":"keep","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	config := &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		RedirectURL:  "http://localhost",
	}
	tokenFile := filepath.Join(t.TempDir(), "token.json")
	var out bytes.Buffer

	require.NoError(t, Authorize(context.Background(), config, tokenFile, strings.NewReader("4/code\n"), &out))
	assert.Contains(t, out.String(), srv.URL+"/auth")

	tok, err := tokenFromFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, "keep", tok.RefreshToken)
}
