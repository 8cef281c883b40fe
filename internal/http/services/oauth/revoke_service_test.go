package oauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/dropDatabas3/minioidc/internal/http/dto/oauth"
)

func exchange(t *testing.T, f *fixture) *dto.TokenResponse {
	t.Helper()
	resp, err := f.svcs.Token.ExchangeAuthorizationCode(context.Background(), dto.AuthCodeRequest{
		Code: issueCode(t, f), RedirectURI: testRedirect, ClientID: testClient, ClientSecret: testSecret,
	})
	require.NoError(t, err)
	return resp
}

func TestRevoke_RefreshTokenDropsAccess(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	resp := exchange(t, f)

	require.NoError(t, f.svcs.Revoke.Revoke(ctx, dto.RevokeRequest{
		Token: resp.RefreshToken, ClientID: testClient, ClientSecret: testSecret,
	}))

	_, err := f.svcs.TokenStore.GetByRefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = f.svcs.TokenStore.GetByAccessToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRevoke_AccessTokenKeepsRefresh(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	resp := exchange(t, f)

	require.NoError(t, f.svcs.Revoke.Revoke(ctx, dto.RevokeRequest{
		Token: resp.AccessToken, TokenTypeHint: "access_token", ClientID: testClient, ClientSecret: testSecret,
	}))

	_, err := f.svcs.TokenStore.GetByAccessToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = f.svcs.TokenStore.GetByRefreshToken(ctx, resp.RefreshToken)
	assert.NoError(t, err)
}

func TestRevoke_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	resp := exchange(t, f)

	assert.NoError(t, f.svcs.Revoke.Revoke(ctx, dto.RevokeRequest{Token: "unknown", ClientID: testClient, ClientSecret: testSecret}))

	// otro cliente no puede revocar, pero tampoco recibe error
	assert.NoError(t, f.svcs.Revoke.Revoke(ctx, dto.RevokeRequest{Token: resp.RefreshToken, ClientID: "other-client", ClientSecret: "other-secret"}))
	_, err := f.svcs.TokenStore.GetByRefreshToken(ctx, resp.RefreshToken)
	assert.NoError(t, err)

	assert.ErrorIs(t, f.svcs.Revoke.Revoke(ctx, dto.RevokeRequest{Token: "x", ClientID: testClient, ClientSecret: "bad"}), ErrRevokeInvalidClient)
	assert.ErrorIs(t, f.svcs.Revoke.Revoke(ctx, dto.RevokeRequest{ClientID: testClient, ClientSecret: testSecret}), ErrRevokeTokenEmpty)
}
