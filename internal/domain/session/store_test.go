package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/gateway/gatewaytest"
	"github.com/your-org/storefront/internal/pkg/logger"
)

func newStore(t *testing.T) (*session.Store, *gatewaytest.Fake) {
	t.Helper()
	gw := gatewaytest.New()
	gw.AddUser("u1", "asha@example.com", "s3cret-pass", map[string]string{"full_name": "Asha Rao"})
	return session.NewStore(gw, logger.Discard()), gw
}

func TestSignIn_Success(t *testing.T) {
	store, _ := newStore(t)

	err := store.SignIn(context.Background(), "asha@example.com", "s3cret-pass")
	require.NoError(t, err)

	state := store.Snapshot()
	assert.True(t, state.IsAuthenticated)
	assert.False(t, state.IsLoading)
	require.NotNil(t, state.Identity)
	assert.Equal(t, "u1", state.Identity.ID)
	assert.Equal(t, "Asha Rao", state.Identity.FullName)
	assert.Equal(t, session.RoleCustomer, state.Identity.Role)
	assert.Equal(t, state.Identity.CreatedAt, state.Identity.UpdatedAt)
}

func TestSignIn_BadCredentials(t *testing.T) {
	store, _ := newStore(t)

	err := store.SignIn(context.Background(), "asha@example.com", "wrong")

	var authErr *session.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid login credentials", authErr.Message)
	assert.False(t, store.IsAuthenticated())
	assert.False(t, store.IsLoading())
	assert.Nil(t, store.Identity())
}

func TestSignIn_NilUser(t *testing.T) {
	store, gw := newStore(t)
	gw.NilUser = true

	err := store.SignIn(context.Background(), "asha@example.com", "s3cret-pass")

	var authErr *session.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, session.MessageAuthFailed, authErr.Message)
	assert.False(t, store.IsAuthenticated())
}

func TestSignIn_TransportFailure(t *testing.T) {
	store, gw := newStore(t)
	gw.Fail("VerifyCredentials", errors.New("connection reset"))

	err := store.SignIn(context.Background(), "asha@example.com", "s3cret-pass")

	var authErr *session.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, session.MessageUnexpected, authErr.Message)
	assert.False(t, store.IsLoading())
}

func TestSignUp_DoesNotAuthenticate(t *testing.T) {
	store, gw := newStore(t)

	err := store.SignUp(context.Background(), "new@example.com", "another-pass", session.Profile{FullName: "New Person"})
	require.NoError(t, err)
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, 1, gw.Calls("CreateAccount"))

	err = store.SignUp(context.Background(), "new@example.com", "another-pass", session.Profile{})
	var authErr *session.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "User already registered", authErr.Message)
}

func TestSignOut_ClearsEvenWhenGatewayFails(t *testing.T) {
	store, gw := newStore(t)
	require.NoError(t, store.SignIn(context.Background(), "asha@example.com", "s3cret-pass"))

	gw.Fail("TerminateSession", errors.New("gateway down"))
	store.SignOut(context.Background())

	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.Identity())
	assert.False(t, store.IsLoading())
}

func TestResetPassword(t *testing.T) {
	store, gw := newStore(t)

	require.NoError(t, store.ResetPassword(context.Background(), "asha@example.com"))
	assert.Equal(t, []string{"asha@example.com"}, gw.ResetRequests())
	assert.False(t, store.IsAuthenticated())

	gw.Fail("RequestPasswordReset", errors.New("timeout"))
	err := store.ResetPassword(context.Background(), "asha@example.com")
	assert.EqualError(t, err, session.MessageUnexpected)
}

func TestPersistedRestore(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.SignIn(context.Background(), "asha@example.com", "s3cret-pass"))
	persisted := store.Persisted()
	assert.True(t, persisted.IsAuthenticated)

	restored := session.NewStore(gatewaytest.New(), logger.Discard())
	restored.SetLoading(true)
	restored.Restore(persisted)

	assert.True(t, restored.IsAuthenticated())
	assert.False(t, restored.IsLoading())
	assert.Equal(t, store.Identity(), restored.Identity())

	// the flag is derived from the identity, not the blob
	restored.Restore(session.Persisted{IsAuthenticated: true})
	assert.False(t, restored.IsAuthenticated())
}

func TestNormalizeIdentity(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	identity := session.NormalizeIdentity(&session.RawUser{
		ID:        "u2",
		Email:     "v@example.com",
		Metadata:  map[string]string{"role": "vendor"},
		CreatedAt: created,
		UpdatedAt: &updated,
	})

	assert.Equal(t, "", identity.FullName)
	assert.Equal(t, session.RoleVendor, identity.Role)
	assert.Equal(t, updated, identity.UpdatedAt)

	identity = session.NormalizeIdentity(&session.RawUser{ID: "u3", Metadata: map[string]string{"role": "wizard"}})
	assert.Equal(t, session.RoleCustomer, identity.Role)
	assert.Nil(t, session.NormalizeIdentity(nil))
}
