package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pactline/internal/domain"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func openTestStore(t *testing.T, workspace string) *Store {
	t.Helper()
	s, err := Open(workspace)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSignInPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	token := signedToken(t, time.Now().Add(time.Hour))
	user := domain.User{ID: "u1", Email: "ana@example.com", FullName: "Ana"}

	s := openTestStore(t, dir)
	require.NoError(t, s.SignIn(token, user))
	assert.Equal(t, token, s.Token())
	require.NoError(t, s.Close())

	reopened := openTestStore(t, dir)
	assert.Equal(t, token, reopened.Token())
	got, ok := reopened.User()
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.True(t, reopened.SignedIn())
}

func TestExpiredTokenReadsAsSignedOut(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	require.NoError(t, s.SignIn(signedToken(t, time.Now().Add(time.Hour)), domain.User{ID: "u1"}))

	s.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.Empty(t, s.Token())
	assert.False(t, s.SignedIn())
}

func TestExpiresAt(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	_, ok := s.ExpiresAt()
	assert.False(t, ok)

	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	require.NoError(t, s.SignIn(signedToken(t, exp), domain.User{ID: "u1"}))
	got, ok := s.ExpiresAt()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
}

func TestInvalidateClearsEverything(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	require.NoError(t, s.SignIn(signedToken(t, time.Now().Add(time.Hour)), domain.User{ID: "u1"}))
	require.NoError(t, s.SetActiveOrganization(domain.OrganizationContext{
		Organization: domain.Organization{ID: "o1", Name: "Acme"},
		Role:         "admin",
	}))

	s.Invalidate()
	assert.Empty(t, s.Token())
	_, ok := s.User()
	assert.False(t, ok)
	_, ok = s.ActiveOrganization()
	assert.False(t, ok)
	require.NoError(t, s.Close())

	reopened := openTestStore(t, dir)
	assert.False(t, reopened.SignedIn())
}

func TestSetActiveOrganizationUpdatesUser(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	require.NoError(t, s.SignIn(signedToken(t, time.Now().Add(time.Hour)), domain.User{ID: "u1", CurrentOrganizationID: "o1"}))
	require.NoError(t, s.SetActiveOrganization(domain.OrganizationContext{
		Organization: domain.Organization{ID: "o2", Name: "Beta"},
		Role:         "user",
	}))

	user, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "o2", user.CurrentOrganizationID)
	require.NoError(t, s.Close())

	reopened := openTestStore(t, dir)
	octx, ok := reopened.ActiveOrganization()
	require.True(t, ok)
	assert.Equal(t, "Beta", octx.Organization.Name)
	assert.Equal(t, "user", octx.Role)
	user, ok = reopened.User()
	require.True(t, ok)
	assert.Equal(t, "o2", user.CurrentOrganizationID)
}

func TestMalformedTokenTreatedAsUnexpiring(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	require.NoError(t, s.SignIn("not-a-jwt", domain.User{ID: "u1"}))
	assert.Equal(t, "not-a-jwt", s.Token())
	_, ok := s.ExpiresAt()
	assert.False(t, ok)
}
