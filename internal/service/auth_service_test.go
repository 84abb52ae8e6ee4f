package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tbayconnect/api/internal/memstore"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/pkg/auth"
)

// The account layer must run unchanged on the in-memory store, which
// backs store-less startup as well as these tests.
func newAuthFixture(t *testing.T) (*AuthService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	jm := auth.NewJWTManager("test-secret", time.Hour)
	return NewAuthService(store, jm, nil, nil), store
}

func TestRegisterAndLoginInMemory(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Register(model.RegisterRequest{
		Name:     "Maang",
		Email:    "maang@tbayconnect.local",
		Password: "shh-secret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "Maang", resp.User.Name)

	_, err = svc.Register(model.RegisterRequest{
		Name:     "Imposter",
		Email:    "maang@tbayconnect.local",
		Password: "different",
	})
	require.Error(t, err)

	_, err = svc.Login(model.LoginRequest{Email: "maang@tbayconnect.local", Password: "wrong-pass"})
	require.Error(t, err)

	login, err := svc.Login(model.LoginRequest{Email: "maang@tbayconnect.local", Password: "shh-secret"})
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, login.User.ID)
}

func TestLogoutWithoutRedisIsNoOp(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Register(model.RegisterRequest{
		Name:     "Waabooz",
		Email:    "waabooz@tbayconnect.local",
		Password: "shh-secret",
	})
	require.NoError(t, err)

	// No blacklist backend means the token just ages out
	require.NoError(t, svc.Logout(context.Background(), resp.Token))
}

func TestUpdateProfileAndSearchInMemory(t *testing.T) {
	svc, _ := newAuthFixture(t)

	a, err := svc.Register(model.RegisterRequest{Name: "Aandeg", Email: "aandeg@tbayconnect.local", Password: "shh-secret"})
	require.NoError(t, err)
	b, err := svc.Register(model.RegisterRequest{Name: "Bines", Email: "bines@tbayconnect.local", Password: "shh-secret"})
	require.NoError(t, err)

	age := 29
	updated, err := svc.UpdateProfile(a.User.ID, model.UpdateProfileRequest{
		Age:       &age,
		Interests: []string{"drumming", "beading"},
		Community: "Fort William",
	})
	require.NoError(t, err)
	require.Equal(t, 29, *updated.Age)
	require.Equal(t, []string{"drumming", "beading"}, updated.Interests)
	require.Equal(t, "Fort William", updated.Community)

	// Search excludes the searcher
	results, err := svc.SearchUsers("tbayconnect", a.User.ID, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, b.User.ID, results[0].ID)
}

func TestFollowGraphInMemory(t *testing.T) {
	svc, _ := newAuthFixture(t)

	a, err := svc.Register(model.RegisterRequest{Name: "Aandeg", Email: "aandeg@tbayconnect.local", Password: "shh-secret"})
	require.NoError(t, err)
	b, err := svc.Register(model.RegisterRequest{Name: "Bines", Email: "bines@tbayconnect.local", Password: "shh-secret"})
	require.NoError(t, err)

	require.Error(t, svc.Follow(a.User.ID, a.User.ID))

	require.NoError(t, svc.Follow(a.User.ID, b.User.ID))
	require.NoError(t, svc.Follow(a.User.ID, b.User.ID)) // re-follow is a no-op

	count, err := svc.FollowerCount(b.User.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	require.NoError(t, svc.Unfollow(a.User.ID, b.User.ID))
	count, err = svc.FollowerCount(b.User.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestFCMTokenRegistrationInMemory(t *testing.T) {
	svc, store := newAuthFixture(t)

	a, err := svc.Register(model.RegisterRequest{Name: "Aandeg", Email: "aandeg@tbayconnect.local", Password: "shh-secret"})
	require.NoError(t, err)

	require.NoError(t, svc.RegisterFCMToken(a.User.ID, model.RegisterFCMTokenRequest{Token: "tok-1", Platform: "android"}))
	require.NoError(t, svc.RegisterFCMToken(a.User.ID, model.RegisterFCMTokenRequest{Token: "tok-1", Platform: "ios"}))

	tokens, err := store.GetFCMTokens(a.User.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	require.Equal(t, "ios", tokens[0].Platform)
}

func TestWaitlistRejectsDuplicateEmailInMemory(t *testing.T) {
	svc, _ := newAuthFixture(t)

	entry, err := svc.JoinWaitlist(model.WaitlistRequest{Name: "Ziigwan", Email: "ziigwan@tbayconnect.local"})
	require.NoError(t, err)
	require.Equal(t, string(model.DeviceKindBracelet), entry.Kind)

	_, err = svc.JoinWaitlist(model.WaitlistRequest{Name: "Ziigwan", Email: "ziigwan@tbayconnect.local", Kind: "ring"})
	require.Error(t, err)
}
