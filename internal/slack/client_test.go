package slack_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Valikazar/football-magager-bot/internal/apperrors"
	"github.com/Valikazar/football-magager-bot/internal/auth"
	"github.com/Valikazar/football-magager-bot/internal/chat"
	internalslack "github.com/Valikazar/football-magager-bot/internal/slack"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = chat.NewKey("C1", "")

type fakeUsers struct {
	calls int
	users map[string]*slack.User
	err   error
}

func (f *fakeUsers) GetUserInfoContext(_ context.Context, user string) (*slack.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[user]; ok {
		return u, nil
	}
	return &slack.User{ID: user}, nil
}

func TestAuthorizer_WorkspaceRoles(t *testing.T) {
	ctx := context.Background()
	api := &fakeUsers{users: map[string]*slack.User{
		"UADMIN": {ID: "UADMIN", IsAdmin: true},
		"UOWNER": {ID: "UOWNER", IsOwner: true},
	}}
	a := internalslack.NewAuthorizerWithAPI(api, auth.NewStatic("UCONF"))

	for id, want := range map[string]bool{"UADMIN": true, "UOWNER": true, "UCONF": true, "UMEMBER": false, "": false} {
		ok, err := a.IsPrivileged(ctx, id, key)
		require.NoError(t, err, id)
		assert.Equal(t, want, ok, id)
	}
	assert.Equal(t, 3, api.calls, "configured admins and legionnaires skip the lookup")

	_, err := a.IsPrivileged(ctx, "UADMIN", key)
	require.NoError(t, err)
	assert.Equal(t, 3, api.calls, "roles are cached")
}

func TestAuthorizer_LookupError(t *testing.T) {
	boom := errors.New("ratelimited")
	a := internalslack.NewAuthorizerWithAPI(&fakeUsers{err: boom}, nil)

	_, err := a.IsPrivileged(context.Background(), "U1", key)
	assert.ErrorIs(t, err, boom)
}

func TestAuthorizer_WebAPI(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/users.info", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "user": {"id": "U9", "is_admin": true}}`))
	}))
	defer srv.Close()

	api := slack.New("test-token", slack.OptionAPIURL(srv.URL+"/"))
	a := internalslack.NewAuthorizerWithAPI(api, nil)
	ok, err := a.IsPrivileged(context.Background(), "U9", key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), hits.Load())
}

func TestValue(t *testing.T) {
	v := internalslack.Value(12, 7, 5)
	assert.Equal(t, "12:7:5", v)

	ids, err := internalslack.ParseValue(v, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{12, 7, 5}, ids)

	_, err = internalslack.ParseValue(v, 2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = internalslack.ParseValue("12:x", 2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestActionID(t *testing.T) {
	id := internalslack.ActionScorer.Element(4)
	assert.Equal(t, "scorer#4", id)
	assert.Equal(t, internalslack.ActionScorer, internalslack.ParseActionID(id))
	assert.Equal(t, internalslack.ActionConfirmAll, internalslack.ParseActionID("confirm_all"))
}
