package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtuamnuq/speak2see-go/internal/auth"
	"github.com/tomtuamnuq/speak2see-go/internal/backend"
	"github.com/tomtuamnuq/speak2see-go/internal/session"
)

// fakeIdentity scripts the identity provider and records which calls the
// manager actually makes.
type fakeIdentity struct {
	sessionToken string
	signInToken  string
	signInErr    error
	username     string

	signInCalls  int
	signOutCalls int
	fetchCalls   int
}

func (f *fakeIdentity) FetchSession(ctx context.Context) (string, error) {
	f.fetchCalls++
	return f.sessionToken, nil
}

func (f *fakeIdentity) SignIn(ctx context.Context, username, password string) (string, error) {
	f.signInCalls++
	if f.signInErr != nil {
		return "", f.signInErr
	}
	return f.signInToken, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.signOutCalls++
	return nil
}

func (f *fakeIdentity) CurrentUsername(ctx context.Context) (string, error) {
	if f.username == "" {
		return "", errors.New("no session")
	}
	return f.username, nil
}

func testToken(t *testing.T, email string) string {
	t.Helper()
	token, err := auth.SignToken(auth.Claims{Subject: "u1", Email: email}, "secret")
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return token
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success stores the token", func(t *testing.T) {
		identity := &fakeIdentity{signInToken: testToken(t, "alice@example.com"), username: "alice"}
		mgr := session.NewManager(identity)

		if mgr.HasValidToken() {
			t.Fatal("no token should be held before login")
		}
		if !mgr.Login(ctx, "alice", "pw") {
			t.Fatal("login should succeed")
		}
		if !mgr.HasValidToken() {
			t.Error("a token should be held after login")
		}

		header, err := mgr.AuthorizationHeader()
		if err != nil {
			t.Fatalf("AuthorizationHeader failed: %v", err)
		}
		if header != "Bearer "+identity.signInToken {
			t.Errorf("header = %q, want bearer token", header)
		}
	})

	t.Run("repeat login is a no-op success", func(t *testing.T) {
		identity := &fakeIdentity{signInToken: testToken(t, "alice@example.com"), username: "alice"}
		mgr := session.NewManager(identity)

		if !mgr.Login(ctx, "alice", "pw") {
			t.Fatal("first login should succeed")
		}
		if !mgr.Login(ctx, "alice", "pw") {
			t.Fatal("repeat login should succeed")
		}
		if identity.signInCalls != 1 {
			t.Errorf("repeat login must not hit the provider again, got %d calls", identity.signInCalls)
		}
	})

	t.Run("failure collapses to false", func(t *testing.T) {
		identity := &fakeIdentity{signInErr: errors.New("bad credentials")}
		mgr := session.NewManager(identity)

		if mgr.Login(ctx, "alice", "wrong") {
			t.Fatal("login should fail")
		}
		if mgr.HasValidToken() {
			t.Error("no token may be left behind after a failed login")
		}
		if _, err := mgr.AuthorizationHeader(); !errors.Is(err, backend.ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	identity := &fakeIdentity{signInToken: testToken(t, "alice@example.com"), username: "alice"}
	mgr := session.NewManager(identity)

	if !mgr.Login(ctx, "alice", "pw") {
		t.Fatal("login should succeed")
	}
	mgr.Logout(ctx)

	if mgr.HasValidToken() {
		t.Error("logout must clear the token")
	}
	if mgr.CurrentUserInfo() != nil {
		t.Error("logout must clear the cached profile")
	}
	if identity.signOutCalls != 1 {
		t.Errorf("expected 1 sign-out call, got %d", identity.signOutCalls)
	}
}

func TestIsAuthorized(t *testing.T) {
	ctx := context.Background()

	t.Run("adopts an existing session", func(t *testing.T) {
		identity := &fakeIdentity{sessionToken: testToken(t, "alice@example.com")}
		mgr := session.NewManager(identity)

		if !mgr.IsAuthorized(ctx) {
			t.Fatal("an existing session should authorize the manager")
		}
		if !mgr.HasValidToken() {
			t.Error("the adopted token should be held")
		}
		// Once a token is held, further checks must not hit the provider.
		mgr.IsAuthorized(ctx)
		if identity.fetchCalls != 1 {
			t.Errorf("expected 1 session fetch, got %d", identity.fetchCalls)
		}
	})

	t.Run("no session means unauthorized", func(t *testing.T) {
		mgr := session.NewManager(&fakeIdentity{})
		if mgr.IsAuthorized(ctx) {
			t.Error("without a session the manager must not be authorized")
		}
	})
}

func TestFetchUserInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("reads the email claim from the token", func(t *testing.T) {
		identity := &fakeIdentity{signInToken: testToken(t, "alice@example.com"), username: "alice"}
		mgr := session.NewManager(identity)
		mgr.Login(ctx, "alice", "pw")

		info := mgr.CurrentUserInfo()
		if info == nil {
			t.Fatal("login should have cached the profile")
		}
		if info.Username != "alice" || info.Email != "alice@example.com" {
			t.Errorf("profile = %+v", info)
		}
	})

	t.Run("unparseable token yields nil profile", func(t *testing.T) {
		identity := &fakeIdentity{signInToken: "not-a-jwt", username: "alice"}
		mgr := session.NewManager(identity)

		// The login itself still succeeds; only the profile is lost.
		if !mgr.Login(ctx, "alice", "pw") {
			t.Fatal("login should succeed despite the opaque token")
		}
		if info := mgr.FetchUserInfo(ctx); info != nil {
			t.Errorf("expected nil profile, got %+v", info)
		}
	})

	t.Run("without a token there is no profile", func(t *testing.T) {
		mgr := session.NewManager(&fakeIdentity{})
		if info := mgr.FetchUserInfo(ctx); info != nil {
			t.Errorf("expected nil profile, got %+v", info)
		}
	})
}
