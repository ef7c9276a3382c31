package auth

import (
	"testing"
	"time"

	"recruitment-portal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSessionService() *SessionService {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			SessionSecret: "test-secret-key",
			SessionExpiry: 24 * time.Hour,
		},
	}
	return NewSessionService(cfg)
}

func TestNewSessionService(t *testing.T) {
	service := createTestSessionService()

	assert.NotNil(t, service)
	assert.Equal(t, []byte("test-secret-key"), service.secretKey)
	assert.Equal(t, "recruitment-portal", service.issuer)
	assert.Equal(t, 24*time.Hour, service.ttl)
}

func TestSessionService_IssueAndVerify(t *testing.T) {
	service := createTestSessionService()

	token, err := service.Issue("admin", RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.RegisteredClaims.ID)
}

func TestSessionService_Verify(t *testing.T) {
	service := createTestSessionService()

	t.Run("rejects_garbage_token", func(t *testing.T) {
		_, err := service.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("rejects_token_signed_with_other_key", func(t *testing.T) {
		other := NewSessionService(&config.Config{
			Auth: config.AuthConfig{
				SessionSecret: "different-secret",
				SessionExpiry: time.Hour,
			},
		})
		token, err := other.Issue("admin", RoleAdmin)
		require.NoError(t, err)

		_, err = service.Verify(token)
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("rejects_expired_token", func(t *testing.T) {
		expired := NewSessionService(&config.Config{
			Auth: config.AuthConfig{
				SessionSecret: "test-secret-key",
				SessionExpiry: -time.Minute,
			},
		})
		token, err := expired.Issue("admin", RoleAdmin)
		require.NoError(t, err)

		_, err = service.Verify(token)
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("viewer_role_round_trips", func(t *testing.T) {
		token, err := service.Issue("viewer", RoleViewer)
		require.NoError(t, err)

		claims, err := service.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, RoleViewer, claims.Role)
	})
}

func TestSessionService_Revoke(t *testing.T) {
	service := createTestSessionService()

	t.Run("revoked_token_fails_verification", func(t *testing.T) {
		token, err := service.Issue("admin", RoleAdmin)
		require.NoError(t, err)

		service.Revoke(token)

		_, err = service.Verify(token)
		assert.ErrorIs(t, err, ErrSessionRevoked)
	})

	t.Run("other_sessions_unaffected", func(t *testing.T) {
		first, err := service.Issue("admin", RoleAdmin)
		require.NoError(t, err)
		second, err := service.Issue("admin", RoleAdmin)
		require.NoError(t, err)

		service.Revoke(first)

		_, err = service.Verify(second)
		assert.NoError(t, err)
	})

	t.Run("malformed_token_is_ignored", func(t *testing.T) {
		service.Revoke("garbage")
	})
}

func TestTokenBlacklist(t *testing.T) {
	t.Run("expired_entries_are_dropped", func(t *testing.T) {
		bl := NewTokenBlacklist()
		bl.Add("old", time.Now().Add(-time.Minute))

		assert.False(t, bl.IsBlacklisted("old"))
	})

	t.Run("cleanup_removes_expired", func(t *testing.T) {
		bl := NewTokenBlacklist()
		bl.Add("old", time.Now().Add(-time.Minute))
		bl.Add("current", time.Now().Add(time.Hour))

		bl.Cleanup()

		bl.mu.Lock()
		defer bl.mu.Unlock()
		assert.Len(t, bl.tokens, 1)
	})

	t.Run("concurrent_access", func(t *testing.T) {
		bl := NewTokenBlacklist()
		done := make(chan struct{})

		go func() {
			for i := 0; i < 100; i++ {
				bl.Add("token", time.Now().Add(time.Hour))
			}
			close(done)
		}()
		for i := 0; i < 100; i++ {
			bl.IsBlacklisted("token")
		}
		<-done

		assert.True(t, bl.IsBlacklisted("token"))
	})
}

func TestExtractTokenFromBearer(t *testing.T) {
	t.Run("valid_bearer_header", func(t *testing.T) {
		assert.Equal(t, "abc123", ExtractTokenFromBearer("Bearer abc123"))
	})

	t.Run("missing_prefix", func(t *testing.T) {
		assert.Equal(t, "", ExtractTokenFromBearer("abc123"))
	})

	t.Run("empty_header", func(t *testing.T) {
		assert.Equal(t, "", ExtractTokenFromBearer(""))
	})
}
