//go:build unit

package jwt_test

import (
	"testing"
	"time"

	"handicraft-store/internal/domain/user"
	"handicraft-store/internal/pkg/clock"
	"handicraft-store/internal/pkg/jwt"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

var issuedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestService_ValidateToken(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		token    func(t *testing.T) string
		advance  time.Duration
		wantRole user.Role
		wantErr  error
	}{
		{
			name: "valid customer token",
			token: func(t *testing.T) string {
				return mustToken(t, jwt.NewService(secret, time.Hour, clock.NewMockClock(issuedAt)), userID, user.RoleCustomer)
			},
			wantRole: user.RoleCustomer,
		},
		{
			name: "valid admin token",
			token: func(t *testing.T) string {
				return mustToken(t, jwt.NewService(secret, time.Hour, clock.NewMockClock(issuedAt)), userID, user.RoleAdmin)
			},
			wantRole: user.RoleAdmin,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return mustToken(t, jwt.NewService(secret, time.Hour, clock.NewMockClock(issuedAt)), userID, user.RoleCustomer)
			},
			advance: 2 * time.Hour,
			wantErr: jwt.ErrExpiredToken,
		},
		{
			name: "signed with another secret",
			token: func(t *testing.T) string {
				return mustToken(t, jwt.NewService("other", time.Hour, clock.NewMockClock(issuedAt)), userID, user.RoleCustomer)
			},
			wantErr: jwt.ErrInvalidToken,
		},
		{
			name: "unknown role",
			token: func(t *testing.T) string {
				return mustToken(t, jwt.NewService(secret, time.Hour, clock.NewMockClock(issuedAt)), userID, user.Role("superuser"))
			},
			wantErr: jwt.ErrInvalidToken,
		},
		{
			name: "wrong signing method",
			token: func(t *testing.T) string {
				claims := jwt.Claims{
					UserID: userID,
					Role:   "admin",
					RegisteredClaims: gojwt.RegisteredClaims{
						Issuer:    "handicraft-store",
						ExpiresAt: gojwt.NewNumericDate(issuedAt.Add(time.Hour)),
					},
				}
				tok, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, claims).SignedString(gojwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return tok
			},
			wantErr: jwt.ErrInvalidToken,
		},
		{
			name:    "garbage",
			token:   func(*testing.T) string { return "not-a-token" },
			wantErr: jwt.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := clock.NewMockClock(issuedAt.Add(tt.advance))
			svc := jwt.NewService(secret, time.Hour, clk)

			gotID, gotRole, err := svc.ValidateToken(tt.token(t))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, gotID)
			assert.Equal(t, tt.wantRole, gotRole)
		})
	}
}

func mustToken(t *testing.T, svc *jwt.Service, userID uuid.UUID, role user.Role) string {
	t.Helper()
	tok, err := svc.GenerateToken(userID, role)
	require.NoError(t, err)
	return tok
}
