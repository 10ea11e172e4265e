package ports

import (
	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/pkg/token"
)

// PasswordHasher is satisfied by *password.Hasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

// TokenService is satisfied by *token.Service.
type TokenService interface {
	IssueAccessToken(userID int64, role domain.Role, extended bool) (string, error)
	IssueRefreshToken(userID int64) (string, error)
	Verify(tokenStr string, kind token.Kind) (*token.Claims, error)
}
