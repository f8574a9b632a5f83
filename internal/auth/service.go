package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/OpenKinder/kinder/internal/apperr"
	dirservice "github.com/OpenKinder/kinder/internal/directory/service"
)

// AuthService verifies that token identities still map to active directory
// users. Tokens outlive directory changes, so a deactivated user is rejected
// here even when their token is otherwise valid.
type AuthService struct {
	directory *dirservice.DirectoryService
}

func NewAuthService(directory *dirservice.DirectoryService) *AuthService {
	return &AuthService{directory: directory}
}

// ResolveIdentity checks the token's user against the directory and builds
// the request auth context.
func (as *AuthService) ResolveIdentity(ctx context.Context, claims *TokenClaims) (*AuthContext, error) {
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token carries no user ID")
	}

	user, err := as.directory.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			slog.Debug("token user not found in directory", "user_id", claims.UserID)
			return nil, fmt.Errorf("unknown user %s", claims.UserID)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.Active {
		slog.Info("rejected token of deactivated user", "user_id", claims.UserID)
		return nil, fmt.Errorf("user %s is deactivated", claims.UserID)
	}

	return &AuthContext{
		UserID:   claims.UserID,
		CampusID: claims.CampusID,
		Roles:    claims.Roles,
	}, nil
}
