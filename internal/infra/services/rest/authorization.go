package rest

import (
	"context"

	"github.com/google/uuid"

	"github.com/vietddude/catshelter/internal/core/domain"
)

// AuthorizationClient implements services.Authorization over HTTP.
type AuthorizationClient struct {
	client
}

type authorizeRequest struct {
	SessionID string `json:"session_id"`
}

type authorizeResponse struct {
	Success bool      `json:"success"`
	UserID  uuid.UUID `json:"user_id"`
}

// Authorize validates the session. A rejected session comes back as
// Success=false, not as an error.
func (c *AuthorizationClient) Authorize(
	ctx context.Context,
	sessionID string,
) (*domain.AuthResult, error) {
	var resp authorizeResponse
	if err := c.post(ctx, "/sessions/authorize", authorizeRequest{SessionID: sessionID}, &resp); err != nil {
		return nil, err
	}
	return &domain.AuthResult{Success: resp.Success, UserID: resp.UserID}, nil
}
