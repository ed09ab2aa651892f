package smartclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/marketplace-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
)

// AuthRequiredError is returned, without any request being sent, when the
// client's role holds no token.
type AuthRequiredError struct {
	Kind                   pkgerrors.Code
	Role                   enums.Role
	OtherRoleAuthenticated bool

	prompt func(ctx context.Context, err *AuthRequiredError)
}

func newAuthRequired(role enums.Role, otherAuthenticated bool, prompt func(context.Context, *AuthRequiredError)) *AuthRequiredError {
	kind := pkgerrors.CodeBuyerNotAuthenticated
	if role == enums.RoleSeller {
		kind = pkgerrors.CodeSellerNotAuthenticated
	}
	return &AuthRequiredError{
		Kind:                   kind,
		Role:                   role,
		OtherRoleAuthenticated: otherAuthenticated,
		prompt:                 prompt,
	}
}

// Message is the user-facing text. It distinguishes a signed-out device from
// one signed in as the other role.
func (e *AuthRequiredError) Message() string {
	if e == nil {
		return ""
	}
	if e.OtherRoleAuthenticated {
		return fmt.Sprintf("You are signed in as a %s. Sign in with a %s account to continue.", e.Role.Other(), e.Role)
	}
	return fmt.Sprintf("Please sign in to your %s account to continue.", e.Role)
}

func (e *AuthRequiredError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message())
}

// Unwrap exposes the typed error so pkgerrors.As/HasCode see the kind.
func (e *AuthRequiredError) Unwrap() error {
	if e == nil {
		return nil
	}
	return pkgerrors.New(e.Kind, e.Message()).WithDetails(map[string]any{
		"role":                     e.Role.String(),
		"other_role_authenticated": e.OtherRoleAuthenticated,
	})
}

// ShowPrompt runs the prompt bound when the error was raised: the injected
// UI callback when one exists, else the notifier fallback.
func (e *AuthRequiredError) ShowPrompt(ctx context.Context) {
	if e == nil || e.prompt == nil {
		return
	}
	e.prompt(ctx, e)
}

// AsAuthRequired extracts an *AuthRequiredError from err's chain.
func AsAuthRequired(err error) (*AuthRequiredError, bool) {
	var authErr *AuthRequiredError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
