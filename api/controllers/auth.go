package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solmart/solmart-backend/api/middleware"
	"github.com/solmart/solmart-backend/api/responses"
	"github.com/solmart/solmart-backend/api/validators"
	authsvc "github.com/solmart/solmart-backend/internal/auth"
	"github.com/solmart/solmart-backend/pkg/db/models"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
	"github.com/solmart/solmart-backend/pkg/logger"
	"github.com/solmart/solmart-backend/pkg/types"
)

type connectRequest struct {
	Wallet string  `json:"wallet" validate:"required"`
	Email  *string `json:"email,omitempty" validate:"omitempty,email"`
	Name   *string `json:"name,omitempty"`
}

type adminElevateRequest struct {
	Wallet string `json:"wallet" validate:"required"`
	Secret string `json:"secret" validate:"required"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type userResponse struct {
	ID            uuid.UUID      `json:"id"`
	WalletAddress string         `json:"wallet_address"`
	Email         *string        `json:"email,omitempty"`
	Name          *string        `json:"name,omitempty"`
	Role          string         `json:"role"`
	BusinessName  *string        `json:"business_name,omitempty"`
	Description   *string        `json:"description,omitempty"`
	LogoURL       *string        `json:"logo_url,omitempty"`
	ContactEmail  *string        `json:"contact_email,omitempty"`
	Address       *types.Address `json:"address,omitempty"`
	VendorStatus  string         `json:"vendor_status"`
	AppliedAt     *time.Time     `json:"applied_at,omitempty"`
	ReviewedAt    *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:            user.ID,
		WalletAddress: user.WalletAddress,
		Email:         user.Email,
		Name:          user.Name,
		Role:          string(user.Role),
		BusinessName:  user.BusinessName,
		Description:   user.Description,
		LogoURL:       user.LogoURL,
		ContactEmail:  user.ContactEmail,
		Address:       user.Address,
		VendorStatus:  string(user.VendorStatus),
		AppliedAt:     user.AppliedAt,
		ReviewedAt:    user.ReviewedAt,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

func newSessionResponse(session *authsvc.Session) sessionResponse {
	return sessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      newUserResponse(session.User),
	}
}

// AuthConnect performs the mock wallet handshake and issues a session.
func AuthConnect(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload connectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Connect(r.Context(), strings.TrimSpace(payload.Wallet), authsvc.ConnectInput{
			Email: payload.Email,
			Name:  payload.Name,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

// AuthAdmin exchanges the shared admin secret for an admin session.
func AuthAdmin(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload adminElevateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.ElevateAdmin(r.Context(), strings.TrimSpace(payload.Wallet), payload.Secret)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

// AuthDisconnect revokes the session behind the presented token.
func AuthDisconnect(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		token, err := validators.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims, err := svc.Verify(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Disconnect(r.Context(), claims.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "disconnected"})
	}
}

// AuthMe returns the account behind the authenticated wallet.
func AuthMe(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		wallet := middleware.WalletFromContext(r.Context())
		if wallet == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "wallet context missing"))
			return
		}

		user, err := svc.Me(r.Context(), wallet)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newUserResponse(user))
	}
}
