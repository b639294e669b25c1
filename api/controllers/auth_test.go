package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/solmart/solmart-backend/internal/auth"
	pkgauth "github.com/solmart/solmart-backend/pkg/auth"
	"github.com/solmart/solmart-backend/pkg/db/models"
	"github.com/solmart/solmart-backend/pkg/enums"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
)

type stubAuthService struct {
	session *authsvc.Session
	user    *models.User
	claims  *pkgauth.AccessTokenClaims
	err     error

	revoked []string
}

func (s *stubAuthService) Connect(_ context.Context, wallet string, _ authsvc.ConnectInput) (*authsvc.Session, error) {
	return s.session, s.err
}

func (s *stubAuthService) ElevateAdmin(context.Context, string, string) (*authsvc.Session, error) {
	return s.session, s.err
}

func (s *stubAuthService) Disconnect(_ context.Context, jti string) error {
	s.revoked = append(s.revoked, jti)
	return s.err
}

func (s *stubAuthService) Verify(context.Context, string) (*pkgauth.AccessTokenClaims, error) {
	if s.claims == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return s.claims, nil
}

func (s *stubAuthService) Me(context.Context, string) (*models.User, error) {
	return s.user, s.err
}

func TestAuthConnectReturnsSession(t *testing.T) {
	t.Parallel()

	svc := &stubAuthService{
		session: &authsvc.Session{
			Token:     "jwt-token",
			ExpiresAt: time.Now().Add(time.Hour).UTC(),
			User: &models.User{
				ID:            uuid.New(),
				WalletAddress: testControllerWallet,
				Role:          enums.UserRoleBuyer,
				VendorStatus:  enums.VendorStatusPending,
			},
		},
	}

	handler := AuthConnect(svc, testLogger())
	body := `{"wallet":"` + testControllerWallet + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/connect", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data sessionResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Token != "jwt-token" {
		t.Fatalf("expected token in response, got %q", envelope.Data.Token)
	}
	if envelope.Data.User.WalletAddress != testControllerWallet {
		t.Fatalf("unexpected wallet %q", envelope.Data.User.WalletAddress)
	}
}

func TestAuthConnectRequiresWalletField(t *testing.T) {
	t.Parallel()

	handler := AuthConnect(&stubAuthService{}, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/connect", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthAdminSurfacesInvalidCredentials(t *testing.T) {
	t.Parallel()

	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := AuthAdmin(svc, testLogger())
	body := `{"wallet":"` + testControllerWallet + `","secret":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/admin", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthDisconnectRevokesSession(t *testing.T) {
	t.Parallel()

	claims := &pkgauth.AccessTokenClaims{Wallet: testControllerWallet}
	claims.ID = "jti-123"
	svc := &stubAuthService{claims: claims}

	handler := AuthDisconnect(svc, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/disconnect", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.revoked) != 1 || svc.revoked[0] != "jti-123" {
		t.Fatalf("expected session jti revoked, got %v", svc.revoked)
	}
}

func TestAuthDisconnectRequiresBearer(t *testing.T) {
	t.Parallel()

	handler := AuthDisconnect(&stubAuthService{}, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/disconnect", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMe(t *testing.T) {
	t.Parallel()

	svc := &stubAuthService{
		user: &models.User{
			ID:            uuid.New(),
			WalletAddress: testControllerWallet,
			Role:          enums.UserRoleVendor,
			VendorStatus:  enums.VendorStatusApproved,
		},
	}

	handler := AuthMe(svc, testLogger())
	req := authedRequest(http.MethodGet, "/api/v1/auth/me", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"role":"vendor"`) {
		t.Fatalf("expected role in body, got %s", rec.Body.String())
	}
}
