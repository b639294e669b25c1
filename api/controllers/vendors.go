package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/solmart/solmart-backend/api/responses"
	"github.com/solmart/solmart-backend/api/validators"
	vendorsvc "github.com/solmart/solmart-backend/internal/vendors"
	"github.com/solmart/solmart-backend/pkg/enums"
	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
	"github.com/solmart/solmart-backend/pkg/logger"
	"github.com/solmart/solmart-backend/pkg/types"
)

type vendorRegisterRequest struct {
	BusinessName string         `json:"business_name" validate:"required"`
	Description  *string        `json:"description,omitempty"`
	LogoURL      *string        `json:"logo_url,omitempty" validate:"omitempty,url"`
	ContactEmail *string        `json:"contact_email,omitempty" validate:"omitempty,email"`
	Address      *types.Address `json:"address,omitempty"`
}

// VendorRegister submits the wallet's vendor application.
func VendorRegister(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		wallet, err := walletFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload vendorRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.Register(r.Context(), wallet, vendorsvc.RegisterInput{
			BusinessName: strings.TrimSpace(payload.BusinessName),
			Description:  payload.Description,
			LogoURL:      payload.LogoURL,
			ContactEmail: payload.ContactEmail,
			Address:      payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newUserResponse(vendor))
	}
}

// VendorMe returns the wallet's vendor application.
func VendorMe(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		wallet, err := walletFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.GetByWallet(r.Context(), wallet)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newUserResponse(vendor))
	}
}

type vendorProfileRequest struct {
	BusinessName *string        `json:"business_name,omitempty"`
	Description  *string        `json:"description,omitempty"`
	LogoURL      *string        `json:"logo_url,omitempty" validate:"omitempty,url"`
	ContactEmail *string        `json:"contact_email,omitempty" validate:"omitempty,email"`
	Address      *types.Address `json:"address,omitempty"`
}

// VendorUpdateProfile mutates the wallet's vendor profile.
func VendorUpdateProfile(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		wallet, err := walletFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload vendorProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.UpdateProfile(r.Context(), wallet, vendorsvc.UpdateProfileInput{
			BusinessName: payload.BusinessName,
			Description:  payload.Description,
			LogoURL:      payload.LogoURL,
			ContactEmail: payload.ContactEmail,
			Address:      payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newUserResponse(vendor))
	}
}

// VendorsApproved serves the public directory of approved vendors.
func VendorsApproved(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendors, err := svc.ListByStatus(r.Context(), enums.VendorStatusApproved, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]userResponse, 0, len(vendors))
		for i := range vendors {
			out = append(out, newUserResponse(&vendors[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// AdminVendorsList lets reviewers browse applications by status.
func AdminVendorsList(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := enums.VendorStatusPending
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err = enums.ParseVendorStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor status"))
				return
			}
		}

		vendors, err := svc.ListByStatus(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]userResponse, 0, len(vendors))
		for i := range vendors {
			out = append(out, newUserResponse(&vendors[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type vendorStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminVendorStatus moves a vendor application through the review states.
func AdminVendorStatus(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		reviewerID, err := vendorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(chi.URLParam(r, "vendorID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
			return
		}

		var payload vendorStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseVendorStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor status"))
			return
		}

		vendor, err := svc.UpdateStatus(r.Context(), vendorID, status, reviewerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newUserResponse(vendor))
	}
}
