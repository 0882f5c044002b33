package waitlist

import (
	"errors"
	"net/http"
	"strings"

	"github.com/akeren/atelier-waitlist/config/router"
	"github.com/akeren/atelier-waitlist/internal/log"
	apperrors "github.com/akeren/atelier-waitlist/pkg/errors"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const LandingPageTemplate = "index.html"

func NewWaitlistController(service WaitlistService, logger *log.Logger) *router.RESTController {
	return router.NewVersionedRESTController(
		"WaitlistController",
		"v1",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddPostHandler(c, "", joinWaitlistHandler(service, logger))
		},
	)
}

// NewLandingPageController serves the signup page. Each request gets its own Form, so the
// rendered state never outlives the response.
func NewLandingPageController(service WaitlistService, logger *log.Logger, twitterURL string) *router.RESTController {
	return router.NewRESTController(
		"LandingPageController",
		"/",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddPageHandler(c, http.MethodGet, "", landingPageHandler(service, logger, twitterURL))
			rs.AddPageHandler(c, http.MethodPost, "", signupFormHandler(service, logger, twitterURL))
		},
	)
}

func joinWaitlistHandler(service WaitlistService, logger *log.Logger) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		reqLogger := router.GetLogger(ctx)

		email, err := bindEmail(ctx, binding.JSON)
		if err != nil {
			reqLogger.Warn("Failed to bind request", "error", err)
			return router.BadRequestResult("Invalid request body", nil)
		}

		req := JoinWaitlistRequest{Email: email}
		if err := binding.Validator.ValidateStruct(&req); err != nil {
			reqLogger.Warn("Invalid waitlist request", "error", err)

			validationErrors := apperrors.FormatValidationErrors(err, &req)
			if len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid request payload", validationErrors)
			}

			return router.BadRequestResult("Invalid request body", nil)
		}

		form := NewForm(service, logger)
		form.UpdateEmail(req.Email)
		state := form.Submit(ctx.Request.Context())

		if state.Status == StatusSuccess {
			return router.CreatedResult(state, "Waitlist entry")
		}

		return router.ErrorResult(apperrors.HTTPStatusCode(form.Err()), state.ErrorMessage, state)
	}
}

func landingPageHandler(service WaitlistService, logger *log.Logger, twitterURL string) router.PageFunction {
	return func(ctx *router.RequestContext) *router.PageResult {
		form := NewForm(service, logger)
		return router.Page(http.StatusOK, LandingPageTemplate, newLandingPage(form.State(), twitterURL))
	}
}

func signupFormHandler(service WaitlistService, logger *log.Logger, twitterURL string) router.PageFunction {
	return func(ctx *router.RequestContext) *router.PageResult {
		form := NewForm(service, logger)

		email, err := bindEmail(ctx, binding.Form)
		if err != nil {
			router.GetLogger(ctx).Info("Unreadable signup form", "error", err)
			return router.Page(http.StatusBadRequest, LandingPageTemplate, newLandingPage(form.State(), twitterURL))
		}

		req := SignupFormRequest{Email: email}
		if err := binding.Validator.ValidateStruct(&req); err != nil {
			router.GetLogger(ctx).Info("Rejected signup form", "error", err)

			// The browser's email input blocks these before submit; keep the typed value and
			// flag it the same way.
			form.UpdateEmail(email)
			page := newLandingPage(form.State(), twitterURL)

			var validationErrs validator.ValidationErrors
			if errors.As(err, &validationErrs) {
				page.InvalidEmail = true
			}

			return router.Page(http.StatusBadRequest, LandingPageTemplate, page)
		}

		form.UpdateEmail(req.Email)
		state := form.Submit(ctx.Request.Context())

		status := http.StatusOK
		if state.Status == StatusError {
			status = apperrors.HTTPStatusCode(form.Err())
		}

		return router.Page(status, LandingPageTemplate, newLandingPage(state, twitterURL))
	}
}

// bindEmail decodes the email field with b and trims it before any validation runs, so the JSON
// API and the page form accept the same input.
func bindEmail(ctx *router.RequestContext, b binding.Binding) (string, error) {
	var raw rawEmail
	if err := ctx.ShouldBindWith(&raw, b); err != nil {
		return "", err
	}
	return strings.TrimSpace(raw.Email), nil
}
