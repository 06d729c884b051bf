package accounts

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"

	"github.com/goliatone/go-accounts/middleware/jwtware"
)

const (
	MessageRegistered    = "Hurray! Your Account is created, please verify your email."
	MessageLoggedIn      = "Hurray! You are now logged in "
	MessageResetSent     = "Password reset link is sent to your mail"
	MessageResetComplete = "Your password request is complete and it has been successfully changed. Login to your Account"
)

// AccountControllerRoutes holds the paths, relative to the mount point
type AccountControllerRoutes struct {
	Register         string
	Verify           string
	Authenticate     string
	ResetPassword    string
	ResetPage        string
	ResetPasswordNow string
}

type AccountControllerViews struct {
	VerificationSuccess string
	PasswordReset       string
	Errors              string
}

// AccountController exposes the Manager over HTTP. JSON endpoints answer
// with a Result, page endpoints render the configured views.
type AccountController struct {
	Debug   bool
	Logger  Logger
	Manager *Manager
	Routes  *AccountControllerRoutes
	Views   *AccountControllerViews
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerDebug logs request payloads, passwords excluded
func WithControllerDebug(debug bool) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Debug = debug
		return c
	}
}

func NewAccountController(mgr *Manager, opts ...AccountControllerOption) *AccountController {
	if mgr == nil {
		panic("Missing Manager in account controller...")
	}

	c := &AccountController{
		Logger:  defLogger{},
		Manager: mgr,
		Routes: &AccountControllerRoutes{
			Register:         "/api/register",
			Verify:           "/verify-now/:code",
			Authenticate:     "/api/authenticate",
			ResetPassword:    "/api/reset-password",
			ResetPage:        "/reset-password-now/:token",
			ResetPasswordNow: "/api/reset-password-now",
		},
		Views: &AccountControllerViews{
			VerificationSuccess: ViewVerificationSuccess,
			PasswordReset:       ViewPasswordReset,
			Errors:              ViewErrors,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// RegisterAccountRoutes mounts the account endpoints on router, usually
// a group at /users.
func RegisterAccountRoutes(router fiber.Router, c *AccountController) {
	router.Post(c.Routes.Register, c.Register).Name("accounts.register")
	router.Get(c.Routes.Verify, c.Verify).Name("accounts.verify")
	router.Post(c.Routes.Authenticate, c.Authenticate).Name("accounts.authenticate")
	router.Get(c.Routes.Authenticate, c.Guard(), c.Profile).Name("accounts.profile")
	router.Put(c.Routes.ResetPassword, c.ResetPassword).Name("accounts.reset-password")
	router.Get(c.Routes.ResetPage, c.ResetPasswordPage).Name("accounts.reset-password-page")
	router.Post(c.Routes.ResetPasswordNow, c.ResetPasswordNow).Name("accounts.reset-password-now")
}

// Guard returns the bearer token middleware backed by the manager's signer
func (a *AccountController) Guard() fiber.Handler {
	tokens := a.Manager.Tokens()
	return jwtware.New(jwtware.Config{
		TokenValidator: jwtware.TokenValidatorFunc(func(raw string) (jwtware.AuthClaims, error) {
			claims, err := tokens.Validate(raw)
			if err != nil {
				return nil, err
			}
			return claims, nil
		}),
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(*AccountClaims); ok {
				return WithClaimsContext(ctx, ac)
			}
			return ctx
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			a.Logger.Debug("guard rejected request", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(Result{
				Success: false,
				Message: "Unauthorized",
			})
		},
	})
}

func (a *AccountController) Register(c *fiber.Ctx) error {
	payload := RegisterAccountMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return a.badRequest(c, err)
	}

	a.debugPayload("register", RegisterAccountMessage{
		Name:     payload.Name,
		Username: payload.Username,
		Email:    payload.Email,
	})

	if _, err := a.Manager.Register(c.UserContext(), payload); err != nil {
		return a.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(Succeeded(MessageRegistered))
}

func (a *AccountController) Verify(c *fiber.Ctx) error {
	if err := a.Manager.VerifyAccount(c.UserContext(), c.Params("code")); err != nil {
		return a.failPage(c, err)
	}

	return c.Render(a.Views.VerificationSuccess, fiber.Map{})
}

type authenticateResult struct {
	Result
	User  PublicAccount `json:"user"`
	Token string        `json:"token"`
}

func (a *AccountController) Authenticate(c *fiber.Ctx) error {
	payload := AuthenticateMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return a.badRequest(c, err)
	}

	a.debugPayload("authenticate", map[string]string{"username": payload.Username})

	resp, err := a.Manager.Authenticate(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return a.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(authenticateResult{
		Result: Succeeded(MessageLoggedIn),
		User:   resp.Account,
		Token:  "Bearer " + resp.Token,
	})
}

func (a *AccountController) Profile(c *fiber.Ctx) error {
	claims, ok := GetFiberClaims(c, "")
	if !ok {
		return a.fail(c, ErrTokenMalformed)
	}

	account, err := a.Manager.Profile(c.UserContext(), claims)
	if err != nil {
		return a.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": account})
}

func (a *AccountController) ResetPassword(c *fiber.Ctx) error {
	payload := InitializePasswordResetMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return a.badRequest(c, err)
	}

	a.debugPayload("reset-password", payload)

	if err := a.Manager.InitiatePasswordReset(c.UserContext(), payload.Email); err != nil {
		return a.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(Succeeded(MessageResetSent))
}

func (a *AccountController) ResetPasswordPage(c *fiber.Ctx) error {
	token := c.Params("token")
	if _, err := a.Manager.ValidateResetToken(c.UserContext(), token); err != nil {
		return a.failPage(c, err)
	}

	return c.Render(a.Views.PasswordReset, fiber.Map{
		"token":  token,
		"action": a.resetAction(c),
	})
}

func (a *AccountController) ResetPasswordNow(c *fiber.Ctx) error {
	payload := FinalizePasswordResetMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return a.badRequest(c, err)
	}

	if err := a.Manager.CompletePasswordReset(c.UserContext(), payload.Token, payload.Password); err != nil {
		return a.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(Succeeded(MessageResetComplete))
}

// resetAction is the form target, next to the page under the same mount
func (a *AccountController) resetAction(c *fiber.Ctx) string {
	path := c.Path()
	page := strings.TrimSuffix(a.Routes.ResetPage, "/:token")
	if i := strings.LastIndex(path, page); i >= 0 {
		return path[:i] + a.Routes.ResetPasswordNow
	}
	return a.Routes.ResetPasswordNow
}

func (a *AccountController) fail(c *fiber.Ctx, err error) error {
	status := StatusFromError(err)
	if status >= fiber.StatusInternalServerError {
		a.Logger.Error("account request failed", "path", c.Path(), "error", err)
	} else {
		a.Logger.Debug("account request rejected", "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(ResultFromError(err))
}

func (a *AccountController) failPage(c *fiber.Ctx, err error) error {
	status := StatusFromError(err)
	if status >= fiber.StatusInternalServerError {
		a.Logger.Error("account page failed", "path", c.Path(), "error", err)
	}

	res := ResultFromError(err)
	return c.Status(status).Render(a.Views.Errors, fiber.Map{
		"message": res.Message,
	})
}

func (a *AccountController) badRequest(c *fiber.Ctx, err error) error {
	a.Logger.Debug("unable to parse request body", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusBadRequest).JSON(Result{
		Success:  false,
		Message:  "Invalid request body",
		TextCode: TextCodeValidationFailed,
	})
}

func (a *AccountController) debugPayload(name string, payload any) {
	if !a.Debug {
		return
	}
	a.Logger.Debug("request payload", "endpoint", name, "payload", print.MaybePrettyJSON(payload))
}
