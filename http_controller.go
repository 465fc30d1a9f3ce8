package accounts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountControllerOption) {

	controller := NewAccountController(opts...)

	app.
		Get(controller.Routes.SignIn,
			controller.SignInShow,
		).
		SetName("sign-in.get")

	app.
		Post(
			controller.Routes.SignIn,
			controller.SignInPost,
		).
		SetName("sign-in.post")

	app.Get(controller.Routes.SignOut, controller.SignOut).SetName("sign-out.get")

	app.Get(controller.Routes.SignUp, controller.SignUpShow).
		SetName("sign-up.get")
	app.Post(controller.Routes.SignUp, controller.SignUpPost).
		SetName("sign-up.post")

	app.Get(controller.Routes.ForgotPassword, controller.ForgotPasswordShow).
		SetName("forgot-password.get")
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).
		SetName("forgot-password.post")

	app.Get(controller.Routes.Confirm, controller.ConfirmGet).
		SetName("confirm.get")

	protected := controller.Guard.ProtectedRoute(nil)

	app.Get(controller.Routes.ResetPassword, protected(controller.ResetPasswordShow)).
		SetName("reset-password.get")
	app.Post(controller.Routes.ResetPassword, protected(controller.ResetPasswordPost)).
		SetName("reset-password.post")

	app.Get(controller.Routes.CompleteProfile, protected(controller.CompleteProfileShow)).
		SetName("complete-profile.get")
	app.Post(controller.Routes.CompleteProfile, protected(controller.CompleteProfilePost)).
		SetName("complete-profile.post")

	app.Get(controller.Routes.Dashboard, protected(controller.DashboardShow)).
		SetName("dashboard.get")

	app.Post(controller.Routes.DeleteAccount, protected(controller.DeleteAccountPost)).
		SetName("delete-account.post")
}

type AccountControllerRoutes struct {
	SignIn          string
	SignOut         string
	SignUp          string
	ForgotPassword  string
	ResetPassword   string
	Confirm         string
	CompleteProfile string
	Dashboard       string
	DeleteAccount   string
}

type AccountControllerViews struct {
	SignIn          string
	SignUp          string
	ForgotPassword  string
	ResetPassword   string
	CompleteProfile string
	Dashboard       string
}

type AccountController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Client       IdentityClient
	Admin        AdminClient
	Storage      BlobStorage
	Guard        *SessionGuard
	Config       Config
	Routes       *AccountControllerRoutes
	Views        *AccountControllerViews
	ErrorHandler router.ErrorHandler
}

type AccountControllerOption func(*AccountController) *AccountController

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger: defLogger{},
		Routes: &AccountControllerRoutes{
			SignIn:          "/login",
			SignOut:         "/logout",
			SignUp:          "/auth/signup",
			ForgotPassword:  "/auth/forgot-password",
			ResetPassword:   "/auth/reset-password",
			Confirm:         "/auth/confirm",
			CompleteProfile: "/auth/complete-profile",
			Dashboard:       "/dashboard",
			DeleteAccount:   "/account/delete",
		},
		Views: &AccountControllerViews{
			SignIn:          "login",
			SignUp:          "signup",
			ForgotPassword:  "forgot_password",
			ResetPassword:   "reset_password",
			CompleteProfile: "complete_profile",
			Dashboard:       "dashboard",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Client == nil {
		panic("Missing IdentityClient in account controller...")
	}

	if c.Guard == nil {
		panic("Missing SessionGuard in account controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.Guard.ErrorHandler
	}

	return c
}

func (a *AccountController) SignInShow(ctx router.Context) error {
	return ctx.Render(a.Views.SignIn, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// SignInPayload is the credential form
type SignInPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignInPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AccountController) SignInPost(ctx router.Context) error {
	payload := new(SignInPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign in parse payload: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.SignIn, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= SIGN IN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("======================")
	}

	var res *SignInResponse
	req := SignInMessage{
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(resp *SignInResponse) {
			res = resp
		},
	}

	signIn := NewSignInHandler(a.Client).WithLogger(a.Logger)

	if err := signIn.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("sign in error: ", "error", err)
		return ctx.Render(a.Views.SignIn, router.ViewContext{
			"record": payload,
			"errors": map[string]string{
				"authentication": UserMessage(err),
			},
		})
	}

	a.Guard.Establish(ctx, res.Session)

	redirect := a.Guard.GetRedirect(ctx, a.Routes.Dashboard)

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *AccountController) SignOut(ctx router.Context) error {
	a.Guard.Logout(ctx)
	return ctx.Redirect("/", router.StatusTemporaryRedirect)
}

func (a *AccountController) SignUpShow(ctx router.Context) error {
	return ctx.Render(a.Views.SignUp, router.ViewContext{
		"errors": map[string]string{},
		"record": SignUpMessage{},
	})
}

// SignUpPayload is the registration form
type SignUpPayload struct {
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r SignUpPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AccountController) SignUpPost(ctx router.Context) error {
	payload := new(SignUpPayload)

	if err := ctx.Bind(payload); err != nil {
		errs := map[string]string{}
		errs["form"] = "Failed to parse form"
		a.Logger.Error("sign up parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.SignUp, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("sign up validate payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.SignUp, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var res *SignUpResponse
	req := SignUpMessage{
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(resp *SignUpResponse) {
			res = resp
		},
	}

	signUp := NewSignUpHandler(a.Client).WithLogger(a.Logger)

	if err := signUp.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("sign up error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  UserMessage(err),
			"system_message": "Error registering account",
		}).Render(a.Views.SignUp, router.ViewContext{
			"record": payload,
			"errors": []string{UserMessage(err)},
		})
	}

	return ctx.Render(a.Views.SignUp, router.ViewContext{
		"errors": map[string]string{},
		"notice": res.Acknowledgment,
	})
}

func (a *AccountController) ForgotPasswordShow(ctx router.Context) error {
	return ctx.Render(a.Views.ForgotPassword, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// ForgotPasswordPayload holds the address to send the recovery link to
type ForgotPasswordPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *AccountController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		errs := map[string]string{}
		errs["form"] = "Failed to parse form"
		a.Logger.Error("forgot password parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.ForgotPassword, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("forgot password validate payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.ForgotPassword, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var res *InitializePasswordResetResponse
	req := InitializePasswordResetMessage{
		Email: payload.Email,
		OnResponse: func(resp *InitializePasswordResetResponse) {
			res = resp
		},
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Client, a.Config).WithLogger(a.Logger)

	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("forgot password error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  UserMessage(err),
			"system_message": "Error requesting password reset",
		}).Render(a.Views.ForgotPassword, router.ViewContext{
			"record": payload,
			"errors": []string{UserMessage(err)},
		})
	}

	return ctx.Render(a.Views.ForgotPassword, router.ViewContext{
		"errors": map[string]string{},
		"notice": res.Acknowledgment,
	})
}

func (a *AccountController) ConfirmGet(ctx router.Context) error {
	tokenHash := ctx.Query("token_hash", "")
	tokenType := ctx.Query("type", "")
	next := ctx.Query("next", "")

	var res *ConfirmTokenResponse
	req := ConfirmTokenMessage{
		TokenType: OTPType(tokenType),
		TokenHash: tokenHash,
		Next:      next,
		OnResponse: func(resp *ConfirmTokenResponse) {
			res = resp
		},
	}

	confirm := NewConfirmTokenHandler(a.Client).WithLogger(a.Logger)

	if err := confirm.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("confirm token error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if res.Verified {
		a.Guard.Establish(ctx, res.Session)
	}

	// email clients prefetch links, keep the hop a plain 302
	return ctx.Redirect(res.RedirectTo, http.StatusFound)
}

func (a *AccountController) ResetPasswordShow(ctx router.Context) error {
	return ctx.Render(a.Views.ResetPassword, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// ResetPasswordPayload holds the replacement credential
type ResetPasswordPayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(6, 100),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AccountController) ResetPasswordPost(ctx router.Context) error {
	payload := new(ResetPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("reset password validate payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.ResetPassword, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := FinalizePasswordResetMessage{
		AccessToken: a.Guard.Accessor().Token(ctx),
		Password:    payload.Password,
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Client).WithLogger(a.Logger)

	if err := finalizePwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("reset password error: ", "error", err)
		return ctx.Render(a.Views.ResetPassword, router.ViewContext{
			"record": payload,
			"errors": map[string]string{
				"password": UserMessage(err),
			},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Password updated",
	}).Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
}

func (a *AccountController) CompleteProfileShow(ctx router.Context) error {
	identity, ok := IdentityFromRouter(ctx)
	if !ok {
		return a.Guard.AuthErrorHandler(ctx, ErrNotAuthenticated)
	}

	profile := a.lookupProfile(ctx, identity)

	return ctx.Render(a.Views.CompleteProfile, router.ViewContext{
		"errors":   nil,
		"identity": identity,
		"record":   profile,
	})
}

// ProfileUpdatePayload is the profile form, file field excluded
type ProfileUpdatePayload struct {
	Username string `form:"username" json:"username"`
	FullName string `form:"full_name" json:"full_name"`
	Website  string `form:"website" json:"website"`
}

// Validate will validate the payload
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.FullName, validation.Length(0, 200)),
		validation.Field(&r.Website, is.URL),
	)
}

func (a *AccountController) CompleteProfilePost(ctx router.Context) error {
	identity, ok := IdentityFromRouter(ctx)
	if !ok {
		return a.Guard.AuthErrorHandler(ctx, ErrNotAuthenticated)
	}

	payload := new(ProfileUpdatePayload)

	avatar, err := bindProfileForm(ctx, payload)
	if err != nil {
		a.Logger.Error("profile parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.CompleteProfile, router.ViewContext{
			"errors":   map[string]string{"form": "Failed to parse form"},
			"identity": identity,
			"record":   payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("profile validate payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.CompleteProfile, router.ViewContext{
			"identity":   identity,
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := UpdateProfileMessage{
		Identity: identity,
		Username: payload.Username,
		FullName: payload.FullName,
		Website:  payload.Website,
		Avatar:   avatar,
	}

	updateProfile := NewUpdateProfileHandler(a.Repo, a.Storage, a.Config).WithLogger(a.Logger)

	if err := updateProfile.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("profile update error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  UserMessage(err),
			"system_message": "Error updating profile",
		}).Render(a.Views.CompleteProfile, router.ViewContext{
			"identity": identity,
			"record":   payload,
			"errors":   []string{UserMessage(err)},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Profile updated",
	}).Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
}

func (a *AccountController) DashboardShow(ctx router.Context) error {
	identity, ok := IdentityFromRouter(ctx)
	if !ok {
		return a.Guard.AuthErrorHandler(ctx, ErrNotAuthenticated)
	}

	profile := a.lookupProfile(ctx, identity)

	return ctx.Render(a.Views.Dashboard, router.ViewContext{
		"identity": identity,
		"profile":  profile,
	})
}

func (a *AccountController) DeleteAccountPost(ctx router.Context) error {
	identity, ok := IdentityFromRouter(ctx)
	if !ok {
		return a.Guard.AuthErrorHandler(ctx, ErrNotAuthenticated)
	}

	req := DeleteAccountMessage{
		Identity: identity,
	}

	deleteAccount := NewDeleteAccountHandler(a.Admin, a.Repo).WithLogger(a.Logger)

	if err := deleteAccount.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("delete account error: ", "error", err)
		// deletion failed, the session stays valid
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  UserMessage(err),
			"system_message": "Error deleting account",
		}).Render(a.Views.Dashboard, router.ViewContext{
			"identity": identity,
			"profile":  a.lookupProfile(ctx, identity),
			"errors":   []string{UserMessage(err)},
		})
	}

	a.Guard.Logout(ctx)

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Account deleted",
	}).Redirect("/", fiber.StatusSeeOther)
}

func (a *AccountController) lookupProfile(ctx router.Context, identity *Identity) *Profile {
	if a.Repo == nil {
		return &Profile{ID: identity.ID}
	}

	profile, err := a.Repo.Profiles().GetByIdentifier(ctx.Context(), identity.ID.String())
	if err != nil {
		return &Profile{ID: identity.ID}
	}
	return profile
}

// bindProfileForm binds the profile fields and, for multipart submissions,
// extracts the avatar file as well. Router contexts expose the raw body only,
// so multipart parsing happens here.
func bindProfileForm(ctx router.Context, payload *ProfileUpdatePayload) (*AvatarUpload, error) {
	mediaType, params, err := mime.ParseMediaType(ctx.Header("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return nil, ctx.Bind(payload)
	}

	boundary, ok := params["boundary"]
	if !ok {
		return nil, errors.New("multipart form without boundary")
	}

	var avatar *AvatarUpload

	mr := multipart.NewReader(bytes.NewReader(ctx.Body()), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		content, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, err
		}

		switch part.FormName() {
		case "username":
			payload.Username = string(content)
		case "full_name":
			payload.FullName = string(content)
		case "website":
			payload.Website = string(content)
		case "avatar":
			if part.FileName() != "" && len(content) > 0 {
				avatar = &AvatarUpload{
					Filename:    part.FileName(),
					ContentType: part.Header.Get("Content-Type"),
					Content:     content,
				}
			}
		}
	}

	return avatar, nil
}

// FormatValidationErrorToMap flattens validation errors into a field keyed map
// templates can consume.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
