package dealer

import (
	stderrors "errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// DefaultSessionCookieName is the cookie carrying the opaque session token
const DefaultSessionCookieName = "dealer_session"

type DealerAuthControllerRoutes struct {
	Register      string
	Login         string
	Logout        string
	Me            string
	SetupPassword string
	VerifyDealer  string
	ApproveDealer string
}

type DealerAuthController struct {
	Debug      bool
	Logger     Logger
	Repo       RepositoryManager
	Routes     *DealerAuthControllerRoutes
	Sessions   *SessionService
	Verifier   *AdminTokenVerifier
	Bootstrap  *AdminBootstrap
	Sink       AuthSink
	Notifier   Notifier
	BaseURL    string
	CookieName string
}

type DealerAuthControllerOption func(*DealerAuthController) *DealerAuthController

func WithControllerLogger(l Logger) DealerAuthControllerOption {
	return func(c *DealerAuthController) *DealerAuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) DealerAuthControllerOption {
	return func(c *DealerAuthController) *DealerAuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerSessions(s *SessionService) DealerAuthControllerOption {
	return func(c *DealerAuthController) *DealerAuthController {
		c.Sessions = s
		return c
	}
}

func WithControllerVerifier(v *AdminTokenVerifier) DealerAuthControllerOption {
	return func(c *DealerAuthController) *DealerAuthController {
		c.Verifier = v
		return c
	}
}

func WithControllerSink(s AuthSink) DealerAuthControllerOption {
	return func(c *DealerAuthController) *DealerAuthController {
		c.Sink = normalizeAuthSink(s)
		return c
	}
}

func WithControllerNotifier(n Notifier) DealerAuthControllerOption {
	return func(c *DealerAuthController) *DealerAuthController {
		c.Notifier = n
		return c
	}
}

func WithControllerBaseURL(u string) DealerAuthControllerOption {
	return func(c *DealerAuthController) *DealerAuthController {
		c.BaseURL = strings.TrimRight(u, "/")
		return c
	}
}

func WithControllerCookieName(name string) DealerAuthControllerOption {
	return func(c *DealerAuthController) *DealerAuthController {
		if name != "" {
			c.CookieName = name
		}
		return c
	}
}

func NewDealerAuthController(opts ...DealerAuthControllerOption) *DealerAuthController {
	c := &DealerAuthController{
		Logger:     defLogger{},
		Sink:       noopAuthSink{},
		CookieName: DefaultSessionCookieName,
		Routes: &DealerAuthControllerRoutes{
			Register:      "/dealer/register",
			Login:         "/dealer/login",
			Logout:        "/dealer/logout",
			Me:            "/dealer/me",
			SetupPassword: "/dealer/setup-password",
			VerifyDealer:  "/admin/verify-dealer",
			ApproveDealer: "/admin/approve-dealer",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in dealer auth controller...")
	}

	if c.Sessions == nil {
		c.Sessions = NewSessionService(c.Repo, c.Sink, c.Logger)
	}

	if c.Bootstrap == nil {
		c.Bootstrap = NewAdminBootstrap(c.Repo)
	}

	return c
}

func RegisterDealerRoutes[T any](app router.Router[T], opts ...DealerAuthControllerOption) *DealerAuthController {
	controller := NewDealerAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("dealer.register.post")
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("dealer.login.post")
	app.Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("dealer.logout.post")
	app.Get(controller.Routes.Me, controller.MeGet).
		SetName("dealer.me.get")
	app.Post(controller.Routes.SetupPassword, controller.SetupPasswordPost).
		SetName("dealer.setup-password.post")

	app.Post(controller.Routes.VerifyDealer, controller.VerifyDealerPost).
		SetName("admin.verify-dealer.post")
	app.Post(controller.Routes.ApproveDealer, controller.ApproveDealerPost).
		SetName("admin.approve-dealer.post")

	return controller
}

// RegisterDealerPayload is the registration body
type RegisterDealerPayload struct {
	BusinessName               string `json:"business_name"`
	Email                      string `json:"email"`
	Phone                      string `json:"phone"`
	Whatsapp                   string `json:"whatsapp"`
	Location                   string `json:"location"`
	Address                    string `json:"address"`
	BusinessRegistrationNumber string `json:"business_registration_number"`
	Password                   string `json:"password"`
}

// Validate will run validation rules
func (r RegisterDealerPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BusinessName, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Required, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Whatsapp, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Location, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Password, validation.Required),
	)
}

// ValidatePhoneNumber checks the value parses as a dialable number,
// defaulting to the Nigerian region. Empty values pass; pair with
// validation.Required where the field is mandatory.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "NG")
	if err != nil {
		return stderrors.New("must be a valid phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return stderrors.New("must be a valid phone number")
	}
	return nil
}

func (a *DealerAuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterDealerPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	ip, ua := clientMeta(ctx)

	var resp *RegisterDealerResponse
	handler := NewRegisterDealerHandler(a.Repo, a.Sink, a.Logger)
	err := handler.Execute(ctx.Context(), RegisterDealerMessage{
		BusinessName:               payload.BusinessName,
		Email:                      payload.Email,
		Phone:                      payload.Phone,
		Whatsapp:                   payload.Whatsapp,
		Location:                   payload.Location,
		Address:                    payload.Address,
		BusinessRegistrationNumber: payload.BusinessRegistrationNumber,
		Password:                   payload.Password,
		IP:                         ip,
		UserAgent:                  ua,
		OnResponse: func(r *RegisterDealerResponse) {
			resp = r
		},
	})
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"success": true,
		"message": "Registration received. An administrator will review your account.",
		"dealer":  dealerJSON(resp.Dealer),
	})
}

// LoginDealerPayload is the login body
type LoginDealerPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginDealerPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *DealerAuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginDealerPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	ip, ua := clientMeta(ctx)

	var resp *LoginDealerResponse
	handler := NewLoginDealerHandler(a.Repo, a.Sink, a.Logger)
	err := handler.Execute(ctx.Context(), LoginDealerMessage{
		Email:     payload.Email,
		Password:  payload.Password,
		IP:        ip,
		UserAgent: ua,
		OnResponse: func(r *LoginDealerResponse) {
			resp = r
		},
	})
	if err != nil {
		return a.respondError(ctx, err)
	}

	a.setSessionCookie(ctx, resp.Session)

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"dealer":  dealerJSON(resp.Dealer),
		"session": map[string]any{
			"expires_at": resp.Session.ExpiresAt,
		},
	})
}

// SetupPasswordPayload is the password setup body
type SetupPasswordPayload struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate will run validation rules
func (r SetupPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.ConfirmPassword, validation.Required, validation.By(ValidateStringEquals(r.Password))),
	)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return stderrors.New("values must match")
		}
		return nil
	}
}

func (a *DealerAuthController) SetupPasswordPost(ctx router.Context) error {
	payload := new(SetupPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	ip, ua := clientMeta(ctx)

	var resp *SetupPasswordResponse
	handler := NewSetupPasswordHandler(a.Repo, a.Sink, a.Logger)
	err := handler.Execute(ctx.Context(), SetupPasswordMessage{
		Email:           payload.Email,
		Token:           payload.Token,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
		IP:              ip,
		UserAgent:       ua,
		OnResponse: func(r *SetupPasswordResponse) {
			resp = r
		},
	})
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"message": "Password set. Your account is now active.",
		"dealer":  dealerJSON(resp.Dealer),
	})
}

// AdminDealerActionPayload identifies the dealer an admin acts on
type AdminDealerActionPayload struct {
	DealerID string `json:"dealer_id"`
	Notes    string `json:"notes"`
}

// Validate will run validation rules
func (r AdminDealerActionPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DealerID, validation.Required, is.UUID),
		validation.Field(&r.Notes, validation.Length(0, 1000)),
	)
}

func (a *DealerAuthController) VerifyDealerPost(ctx router.Context) error {
	identity, err := a.adminIdentity(ctx)
	if err != nil {
		return a.respondError(ctx, err)
	}

	payload := new(AdminDealerActionPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	dealerID, err := uuid.Parse(payload.DealerID)
	if err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid dealer id").
			WithCode(goerrors.CodeBadRequest))
	}

	ip, ua := clientMeta(ctx)

	var resp *VerifyDealerResponse
	handler := NewVerifyDealerHandler(a.Repo, a.Bootstrap,
		WithVerifyDealerSink(a.Sink),
		WithVerifyDealerNotifier(a.Notifier),
		WithVerifyDealerLogger(a.Logger),
		WithVerifyDealerBaseURL(a.BaseURL),
	)
	err = handler.Execute(ctx.Context(), VerifyDealerMessage{
		DealerID:  dealerID,
		Actor:     identity,
		Notes:     payload.Notes,
		IP:        ip,
		UserAgent: ua,
		OnResponse: func(r *VerifyDealerResponse) {
			resp = r
		},
	})
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":     true,
		"message":     "Dealer verified. Setup link issued.",
		"dealer":      dealerJSON(resp.Dealer),
		"setup_link":  resp.SetupLink,
		"setup_token": resp.SetupToken,
	})
}

func (a *DealerAuthController) ApproveDealerPost(ctx router.Context) error {
	identity, err := a.adminIdentity(ctx)
	if err != nil {
		return a.respondError(ctx, err)
	}

	payload := new(AdminDealerActionPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidation(ctx, err)
	}

	dealerID, err := uuid.Parse(payload.DealerID)
	if err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid dealer id").
			WithCode(goerrors.CodeBadRequest))
	}

	ip, ua := clientMeta(ctx)

	var resp *ApproveDealerResponse
	handler := NewApproveDealerHandler(a.Repo, a.Bootstrap,
		WithApproveDealerSink(a.Sink),
		WithApproveDealerNotifier(a.Notifier),
		WithApproveDealerLogger(a.Logger),
	)
	err = handler.Execute(ctx.Context(), ApproveDealerMessage{
		DealerID:  dealerID,
		Actor:     identity,
		Notes:     payload.Notes,
		IP:        ip,
		UserAgent: ua,
		OnResponse: func(r *ApproveDealerResponse) {
			resp = r
		},
	})
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"message": "Dealer approved and activated.",
		"dealer":  dealerJSON(resp.Dealer),
	})
}

func (a *DealerAuthController) MeGet(ctx router.Context) error {
	token := ctx.Cookies(a.CookieName, "")

	record, err := a.Sessions.Validate(ctx.Context(), token)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"dealer":  dealerJSON(record),
	})
}

// LogoutPost always succeeds; the cookie is cleared whether or not the
// session still existed.
func (a *DealerAuthController) LogoutPost(ctx router.Context) error {
	token := ctx.Cookies(a.CookieName, "")

	if err := a.Sessions.Revoke(ctx.Context(), token); err != nil {
		a.Logger.Warn("session revoke failed: %v", err)
	}

	a.clearSessionCookie(ctx)

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out",
	})
}

func (a *DealerAuthController) adminIdentity(ctx router.Context) (ExternalIdentity, error) {
	if a.Verifier == nil {
		return ExternalIdentity{}, ErrUnauthenticated
	}

	header := ctx.GetString("Authorization", "")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ExternalIdentity{}, ErrUnauthenticated
	}

	return a.Verifier.ParseIdentity(strings.TrimSpace(token))
}

func (a *DealerAuthController) setSessionCookie(ctx router.Context, session *DealerSession) {
	ctx.Cookie(&router.Cookie{
		Name:     a.CookieName,
		Value:    session.SessionToken,
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
		Path:     "/",
	})
}

func (a *DealerAuthController) clearSessionCookie(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     a.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
		Path:     "/",
	})
}

func (a *DealerAuthController) respondValidation(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error":      "Validation failed",
		"validation": FormatValidationErrorToMap(err),
	})
}

func (a *DealerAuthController) respondError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	if richErr.Code >= 500 {
		a.Logger.Error("dealer auth handler error: %v", richErr)
	} else {
		a.Logger.Debug("dealer auth handler rejection: %s (%s)", richErr.Message, richErr.TextCode)
	}

	body := map[string]any{
		"error": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}
	for _, key := range []string{"status", "needs_password_setup", "locked_until", "attempts_remaining", "requirements"} {
		if v, ok := richErr.Metadata[key]; ok {
			body[key] = v
		}
	}

	return ctx.JSON(richErr.Code, body)
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field->message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	var verrs validation.Errors
	if stderrors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}
	if err != nil {
		out["payload"] = err.Error()
	}
	return out
}

func dealerJSON(d *Dealer) map[string]any {
	if d == nil {
		return nil
	}
	return map[string]any{
		"id":            d.ID,
		"business_name": d.BusinessName,
		"email":         d.Email,
		"status":        d.Status,
	}
}

func clientMeta(ctx router.Context) (ip, userAgent string) {
	ip = ctx.GetString("X-Forwarded-For", "")
	if idx := strings.IndexByte(ip, ','); idx >= 0 {
		ip = strings.TrimSpace(ip[:idx])
	}
	userAgent = ctx.GetString("User-Agent", "")
	return ip, userAgent
}
