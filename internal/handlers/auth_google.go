package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/accounts"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOAuthHandler struct {
	Accounts        *accounts.AccountService
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
	SecureCookie    bool
	Logger          *zap.Logger
}

// Enabled reports whether Google sign-in is configured.
func (h *GoogleOAuthHandler) Enabled() bool {
	return h.GoogleClientID != "" && h.GoogleSecret != ""
}

func (h *GoogleOAuthHandler) Routes(r fiber.Router) {
	if !h.Enabled() {
		return
	}
	r.Get("/auth/google/start", h.GoogleStart)
	r.Get("/auth/google/callback", h.GoogleCallback)
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (h *GoogleOAuthHandler) shortCookie(c *fiber.Ctx, name, value string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: "Lax",
		MaxAge:   maxAge,
	})
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	next := c.Query("next", "/dashboard")
	st := randomState(32)

	h.shortCookie(c, "oauth_state", st, 10*60)
	h.shortCookie(c, "oauth_next", next, 10*60)

	return c.Redirect(h.oauthCfg().AuthCodeURL(st), http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// GoogleCallback signs the user in and passes the token to the frontend in
// the URL fragment.
func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return h.fail(c, "Missing code or state")
	}
	if st := c.Cookies("oauth_state"); st == "" || st != state {
		return h.fail(c, "Invalid state")
	}
	next := c.Cookies("oauth_next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/dashboard"
	}

	tok, err := h.oauthCfg().Exchange(c.UserContext(), code)
	if err != nil {
		h.Logger.Warn("google code exchange failed", zap.Error(err))
		return h.fail(c, "Google sign-in failed")
	}

	resp, err := h.oauthCfg().Client(c.UserContext(), tok).Get(googleUserInfoURL)
	if err != nil {
		h.Logger.Warn("google userinfo failed", zap.Error(err))
		return h.fail(c, "Google sign-in failed")
	}
	defer resp.Body.Close()

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil || !gu.VerifiedEmail {
		return h.fail(c, "Google account email is not verified")
	}

	u, err := h.Accounts.UpsertGoogleUser(c.UserContext(), gu.Email, gu.Name)
	if err != nil {
		h.Logger.Warn("google user upsert failed", zap.Error(err))
		return h.fail(c, "Google sign-in failed")
	}
	token, err := h.Accounts.IssueToken(u)
	if err != nil {
		return err
	}

	h.shortCookie(c, "oauth_state", "", -1)
	h.shortCookie(c, "oauth_next", "", -1)

	frag := url.Values{"token": {token}, "next": {next}}
	return c.Redirect(h.FrontendBaseURL+"/auth/callback#"+frag.Encode(), http.StatusTemporaryRedirect)
}

func (h *GoogleOAuthHandler) fail(c *fiber.Ctx, msg string) error {
	return c.Redirect(h.FrontendBaseURL+"/login?err="+url.QueryEscape(msg), http.StatusTemporaryRedirect)
}
