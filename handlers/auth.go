// ABOUTME: WeChat QR and phone OTP login endpoints
// ABOUTME: Flow failures are {success:false} JSON with HTTP 200, not error statuses

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/canvasai/mixboard/backend/middleware"
	"github.com/canvasai/mixboard/backend/models"
	"github.com/canvasai/mixboard/backend/services"
)

// publicUser is the client-facing shape of a User.
type publicUser struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

func toPublicUser(u *models.User) *publicUser {
	if u == nil {
		return nil
	}
	return &publicUser{ID: u.ID, Nickname: u.Nickname, Avatar: u.Avatar}
}

// WeChatQRCode starts a QR login attempt and returns the authorization URL.
func (h *Handler) WeChatQRCode(w http.ResponseWriter, r *http.Request) {
	state := h.store.CreateLoginState()

	h.writeData(w, map[string]interface{}{
		"state":      state,
		"qrcodeUrl":  h.wechat.AuthorizeURL(h.cfg.WeChatRedirectURI, state),
		"configured": h.wechat.Configured(),
	})
}

// WeChatCallback is where WeChat redirects after the user scans and approves.
// It exchanges the code, upserts the user, confirms the login state, and
// bounces the browser back to the client.
func (h *Handler) WeChatCallback(w http.ResponseWriter, r *http.Request) {
	redirect := func(query string) {
		http.Redirect(w, r, h.cfg.CORSOrigin+query, http.StatusFound)
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		redirect("?error=invalid_request")
		return
	}

	if _, ok := h.store.GetLoginState(state); !ok {
		redirect("?error=state_expired")
		return
	}
	h.store.MarkScanned(state)

	accessToken, openid, err := h.wechat.ExchangeCode(r.Context(), code)
	if err != nil {
		slog.Error("WeChat token exchange failed", "error", middleware.Redact(err.Error()))
		h.store.ExpireLogin(state)
		redirect("?error=wechat_error")
		return
	}

	profile, err := h.wechat.FetchProfile(r.Context(), accessToken, openid)
	if err != nil {
		slog.Error("WeChat profile fetch failed", "error", middleware.Redact(err.Error()))
		h.store.ExpireLogin(state)
		redirect("?error=wechat_error")
		return
	}

	user := h.store.UpsertWeChatUser(profile.OpenID, profile.Nickname, profile.HeadImgURL)
	h.store.ConfirmLogin(state, user)

	redirect("?login=success&state=" + state)
}

// WeChatStatus is the 2-second polling endpoint. A confirmed state is
// consumed on first observation; unknown and expired tokens both read as
// "scan again".
func (h *Handler) WeChatStatus(w http.ResponseWriter, r *http.Request) {
	state := r.PathValue("state")

	ls, ok := h.store.GetLoginState(state)
	if !ok {
		h.writeFlowError(w, services.ErrLoginExpired.Error())
		return
	}

	if ls.Status == models.LoginConfirmed && ls.User != nil {
		h.store.DeleteLoginState(state)
		h.writeData(w, map[string]interface{}{
			"status": ls.Status,
			"user":   toPublicUser(ls.User),
		})
		return
	}

	h.writeData(w, map[string]interface{}{"status": ls.Status})
}

// SendPhoneCode handles POST /api/auth/phone/send-code. The code is logged
// rather than sent; development mode echoes it for testing.
func (h *Handler) SendPhoneCode(w http.ResponseWriter, r *http.Request) error {
	var req models.SendCodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	if !services.ValidPhone(req.Phone) {
		h.writeFlowError(w, "请输入正确的手机号")
		return nil
	}

	code, err := h.store.IssueCode(req.Phone)
	if err != nil {
		if errors.Is(err, services.ErrResendTooSoon) {
			h.writeFlowError(w, err.Error())
			return nil
		}
		return err
	}

	// A real deployment would hand this to an SMS gateway.
	slog.Info("SMS verification code issued", "phone", req.Phone)

	resp := models.Response{Success: true, Message: "验证码已发送"}
	if h.cfg.Development() {
		h.writeJSON(w, http.StatusOK, struct {
			models.Response
			DevCode string `json:"devCode"`
		}{resp, code})
		return nil
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

// VerifyPhoneCode handles POST /api/auth/phone/verify. Success upserts
// exactly one user per phone number and returns it immediately.
func (h *Handler) VerifyPhoneCode(w http.ResponseWriter, r *http.Request) error {
	var req models.VerifyCodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	if !services.ValidPhone(req.Phone) {
		h.writeFlowError(w, "请输入正确的手机号")
		return nil
	}
	if !services.ValidCode(req.Code) {
		h.writeFlowError(w, "请输入6位验证码")
		return nil
	}

	if err := h.store.VerifyCode(req.Phone, req.Code); err != nil {
		h.writeFlowError(w, err.Error())
		return nil
	}

	user := h.store.UpsertPhoneUser(req.Phone)
	h.writeData(w, map[string]interface{}{"user": toPublicUser(user)})
	return nil
}

// CurrentUser resolves the X-User-ID header to a user, or null.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		h.writeData(w, map[string]interface{}{"user": nil})
		return
	}

	user, ok := h.store.FindUserByID(userID)
	if !ok {
		h.writeData(w, map[string]interface{}{"user": nil})
		return
	}
	h.writeData(w, map[string]interface{}{"user": toPublicUser(user)})
}

// Logout exists for client symmetry; there is no server session to clear.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, models.Response{Success: true, Message: "已登出"})
}
