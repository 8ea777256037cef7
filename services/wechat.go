// ABOUTME: WeChat open-platform client for the QR login flow
// ABOUTME: Builds the authorize URL, exchanges codes for tokens, fetches profiles

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	wechatOpenBase = "https://open.weixin.qq.com"
	wechatAPIBase  = "https://api.weixin.qq.com"
)

// WeChatProfile is the subset of the userinfo response this service uses.
type WeChatProfile struct {
	OpenID     string `json:"openid"`
	Nickname   string `json:"nickname"`
	HeadImgURL string `json:"headimgurl"`
	UnionID    string `json:"unionid,omitempty"`
}

// wechatError is how the WeChat API reports failures: HTTP 200 plus errcode.
type wechatError struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// WeChatClient wraps the two upstream calls of the QR login flow. APIBase is
// overridable so tests can point it at a local server.
type WeChatClient struct {
	AppID     string
	AppSecret string
	APIBase   string
	client    *http.Client
}

func NewWeChatClient(appID, appSecret string) *WeChatClient {
	return &WeChatClient{
		AppID:     appID,
		AppSecret: appSecret,
		APIBase:   wechatAPIBase,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether QR login can actually complete.
func (c *WeChatClient) Configured() bool {
	return c.AppID != ""
}

// AuthorizeURL builds the open-platform QR authorization URL the client
// renders as a QR code.
func (c *WeChatClient) AuthorizeURL(redirectURI, state string) string {
	return fmt.Sprintf(
		"%s/connect/qrconnect?appid=%s&redirect_uri=%s&response_type=code&scope=snsapi_login&state=%s#wechat_redirect",
		wechatOpenBase, url.QueryEscape(c.AppID), url.QueryEscape(redirectURI), url.QueryEscape(state),
	)
}

// ExchangeCode trades an authorization code for an access token and openid.
func (c *WeChatClient) ExchangeCode(ctx context.Context, code string) (accessToken, openid string, err error) {
	endpoint := fmt.Sprintf(
		"%s/sns/oauth2/access_token?appid=%s&secret=%s&code=%s&grant_type=authorization_code",
		c.APIBase, url.QueryEscape(c.AppID), url.QueryEscape(c.AppSecret), url.QueryEscape(code),
	)

	var payload struct {
		wechatError
		AccessToken string `json:"access_token"`
		OpenID      string `json:"openid"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return "", "", err
	}
	if payload.ErrCode != 0 {
		return "", "", fmt.Errorf("微信获取 token 失败: %d %s", payload.ErrCode, payload.ErrMsg)
	}
	return payload.AccessToken, payload.OpenID, nil
}

// FetchProfile retrieves the user profile for a token/openid pair.
func (c *WeChatClient) FetchProfile(ctx context.Context, accessToken, openid string) (*WeChatProfile, error) {
	endpoint := fmt.Sprintf(
		"%s/sns/userinfo?access_token=%s&openid=%s",
		c.APIBase, url.QueryEscape(accessToken), url.QueryEscape(openid),
	)

	var payload struct {
		wechatError
		WeChatProfile
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if payload.ErrCode != 0 {
		return nil, fmt.Errorf("微信获取用户信息失败: %d %s", payload.ErrCode, payload.ErrMsg)
	}
	return &payload.WeChatProfile, nil
}

func (c *WeChatClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("微信接口响应异常: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
