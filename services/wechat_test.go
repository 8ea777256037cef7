// ABOUTME: Tests for the WeChat open-platform client
// ABOUTME: Runs against a local httptest stand-in for api.weixin.qq.com

package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeWeChat(t *testing.T, handler http.HandlerFunc) *WeChatClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewWeChatClient("wx-app-id", "wx-secret")
	c.APIBase = srv.URL
	return c
}

func TestWeChat_Configured(t *testing.T) {
	assert.True(t, NewWeChatClient("wx-app-id", "s").Configured())
	assert.False(t, NewWeChatClient("", "").Configured())
}

func TestWeChat_AuthorizeURL(t *testing.T) {
	c := NewWeChatClient("wx-app-id", "s")
	raw := c.AuthorizeURL("http://localhost:3001/api/auth/wechat/callback", "state-123")

	assert.True(t, strings.HasPrefix(raw, "https://open.weixin.qq.com/connect/qrconnect?"))
	assert.True(t, strings.HasSuffix(raw, "#wechat_redirect"))

	parsed, err := url.Parse(strings.TrimSuffix(raw, "#wechat_redirect"))
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "wx-app-id", q.Get("appid"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "snsapi_login", q.Get("scope"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "http://localhost:3001/api/auth/wechat/callback", q.Get("redirect_uri"))
}

func TestWeChat_ExchangeCode(t *testing.T) {
	c := fakeWeChat(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sns/oauth2/access_token", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "wx-app-id", q.Get("appid"))
		assert.Equal(t, "wx-secret", q.Get("secret"))
		assert.Equal(t, "the-code", q.Get("code"))
		assert.Equal(t, "authorization_code", q.Get("grant_type"))

		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-123",
			"openid":       "openid-1",
		})
	})

	token, openid, err := c.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "openid-1", openid)
}

func TestWeChat_ExchangeCodeError(t *testing.T) {
	c := fakeWeChat(t, func(w http.ResponseWriter, r *http.Request) {
		// WeChat reports failures as HTTP 200 plus errcode.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errcode": 40029,
			"errmsg":  "invalid code",
		})
	})

	_, _, err := c.ExchangeCode(context.Background(), "bad-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "微信获取 token 失败")
	assert.Contains(t, err.Error(), "40029")
}

func TestWeChat_FetchProfile(t *testing.T) {
	c := fakeWeChat(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sns/userinfo", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "tok-123", q.Get("access_token"))
		assert.Equal(t, "openid-1", q.Get("openid"))

		json.NewEncoder(w).Encode(map[string]string{
			"openid":     "openid-1",
			"nickname":   "小明",
			"headimgurl": "http://thirdwx.qlogo.cn/x.png",
		})
	})

	profile, err := c.FetchProfile(context.Background(), "tok-123", "openid-1")
	require.NoError(t, err)
	assert.Equal(t, "openid-1", profile.OpenID)
	assert.Equal(t, "小明", profile.Nickname)
	assert.Equal(t, "http://thirdwx.qlogo.cn/x.png", profile.HeadImgURL)
}

func TestWeChat_FetchProfileError(t *testing.T) {
	c := fakeWeChat(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errcode": 40003,
			"errmsg":  "invalid openid",
		})
	})

	_, err := c.FetchProfile(context.Background(), "tok", "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "微信获取用户信息失败")
}

func TestWeChat_Non200Response(t *testing.T) {
	c := fakeWeChat(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, _, err := c.ExchangeCode(context.Background(), "code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "微信接口响应异常")
}
