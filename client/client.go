package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/guyr22/web-dev-final-project/internal/models"
)

// ErrSessionExpired means the session could not be kept alive: there
// was no refresh token, or the server rejected it. The session has
// been cleared; the caller must log in again.
var ErrSessionExpired = errors.New("session expired, please log in again")

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

func New(baseURL string, session *Session) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    session,
	}
}

type tokenPair struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	User         models.PublicUser `json:"user"`
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*models.PublicUser, error) {
	return c.startSession(ctx, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.PublicUser, error) {
	return c.startSession(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) GoogleLogin(ctx context.Context, idToken string) (*models.PublicUser, error) {
	return c.startSession(ctx, "/auth/google", map[string]string{
		"idToken": idToken,
	})
}

func (c *Client) startSession(ctx context.Context, path string, body any) (*models.PublicUser, error) {
	var session tokenPair
	if err := c.plainJSON(ctx, http.MethodPost, path, body, &session); err != nil {
		return nil, err
	}
	if err := c.session.SetTokens(session.AccessToken, session.RefreshToken); err != nil {
		return nil, err
	}
	if err := c.session.SetUser(&session.User); err != nil {
		return nil, err
	}
	return &session.User, nil
}

// Logout revokes this session's refresh token on the server, then
// clears local state regardless of the server's answer.
func (c *Client) Logout(ctx context.Context) error {
	refreshToken := c.session.RefreshToken()
	defer c.session.Clear()

	if refreshToken == "" {
		return nil
	}
	return c.plainJSON(ctx, http.MethodPost, "/auth/logout", map[string]string{
		"refreshToken": refreshToken,
	}, nil)
}

func (c *Client) Me(ctx context.Context) (*models.PublicUser, error) {
	var user models.PublicUser
	if err := c.authedJSON(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	c.session.SetUser(&user)
	return &user, nil
}

func (c *Client) UpdateBio(ctx context.Context, bio string) (*models.PublicUser, error) {
	body, contentType, err := multipartBody(map[string]string{"bio": bio}, "", "", nil)
	if err != nil {
		return nil, err
	}
	var user models.PublicUser
	if err := c.authed(ctx, http.MethodPut, "/users/me", body, contentType, &user); err != nil {
		return nil, err
	}
	c.session.SetUser(&user)
	return &user, nil
}

func (c *Client) Posts(ctx context.Context, owner, tag string) ([]models.Post, error) {
	path := "/posts"
	var params []string
	if owner != "" {
		params = append(params, "owner="+owner)
	}
	if tag != "" {
		params = append(params, "tag="+tag)
	}
	if len(params) > 0 {
		path += "?" + strings.Join(params, "&")
	}

	var posts []models.Post
	if err := c.authedJSON(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) CreatePost(ctx context.Context, title, content string, image io.Reader, imageName string) (*models.Post, error) {
	var imageData []byte
	if image != nil {
		var err error
		imageData, err = io.ReadAll(image)
		if err != nil {
			return nil, fmt.Errorf("reading image: %w", err)
		}
	}

	body, contentType, err := multipartBody(map[string]string{
		"title":   title,
		"content": content,
	}, "image", imageName, imageData)
	if err != nil {
		return nil, err
	}

	var post models.Post
	if err := c.authed(ctx, http.MethodPost, "/posts", body, contentType, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) LikePost(ctx context.Context, postID string) (likes int, isLiked bool, err error) {
	var state struct {
		Likes   int  `json:"likes"`
		IsLiked bool `json:"isLiked"`
	}
	if err := c.authedJSON(ctx, http.MethodPost, "/posts/"+postID+"/like", nil, &state); err != nil {
		return 0, false, err
	}
	return state.Likes, state.IsLiked, nil
}

func (c *Client) CommentPost(ctx context.Context, postID, content string) (*models.Post, error) {
	var post models.Post
	err := c.authedJSON(ctx, http.MethodPost, "/posts/"+postID+"/comments",
		map[string]string{"content": content}, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// authedJSON performs an authenticated JSON call with the single
// refresh-and-retry behavior.
func (c *Client) authedJSON(ctx context.Context, method, path string, body, dst any) error {
	payload, contentType, err := jsonBody(body)
	if err != nil {
		return err
	}
	return c.authed(ctx, method, path, payload, contentType, dst)
}

// authed sends the request with the current access token. On a 401 it
// refreshes the access token and resends the original request exactly
// once; a second 401 propagates as an APIError. When the refresh
// itself fails the session is cleared and ErrSessionExpired wraps the
// cause.
func (c *Client) authed(ctx context.Context, method, path string, payload []byte, contentType string, dst any) error {
	resp, err := c.send(ctx, method, path, payload, contentType, c.session.AccessToken())
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		original := responseError(resp)

		if err := c.refreshAccessToken(ctx); err != nil {
			// Keep the 401 that triggered the refresh inspectable
			// alongside ErrSessionExpired.
			return errors.Join(err, original)
		}

		resp, err = c.send(ctx, method, path, payload, contentType, c.session.AccessToken())
		if err != nil {
			return err
		}
	}

	return decodeResponse(resp, dst)
}

// refreshAccessToken exchanges the stored refresh token for a new
// access token. The refresh token itself is unchanged; the server does
// not rotate it. Any failure clears the session.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		c.session.Clear()
		return fmt.Errorf("%w: no refresh token stored", ErrSessionExpired)
	}

	var result struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.plainJSON(ctx, http.MethodPost, "/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	}, &result); err != nil {
		c.session.Clear()
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	return c.session.SetAccessToken(result.AccessToken)
}

// plainJSON bypasses the retry logic entirely; the auth endpoints must
// never recurse into a refresh.
func (c *Client) plainJSON(ctx context.Context, method, path string, body, dst any) error {
	payload, contentType, err := jsonBody(body)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, method, path, payload, contentType, "")
	if err != nil {
		return err
	}
	return decodeResponse(resp, dst)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, contentType, accessToken string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.httpClient.Do(req)
}

func jsonBody(body any) ([]byte, string, error) {
	if body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("encoding request body: %w", err)
	}
	return data, "application/json", nil
}

func multipartBody(fields map[string]string, fileField, fileName string, fileData []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if fileField != "" && fileData != nil {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(fileData); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func decodeResponse(resp *http.Response, dst any) error {
	if resp.StatusCode >= 400 {
		return responseError(resp)
	}
	defer resp.Body.Close()

	if dst == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// responseError consumes the body and converts it to an *APIError.
func responseError(resp *http.Response) *APIError {
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&msg); err == nil && msg.Message != "" {
		apiErr.Message = msg.Message
	}
	return apiErr
}
