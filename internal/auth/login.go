package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/oauth2"
)

// loginPath is the provider's credential endpoint on the auth domain.
const loginPath = "/usernamepassword/login"

// csrfCookieName is the session cookie the login page sets on first load.
const csrfCookieName = "_csrf"

// AuthenticateWithCredentials performs the full browser-emulated login flow:
// it initiates an authorize request to capture a CSRF token, POSTs the
// credentials, follows the redirect chain (including the HTML auto-submit
// fallback), extracts the authorization code and exchanges it for a token.
//
// Provider rejections (wrong credentials) are reported as *AuthError with
// KindBadCredentials, distinct from transport failures.
func AuthenticateWithCredentials(ctx context.Context, cfg *oauth2.Config, username, password string) (*Token, error) {
	authz, err := BeginAuthorization(cfg, cfg.RedirectURL)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	// Stop following redirects once the provider sends the browser back to
	// our redirect URI; the code lives in that URL's query string.
	var callbackURL *url.URL
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if strings.HasPrefix(req.URL.String(), cfg.RedirectURL) {
				callbackURL = req.URL
				return http.ErrUseLastResponse
			}
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	base, err := authBase(cfg)
	if err != nil {
		return nil, err
	}

	// Step 1: load the authorize URL so the provider establishes a login
	// session and hands us a CSRF cookie.
	csrf, err := initiateAuthorize(ctx, client, base, authz.URL)
	if err != nil {
		return nil, err
	}

	// Step 2: submit the credentials.
	body, err := submitCredentials(ctx, client, cfg, base, authz.State, csrf, username, password)
	if err != nil {
		return nil, err
	}

	// Step 3: if the credential POST did not redirect all the way back to
	// the redirect URI, the provider answered with an HTML page whose form
	// auto-submits in a browser. Submit it ourselves.
	if callbackURL == nil {
		if err := submitCallbackForm(ctx, client, base, body); err != nil {
			return nil, err
		}
	}

	if callbackURL == nil {
		return nil, &AuthError{Kind: KindProvider, Reason: "login flow ended without a redirect to the callback"}
	}

	q := callbackURL.Query()
	if errCode := q.Get("error"); errCode != "" {
		reason := q.Get("error_description")
		if reason == "" {
			reason = errCode
		}
		return nil, &AuthError{Kind: KindProvider, Reason: reason}
	}
	if got := q.Get("state"); got != authz.State {
		return nil, &AuthError{Kind: KindProvider, Reason: "state mismatch in callback"}
	}
	code := q.Get("code")
	if code == "" {
		return nil, &AuthError{Kind: KindProvider, Reason: "no authorization code in callback"}
	}

	// Step 4: exchange the code for a token.
	return ExchangeCode(ctx, cfg, code, authz.Verifier, cfg.RedirectURL)
}

// authBase derives the auth domain root from the configured authorize URL.
func authBase(cfg *oauth2.Config) (*url.URL, error) {
	u, err := url.Parse(cfg.Endpoint.AuthURL)
	if err != nil {
		return nil, fmt.Errorf("parsing auth URL: %w", err)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

// initiateAuthorize loads the authorize URL and returns the CSRF token the
// provider set as a session cookie.
func initiateAuthorize(ctx context.Context, client *http.Client, base *url.URL, authURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return "", &AuthError{Kind: KindTransport, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", &AuthError{Kind: KindTransport, Err: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &AuthError{Kind: KindProvider, Reason: fmt.Sprintf("authorize returned %s", resp.Status)}
	}

	for _, c := range client.Jar.Cookies(base) {
		if c.Name == csrfCookieName {
			return c.Value, nil
		}
	}
	return "", &AuthError{Kind: KindProvider, Reason: "no CSRF cookie set by login page"}
}

// loginErrorBody is the provider's JSON shape for a rejected credential POST.
type loginErrorBody struct {
	Code        string `json:"code"`
	Error       string `json:"error"`
	Description string `json:"description"`
}

// submitCredentials POSTs the username/password and returns the response
// body for the auto-submit fallback path.
func submitCredentials(ctx context.Context, client *http.Client, cfg *oauth2.Config, base *url.URL, state, csrf, username, password string) ([]byte, error) {
	payload := map[string]string{
		"client_id":       cfg.ClientID,
		"redirect_uri":    cfg.RedirectURL,
		"state":           state,
		"username":        username,
		"password":        password,
		"credential_type": "http://auth0.com/oauth/grant-type/password-realm",
		"_csrf":           csrf,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String()+loginPath, strings.NewReader(string(body)))
	if err != nil {
		return nil, &AuthError{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", csrf)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &AuthError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthError{Kind: KindTransport, Err: err}
	}

	if resp.StatusCode >= 400 {
		var lerr loginErrorBody
		if json.Unmarshal(data, &lerr) == nil && (lerr.Code != "" || lerr.Error != "") {
			kind := KindProvider
			code := lerr.Code
			if code == "" {
				code = lerr.Error
			}
			if code == "invalid_user_password" || code == "access_denied" {
				kind = KindBadCredentials
			}
			reason := lerr.Description
			if reason == "" {
				reason = code
			}
			return nil, &AuthError{Kind: kind, Reason: reason}
		}
		return nil, &AuthError{Kind: KindProvider, Reason: fmt.Sprintf("login returned %s", resp.Status)}
	}

	return data, nil
}

// submitCallbackForm parses the auto-submit HTML form the provider returns
// when it cannot redirect directly, and POSTs it like a browser would.
func submitCallbackForm(ctx context.Context, client *http.Client, base *url.URL, page []byte) error {
	action, fields, err := parseAutoSubmitForm(strings.NewReader(string(page)))
	if err != nil {
		return &AuthError{Kind: KindProvider, Reason: "no redirect and no submittable form in login response", Err: err}
	}

	target, err := resolveFormAction(base, action)
	if err != nil {
		return &AuthError{Kind: KindProvider, Reason: "unresolvable form action", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(fields.Encode()))
	if err != nil {
		return &AuthError{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return &AuthError{Kind: KindTransport, Err: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// parseAutoSubmitForm extracts the first form's action and input values.
func parseAutoSubmitForm(r io.Reader) (string, url.Values, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", nil, fmt.Errorf("parsing login response: %w", err)
	}

	form := findNode(doc, "form")
	if form == nil {
		return "", nil, fmt.Errorf("no form element found")
	}

	action := attr(form, "action")
	fields := url.Values{}
	collectInputs(form, fields)
	return action, fields, nil
}

func resolveFormAction(base *url.URL, action string) (string, error) {
	ref, err := url.Parse(action)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}

func findNode(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, name); found != nil {
			return found
		}
	}
	return nil
}

func collectInputs(n *html.Node, fields url.Values) {
	if n.Type == html.ElementNode && n.Data == "input" {
		if name := attr(n, "name"); name != "" {
			fields.Set(name, attr(n, "value"))
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectInputs(c, fields)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
