package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/joshmayeda/pGEN-server/internal/document"
	"github.com/joshmayeda/pGEN-server/internal/errs"
	"github.com/joshmayeda/pGEN-server/internal/images"
	"github.com/joshmayeda/pGEN-server/internal/layout"
	"github.com/joshmayeda/pGEN-server/internal/models"
	"github.com/joshmayeda/pGEN-server/internal/pipeline"
)

type fakeGenerator struct {
	got []models.CardRequest
	err error
}

func (g *fakeGenerator) Run(ctx context.Context, reqs []models.CardRequest) (*pipeline.Result, error) {
	g.got = reqs
	if g.err != nil {
		return nil, g.err
	}
	return &pipeline.Result{RunID: "r", PDF: []byte("%PDF-1.3 test"), Pages: 1, Cards: len(reqs)}, nil
}

type fakeUploader struct {
	got models.UploadRequest
	err error
}

func (u *fakeUploader) Persist(ctx context.Context, req models.UploadRequest) (*models.UploadResult, error) {
	u.got = req
	if u.err != nil {
		return nil, u.err
	}
	return &models.UploadResult{FileID: "file-1", Name: "generated-deck.pdf", Cards: 3, Pages: 1}, nil
}

type fakeTokens struct{}

func (fakeTokens) AuthCodeURL(state string) string {
	return "https://accounts.example/auth?state=" + url.QueryEscape(state)
}

func (fakeTokens) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if code != "good" {
		return nil, errs.New(errs.Unauthorized, "", "invalid_grant")
	}
	return &oauth2.Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer"}, nil
}

func (fakeTokens) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, errs.New(errs.InvalidRequest, "", "refresh token is required")
	}
	return &oauth2.Token{AccessToken: "at-2", RefreshToken: refreshToken}, nil
}

func (fakeTokens) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return oauth2.StaticTokenSource(tok)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("error body not JSON: %v", err)
	}
	return resp
}

func TestGeneratePDF(t *testing.T) {
	gen := &fakeGenerator{}
	h := New(gen, nil, nil).Routes(nil)

	rec := do(t, h, http.MethodPost, "/generate-pdf",
		`{"allCards":[{"image":"https://img.example/x.png","amount":0},{"image":"https://img.example/y.png","amount":2}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=generated-deck.pdf" {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rec.Body.String() != "%PDF-1.3 test" {
		t.Errorf("body = %q", rec.Body.String())
	}

	want := []models.CardRequest{
		{ImageRef: "https://img.example/x.png", Copies: 0},
		{ImageRef: "https://img.example/y.png", Copies: 2},
	}
	if len(gen.got) != 2 || gen.got[0] != want[0] || gen.got[1] != want[1] {
		t.Errorf("generator got %+v", gen.got)
	}
}

func TestGeneratePDFRejectsHugeAmounts(t *testing.T) {
	o := pipeline.NewOrchestrator(
		images.NewFetcher(),
		images.NewNormalizer(),
		document.NewAssembler(layout.DefaultGrid),
		layout.DefaultGrid,
	)

	tests := []struct {
		name     string
		maxCards int
	}{
		{"default cap", o.Options.MaxCards},
		{"cap disabled", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o.Options.MaxCards = tt.maxCards
			h := New(o, nil, nil).Routes(nil)

			rec := do(t, h, http.MethodPost, "/generate-pdf",
				`{"allCards":[{"image":"https://img.example/a.png","amount":1},{"image":"https://img.example/b.png","amount":9223372036854775807}]}`)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body %q", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			resp := decodeError(t, rec)
			if resp.Error != "Failed to generate PDF" || resp.Kind != "InvalidRequest" {
				t.Errorf("error body = %+v", resp)
			}
		})
	}
}

func TestGeneratePDFFailures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantKind string
		wantRef  string
	}{
		{
			name:     "malformed body",
			body:     `{"allCards":`,
			wantCode: http.StatusBadRequest,
			wantKind: "InvalidRequest",
		},
		{
			name:     "negative amount",
			body:     `{"allCards":[]}`,
			err:      errs.New(errs.InvalidRequest, "a", "amount must be >= 0"),
			wantCode: http.StatusBadRequest,
			wantKind: "InvalidRequest",
		},
		{
			name:     "fetch failed",
			body:     `{"allCards":[]}`,
			err:      errs.New(errs.FetchFailed, "https://img.example/gone.png", "HTTP 404"),
			wantCode: http.StatusBadGateway,
			wantKind: "FetchFailed",
			wantRef:  "https://img.example/gone.png",
		},
		{
			name:     "decode failed",
			body:     `{"allCards":[]}`,
			err:      errs.New(errs.DecodeFailed, "https://img.example/x.txt", "failed to decode image"),
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "DecodeFailed",
			wantRef:  "https://img.example/x.txt",
		},
		{
			name:     "embed failed",
			body:     `{"allCards":[]}`,
			err:      errs.New(errs.EmbedFailed, "a", "bad png"),
			wantCode: http.StatusInternalServerError,
			wantKind: "EmbedFailed",
		},
		{
			name:     "untyped error",
			body:     `{"allCards":[]}`,
			err:      errors.New("surprise"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&fakeGenerator{err: tt.err}, nil, nil).Routes(nil)
			rec := do(t, h, http.MethodPost, "/generate-pdf", tt.body)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			resp := decodeError(t, rec)
			if resp.Error != "Failed to generate PDF" {
				t.Errorf("error = %q", resp.Error)
			}
			if resp.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", resp.Kind, tt.wantKind)
			}
			if resp.Ref != tt.wantRef {
				t.Errorf("ref = %q, want %q", resp.Ref, tt.wantRef)
			}
		})
	}
}

func TestGeneratePDFBodyTooLarge(t *testing.T) {
	h := New(&fakeGenerator{}, nil, nil).Routes(nil)
	body := `{"allCards":[{"image":"` + strings.Repeat("a", maxBodyBytes) + `","amount":1}]}`

	rec := do(t, h, http.MethodPost, "/generate-pdf", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadPDF(t *testing.T) {
	up := &fakeUploader{}
	h := New(&fakeGenerator{}, up, fakeTokens{}).Routes(nil)

	rec := do(t, h, http.MethodPost, "/upload-pdf", `{"allCards":[{"image":"a","amount":3}],"code":"c-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var res models.UploadResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.FileID != "file-1" || res.Cards != 3 {
		t.Errorf("result = %+v", res)
	}
	if up.got.Code != "c-1" || len(up.got.AllCards) != 1 {
		t.Errorf("uploader got %+v", up.got)
	}
}

func TestUploadPDFFailures(t *testing.T) {
	tests := []struct {
		name     string
		uploader Uploader
		wantCode int
	}{
		{"not configured", nil, http.StatusServiceUnavailable},
		{"unauthorized", &fakeUploader{err: errs.New(errs.Unauthorized, "", "invalid_grant")}, http.StatusUnauthorized},
		{"store failed", &fakeUploader{err: errs.New(errs.UploadFailed, "", "quota")}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&fakeGenerator{}, tt.uploader, fakeTokens{}).Routes(nil)
			rec := do(t, h, http.MethodPost, "/upload-pdf", `{"allCards":[],"code":"c"}`)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.uploader != nil {
				if resp := decodeError(t, rec); resp.Error != "Failed to upload PDF" {
					t.Errorf("error = %q", resp.Error)
				}
			}
		})
	}
}

func TestAuthFlow(t *testing.T) {
	h := New(&fakeGenerator{}, nil, fakeTokens{}).Routes(nil)

	rec := do(t, h, http.MethodGet, "/auth/url", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var consent struct {
		URL   string `json:"url"`
		State string `json:"state"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&consent); err != nil {
		t.Fatal(err)
	}
	if consent.State == "" || !strings.Contains(consent.URL, url.QueryEscape(consent.State)) {
		t.Fatalf("consent = %+v", consent)
	}

	callback := "/auth/callback?code=good&state=" + url.QueryEscape(consent.State)
	rec = do(t, h, http.MethodGet, callback, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("callback status = %d, body %s", rec.Code, rec.Body.String())
	}
	var tok models.TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&tok); err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "at" || tok.RefreshToken != "rt" {
		t.Errorf("token = %+v", tok)
	}

	// state is single use
	rec = do(t, h, http.MethodGet, callback, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("replayed callback status = %d, want 400", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/auth/callback?error=access_denied", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("denied callback status = %d, want 401", rec.Code)
	}
}

func TestAuthTokenEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantAT   string
	}{
		{"exchange", "/auth/token", `{"code":"good"}`, http.StatusOK, "at"},
		{"exchange rejected", "/auth/token", `{"code":"bad"}`, http.StatusUnauthorized, ""},
		{"refresh", "/auth/refresh", `{"refreshToken":"rt"}`, http.StatusOK, "at-2"},
		{"refresh missing", "/auth/refresh", `{}`, http.StatusBadRequest, ""},
		{"bad json", "/auth/token", `nope`, http.StatusBadRequest, ""},
	}

	h := New(&fakeGenerator{}, nil, fakeTokens{}).Routes(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantAT != "" {
				var tok models.TokenResponse
				if err := json.NewDecoder(rec.Body).Decode(&tok); err != nil {
					t.Fatal(err)
				}
				if tok.AccessToken != tt.wantAT {
					t.Errorf("AccessToken = %q, want %q", tok.AccessToken, tt.wantAT)
				}
			}
		})
	}
}

func TestAuthNotConfigured(t *testing.T) {
	h := New(&fakeGenerator{}, nil, nil).Routes(nil)
	if rec := do(t, h, http.MethodGet, "/auth/url", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHealthcheckAndCORS(t *testing.T) {
	h := New(&fakeGenerator{}, nil, nil).Routes([]string{"https://app.example"})

	rec := do(t, h, http.MethodGet, "/healthcheck", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("healthcheck = %d %q", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodOptions, "/generate-pdf", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	pre := httptest.NewRecorder()
	h.ServeHTTP(pre, req)

	if got := pre.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := New(&fakeGenerator{}, nil, nil).Routes(nil)
	if rec := do(t, h, http.MethodGet, "/generate-pdf", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind errs.Kind
		want int
	}{
		{errs.InvalidRequest, 400},
		{errs.Unauthorized, 401},
		{errs.DecodeFailed, 422},
		{errs.FetchFailed, 502},
		{errs.UploadFailed, 502},
		{errs.EmbedFailed, 500},
		{errs.SerializationFailed, 500},
		{"", 500},
	}
	for _, tt := range tests {
		if got := statusFor(tt.kind); got != tt.want {
			t.Errorf("statusFor(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
