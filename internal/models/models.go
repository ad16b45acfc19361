package models

import "time"

// CardRequest is one input line item: an image and how many printed copies are wanted
type CardRequest struct {
	ImageRef string
	Copies   int
}

// CardEntry is the wire shape of a card in request bodies and deck files
type CardEntry struct {
	Image  string `json:"image" yaml:"image" parquet:"image"`
	Amount int64  `json:"amount" yaml:"amount" parquet:"amount"`
}

// GenerateRequest is the body accepted by the generate endpoint
type GenerateRequest struct {
	AllCards []CardEntry `json:"allCards" yaml:"allCards"`
}

// UploadRequest generates a deck and stores it in the caller's Drive.
// Exactly one of Code or RefreshToken authorizes the upload.
type UploadRequest struct {
	AllCards     []CardEntry `json:"allCards"`
	Code         string      `json:"code,omitempty"`
	RefreshToken string      `json:"refreshToken,omitempty"`
}

// UploadResult describes a stored deck and the tokens used to store it
type UploadResult struct {
	FileID       string    `json:"fileId"`
	Name         string    `json:"name"`
	WebViewLink  string    `json:"webViewLink,omitempty"`
	AccessToken  string    `json:"accessToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
	Pages        int       `json:"pages"`
	Cards        int       `json:"cards"`
}

// TokenResponse is returned by the auth endpoints
type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	TokenType    string    `json:"tokenType,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// CardRequests maps wire entries to pipeline input, preserving order
func CardRequests(entries []CardEntry) []CardRequest {
	reqs := make([]CardRequest, len(entries))
	for i, e := range entries {
		reqs[i] = CardRequest{ImageRef: e.Image, Copies: int(e.Amount)}
	}
	return reqs
}

// CardRequests returns the pipeline input for the request
func (r GenerateRequest) CardRequests() []CardRequest {
	return CardRequests(r.AllCards)
}

// CardRequests returns the pipeline input for the request
func (r UploadRequest) CardRequests() []CardRequest {
	return CardRequests(r.AllCards)
}
