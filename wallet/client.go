package wallet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client calls the platform wallet APIs using the user's session token.
type Client struct {
	baseURL      string
	gameName     string
	gameProvider string
	http         *http.Client
}

func NewClient(baseURL, gameName, gameProvider string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	if gameName == "" {
		gameName = "Caixa Magica"
	}
	if gameProvider == "" {
		gameProvider = "Premio"
	}
	return &Client{
		baseURL:      baseURL,
		gameName:     gameName,
		gameProvider: gameProvider,
		http:         &http.Client{},
	}
}

func (c *Client) authHeader(token string) string {
	return "Bearer " + token
}

// Balance returns the user's wallet balance. Token = session JWT from the platform.
func (c *Client) Balance(token string) (float64, int, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/wallet/balance", nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Authorization", c.authHeader(token))
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var data struct {
		Balance float64 `json:"balance"`
		Error   string  `json:"error"`
	}
	_ = json.Unmarshal(body, &data)
	if resp.StatusCode != http.StatusOK {
		return 0, resp.StatusCode, fmt.Errorf("wallet: %s", data.Error)
	}
	return data.Balance, resp.StatusCode, nil
}

// Debit charges the game cost. Returns the transaction id for rollback.
// gameType labels the ledger row (e.g. the chest or scratch type id).
func (c *Client) Debit(token, currency string, amount float64, gameType string) (txID string, status int, err error) {
	payload := map[string]interface{}{
		"currency":     currency,
		"amount":       amount,
		"gameType":     gameType,
		"gameName":     c.gameName,
		"gameProvider": c.gameProvider,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/wallet/debit", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader(token))
	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	var data struct {
		TxID  string `json:"txId"`
		Error string `json:"error"`
	}
	_ = json.Unmarshal(respBody, &data)
	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("wallet: %s", data.Error)
	}
	return data.TxID, resp.StatusCode, nil
}

// Credit pays out a prize.
func (c *Client) Credit(token, currency string, amount float64, gameType string) (status int, err error) {
	payload := map[string]interface{}{
		"currency":     currency,
		"amount":       amount,
		"gameType":     gameType,
		"gameName":     c.gameName,
		"gameProvider": c.gameProvider,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/wallet/credit", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader(token))
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	var data struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(respBody, &data)
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("wallet: %s", data.Error)
	}
	return resp.StatusCode, nil
}

// Rollback refunds a debit.
func (c *Client) Rollback(token, txID string) (status int, err error) {
	payload := map[string]interface{}{"txId": txID}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/wallet/rollback", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader(token))
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	var data struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(respBody, &data)
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("wallet: %s", data.Error)
	}
	return resp.StatusCode, nil
}
