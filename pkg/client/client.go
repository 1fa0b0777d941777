package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrUnauthorized is returned when the server rejects the bearer token.
// Callers should treat it as a signal to re-authenticate.
var ErrUnauthorized = errors.New("client: unauthorized")

// Client talks to the Sonder API. BaseURL includes the version prefix,
// e.g. "http://localhost:8000/api/v1".
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client

	feedsOnce sync.Once
	feeds     *feedRegistry
}

// New returns a Client with a default HTTP client.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// apiError is the server's error envelope.
type apiError struct {
	Error string `json:"error"`
}

// do issues one request and decodes the JSON response into out (when out is
// non-nil). A 401 maps to ErrUnauthorized; other non-2xx statuses surface the
// server's error message.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Me resolves the current principal from the bearer token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &u)
	return u, err
}

// Users lists users, optionally filtered by role.
func (c *Client) Users(ctx context.Context, role string) ([]User, error) {
	path := "/users/"
	if role != "" {
		path += "?role=" + url.QueryEscape(role)
	}
	var users []User
	err := c.do(ctx, http.MethodGet, path, nil, &users)
	return users, err
}

// Counsellors lists all counsellor accounts for student discovery.
func (c *Client) Counsellors(ctx context.Context) ([]User, error) {
	return c.Users(ctx, RoleCounsellor)
}

// Sessions returns all chat sessions visible to the current principal.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	err := c.do(ctx, http.MethodGet, "/chat/sessions", nil, &sessions)
	return sessions, err
}

// FindOrCreateSession resolves the session for a (student, counsellor) pair,
// creating one when no open session exists.
func (c *Client) FindOrCreateSession(ctx context.Context, studentID, counsellorID int64, chatType string) (Session, error) {
	body := map[string]any{
		"student_id":    studentID,
		"counsellor_id": counsellorID,
		"chat_type":     chatType,
		"status":        StatusActive,
	}
	var s Session
	err := c.do(ctx, http.MethodPost, "/chat/sessions", body, &s)
	return s, err
}

// Messages returns the full ordered history for one session.
func (c *Client) Messages(ctx context.Context, sessionID int64) ([]Message, error) {
	var msgs []Message
	err := c.do(ctx, http.MethodGet, "/chat/messages/"+strconv.FormatInt(sessionID, 10), nil, &msgs)
	return msgs, err
}

// SendMessage persists one message and returns the server-confirmed record
// with its assigned id and timestamp.
func (c *Client) SendMessage(ctx context.Context, sessionID int64, senderRole, text string) (Message, error) {
	body := map[string]any{
		"session_id":  sessionID,
		"sender_role": senderRole,
		"message":     text,
	}
	var m Message
	err := c.do(ctx, http.MethodPost, "/chat/messages", body, &m)
	return m, err
}

// Bookings returns the schedule requests visible to the current principal.
func (c *Client) Bookings(ctx context.Context) ([]Booking, error) {
	var bookings []Booking
	err := c.do(ctx, http.MethodGet, "/schedule/", nil, &bookings)
	return bookings, err
}

// CreateBooking posts a pending schedule request.
func (c *Client) CreateBooking(ctx context.Context, counsellorID int64, scheduledTime time.Time) (Booking, error) {
	body := map[string]any{
		"counsellor_id":  counsellorID,
		"scheduled_time": scheduledTime.Format(time.RFC3339),
		"status":         StatusPending,
	}
	var b Booking
	err := c.do(ctx, http.MethodPost, "/schedule/", body, &b)
	return b, err
}

// UpdateBookingStatus accepts or declines an existing schedule request.
func (c *Client) UpdateBookingStatus(ctx context.Context, requestID int64, status string) (Booking, error) {
	path := fmt.Sprintf("/schedule/%d?status=%s", requestID, url.QueryEscape(status))
	var b Booking
	err := c.do(ctx, http.MethodPut, path, nil, &b)
	return b, err
}

// BusySlots returns the "HH:MM" start times already reserved for a counsellor
// on the given date ("2006-01-02").
func (c *Client) BusySlots(ctx context.Context, counsellorID int64, date string) ([]string, error) {
	path := fmt.Sprintf("/schedule/busy-slots?counsellor_id=%d&selected_date=%s", counsellorID, url.QueryEscape(date))
	var slots []string
	err := c.do(ctx, http.MethodGet, path, nil, &slots)
	return slots, err
}

// CompanionChat sends one message to the AI companion and returns its reply.
func (c *Client) CompanionChat(ctx context.Context, text string) (string, error) {
	var resp struct {
		Reply string `json:"reply"`
	}
	err := c.do(ctx, http.MethodPost, "/chatbot/chat", map[string]string{"message": text}, &resp)
	return resp.Reply, err
}
