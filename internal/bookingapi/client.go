// Package bookingapi is the HTTP client of the remote booking service.
package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"roombook/internal/metrics"
	"roombook/internal/model"
)

const (
	cacheKeyRooms        = "rooms"
	cacheKeySettings     = "settings:public"
	cacheKeyReservations = "reservations:"

	maxErrorBody = 64 << 10
)

// Client calls the booking service REST endpoints on behalf of one browser.
type Client struct {
	baseURL    string
	forward    map[string]struct{}
	cookies    []*http.Cookie
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client for baseURL (for example http://localhost:8080/api).
// forwardCookies names the browser cookies that carry the caller's login.
func NewClient(baseURL string, timeout time.Duration, forwardCookies []string) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	forward := make(map[string]struct{}, len(forwardCookies))
	for _, name := range forwardCookies {
		forward[name] = struct{}{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		forward:    forward,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UseRedisCache configures optional Redis caching for shared GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// WithCookies returns a copy of the client that sends the forwarded subset of cookies.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	cp := *c
	cp.cookies = nil
	for _, ck := range cookies {
		if _, ok := c.forward[ck.Name]; ok {
			cp.cookies = append(cp.cookies, &http.Cookie{Name: ck.Name, Value: ck.Value})
		}
	}
	return &cp
}

// ListRooms returns every bookable room.
func (c *Client) ListRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	if c.readCache(ctx, cacheKeyRooms, &rooms) {
		return rooms, nil
	}
	if err := c.doGet(ctx, "rooms", c.baseURL+"/rooms", &rooms); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	c.writeCache(ctx, cacheKeyRooms, rooms)
	return rooms, nil
}

// ListReservations returns the reservations of every room on date (YYYY-MM-DD).
func (c *Client) ListReservations(ctx context.Context, date string) ([]model.Reservation, error) {
	endpoint := fmt.Sprintf("%s/reservation?date=%s", c.baseURL, url.QueryEscape(date))
	cacheKey := cacheKeyReservations + date
	var reservations []model.Reservation

	if c.readCache(ctx, cacheKey, &reservations) {
		return reservations, nil
	}
	if err := c.doGet(ctx, "reservations", endpoint, &reservations); err != nil {
		return nil, fmt.Errorf("list reservations for %s: %w", date, err)
	}
	c.writeCache(ctx, cacheKey, reservations)
	return reservations, nil
}

// ListMyReservations returns the reservations owned by userID. Never cached.
func (c *Client) ListMyReservations(ctx context.Context, userID int64) ([]model.Reservation, error) {
	endpoint := fmt.Sprintf("%s/reservation/my-reservations?userId=%d", c.baseURL, userID)
	var reservations []model.Reservation
	if err := c.doGet(ctx, "my_reservations", endpoint, &reservations); err != nil {
		return nil, fmt.Errorf("list reservations of user %d: %w", userID, err)
	}
	return reservations, nil
}

// Create books a range. A conflict comes back as an *APIError carrying the server message.
func (c *Client) Create(ctx context.Context, req model.CreateRequest) (*model.Reservation, error) {
	var created model.Reservation
	if err := c.doPost(ctx, "create", c.baseURL+"/reservation", req, &created); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	c.invalidate(ctx, cacheKeyReservations+req.Date)
	return &created, nil
}

// Cancel cancels a reservation owned by userID.
func (c *Client) Cancel(ctx context.Context, reservationID, userID int64) error {
	endpoint := fmt.Sprintf("%s/reservation/%d?userId=%d", c.baseURL, reservationID, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	if err := c.do("cancel", req, nil); err != nil {
		return fmt.Errorf("cancel reservation %d: %w", reservationID, err)
	}
	// The reservation's date is not known here.
	c.invalidatePrefix(ctx, cacheKeyReservations)
	return nil
}

// CurrentUser returns the logged in caller. ErrUnauthorized means no login.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.doGet(ctx, "me", c.baseURL+"/auth/me", &user); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &user, nil
}

// Logout ends the caller's session at the booking service.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doPost(ctx, "logout", c.baseURL+"/auth/logout", struct{}{}, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// PublicSettings returns the booking rules shown to every visitor.
func (c *Client) PublicSettings(ctx context.Context) (*model.PublicSettings, error) {
	var settings model.PublicSettings
	if c.readCache(ctx, cacheKeySettings, &settings) {
		return &settings, nil
	}
	if err := c.doGet(ctx, "settings", c.baseURL+"/settings/public", &settings); err != nil {
		return nil, fmt.Errorf("public settings: %w", err)
	}
	c.writeCache(ctx, cacheKeySettings, settings)
	return &settings, nil
}

// Checkin checks the caller in to their current reservation in roomID.
// A refusal (no matching reservation, too early) is a result with Success false.
func (c *Client) Checkin(ctx context.Context, roomID int64) (*model.CheckinResult, error) {
	endpoint := fmt.Sprintf("%s/checkin?roomId=%d", c.baseURL, roomID)
	var res model.CheckinResult
	if err := c.doGet(ctx, "checkin", endpoint, &res); err != nil {
		return checkinRefusal(err)
	}
	c.invalidateCheckedIn(ctx, &res)
	return &res, nil
}

// ManualCheckin checks in a reservation picked from the caller's list.
func (c *Client) ManualCheckin(ctx context.Context, reservationID int64) (*model.CheckinResult, error) {
	body := map[string]int64{"reservationId": reservationID}
	var res model.CheckinResult
	if err := c.doPost(ctx, "manual_checkin", c.baseURL+"/checkin/manual", body, &res); err != nil {
		return checkinRefusal(err)
	}
	c.invalidateCheckedIn(ctx, &res)
	return &res, nil
}

func checkinRefusal(err error) (*model.CheckinResult, error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		return &model.CheckinResult{Success: false, Message: apiErr.Message}, nil
	}
	return nil, fmt.Errorf("checkin: %w", err)
}

func (c *Client) invalidateCheckedIn(ctx context.Context, res *model.CheckinResult) {
	if res.Reservation != nil {
		c.invalidate(ctx, cacheKeyReservations+res.Reservation.Date)
	}
}

// HealthCheck checks if the booking service answers. It bypasses the cache.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/settings/public", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) invalidate(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, keys...).Err()
}

func (c *Client) invalidatePrefix(ctx context.Context, prefix string) {
	if c.redis == nil {
		return
	}
	iter := c.redis.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = c.redis.Del(ctx, keys...).Err()
	}
}

func (c *Client) doGet(ctx context.Context, name, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(name, req, out)
}

func (c *Client) doPost(ctx context.Context, name, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addHeaders(req)
	return c.do(name, req, out)
}

func (c *Client) do(name string, req *http.Request, out any) error {
	defer metrics.ObserveAPI(name, time.Now())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return parseError(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	// A success without a body leaves out untouched.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: decode response: %w", name, err)
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
}

