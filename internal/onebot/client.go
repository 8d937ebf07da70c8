// Package onebot is a synchronous client for the OneBot HTTP API exposed by
// go-cqhttp. Every call POSTs a JSON body to base/<endpoint> and decodes
// the response envelope; failed calls surface the gateway's msg and wording
// in an *APIError.
//
// https://docs.go-cqhttp.org/api/
package onebot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/satgo1546/pykinezumiko/internal/cq"
)

// APIError is a gateway response with status "failed".
type APIError struct {
	Msg     string
	Wording string
}

func (e *APIError) Error() string {
	if e.Wording != "" {
		return fmt.Sprintf("gateway: %s (%s)", e.Msg, e.Wording)
	}
	return fmt.Sprintf("gateway: %s", e.Msg)
}

// Client talks to one go-cqhttp instance.
type Client struct {
	base   string
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a Client for the gateway at base, e.g.
// "http://127.0.0.1:5700".
func NewClient(base string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		base:   base,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Msg     string          `json:"msg"`
	Wording string          `json:"wording"`
	Data    json.RawMessage `json:"data"`
}

// Call invokes an API endpoint with the given arguments and returns the
// data member of the response, which may be absent.
func (c *Client) Call(ctx context.Context, endpoint string, args map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal %s args: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	if env.Status == "failed" {
		c.logger.Warn("gateway call failed",
			zap.String("endpoint", endpoint),
			zap.String("msg", env.Msg),
			zap.String("wording", env.Wording),
		)
		return nil, &APIError{Msg: env.Msg, Wording: env.Wording}
	}
	if env.Data == nil {
		env.Data = json.RawMessage("{}")
	}
	return env.Data, nil
}

// call decodes the data member into out when out is non-nil.
func (c *Client) call(ctx context.Context, endpoint string, args map[string]any, out any) error {
	data, err := c.Call(ctx, endpoint, args)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", endpoint, err)
	}
	return nil
}

// Send delivers a message. A positive target is a friend, a negative one a
// group. Rich content uses the internal entity form and is escaped to CQ
// codes on the way out.
func (c *Client) Send(ctx context.Context, target int64, message string) error {
	args := map[string]any{"message": cq.Encode(message)}
	if target >= 0 {
		args["user_id"] = target
	} else {
		args["group_id"] = -target
	}
	return c.call(ctx, "send_msg", args, nil)
}

// SendFile uploads a local file to a friend or group. name is the display
// name, defaulting to the file's base name.
func (c *Client) SendFile(ctx context.Context, target int64, path, name string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if name == "" {
		name = filepath.Base(path)
	}
	if target >= 0 {
		return c.call(ctx, "upload_private_file", map[string]any{
			"user_id": target, "file": abs, "name": name,
		}, nil)
	}
	return c.call(ctx, "upload_group_file", map[string]any{
		"group_id": -target, "file": abs, "name": name,
	}, nil)
}

// GetMessage fetches a message by id, in the internal entity form.
func (c *Client) GetMessage(ctx context.Context, messageID int64) (string, error) {
	var data struct {
		RawMessage string `json:"raw_message"`
	}
	if err := c.call(ctx, "get_msg", map[string]any{"message_id": messageID}, &data); err != nil {
		return "", err
	}
	return cq.Decode(data.RawMessage), nil
}

// GroupFileURL resolves the download URL of a file uploaded to a group.
func (c *Client) GroupFileURL(ctx context.Context, groupID int64, fileID string, busID int64) (string, error) {
	var data struct {
		URL string `json:"url"`
	}
	err := c.call(ctx, "get_group_file_url", map[string]any{
		"group_id": groupID, "file_id": fileID, "busid": busID,
	}, &data)
	if err != nil {
		return "", err
	}
	return data.URL, nil
}

// SetFriendAddRequest answers a friend request.
func (c *Client) SetFriendAddRequest(ctx context.Context, flag string, approve bool) error {
	return c.call(ctx, "set_friend_add_request", map[string]any{
		"flag": flag, "approve": approve,
	}, nil)
}

// SetGroupAddRequest answers a group join or invite request. subType echoes
// the request's sub_type field.
func (c *Client) SetGroupAddRequest(ctx context.Context, flag, subType string, approve bool) error {
	return c.call(ctx, "set_group_add_request", map[string]any{
		"flag": flag, "type": subType, "approve": approve,
	}, nil)
}

// Friend is one get_friend_list entry.
type Friend struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
}

// FriendList fetches the whole friend list.
func (c *Client) FriendList(ctx context.Context) ([]Friend, error) {
	var friends []Friend
	if err := c.call(ctx, "get_friend_list", nil, &friends); err != nil {
		return nil, err
	}
	return friends, nil
}

// GroupName fetches a group's display name.
func (c *Client) GroupName(ctx context.Context, groupID int64) (string, error) {
	var data struct {
		GroupName string `json:"group_name"`
	}
	if err := c.call(ctx, "get_group_info", map[string]any{"group_id": groupID}, &data); err != nil {
		return "", err
	}
	return data.GroupName, nil
}

// GroupMemberName fetches a member's group card, falling back to the
// nickname when no card is set.
func (c *Client) GroupMemberName(ctx context.Context, groupID, userID int64) (string, error) {
	var data struct {
		Card     string `json:"card"`
		Nickname string `json:"nickname"`
	}
	err := c.call(ctx, "get_group_member_info", map[string]any{
		"group_id": groupID, "user_id": userID,
	}, &data)
	if err != nil {
		return "", err
	}
	if data.Card != "" {
		return data.Card, nil
	}
	return data.Nickname, nil
}
