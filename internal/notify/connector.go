package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/northstarhq/northstar/internal/models"
)

const connectorTimeout = 15 * time.Second

// Connector talks to a bot-connector style REST API: proactive activity
// sends, 1:1 conversation creation, and paged team rosters. It implements
// both Notifier and RosterProvider. Rate-limit (429) and bad-gateway (502)
// responses are wrapped in TransientError for the dispatcher's retry policy.
type Connector struct {
	httpClient *http.Client
	botID      string
	token      string
}

// NewConnector creates a connector client. token is a static bearer token;
// acquiring it is the caller's concern.
func NewConnector(botID, token string) *Connector {
	return &Connector{
		httpClient: &http.Client{Timeout: connectorTimeout},
		botID:      botID,
		token:      token,
	}
}

var (
	_ Notifier       = (*Connector)(nil)
	_ RosterProvider = (*Connector)(nil)
)

// SendProactive pushes a message activity into an existing conversation.
func (c *Connector) SendProactive(ctx context.Context, ref models.ConversationRef, msg Message) error {
	if ref.IsZero() {
		return fmt.Errorf("conversation reference is required")
	}

	endpoint := fmt.Sprintf("%s/v3/conversations/%s/activities",
		ref.ServiceURL, url.PathEscape(ref.ConversationID))
	payload := map[string]any{
		"type":    "message",
		"text":    msg.Text,
		"summary": msg.Summary,
	}

	if err := c.post(ctx, endpoint, payload, nil); err != nil {
		return fmt.Errorf("failed to send activity to %s: %w", ref.ConversationID, err)
	}
	return nil
}

// CreateConversation opens (or reuses) a 1:1 conversation with a member.
func (c *Connector) CreateConversation(ctx context.Context, serviceURL, memberID string) (models.ConversationRef, error) {
	endpoint := serviceURL + "/v3/conversations"
	payload := map[string]any{
		"bot":     map[string]string{"id": c.botID},
		"members": []map[string]string{{"id": memberID}},
		"isGroup": false,
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, endpoint, payload, &result); err != nil {
		return models.ConversationRef{}, fmt.Errorf("failed to create conversation with %s: %w", memberID, err)
	}
	if result.ID == "" {
		return models.ConversationRef{}, fmt.Errorf("connector returned empty conversation id for member %s", memberID)
	}

	return models.ConversationRef{ConversationID: result.ID, ServiceURL: serviceURL}, nil
}

// ListMembers drains the paged roster of a team conversation into one list.
func (c *Connector) ListMembers(ctx context.Context, serviceURL, teamID string) ([]Member, error) {
	var members []Member
	continuation := ""

	for {
		endpoint := fmt.Sprintf("%s/v3/conversations/%s/pagedmembers",
			serviceURL, url.PathEscape(teamID))
		if continuation != "" {
			endpoint += "?continuationToken=" + url.QueryEscape(continuation)
		}

		var page struct {
			ContinuationToken string   `json:"continuationToken"`
			Members           []Member `json:"members"`
		}
		if err := c.get(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("failed to list members of %s: %w", teamID, err)
		}

		members = append(members, page.Members...)
		if page.ContinuationToken == "" {
			return members, nil
		}
		continuation = page.ContinuationToken
	}
}

func (c *Connector) post(ctx context.Context, endpoint string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *Connector) get(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, result)
}

func (c *Connector) do(req *http.Request, result any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		err := fmt.Errorf("connector returned %d", resp.StatusCode)
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway:
			return Transient(err)
		default:
			return err
		}
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
