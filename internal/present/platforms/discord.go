package platforms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrMissingMessageID = errors.New("discord webhook create message missing id")

// Discord posts and edits webhook messages.
type Discord struct {
	client   *HTTPClient
	endpoint string
}

func NewDiscord(client *HTTPClient, endpoint string) *Discord {
	return &Discord{client: client, endpoint: strings.TrimSpace(endpoint)}
}

// Create posts msg and returns the new message id.
func (d *Discord) Create(ctx context.Context, msg Message) (string, error) {
	waitEndpoint := d.endpoint
	if strings.Contains(waitEndpoint, "?") {
		waitEndpoint += "&wait=true"
	} else {
		waitEndpoint += "?wait=true"
	}
	body, err := d.client.PostJSON(ctx, waitEndpoint, payload(msg))
	if err != nil {
		return "", err
	}
	var created struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(body, &created) != nil || strings.TrimSpace(created.ID) == "" {
		return "", ErrMissingMessageID
	}
	return created.ID, nil
}

// Edit replaces the content of a message created by this webhook.
func (d *Discord) Edit(ctx context.Context, messageID string, msg Message) error {
	editURL, err := messageEditURL(d.endpoint, messageID)
	if err != nil {
		return err
	}
	_, err = d.client.PatchJSON(ctx, editURL, payload(msg))
	return err
}

func payload(msg Message) map[string]any {
	type embedField struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Inline bool   `json:"inline"`
	}
	fields := make([]embedField, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		fields = append(fields, embedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	embed := map[string]any{
		"title":       msg.Title,
		"description": msg.Description,
		"fields":      fields,
		"color":       msg.Color,
	}
	if msg.Timestamp != "" {
		embed["timestamp"] = msg.Timestamp
	}
	if msg.Footer != "" {
		embed["footer"] = map[string]string{"text": msg.Footer}
	}
	return map[string]any{
		"content": msg.Content,
		"embeds":  []map[string]any{embed},
	}
}

func messageEditURL(endpoint, messageID string) (string, error) {
	if strings.TrimSpace(messageID) == "" {
		return "", fmt.Errorf("message id is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// /api/webhooks/{webhook.id}/{webhook.token}
	if len(parts) < 4 || parts[0] != "api" || parts[1] != "webhooks" {
		return "", fmt.Errorf("not a discord webhook url: %s", u.Path)
	}
	u.Path = "/api/webhooks/" + parts[2] + "/" + parts[3] + "/messages/" + url.PathEscape(messageID)
	u.RawQuery = ""
	return u.String(), nil
}
