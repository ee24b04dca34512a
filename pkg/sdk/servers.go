package sdk

import (
	"fmt"
	"net/url"
	"strconv"
)

func serverPath(id string, parts ...string) string {
	p := "/servers/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func (c *Client) ListServers() ([]Server, error) {
	var servers []Server
	err := c.get("/servers", &servers)
	return servers, err
}

func (c *Client) GetServer(id string) (*Server, error) {
	var server Server
	err := c.get(serverPath(id), &server)
	return &server, err
}

func (c *Client) CreateServer(req ServerConfig) (*ServerConfig, error) {
	var cfg ServerConfig
	err := c.post("/servers", req, &cfg)
	return &cfg, err
}

// UpdateServer sends only the given fields; the rest keep their value.
func (c *Client) UpdateServer(id string, fields map[string]interface{}) (*ServerConfig, error) {
	var cfg ServerConfig
	err := c.put(serverPath(id), fields, &cfg)
	return &cfg, err
}

func (c *Client) DeleteServer(id string) error {
	return c.delete(serverPath(id))
}

func (c *Client) StartServer(id string) error {
	return c.post(serverPath(id, "start"), nil, nil)
}

func (c *Client) StopServer(id string) error {
	return c.post(serverPath(id, "stop"), nil, nil)
}

func (c *Client) KillServer(id string) error {
	return c.post(serverPath(id, "kill"), nil, nil)
}

func (c *Client) SendCommand(id, command string) error {
	return c.post(serverPath(id, "command"), map[string]string{"command": command}, nil)
}

// GetLogs returns buffered lines with index >= since. An empty category
// returns every category; limit 0 returns everything.
func (c *Client) GetLogs(id string, since int64, category string, limit int) (*Logs, error) {
	q := url.Values{}
	q.Set("since", strconv.FormatInt(since, 10))
	if category != "" {
		q.Set("category", category)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var logs Logs
	err := c.get(fmt.Sprintf("%s?%s", serverPath(id, "logs"), q.Encode()), &logs)
	return &logs, err
}

func (c *Client) ClearLogs(id string) error {
	return c.delete(serverPath(id, "logs"))
}
