package sdk

import (
	"io"
	"net/http"
)

func (c *Client) GetProperties(id string) (*Properties, error) {
	var props Properties
	err := c.get(serverPath(id, "properties"), &props)
	return &props, err
}

func (c *Client) SaveProperties(id string, typed map[string]interface{}, extra map[string]string) ([]string, error) {
	body := map[string]interface{}{}
	if typed != nil {
		body["typed"] = typed
	}
	if extra != nil {
		body["extra"] = extra
	}
	var resp struct {
		Changed []string `json:"changed"`
	}
	err := c.put(serverPath(id, "properties"), body, &resp)
	return resp.Changed, err
}

func (c *Client) ListPlugins(id string) ([]Plugin, error) {
	var plugins []Plugin
	err := c.get(serverPath(id, "plugins"), &plugins)
	return plugins, err
}

func (c *Client) InstallPlugin(id, file string, content io.Reader) error {
	return c.do(http.MethodPut, serverPath(id, "plugins", file), content, "application/java-archive", nil)
}

func (c *Client) RemovePlugin(id, file string) error {
	return c.delete(serverPath(id, "plugins", file))
}

func (c *Client) TogglePlugin(id, file string) (string, error) {
	var resp struct {
		File string `json:"file"`
	}
	err := c.post(serverPath(id, "plugins", file, "toggle"), nil, &resp)
	return resp.File, err
}

func (c *Client) GetRuntime() (*Runtime, error) {
	var rt Runtime
	err := c.get("/runtime", &rt)
	return &rt, err
}

func (c *Client) SetJavaPath(path string) (*Runtime, error) {
	var rt Runtime
	err := c.put("/runtime/java", map[string]string{"path": path}, &rt)
	return &rt, err
}
