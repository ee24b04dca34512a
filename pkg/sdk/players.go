package sdk

func (c *Client) GetPlayers(id string) (*Players, error) {
	var players Players
	err := c.get(serverPath(id, "players"), &players)
	return &players, err
}

func (c *Client) PlayerAction(id, name, action, reason string) error {
	var body interface{}
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	return c.post(serverPath(id, "players", name, action), body, nil)
}

func (c *Client) GetOps(id string) ([]Op, error) {
	var ops []Op
	err := c.get(serverPath(id, "ops"), &ops)
	return ops, err
}

func (c *Client) GetBans(id string) ([]Ban, error) {
	var bans []Ban
	err := c.get(serverPath(id, "bans"), &bans)
	return bans, err
}
