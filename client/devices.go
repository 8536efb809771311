package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/cmodk/amon"
)

func (c *Client) DeviceList(ctx context.Context) ([]amon.Device, error) {

	data, err := c.Get(ctx, "/devices", nil)
	if err != nil {
		return nil, err
	}

	var list amon.DeviceList

	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decoding device list: %w", err)
	}

	return list.Devices, nil
}

func (c *Client) DeviceGet(ctx context.Context, device_id string) (*amon.Device, error) {

	data, err := c.Get(ctx, fmt.Sprintf("/devices/%s", url.PathEscape(device_id)), nil)
	if err != nil {
		return nil, err
	}

	var device amon.Device

	if err := json.Unmarshal(data, &device); err != nil {
		return nil, fmt.Errorf("decoding device %s: %w", device_id, err)
	}

	return &device, nil
}

func (c *Client) DeviceHistory(ctx context.Context, device_id string, t amon.HistoryType, from time.Time, to time.Time) ([]amon.HistoryPoint, error) {

	query := url.Values{}
	query.Set("type", string(t))
	query.Set("from", from.UTC().Format(time.RFC3339))
	query.Set("to", to.UTC().Format(time.RFC3339))

	data, err := c.Get(ctx, fmt.Sprintf("/devices/%s/history", url.PathEscape(device_id)), query)
	if err != nil {
		return nil, err
	}

	var history amon.HistoryData

	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("decoding history for %s: %w", device_id, err)
	}

	return history.Data, nil
}

//CommandSend posts a control command. A nil error means the backend accepted
//the command, not that the device state changed, the effect is only
//observable through a later fetch.
func (c *Client) CommandSend(ctx context.Context, device_id string, command amon.CommandRequest) error {

	_, err := c.Post(ctx, fmt.Sprintf("/devices/%s/command", url.PathEscape(device_id)), command)

	return err
}
