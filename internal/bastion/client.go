package bastion

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/PAPAMICA/wallix-ssh/internal/config"
	"github.com/PAPAMICA/wallix-ssh/internal/log"
	"github.com/PAPAMICA/wallix-ssh/internal/model"
)

// Client talks to the bastion REST API with basic auth. Every method is
// fail-soft: transport errors and unexpected statuses are logged and turned
// into empty results or false, never propagated.
type Client struct {
	apiURL     string
	devicesURL string
	username   string
	password   string
	http       *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiURL:     cfg.BaseURL + "/api",
		devicesURL: cfg.BaseURL + "/api/devices",
		username:   cfg.Username,
		password:   cfg.Password,
		http: &http.Client{
			Timeout: cfg.HTTPTimeout,
			Transport: &http.Transport{
				// Bastion appliances routinely run self-signed certs,
				// and the proxy environment is ignored on purpose.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
				Proxy:           nil,
			},
		},
	}
}

// HasPassword reports whether a password was configured. When false the
// caller prompts before the first Authenticate.
func (c *Client) HasPassword() bool {
	return c.password != ""
}

func (c *Client) SetPassword(password string) {
	c.password = password
}

// Authenticate checks the credentials against the bastion. Only a 204
// counts as success; a transport error or any other status is an
// authentication failure.
func (c *Client) Authenticate(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, nil)
	if err != nil {
		return false
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusNoContent
}

// wire types for the bastion API. Shape is validated here at the boundary;
// the rest of the tool only sees model.Device.
type wireService struct {
	Name string `json:"service_name"`
}

type wireTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type wireDevice struct {
	Name        string        `json:"device_name"`
	Host        string        `json:"host"`
	Services    []wireService `json:"services,omitempty"`
	Tags        []wireTag     `json:"tags"`
	Description string        `json:"description"`
}

func (w wireDevice) device() model.Device {
	d := model.Device{
		Name:        w.Name,
		Host:        w.Host,
		Description: w.Description,
	}
	for _, s := range w.Services {
		d.Services = append(d.Services, s.Name)
	}
	for _, t := range w.Tags {
		d.Tags = append(d.Tags, model.Tag{Key: t.Key, Value: t.Value})
	}
	return d
}

func wireTags(tags []model.Tag) []wireTag {
	out := make([]wireTag, 0, len(tags))
	for _, t := range tags {
		out = append(out, wireTag{Key: t.Key, Value: t.Value})
	}
	return out
}

// FetchAll requests the full unfiltered inventory in a single call. The
// second return value distinguishes a successful empty inventory from a
// failed request.
func (c *Client) FetchAll(ctx context.Context) ([]model.Device, bool) {
	log.Info("Retrieving all machines...")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.devicesURL+"?limit=-1", nil)
	if err != nil {
		log.Error("Error retrieving machines", "error", err)
		return nil, false
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("Request error", "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		log.Error("Error retrieving machines", "status", resp.Status)
		return nil, false
	}

	var wired []wireDevice
	if err := json.NewDecoder(resp.Body).Decode(&wired); err != nil {
		log.Error("Error retrieving machines", "error", err)
		return nil, false
	}

	devices := make([]model.Device, 0, len(wired))
	for _, w := range wired {
		devices = append(devices, w.device())
	}
	log.Info("Retrieval completed", "total", len(devices))
	return devices, true
}

// Update PUTs new metadata for the device. A nil description or nil tags
// keeps the device's current value for that field, so a partial update
// never clobbers the untouched one.
func (c *Client) Update(ctx context.Context, current model.Device, description *string, tags []model.Tag) bool {
	body := wireDevice{
		Name:        current.Name,
		Host:        current.Host,
		Description: current.Description,
		Tags:        wireTags(current.Tags),
	}
	if description != nil {
		body.Description = *description
	}
	if tags != nil {
		body.Tags = wireTags(tags)
	}

	data, err := json.Marshal(body)
	if err != nil {
		log.Error("Error updating device", "error", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.devicesURL+"/"+url.PathEscape(current.Name), bytes.NewReader(data))
	if err != nil {
		log.Error("Error updating device", "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("Error updating device", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		log.Error("Error updating device", "status", resp.StatusCode, "response", string(respBody))
		return false
	}

	log.Info("Device updated successfully", "device", current.Name)
	return true
}
