package hafas

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"
	resty "gopkg.in/resty.v1"
)

// Error is a failure code reported by the HAFAS endpoint itself.
type Error struct {
	Code string
	Text string
}

func (e *Error) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("hafas error %s", e.Code)
	}
	return fmt.Sprintf("hafas error %s: %s", e.Code, e.Text)
}

type Client struct {
	profile Profile
	http    *resty.Client
	logger  *zap.SugaredLogger
}

func NewClient(profile Profile, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	httpClient := resty.New().
		SetTimeout(20*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if profile.UserAgent != "" {
		httpClient.SetHeader("User-Agent", profile.UserAgent)
	}

	return &Client{
		profile: profile,
		http:    httpClient,
		logger:  logger.With("profile", profile.Name),
	}
}

func (c *Client) Profile() Profile {
	return c.profile
}

type serviceRequest struct {
	Cfg  map[string]any `json:"cfg"`
	Meth string         `json:"meth"`
	Req  any            `json:"req"`
}

type responseEnvelope struct {
	Err     string `json:"err"`
	ErrTxt  string `json:"errTxt"`
	SvcResL []struct {
		Err    string          `json:"err"`
		ErrTxt string          `json:"errTxt"`
		Res    json.RawMessage `json:"res"`
	} `json:"svcResL"`
}

func (c *Client) body(svc serviceRequest, lang string) map[string]any {
	if svc.Cfg == nil {
		svc.Cfg = map[string]any{}
	}
	if c.profile.RTMode != "" {
		svc.Cfg["rtMode"] = c.profile.RTMode
	}

	body := map[string]any{
		"svcReqL": []serviceRequest{svc},
		"lang":    lang,
		"client":  c.profile.Client,
		"auth":    c.profile.Auth,
		"ver":     c.profile.Version,
	}
	if c.profile.Ext != "" {
		body["ext"] = c.profile.Ext
	}
	return body
}

// Checksum is the salted md5 some deployments require on every request.
func Checksum(body []byte, salt string) string {
	sum := md5.Sum(append(append([]byte{}, body...), salt...))
	return hex.EncodeToString(sum[:])
}

func (c *Client) request(ctx context.Context, svc serviceRequest, lang string, out any) error {
	payload, err := json.Marshal(c.body(svc, lang))
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", svc.Meth, err)
	}

	req := c.http.R().SetContext(ctx).SetBody(payload)
	if c.profile.Salt != "" {
		req.SetQueryParam("checksum", Checksum(payload, c.profile.Salt))
	}

	c.logger.Debugw("hafas request", "method", svc.Meth, "body", string(payload))

	resp, err := req.Post(c.profile.URL)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", svc.Meth, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%s request failed with status %d", svc.Meth, resp.StatusCode())
	}

	var envelope responseEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", svc.Meth, err)
	}
	if envelope.Err != "" && envelope.Err != "OK" {
		return &Error{Code: envelope.Err, Text: envelope.ErrTxt}
	}
	if len(envelope.SvcResL) == 0 {
		return fmt.Errorf("%s response is missing svcResL", svc.Meth)
	}

	inner := envelope.SvcResL[0]
	if inner.Err != "" && inner.Err != "OK" {
		return &Error{Code: inner.Err, Text: inner.ErrTxt}
	}

	if err := json.Unmarshal(inner.Res, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", svc.Meth, err)
	}
	return nil
}
