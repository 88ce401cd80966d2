package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/petition/business/web/errs"
)

var client = http.Client{
	Timeout: 10 * time.Second,
}

// get performs a GET against the node and decodes the response into resp.
func get(ctx context.Context, path string, resp any) error {
	return do(ctx, http.MethodGet, path, nil, resp)
}

// post performs a POST against the node and decodes the response into resp.
func post(ctx context.Context, path string, body any, resp any) error {
	return do(ctx, http.MethodPost, path, body, resp)
}

func do(ctx context.Context, method string, path string, body any, resp any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, nodeURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var er errs.Response
		if err := json.NewDecoder(res.Body).Decode(&er); err != nil {
			return fmt.Errorf("%s %s: %s", method, path, res.Status)
		}
		if len(er.Fields) > 0 {
			return fmt.Errorf("%s %s: %s: %s: %v", method, path, res.Status, er.Error, er.Fields)
		}
		return fmt.Errorf("%s %s: %s: %s", method, path, res.Status, er.Error)
	}

	if resp == nil {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(resp)
}
