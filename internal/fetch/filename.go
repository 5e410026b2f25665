package fetch

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
)

// Filename returns the name a download from url should be saved under.
// Content-Disposition wins over the URL basename. An empty name with a nil
// error means the URL answered 404.
func (c *Client) Filename(ctx context.Context, url string) (string, error) {
	resp, err := c.open(ctx, url)
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %w (status %d)", url, ErrURLAccess, resp.StatusCode)
	}
	return FilenameFromResponse(resp.Header, url), nil
}

// FilenameFromResponse picks the file name from a Content-Disposition header,
// falling back to the last path segment of url without its query.
func FilenameFromResponse(h http.Header, url string) string {
	if cd := h.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return path.Base(name)
			}
		}
	}
	return URLBase(url)
}

// URLBase is the basename of url with any query or fragment dropped.
func URLBase(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	base := path.Base(url)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
