package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Bytes formats n with thousands grouping, e.g. 1,234,567.
func Bytes(n int64) string {
	return printer.Sprintf("%d", n)
}

// Download saves url to dest. The body is written to a temporary file next
// to dest and renamed into place once complete. onStart, when set, is called
// with the Content-Length (or -1) before the transfer begins.
func (c *Client) Download(ctx context.Context, url, dest string, onStart func(total int64)) (int64, error) {
	resp, err := c.open(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s: %w (status %d)", url, ErrURLAccess, resp.StatusCode)
	}
	if onStart != nil {
		onStart(resp.ContentLength)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("creating download directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("creating download file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	n, err := c.copyWithProgress(tmp, resp.Body, resp.ContentLength)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("%s: %w: %v", url, ErrDownloadHalt, err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return n, fmt.Errorf("saving download: %w", err)
	}
	c.logger.Info("downloaded", "url", url, "dest", dest, "bytes", n)
	return n, nil
}

func (c *Client) copyWithProgress(w io.Writer, r io.Reader, total int64) (int64, error) {
	if c.progress == nil || total <= 0 {
		return io.Copy(w, r)
	}

	var downloaded int64
	lastPercent := -1
	buf := make([]byte, 32*1024)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return downloaded, writeErr
			}
			downloaded += int64(n)
			percent := int(downloaded * 100 / total)
			if percent != lastPercent {
				fmt.Fprintf(c.progress, "\rDownloading... %d%%", percent)
				lastPercent = percent
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return downloaded, readErr
		}
	}
	fmt.Fprintln(c.progress)
	return downloaded, nil
}
