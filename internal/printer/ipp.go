// ABOUTME: IPP network backend for the spooling printer.
// ABOUTME: Submits each PNG page as a Print-Job to a CUPS or IPP Everywhere server.
package printer

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/phin1x/go-ipp"
)

// DefaultIPPPort is used when the IPP URL has no port.
const DefaultIPPPort = 631

// IPPSubmitter sends pages to an IPP server.
type IPPSubmitter struct {
	client *ipp.IPPClient
}

// ParseIPPURL splits an http(s)/ipp(s) URL into connection parameters.
func ParseIPPURL(rawURL string) (host string, port int, user, password string, useTLS bool, err error) {
	if rawURL == "" {
		return "", 0, "", "", false, fmt.Errorf("ipp_url is required for the ipp backend")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, "", "", false, fmt.Errorf("invalid ipp_url: %w", err)
	}
	switch u.Scheme {
	case "http", "ipp":
	case "https", "ipps":
		useTLS = true
	default:
		return "", 0, "", "", false, fmt.Errorf("unsupported ipp_url scheme %q", u.Scheme)
	}
	host = u.Hostname()
	if host == "" {
		return "", 0, "", "", false, fmt.Errorf("ipp_url has no host")
	}
	port = DefaultIPPPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, "", "", false, fmt.Errorf("invalid ipp_url port: %w", err)
		}
	}
	if u.User != nil {
		user = u.User.Username()
		password, _ = u.User.Password()
	}
	return host, port, user, password, useTLS, nil
}

// NewIPPSubmitter creates a submitter for the server at rawURL.
func NewIPPSubmitter(rawURL string) (*IPPSubmitter, error) {
	host, port, user, password, useTLS, err := ParseIPPURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &IPPSubmitter{
		client: ipp.NewIPPClient(host, port, user, password, useTLS),
	}, nil
}

// Submit sends the page as a single Print-Job.
func (s *IPPSubmitter) Submit(ctx context.Context, printer, title string, page []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := ipp.Document{
		Document: bytes.NewReader(page),
		Size:     len(page),
		Name:     title + ".png",
		MimeType: "image/png",
	}
	jobID, err := s.client.PrintJob(doc, printer, map[string]interface{}{
		ipp.AttributeJobName: title,
	})
	if err != nil {
		return fmt.Errorf("ipp print job failed: %w", err)
	}
	if jobID <= 0 {
		return fmt.Errorf("ipp server returned no job id")
	}
	return nil
}
