package http

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"saoke/internal/table"
)

const maxPageSize = 1000

// ParseRecordsQuery reads q, sort, dir, page and size. Absent values take
// the defaults (money, desc, page 1, defaultSize); malformed ones are errors.
func ParseRecordsQuery(values url.Values, defaultSize int) (table.Query, error) {
	q := table.DefaultQuery(defaultSize)
	q.Search = sanitizeInput(values.Get("q"))

	if v := strings.TrimSpace(values.Get("sort")); v != "" {
		col, ok := table.ParseColumn(v)
		if !ok {
			return q, fmt.Errorf("invalid sort column %q", v)
		}
		q.SortBy = col
		// an explicit column sorts ascending unless dir says otherwise
		q.Desc = false
	}

	switch dir := strings.ToLower(strings.TrimSpace(values.Get("dir"))); dir {
	case "":
	case "asc":
		q.Desc = false
	case "desc":
		q.Desc = true
	default:
		return q, fmt.Errorf("invalid sort direction %q: must be 'asc' or 'desc'", dir)
	}

	var err error
	if q.Page, err = parsePositive(values.Get("page"), 1); err != nil {
		return q, fmt.Errorf("invalid page: %w", err)
	}
	if q.Size, err = parsePositive(values.Get("size"), q.Size); err != nil {
		return q, fmt.Errorf("invalid size: %w", err)
	}
	if q.Size > maxPageSize {
		q.Size = maxPageSize
	}
	if q.Page > table.MaxPage(q.Size) {
		return q, fmt.Errorf("invalid page: %d is beyond the last addressable page", q.Page)
	}
	return q, nil
}

func parsePositive(v string, def int) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", v)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d must be at least 1", n)
	}
	return n, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// trustedProxies may set forwarding headers.
var trustedProxies = []*net.IPNet{
	mustParseCIDR("127.0.0.0/8"),
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.168.0.0/16"),
	mustParseCIDR("::1/128"),
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP returns the peer address, or the forwarded client when
// the peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}
