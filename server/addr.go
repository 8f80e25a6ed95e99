package server

import (
	"fmt"
	"strconv"
	"strings"

	internalstrings "github.com/ImL1s/TodoListDemo-sub002/internal/strings"
)

// ResolveAddr normalizes a listen address. A bare port binds to the
// loopback interface; an empty value falls back to fallback.
func ResolveAddr(addr, fallback string) (string, error) {
	if internalstrings.IsBlank(addr) {
		addr = fallback
	}
	return normalizeAddr(addr)
}

func normalizeAddr(addr string) (string, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return "", fmt.Errorf("address is required")
	}
	if strings.Contains(trimmed, ":") {
		return trimmed, nil
	}
	port, err := strconv.Atoi(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid port %q", trimmed)
	}
	if port <= 0 || port > 65535 {
		return "", fmt.Errorf("port out of range: %d", port)
	}
	return fmt.Sprintf("127.0.0.1:%d", port), nil
}

// BaseURL returns the URL clients should use to reach a server listening
// on addr. Wildcard hosts are rewritten to the loopback address.
func BaseURL(addr string) string {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return internalstrings.TrimTrailingSlash(trimmed)
	}
	host := trimmed
	if strings.HasPrefix(host, ":") {
		host = "127.0.0.1" + host
	}
	if strings.HasPrefix(host, "0.0.0.0:") {
		host = "127.0.0.1:" + strings.TrimPrefix(host, "0.0.0.0:")
	}
	return "http://" + host
}
