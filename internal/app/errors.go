package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/willibrandon/datascope/internal/gateway"
)

// FormatServiceError formats a data service failure with actionable guidance
func FormatServiceError(err error, baseURL string) string {
	errMsg := err.Error()

	var rerr *gateway.RemoteOperationError
	if errors.As(err, &rerr) && rerr.Err != nil {
		// Transport failures carry a generic message; match on the cause
		errMsg = rerr.Err.Error()
	}
	if rerr != nil && rerr.Status >= 500 {
		return fmt.Sprintf(
			"The data service at %s reported an internal error (HTTP %d).\n\n"+
				"Troubleshooting steps:\n"+
				"  1. Check the data service logs\n"+
				"  2. Restart the data service\n"+
				"\nOriginal error: %s", baseURL, rerr.Status, errMsg)
	}

	// Check for common error patterns and provide guidance
	if strings.Contains(errMsg, "connection refused") {
		return fmt.Sprintf(
			"Connection refused: the data service is not running at %s.\n\n"+
				"Troubleshooting steps:\n"+
				"  1. Start the data service\n"+
				"  2. Check service.base_url in config.yaml or DATASCOPE_SERVICE_BASE_URL\n"+
				"  3. Verify firewall settings allow the connection\n"+
				"\nOriginal error: %s", baseURL, errMsg)
	}

	if strings.Contains(errMsg, "no such host") || strings.Contains(errMsg, "unknown host") {
		return fmt.Sprintf(
			"Host not found: cannot resolve the data service host in %s.\n\n"+
				"Troubleshooting steps:\n"+
				"  1. Verify the hostname in service.base_url\n"+
				"  2. Try using an IP address instead of a hostname\n"+
				"\nOriginal error: %s", baseURL, errMsg)
	}

	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline exceeded") {
		return fmt.Sprintf(
			"Timeout: the data service did not respond in time.\n\n"+
				"Troubleshooting steps:\n"+
				"  1. Check network connectivity to %s\n"+
				"  2. Large files may need a longer service.timeout\n"+
				"\nOriginal error: %s", baseURL, errMsg)
	}

	if strings.Contains(errMsg, "certificate") || strings.Contains(errMsg, "TLS") {
		return fmt.Sprintf(
			"TLS error: secure connection to %s failed.\n\n"+
				"Troubleshooting steps:\n"+
				"  1. Verify the service certificate is valid\n"+
				"  2. Use http:// for a local service\n"+
				"\nOriginal error: %s", baseURL, errMsg)
	}

	// Default error formatting
	return fmt.Sprintf(
		"Data service error:\n\n"+
			"%s\n\n"+
			"Check your configuration in config.yaml or environment variables.\n"+
			"Run with --debug flag for detailed logs.", errMsg)
}
