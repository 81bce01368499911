package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Text field length limits shared by the form handlers and the browser client.
const (
	MaxModuleNameLength   = 39
	MaxResourceNameLength = 64
	MaxWebhookURLLength   = 500
	MaxRedirectURLLength  = 500
	MaxPasswordLength     = 72
)

var resourceNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func ModuleName(s string) string { return checkLen(s, MaxModuleNameLength, "module name") }
func Password(s string) string   { return checkLen(s, MaxPasswordLength, "password") }

// ResourceName accepts the lowercase slugs used in /embed/{name}.
func ResourceName(s string) string {
	if s == "" {
		return "resource name is required"
	}
	if msg := checkLen(s, MaxResourceNameLength, "resource name"); msg != "" {
		return msg
	}
	if !resourceNamePattern.MatchString(s) {
		return "resource name may only contain lowercase letters, digits and dashes"
	}
	return ""
}

func WebhookURL(s string) string {
	if msg := checkLen(s, MaxWebhookURLLength, "webhook URL"); msg != "" {
		return msg
	}
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "webhook URL must be an http or https URL"
	}
	return ""
}

// RedirectURL accepts a same-site path or an absolute http(s) URL for the
// browser to navigate to when the plugin is missing.
func RedirectURL(s string) string {
	if msg := checkLen(s, MaxRedirectURLLength, "redirect URL"); msg != "" {
		return msg
	}
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil {
		return "redirect URL is not a valid URL"
	}
	if u.Scheme == "" && u.Host == "" && strings.HasPrefix(s, "/") &&
		!strings.HasPrefix(s, "//") && !strings.HasPrefix(s, `/\`) {
		return ""
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return ""
	}
	return "redirect URL must be a path starting with / or an http or https URL"
}

// FieldLimits returns a map of field names to max lengths for the /api/limits endpoint.
func FieldLimits() map[string]int {
	return map[string]int{
		"moduleName":   MaxModuleNameLength,
		"resourceName": MaxResourceNameLength,
		"webhookURL":   MaxWebhookURLLength,
		"password":     MaxPasswordLength,
	}
}
