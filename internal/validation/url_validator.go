package validation

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("safe_url", validateSafeURL)
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// ExtractURLs scans free text for http(s) URLs, drops unsafe targets, and
// returns at most max of them in order of appearance. Duplicates are kept:
// the caller asked for each occurrence.
func ExtractURLs(text string, max int) []string {
	return ExtractURLsFiltered(text, max, IsSafeURL)
}

// ExtractURLsFiltered is ExtractURLs with a caller-chosen acceptance
// filter.
func ExtractURLsFiltered(text string, max int, accept func(string) bool) []string {
	if max <= 0 {
		return nil
	}
	if accept == nil {
		accept = IsSafeURL
	}
	var urls []string
	for _, match := range urlPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:!?)")
		if !accept(match) {
			continue
		}
		urls = append(urls, match)
		if len(urls) == max {
			break
		}
	}
	return urls
}

// IsSafeURL reports whether u is an http(s) URL pointing at a public host.
func IsSafeURL(u string) bool {
	return validate.Var(u, "required,safe_url") == nil
}

func validateSafeURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	if u.Host == "" {
		return false
	}

	host := u.Hostname()

	forbiddenHosts := []string{
		"localhost",
		"127.0.0.1",
		"::1",
		"0.0.0.0",
		"169.254.169.254",
	}

	for _, forbidden := range forbiddenHosts {
		if strings.EqualFold(host, forbidden) {
			return false
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsPrivate() || ip.IsLoopback() {
			return false
		}
	}

	return true
}
