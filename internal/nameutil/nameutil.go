// Package nameutil holds the character-scrubbing and path-normalisation
// helpers shared by the Organisation Modeller: CleanName, CleanDepartmentPath,
// ChangeGroupsRegex and ReplaceEmailDomain. Grounded on
// original_source/common/utils.py (clean_name, clean_department_path) and
// original_source/prepare_timecamp_json_from_fetch.py (process_group_path,
// replace_email_domain).
package nameutil

import (
	"strings"

	"github.com/telekom/people-sync/internal/config"
)

// stripChars are the characters the target API rejects outright: plain
// parens/braces/underscore plus the backtick and curly-quote family. This is
// a correctness requirement, not cosmetic polish (spec §4.1).
var stripChars = map[rune]struct{}{
	'(': {}, ')': {}, '{': {}, '}': {}, '_': {},
	'`':      {},
	'‘': {}, // ‘
	'’': {}, // ’
	'“': {}, // “
	'”': {}, // ”
}

// CleanName removes the characters the target API rejects and trims
// surrounding whitespace.
func CleanName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if _, bad := stripChars[r]; bad {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// CleanDepartmentPath splits on '/', trims and drops empty segments, rejoins,
// then strips the first matching skip_departments prefix. A match requires
// exact equality on leading path components: prefix "Company" strips
// "Company/X" to "X" but never strips "CompanyOps". Equality with the whole
// prefix collapses the path to "".
func CleanDepartmentPath(raw string, cfg *config.Profile) string {
	segments := splitTrim(raw)
	if len(segments) == 0 {
		return ""
	}

	var skipPrefixes [][]string
	if cfg != nil {
		for _, p := range cfg.SkipDepartments {
			skipPrefixes = append(skipPrefixes, splitTrim(p))
		}
	}

	for _, prefix := range skipPrefixes {
		if len(prefix) == 0 || len(prefix) > len(segments) {
			continue
		}
		matches := true
		for i, seg := range prefix {
			if segments[i] != seg {
				matches = false
				break
			}
		}
		if matches {
			segments = segments[len(prefix):]
			break
		}
	}

	return strings.Join(segments, "/")
}

func splitTrim(raw string) []string {
	var out []string
	for _, seg := range strings.Split(raw, "/") {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// ChangeGroupsRegex applies the configured rules sequentially to an
// already-cleaned breadcrumb. An invalid pattern never reaches here (it is
// rejected at config load time as a ConfigError); an empty replacement may
// legitimately collapse segments.
func ChangeGroupsRegex(breadcrumb string, cfg *config.Profile) string {
	if cfg == nil {
		return breadcrumb
	}
	for _, rule := range cfg.ChangeGroupsRules {
		breadcrumb = rule.Pattern.ReplaceAllString(breadcrumb, rule.Replacement)
	}
	return breadcrumb
}

// ReplaceEmailDomain replaces the portion of email after the final '@' with
// domain. Non-email strings (no '@') are returned unchanged. domain may be
// supplied with or without a leading '@'.
func ReplaceEmailDomain(email, domain string) string {
	if domain == "" {
		return email
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	domain = strings.TrimPrefix(domain, "@")
	return email[:at+1] + domain
}
