package logger

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"kwcluster/pkg/utils"
)

// SecurityLogger provides methods to safely log credentials and query targets
type SecurityLogger struct {
	*Logger
}

// NewSecurityLogger creates a new security-aware logger
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		Logger: GetLogger(),
	}
}

// NewSecurityLoggerFor wraps an existing logger
func NewSecurityLoggerFor(l *Logger) *SecurityLogger {
	return &SecurityLogger{Logger: l}
}

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s]+`)
	secretPattern = regexp.MustCompile(`(?i)(key|token|secret|bearer)([=:]\s*|\s+)[A-Za-z0-9._\-]+`)
)

// MaskToken replaces an API token with a short, stable fingerprint
func (sl *SecurityLogger) MaskToken(token string) string {
	if token == "" {
		return ""
	}
	return "token#" + utils.CalculateContentHashShort([]byte(token))
}

// MaskAPIEndpoint keeps the host and hides path and query
func (sl *SecurityLogger) MaskAPIEndpoint(apiURL string) string {
	if apiURL == "" {
		return ""
	}

	parsedURL, err := url.Parse(apiURL)
	if err != nil || parsedURL.Host == "" {
		return "api-endpoint#" + utils.CalculateContentHashShort([]byte(apiURL))
	}

	return fmt.Sprintf("%s/api#%s", parsedURL.Host, utils.CalculateContentHashShort([]byte(apiURL)))
}

// MaskTarget hides the analyzed domain but keeps its top-level suffix for context
func (sl *SecurityLogger) MaskTarget(target string) string {
	if target == "" {
		return ""
	}
	host := target
	if parsed, err := url.Parse(target); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	suffix := ""
	if i := strings.LastIndex(host, "."); i >= 0 {
		suffix = host[i:]
	}
	return "target#" + utils.CalculateContentHashShort([]byte(target)) + suffix
}

// MaskKeywords reports only how many keywords were involved
func (sl *SecurityLogger) MaskKeywords(keywords []string) string {
	if len(keywords) == 0 {
		return "no_keywords"
	}
	return fmt.Sprintf("keywords_count=%d", len(keywords))
}

// MaskSensitiveData masks credentials, endpoints, targets and keyword lists in a field map
func (sl *SecurityLogger) MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))

	for key, value := range data {
		lowerKey := strings.ToLower(key)
		str, isString := value.(string)

		switch {
		case isString && (strings.Contains(lowerKey, "token") || strings.Contains(lowerKey, "secret") ||
			strings.Contains(lowerKey, "api_key")):
			masked[key] = sl.MaskToken(str)
		case isString && (strings.Contains(lowerKey, "url") || strings.Contains(lowerKey, "endpoint")):
			masked[key] = sl.MaskAPIEndpoint(str)
		case isString && strings.Contains(lowerKey, "target"):
			masked[key] = sl.MaskTarget(str)
		case strings.Contains(lowerKey, "keywords"):
			if keywords, ok := value.([]string); ok {
				masked[key] = sl.MaskKeywords(keywords)
			} else {
				masked[key] = value
			}
		default:
			masked[key] = value
		}
	}

	return masked
}

// MaskLogMessage masks URLs and inline credentials in free text
func (sl *SecurityLogger) MaskLogMessage(message string) string {
	masked := urlPattern.ReplaceAllStringFunc(message, sl.MaskAPIEndpoint)
	return secretPattern.ReplaceAllString(masked, "${1}=***")
}

// SafeInfo logs info with automatic sensitive data masking
func (sl *SecurityLogger) SafeInfo(msg string, fields map[string]interface{}) {
	sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Info(sl.MaskLogMessage(msg))
}

// SafeWarn logs warning with automatic sensitive data masking
func (sl *SecurityLogger) SafeWarn(msg string, fields map[string]interface{}) {
	sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Warn(sl.MaskLogMessage(msg))
}

// SafeError logs error with automatic sensitive data masking
func (sl *SecurityLogger) SafeError(msg string, err error, fields map[string]interface{}) {
	l := sl.Logger.WithFields(sl.MaskSensitiveData(fields))
	if err != nil {
		l = l.WithField("error", sl.MaskLogMessage(err.Error()))
	}
	l.Error(sl.MaskLogMessage(msg))
}

var (
	securityLoggerInstance *SecurityLogger
	securityLoggerOnce     sync.Once
)

// GetSecurityLogger returns a singleton security logger
func GetSecurityLogger() *SecurityLogger {
	securityLoggerOnce.Do(func() {
		securityLoggerInstance = NewSecurityLogger()
	})
	return securityLoggerInstance
}
