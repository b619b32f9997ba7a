package logging

import "log/slog"

// Common field names for consistent logging across the service.
const (
	FieldService      = "service"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatus       = "status"
	FieldError        = "error"
	FieldEmailGroupID = "email_group_id"
	FieldCacheSize    = "cache_size"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Error returns a slog attribute for an error value.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// EmailGroupID returns a slog attribute for an email group identifier.
func EmailGroupID(id string) slog.Attr {
	return slog.String(FieldEmailGroupID, id)
}

// CacheSize returns a slog attribute for the current cache size.
func CacheSize(n int) slog.Attr {
	return slog.Int(FieldCacheSize, n)
}
