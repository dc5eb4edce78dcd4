package types

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend    string `json:"backend" yaml:"backend"`
	DataDir    string `json:"data_dir" yaml:"data_dir"`
	QuotaBytes int64  `json:"quota_bytes" yaml:"quota_bytes"` // 0 disables the quota.
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrQuotaInvalid   = errors.New("quota must not be negative")
)

// Backends lists the backend names Validate accepts.
func Backends() []string {
	return []string{BackendSQLite}
}

// Validate checks that the Config is well-formed. Backend names match
// ignoring case and surrounding space. Every problem found is reported;
// each matches one of the sentinel errors of this package.
func (c Config) Validate() error {
	var errs []error
	switch backend := strings.ToLower(strings.TrimSpace(c.Backend)); {
	case backend == "":
		errs = append(errs, ErrBackendEmpty)
	case !slices.Contains(Backends(), backend):
		errs = append(errs, fmt.Errorf("%w %q (supported: %s)", ErrBackendUnknown, c.Backend, strings.Join(Backends(), ", ")))
	}
	if c.QuotaBytes < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrQuotaInvalid, c.QuotaBytes))
	}
	return errors.Join(errs...)
}
