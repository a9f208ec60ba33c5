package repositorycache

import (
	goerrors "github.com/goliatone/go-errors"
)

// TextCodeConfiguration marks repositories that cannot be built.
const TextCodeConfiguration = "REPOSITORY_CONFIGURATION"

func configurationError(message string, metadata map[string]any) error {
	err := goerrors.New("repositorycache: "+message, goerrors.CategoryBadInput).
		WithTextCode(TextCodeConfiguration)
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

// IsConfigurationError reports whether err was returned by New because the
// repository was misconfigured.
func IsConfigurationError(err error) bool {
	var e *goerrors.Error
	if !goerrors.As(err, &e) {
		return false
	}
	return e.TextCode == TextCodeConfiguration
}
