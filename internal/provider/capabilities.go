package provider

import (
	"fmt"
)

// ValidateCapabilities checks if provider capabilities are valid and consistent
func ValidateCapabilities(caps ProviderCapabilities) error {
	if len(caps.MediaTypes) == 0 {
		return fmt.Errorf("provider must support at least one media type")
	}

	for _, mt := range caps.MediaTypes {
		switch mt {
		case MediaTypeMovie, MediaTypeEpisode, MediaTypeUnknown:
		default:
			return fmt.Errorf("unsupported media type %q", mt)
		}
	}

	return nil
}
