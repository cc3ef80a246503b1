package main

import "github.com/goliatone/go-easel/pkg/catalog"

// fallbackEndpoints is the manual list the CLI falls back to when no
// descriptors can be loaded. These entries submit fine but cannot render a
// form, so run requires explicit --set values for them.
func fallbackEndpoints() []catalog.Endpoint {
	return []catalog.Endpoint{
		catalog.ManualEndpoint("fal-ai/flux/dev", "FLUX.1 [dev]", "text-to-image"),
		catalog.ManualEndpoint("fal-ai/flux/schnell", "FLUX.1 [schnell]", "text-to-image"),
		catalog.ManualEndpoint("fal-ai/flux-pro/v1.1", "FLUX1.1 [pro]", "text-to-image"),
		catalog.ManualEndpoint("fal-ai/recraft-v3", "Recraft V3", "text-to-image"),
		catalog.ManualEndpoint("fal-ai/stable-diffusion-v35-large", "Stable Diffusion 3.5 Large", "text-to-image"),
	}
}
