package data

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// CompositeProvider combines multiple providers, with later providers
// overriding values from earlier ones in the chain. The executor chains the
// static bindings before the request parameters so parameters win.
type CompositeProvider struct {
	providers []Provider
}

// NewCompositeProvider creates a provider that queries given providers in order.
func NewCompositeProvider(providers ...Provider) *CompositeProvider {
	return &CompositeProvider{
		providers: providers,
	}
}

// GetData retrieves data from all providers and deep merges it into a single
// map. It stops at the first provider failure.
func (p *CompositeProvider) GetData(ctx context.Context) (map[string]any, error) {
	result := make(map[string]any)

	for i, provider := range p.providers {
		if provider == nil {
			continue
		}

		data, err := provider.GetData(ctx)
		if err != nil {
			return nil, fmt.Errorf("error from provider %d: %w", i, err)
		}

		result = deepMerge(result, data)
	}

	return result, nil
}

// deepMerge merges dst into a copy of src. Nested maps are merged
// recursively; any other value in dst replaces the one in src.
func deepMerge(src, dst map[string]any) map[string]any {
	result := maps.Clone(src)

	for k, dstVal := range dst {
		srcVal, exists := result[k]
		if !exists {
			result[k] = dstVal
			continue
		}

		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dstVal.(map[string]any)
		if srcIsMap && dstIsMap {
			result[k] = deepMerge(srcMap, dstMap)
		} else {
			result[k] = dstVal
		}
	}

	return result
}

// AddDataToContext offers data to every provider in the chain. Static
// providers refuse runtime data and are skipped. It fails when every other
// provider failed, or when the chain holds only static providers.
func (p *CompositeProvider) AddDataToContext(
	ctx context.Context,
	data ...map[string]any,
) (context.Context, error) {
	finalCtx := ctx

	var errs []error
	var staticErrs []error
	successCount := 0
	dynamicCount := 0

	for i, provider := range p.providers {
		if provider == nil {
			continue
		}

		nextCtx, err := provider.AddDataToContext(finalCtx, data...)
		if errors.Is(err, ErrStaticProviderNoRuntimeUpdates) {
			staticErrs = append(staticErrs, fmt.Errorf("error from provider %d: %w", i, err))
			continue
		}
		dynamicCount++
		if err != nil {
			errs = append(errs, fmt.Errorf("error from provider %d: %w", i, err))
			continue
		}

		finalCtx = nextCtx
		successCount++
	}

	if dynamicCount == 0 && len(staticErrs) > 0 {
		return ctx, errors.Join(staticErrs...)
	}
	if successCount == 0 && len(errs) > 0 {
		return ctx, errors.Join(errs...)
	}
	return finalCtx, nil
}
