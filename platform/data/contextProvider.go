package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/robbyt/go-graphscript/platform/constants"
)

// ContextProvider stores request parameters in the context under a key and
// reads them back for the binding builder.
type ContextProvider struct {
	contextKey constants.ContextKey
}

// NewContextProvider creates a ContextProvider using contextKey, normally
// constants.Params.
func NewContextProvider(contextKey constants.ContextKey) *ContextProvider {
	return &ContextProvider{
		contextKey: contextKey,
	}
}

// GetData extracts data from the context using the configured context key.
func (p *ContextProvider) GetData(ctx context.Context) (map[string]any, error) {
	if p.contextKey == "" {
		return nil, ErrEmptyContextKey
	}

	value := ctx.Value(p.contextKey)
	if value == nil {
		return make(map[string]any), nil
	}

	d, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected map[string]any, got %T", ErrInvalidDataType, value)
	}

	return d, nil
}

// AddDataToContext merges the provided maps into the context. Values are
// normalized (json.Number and sized integers become int64 or float64), nested
// maps are merged recursively, and later values override earlier ones.
func (p *ContextProvider) AddDataToContext(
	ctx context.Context,
	data ...map[string]any,
) (context.Context, error) {
	if p.contextKey == "" {
		return ctx, ErrEmptyContextKey
	}

	var errz []error
	toStore := make(map[string]any)

	if existingData := ctx.Value(p.contextKey); existingData != nil {
		if existingMap, ok := existingData.(map[string]any); ok {
			maps.Copy(toStore, existingMap)
		}
	}

	for _, dataMap := range data {
		for key, value := range dataMap {
			if key == "" {
				errz = append(errz, ErrEmptyKey)
				continue
			}

			processedValue, err := processValue(value)
			if err != nil {
				errz = append(errz, fmt.Errorf("processing value for key '%s': %w", key, err))
				continue
			}

			mergeIntoMap(toStore, key, processedValue)
		}
	}

	newCtx := context.WithValue(ctx, p.contextKey, toStore)
	return newCtx, errors.Join(errz...)
}

// processValue converts parameter values into the types the engines bind.
func processValue(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", v.String(), err)
		}
		return f, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float32:
		return float64(v), nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			processed, err := processValue(item)
			if err != nil {
				return nil, fmt.Errorf("processing list element %d: %w", i, err)
			}
			out[i] = processed
		}
		return out, nil
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			if k == "" {
				return nil, fmt.Errorf("%w in nested maps", ErrEmptyKey)
			}
			processedVal, err := processValue(val)
			if err != nil {
				return nil, fmt.Errorf("processing nested value for key '%s': %w", k, err)
			}
			result[k] = processedVal
		}
		return result, nil
	default:
		return v, nil
	}
}

// mergeIntoMap recursively merges values into the target map
func mergeIntoMap(target map[string]any, key string, value any) {
	if newMap, ok := value.(map[string]any); ok {
		if existingValue, exists := target[key]; exists {
			if existingMap, ok := existingValue.(map[string]any); ok {
				merged := maps.Clone(existingMap)
				for k, v := range newMap {
					mergeIntoMap(merged, k, v)
				}
				target[key] = merged
				return
			}
		}
	}

	// Non-map values simply replace existing values
	target[key] = value
}
