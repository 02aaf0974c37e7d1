package config

import (
	"encoding/json"

	"dario.cat/mergo"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/runstack-io/runstack/internal/errors"
)

// deepMergeCtyMaps deeply merges two cty map/object values, with source taking precedence over target. Maps are
// merged recursively, lists are concatenated. This is the documented merge() behavior; everything else in the
// hierarchy uses shallow override.
func deepMergeCtyMaps(target cty.Value, source cty.Value) (cty.Value, error) {
	targetMap, err := ctyValueToMap(target)
	if err != nil {
		return cty.NilVal, err
	}

	sourceMap, err := ctyValueToMap(source)
	if err != nil {
		return cty.NilVal, err
	}

	if err := mergo.Merge(&targetMap, sourceMap, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return cty.NilVal, errors.New(err)
	}

	return mapToCtyValue(targetMap)
}

func ctyValueToMap(value cty.Value) (map[string]any, error) {
	jsonBytes, err := ctyjson.Marshal(value, value.Type())
	if err != nil {
		return nil, errors.New(err)
	}

	out := map[string]any{}
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		return nil, errors.New(err)
	}

	return out, nil
}

func mapToCtyValue(m map[string]any) (cty.Value, error) {
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return cty.NilVal, errors.New(err)
	}

	impliedType, err := ctyjson.ImpliedType(jsonBytes)
	if err != nil {
		return cty.NilVal, errors.New(err)
	}

	value, err := ctyjson.Unmarshal(jsonBytes, impliedType)
	if err != nil {
		return cty.NilVal, errors.New(err)
	}

	return value, nil
}

// mergeFunction exposes deepMergeCtyMaps as the merge() function inside stack files.
var mergeFunction = function.New(&function.Spec{
	VarParam: &function.Parameter{
		Name:             "maps",
		Type:             cty.DynamicPseudoType,
		AllowDynamicType: true,
	},
	Type: func(args []cty.Value) (cty.Type, error) {
		return cty.DynamicPseudoType, nil
	},
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		if len(args) == 0 {
			return cty.EmptyObjectVal, nil
		}

		merged := args[0]

		for _, arg := range args[1:] {
			var err error

			merged, err = deepMergeCtyMaps(merged, arg)
			if err != nil {
				return cty.NilVal, err
			}
		}

		return merged, nil
	},
})
