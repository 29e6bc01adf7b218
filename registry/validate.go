package registry

import (
	"encoding/json"
	"fmt"

	"timeweathermcp/mcp"
)

// validateArguments checks a raw arguments object against a tool's declared
// input schema: required keys must be present, undeclared keys are rejected
// when additionalProperties is false, and declared primitive types must
// match. The validator is intentionally small; it covers the schema subset
// that tool descriptors in this server actually use.
func validateArguments(schema *mcp.ToolInputSchema, arguments json.RawMessage) error {
	args := map[string]any{}
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return fmt.Errorf("arguments must be a JSON object: %v", err)
		}
	}
	if schema == nil {
		return nil
	}

	for _, key := range schema.Required {
		if _, ok := args[key]; !ok {
			return fmt.Errorf("missing required argument %q", key)
		}
	}

	for key, value := range args {
		prop, declared := schema.Properties[key]
		if !declared {
			if !schema.AdditionalProperties {
				return fmt.Errorf("unexpected argument %q", key)
			}
			continue
		}
		if err := checkType(key, prop.Type, value); err != nil {
			return err
		}
	}

	return nil
}

// checkType verifies a decoded JSON value against a declared primitive type.
// An empty declared type accepts anything.
func checkType(key, declared string, value any) error {
	if declared == "" || value == nil {
		return nil
	}
	ok := false
	switch declared {
	case "string":
		_, ok = value.(string)
	case "number":
		_, ok = value.(float64)
	case "integer":
		f, isNum := value.(float64)
		ok = isNum && f == float64(int64(f))
	case "boolean":
		_, ok = value.(bool)
	case "array":
		_, ok = value.([]any)
	case "object":
		_, ok = value.(map[string]any)
	default:
		// Unknown declared type: let the handler's own decoding decide.
		ok = true
	}
	if !ok {
		return fmt.Errorf("argument %q must be of type %s", key, declared)
	}
	return nil
}
